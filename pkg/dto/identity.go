package dto

type IdentityResponse struct {
	PersonKey    string `json:"person_key"`
	NID          string `json:"nid"`
	Name         string `json:"name"`
	PhotoURL     string `json:"photo_url"`
	RegisteredAt string `json:"registered_at"`
}

type IdentityListResponse struct {
	Data  []IdentityResponse `json:"data"`
	Total int                `json:"total"`
}

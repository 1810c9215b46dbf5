package models

import "time"

// IdentityEntry is one known individual in the NID bank. NID is unique
// across the registry and is the key detector output resolves against.
type IdentityEntry struct {
	PersonKey      string    `json:"person_key"`
	NID            string    `json:"nid"`
	DisplayName    string    `json:"display_name"`
	PhotoReference string    `json:"photo_reference"`
	RegisteredAt   time.Time `json:"registered_at"`
}

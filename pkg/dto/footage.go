package dto

type ArtifactResponse struct {
	FileName string `json:"file_name"`
	Path     string `json:"path"`
}

// AnnotatedArtifactResponse mirrors the record status at artifact level for
// compatibility with the original payload shape.
type AnnotatedArtifactResponse struct {
	FileName string                    `json:"file_name"`
	Path     string                    `json:"path"`
	Status   string                    `json:"status"`
	Persons  []PersonDetectionResponse `json:"persons,omitempty"`
	Error    string                    `json:"error,omitempty"`
}

type IdentificationResponse struct {
	NID  string `json:"nid"`
	Name string `json:"name"`
}

type PersonDetectionResponse struct {
	PersonID           string                  `json:"person_id"`
	FirstDetectedFrame int                     `json:"first_detected_frame"`
	LastDetectedFrame  int                     `json:"last_detected_frame"`
	FramesDetected     int                     `json:"frames_detected"`
	AverageConfidence  float64                 `json:"average_confidence"`
	Identification     *IdentificationResponse `json:"identification"`
}

type FootageResponse struct {
	ID                string                    `json:"id"`
	CameraID          string                    `json:"camera_id"`
	CameraLocation    string                    `json:"camera_location"`
	OriginalArtifact  ArtifactResponse          `json:"original_artifact"`
	AnnotatedArtifact AnnotatedArtifactResponse `json:"annotated_artifact"`
	Status            string                    `json:"status"`
	UploadedAt        string                    `json:"uploaded_at"`
	CompletedAt       string                    `json:"completed_at,omitempty"`
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

type FootageListResponse struct {
	Data       []FootageResponse `json:"data"`
	Pagination Pagination        `json:"pagination"`
}

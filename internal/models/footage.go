package models

import "time"

type FootageStatus string

const (
	FootageStatusProcessing FootageStatus = "Processing"
	FootageStatusCompleted  FootageStatus = "Completed"
	FootageStatusFailed     FootageStatus = "Failed"
)

// Terminal reports whether no further status transitions may occur.
func (s FootageStatus) Terminal() bool {
	return s == FootageStatusCompleted || s == FootageStatusFailed
}

// Artifact is a stored video file belonging to a footage record.
type Artifact struct {
	FileName string `json:"file_name"`
	Path     string `json:"path"`
}

// AnnotatedArtifact is the detector's output video plus the structured
// detections extracted from its metadata file. Persons stays nil when the
// detector produced no parseable metadata.
type AnnotatedArtifact struct {
	FileName string            `json:"file_name"`
	Path     string            `json:"path"`
	Persons  []PersonDetection `json:"persons,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// Footage is one uploaded video and its processing state. Status is stored
// once here; the artifact-level copy the original payload carried is
// reconstructed at the DTO boundary.
type Footage struct {
	ID                string            `json:"id"`
	CameraID          string            `json:"camera_id"`
	CameraLocation    string            `json:"camera_location"`
	OriginalArtifact  Artifact          `json:"original_artifact"`
	AnnotatedArtifact AnnotatedArtifact `json:"annotated_artifact"`
	Status            FootageStatus     `json:"status"`
	UploadedAt        time.Time         `json:"uploaded_at"`
	CompletedAt       *time.Time        `json:"completed_at,omitempty"`
}

// Identification links a detected person to a registry entry. Absence means
// the person is unknown.
type Identification struct {
	NID  string `json:"nid"`
	Name string `json:"name"`
}

// PersonDetection is one person tracked across the frames of a single video.
type PersonDetection struct {
	PersonID           string          `json:"person_id"`
	FirstDetectedFrame int             `json:"first_detected_frame"`
	LastDetectedFrame  int             `json:"last_detected_frame"`
	FramesDetected     int             `json:"frames_detected"`
	AverageConfidence  float64         `json:"average_confidence"`
	Identification     *Identification `json:"identification,omitempty"`
}

// Identified reports whether the detection resolved to a registry entry.
func (p PersonDetection) Identified() bool {
	return p.Identification != nil
}

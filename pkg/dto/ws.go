package dto

// WSEvent is broadcast to dashboard clients on footage lifecycle transitions.
// Type is one of footage_uploaded, footage_completed, footage_failed.
type WSEvent struct {
	Type      string `json:"type"`
	FootageID string `json:"footage_id"`
	Data      any    `json:"data,omitempty"`
}

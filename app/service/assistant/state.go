package assistant

import "vetbuddy/app/service/responder"

type Status string

const (
	StatusIdle       Status = "idle"
	StatusListening  Status = "listening"
	StatusProcessing Status = "processing"
	StatusSpeaking   Status = "speaking"
	StatusError      Status = "error"
)

// State is the published view of the session consumed by UI surfaces.
type State struct {
	Status      Status             `json:"status"`
	Message     string             `json:"message"`
	IsListening bool               `json:"is_listening"`
	Actions     []responder.Action `json:"actions,omitempty"`
}

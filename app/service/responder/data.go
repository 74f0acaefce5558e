package responder

import (
	"context"

	"vetbuddy/app/service/conversation"
)

type ActionType string

const (
	ActionNavigate            ActionType = "NAVIGATE"
	ActionAddPet              ActionType = "ADD_PET"
	ActionScheduleAppointment ActionType = "SCHEDULE_APPOINTMENT"
	ActionShowPetInfo         ActionType = "SHOW_PET_INFO"
	ActionShowReminder        ActionType = "SHOW_REMINDER"
)

// Action is a structured instruction returned alongside a response,
// naming a side effect for the dispatcher to perform.
type Action struct {
	Type    ActionType     `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

type Response struct {
	Text    string   `json:"text"`
	Actions []Action `json:"actions,omitempty"`
	IsError bool     `json:"is_error"`
}

// Responder turns an ordered message history into a response. The
// deterministic rules engine is the default; an LLM-backed
// implementation can be swapped in behind the same contract.
type Responder interface {
	Generate(ctx context.Context, history []conversation.Message) (*Response, error)
}

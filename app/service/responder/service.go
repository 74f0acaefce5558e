package responder

import (
	"context"
	"time"

	"vetbuddy/app/config"
	"vetbuddy/app/service/conversation"

	"github.com/samber/do"
)

const defaultLatency = time.Second

const apologyText = "I apologize, but I encountered an error processing your request. Please try again."

var greetings = []string{
	"How can I help with your pet today?",
	"What would you like to know about your pet's health?",
	"How may I assist you with your pet care needs?",
	"What pet-related questions do you have today?",
	"How can I help you and your furry friend today?",
}

// New selects the responder implementation from config.
func New(di *do.Injector) (Responder, error) {
	cfg := do.MustInvoke[*config.Config](di)

	if cfg.Responder.Mode == "openai" {
		return NewLLM(cfg.Responder.OpenAI)
	}

	return NewRules(), nil
}

// Rules is the deterministic keyword-matching engine. It inspects
// only the most recent message and returns canned text plus
// zero-or-one action; same content always yields the same intent.
type Rules struct {
	// Latency simulates model thinking time.
	Latency time.Duration
}

func NewRules() *Rules {
	return &Rules{
		Latency: defaultLatency,
	}
}

func (r *Rules) Generate(ctx context.Context, history []conversation.Message) (*Response, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(r.Latency):
	}

	if len(history) == 0 {
		return &Response{
			Text: greetings[0],
		}, nil
	}

	last := history[len(history)-1]

	switch classify(last.Content) {
	case IntentAppointment:
		return &Response{
			Text: "I can help you schedule an appointment. When would you like to visit the veterinarian?",
			Actions: []Action{{
				Type:    ActionScheduleAppointment,
				Payload: map[string]any{"suggested": true},
			}},
		}, nil

	case IntentAddPet:
		payload := map[string]any{"step": "species"}
		for key, value := range extractEntities(last.Content) {
			payload[key] = value
		}

		return &Response{
			Text: "That's exciting! Let's add your new pet to your profile. What type of pet do you have?",
			Actions: []Action{{
				Type:    ActionAddPet,
				Payload: payload,
			}},
		}, nil

	case IntentMedication:
		return &Response{
			Text: "It's important to follow your vet's instructions for any medication. Would you like me to set a reminder for your pet's medication?",
			Actions: []Action{{
				Type:    ActionShowReminder,
				Payload: map[string]any{"type": "medication"},
			}},
		}, nil

	case IntentPetInfo:
		return &Response{
			Text: "Here is what I have on file for your pet.",
			Actions: []Action{{
				Type: ActionShowPetInfo,
			}},
		}, nil

	default:
		return &Response{
			Text: "I'm here to help with any questions about your pets. Would you like information about pet care, scheduling an appointment, or something else?",
		}, nil
	}
}

// Apology is the generic failure response shown when generation
// itself fails.
func Apology() *Response {
	return &Response{
		Text:    apologyText,
		IsError: true,
	}
}

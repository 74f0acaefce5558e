package speech

import (
	"context"
	"time"

	"vetbuddy/app/client/speechkit"
	"vetbuddy/app/config"

	"github.com/samber/do"
)

// Backend plays a single utterance and blocks until playback finishes
// or ctx is cancelled.
type Backend interface {
	Speak(ctx context.Context, text string) error
}

// NewBackend selects the playback backend from config. The simulation
// keeps UI timing observable without an audio device.
func NewBackend(di *do.Injector) (Backend, error) {
	cfg := do.MustInvoke[*config.Config](di)

	if cfg.Speech.Backend == "speechkit" {
		return do.Invoke[*speechkit.Client](di)
	}

	return &Simulated{}, nil
}

const (
	charDuration         = 90 * time.Millisecond
	maxSimulatedDuration = 5 * time.Second
)

// Simulated waits roughly as long as narrating the text would take,
// capped so long responses do not stall the session.
type Simulated struct{}

func (s *Simulated) Speak(ctx context.Context, text string) error {
	duration := time.Duration(len(text)) * charDuration
	if duration > maxSimulatedDuration {
		duration = maxSimulatedDuration
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(duration):
		return nil
	}
}

package assistant

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"vetbuddy/app/config"
	"vetbuddy/app/service/conversation"
	"vetbuddy/app/service/diag"
	"vetbuddy/app/service/dispatch"
	"vetbuddy/app/service/responder"
	"vetbuddy/app/service/speech"

	"github.com/samber/do"
)

const (
	component           = "assistant"
	defaultListenWindow = 2 * time.Second
	simulatedUtterance  = "Tell me about pet vaccinations"
)

var markupPattern = regexp.MustCompile(`<[^>]*>?`)

var _ do.Shutdownable = (*Service)(nil)

// Service composes the conversation store, response engine, speech
// controller and action dispatcher behind a single observable status
// state machine.
type Service struct {
	cfg    *config.Config
	appCtx context.Context

	conversationSvc *conversation.Service
	respEngine      responder.Responder
	speechSvc       *speech.Service
	dispatchSvc     *dispatch.Service
	diagSvc         *diag.Service

	// sendMu serializes message pipelines: one sendMessage is in
	// flight at a time, so message ordering never interleaves.
	sendMu sync.Mutex

	mu        sync.RWMutex
	status    Status
	message   string
	listening bool
	actions   []responder.Action
	listenSeq uint64

	listenWindow time.Duration
	updates      *feed

	unsubStart func()
	unsubEnd   func()
}

func New(di *do.Injector) (*Service, error) {
	diagSvc := do.MustInvoke[*diag.Service](di)

	s := &Service{
		cfg:             do.MustInvoke[*config.Config](di),
		appCtx:          do.MustInvoke[context.Context](di),
		conversationSvc: do.MustInvoke[*conversation.Service](di),
		respEngine:      do.MustInvoke[responder.Responder](di),
		speechSvc:       do.MustInvoke[*speech.Service](di),
		dispatchSvc:     do.MustInvoke[*dispatch.Service](di),
		diagSvc:         diagSvc,
		status:          StatusIdle,
		listenWindow:    defaultListenWindow,
		updates:         newFeed(diagSvc),
	}

	// Speech notifications drive processing→speaking→idle without the
	// pipeline tracking playback itself.
	s.unsubStart = s.speechSvc.OnSpeakStart(func() {
		s.setStatus(StatusSpeaking)
	})
	s.unsubEnd = s.speechSvc.OnSpeakEnd(func() {
		// A preempted utterance also fires an end event; only the
		// last one may return the session to idle.
		if s.speechSvc.IsSpeaking() {
			return
		}

		s.mu.Lock()
		changed := s.status == StatusSpeaking
		if changed {
			s.status = StatusIdle
		}
		s.mu.Unlock()

		if changed {
			s.publish()
		}
	})

	return s, nil
}

// SendMessage runs the full pipeline: sanitize, append user message,
// generate, append assistant message, narrate, dispatch actions.
// Empty input after sanitization is a silent no-op.
func (s *Service) SendMessage(ctx context.Context, text string) (*responder.Response, error) {
	return s.sendMessage(ctx, text, 0)
}

// sendMessage is the pipeline body. A nonzero listenToken marks a
// submission from a listening window; it is re-checked once the
// pipeline slot is held, so a StopListening that lands while the
// submission waits for the slot still cancels it.
func (s *Service) sendMessage(ctx context.Context, text string, listenToken uint64) (*responder.Response, error) {
	clean := sanitize(text)
	if clean == "" {
		s.diagSvc.Warn(component, "empty message after sanitization", nil)
		return nil, nil
	}

	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	s.mu.Lock()
	if listenToken != 0 && (listenToken != s.listenSeq || !s.listening) {
		s.mu.Unlock()
		return nil, nil
	}
	s.listening = false
	s.listenSeq++
	s.status = StatusProcessing
	s.mu.Unlock()
	s.publish()

	s.conversationSvc.AddMessage(conversation.RoleUser, clean)

	resp, err := s.respEngine.Generate(ctx, s.conversationSvc.ActiveMessages())
	if err != nil || resp == nil || resp.IsError {
		apology := responder.Apology().Text
		if resp != nil && resp.Text != "" {
			apology = resp.Text
		}

		s.mu.Lock()
		s.status = StatusError
		s.message = apology
		s.actions = nil
		s.mu.Unlock()
		s.publish()

		s.diagSvc.Error(component, "response generation failed", map[string]any{"error": fmt.Sprint(err)})

		if err == nil {
			err = fmt.Errorf("response engine reported an error")
		}

		return nil, err
	}

	s.conversationSvc.AddMessage(conversation.RoleAssistant, resp.Text)

	s.mu.Lock()
	s.message = resp.Text
	s.actions = resp.Actions
	s.mu.Unlock()
	s.publish()

	if s.cfg.Assistant.DisableAudio {
		s.setStatus(StatusIdle)
	} else if err := s.speechSvc.Speak(ctx, resp.Text); err != nil {
		// Playback faults are contained; the controller has already
		// fired the end notification.
		s.diagSvc.Warn(component, "speech failed", map[string]any{"error": err.Error()})
	}

	s.dispatchSvc.Dispatch(resp.Actions)

	s.diagSvc.Info(component, "message processed", map[string]any{"actions": len(resp.Actions)})

	return resp, nil
}

// Speak narrates text directly, bypassing the response engine.
func (s *Service) Speak(ctx context.Context, text string) error {
	s.mu.Lock()
	s.message = text
	s.mu.Unlock()
	s.publish()

	if s.cfg.Assistant.DisableAudio {
		return nil
	}

	if err := s.speechSvc.Speak(ctx, text); err != nil {
		s.diagSvc.Warn(component, "speech failed", map[string]any{"error": err.Error()})
		return err
	}

	return nil
}

// StopSpeaking cancels any in-flight narration; a no-op when silent.
func (s *Service) StopSpeaking() {
	s.speechSvc.Stop()
}

// StartListening begins the simulated listening window. After the
// window elapses a canned utterance is submitted unless StopListening
// was called first.
func (s *Service) StartListening() {
	s.mu.Lock()
	if s.listening {
		s.mu.Unlock()
		return
	}

	s.listening = true
	s.status = StatusListening
	s.listenSeq++
	token := s.listenSeq
	s.mu.Unlock()
	s.publish()

	go s.awaitUtterance(token)
}

func (s *Service) awaitUtterance(token uint64) {
	select {
	case <-s.appCtx.Done():
		return
	case <-time.After(s.listenWindow):
	}

	s.mu.RLock()
	stale := token != s.listenSeq || !s.listening
	s.mu.RUnlock()

	if stale {
		return
	}

	if _, err := s.sendMessage(s.appCtx, simulatedUtterance, token); err != nil {
		s.diagSvc.Error(component, "simulated utterance failed", map[string]any{"error": err.Error()})
	}
}

// StopListening cancels the pending listening window.
func (s *Service) StopListening() {
	s.mu.Lock()
	s.listenSeq++
	changed := s.listening
	s.listening = false
	if s.status == StatusListening {
		s.status = StatusIdle
	}
	s.mu.Unlock()

	if changed {
		s.publish()
	}
}

// ClearConversation empties the active conversation and resets the
// published message and actions.
func (s *Service) ClearConversation() {
	s.conversationSvc.ClearActive()

	s.mu.Lock()
	s.message = ""
	s.actions = nil
	s.mu.Unlock()
	s.publish()
}

// RegisterNavigator binds the navigation surface used by NAVIGATE and
// ADD_PET actions.
func (s *Service) RegisterNavigator(nav dispatch.Navigator) {
	s.dispatchSvc.RegisterNavigator(nav)
}

// Snapshot returns the current published state.
func (s *Service) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.stateLocked()
}

// Subscribe returns a channel of state updates and an unsubscribe
// function. Updates are dropped (with a warning) if the subscriber
// falls behind.
func (s *Service) Subscribe() (<-chan State, func()) {
	return s.updates.subscribe()
}

func (s *Service) Shutdown() error {
	s.unsubStart()
	s.unsubEnd()
	s.updates.close()

	return nil
}

func (s *Service) setStatus(status Status) {
	s.mu.Lock()
	changed := s.status != status
	s.status = status
	s.mu.Unlock()

	if changed {
		s.publish()
	}
}

func (s *Service) publish() {
	s.mu.RLock()
	state := s.stateLocked()
	s.mu.RUnlock()

	s.updates.publish(state)
}

func (s *Service) stateLocked() State {
	actions := make([]responder.Action, len(s.actions))
	copy(actions, s.actions)

	return State{
		Status:      s.status,
		Message:     s.message,
		IsListening: s.listening,
		Actions:     actions,
	}
}

// sanitize strips markup and surrounding whitespace from raw input.
func sanitize(input string) string {
	return strings.TrimSpace(markupPattern.ReplaceAllString(input, ""))
}

package speech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/do"
)

const maxUtteranceDuration = time.Minute

type utterance struct {
	id     uint64
	cancel context.CancelFunc
	done   chan struct{}
}

// Service serializes text-to-speech playback: at most one utterance is
// in flight, a new Speak preempts the current one, and the end
// notification fires exactly once per Speak call on every path.
type Service struct {
	backend Backend

	mu       sync.Mutex
	speaking bool
	current  *utterance
	seq      uint64

	startSubs map[int]func()
	endSubs   map[int]func()
	nextSub   int
}

func New(di *do.Injector) (*Service, error) {
	backend, err := NewBackend(di)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech backend: %w", err)
	}

	return NewWithBackend(backend), nil
}

func NewWithBackend(backend Backend) *Service {
	return &Service{
		backend:   backend,
		startSubs: make(map[int]func()),
		endSubs:   make(map[int]func()),
	}
}

// Speak narrates text, cancelling any utterance already in flight.
// It returns once playback completes, is preempted or fails; the
// speaking flag is reset and the end notification fired on all paths.
func (s *Service) Speak(ctx context.Context, text string) error {
	ctx, timeoutCancel := context.WithTimeout(ctx, maxUtteranceDuration)
	defer timeoutCancel()

	utterCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	prev := s.current
	s.seq++
	utt := &utterance{
		id:     s.seq,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	s.current = utt
	s.speaking = true
	s.mu.Unlock()

	// Best-effort preemption: the previous utterance unwinds on its
	// own goroutine and must not clear the flag we just set.
	if prev != nil {
		prev.cancel()
	}

	s.notify(s.snapshotSubs(true))

	err := s.backend.Speak(utterCtx, text)

	s.mu.Lock()
	if s.current != nil && s.current.id == utt.id {
		s.current = nil
		s.speaking = false
	}
	s.mu.Unlock()

	close(utt.done)
	cancel()

	s.notify(s.snapshotSubs(false))

	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("playback failed: %w", err)
	}

	return nil
}

// Stop cancels the current utterance and waits for its teardown.
// Calling it with nothing in flight is a no-op.
func (s *Service) Stop() {
	s.mu.Lock()
	utt := s.current
	s.mu.Unlock()

	if utt == nil {
		return
	}

	utt.cancel()
	<-utt.done
}

func (s *Service) IsSpeaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.speaking
}

// OnSpeakStart registers a start listener; the returned function
// unregisters it.
func (s *Service) OnSpeakStart(fn func()) func() {
	return s.subscribe(s.startSubs, fn)
}

// OnSpeakEnd registers an end listener; the returned function
// unregisters it.
func (s *Service) OnSpeakEnd(fn func()) func() {
	return s.subscribe(s.endSubs, fn)
}

func (s *Service) subscribe(subs map[int]func(), fn func()) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(subs, id)
		s.mu.Unlock()
	}
}

func (s *Service) snapshotSubs(start bool) []func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs := s.endSubs
	if start {
		subs = s.startSubs
	}

	result := make([]func(), 0, len(subs))
	for _, fn := range subs {
		result = append(result, fn)
	}

	return result
}

// notify runs listeners with panic isolation so one failing
// subscriber cannot block the others or corrupt controller state.
func (s *Service) notify(listeners []func()) {
	for _, fn := range listeners {
		func() {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("speech listener panicked", "panic", r)
				}
			}()

			fn()
		}()
	}
}

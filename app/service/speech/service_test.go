package speech_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"vetbuddy/app/service/speech"
)

// fakeBackend blocks until released or cancelled so tests can hold an
// utterance in flight.
type fakeBackend struct {
	started chan string
	release chan error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		started: make(chan string, 16),
		release: make(chan error),
	}
}

func (b *fakeBackend) Speak(ctx context.Context, text string) error {
	b.started <- text

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-b.release:
		return err
	}
}

type instantBackend struct {
	err error
}

func (b *instantBackend) Speak(_ context.Context, _ string) error {
	return b.err
}

func waitStarted(t *testing.T, b *fakeBackend) string {
	t.Helper()

	select {
	case text := <-b.started:
		return text
	case <-time.After(time.Second):
		t.Fatalf("backend never started")
		return ""
	}
}

func TestSpeakFiresStartAndEndOnce(t *testing.T) {
	svc := speech.NewWithBackend(&instantBackend{})

	var starts, ends atomic.Int64
	svc.OnSpeakStart(func() { starts.Add(1) })
	svc.OnSpeakEnd(func() { ends.Add(1) })

	if err := svc.Speak(context.Background(), "hello"); err != nil {
		t.Fatalf("Speak failed: %v", err)
	}

	if starts.Load() != 1 || ends.Load() != 1 {
		t.Fatalf("expected 1 start and 1 end, got %d/%d", starts.Load(), ends.Load())
	}
	if svc.IsSpeaking() {
		t.Fatalf("speaking flag not cleared")
	}
}

func TestSpeakPreemptsCurrentUtterance(t *testing.T) {
	backend := newFakeBackend()
	svc := speech.NewWithBackend(backend)

	var ends atomic.Int64
	svc.OnSpeakEnd(func() { ends.Add(1) })

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- svc.Speak(context.Background(), "first")
	}()
	waitStarted(t, backend)

	secondDone := make(chan error, 1)
	go func() {
		secondDone <- svc.Speak(context.Background(), "second")
	}()
	waitStarted(t, backend)

	// The first Speak unwinds via cancellation, without an error.
	select {
	case err := <-firstDone:
		if err != nil {
			t.Fatalf("preempted Speak returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("preempted Speak never returned")
	}

	if !svc.IsSpeaking() {
		t.Fatalf("second utterance should still be in flight")
	}

	backend.release <- nil
	select {
	case err := <-secondDone:
		if err != nil {
			t.Fatalf("second Speak failed: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("second Speak never returned")
	}

	if svc.IsSpeaking() {
		t.Fatalf("speaking flag not cleared after second utterance")
	}
	if ends.Load() != 2 {
		t.Fatalf("expected exactly 2 end notifications, got %d", ends.Load())
	}
}

func TestStopCancelsAndWaits(t *testing.T) {
	backend := newFakeBackend()
	svc := speech.NewWithBackend(backend)

	done := make(chan error, 1)
	go func() {
		done <- svc.Speak(context.Background(), "long story")
	}()
	waitStarted(t, backend)

	svc.Stop()

	if svc.IsSpeaking() {
		t.Fatalf("Stop returned while still speaking")
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("stopped Speak returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("stopped Speak never returned")
	}

	// Idempotent with nothing in flight.
	svc.Stop()
	svc.Stop()
}

func TestBackendErrorResetsState(t *testing.T) {
	svc := speech.NewWithBackend(&instantBackend{err: errors.New("device busy")})

	var ends atomic.Int64
	svc.OnSpeakEnd(func() { ends.Add(1) })

	if err := svc.Speak(context.Background(), "hello"); err == nil {
		t.Fatalf("expected playback error")
	}

	if svc.IsSpeaking() {
		t.Fatalf("speaking flag not cleared after failure")
	}
	if ends.Load() != 1 {
		t.Fatalf("end notification must fire on failure, got %d", ends.Load())
	}
}

func TestListenerPanicIsolated(t *testing.T) {
	svc := speech.NewWithBackend(&instantBackend{})

	var called atomic.Bool
	svc.OnSpeakEnd(func() { panic("listener bug") })
	svc.OnSpeakEnd(func() { called.Store(true) })

	if err := svc.Speak(context.Background(), "hello"); err != nil {
		t.Fatalf("Speak failed: %v", err)
	}

	if !called.Load() {
		t.Fatalf("panicking listener blocked the others")
	}
}

func TestUnsubscribeStopsNotifications(t *testing.T) {
	svc := speech.NewWithBackend(&instantBackend{})

	var count atomic.Int64
	unsub := svc.OnSpeakEnd(func() { count.Add(1) })

	if err := svc.Speak(context.Background(), "one"); err != nil {
		t.Fatalf("Speak failed: %v", err)
	}

	unsub()

	if err := svc.Speak(context.Background(), "two"); err != nil {
		t.Fatalf("Speak failed: %v", err)
	}

	if count.Load() != 1 {
		t.Fatalf("expected 1 notification after unsubscribe, got %d", count.Load())
	}
}

func TestSimulatedDurationScalesWithText(t *testing.T) {
	svc := speech.NewWithBackend(&speech.Simulated{})

	start := time.Now()
	if err := svc.Speak(context.Background(), "hi"); err != nil {
		t.Fatalf("Speak failed: %v", err)
	}

	// 2 chars at 90ms each.
	if elapsed := time.Since(start); elapsed < 150*time.Millisecond {
		t.Fatalf("simulated playback returned too early: %v", elapsed)
	}
}

package diag_test

import (
	"fmt"
	"log/slog"
	"testing"

	"vetbuddy/app/service/diag"
)

func newTestService(t *testing.T) *diag.Service {
	t.Helper()

	svc, err := diag.New(nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	return svc
}

func TestCountsPerLevel(t *testing.T) {
	svc := newTestService(t)

	svc.Info("test", "one", nil)
	svc.Info("test", "two", nil)
	svc.Warn("test", "three", nil)
	svc.Error("test", "four", map[string]any{"key": "value"})

	if got := svc.Count(slog.LevelInfo); got != 2 {
		t.Fatalf("info count = %d, want 2", got)
	}
	if got := svc.Count(slog.LevelWarn); got != 1 {
		t.Fatalf("warn count = %d, want 1", got)
	}
	if got := svc.Count(slog.LevelError); got != 1 {
		t.Fatalf("error count = %d, want 1", got)
	}
	if got := svc.Count(slog.LevelDebug); got != 0 {
		t.Fatalf("debug count = %d, want 0", got)
	}
}

func TestRingIsBounded(t *testing.T) {
	svc := newTestService(t)

	for i := 0; i < 150; i++ {
		svc.Info("test", fmt.Sprintf("entry %d", i), nil)
	}

	entries := svc.Entries()
	if len(entries) != 100 {
		t.Fatalf("expected ring capped at 100, got %d", len(entries))
	}

	// Oldest entries are evicted first.
	if entries[0].Message != "entry 50" {
		t.Fatalf("unexpected oldest entry: %q", entries[0].Message)
	}
	if entries[len(entries)-1].Message != "entry 149" {
		t.Fatalf("unexpected newest entry: %q", entries[len(entries)-1].Message)
	}

	// The counter keeps counting past eviction.
	if got := svc.Count(slog.LevelInfo); got != 150 {
		t.Fatalf("info count = %d, want 150", got)
	}
}

func TestSubscribeAndUnsubscribe(t *testing.T) {
	svc := newTestService(t)

	var received []diag.Entry
	unsub := svc.Subscribe(func(entry diag.Entry) {
		received = append(received, entry)
	})

	svc.Info("test", "first", nil)
	unsub()
	svc.Info("test", "second", nil)

	if len(received) != 1 || received[0].Message != "first" {
		t.Fatalf("unexpected received entries: %+v", received)
	}
}

func TestListenerPanicIsolated(t *testing.T) {
	svc := newTestService(t)

	var called bool
	svc.Subscribe(func(diag.Entry) { panic("listener bug") })
	svc.Subscribe(func(diag.Entry) { called = true })

	svc.Info("test", "event", nil)

	if !called {
		t.Fatalf("panicking listener blocked the others")
	}
	if got := svc.Count(slog.LevelInfo); got != 1 {
		t.Fatalf("recording broken by listener panic, count = %d", got)
	}
}

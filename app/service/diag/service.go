package diag

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/do"
)

const maxEntries = 100

// Entry is a single recorded diagnostic event.
type Entry struct {
	Time      time.Time      `json:"time"`
	Level     slog.Level     `json:"level"`
	Component string         `json:"component"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
}

// Service is the cross-cutting observability collaborator. Every
// operation-level event flows through here; entries are kept in a
// bounded in-memory ring and mirrored to slog.
type Service struct {
	mu        sync.RWMutex
	entries   []Entry
	counts    map[slog.Level]int64
	listeners map[int]func(Entry)
	nextID    int
}

func New(_ *do.Injector) (*Service, error) {
	return &Service{
		counts:    make(map[slog.Level]int64),
		listeners: make(map[int]func(Entry)),
	}, nil
}

func (s *Service) Debug(component, message string, data map[string]any) {
	s.record(slog.LevelDebug, component, message, data)
}

func (s *Service) Info(component, message string, data map[string]any) {
	s.record(slog.LevelInfo, component, message, data)
}

func (s *Service) Warn(component, message string, data map[string]any) {
	s.record(slog.LevelWarn, component, message, data)
}

func (s *Service) Error(component, message string, data map[string]any) {
	s.record(slog.LevelError, component, message, data)
}

func (s *Service) record(level slog.Level, component, message string, data map[string]any) {
	entry := Entry{
		Time:      time.Now(),
		Level:     level,
		Component: component,
		Message:   message,
		Data:      data,
	}

	s.mu.Lock()
	s.entries = append(s.entries, entry)
	if len(s.entries) > maxEntries {
		s.entries = s.entries[len(s.entries)-maxEntries:]
	}
	s.counts[level]++

	listeners := make([]func(Entry), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	slog.Log(context.Background(), level, message, "component", component, "data", data)

	for _, fn := range listeners {
		notify(fn, entry)
	}
}

// notify isolates listener panics so one broken subscriber cannot
// break recording for the rest.
func notify(fn func(Entry), entry Entry) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("diag listener panicked", "panic", r)
		}
	}()

	fn(entry)
}

// Count returns the number of entries recorded at the given level.
func (s *Service) Count(level slog.Level) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.counts[level]
}

// Entries returns a snapshot of the retained ring.
func (s *Service) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Entry, len(s.entries))
	copy(result, s.entries)

	return result
}

// Subscribe registers a listener for new entries. The returned
// function unregisters it.
func (s *Service) Subscribe(fn func(Entry)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

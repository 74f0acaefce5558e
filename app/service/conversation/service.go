package conversation

import (
	"fmt"
	"sync"
	"time"

	"github.com/elliotchance/pie/v2"
	"github.com/google/uuid"
	"github.com/samber/do"
)

// Service owns all conversations and tracks the single active one.
// Exactly one conversation receives appended messages at a time; it is
// created lazily on first append.
type Service struct {
	mu            sync.RWMutex
	conversations []*Conversation
	activeID      string
	now           func() time.Time
}

func New(_ *do.Injector) (*Service, error) {
	return &Service{
		now: time.Now,
	}, nil
}

// CreateConversation allocates a new empty conversation, makes it
// active and returns its id. The previously active conversation is
// retained.
func (s *Service) CreateConversation(title string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.createLocked(title)
}

func (s *Service) createLocked(title string) string {
	now := s.now()

	if title == "" {
		title = fmt.Sprintf("Conversation %d", len(s.conversations)+1)
	}

	conv := &Conversation{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.conversations = append(s.conversations, conv)
	s.activeID = conv.ID

	return conv.ID
}

// AddMessage appends a message to the active conversation, creating
// one first if none exists. Timestamps are monotonically
// non-decreasing within a conversation even if the wall clock steps
// backwards.
func (s *Service) AddMessage(role Role, content string) Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := s.activeLocked()
	if conv == nil {
		s.createLocked("")
		conv = s.activeLocked()
	}

	ts := s.now()
	if n := len(conv.Messages); n > 0 && ts.Before(conv.Messages[n-1].Timestamp) {
		ts = conv.Messages[n-1].Timestamp
	}

	msg := Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: ts,
	}

	conv.Messages = append(conv.Messages, msg)
	conv.UpdatedAt = ts

	return msg
}

// ActiveMessages returns a snapshot of the active conversation's
// messages, empty if no conversation is active.
func (s *Service) ActiveMessages() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv := s.activeLocked()
	if conv == nil {
		return nil
	}

	result := make([]Message, len(conv.Messages))
	copy(result, conv.Messages)

	return result
}

// ActiveConversation returns a copy of the active conversation.
func (s *Service) ActiveConversation() (Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv := s.activeLocked()
	if conv == nil {
		return Conversation{}, false
	}

	return copyConversation(conv), true
}

// SetActive switches the active conversation.
func (s *Service) SetActive(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := pie.FindFirstUsing(s.conversations, func(c *Conversation) bool {
		return c.ID == id
	})
	if idx < 0 {
		return false
	}

	s.activeID = id

	return true
}

// Conversations returns copies of all conversations in creation order.
func (s *Service) Conversations() []Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Conversation, 0, len(s.conversations))
	for _, conv := range s.conversations {
		result = append(result, copyConversation(conv))
	}

	return result
}

// ClearActive empties the active conversation without deleting it.
func (s *Service) ClearActive() {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := s.activeLocked()
	if conv == nil {
		return
	}

	conv.Messages = nil
	conv.UpdatedAt = s.now()
}

// DeleteConversation removes a conversation. If it was active, the
// first remaining conversation is promoted; with none left there is no
// active conversation until the next append.
func (s *Service) DeleteConversation(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := pie.FindFirstUsing(s.conversations, func(c *Conversation) bool {
		return c.ID == id
	})
	if idx < 0 {
		return false
	}

	s.conversations = append(s.conversations[:idx], s.conversations[idx+1:]...)

	if s.activeID == id {
		if len(s.conversations) > 0 {
			s.activeID = s.conversations[0].ID
		} else {
			s.activeID = ""
		}
	}

	return true
}

func (s *Service) activeLocked() *Conversation {
	if s.activeID == "" {
		return nil
	}

	idx := pie.FindFirstUsing(s.conversations, func(c *Conversation) bool {
		return c.ID == s.activeID
	})
	if idx < 0 {
		return nil
	}

	return s.conversations[idx]
}

func copyConversation(conv *Conversation) Conversation {
	result := *conv
	result.Messages = make([]Message, len(conv.Messages))
	copy(result.Messages, conv.Messages)

	return result
}

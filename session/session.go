package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mohammad-safakhou/campusbot/models"
)

// Store keeps chat sessions between HTTP requests.
type Store interface {
	// EnsureSession returns the live session with id, or a fresh one when id is empty or unknown.
	EnsureSession(ctx context.Context, id string, ttl time.Duration) (*Session, error)
	// Save records the session's history and pushes its expiry ttl into the future.
	Save(ctx context.Context, sess *Session, ttl time.Duration) error
}

// Session is the ordered chat history of one conversation.
type Session struct {
	mu        sync.Mutex
	id        string
	messages  []models.ChatMessage
	expiresAt time.Time
}

func New(id string) *Session {
	if id == "" {
		id = uuid.NewString()
	}
	return &Session{id: id}
}

// Restore rebuilds a session from stored history.
func Restore(id string, history []models.ChatMessage) *Session {
	s := New(id)
	s.messages = append(s.messages, history...)
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) Append(msgs ...models.ChatMessage) {
	s.mu.Lock()
	s.messages = append(s.messages, msgs...)
	s.mu.Unlock()
}

// History returns a copy of the messages in order.
func (s *Session) History() []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ChatMessage(nil), s.messages...)
}

func (s *Session) Expire(ttl time.Duration) {
	s.mu.Lock()
	s.expiresAt = time.Now().Add(ttl)
	s.mu.Unlock()
}

func (s *Session) Expired(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.expiresAt.IsZero() && now.After(s.expiresAt)
}

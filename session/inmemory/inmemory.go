package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/mohammad-safakhou/campusbot/session"
)

type Store struct {
	sessions map[string]*session.Session
	mu       sync.RWMutex
}

func NewInMemorySessionStore() *Store {
	return &Store{sessions: make(map[string]*session.Session)}
}

func (store *Store) EnsureSession(_ context.Context, id string, ttl time.Duration) (*session.Session, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if id != "" {
		if sess, ok := store.sessions[id]; ok && !sess.Expired(time.Now()) {
			sess.Expire(ttl)
			return sess, nil
		}
	}

	sess := session.New("")
	sess.Expire(ttl)
	store.sessions[sess.ID()] = sess
	return sess, nil
}

func (store *Store) Save(_ context.Context, sess *session.Session, ttl time.Duration) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	sess.Expire(ttl)
	store.sessions[sess.ID()] = sess
	return nil
}

func (store *Store) GetSession(id string) (*session.Session, bool) {
	store.mu.RLock()
	defer store.mu.RUnlock()
	sess, ok := store.sessions[id]
	return sess, ok
}

// Sweep drops expired sessions and returns how many were removed.
func (store *Store) Sweep(now time.Time) int {
	store.mu.Lock()
	defer store.mu.Unlock()
	n := 0
	for id, sess := range store.sessions {
		if sess.Expired(now) {
			delete(store.sessions, id)
			n++
		}
	}
	return n
}

// Run sweeps every interval until ctx is done.
func (store *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			store.Sweep(now)
		}
	}
}

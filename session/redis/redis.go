package redis_session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mohammad-safakhou/campusbot/models"
	"github.com/mohammad-safakhou/campusbot/session"
)

// Store keeps session history in redis so chats survive server restarts.
type Store struct {
	client *redis.Client
}

func NewRedisSessionStore(client *redis.Client) *Store {
	return &Store{client: client}
}

func key(id string) string { return fmt.Sprintf("campusbot:session:%s", id) }

func (store *Store) EnsureSession(ctx context.Context, id string, ttl time.Duration) (*session.Session, error) {
	if id != "" {
		raw, err := store.client.Get(ctx, key(id)).Bytes()
		switch {
		case err == nil:
			var history []models.ChatMessage
			if err := json.Unmarshal(raw, &history); err != nil {
				return nil, fmt.Errorf("decode session %s: %w", id, err)
			}
			sess := session.Restore(id, history)
			sess.Expire(ttl)
			_ = store.client.Expire(ctx, key(id), ttl).Err()
			return sess, nil
		case !errors.Is(err, redis.Nil):
			return nil, err
		}
	}
	sess := session.New("")
	sess.Expire(ttl)
	if err := store.Save(ctx, sess, ttl); err != nil {
		return nil, err
	}
	return sess, nil
}

func (store *Store) Save(ctx context.Context, sess *session.Session, ttl time.Duration) error {
	history := sess.History()
	if history == nil {
		history = []models.ChatMessage{}
	}
	raw, err := json.Marshal(history)
	if err != nil {
		return err
	}
	sess.Expire(ttl)
	return store.client.Set(ctx, key(sess.ID()), raw, ttl).Err()
}

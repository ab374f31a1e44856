package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/coursehub/coursehub-api/internal/core/domain"
)

// SessionStore keeps the server-side session marker in a Redis hash.
// Key format: session:<session_id>
type SessionStore struct {
	client redis.Cmdable
}

func NewSessionStore(client redis.Cmdable) *SessionStore {
	return &SessionStore{client: client}
}

func (s *SessionStore) Save(ctx context.Context, session *domain.Session, ttl time.Duration) error {
	key := sessionKey(session.ID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			"user_id", session.UserID,
			"token", session.Token,
			"expires_at", session.ExpiresAt.Unix(),
		)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	var stored struct {
		UserID    string `redis:"user_id"`
		Token     string `redis:"token"`
		ExpiresAt int64  `redis:"expires_at"`
	}

	res := s.client.HGetAll(ctx, sessionKey(id))
	if err := res.Err(); err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if len(res.Val()) == 0 {
		return nil, domain.ErrSessionNotFound
	}
	if err := res.Scan(&stored); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if stored.Token == "" {
		return nil, domain.ErrSessionNotFound
	}

	return &domain.Session{
		ID:        id,
		UserID:    stored.UserID,
		Token:     stored.Token,
		ExpiresAt: time.Unix(stored.ExpiresAt, 0).UTC(),
	}, nil
}

// Delete removes the session. Deleting an absent session is not an error.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func sessionKey(id string) string {
	return "session:" + id
}

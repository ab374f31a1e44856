package ports

import (
	"context"
	"time"

	"github.com/coursehub/coursehub-api/internal/core/domain"
)

// SessionStore persists session markers.
type SessionStore interface {
	Save(ctx context.Context, session *domain.Session, ttl time.Duration) error
	// Get returns domain.ErrSessionNotFound for unknown or expired ids.
	Get(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
}

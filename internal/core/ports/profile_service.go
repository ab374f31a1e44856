package ports

import (
	"context"

	"github.com/coursehub/coursehub-api/internal/core/domain"
)

type ProfileService interface {
	GetProfile(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*domain.User, error)
}

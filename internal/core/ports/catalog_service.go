package ports

import (
	"context"

	"github.com/coursehub/coursehub-api/internal/core/domain"
)

// CatalogService lists and seeds the course catalog.
type CatalogService interface {
	ListActive(ctx context.Context) ([]*domain.Course, error)
	// Seed validates and upserts courses by title, returning how many were
	// written.
	Seed(ctx context.Context, courses []domain.Course) (int, error)
}

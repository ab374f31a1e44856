package ports

import (
	"context"
	"time"

	"github.com/coursehub/coursehub-api/internal/core/domain"
)

// ProfileUpdate carries a partial profile change. Nil fields are left as is.
type ProfileUpdate struct {
	FirstName   *string
	LastName    *string
	Bio         *string
	Phone       *string
	Address     *string
	DateOfBirth *time.Time
}

// UserRepository defines persistence for user records (the credential store).
type UserRepository interface {
	// Create inserts a new user. A username or email collision is reported
	// as domain.ErrUserExists by the storage layer itself.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByEmailOrUsername(ctx context.Context, email, username string) (*domain.User, error)
	UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (*domain.User, error)
	TouchLastLogin(ctx context.Context, id string, ts time.Time) error

	// AppendEnrollment pushes entry onto the user's enrolled list only if no
	// entry for the same course exists. It reports whether the push happened.
	AppendEnrollment(ctx context.Context, userID string, entry domain.EnrolledCourse) (bool, error)

	// ForEachEnrollment calls fn for every user-side enrollment edge.
	ForEachEnrollment(ctx context.Context, fn func(userID string, entry domain.EnrolledCourse) error) error
}

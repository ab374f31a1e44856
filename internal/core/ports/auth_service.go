package ports

import (
	"context"

	"github.com/coursehub/coursehub-api/internal/core/domain"
)

// RegisterInput is the DTO for account creation.
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// AuthResult is returned by Register and Login. SessionID is empty when the
// session marker could not be written.
type AuthResult struct {
	Token     string
	SessionID string
	User      *domain.User
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	// VerifyToken never fails loudly: any defect in the token yields false.
	VerifyToken(token string) (*domain.AuthClaims, bool)
	Logout(ctx context.Context, sessionID string) error
	SessionToken(ctx context.Context, sessionID string) (string, error)
}

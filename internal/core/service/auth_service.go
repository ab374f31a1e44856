package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/coursehub/coursehub-api/internal/core/domain"
	"github.com/coursehub/coursehub-api/internal/core/ports"
	"github.com/coursehub/coursehub-api/internal/pkg/metrics"
)

const (
	// BcryptCost is the work factor for password hashes.
	BcryptCost = 12
	// bcrypt ignores input past 72 bytes; longer passwords are rejected.
	// The minimum length is counted in characters.
	maxPasswordBytes = 72
)

// dummyHash is compared against when the email is unknown so that a miss
// costs the same as a wrong password.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("coursehub-timing-equalizer"), BcryptCost)

// tokenClaims is the JWT payload: {userId, username, role} plus exp/iat/jti.
type tokenClaims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// AuthService implements registration, login and the session marker.
type AuthService struct {
	repo      ports.UserRepository
	sessions  ports.SessionStore
	jwtSecret string
	tokenTTL  time.Duration
	hashCost  int
	validate  *validator.Validate
	log       zerolog.Logger
	now       func() time.Time
}

func NewAuthService(repo ports.UserRepository, sessions ports.SessionStore, jwtSecret string, tokenTTL time.Duration, log zerolog.Logger) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		repo:      repo,
		sessions:  sessions,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		hashCost:  BcryptCost,
		validate:  validator.New(),
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)

	if err := s.validateRegistration(in); err != nil {
		metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	existing, err := s.repo.FindByEmailOrUsername(ctx, in.Email, in.Username)
	switch {
	case err == nil && existing != nil:
		metrics.RegistrationsTotal.WithLabelValues("conflict").Inc()
		return nil, domain.ErrUserExists
	case err != nil && !errors.Is(err, domain.ErrUserNotFound):
		return nil, fmt.Errorf("register: lookup: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	now := s.now()
	user, err := s.repo.Create(ctx, &domain.User{
		Username:        in.Username,
		Email:           in.Email,
		PasswordHash:    string(hash),
		FirstName:       in.FirstName,
		LastName:        in.LastName,
		Role:            domain.RoleStudent,
		EnrolledCourses: []domain.EnrolledCourse{},
		IsActive:        true,
		LastLogin:       now,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			metrics.RegistrationsTotal.WithLabelValues("conflict").Inc()
			return nil, err
		}
		return nil, fmt.Errorf("register: create user: %w", err)
	}

	result, err := s.issue(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	metrics.RegistrationsTotal.WithLabelValues("success").Inc()
	s.log.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("user registered")
	return result, nil
}

func (s *AuthService) validateRegistration(in ports.RegisterInput) error {
	if in.Username == "" || in.Email == "" || in.Password == "" || in.FirstName == "" || in.LastName == "" {
		return domain.Invalid("", "All fields are required")
	}
	if utf8.RuneCountInString(in.Password) < domain.MinPasswordLength {
		return domain.Invalid("password", "Password must be at least 6 characters long")
	}
	if len(in.Password) > maxPasswordBytes {
		return domain.Invalid("password", "Password must be at most 72 bytes long")
	}
	if !domain.ValidUsername(in.Username) {
		return domain.Invalid("username", "Username must be 3-30 letters, digits or underscores")
	}
	if err := s.validate.Var(in.Email, "email"); err != nil {
		return domain.Invalid("email", "Please provide a valid email address")
	}
	return nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, domain.Invalid("", "Email and password are required")
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("login: lookup: %w", err)
		}
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil || !user.IsActive {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	now := s.now()
	if err := s.repo.TouchLastLogin(ctx, user.ID, now); err != nil {
		return nil, fmt.Errorf("login: update last login: %w", err)
	}
	user.LastLogin = now

	result, err := s.issue(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.log.Info().Str("user_id", user.ID).Msg("user logged in")
	return result, nil
}

// issue signs a token for user and records it as the active session marker.
func (s *AuthService) issue(ctx context.Context, user *domain.User) (*ports.AuthResult, error) {
	token, expiresAt, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}

	session := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: expiresAt,
	}
	if err := s.sessions.Save(ctx, session, s.tokenTTL); err != nil {
		// The bearer token alone is still usable.
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to store session marker")
		return &ports.AuthResult{Token: token, User: user}, nil
	}

	return &ports.AuthResult{Token: token, SessionID: session.ID, User: user}, nil
}

func (s *AuthService) generateToken(user *domain.User) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.tokenTTL)
	claims := tokenClaims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   user.ID,
			ID:        uuid.NewString(),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

func (s *AuthService) VerifyToken(token string) (*domain.AuthClaims, bool) {
	if token == "" {
		return nil, false
	}

	claims := &tokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.jwtSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid || claims.UserID == "" {
		return nil, false
	}

	return &domain.AuthClaims{
		UserID:    claims.UserID,
		Username:  claims.Username,
		Role:      domain.Role(claims.Role),
		ExpiresAt: claims.ExpiresAt.Time,
	}, true
}

func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (s *AuthService) SessionToken(ctx context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		return "", domain.ErrSessionNotFound
	}
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return session.Token, nil
}

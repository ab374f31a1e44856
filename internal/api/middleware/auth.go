package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/coursehub/coursehub-api/internal/core/domain"
)

// SessionCookie carries the id of the server-side session marker.
const SessionCookie = "sid"

// Context keys set by Auth.
const (
	KeyUserID   = "user_id"
	KeyUsername = "username"
	KeyRole     = "role"
)

// TokenVerifier is the slice of the auth service the middleware needs.
type TokenVerifier interface {
	VerifyToken(token string) (*domain.AuthClaims, bool)
	SessionToken(ctx context.Context, sessionID string) (string, error)
}

// Auth validates the bearer token, falling back to the token held by the
// session marker, and injects the claims into the context.
func Auth(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := RequestToken(c, verifier)
			if token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Access denied. No token provided.")
			}

			claims, ok := verifier.VerifyToken(token)
			if !ok {
				return echo.NewHTTPError(http.StatusBadRequest, "Invalid token.")
			}

			SetClaims(c, claims)
			return next(c)
		}
	}
}

// RequestToken returns the token presented by the request: the Authorization
// header first, then the session marker named by the sid cookie. It returns
// "" when neither yields a token.
func RequestToken(c echo.Context, verifier TokenVerifier) string {
	if header := strings.TrimSpace(c.Request().Header.Get(echo.HeaderAuthorization)); header != "" {
		return bearerToken(header)
	}

	cookie, err := c.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		return ""
	}
	token, err := verifier.SessionToken(c.Request().Context(), cookie.Value)
	if err != nil {
		return ""
	}
	return token
}

// SetClaims stores verified claims under the context keys read by handlers.
func SetClaims(c echo.Context, claims *domain.AuthClaims) {
	c.Set(KeyUserID, claims.UserID)
	c.Set(KeyUsername, claims.Username)
	c.Set(KeyRole, claims.Role)
}

// bearerToken strips a case-insensitive "Bearer " prefix. A header without
// the prefix is returned as is and will fail verification.
func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) >= len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return header
}

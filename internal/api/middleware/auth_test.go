package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/coursehub/coursehub-api/internal/core/domain"
)

type stubVerifier struct {
	tokens   map[string]*domain.AuthClaims
	sessions map[string]string
}

func newStubVerifier() *stubVerifier {
	return &stubVerifier{
		tokens: map[string]*domain.AuthClaims{
			"good-token": {UserID: "u1", Username: "alice", Role: domain.RoleStudent},
		},
		sessions: map[string]string{
			"sess-1":     "good-token",
			"sess-stale": "expired-token",
		},
	}
}

func (v *stubVerifier) VerifyToken(token string) (*domain.AuthClaims, bool) {
	claims, ok := v.tokens[token]
	return claims, ok
}

func (v *stubVerifier) SessionToken(_ context.Context, id string) (string, error) {
	token, ok := v.sessions[id]
	if !ok {
		return "", domain.ErrSessionNotFound
	}
	return token, nil
}

func runAuth(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, echo.Context, bool) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	h := Auth(newStubVerifier())(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec, c, called
}

func TestAuthMiddleware_BearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good-token")

	rec, c, called := runAuth(t, req)
	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected next to run with 200, got called=%v code=%d", called, rec.Code)
	}
	if c.Get(KeyUserID) != "u1" || c.Get(KeyUsername) != "alice" || c.Get(KeyRole) != domain.RoleStudent {
		t.Errorf("claims not injected: %v %v %v", c.Get(KeyUserID), c.Get(KeyUsername), c.Get(KeyRole))
	}
}

func TestAuthMiddleware_LowercaseScheme(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer good-token")

	if _, _, called := runAuth(t, req); !called {
		t.Fatalf("expected case-insensitive scheme to be accepted")
	}
}

func TestAuthMiddleware_SessionFallback(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "sess-1"})

	rec, c, called := runAuth(t, req)
	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected session cookie to authenticate, got called=%v code=%d", called, rec.Code)
	}
	if c.Get(KeyUserID) != "u1" {
		t.Errorf("expected user id from session token")
	}
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		header string
		cookie string
		code   int
	}{
		{name: "nothing presented", code: http.StatusUnauthorized},
		{name: "unknown session", cookie: "sess-unknown", code: http.StatusUnauthorized},
		{name: "invalid bearer", header: "Bearer forged", code: http.StatusBadRequest},
		{name: "wrong scheme", header: "Token good-token", code: http.StatusBadRequest},
		{name: "stale session token", cookie: "sess-stale", code: http.StatusBadRequest},
		{name: "header wins over cookie", header: "Bearer forged", cookie: "sess-1", code: http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: SessionCookie, Value: tc.cookie})
			}

			rec, _, called := runAuth(t, req)
			if called {
				t.Fatalf("should not reach next")
			}
			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rec.Code)
			}
		})
	}
}

func TestAuthMiddleware_Messages(t *testing.T) {
	e := echo.New()
	h := Auth(newStubVerifier())(func(c echo.Context) error { return nil })

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	err := h(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Message != "Access denied. No token provided." {
		t.Errorf("unexpected missing-token error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer forged")
	c = e.NewContext(req, httptest.NewRecorder())
	err = h(c)
	if !errors.As(err, &he) || he.Message != "Invalid token." {
		t.Errorf("unexpected invalid-token error: %v", err)
	}
}

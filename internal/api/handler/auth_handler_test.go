package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/coursehub/coursehub-api/internal/api/middleware"
	"github.com/coursehub/coursehub-api/internal/core/domain"
	"github.com/coursehub/coursehub-api/internal/core/ports"
)

func aliceResult(sessionID string) *ports.AuthResult {
	return &ports.AuthResult{
		Token:     "jwt-alice",
		SessionID: sessionID,
		User: &domain.User{
			ID:        "u1",
			Username:  "alice",
			Email:     "alice@example.com",
			FirstName: "Alice",
			LastName:  "Liddell",
			Role:      domain.RoleStudent,
		},
	}
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			return c
		}
	}
	return nil
}

func TestAuthHandler_Register_Success(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		registerFn: func(_ context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
			if in.Username != "alice" || in.Email != "alice@example.com" || in.FirstName != "Alice" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return aliceResult("sess-1"), nil
		},
	}
	h := NewAuthHandler(stub, CookieConfig{Secure: true})

	body := `{"username":"alice","email":"alice@example.com","password":"secret1","firstName":"Alice","lastName":"Liddell"}`
	rec := serve(e, h.Register, http.MethodPost, "/api/register", body, nil)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp authResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Message != "User registered successfully" || resp.Token != "jwt-alice" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.User.ID != "u1" || resp.User.Role != domain.RoleStudent {
		t.Fatalf("unexpected user: %+v", resp.User)
	}

	cookie := sessionCookie(rec)
	if cookie == nil {
		t.Fatal("expected session cookie")
	}
	if cookie.Value != "sess-1" || !cookie.HttpOnly || !cookie.Secure || cookie.MaxAge != int((24*time.Hour).Seconds()) {
		t.Fatalf("unexpected cookie: %+v", cookie)
	}
}

func TestAuthHandler_Register_NoSessionNoCookie(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		registerFn: func(context.Context, ports.RegisterInput) (*ports.AuthResult, error) {
			return aliceResult(""), nil
		},
	}
	h := NewAuthHandler(stub, CookieConfig{})

	rec := serve(e, h.Register, http.MethodPost, "/api/register", `{"username":"alice"}`, nil)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if sessionCookie(rec) != nil {
		t.Fatal("no cookie expected when the session was not stored")
	}
}

func TestAuthHandler_Register_Errors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{"duplicate", domain.ErrUserExists, http.StatusBadRequest, "User with this email or username already exists"},
		{"validation", domain.Invalid("password", "password must be at least 6 characters long"), http.StatusBadRequest, "password must be at least 6 characters long"},
		{"internal", errors.New("mongo down"), http.StatusInternalServerError, "Server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEcho()
			stub := &stubAuthService{
				registerFn: func(context.Context, ports.RegisterInput) (*ports.AuthResult, error) {
					return nil, tt.err
				},
			}
			h := NewAuthHandler(stub, CookieConfig{})

			rec := serve(e, h.Register, http.MethodPost, "/api/register", `{"username":"bob"}`, nil)

			if rec.Code != tt.code {
				t.Fatalf("expected %d, got %d", tt.code, rec.Code)
			}
			var resp errorResponse
			_ = json.Unmarshal(rec.Body.Bytes(), &resp)
			if resp.Message != tt.message {
				t.Fatalf("expected message %q, got %q", tt.message, resp.Message)
			}
		})
	}
}

func TestAuthHandler_Register_MalformedBody(t *testing.T) {
	e := newTestEcho()
	h := NewAuthHandler(&stubAuthService{}, CookieConfig{})

	rec := serve(e, h.Register, http.MethodPost, "/api/register", `{"username":`, nil)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAuthHandler_Login(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		loginFn: func(_ context.Context, email, password string) (*ports.AuthResult, error) {
			if email == "alice@example.com" && password == "secret1" {
				return aliceResult("sess-2"), nil
			}
			return nil, domain.ErrInvalidCredentials
		},
	}
	h := NewAuthHandler(stub, CookieConfig{})

	rec := serve(e, h.Login, http.MethodPost, "/api/login", `{"email":"alice@example.com","password":"secret1"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp authResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Message != "Login successful" || resp.Token != "jwt-alice" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if c := sessionCookie(rec); c == nil || c.Value != "sess-2" {
		t.Fatalf("expected sid cookie, got %+v", c)
	}

	rec = serve(e, h.Login, http.MethodPost, "/api/login", `{"email":"alice@example.com","password":"nope"}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var errResp errorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &errResp)
	if errResp.Message != "Invalid credentials" {
		t.Fatalf("unexpected message %q", errResp.Message)
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{}
	h := NewAuthHandler(stub, CookieConfig{})

	rec := serve(e, h.Logout, http.MethodPost, "/api/logout", "", func(c echo.Context) {
		c.Request().AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: "sess-9"})
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(stub.loggedOut) != 1 || stub.loggedOut[0] != "sess-9" {
		t.Fatalf("expected logout of sess-9, got %v", stub.loggedOut)
	}
	if c := sessionCookie(rec); c == nil || c.MaxAge >= 0 {
		t.Fatalf("expected cleared cookie, got %+v", c)
	}
}

func TestAuthHandler_Logout_StoreFailure(t *testing.T) {
	var logs bytes.Buffer
	e := newTestEcho()
	e.HTTPErrorHandler = NewHTTPErrorHandler(zerolog.New(&logs))
	h := NewAuthHandler(&stubAuthService{logoutErr: errors.New("redis down")}, CookieConfig{})

	rec := serve(e, h.Logout, http.MethodPost, "/api/logout", "", nil)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var resp errorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Message != "Could not log out" {
		t.Fatalf("unexpected message %q", resp.Message)
	}
	if !strings.Contains(logs.String(), "logout: redis down") {
		t.Errorf("expected the store error in the structured log, got %q", logs.String())
	}
}

func TestAuthHandler_Check(t *testing.T) {
	stub := &stubAuthService{
		tokens: map[string]*domain.AuthClaims{
			"good": {UserID: "u1", Username: "alice", Role: domain.RoleAdmin},
		},
		sessions: map[string]string{"sess-1": "good"},
	}
	h := NewAuthHandler(stub, CookieConfig{})

	tests := []struct {
		name   string
		setup  func(c echo.Context)
		authed bool
	}{
		{"no token", nil, false},
		{"bearer", func(c echo.Context) {
			c.Request().Header.Set(echo.HeaderAuthorization, "Bearer good")
		}, true},
		{"bad bearer", func(c echo.Context) {
			c.Request().Header.Set(echo.HeaderAuthorization, "Bearer forged")
		}, false},
		{"session cookie", func(c echo.Context) {
			c.Request().AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: "sess-1"})
		}, true},
		{"unknown session", func(c echo.Context) {
			c.Request().AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: "gone"})
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(newTestEcho(), h.Check, http.MethodGet, "/api/auth/check", "", tt.setup)

			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
			var resp authCheckResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if resp.Authenticated != tt.authed {
				t.Fatalf("expected authenticated=%v, got %+v", tt.authed, resp)
			}
			if tt.authed && (resp.User == nil || resp.User.ID != "u1" || resp.User.Role != domain.RoleAdmin) {
				t.Fatalf("unexpected user: %+v", resp.User)
			}
			if !tt.authed && resp.User != nil {
				t.Fatalf("unauthenticated response must not carry a user")
			}
		})
	}
}

package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/coursehub/coursehub-api/internal/core/domain"
	"github.com/coursehub/coursehub-api/internal/core/ports"
)

type stubAuthService struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error)
	loginFn    func(ctx context.Context, email, password string) (*ports.AuthResult, error)
	logoutErr  error
	loggedOut  []string
	tokens     map[string]*domain.AuthClaims
	sessions   map[string]string
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) VerifyToken(token string) (*domain.AuthClaims, bool) {
	claims, ok := s.tokens[token]
	return claims, ok
}

func (s *stubAuthService) Logout(_ context.Context, sessionID string) error {
	s.loggedOut = append(s.loggedOut, sessionID)
	return s.logoutErr
}

func (s *stubAuthService) SessionToken(_ context.Context, sessionID string) (string, error) {
	token, ok := s.sessions[sessionID]
	if !ok {
		return "", domain.ErrSessionNotFound
	}
	return token, nil
}

type stubProfileService struct {
	user      *domain.User
	err       error
	gotUpdate ports.ProfileUpdate
}

func (s *stubProfileService) GetProfile(_ context.Context, userID string) (*domain.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.user == nil || s.user.ID != userID {
		return nil, domain.ErrUserNotFound
	}
	return s.user, nil
}

func (s *stubProfileService) UpdateProfile(_ context.Context, userID string, update ports.ProfileUpdate) (*domain.User, error) {
	s.gotUpdate = update
	if s.err != nil {
		return nil, s.err
	}
	if s.user == nil || s.user.ID != userID {
		return nil, domain.ErrUserNotFound
	}
	if update.FirstName != nil {
		s.user.FirstName = *update.FirstName
	}
	if update.Bio != nil {
		s.user.Profile.Bio = *update.Bio
	}
	if update.DateOfBirth != nil {
		s.user.Profile.DateOfBirth = update.DateOfBirth
	}
	return s.user, nil
}

type stubCatalogService struct {
	courses []*domain.Course
	listErr error
	seedErr error
	seeded  []domain.Course
}

func (s *stubCatalogService) ListActive(context.Context) ([]*domain.Course, error) {
	return s.courses, s.listErr
}

func (s *stubCatalogService) Seed(_ context.Context, courses []domain.Course) (int, error) {
	if s.seedErr != nil {
		return 0, s.seedErr
	}
	s.seeded = courses
	return len(courses), nil
}

type stubEnrollmentService struct {
	enrollFn func(ctx context.Context, userID, courseID string) (*domain.Enrollment, error)
}

func (s *stubEnrollmentService) Enroll(ctx context.Context, userID, courseID string) (*domain.Enrollment, error) {
	return s.enrollFn(ctx, userID, courseID)
}

func (s *stubEnrollmentService) RepairEdge(context.Context, ports.EdgeRepair) (bool, error) {
	return false, nil
}

func (s *stubEnrollmentService) ScanHalfEdges(context.Context, func(ports.EdgeRepair)) (int64, error) {
	return 0, nil
}

// newTestEcho returns an Echo instance configured like the real router.
func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(zerolog.Nop())
	return e
}

// serve runs h against a fresh context and routes any returned error through
// the HTTP error handler.
func serve(e *echo.Echo, h echo.HandlerFunc, method, target, body string, setup func(c echo.Context)) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if setup != nil {
		setup(c)
	}
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

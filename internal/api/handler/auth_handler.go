package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/coursehub/coursehub-api/internal/api/middleware"
	"github.com/coursehub/coursehub-api/internal/core/ports"
)

// CookieConfig controls the session cookie written on register and login.
type CookieConfig struct {
	Secure bool
	MaxAge time.Duration
}

type AuthHandler struct {
	authService ports.AuthService
	cookie      CookieConfig
}

func NewAuthHandler(authService ports.AuthService, cookie CookieConfig) *AuthHandler {
	if cookie.MaxAge <= 0 {
		cookie.MaxAge = 24 * time.Hour
	}
	return &AuthHandler{authService: authService, cookie: cookie}
}

// Register creates a new student account and starts a session.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /api/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	res, err := h.authService.Register(c.Request().Context(), req.toInput())
	if err != nil {
		return err
	}

	h.setSessionCookie(c, res.SessionID)
	return c.JSON(http.StatusCreated, authResponse{
		Message: "User registered successfully",
		Token:   res.Token,
		User:    toUserSummary(res.User),
	})
}

// Login authenticates a user, returns a JWT and starts a session.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /api/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	res, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	h.setSessionCookie(c, res.SessionID)
	return c.JSON(http.StatusOK, authResponse{
		Message: "Login successful",
		Token:   res.Token,
		User:    toUserSummary(res.User),
	})
}

// Logout destroys the session marker and clears the cookie. Bearer tokens
// stay valid until they expire.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  messageResponse
// @Failure      500  {object}  errorResponse
// @Router       /api/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	var sessionID string
	if cookie, err := c.Cookie(middleware.SessionCookie); err == nil {
		sessionID = cookie.Value
	}

	if err := h.authService.Logout(c.Request().Context(), sessionID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Could not log out").
			SetInternal(fmt.Errorf("logout: %w", err))
	}

	h.clearSessionCookie(c)
	return c.JSON(http.StatusOK, messageResponse{Message: "Logout successful"})
}

// Check reports whether the request carries a valid token. It never fails.
//
// @Summary      Check authentication status
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  authCheckResponse
// @Router       /api/auth/check [get]
func (h *AuthHandler) Check(c echo.Context) error {
	token := middleware.RequestToken(c, h.authService)
	if token == "" {
		return c.JSON(http.StatusOK, authCheckResponse{Authenticated: false})
	}

	claims, ok := h.authService.VerifyToken(token)
	if !ok {
		return c.JSON(http.StatusOK, authCheckResponse{Authenticated: false})
	}

	return c.JSON(http.StatusOK, authCheckResponse{
		Authenticated: true,
		User: &claimsUser{
			ID:       claims.UserID,
			Username: claims.Username,
			Role:     claims.Role,
		},
	})
}

func (h *AuthHandler) setSessionCookie(c echo.Context, sessionID string) {
	if sessionID == "" {
		return
	}
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(h.cookie.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

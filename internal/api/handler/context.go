package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/coursehub/coursehub-api/internal/api/middleware"
)

// ctxUserID returns the authenticated user id injected by the Auth
// middleware. A route mounted without Auth fails closed with 401.
func ctxUserID(c echo.Context) (string, error) {
	userID, _ := c.Get(middleware.KeyUserID).(string)
	if userID == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Access denied. No token provided.")
	}
	return userID, nil
}

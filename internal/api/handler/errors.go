package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/coursehub/coursehub-api/internal/core/domain"
)

// errorResponse is the error envelope for every API failure.
type errorResponse struct {
	Message string `json:"message"`
}

// messageResponse is the envelope for bodies that only carry a message.
type messageResponse struct {
	Message string `json:"message"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that maps domain errors
// to status codes and renders {"message": "..."}. Unexpected errors are
// logged and answered with a generic message.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Message: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Internal != nil {
			logError(log, c, he.Internal)
		}
		if msg, ok := he.Message.(string); ok {
			return he.Code, msg
		}
		return he.Code, fmt.Sprint(he.Message)
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, ve.Message
	}

	switch {
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusBadRequest, "User with this email or username already exists"
	case errors.Is(err, domain.ErrAlreadyEnrolled):
		return http.StatusBadRequest, "Already enrolled in this course"
	case errors.Is(err, domain.ErrEnrollmentInProgress):
		return http.StatusBadRequest, "Enrollment already in progress"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusBadRequest, "Invalid credentials"
	case errors.Is(err, domain.ErrInvalidToken):
		return http.StatusBadRequest, "Invalid token."
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "User not found"
	case errors.Is(err, domain.ErrCourseNotFound):
		return http.StatusNotFound, "Course not found"
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusUnauthorized, "Access denied. No token provided."
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "Request timed out"
	}

	logError(log, c, err)
	return http.StatusInternalServerError, "Server error"
}

func logError(log zerolog.Logger, c echo.Context, err error) {
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Msg("unhandled error")
}

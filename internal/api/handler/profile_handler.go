package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/coursehub/coursehub-api/internal/core/domain"
	"github.com/coursehub/coursehub-api/internal/core/ports"
)

type ProfileHandler struct {
	service ports.ProfileService
}

func NewProfileHandler(service ports.ProfileService) *ProfileHandler {
	return &ProfileHandler{service: service}
}

type updateProfileRequest struct {
	FirstName   *string `json:"firstName" validate:"omitempty,max=50"`
	LastName    *string `json:"lastName" validate:"omitempty,max=50"`
	Bio         *string `json:"bio" validate:"omitempty,max=500"`
	Phone       *string `json:"phone" validate:"omitempty,max=30"`
	Address     *string `json:"address" validate:"omitempty,max=200"`
	DateOfBirth *string `json:"dateOfBirth"`
}

type profileUser struct {
	ID        string         `json:"id"`
	Username  string         `json:"username"`
	Email     string         `json:"email"`
	FirstName string         `json:"firstName"`
	LastName  string         `json:"lastName"`
	Profile   domain.Profile `json:"profile"`
}

type updateProfileResponse struct {
	Message string      `json:"message"`
	User    profileUser `json:"user"`
}

// Get returns the caller's full record, enrolled courses included.
//
// @Summary      Get the current user's profile
// @Tags         profile
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.User
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /api/profile [get]
func (h *ProfileHandler) Get(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	user, err := h.service.GetProfile(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	if user.EnrolledCourses == nil {
		user.EnrolledCourses = []domain.EnrolledCourse{}
	}
	return c.JSON(http.StatusOK, user)
}

// Update applies a partial profile change. Omitted or blank fields are kept.
//
// @Summary      Update the current user's profile
// @Tags         profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateProfileRequest  true  "Fields to change"
// @Success      200   {object}  updateProfileResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/profile [put]
func (h *ProfileHandler) Update(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	dob, err := parseDateOfBirth(req.DateOfBirth)
	if err != nil {
		return err
	}

	user, err := h.service.UpdateProfile(c.Request().Context(), userID, ports.ProfileUpdate{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Bio:         req.Bio,
		Phone:       req.Phone,
		Address:     req.Address,
		DateOfBirth: dob,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, updateProfileResponse{
		Message: "Profile updated successfully",
		User: profileUser{
			ID:        user.ID,
			Username:  user.Username,
			Email:     user.Email,
			FirstName: user.FirstName,
			LastName:  user.LastName,
			Profile:   user.Profile,
		},
	})
}

// parseDateOfBirth accepts a calendar date or a full RFC 3339 timestamp.
// Blank input means no change.
func parseDateOfBirth(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	v := strings.TrimSpace(*raw)
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, v); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, domain.Invalid("dateOfBirth", "dateOfBirth must be a date (YYYY-MM-DD)")
}

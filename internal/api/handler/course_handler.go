package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/coursehub/coursehub-api/internal/core/domain"
	"github.com/coursehub/coursehub-api/internal/core/ports"
)

// CourseHandler serves the catalog and enrollment routes.
type CourseHandler struct {
	catalog    ports.CatalogService
	enrollment ports.EnrollmentService
	seed       []domain.Course
}

// NewCourseHandler wires the handler. seed is the catalog written by the
// seed endpoint.
func NewCourseHandler(catalog ports.CatalogService, enrollment ports.EnrollmentService, seed []domain.Course) *CourseHandler {
	return &CourseHandler{catalog: catalog, enrollment: enrollment, seed: seed}
}

// List returns every active course.
//
// @Summary      List active courses
// @Tags         courses
// @Produce      json
// @Success      200  {array}   domain.Course
// @Failure      500  {object}  errorResponse
// @Router       /api/courses [get]
func (h *CourseHandler) List(c echo.Context) error {
	courses, err := h.catalog.ListActive(c.Request().Context())
	if err != nil {
		return err
	}
	if courses == nil {
		courses = []*domain.Course{}
	}
	return c.JSON(http.StatusOK, courses)
}

// Enroll records the caller as a student of the course.
//
// @Summary      Enroll in a course
// @Tags         courses
// @Produce      json
// @Security     BearerAuth
// @Param        courseId  path      string  true  "Course id"
// @Success      200       {object}  enrollResponse
// @Failure      400       {object}  errorResponse
// @Failure      401       {object}  errorResponse
// @Failure      404       {object}  errorResponse
// @Failure      500       {object}  errorResponse
// @Router       /api/courses/{courseId}/enroll [post]
func (h *CourseHandler) Enroll(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	courseID := strings.TrimSpace(c.Param("courseId"))
	if courseID == "" {
		return domain.ErrCourseNotFound
	}

	enrollment, err := h.enrollment.Enroll(c.Request().Context(), userID, courseID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, enrollResponse{
		Message:    "Successfully enrolled in course",
		Enrollment: toEnrollmentView(enrollment),
	})
}

// Seed upserts the built-in catalog. Admin only. Admin accounts are not
// created through the API; the `coursehub seed` command seeds without one.
//
// @Summary      Seed the course catalog
// @Tags         courses
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  seedResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /api/seed-courses [post]
func (h *CourseHandler) Seed(c echo.Context) error {
	n, err := h.catalog.Seed(c.Request().Context(), h.seed)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, seedResponse{
		Message: "Courses seeded successfully",
		Count:   n,
	})
}

package handler

import (
	"time"

	"github.com/coursehub/coursehub-api/internal/core/domain"
)

type enrollmentView struct {
	CourseID   string    `json:"courseId"`
	CourseName string    `json:"courseName"`
	EnrolledAt time.Time `json:"enrolledAt"`
}

type enrollResponse struct {
	Message    string         `json:"message"`
	Enrollment enrollmentView `json:"enrollment"`
}

type seedResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

func toEnrollmentView(e *domain.Enrollment) enrollmentView {
	return enrollmentView{
		CourseID:   e.CourseID,
		CourseName: e.CourseName,
		EnrolledAt: e.EnrolledAt,
	}
}

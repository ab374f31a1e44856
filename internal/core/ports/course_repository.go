package ports

import (
	"context"

	"github.com/coursehub/coursehub-api/internal/core/domain"
)

// CourseRepository defines persistence for catalog courses.
type CourseRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Course, error)
	ListActive(ctx context.Context) ([]*domain.Course, error)

	// Upsert inserts the course or refreshes the catalog fields of the course
	// with the same title. Enrollment data is never touched. It reports
	// whether a new document was created.
	Upsert(ctx context.Context, course *domain.Course) (bool, error)

	// AddStudent pushes student onto the course's enrolled set only if the
	// user is not already present. It reports whether the push happened.
	AddStudent(ctx context.Context, courseID string, student domain.EnrolledStudent) (bool, error)

	// ForEachStudent calls fn for every course-side enrollment edge.
	ForEachStudent(ctx context.Context, fn func(courseID, title string, student domain.EnrolledStudent) error) error
}

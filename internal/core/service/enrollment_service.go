package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/coursehub/coursehub-api/internal/core/domain"
	"github.com/coursehub/coursehub-api/internal/core/ports"
	"github.com/coursehub/coursehub-api/internal/pkg/metrics"
)

// EnrollmentLocker abstracts the per-(user, course) lock (Redis).
type EnrollmentLocker interface {
	Acquire(ctx context.Context, userID, courseID string) (bool, error)
	Release(ctx context.Context, userID, courseID string) error
}

// CatalogInvalidator drops cached catalog listings after a write.
type CatalogInvalidator interface {
	Invalidate(ctx context.Context) error
}

type enrollmentService struct {
	users   ports.UserRepository
	courses ports.CourseRepository
	lock    EnrollmentLocker
	cache   CatalogInvalidator
	log     zerolog.Logger
	now     func() time.Time
}

// NewEnrollmentService returns an EnrollmentService implementation.
func NewEnrollmentService(
	users ports.UserRepository,
	courses ports.CourseRepository,
	lock EnrollmentLocker,
	cache CatalogInvalidator,
	log zerolog.Logger,
) ports.EnrollmentService {
	return &enrollmentService{
		users:   users,
		courses: courses,
		lock:    lock,
		cache:   cache,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Enroll records the edge (userID, courseID) on both the user and the course.
func (s *enrollmentService) Enroll(ctx context.Context, userID, courseID string) (*domain.Enrollment, error) {
	start := time.Now()
	enrollment, err := s.enroll(ctx, userID, courseID)

	result := enrollResult(err)
	metrics.EnrollmentsTotal.WithLabelValues(result).Inc()
	metrics.EnrollmentDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
	return enrollment, err
}

func (s *enrollmentService) enroll(ctx context.Context, userID, courseID string) (*domain.Enrollment, error) {
	// 1. Both ends must exist and be active.
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("enroll: %w", err)
	}
	if !course.IsActive {
		return nil, domain.ErrCourseNotFound
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("enroll: %w", err)
	}
	if !user.IsActive {
		return nil, domain.ErrUserNotFound
	}

	// 2. Already on the user's list: make sure the course side exists too,
	// then reject.
	if user.IsEnrolled(course.ID) {
		s.completeCourseSide(ctx, user, course)
		return nil, domain.ErrAlreadyEnrolled
	}

	// 3. Serialise concurrent attempts for the same pair. The conditional
	// writes below stay correct without it.
	acquired, err := s.lock.Acquire(ctx, user.ID, course.ID)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Str("course_id", course.ID).Msg("enrollment lock unavailable, continuing")
	} else if !acquired {
		return nil, domain.ErrEnrollmentInProgress
	} else {
		defer func() {
			if relErr := s.lock.Release(context.WithoutCancel(ctx), user.ID, course.ID); relErr != nil {
				s.log.Warn().Err(relErr).Str("user_id", user.ID).Str("course_id", course.ID).Msg("failed to release enrollment lock")
			}
		}()
	}

	now := s.now()

	// 4. User side, append-if-absent.
	appended, err := s.users.AppendEnrollment(ctx, user.ID, domain.EnrolledCourse{
		CourseID:   course.ID,
		CourseName: course.Title,
		EnrolledAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("enroll: append to user: %w", err)
	}
	if !appended {
		return nil, domain.ErrAlreadyEnrolled
	}

	// 5. Course side, append-if-absent.
	added, err := s.courses.AddStudent(ctx, course.ID, domain.EnrolledStudent{UserID: user.ID, EnrolledAt: now})
	if err != nil {
		s.log.Error().Err(err).
			Str("user_id", user.ID).
			Str("course_id", course.ID).
			Msg("enrollment recorded on user only")
		return nil, fmt.Errorf("enroll: append to course: %w", err)
	}
	if !added {
		s.log.Debug().Str("user_id", user.ID).Str("course_id", course.ID).Msg("course already listed student")
	}

	// 6. Cached listings embed enrolledStudents.
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn().Err(err).Msg("failed to invalidate catalog cache")
	}

	s.log.Info().
		Str("user_id", user.ID).
		Str("course_id", course.ID).
		Msg("user enrolled")

	return &domain.Enrollment{
		UserID:     user.ID,
		CourseID:   course.ID,
		CourseName: course.Title,
		EnrolledAt: now,
	}, nil
}

// completeCourseSide adds the course half of an edge the user already has.
// Failures are logged only; the caller is rejecting the request anyway.
func (s *enrollmentService) completeCourseSide(ctx context.Context, user *domain.User, course *domain.Course) {
	if course.HasStudent(user.ID) {
		return
	}
	enrolledAt := s.now()
	for _, ec := range user.EnrolledCourses {
		if ec.CourseID == course.ID {
			enrolledAt = ec.EnrolledAt
			break
		}
	}
	if _, err := s.RepairEdge(ctx, ports.EdgeRepair{
		Missing:    ports.EdgeSideCourse,
		UserID:     user.ID,
		CourseID:   course.ID,
		CourseName: course.Title,
		EnrolledAt: enrolledAt,
	}); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Str("course_id", course.ID).Msg("failed to complete course side of enrollment")
	}
}

// RepairEdge adds the missing half of one enrollment edge.
func (s *enrollmentService) RepairEdge(ctx context.Context, r ports.EdgeRepair) (bool, error) {
	var (
		written bool
		err     error
	)
	switch r.Missing {
	case ports.EdgeSideCourse:
		written, err = s.courses.AddStudent(ctx, r.CourseID, domain.EnrolledStudent{UserID: r.UserID, EnrolledAt: r.EnrolledAt})
	case ports.EdgeSideUser:
		written, err = s.users.AppendEnrollment(ctx, r.UserID, domain.EnrolledCourse{
			CourseID:   r.CourseID,
			CourseName: r.CourseName,
			EnrolledAt: r.EnrolledAt,
		})
	default:
		return false, fmt.Errorf("repair edge: unknown side %q", r.Missing)
	}
	if err != nil {
		return false, fmt.Errorf("repair edge (%s side, user %s, course %s): %w", r.Missing, r.UserID, r.CourseID, err)
	}
	if written {
		metrics.EdgeRepairsTotal.WithLabelValues(string(r.Missing)).Inc()
		s.log.Warn().
			Str("side", string(r.Missing)).
			Str("user_id", r.UserID).
			Str("course_id", r.CourseID).
			Msg("repaired half-written enrollment")
	}
	return written, nil
}

type edgeKey struct {
	userID   string
	courseID string
}

// ScanHalfEdges loads the edge sets of both collections and emits a repair
// for every edge present on one side only.
func (s *enrollmentService) ScanHalfEdges(ctx context.Context, emit func(ports.EdgeRepair)) (int64, error) {
	courseSide := make(map[edgeKey]time.Time)
	titles := make(map[string]string)
	err := s.courses.ForEachStudent(ctx, func(courseID, title string, st domain.EnrolledStudent) error {
		courseSide[edgeKey{userID: st.UserID, courseID: courseID}] = st.EnrolledAt
		titles[courseID] = title
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan course edges: %w", err)
	}

	var scanned int64
	userSide := make(map[edgeKey]struct{})
	err = s.users.ForEachEnrollment(ctx, func(userID string, ec domain.EnrolledCourse) error {
		scanned++
		key := edgeKey{userID: userID, courseID: ec.CourseID}
		userSide[key] = struct{}{}
		if _, ok := courseSide[key]; !ok {
			emit(ports.EdgeRepair{
				Missing:    ports.EdgeSideCourse,
				UserID:     userID,
				CourseID:   ec.CourseID,
				CourseName: ec.CourseName,
				EnrolledAt: ec.EnrolledAt,
			})
		}
		return nil
	})
	if err != nil {
		return scanned, fmt.Errorf("scan user edges: %w", err)
	}

	for key, enrolledAt := range courseSide {
		if _, ok := userSide[key]; ok {
			continue
		}
		scanned++
		emit(ports.EdgeRepair{
			Missing:    ports.EdgeSideUser,
			UserID:     key.userID,
			CourseID:   key.courseID,
			CourseName: titles[key.courseID],
			EnrolledAt: enrolledAt,
		})
	}

	return scanned, nil
}

func enrollResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrAlreadyEnrolled):
		return "duplicate"
	case errors.Is(err, domain.ErrEnrollmentInProgress):
		return "in_progress"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

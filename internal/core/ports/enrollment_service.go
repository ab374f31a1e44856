package ports

import (
	"context"
	"time"

	"github.com/coursehub/coursehub-api/internal/core/domain"
)

// EdgeSide names the half of an enrollment edge that a repair adds.
type EdgeSide string

const (
	EdgeSideUser   EdgeSide = "user"
	EdgeSideCourse EdgeSide = "course"
)

// EdgeRepair describes one half-written enrollment edge found by a scan.
type EdgeRepair struct {
	Missing    EdgeSide
	UserID     string
	CourseID   string
	CourseName string
	EnrolledAt time.Time
}

// ReconcileReport summarises a reconcile run.
type ReconcileReport struct {
	Scanned  int64
	Repaired int64
	Failed   int64
}

// EdgeRepairer completes half-written enrollment edges.
type EdgeRepairer interface {
	// RepairEdge adds the missing half of an edge. It reports whether a
	// write was needed.
	RepairEdge(ctx context.Context, repair EdgeRepair) (bool, error)
}

// EnrollmentService defines the enrollment use cases.
type EnrollmentService interface {
	EdgeRepairer
	Enroll(ctx context.Context, userID, courseID string) (*domain.Enrollment, error)
	// ScanHalfEdges compares both collections and calls emit for every edge
	// recorded on one side only. It returns the number of edges examined.
	ScanHalfEdges(ctx context.Context, emit func(EdgeRepair)) (int64, error)
}

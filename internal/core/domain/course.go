package domain

import (
	"strings"
	"time"
)

// Level is the difficulty of a course.
type Level string

const (
	LevelBeginner     Level = "Beginner"
	LevelIntermediate Level = "Intermediate"
	LevelAdvanced     Level = "Advanced"
)

// Valid reports whether l is one of the known levels.
func (l Level) Valid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	}
	return false
}

const MaxRating = 5.0

// EnrolledStudent is the course-side half of an enrollment edge.
type EnrolledStudent struct {
	UserID     string    `json:"userId" yaml:"-"`
	EnrolledAt time.Time `json:"enrolledAt" yaml:"-"`
}

// Review is a single rating left by a user.
type Review struct {
	UserID    string    `json:"userId" yaml:"-"`
	Rating    float64   `json:"rating" yaml:"rating"`
	Comment   string    `json:"comment" yaml:"comment"`
	CreatedAt time.Time `json:"createdAt" yaml:"-"`
}

// Course is a catalog entry. The yaml tags describe the seed file format.
type Course struct {
	ID               string            `json:"_id" yaml:"-"`
	Title            string            `json:"title" yaml:"title"`
	Description      string            `json:"description" yaml:"description"`
	Instructor       string            `json:"instructor" yaml:"instructor"`
	Duration         string            `json:"duration" yaml:"duration"`
	Level            Level             `json:"level" yaml:"level"`
	Price            float64           `json:"price" yaml:"price"`
	Category         string            `json:"category" yaml:"category"`
	Image            string            `json:"image" yaml:"image"`
	EnrolledStudents []EnrolledStudent `json:"enrolledStudents" yaml:"-"`
	Rating           float64           `json:"rating" yaml:"rating"`
	Reviews          []Review          `json:"reviews" yaml:"-"`
	IsActive         bool              `json:"isActive" yaml:"-"`
	CreatedAt        time.Time         `json:"createdAt" yaml:"-"`
	UpdatedAt        time.Time         `json:"updatedAt" yaml:"-"`
}

// HasStudent reports whether userID already appears in EnrolledStudents.
func (c *Course) HasStudent(userID string) bool {
	for _, s := range c.EnrolledStudents {
		if s.UserID == userID {
			return true
		}
	}
	return false
}

// Validate checks the catalog fields of a course before it is stored.
func (c *Course) Validate() error {
	required := [][2]string{
		{"title", c.Title},
		{"description", c.Description},
		{"instructor", c.Instructor},
		{"duration", c.Duration},
		{"category", c.Category},
		{"image", c.Image},
	}
	for _, f := range required {
		if strings.TrimSpace(f[1]) == "" {
			return &ValidationError{Field: f[0], Message: f[0] + " is required"}
		}
	}
	if !c.Level.Valid() {
		return &ValidationError{Field: "level", Message: "level must be one of: Beginner Intermediate Advanced"}
	}
	if c.Price < 0 {
		return &ValidationError{Field: "price", Message: "price must not be negative"}
	}
	if c.Rating < 0 || c.Rating > MaxRating {
		return &ValidationError{Field: "rating", Message: "rating must be between 0 and 5"}
	}
	return nil
}

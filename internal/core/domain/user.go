package domain

import (
	"regexp"
	"time"
)

// Role is the closed set of account roles.
type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleAdmin      Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleInstructor, RoleAdmin:
		return true
	}
	return false
}

const MinPasswordLength = 6

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,30}$`)

// ValidUsername reports whether s is 3-30 letters, digits or underscores.
func ValidUsername(s string) bool {
	return usernamePattern.MatchString(s)
}

// EnrolledCourse is the user-side half of an enrollment edge.
type EnrolledCourse struct {
	CourseID   string    `json:"courseId"`
	CourseName string    `json:"courseName"`
	EnrolledAt time.Time `json:"enrolledAt"`
}

// Profile holds optional personal details.
type Profile struct {
	Bio         string     `json:"bio,omitempty"`
	Phone       string     `json:"phone,omitempty"`
	Address     string     `json:"address,omitempty"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
}

// User models an account holder. PasswordHash never leaves the process.
type User struct {
	ID              string           `json:"_id"`
	Username        string           `json:"username"`
	Email           string           `json:"email"`
	PasswordHash    string           `json:"-"`
	FirstName       string           `json:"firstName"`
	LastName        string           `json:"lastName"`
	Role            Role             `json:"role"`
	EnrolledCourses []EnrolledCourse `json:"enrolledCourses"`
	Profile         Profile          `json:"profile"`
	IsActive        bool             `json:"isActive"`
	LastLogin       time.Time        `json:"lastLogin"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// IsEnrolled reports whether courseID is already on the user's list.
func (u *User) IsEnrolled(courseID string) bool {
	for _, ec := range u.EnrolledCourses {
		if ec.CourseID == courseID {
			return true
		}
	}
	return false
}

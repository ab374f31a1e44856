package domain

import "time"

// Session is the server-side marker that mirrors the most recently issued
// token for a browser. Its ID travels in a cookie.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
}

// AuthClaims is the verified content of a bearer token.
type AuthClaims struct {
	UserID    string
	Username  string
	Role      Role
	ExpiresAt time.Time
}

// Enrollment is the result of a successful enroll call.
type Enrollment struct {
	UserID     string
	CourseID   string
	CourseName string
	EnrolledAt time.Time
}

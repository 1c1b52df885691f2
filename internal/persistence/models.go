package persistence

import "time"

// User represents a campus account stored in the registry.
type User struct {
	ID           string
	Name         string
	Email        string
	Role         string
	Department   string
	StudentID    *string
	FacultyID    *string
	Avatar       *string
	Phone        *string
	PasswordHash string
	JoinDate     time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SessionSnapshot is the durable record of the current session, written after
// every mutating session operation and restored at process start.
type SessionSnapshot struct {
	User            *User
	IsAuthenticated bool
	UpdatedAt       time.Time
}

// Event represents a dated calendar entry rendered on the month grid.
type Event struct {
	ID        string
	Title     string
	Date      time.Time
	Color     string
	CreatedAt time.Time
}

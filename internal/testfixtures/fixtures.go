// Package testfixtures provides deterministic clocks, identifier generators,
// and record builders shared by tests across the module.
package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/golea/internal/persistence"
)

var (
	userCounter  uint64
	eventCounter uint64
)

var referenceTime = time.Date(2024, time.February, 1, 12, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// UserOption configures a generated user record.
type UserOption func(*persistence.User)

// NewUser returns a deterministic persistence user with optional overrides.
// Generated users are students; use WithRole for faculty records.
func NewUser(opts ...UserOption) persistence.User {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	memberID := fmt.Sprintf("STU%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	user := persistence.User{
		ID:         id,
		Name:       fmt.Sprintf("User %03d", idx),
		Email:      fmt.Sprintf("%s@student.edu", id),
		Role:       "student",
		Department: "Computer Science",
		StudentID:  &memberID,
		JoinDate:   created,
		CreatedAt:  created,
		UpdatedAt:  created,
	}
	for _, opt := range opts {
		opt(&user)
	}
	return user
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(u *persistence.User) {
		u.ID = id
	}
}

// WithEmail overrides the generated email.
func WithEmail(email string) UserOption {
	return func(u *persistence.User) {
		u.Email = email
	}
}

// WithRole switches the record to the given role and swaps the member
// identifier to match.
func WithRole(role string) UserOption {
	return func(u *persistence.User) {
		u.Role = role
		if role == "faculty" {
			memberID := "FAC" + u.ID
			u.FacultyID = &memberID
			u.StudentID = nil
		}
	}
}

// WithPhone sets the phone number.
func WithPhone(phone string) UserOption {
	return func(u *persistence.User) {
		u.Phone = &phone
	}
}

// EventOption configures a generated event record.
type EventOption func(*persistence.Event)

// NewEvent returns a deterministic calendar event with optional overrides.
func NewEvent(opts ...EventOption) persistence.Event {
	idx := atomic.AddUint64(&eventCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Second)
	event := persistence.Event{
		ID:        fmt.Sprintf("event-%03d", idx),
		Title:     fmt.Sprintf("Event %03d", idx),
		Date:      referenceTime,
		Color:     "#667eea",
		CreatedAt: created,
	}
	for _, opt := range opts {
		opt(&event)
	}
	return event
}

// WithEventDate sets the calendar date of the event.
func WithEventDate(date time.Time) EventOption {
	return func(e *persistence.Event) {
		e.Date = date
	}
}

// WithEventColor sets the display color tag.
func WithEventColor(color string) EventOption {
	return func(e *persistence.Event) {
		e.Color = color
	}
}

package persistence

import "context"

// UserRegistry exposes the durable collection of known accounts searched
// during login and signup.
type UserRegistry interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsersByRole(ctx context.Context, role string) ([]User, error)
	ListUsers(ctx context.Context) ([]User, error)
}

// SessionStateStore persists the current session under a fixed namespace key
// and rehydrates it at process start.
type SessionStateStore interface {
	SaveSnapshot(ctx context.Context, namespace string, snapshot SessionSnapshot) error
	LoadSnapshot(ctx context.Context, namespace string) (SessionSnapshot, error)
}

// EventRepository stores dated calendar events.
type EventRepository interface {
	CreateEvent(ctx context.Context, event Event) error
	ListEventsForMonth(ctx context.Context, year int, month int) ([]Event, error)
}

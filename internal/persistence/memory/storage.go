// Package memory provides an in-memory implementation of the persistence
// interfaces, used by tests and by demo deployments that do not need a
// database file.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/golea/internal/persistence"
)

// Storage implements every persistence interface behind a single lock with
// clone-on-read semantics so callers never share mutable records.
type Storage struct {
	mu        sync.RWMutex
	users     map[string]persistence.User
	snapshots map[string]persistence.SessionSnapshot
	events    []persistence.Event
}

// New returns an empty in-memory storage.
func New() *Storage {
	return &Storage{
		users:     make(map[string]persistence.User),
		snapshots: make(map[string]persistence.SessionSnapshot),
	}
}

// --- UserRegistry implementation ---

// CreateUser stores a new account, enforcing email uniqueness.
func (s *Storage) CreateUser(ctx context.Context, user persistence.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; ok {
		return persistence.ErrDuplicate
	}
	if s.emailTakenLocked(user.ID, user.Email) {
		return persistence.ErrDuplicate
	}

	s.users[user.ID] = cloneUser(user)
	return nil
}

// UpdateUser replaces an existing account record.
func (s *Storage) UpdateUser(ctx context.Context, user persistence.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; !ok {
		return persistence.ErrNotFound
	}
	if s.emailTakenLocked(user.ID, user.Email) {
		return persistence.ErrDuplicate
	}

	s.users[user.ID] = cloneUser(user)
	return nil
}

// GetUser retrieves an account by ID.
func (s *Storage) GetUser(ctx context.Context, id string) (persistence.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return persistence.User{}, persistence.ErrNotFound
	}
	return cloneUser(user), nil
}

// GetUserByEmail retrieves an account by its login email, case-insensitively.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lower := strings.ToLower(strings.TrimSpace(email))
	for _, user := range s.users {
		if strings.ToLower(user.Email) == lower {
			return cloneUser(user), nil
		}
	}
	return persistence.User{}, persistence.ErrNotFound
}

// ListUsersByRole returns accounts of the given role ordered by creation time.
func (s *Storage) ListUsersByRole(ctx context.Context, role string) ([]persistence.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]persistence.User, 0)
	for _, user := range s.users {
		if user.Role != role {
			continue
		}
		users = append(users, cloneUser(user))
	}
	sortUsers(users)
	return users, nil
}

// ListUsers returns every account ordered by creation time then ID.
func (s *Storage) ListUsers(ctx context.Context) ([]persistence.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]persistence.User, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, cloneUser(user))
	}
	sortUsers(users)
	return users, nil
}

func (s *Storage) emailTakenLocked(id, email string) bool {
	lower := strings.ToLower(strings.TrimSpace(email))
	for existingID, user := range s.users {
		if existingID == id {
			continue
		}
		if strings.ToLower(user.Email) == lower {
			return true
		}
	}
	return false
}

// --- SessionStateStore implementation ---

// SaveSnapshot stores the session snapshot for the namespace.
func (s *Storage) SaveSnapshot(ctx context.Context, namespace string, snapshot persistence.SessionSnapshot) error {
	if namespace == "" {
		return persistence.ErrConstraintViolation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshots[namespace] = cloneSnapshot(snapshot)
	return nil
}

// LoadSnapshot retrieves the stored snapshot for the namespace.
func (s *Storage) LoadSnapshot(ctx context.Context, namespace string) (persistence.SessionSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot, ok := s.snapshots[namespace]
	if !ok {
		return persistence.SessionSnapshot{}, persistence.ErrNotFound
	}
	return cloneSnapshot(snapshot), nil
}

// --- EventRepository implementation ---

// CreateEvent appends a calendar event, preserving insertion order.
func (s *Storage) CreateEvent(ctx context.Context, event persistence.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.events {
		if existing.ID == event.ID {
			return persistence.ErrDuplicate
		}
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	s.events = append(s.events, event)
	return nil
}

// ListEventsForMonth returns the month's events in insertion order.
func (s *Storage) ListEventsForMonth(ctx context.Context, year int, month int) ([]persistence.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]persistence.Event, 0)
	for _, event := range s.events {
		if event.Date.Year() == year && int(event.Date.Month()) == month {
			events = append(events, event)
		}
	}
	return events, nil
}

// --- Helpers ---

func cloneUser(user persistence.User) persistence.User {
	clone := user
	clone.StudentID = cloneString(user.StudentID)
	clone.FacultyID = cloneString(user.FacultyID)
	clone.Avatar = cloneString(user.Avatar)
	clone.Phone = cloneString(user.Phone)
	return clone
}

func cloneSnapshot(snapshot persistence.SessionSnapshot) persistence.SessionSnapshot {
	clone := snapshot
	if snapshot.User != nil {
		user := cloneUser(*snapshot.User)
		clone.User = &user
	}
	return clone
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}

func sortUsers(users []persistence.User) {
	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID < users[j].ID
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
}

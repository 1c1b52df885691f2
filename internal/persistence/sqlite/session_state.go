package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/golea/internal/persistence"
)

// SessionStateStore implements persistence.SessionStateStore using SQLite.
// Snapshots are stored as a JSON payload in a single row per namespace so the
// write after every mutating session operation is one upsert.
type SessionStateStore struct {
	db *sql.DB
}

type snapshotPayload struct {
	User            *userPayload `json:"user"`
	IsAuthenticated bool         `json:"isAuthenticated"`
}

// Optional fields marshal as absent rather than empty strings so a restored
// snapshot is field-for-field identical to the one written.
type userPayload struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	Department   string    `json:"department"`
	StudentID    *string   `json:"studentId,omitempty"`
	FacultyID    *string   `json:"facultyId,omitempty"`
	Avatar       *string   `json:"avatar,omitempty"`
	Phone        *string   `json:"phone,omitempty"`
	PasswordHash string    `json:"passwordHash,omitempty"`
	JoinDate     time.Time `json:"joinDate"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// SaveSnapshot upserts the session snapshot for the namespace.
func (s *SessionStateStore) SaveSnapshot(ctx context.Context, namespace string, snapshot persistence.SessionSnapshot) error {
	if namespace == "" {
		return persistence.ErrConstraintViolation
	}

	payload, err := json.Marshal(toPayload(snapshot))
	if err != nil {
		return fmt.Errorf("failed to encode session snapshot: %w", err)
	}

	query := `
		INSERT INTO session_state (namespace, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (namespace) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
	`

	updatedAt := snapshot.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx, query, namespace, string(payload), formatTime(updatedAt))
	return mapError(err)
}

// LoadSnapshot retrieves the stored snapshot, or persistence.ErrNotFound when
// no prior session exists.
func (s *SessionStateStore) LoadSnapshot(ctx context.Context, namespace string) (persistence.SessionSnapshot, error) {
	var payload string
	var updatedAtStr string

	err := s.db.QueryRowContext(ctx,
		"SELECT payload, updated_at FROM session_state WHERE namespace = ?", namespace,
	).Scan(&payload, &updatedAtStr)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.SessionSnapshot{}, persistence.ErrNotFound
		}
		return persistence.SessionSnapshot{}, mapError(err)
	}

	var decoded snapshotPayload
	if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
		return persistence.SessionSnapshot{}, fmt.Errorf("failed to decode session snapshot: %w", err)
	}

	snapshot := fromPayload(decoded)
	if snapshot.UpdatedAt, err = parseTime(updatedAtStr, "updated_at"); err != nil {
		return persistence.SessionSnapshot{}, err
	}
	return snapshot, nil
}

func toPayload(snapshot persistence.SessionSnapshot) snapshotPayload {
	out := snapshotPayload{IsAuthenticated: snapshot.IsAuthenticated}
	if snapshot.User != nil {
		user := *snapshot.User
		out.User = &userPayload{
			ID:           user.ID,
			Name:         user.Name,
			Email:        user.Email,
			Role:         user.Role,
			Department:   user.Department,
			StudentID:    user.StudentID,
			FacultyID:    user.FacultyID,
			Avatar:       user.Avatar,
			Phone:        user.Phone,
			PasswordHash: user.PasswordHash,
			JoinDate:     user.JoinDate,
			CreatedAt:    user.CreatedAt,
			UpdatedAt:    user.UpdatedAt,
		}
	}
	return out
}

func fromPayload(payload snapshotPayload) persistence.SessionSnapshot {
	out := persistence.SessionSnapshot{IsAuthenticated: payload.IsAuthenticated}
	if payload.User != nil {
		user := *payload.User
		out.User = &persistence.User{
			ID:           user.ID,
			Name:         user.Name,
			Email:        user.Email,
			Role:         user.Role,
			Department:   user.Department,
			StudentID:    user.StudentID,
			FacultyID:    user.FacultyID,
			Avatar:       user.Avatar,
			Phone:        user.Phone,
			PasswordHash: user.PasswordHash,
			JoinDate:     user.JoinDate,
			CreatedAt:    user.CreatedAt,
			UpdatedAt:    user.UpdatedAt,
		}
	}
	return out
}

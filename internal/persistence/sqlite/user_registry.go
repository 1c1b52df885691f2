package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/golea/internal/persistence"
)

// UserRegistry implements persistence.UserRegistry using SQLite.
type UserRegistry struct {
	db *sql.DB
}

const userColumns = "id, name, email, role, department, student_id, faculty_id, avatar, phone, password_hash, join_date, created_at, updated_at"

// CreateUser inserts a new account into the registry.
func (r *UserRegistry) CreateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" {
		return persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Name,
		normalizeEmail(user.Email),
		user.Role,
		user.Department,
		nullString(user.StudentID),
		nullString(user.FacultyID),
		nullString(user.Avatar),
		nullString(user.Phone),
		user.PasswordHash,
		formatTime(user.JoinDate),
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
	)
	return mapError(err)
}

// UpdateUser rewrites the mutable fields of an existing account.
func (r *UserRegistry) UpdateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" {
		return persistence.ErrNotFound
	}

	user.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE users
		SET name = ?, email = ?, department = ?, student_id = ?, faculty_id = ?,
			avatar = ?, phone = ?, password_hash = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		user.Name,
		normalizeEmail(user.Email),
		user.Department,
		nullString(user.StudentID),
		nullString(user.FacultyID),
		nullString(user.Avatar),
		nullString(user.Phone),
		user.PasswordHash,
		formatTime(user.UpdatedAt),
		user.ID,
	)
	if err != nil {
		return mapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// GetUser retrieves an account by ID.
func (r *UserRegistry) GetUser(ctx context.Context, id string) (persistence.User, error) {
	if id == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	row := r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	return scanUser(row)
}

// GetUserByEmail retrieves an account by its login email.
func (r *UserRegistry) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	if strings.TrimSpace(email) == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	row := r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", normalizeEmail(email))
	return scanUser(row)
}

// ListUsersByRole returns accounts of the given role ordered by join date.
func (r *UserRegistry) ListUsersByRole(ctx context.Context, role string) ([]persistence.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE role = ? ORDER BY join_date ASC, id ASC"
	rows, err := r.db.QueryContext(ctx, query, role)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	return collectUsers(rows)
}

// ListUsers returns every account ordered by creation time.
func (r *UserRegistry) ListUsers(ctx context.Context) ([]persistence.User, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY created_at ASC, id ASC")
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	return collectUsers(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (persistence.User, error) {
	var user persistence.User
	var studentID, facultyID, avatar, phone sql.NullString
	var joinDateStr, createdAtStr, updatedAtStr string

	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Role,
		&user.Department,
		&studentID,
		&facultyID,
		&avatar,
		&phone,
		&user.PasswordHash,
		&joinDateStr,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.User{}, persistence.ErrNotFound
		}
		return persistence.User{}, mapError(err)
	}

	user.StudentID = stringPtr(studentID)
	user.FacultyID = stringPtr(facultyID)
	user.Avatar = stringPtr(avatar)
	user.Phone = stringPtr(phone)

	if user.JoinDate, err = parseTime(joinDateStr, "join_date"); err != nil {
		return persistence.User{}, err
	}
	if user.CreatedAt, err = parseTime(createdAtStr, "created_at"); err != nil {
		return persistence.User{}, err
	}
	if user.UpdatedAt, err = parseTime(updatedAtStr, "updated_at"); err != nil {
		return persistence.User{}, err
	}

	return user, nil
}

func collectUsers(rows *sql.Rows) ([]persistence.User, error) {
	var users []persistence.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return users, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

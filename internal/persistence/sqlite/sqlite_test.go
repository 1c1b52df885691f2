package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/golea/internal/persistence"
	"github.com/example/golea/internal/testfixtures"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	dir := t.TempDir()
	dsn := filepath.Join(dir, "golea.db")
	storage, err := Open(dsn)
	if err != nil {
		t.Fatalf("failed to open storage: %v", err)
	}

	t.Cleanup(func() {
		_ = storage.Close()
	})

	if err := storage.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	return storage
}

func TestUserRegistrySQLite(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)
	registry := storage.Users()

	user := testfixtures.NewUser(testfixtures.WithPhone("+15550004444"))
	avatar := "https://cdn.example.com/u.png"
	user.Avatar = &avatar
	user.PasswordHash = "$argon2id$stub"

	if err := registry.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	fetched, err := registry.GetUserByEmail(ctx, "  "+user.Email+"  ")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if fetched.ID != user.ID || fetched.Name != user.Name || fetched.Role != user.Role {
		t.Fatalf("unexpected user retrieved: %#v", fetched)
	}
	if fetched.StudentID == nil || *fetched.StudentID != *user.StudentID {
		t.Fatalf("expected the member identifier to survive, got %v", fetched.StudentID)
	}
	if fetched.Phone == nil || *fetched.Phone != "+15550004444" {
		t.Fatalf("expected the phone to survive, got %v", fetched.Phone)
	}
	if fetched.Avatar == nil || *fetched.Avatar != avatar {
		t.Fatalf("expected the avatar to survive, got %v", fetched.Avatar)
	}
	if fetched.PasswordHash != user.PasswordHash {
		t.Fatalf("expected the password hash to survive, got %q", fetched.PasswordHash)
	}
	if !fetched.JoinDate.Equal(user.JoinDate) {
		t.Fatalf("expected join date %v, got %v", user.JoinDate, fetched.JoinDate)
	}

	dup := testfixtures.NewUser(testfixtures.WithEmail(user.Email))
	if err := registry.CreateUser(ctx, dup); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for a reused email, got %v", err)
	}

	fetched.Name = "Renamed"
	fetched.Department = "Mathematics"
	if err := registry.UpdateUser(ctx, fetched); err != nil {
		t.Fatalf("UpdateUser failed: %v", err)
	}
	updated, err := registry.GetUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if updated.Name != "Renamed" || updated.Department != "Mathematics" {
		t.Fatalf("unexpected user after update: %#v", updated)
	}
	if updated.PasswordHash != user.PasswordHash {
		t.Fatalf("expected the password hash to survive the update, got %q", updated.PasswordHash)
	}

	missing := testfixtures.NewUser()
	if err := registry.UpdateUser(ctx, missing); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for an unknown record, got %v", err)
	}
	if _, err := registry.GetUser(ctx, "no-such-id"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for an unknown ID, got %v", err)
	}
}

func TestUserRegistrySQLiteListsByRole(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)
	registry := storage.Users()

	student := testfixtures.NewUser()
	faculty := testfixtures.NewUser(testfixtures.WithRole("faculty"))
	laterStudent := testfixtures.NewUser()
	for _, user := range []persistence.User{student, faculty, laterStudent} {
		if err := registry.CreateUser(ctx, user); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
	}

	students, err := registry.ListUsersByRole(ctx, "student")
	if err != nil {
		t.Fatalf("ListUsersByRole failed: %v", err)
	}
	if len(students) != 2 {
		t.Fatalf("expected 2 student records, got %d", len(students))
	}
	if students[0].ID != student.ID || students[1].ID != laterStudent.ID {
		t.Fatalf("expected join-date ordering, got %+v", students)
	}

	all, err := registry.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 records, got %d", len(all))
	}
}

func TestSessionStateStoreSQLite(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)
	sessions := storage.Sessions()

	if _, err := sessions.LoadSnapshot(ctx, "auth-storage"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound before any save, got %v", err)
	}
	if err := sessions.SaveSnapshot(ctx, "", persistence.SessionSnapshot{}); !errors.Is(err, persistence.ErrConstraintViolation) {
		t.Fatalf("expected ErrConstraintViolation for an empty namespace, got %v", err)
	}

	user := testfixtures.NewUser(testfixtures.WithPhone("+15550005555"))
	if err := sessions.SaveSnapshot(ctx, "auth-storage", persistence.SessionSnapshot{
		User:            &user,
		IsAuthenticated: true,
	}); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	restored, err := sessions.LoadSnapshot(ctx, "auth-storage")
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if !restored.IsAuthenticated || restored.User == nil {
		t.Fatalf("expected an authenticated snapshot, got %+v", restored)
	}
	if restored.User.ID != user.ID || restored.User.Email != user.Email {
		t.Fatalf("unexpected restored user: %#v", restored.User)
	}
	if restored.User.Phone == nil || *restored.User.Phone != "+15550005555" {
		t.Fatalf("expected the phone to survive, got %v", restored.User.Phone)
	}
	if restored.UpdatedAt.IsZero() {
		t.Fatal("expected the write timestamp to be recorded")
	}

	// A second save for the same namespace replaces the row.
	if err := sessions.SaveSnapshot(ctx, "auth-storage", persistence.SessionSnapshot{}); err != nil {
		t.Fatalf("second SaveSnapshot failed: %v", err)
	}
	cleared, err := sessions.LoadSnapshot(ctx, "auth-storage")
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if cleared.IsAuthenticated || cleared.User != nil {
		t.Fatalf("expected the cleared snapshot to win, got %+v", cleared)
	}
}

func TestEventRepositorySQLite(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)
	events := storage.Events()

	feb := time.Date(2024, time.February, 10, 0, 0, 0, 0, time.UTC)
	lateFeb := time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC)
	mar := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	first := testfixtures.NewEvent(testfixtures.WithEventDate(feb))
	second := testfixtures.NewEvent(testfixtures.WithEventDate(lateFeb), testfixtures.WithEventColor("#f59e0b"))
	outside := testfixtures.NewEvent(testfixtures.WithEventDate(mar))

	for _, event := range []persistence.Event{first, second, outside} {
		if err := events.CreateEvent(ctx, event); err != nil {
			t.Fatalf("CreateEvent failed: %v", err)
		}
	}
	if err := events.CreateEvent(ctx, first); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for a reused event ID, got %v", err)
	}

	february, err := events.ListEventsForMonth(ctx, 2024, 2)
	if err != nil {
		t.Fatalf("ListEventsForMonth failed: %v", err)
	}
	if len(february) != 2 {
		t.Fatalf("expected 2 February events, got %d", len(february))
	}
	if february[0].ID != first.ID || february[1].ID != second.ID {
		t.Fatalf("expected creation-time ordering, got %+v", february)
	}
	if !february[1].Date.Equal(lateFeb) {
		t.Fatalf("expected the leap day to stay inside February, got %v", february[1].Date)
	}
	if february[1].Color != "#f59e0b" {
		t.Fatalf("expected the color to survive, got %q", february[1].Color)
	}

	march, err := events.ListEventsForMonth(ctx, 2024, 3)
	if err != nil {
		t.Fatalf("ListEventsForMonth failed: %v", err)
	}
	if len(march) != 1 || march[0].ID != outside.ID {
		t.Fatalf("expected only the March event, got %+v", march)
	}

	empty, err := events.ListEventsForMonth(ctx, 2025, 1)
	if err != nil {
		t.Fatalf("ListEventsForMonth failed: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected no events for an empty month, got %+v", empty)
	}
}

package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/golea/internal/testfixtures"
)

type registryStub struct {
	users      map[string]Credentials
	createErr  error
	updateErr  error
	listErr    error
	updated    []User
	createdIDs []string
}

func newRegistryStub(users ...Credentials) *registryStub {
	stub := &registryStub{users: make(map[string]Credentials)}
	for _, creds := range users {
		stub.users[creds.User.Email] = creds
	}
	return stub
}

func (r *registryStub) CreateUser(_ context.Context, user User) error {
	if r.createErr != nil {
		return r.createErr
	}
	if _, ok := r.users[user.Email]; ok {
		return ErrDuplicateAccount
	}
	r.users[user.Email] = Credentials{User: user}
	r.createdIDs = append(r.createdIDs, user.ID)
	return nil
}

func (r *registryStub) UpdateUser(_ context.Context, user User) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.updated = append(r.updated, user)
	for email, creds := range r.users {
		if creds.User.ID == user.ID {
			delete(r.users, email)
			creds.User = user
			r.users[user.Email] = creds
			return nil
		}
	}
	return ErrAccountNotFound
}

func (r *registryStub) GetCredentialsByEmail(_ context.Context, email string) (Credentials, error) {
	creds, ok := r.users[email]
	if !ok {
		return Credentials{}, ErrAccountNotFound
	}
	return creds, nil
}

func (r *registryStub) ListUsersByRole(_ context.Context, role Role) ([]User, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	var users []User
	for _, creds := range r.users {
		if creds.User.Role == role {
			users = append(users, creds.User)
		}
	}
	return users, nil
}

type stateStub struct {
	snapshot  *Snapshot
	saveErr   error
	saveCalls int
}

func (s *stateStub) SaveSnapshot(_ context.Context, snapshot Snapshot) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saveCalls++
	s.snapshot = &snapshot
	return nil
}

func (s *stateStub) LoadSnapshot(context.Context) (Snapshot, error) {
	if s.snapshot == nil {
		return Snapshot{}, ErrNoSnapshot
	}
	return *s.snapshot, nil
}

func strPtr(value string) *string { return &value }

func seededFaculty() Credentials {
	return Credentials{User: User{
		ID:         "f1",
		Name:       "Dr. Sarah Johnson",
		Email:      "sarah.johnson@university.edu",
		Role:       RoleFaculty,
		Department: "Computer Science",
		FacultyID:  strPtr("FAC001"),
		Phone:      strPtr("+1234567890"),
	}}
}

func seededStudent() Credentials {
	return Credentials{User: User{
		ID:         "s1",
		Name:       "John Doe",
		Email:      "john.doe@student.edu",
		Role:       RoleStudent,
		Department: "Computer Science",
		StudentID:  strPtr("STU001"),
		Phone:      strPtr("+1234567892"),
	}}
}

func newTestStore(registry UserRegistry, state SessionStateStore) *SessionStore {
	ids := testfixtures.NewIDGenerator("generated")
	clock := testfixtures.NewClock(time.Time{})
	return NewSessionStore(registry, state, Config{}, ids.NextFunc(), clock.NowFunc())
}

func TestSessionStore_Signup(t *testing.T) {
	t.Parallel()

	t.Run("creates the account and signs it in", func(t *testing.T) {
		t.Parallel()

		registry := newRegistryStub()
		state := &stateStub{}
		store := newTestStore(registry, state)

		user, err := store.Signup(context.Background(), SignupInput{
			Name:      "Jane Roe",
			Email:     "  Jane.Roe@University.edu ",
			Role:      RoleFaculty,
			FacultyID: strPtr("FAC009"),
		})
		if err != nil {
			t.Fatalf("Signup failed: %v", err)
		}
		if user.Email != "jane.roe@university.edu" {
			t.Fatalf("expected normalized email, got %q", user.Email)
		}
		if user.ID == "" {
			t.Fatal("expected a generated user ID")
		}
		if got, ok := store.CurrentUser(); !ok || got.ID != user.ID {
			t.Fatalf("expected session for %s, got %+v ok=%v", user.ID, got, ok)
		}
		if state.snapshot == nil || !state.snapshot.IsAuthenticated {
			t.Fatal("expected an authenticated snapshot to be persisted")
		}
		if user.JoinDate.IsZero() {
			t.Fatal("expected JoinDate to be set from the clock")
		}
	})

	t.Run("rejects a duplicate email", func(t *testing.T) {
		t.Parallel()

		registry := newRegistryStub(seededFaculty())
		store := newTestStore(registry, &stateStub{})

		_, err := store.Signup(context.Background(), SignupInput{
			Name:      "Imposter",
			Email:     "sarah.johnson@university.edu",
			Role:      RoleFaculty,
			FacultyID: strPtr("FAC777"),
		})
		if !errors.Is(err, ErrDuplicateAccount) {
			t.Fatalf("expected ErrDuplicateAccount, got %v", err)
		}
		if store.IsAuthenticated() {
			t.Fatal("failed signup must not start a session")
		}
	})

	t.Run("collects field validation errors", func(t *testing.T) {
		t.Parallel()

		store := newTestStore(newRegistryStub(), &stateStub{})

		_, err := store.Signup(context.Background(), SignupInput{
			Email:     "not-an-email",
			Role:      RoleStudent,
			FacultyID: strPtr("FAC001"),
		})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"name", "email", "studentId", "facultyId"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Fatalf("expected a field error for %s, got %v", field, vErr.FieldErrors)
			}
		}
	})

	t.Run("keeps the prior session when the snapshot write fails", func(t *testing.T) {
		t.Parallel()

		registry := newRegistryStub()
		state := &stateStub{saveErr: errors.New("disk full")}
		store := newTestStore(registry, state)

		_, err := store.Signup(context.Background(), SignupInput{
			Name:      "Jane Roe",
			Email:     "jane.roe@university.edu",
			Role:      RoleFaculty,
			FacultyID: strPtr("FAC009"),
		})
		if err == nil {
			t.Fatal("expected the snapshot error to propagate")
		}
		if store.IsAuthenticated() {
			t.Fatal("store must stay logged out after a failed commit")
		}
	})
}

func TestSessionStore_Login(t *testing.T) {
	t.Parallel()

	t.Run("accepts any password with the default verifier", func(t *testing.T) {
		t.Parallel()

		registry := newRegistryStub(seededFaculty())
		store := newTestStore(registry, &stateStub{})

		user, err := store.Login(context.Background(), "sarah.johnson@university.edu", "anything at all")
		if err != nil {
			t.Fatalf("Login failed: %v", err)
		}
		if user.ID != "f1" {
			t.Fatalf("expected user f1, got %s", user.ID)
		}
	})

	t.Run("returns ErrAccountNotFound for unknown emails", func(t *testing.T) {
		t.Parallel()

		store := newTestStore(newRegistryStub(), &stateStub{})

		_, err := store.Login(context.Background(), "nobody@university.edu", "pw")
		if !errors.Is(err, ErrAccountNotFound) {
			t.Fatalf("expected ErrAccountNotFound, got %v", err)
		}
	})

	t.Run("maps verifier rejection to ErrInvalidCredentials", func(t *testing.T) {
		t.Parallel()

		creds := seededFaculty()
		hash, err := CreatePasswordHash("correct horse", DefaultArgon2idParams)
		if err != nil {
			t.Fatalf("CreatePasswordHash failed: %v", err)
		}
		creds.PasswordHash = hash

		registry := newRegistryStub(creds)
		store := NewSessionStore(registry, &stateStub{}, Config{Passwords: Argon2Verifier{}}, nil, nil)

		if _, err := store.Login(context.Background(), "sarah.johnson@university.edu", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
		if _, err := store.Login(context.Background(), "sarah.johnson@university.edu", "correct horse"); err != nil {
			t.Fatalf("expected the real password to pass, got %v", err)
		}
	})
}

func TestSessionStore_LoginWithRole(t *testing.T) {
	t.Parallel()

	t.Run("accepts the shared secret for a seeded account", func(t *testing.T) {
		t.Parallel()

		registry := newRegistryStub(seededFaculty(), seededStudent())
		store := newTestStore(registry, &stateStub{})

		user, err := store.LoginWithRole(context.Background(), "Sarah.Johnson@University.edu", DemoSharedSecret, RoleFaculty)
		if err != nil {
			t.Fatalf("LoginWithRole failed: %v", err)
		}
		if user.ID != "f1" {
			t.Fatalf("expected user f1, got %s", user.ID)
		}
	})

	t.Run("rejects the wrong secret", func(t *testing.T) {
		t.Parallel()

		registry := newRegistryStub(seededFaculty())
		store := newTestStore(registry, &stateStub{})

		_, err := store.LoginWithRole(context.Background(), "sarah.johnson@university.edu", "hunter2", RoleFaculty)
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("rejects an email outside the role", func(t *testing.T) {
		t.Parallel()

		registry := newRegistryStub(seededFaculty(), seededStudent())
		store := newTestStore(registry, &stateStub{})

		_, err := store.LoginWithRole(context.Background(), "john.doe@student.edu", DemoSharedSecret, RoleFaculty)
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})
}

func TestSessionStore_OTPFlow(t *testing.T) {
	t.Parallel()

	t.Run("request validates the phone number", func(t *testing.T) {
		t.Parallel()

		store := newTestStore(newRegistryStub(), &stateStub{})

		err := store.RequestOTP(context.Background(), "   ")
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if store.IsAuthenticated() {
			t.Fatal("requesting a code must not touch the session")
		}
	})

	t.Run("verifies the demo code against the seeded phone", func(t *testing.T) {
		t.Parallel()

		registry := newRegistryStub(seededFaculty())
		store := newTestStore(registry, &stateStub{})

		if err := store.RequestOTP(context.Background(), "+1234567890"); err != nil {
			t.Fatalf("RequestOTP failed: %v", err)
		}
		if got := store.PendingOTPPhone(); got != "+1234567890" {
			t.Fatalf("expected the pending phone recorded, got %q", got)
		}
		user, err := store.LoginWithOTP(context.Background(), "+1234567890", DemoOTPCode, RoleFaculty)
		if err != nil {
			t.Fatalf("LoginWithOTP failed: %v", err)
		}
		if user.ID != "f1" {
			t.Fatalf("expected user f1, got %s", user.ID)
		}
		if store.PendingOTPPhone() != "" {
			t.Fatal("expected the pending phone cleared after verification")
		}
	})

	t.Run("rejects a wrong code", func(t *testing.T) {
		t.Parallel()

		registry := newRegistryStub(seededFaculty())
		store := newTestStore(registry, &stateStub{})

		_, err := store.LoginWithOTP(context.Background(), "+1234567890", "000000", RoleFaculty)
		if !errors.Is(err, ErrInvalidOTP) {
			t.Fatalf("expected ErrInvalidOTP, got %v", err)
		}
	})

	t.Run("rejects a phone with no account in the role", func(t *testing.T) {
		t.Parallel()

		registry := newRegistryStub(seededFaculty())
		store := newTestStore(registry, &stateStub{})

		_, err := store.LoginWithOTP(context.Background(), "+1999999999", DemoOTPCode, RoleFaculty)
		if !errors.Is(err, ErrInvalidOTP) {
			t.Fatalf("expected ErrInvalidOTP, got %v", err)
		}
	})
}

func TestSessionStore_LoginWithID(t *testing.T) {
	t.Parallel()

	t.Run("matches the member identifier for the role", func(t *testing.T) {
		t.Parallel()

		registry := newRegistryStub(seededFaculty(), seededStudent())
		store := newTestStore(registry, &stateStub{})

		faculty, err := store.LoginWithID(context.Background(), "FAC001", RoleFaculty)
		if err != nil {
			t.Fatalf("faculty LoginWithID failed: %v", err)
		}
		if faculty.ID != "f1" {
			t.Fatalf("expected user f1, got %s", faculty.ID)
		}

		student, err := store.LoginWithID(context.Background(), "STU001", RoleStudent)
		if err != nil {
			t.Fatalf("student LoginWithID failed: %v", err)
		}
		if student.ID != "s1" {
			t.Fatalf("expected user s1, got %s", student.ID)
		}
	})

	t.Run("rejects an unknown identifier", func(t *testing.T) {
		t.Parallel()

		registry := newRegistryStub(seededFaculty())
		store := newTestStore(registry, &stateStub{})

		_, err := store.LoginWithID(context.Background(), "FAC999", RoleFaculty)
		if !errors.Is(err, ErrInvalidID) {
			t.Fatalf("expected ErrInvalidID, got %v", err)
		}
	})

	t.Run("does not match identifiers across roles", func(t *testing.T) {
		t.Parallel()

		registry := newRegistryStub(seededFaculty(), seededStudent())
		store := newTestStore(registry, &stateStub{})

		_, err := store.LoginWithID(context.Background(), "STU001", RoleFaculty)
		if !errors.Is(err, ErrInvalidID) {
			t.Fatalf("expected ErrInvalidID, got %v", err)
		}
	})
}

func TestSessionStore_Logout(t *testing.T) {
	t.Parallel()

	t.Run("clears the session and persists the cleared state", func(t *testing.T) {
		t.Parallel()

		registry := newRegistryStub(seededFaculty())
		state := &stateStub{}
		store := newTestStore(registry, state)

		if _, err := store.Login(context.Background(), "sarah.johnson@university.edu", "pw"); err != nil {
			t.Fatalf("Login failed: %v", err)
		}

		store.Logout(context.Background())

		if store.IsAuthenticated() {
			t.Fatal("expected the session to be cleared")
		}
		if state.snapshot == nil || state.snapshot.IsAuthenticated || state.snapshot.User != nil {
			t.Fatalf("expected a cleared snapshot, got %+v", state.snapshot)
		}
	})

	t.Run("clears the session even when already logged out", func(t *testing.T) {
		t.Parallel()

		store := newTestStore(newRegistryStub(), &stateStub{})
		store.Logout(context.Background())
		if store.IsAuthenticated() {
			t.Fatal("expected the store to remain logged out")
		}
	})
}

func TestSessionStore_UpdateProfile(t *testing.T) {
	t.Parallel()

	t.Run("merges only the provided fields", func(t *testing.T) {
		t.Parallel()

		registry := newRegistryStub(seededFaculty())
		state := &stateStub{}
		store := newTestStore(registry, state)

		if _, err := store.Login(context.Background(), "sarah.johnson@university.edu", "pw"); err != nil {
			t.Fatalf("Login failed: %v", err)
		}

		if err := store.UpdateProfile(context.Background(), ProfileUpdate{
			Name:   strPtr("Dr. Sarah J. Johnson"),
			Avatar: strPtr("https://cdn.example.com/sarah.png"),
		}); err != nil {
			t.Fatalf("UpdateProfile failed: %v", err)
		}

		user, ok := store.CurrentUser()
		if !ok {
			t.Fatal("expected the session to survive the update")
		}
		if user.Name != "Dr. Sarah J. Johnson" {
			t.Fatalf("expected updated name, got %q", user.Name)
		}
		if user.Avatar == nil || *user.Avatar != "https://cdn.example.com/sarah.png" {
			t.Fatalf("expected updated avatar, got %v", user.Avatar)
		}
		if user.Email != "sarah.johnson@university.edu" {
			t.Fatalf("untouched fields must survive, got email %q", user.Email)
		}
		if user.Department != "Computer Science" {
			t.Fatalf("untouched fields must survive, got department %q", user.Department)
		}
		if len(registry.updated) != 1 {
			t.Fatalf("expected one registry update, got %d", len(registry.updated))
		}
		if state.snapshot == nil || state.snapshot.User == nil || state.snapshot.User.Name != user.Name {
			t.Fatal("expected the snapshot to carry the merged user")
		}
	})

	t.Run("is a silent no-op without a session", func(t *testing.T) {
		t.Parallel()

		registry := newRegistryStub(seededFaculty())
		store := newTestStore(registry, &stateStub{})

		if err := store.UpdateProfile(context.Background(), ProfileUpdate{Name: strPtr("Ghost")}); err != nil {
			t.Fatalf("expected a no-op, got %v", err)
		}
		if len(registry.updated) != 0 {
			t.Fatal("no registry writes are expected without a session")
		}
	})

	t.Run("propagates registry failures without touching the session", func(t *testing.T) {
		t.Parallel()

		registry := newRegistryStub(seededFaculty())
		store := newTestStore(registry, &stateStub{})

		if _, err := store.Login(context.Background(), "sarah.johnson@university.edu", "pw"); err != nil {
			t.Fatalf("Login failed: %v", err)
		}

		registry.updateErr = errors.New("registry offline")
		if err := store.UpdateProfile(context.Background(), ProfileUpdate{Name: strPtr("New Name")}); err == nil {
			t.Fatal("expected the registry error to propagate")
		}

		user, _ := store.CurrentUser()
		if user.Name != "Dr. Sarah Johnson" {
			t.Fatalf("session must keep the prior profile, got %q", user.Name)
		}
	})
}

func TestSessionStore_Restore(t *testing.T) {
	t.Parallel()

	t.Run("rehydrates a persisted session", func(t *testing.T) {
		t.Parallel()

		seeded := seededFaculty().User
		state := &stateStub{snapshot: &Snapshot{User: &seeded, IsAuthenticated: true}}
		store := newTestStore(newRegistryStub(), state)

		if err := store.Restore(context.Background()); err != nil {
			t.Fatalf("Restore failed: %v", err)
		}
		user, ok := store.CurrentUser()
		if !ok || user.ID != "f1" {
			t.Fatalf("expected restored session for f1, got %+v ok=%v", user, ok)
		}
	})

	t.Run("starts logged out without a snapshot", func(t *testing.T) {
		t.Parallel()

		store := newTestStore(newRegistryStub(), &stateStub{})
		if err := store.Restore(context.Background()); err != nil {
			t.Fatalf("Restore failed: %v", err)
		}
		if store.IsAuthenticated() {
			t.Fatal("expected a fresh store to be logged out")
		}
	})
}

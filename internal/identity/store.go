// Package identity owns the current authenticated identity: the user
// registry searched during login and signup, the session state, and the
// credential policies behind each sign-in variant.
package identity

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionNamespace is the fixed key the session snapshot is persisted under.
const SessionNamespace = "auth-storage"

// Credentials models the authentication attributes stored for an account.
type Credentials struct {
	User         User
	PasswordHash string
}

// UserRegistry captures the persistence operations the store needs. Lookups
// return ErrAccountNotFound when no account matches; CreateUser returns
// ErrDuplicateAccount on an email collision.
type UserRegistry interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	GetCredentialsByEmail(ctx context.Context, email string) (Credentials, error)
	ListUsersByRole(ctx context.Context, role Role) ([]User, error)
}

// SessionStateStore persists the session snapshot under SessionNamespace.
// LoadSnapshot returns ErrNoSnapshot when no prior session exists.
type SessionStateStore interface {
	SaveSnapshot(ctx context.Context, snapshot Snapshot) error
	LoadSnapshot(ctx context.Context) (Snapshot, error)
}

// ErrNoSnapshot is returned by SessionStateStore.LoadSnapshot when storage
// holds no prior session.
var ErrNoSnapshot = errors.New("identity: no session snapshot")

// Config bundles the swappable policies of the session store. Zero values
// select the campus-demo behavior.
type Config struct {
	// Passwords checks the registry login variant. Default: AcceptAnyPassword.
	Passwords CredentialVerifier
	// RoleSecret checks the role-scoped login variant. Default: the shared demo secret.
	RoleSecret CredentialVerifier
	// OTP checks one-time codes. Default: the fixed demo code.
	OTP OTPVerifier
	// LoginDelay simulates network latency before each login variant resolves.
	// Purely cosmetic; mutations stay serialized regardless.
	LoginDelay time.Duration
}

// SessionStore is the single source of truth for who is logged in. All
// mutating operations are serialized through one mutex so at most one is in
// flight, and every mutation is snapshotted to durable storage before the
// in-memory state changes. Failed operations leave the prior session intact.
type SessionStore struct {
	registry    UserRegistry
	state       SessionStateStore
	passwords   CredentialVerifier
	roleSecret  CredentialVerifier
	otps        OTPVerifier
	idGenerator func() string
	now         func() time.Time
	loginDelay  time.Duration
	logger      *slog.Logger

	mu            sync.Mutex
	user          *User
	authenticated bool
	otpPhone      string
}

// NewSessionStore constructs a SessionStore with the provided dependencies.
func NewSessionStore(registry UserRegistry, state SessionStateStore, cfg Config, idGenerator func() string, now func() time.Time) *SessionStore {
	return NewSessionStoreWithLogger(registry, state, cfg, idGenerator, now, nil)
}

// NewSessionStoreWithLogger constructs a SessionStore with a specified logger.
func NewSessionStoreWithLogger(registry UserRegistry, state SessionStateStore, cfg Config, idGenerator func() string, now func() time.Time, logger *slog.Logger) *SessionStore {
	if cfg.Passwords == nil {
		cfg.Passwords = AcceptAnyPassword{}
	}
	if cfg.RoleSecret == nil {
		cfg.RoleSecret = SharedSecret{Secret: DemoSharedSecret}
	}
	if cfg.OTP == nil {
		cfg.OTP = StaticOTP{Code: DemoOTPCode}
	}
	if idGenerator == nil {
		idGenerator = uuid.NewString
	}
	if now == nil {
		now = time.Now
	}
	return &SessionStore{
		registry:    registry,
		state:       state,
		passwords:   cfg.Passwords,
		roleSecret:  cfg.RoleSecret,
		otps:        cfg.OTP,
		idGenerator: idGenerator,
		now:         now,
		loginDelay:  cfg.LoginDelay,
		logger:      defaultLogger(logger),
	}
}

// Restore rehydrates the session from durable storage. A missing snapshot
// leaves the store logged out and is not an error.
func (s *SessionStore) Restore(ctx context.Context) error {
	if s.state == nil {
		return nil
	}

	snapshot, err := s.state.LoadSnapshot(ctx)
	if err != nil {
		if errors.Is(err, ErrNoSnapshot) {
			return nil
		}
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = cloneUserPtr(snapshot.User)
	s.authenticated = snapshot.IsAuthenticated && snapshot.User != nil
	return nil
}

// CurrentUser returns a copy of the authenticated user, if any.
func (s *SessionStore) CurrentUser() (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.authenticated || s.user == nil {
		return User{}, false
	}
	return cloneUser(*s.user), true
}

// IsAuthenticated reports whether a user is logged in.
func (s *SessionStore) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated && s.user != nil
}

// PendingOTPPhone returns the phone number a one-time code was requested for,
// or empty when no request is outstanding.
func (s *SessionStore) PendingOTPPhone() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.otpPhone
}

// Signup registers a new account and signs it in.
func (s *SessionStore) Signup(ctx context.Context, input SignupInput) (user User, err error) {
	logger := storeLogger(ctx, s.logger, "Signup", "email", normalizeEmail(input.Email), "role", string(input.Role))
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "signup failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", user.ID).InfoContext(ctx, "account created")
	}()

	normalized := normalizeSignupInput(input)
	if vErr := validateSignupInput(normalized); vErr.HasErrors() {
		return User{}, vErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, lookupErr := s.registry.GetCredentialsByEmail(ctx, normalized.Email); lookupErr == nil {
		return User{}, ErrDuplicateAccount
	} else if !errors.Is(lookupErr, ErrAccountNotFound) {
		return User{}, lookupErr
	}

	user = User{
		ID:         s.idGenerator(),
		Name:       normalized.Name,
		Email:      normalized.Email,
		Role:       normalized.Role,
		Department: normalized.Department,
		StudentID:  cloneString(normalized.StudentID),
		FacultyID:  cloneString(normalized.FacultyID),
		Phone:      cloneString(normalized.Phone),
		JoinDate:   s.now(),
	}

	if err = s.registry.CreateUser(ctx, user); err != nil {
		return User{}, err
	}
	if err = s.commitLocked(ctx, &user, true); err != nil {
		return User{}, err
	}
	return cloneUser(user), nil
}

// Login authenticates against the registry by email. The password check is
// delegated to the configured verifier; the default accepts any password,
// matching the demo policy.
func (s *SessionStore) Login(ctx context.Context, email, password string) (user User, err error) {
	logger := storeLogger(ctx, s.logger, "Login", "email", normalizeEmail(email))
	defer func() { s.logOutcome(ctx, logger, "login", user, err) }()

	if err = s.simulateLatency(ctx); err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	creds, lookupErr := s.registry.GetCredentialsByEmail(ctx, normalizeEmail(email))
	if lookupErr != nil {
		return User{}, lookupErr
	}
	if s.passwords.Verify(creds.PasswordHash, password) != nil {
		return User{}, ErrInvalidCredentials
	}

	if err = s.commitLocked(ctx, &creds.User, true); err != nil {
		return User{}, err
	}
	return cloneUser(creds.User), nil
}

// LoginWithRole authenticates against the seeded accounts of a role using the
// shared secret policy.
func (s *SessionStore) LoginWithRole(ctx context.Context, email, password string, role Role) (user User, err error) {
	logger := storeLogger(ctx, s.logger, "LoginWithRole", "email", normalizeEmail(email), "role", string(role))
	defer func() { s.logOutcome(ctx, logger, "role login", user, err) }()

	if !role.Valid() {
		return User{}, ErrInvalidCredentials
	}
	if err = s.simulateLatency(ctx); err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	match, ok, findErr := s.findByRole(ctx, role, func(u User) bool {
		return strings.EqualFold(u.Email, strings.TrimSpace(email))
	})
	if findErr != nil {
		return User{}, findErr
	}
	if !ok || s.roleSecret.Verify("", password) != nil {
		return User{}, ErrInvalidCredentials
	}

	if err = s.commitLocked(ctx, &match, true); err != nil {
		return User{}, err
	}
	return cloneUser(match), nil
}

// RequestOTP records that a one-time code was requested for the phone number.
// No code is generated or delivered; the verification phase checks against
// the configured OTPVerifier, which a production deployment must back with a
// real delivery mechanism.
func (s *SessionStore) RequestOTP(ctx context.Context, phone string) error {
	trimmed := strings.TrimSpace(phone)
	if trimmed == "" {
		vErr := &ValidationError{}
		vErr.add("phone", "phone is required")
		return vErr
	}

	s.mu.Lock()
	s.otpPhone = trimmed
	s.mu.Unlock()

	storeLogger(ctx, s.logger, "RequestOTP").InfoContext(ctx, "otp requested", "phone", trimmed)
	return nil
}

// LoginWithOTP completes the two-phase OTP flow for a phone number and role.
func (s *SessionStore) LoginWithOTP(ctx context.Context, phone, otp string, role Role) (user User, err error) {
	logger := storeLogger(ctx, s.logger, "LoginWithOTP", "role", string(role))
	defer func() { s.logOutcome(ctx, logger, "otp login", user, err) }()

	if !role.Valid() {
		return User{}, ErrInvalidOTP
	}
	if err = s.simulateLatency(ctx); err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	trimmed := strings.TrimSpace(phone)
	if s.otps.Verify(trimmed, otp) != nil {
		return User{}, ErrInvalidOTP
	}

	match, ok, findErr := s.findByRole(ctx, role, func(u User) bool {
		return u.Phone != nil && *u.Phone == trimmed
	})
	if findErr != nil {
		return User{}, findErr
	}
	if !ok {
		return User{}, ErrInvalidOTP
	}

	if err = s.commitLocked(ctx, &match, true); err != nil {
		return User{}, err
	}
	s.otpPhone = ""
	return cloneUser(match), nil
}

// LoginWithID authenticates by member identifier: facultyId for faculty,
// studentId for students.
func (s *SessionStore) LoginWithID(ctx context.Context, identifier string, role Role) (user User, err error) {
	logger := storeLogger(ctx, s.logger, "LoginWithID", "role", string(role))
	defer func() { s.logOutcome(ctx, logger, "id login", user, err) }()

	if !role.Valid() {
		return User{}, ErrInvalidID
	}
	if err = s.simulateLatency(ctx); err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	trimmed := strings.TrimSpace(identifier)
	match, ok, findErr := s.findByRole(ctx, role, func(u User) bool {
		if role == RoleFaculty {
			return u.FacultyID != nil && *u.FacultyID == trimmed
		}
		return u.StudentID != nil && *u.StudentID == trimmed
	})
	if findErr != nil {
		return User{}, findErr
	}
	if !ok {
		return User{}, ErrInvalidID
	}

	if err = s.commitLocked(ctx, &match, true); err != nil {
		return User{}, err
	}
	return cloneUser(match), nil
}

// Logout unconditionally clears the session. It always succeeds; a snapshot
// write failure is logged but does not keep the user signed in.
func (s *SessionStore) Logout(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	logger := storeLogger(ctx, s.logger, "Logout")

	s.user = nil
	s.authenticated = false
	s.otpPhone = ""

	if s.state != nil {
		if err := s.state.SaveSnapshot(ctx, Snapshot{}); err != nil {
			logger.ErrorContext(ctx, "failed to persist logout", "error", err)
		}
	}
	logger.InfoContext(ctx, "session cleared")
}

// UpdateProfile merges the set fields into the current user record and writes
// the result back to both the session and the registry. With no active
// session it is a silent no-op.
func (s *SessionStore) UpdateProfile(ctx context.Context, update ProfileUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	logger := storeLogger(ctx, s.logger, "UpdateProfile")

	if !s.authenticated || s.user == nil {
		logger.DebugContext(ctx, "profile update ignored without a session")
		return nil
	}

	merged := cloneUser(*s.user)
	if update.Name != nil {
		merged.Name = *update.Name
	}
	if update.Email != nil {
		merged.Email = normalizeEmail(*update.Email)
	}
	if update.Department != nil {
		merged.Department = *update.Department
	}
	if update.Avatar != nil {
		merged.Avatar = cloneString(update.Avatar)
	}
	if update.Phone != nil {
		merged.Phone = cloneString(update.Phone)
	}

	if err := s.registry.UpdateUser(ctx, merged); err != nil {
		logger.ErrorContext(ctx, "profile update failed", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	if err := s.commitLocked(ctx, &merged, true); err != nil {
		logger.ErrorContext(ctx, "failed to persist profile update", "error", err)
		return err
	}

	logger.With("user_id", merged.ID).InfoContext(ctx, "profile updated")
	return nil
}

// commitLocked persists the new session state and only then applies it to the
// in-memory fields, so a storage failure leaves the prior session unchanged.
// Callers must hold s.mu.
func (s *SessionStore) commitLocked(ctx context.Context, user *User, authenticated bool) error {
	snapshot := Snapshot{User: cloneUserPtr(user), IsAuthenticated: authenticated}
	if s.state != nil {
		if err := s.state.SaveSnapshot(ctx, snapshot); err != nil {
			return err
		}
	}
	s.user = cloneUserPtr(user)
	s.authenticated = authenticated
	return nil
}

func (s *SessionStore) findByRole(ctx context.Context, role Role, match func(User) bool) (User, bool, error) {
	users, err := s.registry.ListUsersByRole(ctx, role)
	if err != nil {
		return User{}, false, err
	}
	for _, user := range users {
		if match(user) {
			return cloneUser(user), true, nil
		}
	}
	return User{}, false, nil
}

func (s *SessionStore) simulateLatency(ctx context.Context) error {
	if s.loginDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(s.loginDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *SessionStore) logOutcome(ctx context.Context, logger *slog.Logger, operation string, user User, err error) {
	if err != nil {
		logger.ErrorContext(ctx, operation+" failed", "error", err, "error_kind", ErrorKind(err))
		return
	}
	logger.With("user_id", user.ID).InfoContext(ctx, operation+" succeeded")
}

func normalizeSignupInput(input SignupInput) SignupInput {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = normalizeEmail(input.Email)
	input.Department = strings.TrimSpace(input.Department)
	return input
}

// validateSignupInput enforces the account invariant: exactly one member
// identifier, matching the role.
func validateSignupInput(input SignupInput) *ValidationError {
	vErr := &ValidationError{}

	if input.Name == "" {
		vErr.add("name", "name is required")
	}
	if input.Email == "" {
		vErr.add("email", "email is required")
	} else if _, err := mail.ParseAddress(input.Email); err != nil {
		vErr.add("email", "email is invalid")
	}
	if !input.Role.Valid() {
		vErr.add("role", "role must be faculty or student")
		return vErr
	}

	switch input.Role {
	case RoleStudent:
		if input.StudentID == nil || strings.TrimSpace(*input.StudentID) == "" {
			vErr.add("studentId", "student ID is required")
		}
		if input.FacultyID != nil {
			vErr.add("facultyId", "faculty ID is not allowed for students")
		}
	case RoleFaculty:
		if input.FacultyID == nil || strings.TrimSpace(*input.FacultyID) == "" {
			vErr.add("facultyId", "faculty ID is required")
		}
		if input.StudentID != nil {
			vErr.add("studentId", "student ID is not allowed for faculty")
		}
	}

	return vErr
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func cloneUser(user User) User {
	clone := user
	clone.StudentID = cloneString(user.StudentID)
	clone.FacultyID = cloneString(user.FacultyID)
	clone.Avatar = cloneString(user.Avatar)
	clone.Phone = cloneString(user.Phone)
	return clone
}

func cloneUserPtr(user *User) *User {
	if user == nil {
		return nil
	}
	clone := cloneUser(*user)
	return &clone
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}

package main

import (
	"context"
	"errors"

	"github.com/example/golea/internal/identity"
	"github.com/example/golea/internal/persistence"
)

// userRegistryAdapter bridges the identity store to the persistence registry.
type userRegistryAdapter struct {
	repo persistence.UserRegistry
}

func newUserRegistryAdapter(repo persistence.UserRegistry) *userRegistryAdapter {
	return &userRegistryAdapter{repo: repo}
}

func (a *userRegistryAdapter) CreateUser(ctx context.Context, user identity.User) error {
	if err := a.repo.CreateUser(ctx, toPersistenceUser(user)); err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			return identity.ErrDuplicateAccount
		}
		return err
	}
	return nil
}

func (a *userRegistryAdapter) UpdateUser(ctx context.Context, user identity.User) error {
	// The identity layer never sees password hashes; re-read the stored record
	// so the update does not wipe the hash column.
	existing, err := a.repo.GetUser(ctx, user.ID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return identity.ErrAccountNotFound
		}
		return err
	}

	record := toPersistenceUser(user)
	record.PasswordHash = existing.PasswordHash
	record.CreatedAt = existing.CreatedAt

	if err := a.repo.UpdateUser(ctx, record); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return identity.ErrAccountNotFound
		}
		if errors.Is(err, persistence.ErrDuplicate) {
			return identity.ErrDuplicateAccount
		}
		return err
	}
	return nil
}

func (a *userRegistryAdapter) GetCredentialsByEmail(ctx context.Context, email string) (identity.Credentials, error) {
	user, err := a.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return identity.Credentials{}, identity.ErrAccountNotFound
		}
		return identity.Credentials{}, err
	}
	return identity.Credentials{User: toIdentityUser(user), PasswordHash: user.PasswordHash}, nil
}

func (a *userRegistryAdapter) ListUsersByRole(ctx context.Context, role identity.Role) ([]identity.User, error) {
	records, err := a.repo.ListUsersByRole(ctx, string(role))
	if err != nil {
		return nil, err
	}
	users := make([]identity.User, 0, len(records))
	for _, record := range records {
		users = append(users, toIdentityUser(record))
	}
	return users, nil
}

// sessionStateAdapter persists session snapshots under the fixed namespace.
type sessionStateAdapter struct {
	store persistence.SessionStateStore
}

func newSessionStateAdapter(store persistence.SessionStateStore) *sessionStateAdapter {
	return &sessionStateAdapter{store: store}
}

func (a *sessionStateAdapter) SaveSnapshot(ctx context.Context, snapshot identity.Snapshot) error {
	record := persistence.SessionSnapshot{IsAuthenticated: snapshot.IsAuthenticated}
	if snapshot.User != nil {
		user := toPersistenceUser(*snapshot.User)
		record.User = &user
	}
	return a.store.SaveSnapshot(ctx, identity.SessionNamespace, record)
}

func (a *sessionStateAdapter) LoadSnapshot(ctx context.Context) (identity.Snapshot, error) {
	record, err := a.store.LoadSnapshot(ctx, identity.SessionNamespace)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return identity.Snapshot{}, identity.ErrNoSnapshot
		}
		return identity.Snapshot{}, err
	}

	snapshot := identity.Snapshot{IsAuthenticated: record.IsAuthenticated}
	if record.User != nil {
		user := toIdentityUser(*record.User)
		snapshot.User = &user
	}
	return snapshot, nil
}

func toPersistenceUser(user identity.User) persistence.User {
	return persistence.User{
		ID:         user.ID,
		Name:       user.Name,
		Email:      user.Email,
		Role:       string(user.Role),
		Department: user.Department,
		StudentID:  user.StudentID,
		FacultyID:  user.FacultyID,
		Avatar:     user.Avatar,
		Phone:      user.Phone,
		JoinDate:   user.JoinDate,
	}
}

func toIdentityUser(user persistence.User) identity.User {
	return identity.User{
		ID:         user.ID,
		Name:       user.Name,
		Email:      user.Email,
		Role:       identity.Role(user.Role),
		Department: user.Department,
		StudentID:  user.StudentID,
		FacultyID:  user.FacultyID,
		Avatar:     user.Avatar,
		Phone:      user.Phone,
		JoinDate:   user.JoinDate,
	}
}

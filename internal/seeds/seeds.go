// Package seeds carries the demo accounts the role-scoped login variants
// authenticate against.
package seeds

import (
	"context"
	"errors"
	"time"

	"github.com/example/golea/internal/persistence"
)

func ptr(value string) *string { return &value }

func date(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return t
}

// Users returns the demo faculty and student accounts.
func Users() []persistence.User {
	return []persistence.User{
		{
			ID:         "f1",
			Name:       "Dr. Sarah Johnson",
			Email:      "sarah.johnson@university.edu",
			Role:       "faculty",
			Department: "Computer Science",
			FacultyID:  ptr("FAC001"),
			Phone:      ptr("+1234567890"),
			JoinDate:   date("2020-08-15"),
		},
		{
			ID:         "f2",
			Name:       "Prof. Mike Chen",
			Email:      "mike.chen@university.edu",
			Role:       "faculty",
			Department: "Information Technology",
			FacultyID:  ptr("FAC002"),
			Phone:      ptr("+1234567891"),
			JoinDate:   date("2019-09-01"),
		},
		{
			ID:         "s1",
			Name:       "John Doe",
			Email:      "john.doe@student.edu",
			Role:       "student",
			Department: "Computer Science",
			StudentID:  ptr("STU001"),
			Phone:      ptr("+1234567892"),
			JoinDate:   date("2022-08-20"),
		},
		{
			ID:         "s2",
			Name:       "Emma Wilson",
			Email:      "emma.wilson@student.edu",
			Role:       "student",
			Department: "Information Technology",
			StudentID:  ptr("STU002"),
			Phone:      ptr("+1234567893"),
			JoinDate:   date("2022-08-20"),
		},
	}
}

// Apply inserts the demo accounts into the registry. Accounts that already
// exist are left untouched.
func Apply(ctx context.Context, registry persistence.UserRegistry) (inserted int, err error) {
	for _, user := range Users() {
		if err := registry.CreateUser(ctx, user); err != nil {
			if errors.Is(err, persistence.ErrDuplicate) {
				continue
			}
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}

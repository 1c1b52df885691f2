package sqlite

import (
	"errors"
	"testing"
	"time"

	"github.com/example/golea/internal/persistence"
)

func TestMapError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   error
		want error
	}{
		{"nil passes through", nil, nil},
		{"unique constraint", errors.New("constraint failed: UNIQUE constraint failed: users.email"), persistence.ErrDuplicate},
		{"check constraint", errors.New("constraint failed: CHECK constraint failed: role"), persistence.ErrConstraintViolation},
		{"not null constraint", errors.New("constraint failed: NOT NULL constraint failed: users.name"), persistence.ErrConstraintViolation},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := mapError(tc.in)
			if tc.want == nil {
				if got != nil {
					t.Fatalf("expected nil, got %v", got)
				}
				return
			}
			if !errors.Is(got, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}

	t.Run("unrelated errors pass through", func(t *testing.T) {
		t.Parallel()
		in := errors.New("disk I/O error")
		got := mapError(in)
		if !errors.Is(got, in) {
			t.Fatalf("expected the original error, got %v", got)
		}
	})
}

func TestTimeRoundTrip(t *testing.T) {
	t.Parallel()

	original := time.Date(2024, time.February, 10, 9, 30, 15, 123456789, time.UTC)
	parsed, err := parseTime(formatTime(original), "test")
	if err != nil {
		t.Fatalf("parseTime failed: %v", err)
	}
	if !parsed.Equal(original) {
		t.Fatalf("expected %v, got %v", original, parsed)
	}
}

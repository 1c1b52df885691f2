package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/golea/internal/persistence"
)

// EventRepository implements persistence.EventRepository using SQLite.
// Event dates are stored as date-only text so month range queries stay a
// simple string comparison.
type EventRepository struct {
	db *sql.DB
}

const eventDateLayout = "2006-01-02"

// CreateEvent inserts a new calendar event.
func (r *EventRepository) CreateEvent(ctx context.Context, event persistence.Event) error {
	if event.ID == "" {
		return persistence.ErrConstraintViolation
	}

	createdAt := event.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query := `
		INSERT INTO events (id, title, event_date, color, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.Title,
		event.Date.Format(eventDateLayout),
		event.Color,
		formatTime(createdAt),
	)
	return mapError(err)
}

// ListEventsForMonth returns the month's events in insertion order, which the
// grid builder preserves when associating events with day cells.
func (r *EventRepository) ListEventsForMonth(ctx context.Context, year int, month int) ([]persistence.Event, error) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	query := `
		SELECT id, title, event_date, color, created_at
		FROM events
		WHERE event_date >= ? AND event_date < ?
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, start.Format(eventDateLayout), end.Format(eventDateLayout))
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var events []persistence.Event
	for rows.Next() {
		var event persistence.Event
		var dateStr, createdAtStr string
		if err := rows.Scan(&event.ID, &event.Title, &dateStr, &event.Color, &createdAtStr); err != nil {
			return nil, mapError(err)
		}
		if event.Date, err = time.Parse(eventDateLayout, dateStr); err != nil {
			return nil, fmt.Errorf("failed to parse event_date: %w", err)
		}
		if event.CreatedAt, err = parseTime(createdAtStr, "created_at"); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return events, nil
}

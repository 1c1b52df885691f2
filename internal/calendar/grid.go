// Package calendar builds display-ready month grids from dated events.
package calendar

import (
	"errors"
	"time"
)

// MaxVisibleEvents caps how many events a day cell carries for display.
// The full per-day match count is reported separately on the cell.
const MaxVisibleEvents = 3

// Event is a dated entry placed on the grid. Color is a display tag the
// builder passes through untouched.
type Event struct {
	ID    string
	Title string
	Date  time.Time
	Color string
}

// DayCell is one unit of a 7-column month grid: either a leading blank or a
// concrete day with its associated events.
type DayCell struct {
	// Day is the day-of-month number; zero when Blank is set.
	Day        int
	Blank      bool
	IsToday    bool
	IsSelected bool
	// Events holds at most MaxVisibleEvents entries in input order.
	Events []Event
	// EventCount is the full number of events matching the day.
	EventCount int
}

// GridInput names the parameters of a month grid build.
type GridInput struct {
	Year  int
	Month time.Month
	// Today marks the cell flagged IsToday. Compared by calendar date only.
	Today time.Time
	// Selected marks the cell flagged IsSelected; the zero value selects nothing.
	Selected time.Time
	Events   []Event
}

// ErrInvalidMonth indicates the month is outside January through December.
var ErrInvalidMonth = errors.New("calendar: month must be between 1 and 12")

// Builder assembles month grids, normalizing all date comparisons to a single
// location so that timestamps on the same calendar day compare equal
// regardless of time of day.
type Builder struct {
	location *time.Location
}

// NewBuilder constructs a Builder that evaluates dates in the provided
// location. If loc is nil, UTC is used.
func NewBuilder(loc *time.Location) *Builder {
	if loc == nil {
		loc = time.UTC
	}
	return &Builder{location: loc}
}

// BuildMonthGrid produces the ordered cell sequence for a month: one leading
// blank per weekday preceding day 1 (weeks start on Sunday), then one cell per
// day of the month. No trailing padding is emitted, so the total cell count is
// the leading-blank count plus the number of days in the month.
func (b *Builder) BuildMonthGrid(input GridInput) ([]DayCell, error) {
	if input.Month < time.January || input.Month > time.December {
		return nil, ErrInvalidMonth
	}

	first := time.Date(input.Year, input.Month, 1, 0, 0, 0, 0, b.location)
	offset := int(first.Weekday())
	days := DaysInMonth(input.Year, input.Month)

	cells := make([]DayCell, 0, offset+days)
	for i := 0; i < offset; i++ {
		cells = append(cells, DayCell{Blank: true})
	}

	today, hasToday := b.normalize(input.Today)
	selected, hasSelected := b.normalize(input.Selected)

	for day := 1; day <= days; day++ {
		date := time.Date(input.Year, input.Month, day, 0, 0, 0, 0, b.location)
		cell := DayCell{
			Day:        day,
			IsToday:    hasToday && date.Equal(today),
			IsSelected: hasSelected && date.Equal(selected),
		}
		for _, event := range input.Events {
			if eventDate, ok := b.normalize(event.Date); ok && eventDate.Equal(date) {
				cell.EventCount++
				if len(cell.Events) < MaxVisibleEvents {
					cell.Events = append(cell.Events, event)
				}
			}
		}
		cells = append(cells, cell)
	}

	return cells, nil
}

// normalize truncates a timestamp to midnight in the builder's location.
// The zero time reports ok=false and never matches any cell.
func (b *Builder) normalize(t time.Time) (time.Time, bool) {
	if t.IsZero() {
		return time.Time{}, false
	}
	local := t.In(b.location)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, b.location), true
}

// DaysInMonth returns the day count of a month, accounting for leap years.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// NextMonth advances one month, rolling December over into January of the
// following year.
func NextMonth(year int, month time.Month) (int, time.Month) {
	if month == time.December {
		return year + 1, time.January
	}
	return year, month + 1
}

// PrevMonth steps back one month, rolling January over into December of the
// preceding year.
func PrevMonth(year int, month time.Month) (int, time.Month) {
	if month == time.January {
		return year - 1, time.December
	}
	return year, month - 1
}

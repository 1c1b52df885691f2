package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/golea/internal/calendar"
	"github.com/example/golea/internal/metrics"
	"github.com/example/golea/internal/persistence"
)

type eventStore interface {
	CreateEvent(ctx context.Context, event persistence.Event) error
	ListEventsForMonth(ctx context.Context, year int, month int) ([]persistence.Event, error)
}

type CalendarHandler struct {
	builder     *calendar.Builder
	events      eventStore
	metrics     *metrics.Metrics
	idGenerator func() string
	now         func() time.Time
	responder   responder
	logger      *slog.Logger
}

func NewCalendarHandler(builder *calendar.Builder, events eventStore, m *metrics.Metrics, idGenerator func() string, now func() time.Time, logger *slog.Logger) *CalendarHandler {
	base := defaultLogger(logger)
	if now == nil {
		now = time.Now
	}
	return &CalendarHandler{
		builder:     builder,
		events:      events,
		metrics:     m,
		idGenerator: idGenerator,
		now:         now,
		responder:   newResponder(base),
		logger:      base,
	}
}

const eventDateLayout = "2006-01-02"

type eventDTO struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Date  string `json:"date"`
	Color string `json:"color"`
}

type dayCellDTO struct {
	Day        *int       `json:"day"`
	IsToday    bool       `json:"isToday"`
	IsSelected bool       `json:"isSelected"`
	Events     []eventDTO `json:"events"`
	EventCount int        `json:"eventCount"`
}

type monthGridResponse struct {
	Year  int          `json:"year"`
	Month int          `json:"month"`
	Cells []dayCellDTO `json:"cells"`
}

// MonthGrid serves GET /calendar/{year}/{month}. The optional `selected`
// query parameter (YYYY-MM-DD) marks a selected cell.
func (h *CalendarHandler) MonthGrid(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		h.responder.writeError(ctx, w, http.StatusBadRequest, errors.New("invalid year"))
		return
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil {
		h.responder.writeError(ctx, w, http.StatusBadRequest, errors.New("invalid month"))
		return
	}

	var selected time.Time
	if raw := strings.TrimSpace(r.URL.Query().Get("selected")); raw != "" {
		selected, err = time.Parse(eventDateLayout, raw)
		if err != nil {
			h.responder.writeError(ctx, w, http.StatusBadRequest, errors.New("invalid selected date"))
			return
		}
	}

	stored, err := h.events.ListEventsForMonth(ctx, year, month)
	if err != nil {
		h.responder.writeError(ctx, w, http.StatusInternalServerError, err)
		return
	}

	events := make([]calendar.Event, 0, len(stored))
	for _, event := range stored {
		events = append(events, calendar.Event{
			ID:    event.ID,
			Title: event.Title,
			Date:  event.Date,
			Color: event.Color,
		})
	}

	start := time.Now()
	cells, err := h.builder.BuildMonthGrid(calendar.GridInput{
		Year:     year,
		Month:    time.Month(month),
		Today:    h.now(),
		Selected: selected,
		Events:   events,
	})
	if err != nil {
		if errors.Is(err, calendar.ErrInvalidMonth) {
			h.responder.writeError(ctx, w, http.StatusBadRequest, err)
			return
		}
		h.responder.writeError(ctx, w, http.StatusInternalServerError, err)
		return
	}
	if h.metrics != nil {
		h.metrics.ObserveGridBuild(time.Since(start))
	}

	h.responder.writeJSON(ctx, w, http.StatusOK, monthGridResponse{
		Year:  year,
		Month: month,
		Cells: toDayCellDTOs(cells),
	})
}

func toDayCellDTOs(cells []calendar.DayCell) []dayCellDTO {
	out := make([]dayCellDTO, 0, len(cells))
	for _, cell := range cells {
		dto := dayCellDTO{
			IsToday:    cell.IsToday,
			IsSelected: cell.IsSelected,
			Events:     make([]eventDTO, 0, len(cell.Events)),
			EventCount: cell.EventCount,
		}
		if !cell.Blank {
			day := cell.Day
			dto.Day = &day
		}
		for _, event := range cell.Events {
			dto.Events = append(dto.Events, eventDTO{
				ID:    event.ID,
				Title: event.Title,
				Date:  event.Date.Format(eventDateLayout),
				Color: event.Color,
			})
		}
		out = append(out, dto)
	}
	return out
}

type createEventRequest struct {
	Title string `json:"title"`
	Date  string `json:"date"`
	Color string `json:"color"`
}

// CreateEvent serves POST /events.
func (h *CalendarHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(ctx, w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	if strings.TrimSpace(req.Title) == "" {
		h.responder.writeError(ctx, w, http.StatusBadRequest, errors.New("title is required"))
		return
	}
	date, err := time.Parse(eventDateLayout, strings.TrimSpace(req.Date))
	if err != nil {
		h.responder.writeError(ctx, w, http.StatusBadRequest, errors.New("date must be formatted YYYY-MM-DD"))
		return
	}

	event := persistence.Event{
		ID:    h.idGenerator(),
		Title: strings.TrimSpace(req.Title),
		Date:  date,
		Color: req.Color,
	}
	if err := h.events.CreateEvent(ctx, event); err != nil {
		h.responder.writeError(ctx, w, http.StatusInternalServerError, err)
		return
	}

	handlerLogger(ctx, h.logger, "CalendarHandler", "CreateEvent", "event_id", event.ID).InfoContext(ctx, "event created")
	h.responder.writeJSON(ctx, w, http.StatusCreated, eventDTO{
		ID:    event.ID,
		Title: event.Title,
		Date:  event.Date.Format(eventDateLayout),
		Color: event.Color,
	})
}

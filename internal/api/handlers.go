package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/runnerr0/codetime/internal/codetime"
	"github.com/runnerr0/codetime/internal/logging"
	"github.com/runnerr0/codetime/internal/storage"
)

// Engine is the subset of codetime.Service the HTTP layer serves.
type Engine interface {
	Record(ctx context.Context, hb codetime.Heartbeat) (codetime.Ack, error)
	Statistics(ctx context.Context) (codetime.Statistics, error)
	Activities(ctx context.Context, year int) (codetime.Calendar, error)
	LastXDays(ctx context.Context, days int) ([]storage.DailyEntry, error)
	TopProjects(ctx context.Context, w codetime.Window) (storage.Counter, error)
	TopLanguages(ctx context.Context, w codetime.Window) (storage.Counter, error)
	EachDay(ctx context.Context) ([]codetime.DayDuration, error)
	TimeDistribution(ctx context.Context) ([codetime.HoursPerDay]int, error)
	UserMinutes(ctx context.Context, minutes int) (int, error)
	Location() *time.Location
}

// Handler serves the code-time endpoints.
type Handler struct {
	engine    Engine
	startTime time.Time
}

// NewHandler returns a Handler backed by engine.
func NewHandler(engine Engine) *Handler {
	return &Handler{engine: engine, startTime: time.Now()}
}

func (h *Handler) meta(start time.Time) *Meta {
	return &Meta{
		Timestamp:   time.Now().UTC(),
		QueryTimeMS: time.Since(start).Milliseconds(),
		Timezone:    h.engine.Location().String(),
	}
}

// intParam reads an optional integer query parameter.
func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New(name + " must be an integer")
	}
	return n, nil
}

// EventLog records one heartbeat. The reply keeps the plain {status,message}
// shape editor plugins check for.
func (h *Handler) EventLog(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(w, r, http.StatusRequestEntityTooLarge, CodeValidationFailed, "Request body too large", nil)
			return
		}
		respondError(w, r, http.StatusBadRequest, CodeValidationFailed, "Could not read request body", err)
		return
	}

	var hb codetime.Heartbeat
	if err := json.Unmarshal(body, &hb); err != nil {
		respondError(w, r, http.StatusBadRequest, CodeValidationFailed, "Request body must be a JSON heartbeat", nil)
		return
	}

	ack, err := h.engine.Record(r.Context(), hb)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	logging.Ctx(r.Context()).Debug().
		Str("day", ack.Day).
		Str("outcome", string(ack.Outcome)).
		Msg("Heartbeat handled")
	writeJSON(w, http.StatusOK, &EventLogResponse{Status: "ok", Message: "success"})
}

// Activities serves the year calendar; ?year= defaults to the current year.
func (h *Handler) Activities(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	year, err := intParam(r, "year", 0)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, CodeValidationFailed, err.Error(), nil)
		return
	}

	cal, err := h.engine.Activities(r.Context(), year)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, cal, h.meta(start))
}

// Statistics serves today/max/total/average time and streaks.
func (h *Handler) Statistics(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	stats, err := h.engine.Statistics(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, stats, h.meta(start))
}

// LastXDays serves the raw daily entries of the last ?days= days.
func (h *Handler) LastXDays(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	days, err := intParam(r, "days", 7)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, CodeValidationFailed, err.Error(), nil)
		return
	}

	entries, err := h.engine.LastXDays(r.Context(), days)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if entries == nil {
		entries = []storage.DailyEntry{}
	}
	respondData(w, entries, h.meta(start))
}

// TopProjects ranks projects over ?last=.
func (h *Handler) TopProjects(w http.ResponseWriter, r *http.Request) {
	h.serveTop(w, r, h.engine.TopProjects)
}

// TopLanguages ranks languages over ?last=.
func (h *Handler) TopLanguages(w http.ResponseWriter, r *http.Request) {
	h.serveTop(w, r, h.engine.TopLanguages)
}

func (h *Handler) serveTop(w http.ResponseWriter, r *http.Request, fn func(context.Context, codetime.Window) (storage.Counter, error)) {
	start := time.Now()
	ranked, err := fn(r.Context(), codetime.Window(r.URL.Query().Get("last")))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, ranked, h.meta(start))
}

// EachDay serves per-day durations for the last month.
func (h *Handler) EachDay(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	days, err := h.engine.EachDay(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if days == nil {
		days = []codetime.DayDuration{}
	}
	respondData(w, days, h.meta(start))
}

// TimeDistribution serves the 24 hour-of-day buckets.
func (h *Handler) TimeDistribution(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	dist, err := h.engine.TimeDistribution(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, dist, h.meta(start))
}

// UserMinutes serves the minutes coded within the last ?minutes= minutes.
func (h *Handler) UserMinutes(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	minutes, err := intParam(r, "minutes", 0)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, CodeValidationFailed, err.Error(), nil)
		return
	}

	total, err := h.engine.UserMinutes(r.Context(), minutes)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, map[string]int{"minutes": total}, h.meta(start))
}

// Health reports liveness and uptime.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondData(w, map[string]any{
		"status":         "healthy",
		"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
		"timezone":       h.engine.Location().String(),
	}, nil)
}

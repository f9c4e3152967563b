package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zapponejosh/airac-cycle/internal/airac"
	"github.com/zapponejosh/airac-cycle/internal/database"
	"github.com/zapponejosh/airac-cycle/internal/emitter"
	"github.com/zapponejosh/airac-cycle/internal/logger"
)

// Range limits
const (
	maxRangeCycles     = 100
	defaultRecordLimit = 20
	maxRecordLimit     = 500
)

// Store is the subset of the database used by the handlers.
type Store interface {
	Health(ctx context.Context) (database.Status, error)
	GetCycle(ctx context.Context, identifier string) (*database.CycleRecord, error)
	ListCycles(ctx context.Context, limit int) ([]database.CycleRecord, error)
}

// Handlers contains all HTTP handlers and their dependencies.
type Handlers struct {
	store    Store
	provider emitter.Provider
	now      func() time.Time
	location *time.Location
	logger   *slog.Logger
}

// NewHandlers creates a new Handlers instance.
// now and location decide which date "current" refers to.
func NewHandlers(store Store, provider emitter.Provider, now func() time.Time, location *time.Location, log *slog.Logger) *Handlers {
	if now == nil {
		now = time.Now
	}
	if location == nil {
		location = time.UTC
	}
	return &Handlers{
		store:    store,
		provider: provider,
		now:      now,
		location: location,
		logger:   log,
	}
}

// CycleResponse is the JSON form of a cycle.
type CycleResponse struct {
	Identifier     string `json:"identifier"`
	EffectiveStart string `json:"effective_start"`
	EffectiveEnd   string `json:"effective_end"`
	NextStart      string `json:"next_start"`
}

func newCycleResponse(c airac.Cycle) CycleResponse {
	return CycleResponse{
		Identifier:     c.Identifier,
		EffectiveStart: airac.FormatDate(c.EffectiveStart),
		EffectiveEnd:   airac.FormatDate(c.EffectiveEnd),
		NextStart:      airac.FormatDate(c.NextStart()),
	}
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, err := h.store.Health(r.Context())
	if err != nil {
		h.log(r).Warn("health check failed", slog.Any("error", err))
		WriteError(w, http.StatusServiceUnavailable, "Database unhealthy", "HEALTH_CHECK_FAILED")
		return
	}

	WriteSuccess(w, map[string]interface{}{
		"status": "healthy",
		"store":  status,
	})
}

// GetCurrentCycle handles GET /api/v1/cycles/current
func (h *Handlers) GetCurrentCycle(w http.ResponseWriter, r *http.Request) {
	cycle, err := h.provider.CycleAt(h.today())
	if err != nil {
		h.writeLookupError(w, r, err)
		return
	}

	WriteSuccess(w, newCycleResponse(cycle))
}

// GetCurrentCycleEnv handles GET /api/v1/cycles/current/env
// The body is the same three KEY=VALUE lines the CLI prints.
func (h *Handlers) GetCurrentCycleEnv(w http.ResponseWriter, r *http.Request) {
	cycle, err := h.provider.CycleAt(h.today())
	if err != nil {
		h.writeLookupError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := emitter.Render(w, cycle, emitter.FormatEnv); err != nil {
		h.log(r).Error("failed to write cycle", slog.Any("error", err))
	}
}

// GetCycleByDate handles GET /api/v1/cycles/date/{date}
func (h *Handlers) GetCycleByDate(w http.ResponseWriter, r *http.Request) {
	dateStr := chi.URLParam(r, "date")

	date, err := airac.ParseDate(dateStr)
	if err != nil {
		WriteBadRequest(w, fmt.Sprintf("Invalid date format: %s. Use YYYY-MM-DD", dateStr))
		return
	}

	cycle, err := h.provider.CycleAt(date)
	if err != nil {
		h.writeLookupError(w, r, err)
		return
	}

	WriteSuccess(w, newCycleResponse(cycle))
}

// GetCycleByIdentifier handles GET /api/v1/cycles/id/{identifier}
func (h *Handlers) GetCycleByIdentifier(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "identifier")

	cycle, err := airac.FromIdentifier(id)
	if err != nil {
		WriteNotFound(w, err.Error())
		return
	}

	WriteSuccess(w, newCycleResponse(cycle))
}

// ListCycles handles GET /api/v1/cycles?from=YYYY-MM-DD&to=YYYY-MM-DD
// Without parameters it returns the current cycle and the one after it.
func (h *Handlers) ListCycles(w http.ResponseWriter, r *http.Request) {
	fromStr := r.URL.Query().Get("from")
	toStr := r.URL.Query().Get("to")

	from := h.today()
	if fromStr != "" {
		d, err := airac.ParseDate(fromStr)
		if err != nil {
			WriteBadRequest(w, fmt.Sprintf("Invalid from date: %s. Use YYYY-MM-DD", fromStr))
			return
		}
		from = d
	}

	to := from.AddDate(0, 0, airac.CycleLength)
	if toStr != "" {
		d, err := airac.ParseDate(toStr)
		if err != nil {
			WriteBadRequest(w, fmt.Sprintf("Invalid to date: %s. Use YYYY-MM-DD", toStr))
			return
		}
		to = d
	}

	if from.After(to) {
		WriteBadRequest(w, "from must be before or equal to to")
		return
	}

	cycles, err := airac.Range(from, to)
	if err != nil {
		h.writeLookupError(w, r, err)
		return
	}
	if len(cycles) > maxRangeCycles {
		WriteBadRequest(w, fmt.Sprintf("Range overlaps %d cycles, limit is %d", len(cycles), maxRangeCycles))
		return
	}

	resp := make([]CycleResponse, 0, len(cycles))
	for _, c := range cycles {
		resp = append(resp, newCycleResponse(c))
	}

	WriteSuccess(w, map[string]interface{}{
		"from":   airac.FormatDate(from),
		"to":     airac.FormatDate(to),
		"cycles": resp,
	})
}

// ListRecordedCycles handles GET /api/v1/cycles/recorded?limit=N
func (h *Handlers) ListRecordedCycles(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecordLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l <= 0 || l > maxRecordLimit {
			WriteBadRequest(w, fmt.Sprintf("limit must be between 1 and %d", maxRecordLimit))
			return
		}
		limit = l
	}

	records, err := h.store.ListCycles(r.Context(), limit)
	if err != nil {
		h.log(r).Error("failed to list recorded cycles", slog.Any("error", err))
		WriteInternalError(w, "Failed to retrieve recorded cycles")
		return
	}

	WriteSuccess(w, map[string]interface{}{
		"cycles": records,
		"limit":  limit,
	})
}

// GetRecordedCycle handles GET /api/v1/cycles/recorded/{identifier}
func (h *Handlers) GetRecordedCycle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "identifier")

	record, err := h.store.GetCycle(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			WriteNotFound(w, fmt.Sprintf("Cycle %s has not been recorded", id))
			return
		}
		h.log(r).Error("failed to get recorded cycle", slog.String("identifier", id), slog.Any("error", err))
		WriteInternalError(w, "Failed to retrieve recorded cycle")
		return
	}

	WriteSuccess(w, record)
}

// log returns the handler logger tagged with the request ID.
func (h *Handlers) log(r *http.Request) *slog.Logger {
	return logger.FromContext(r.Context(), h.logger)
}

// today returns the current date in the configured location.
func (h *Handlers) today() time.Time {
	return h.now().In(h.location)
}

// writeLookupError maps cycle lookup failures to 400 and anything else to 500.
func (h *Handlers) writeLookupError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, airac.ErrOutOfRange) {
		WriteError(w, http.StatusBadRequest, err.Error(), "OUT_OF_RANGE")
		return
	}
	h.log(r).Error("cycle lookup failed", slog.Any("error", err))
	WriteInternalError(w, "Failed to resolve cycle")
}

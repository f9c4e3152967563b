// Package scheduler records AIRAC cycle rollovers on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/zapponejosh/airac-cycle/internal/database"
	"github.com/zapponejosh/airac-cycle/internal/emitter"
)

// Store is the subset of the database used by the scheduler.
type Store interface {
	UpsertCycles(ctx context.Context, records ...database.CycleRecord) (int, error)
}

// RolloverScheduler periodically resolves the current and next cycle and
// stores them, logging when the current cycle changes.
type RolloverScheduler struct {
	cronEngine *cron.Cron
	provider   emitter.Provider
	store      Store
	logger     *slog.Logger
	spec       string
	now        func() time.Time
	location   *time.Location

	mu      sync.Mutex
	current string
}

// Option configures a RolloverScheduler.
type Option func(*RolloverScheduler)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *RolloverScheduler) { s.now = now }
}

// WithLocation sets the location used to read today's date and to run cron.
func WithLocation(loc *time.Location) Option {
	return func(s *RolloverScheduler) { s.location = loc }
}

// New creates a scheduler running spec (standard 5-field cron syntax).
func New(provider emitter.Provider, store Store, logger *slog.Logger, spec string, opts ...Option) *RolloverScheduler {
	s := &RolloverScheduler{
		provider: provider,
		store:    store,
		logger:   logger,
		spec:     spec,
		now:      time.Now,
		location: time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cronEngine = cron.New(cron.WithLocation(s.location))
	return s
}

// Start registers the rollover job and starts the cron engine.
func (s *RolloverScheduler) Start() error {
	_, err := s.cronEngine.AddFunc(s.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		if err := s.RunOnce(ctx); err != nil {
			s.logger.Error("rollover job failed", slog.Any("error", err))
		}
	})
	if err != nil {
		return fmt.Errorf("add rollover job %q: %w", s.spec, err)
	}

	s.cronEngine.Start()
	s.logger.Info("rollover scheduler started", slog.String("schedule", s.spec))
	return nil
}

// Stop halts the cron engine and waits for a running job to finish.
func (s *RolloverScheduler) Stop() {
	<-s.cronEngine.Stop().Done()
	s.logger.Info("rollover scheduler stopped")
}

// RunOnce records the current and next cycle.
func (s *RolloverScheduler) RunOnce(ctx context.Context) error {
	today := s.now().In(s.location)

	current, err := s.provider.CycleAt(today)
	if err != nil {
		return fmt.Errorf("resolve current cycle: %w", err)
	}
	next, err := s.provider.CycleAt(current.NextStart())
	if err != nil {
		return fmt.Errorf("resolve next cycle: %w", err)
	}

	created, err := s.store.UpsertCycles(ctx,
		database.NewCycleRecord(current),
		database.NewCycleRecord(next),
	)
	if err != nil {
		return fmt.Errorf("record cycles: %w", err)
	}

	s.mu.Lock()
	previous := s.current
	s.current = current.Identifier
	s.mu.Unlock()

	if previous != "" && previous != current.Identifier {
		s.logger.Info("cycle rollover",
			slog.String("from", previous),
			slog.String("to", current.Identifier),
		)
	}

	s.logger.Debug("cycles recorded",
		slog.String("current", current.Identifier),
		slog.String("next", next.Identifier),
		slog.Int("created", created),
	)

	return nil
}

// Current returns the identifier seen by the last successful run.
func (s *RolloverScheduler) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

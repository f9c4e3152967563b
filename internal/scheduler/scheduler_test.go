package scheduler

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapponejosh/airac-cycle/internal/airac"
	"github.com/zapponejosh/airac-cycle/internal/database"
	"github.com/zapponejosh/airac-cycle/internal/emitter"
)

type memStore struct {
	records map[string]database.CycleRecord
	err     error
}

func (m *memStore) UpsertCycles(_ context.Context, records ...database.CycleRecord) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	if m.records == nil {
		m.records = map[string]database.CycleRecord{}
	}
	created := 0
	for _, r := range records {
		if _, ok := m.records[r.Identifier]; !ok {
			created++
		}
		m.records[r.Identifier] = r
	}
	return created, nil
}

func newTestScheduler(store Store, clock *time.Time, logs *bytes.Buffer) *RolloverScheduler {
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelInfo}))
	return New(airac.Calculator{}, store, logger, "5 0 * * *",
		WithClock(func() time.Time { return *clock }),
	)
}

func TestRunOnce_RecordsCurrentAndNext(t *testing.T) {
	store := &memStore{}
	now := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	var logs bytes.Buffer

	s := newTestScheduler(store, &now, &logs)
	require.NoError(t, s.RunOnce(context.Background()))

	assert.Equal(t, "2401", s.Current())
	require.Contains(t, store.records, "2401")
	require.Contains(t, store.records, "2402")
	assert.Equal(t, "2024-02-22", store.records["2402"].EffectiveStart)
	assert.NotContains(t, logs.String(), "cycle rollover")
}

func TestRunOnce_LogsRollover(t *testing.T) {
	store := &memStore{}
	now := time.Date(2024, 2, 21, 12, 0, 0, 0, time.UTC)
	var logs bytes.Buffer

	s := newTestScheduler(store, &now, &logs)
	require.NoError(t, s.RunOnce(context.Background()))

	now = now.AddDate(0, 0, 1)
	require.NoError(t, s.RunOnce(context.Background()))

	assert.Equal(t, "2402", s.Current())
	assert.Contains(t, logs.String(), "cycle rollover")
	assert.Contains(t, logs.String(), "from=2401")
	assert.Contains(t, logs.String(), "to=2402")
	assert.Len(t, store.records, 3)
}

func TestRunOnce_StoreError(t *testing.T) {
	store := &memStore{err: errors.New("disk full")}
	now := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	var logs bytes.Buffer

	s := newTestScheduler(store, &now, &logs)
	err := s.RunOnce(context.Background())

	assert.ErrorIs(t, err, store.err)
	assert.Empty(t, s.Current())
}

func TestRunOnce_LookupError(t *testing.T) {
	var logs bytes.Buffer
	provider := emitter.ProviderFunc(func(time.Time) (airac.Cycle, error) {
		return airac.Cycle{}, airac.ErrOutOfRange
	})
	s := New(provider, &memStore{}, slog.New(slog.NewTextHandler(&logs, nil)), "@daily")

	err := s.RunOnce(context.Background())
	assert.ErrorIs(t, err, airac.ErrOutOfRange)
}

func TestStart_InvalidSpec(t *testing.T) {
	var logs bytes.Buffer
	s := New(airac.Calculator{}, &memStore{}, slog.New(slog.NewTextHandler(&logs, nil)), "not a schedule")

	assert.Error(t, s.Start())
}

func TestStartStop(t *testing.T) {
	var logs bytes.Buffer
	s := New(airac.Calculator{}, &memStore{}, slog.New(slog.NewTextHandler(&logs, nil)), "@hourly",
		WithLocation(time.UTC))

	require.NoError(t, s.Start())
	s.Stop()
	assert.Contains(t, logs.String(), "rollover scheduler stopped")
}

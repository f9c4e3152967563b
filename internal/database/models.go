package database

import (
	"time"

	"github.com/zapponejosh/airac-cycle/internal/airac"
)

// CycleRecord is an AIRAC cycle persisted by the rollover scheduler.
type CycleRecord struct {
	Identifier     string    `json:"identifier"`
	EffectiveStart string    `json:"effective_start"` // YYYY-MM-DD
	EffectiveEnd   string    `json:"effective_end"`   // YYYY-MM-DD, inclusive
	RecordedAt     time.Time `json:"recorded_at"`
}

// NewCycleRecord converts a cycle into its stored form.
func NewCycleRecord(c airac.Cycle) CycleRecord {
	return CycleRecord{
		Identifier:     c.Identifier,
		EffectiveStart: airac.FormatDate(c.EffectiveStart),
		EffectiveEnd:   airac.FormatDate(c.EffectiveEnd),
	}
}

// Cycle converts the record back into an airac.Cycle.
func (r CycleRecord) Cycle() (airac.Cycle, error) {
	start, err := airac.ParseDate(r.EffectiveStart)
	if err != nil {
		return airac.Cycle{}, err
	}
	end, err := airac.ParseDate(r.EffectiveEnd)
	if err != nil {
		return airac.Cycle{}, err
	}
	return airac.Cycle{
		Identifier:     r.Identifier,
		EffectiveStart: start,
		EffectiveEnd:   end,
	}, nil
}

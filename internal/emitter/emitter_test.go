package emitter

import (
	"bytes"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/zapponejosh/airac-cycle/internal/airac"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// fixedProvider always returns the same cycle and records the requested date.
type fixedProvider struct {
	cycle airac.Cycle
	asked []time.Time
}

func (p *fixedProvider) CycleAt(d time.Time) (airac.Cycle, error) {
	p.asked = append(p.asked, d)
	return p.cycle, nil
}

func scenarioProvider() *fixedProvider {
	return &fixedProvider{cycle: airac.Cycle{
		Identifier:     "2405",
		EffectiveStart: date(2024, 5, 23),
		EffectiveEnd:   date(2024, 6, 19),
	}}
}

func TestEmit_Scenario(t *testing.T) {
	p := scenarioProvider()
	var out bytes.Buffer

	today := date(2024, 6, 1)
	require.NoError(t, Emit(&out, today, p))

	assert.Equal(t, "IDENTIFIER=2405\nSTART=2024-05-23\nEND=2024-06-20\n", out.String())
	assert.Equal(t, []time.Time{today}, p.asked)
}

func TestEmit_LineShape(t *testing.T) {
	shape := regexp.MustCompile(`^[A-Z]+=.+$`)

	for d := date(2019, 1, 1); d.Before(date(2027, 1, 1)); d = d.AddDate(0, 0, 9) {
		var out bytes.Buffer
		require.NoError(t, Emit(&out, d, airac.Calculator{}))

		lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
		require.Len(t, lines, 3)
		assert.True(t, strings.HasPrefix(lines[0], "IDENTIFIER="))
		assert.True(t, strings.HasPrefix(lines[1], "START="))
		assert.True(t, strings.HasPrefix(lines[2], "END="))
		for _, l := range lines {
			assert.Regexp(t, shape, l)
		}
	}
}

func TestEmit_EndIsDayAfterEffectiveEnd(t *testing.T) {
	today := date(2020, 12, 31)
	c, err := airac.FromDate(today)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, Emit(&out, today, airac.Calculator{}))

	assert.Equal(t, "IDENTIFIER=2014\nSTART=2020-12-31\nEND=2021-01-28\n", out.String())
	assert.Contains(t, out.String(), "END="+airac.FormatDate(c.NextStart()))
}

func TestEmit_Idempotent(t *testing.T) {
	var first, second bytes.Buffer
	today := date(2026, 10, 16)

	require.NoError(t, Emit(&first, today, airac.Calculator{}))
	require.NoError(t, Emit(&second, today, airac.Calculator{}))

	assert.Equal(t, first.String(), second.String())
}

func TestEmit_LookupFailureWritesNothing(t *testing.T) {
	lookupErr := errors.New("no cycle")
	p := ProviderFunc(func(time.Time) (airac.Cycle, error) {
		return airac.Cycle{}, lookupErr
	})

	var out bytes.Buffer
	err := Emit(&out, date(2024, 1, 1), p)

	assert.ErrorIs(t, err, lookupErr)
	assert.Contains(t, err.Error(), "2024-01-01")
	assert.Zero(t, out.Len())
}

func TestEmit_OutOfRange(t *testing.T) {
	var out bytes.Buffer
	err := Emit(&out, date(1990, 1, 1), airac.Calculator{})

	assert.ErrorIs(t, err, airac.ErrOutOfRange)
	assert.Zero(t, out.Len())
}

type failingWriter struct{ calls int }

func (w *failingWriter) Write(p []byte) (int, error) {
	w.calls++
	return 0, errors.New("closed pipe")
}

func TestRender_SingleWrite(t *testing.T) {
	w := &failingWriter{}
	err := Render(w, scenarioProvider().cycle, FormatEnv)

	assert.Error(t, err)
	assert.Equal(t, 1, w.calls)
}

func TestRender_JSON(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Render(&out, scenarioProvider().cycle, FormatJSON))

	var got map[string]string
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, map[string]string{
		"IDENTIFIER": "2405",
		"START":      "2024-05-23",
		"END":        "2024-06-20",
	}, got)
}

func TestRender_YAML(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Render(&out, scenarioProvider().cycle, FormatYAML))

	var got map[string]string
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "2405", got["IDENTIFIER"])
	assert.Equal(t, "2024-06-20", got["END"])
}

func TestRender_UnknownFormat(t *testing.T) {
	var out bytes.Buffer
	err := Render(&out, scenarioProvider().cycle, Format("xml"))

	assert.Error(t, err)
	assert.Zero(t, out.Len())
	assert.False(t, Format("xml").IsValid())
	assert.True(t, FormatYAML.IsValid())
}

func TestEmitter_Run(t *testing.T) {
	// 23:30 UTC on Jan 24 is already Jan 25 in UTC+10.
	now := time.Date(2024, 1, 24, 23, 30, 0, 0, time.UTC)

	e := &Emitter{
		Provider: airac.Calculator{},
		Now:      func() time.Time { return now },
	}
	var out bytes.Buffer
	require.NoError(t, e.Run(&out))
	assert.True(t, strings.HasPrefix(out.String(), "IDENTIFIER=2313\n"))

	e.Location = time.FixedZone("UTC+10", 10*60*60)
	out.Reset()
	require.NoError(t, e.Run(&out))
	assert.True(t, strings.HasPrefix(out.String(), "IDENTIFIER=2401\n"))
}

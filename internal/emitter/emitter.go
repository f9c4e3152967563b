// Package emitter writes the AIRAC cycle covering a date as KEY=VALUE lines
// for automation pipelines.
//
// The default output is exactly three lines:
//
//	IDENTIFIER=2405
//	START=2024-05-16
//	END=2024-06-13
//
// END is the day after the cycle's last effective day, so consumers can treat
// [START, END) as a half-open range.
package emitter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zapponejosh/airac-cycle/internal/airac"
)

// Output keys, in emission order.
const (
	KeyIdentifier = "IDENTIFIER"
	KeyStart      = "START"
	KeyEnd        = "END"
)

// Format selects how a cycle is rendered.
type Format string

const (
	FormatEnv  Format = "env"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ValidFormats returns all supported output formats.
func ValidFormats() []Format {
	return []Format{FormatEnv, FormatJSON, FormatYAML}
}

// IsValid checks if a format is supported.
func (f Format) IsValid() bool {
	for _, valid := range ValidFormats() {
		if f == valid {
			return true
		}
	}
	return false
}

// Provider returns the AIRAC cycle covering a calendar date.
type Provider interface {
	CycleAt(date time.Time) (airac.Cycle, error)
}

// ProviderFunc adapts a plain function to the Provider interface.
type ProviderFunc func(date time.Time) (airac.Cycle, error)

// CycleAt calls f(date).
func (f ProviderFunc) CycleAt(date time.Time) (airac.Cycle, error) {
	return f(date)
}

// Line is a single KEY=VALUE output line.
type Line struct {
	Key   string
	Value string
}

// String renders the line as KEY=VALUE.
func (l Line) String() string {
	return l.Key + "=" + l.Value
}

// Lines returns the output lines for a cycle in emission order.
// END is the cycle's effective end plus one day.
func Lines(c airac.Cycle) []Line {
	return []Line{
		{Key: KeyIdentifier, Value: c.Identifier},
		{Key: KeyStart, Value: airac.FormatDate(c.EffectiveStart)},
		{Key: KeyEnd, Value: airac.FormatDate(c.EffectiveEnd.AddDate(0, 0, 1))},
	}
}

// Emit resolves the cycle covering today with p and writes the three
// KEY=VALUE lines to w.
//
// Nothing is written when the lookup fails.
func Emit(w io.Writer, today time.Time, p Provider) error {
	return EmitFormat(w, today, p, FormatEnv)
}

// EmitFormat is Emit with a selectable output format.
func EmitFormat(w io.Writer, today time.Time, p Provider, format Format) error {
	cycle, err := p.CycleAt(today)
	if err != nil {
		return fmt.Errorf("resolve cycle for %s: %w", airac.FormatDate(today), err)
	}
	return Render(w, cycle, format)
}

// Render writes the cycle to w in the given format.
// Output is fully rendered before the single write to w.
func Render(w io.Writer, c airac.Cycle, format Format) error {
	var buf bytes.Buffer

	switch format {
	case FormatEnv, "":
		for _, line := range Lines(c) {
			buf.WriteString(line.String())
			buf.WriteByte('\n')
		}
	case FormatJSON:
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(document(c)); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
	case FormatYAML:
		if err := yaml.NewEncoder(&buf).Encode(document(c)); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
	default:
		return fmt.Errorf("unknown output format %q", format)
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// cycleDocument is the structured form used by the json and yaml formats.
type cycleDocument struct {
	Identifier string `json:"IDENTIFIER" yaml:"IDENTIFIER"`
	Start      string `json:"START" yaml:"START"`
	End        string `json:"END" yaml:"END"`
}

func document(c airac.Cycle) cycleDocument {
	lines := Lines(c)
	return cycleDocument{
		Identifier: lines[0].Value,
		Start:      lines[1].Value,
		End:        lines[2].Value,
	}
}

// Emitter bundles a provider with a clock and output format.
type Emitter struct {
	Provider Provider
	Format   Format

	// Now reads the current instant. Defaults to time.Now.
	Now func() time.Time
	// Location decides which calendar date "now" falls on. Defaults to UTC.
	Location *time.Location
}

// Today returns the current calendar date in the emitter's location.
func (e *Emitter) Today() time.Time {
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	loc := e.Location
	if loc == nil {
		loc = time.UTC
	}
	return now().In(loc)
}

// Run emits the cycle covering today to w.
func (e *Emitter) Run(w io.Writer) error {
	return EmitFormat(w, e.Today(), e.Provider, e.Format)
}

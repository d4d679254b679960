// Package detection implements the clash detection pipeline: broad-phase candidate
// generation over resolved scene proxies, tolerance-aware narrow-phase evaluation,
// time sampling for dynamic analysis, and aggregation of the resulting clash
// records into an exportable report.
package detection

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/spatialsuite/clashcore/report"
)

// Mode selects between a single static evaluation and a time-sampled dynamic run.
type Mode string

// The supported detection modes.
const (
	ModeStatic  Mode = "static"
	ModeDynamic Mode = "dynamic"
)

// Config describes one detection run. It is supplied by the caller and treated as
// immutable for the duration of the run.
type Config struct {
	// GroupA and GroupB are object or collection references. When GroupB is empty
	// the run tests GroupA against itself.
	GroupA string `yaml:"group_a" json:"groupA"`
	GroupB string `yaml:"group_b,omitempty" json:"groupB,omitempty"`

	// ClashTolerance shifts the zero point of the clash classification; distances at
	// or below it classify as a clash. Zero means true overlap.
	ClashTolerance float64 `yaml:"clash_tolerance" json:"clashTolerance"`

	// ClearanceTolerance is the near-miss distance; distances above the clash
	// tolerance but at or below it classify as a clearance. Must exceed
	// ClashTolerance for clearance records to be produced.
	ClearanceTolerance float64 `yaml:"clearance_tolerance" json:"clearanceTolerance"`

	Mode Mode `yaml:"mode" json:"mode"`

	// Time range and step, dynamic mode only.
	StartTime float64 `yaml:"start_time" json:"startTime"`
	EndTime   float64 `yaml:"end_time" json:"endTime"`
	TimeStep  float64 `yaml:"time_step" json:"timeStep"`

	// Strict makes a reference that resolves to zero proxies fatal.
	Strict bool `yaml:"strict" json:"strict"`

	// Epsilon is the comparison tolerance used at classification boundaries to
	// avoid flicker from floating-point noise. Zero selects a default scaled by
	// scene extent at evaluation time.
	Epsilon float64 `yaml:"epsilon,omitempty" json:"epsilon,omitempty"`

	// Name and Comment annotate the resulting report.
	Name    string `yaml:"name,omitempty" json:"name,omitempty"`
	Comment string `yaml:"comment,omitempty" json:"comment,omitempty"`
}

// InvalidRangeError is returned before sampling starts when the configured time
// range or step cannot be sampled.
type InvalidRangeError struct {
	StartTime float64
	EndTime   float64
	TimeStep  float64
	Reason    string
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid time range [%v, %v] step %v: %s", e.StartTime, e.EndTime, e.TimeStep, e.Reason)
}

// Validate checks the config for errors that must abort a run before it starts.
func (c *Config) Validate() error {
	if c.GroupA == "" {
		return errors.New("config must name at least one object group")
	}
	switch c.Mode {
	case ModeStatic:
	case ModeDynamic:
		if c.EndTime < c.StartTime {
			return &InvalidRangeError{c.StartTime, c.EndTime, c.TimeStep, "end time before start time"}
		}
		if c.TimeStep <= 0 {
			return &InvalidRangeError{c.StartTime, c.EndTime, c.TimeStep, "time step must be positive"}
		}
	case "":
		return errors.New("config mode must be set")
	default:
		return errors.Errorf("unknown mode %q", c.Mode)
	}
	if c.ClearanceTolerance < c.ClashTolerance {
		return errors.Errorf("clearance tolerance %v must be at least clash tolerance %v",
			c.ClearanceTolerance, c.ClashTolerance)
	}
	if c.Epsilon < 0 {
		return errors.New("epsilon must be nonnegative")
	}
	return nil
}

// sampleTimes returns the closed set of times the run will evaluate. Static mode is
// the degenerate case of exactly one sample at the start time.
func (c *Config) sampleTimes() []float64 {
	if c.Mode == ModeStatic {
		return []float64{c.StartTime}
	}
	var times []float64
	// A half-step fudge keeps the end time included despite accumulation error.
	for t := c.StartTime; t <= c.EndTime+c.TimeStep/2; t += c.TimeStep {
		times = append(times, t)
	}
	return times
}

// inflation returns the amount broad-phase bounds are expanded by, the larger of
// the two active tolerances, so clearance-range pairs are not culled.
func (c *Config) inflation() float64 {
	if c.ClashTolerance > c.ClearanceTolerance {
		return c.ClashTolerance
	}
	return c.ClearanceTolerance
}

// snapshot converts the config to its stable report form.
func (c *Config) snapshot() report.Config {
	return report.Config{
		GroupA:             c.GroupA,
		GroupB:             c.GroupB,
		ClashTolerance:     c.ClashTolerance,
		ClearanceTolerance: c.ClearanceTolerance,
		Mode:               string(c.Mode),
		StartTime:          c.StartTime,
		EndTime:            c.EndTime,
		TimeStep:           c.TimeStep,
		Strict:             c.Strict,
		Name:               c.Name,
		Comment:            c.Comment,
	}
}

package runner

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/durlin/internal/nvm"
	"github.com/roach88/durlin/internal/scenario"
	"github.com/roach88/durlin/internal/schema"
)

// Schedule fixes one interleaving of a scenario and the crashes injected
// into it. The zero Schedule runs lanes round-robin without crashes.
type Schedule struct {
	// Steps lists parallel lanes in the order they get to run one actor
	// (or resume a blocked one). Steps naming a finished or blocked lane are
	// skipped; once Steps is exhausted the remaining lanes run round-robin.
	Steps []int `yaml:"steps,omitempty" json:"steps,omitempty"`

	Crashes []CrashPoint `yaml:"crashes,omitempty" json:"crashes,omitempty"`
}

// CrashPoint places one crash.
type CrashPoint struct {
	Phase scenario.Phase `yaml:"phase" json:"phase"`

	// Step is the zero-based index of the lane step within Phase. A step
	// equal to the number of steps the phase takes crashes at its end.
	Step int `yaml:"step" json:"step"`

	// Probe 0 crashes before Step starts. Probe n crashes at the n-th
	// instrumentation point hit while Step runs, interrupting its actor.
	Probe int `yaml:"probe,omitempty" json:"probe,omitempty"`

	// Mode defaults to lose-all.
	Mode nvm.CrashMode `yaml:"mode,omitempty" json:"mode,omitempty"`
}

// LoadSchedule reads a YAML schedule file.
func LoadSchedule(path string) (Schedule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Schedule{}, fmt.Errorf("failed to read schedule file: %w", err)
	}
	s, err := ParseSchedule(data)
	if err != nil {
		return Schedule{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// ParseSchedule decodes a YAML schedule after checking it against the
// #Schedule schema.
func ParseSchedule(data []byte) (Schedule, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Schedule{}, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if raw == nil {
		return Schedule{}, nil
	}
	if err := schema.Validate(schema.KindSchedule, raw); err != nil {
		return Schedule{}, fmt.Errorf("schema: %w", err)
	}

	var s Schedule
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return Schedule{}, fmt.Errorf("failed to decode schedule: %w", err)
	}
	return s, nil
}

// validate checks the schedule against the scenario and the recovery
// policy the run must respect, and returns the crash points sorted by
// position.
func (s Schedule) validate(sc *scenario.Scenario, policy nvm.Policy) ([]CrashPoint, error) {
	for i, lane := range s.Steps {
		if lane < 0 || lane >= sc.Threads() {
			return nil, fmt.Errorf("schedule step %d: lane %d out of range (%d threads)", i, lane, sc.Threads())
		}
	}

	points := slices.Clone(s.Crashes)
	for i := range points {
		p := &points[i]
		if !p.Phase.Valid() {
			return nil, fmt.Errorf("crash point %d: unknown phase %q", i, p.Phase)
		}
		if p.Step < 0 || p.Probe < 0 {
			return nil, fmt.Errorf("crash point %d: step and probe must not be negative", i)
		}
		mode, err := nvm.ParseCrashMode(string(p.Mode))
		if err != nil {
			return nil, fmt.Errorf("crash point %d: %w", i, err)
		}
		if policy != "" && !policy.Allows(mode) {
			return nil, fmt.Errorf("crash point %d: mode %s is not allowed by the %s policy", i, mode, policy)
		}
		p.Mode = mode
	}

	slices.SortStableFunc(points, func(a, b CrashPoint) int {
		if a.Phase != b.Phase {
			return a.Phase.Order() - b.Phase.Order()
		}
		if a.Step != b.Step {
			return a.Step - b.Step
		}
		return a.Probe - b.Probe
	})
	for i := 1; i < len(points); i++ {
		a, b := points[i-1], points[i]
		if a.Phase == b.Phase && a.Step == b.Step && a.Probe > 0 && b.Probe > 0 {
			return nil, fmt.Errorf("crash points %s step %d: at most one probe crash per step", a.Phase, a.Step)
		}
		if a == b {
			return nil, fmt.Errorf("duplicate crash point %s step %d", a.Phase, a.Step)
		}
	}
	return points, nil
}

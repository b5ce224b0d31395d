// Package verifier decides whether a recorded concurrent execution is
// linearizable, or durably linearizable when crashes were injected.
//
// Verify searches for a sequential order of the scenario's actors that
// respects the scenario's happens-before order and, replayed against a
// sequential specification, reproduces every recorded outcome. Crash events
// are ordering nodes of their own, and at each one the search may forget
// interrupted work as the recovery policy allows.
package verifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/durlin/internal/execution"
	"github.com/roach88/durlin/internal/nvm"
	"github.com/roach88/durlin/internal/scenario"
	"github.com/roach88/durlin/internal/seqspec"
)

// Verdict is the terminal outcome of a verification.
type Verdict string

const (
	Pass Verdict = "pass"
	Fail Verdict = "fail"

	// Hung is reported for runs in which a suspended actor was never
	// resumed. It is a liveness failure and is never searched.
	Hung Verdict = "hung"
)

// ErrStateBudgetExceeded is returned when the search explores more nodes
// than WithMaxStates allows.
var ErrStateBudgetExceeded = errors.New("verifier: state budget exceeded")

// Stats counts search work.
type Stats struct {
	Explored int64 `json:"explored"`
	MemoHits int64 `json:"memo_hits"`
}

// Report is the result of Verify.
type Report struct {
	Verdict Verdict

	// Linearization is a witness order for a passing result.
	Linearization []Step

	// Counterexample explains a failing result.
	Counterexample *Counterexample

	// HungActors lists the actors without a result in a hung run.
	HungActors []scenario.ActorRef

	Stats Stats
}

type options struct {
	workers   int
	maxStates int64
	logger    *slog.Logger
}

// Option configures Verify.
type Option func(*options)

// WithWorkers sets the number of search workers. Values below 1 mean 1.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = max(n, 1) }
}

// WithMaxStates bounds the number of explored nodes. Zero means unbounded.
func WithMaxStates(n int64) Option {
	return func(o *options) { o.maxStates = n }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Verify checks res, a recorded run of sc, against the sequential
// specification built by factory under the given recovery policy.
//
// Pass and Fail are verdicts. Everything that makes the question itself
// ill-posed is an error instead: an invalid scenario, a result that does
// not match the scenario's shape, an operation the specification cannot
// apply, an exhausted state budget or a cancelled context.
func Verify(ctx context.Context, sc *scenario.Scenario, res *execution.Result, factory seqspec.Factory, policy nvm.Policy, opts ...Option) (*Report, error) {
	o := options{workers: 1, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	if err := sc.Validate(); err != nil {
		return nil, err
	}
	if !policy.Valid() {
		return nil, fmt.Errorf("verifier: invalid recovery policy %q", policy)
	}
	if err := res.CheckShape(sc); err != nil {
		return nil, err
	}

	if res.Hung {
		hung := res.HungActors()
		o.logger.Info("run hung, not verifying", "scenario", sc.Name, "hung_actors", len(hung))
		return &Report{Verdict: Hung, HungActors: hung}, nil
	}

	var (
		report *Report
		err    error
	)
	if sequential(sc, res) {
		report, err = replay(sc, res, factory)
		if err == nil && report.Counterexample != nil {
			report.Counterexample.Policy = policy
		}
	} else {
		report, err = newSearch(sc, res, policy, o).run(ctx, factory)
	}
	if err != nil {
		return nil, err
	}

	o.logger.Debug("verification finished",
		"scenario", sc.Name,
		"policy", policy,
		"verdict", report.Verdict,
		"explored", report.Stats.Explored,
		"memo_hits", report.Stats.MemoHits)
	return report, nil
}

// sequential reports whether the result admits exactly one order: no
// parallel actors and no crash events.
func sequential(sc *scenario.Scenario, res *execution.Result) bool {
	if len(res.Crashes) > 0 {
		return false
	}
	for _, thread := range sc.Parallel {
		if len(thread) > 0 {
			return false
		}
	}
	return true
}

// replay checks a sequential result by running it literally.
func replay(sc *scenario.Scenario, res *execution.Result, factory seqspec.Factory) (*Report, error) {
	spec := factory()
	report := &Report{Verdict: Pass}
	for _, phase := range scenario.Phases {
		actors := sc.Lanes(phase)
		outcomes := res.Lanes(phase)
		for t := range actors {
			for i, a := range actors[t] {
				ref := scenario.ActorRef{Phase: phase, Thread: t, Index: i}
				recorded := outcomes[t][i]
				got, err := spec.Apply(a.Name, a.Args)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", ref, err)
				}
				report.Stats.Explored++
				if !matches(recorded, got) {
					report.Verdict = Fail
					report.Counterexample = &Counterexample{
						Kind: FailureMismatch,
						Path: report.Linearization,
						Mismatch: &Mismatch{
							Ref: ref, Actor: a, Recorded: recorded, Expected: got,
						},
					}
					report.Linearization = nil
					return report, nil
				}
				report.Linearization = append(report.Linearization, Step{
					Kind: StepActor, Ref: ref, Actor: a, Recorded: recorded, Expected: got, Revert: -1,
				})
				if recorded.Kind == execution.KindNoResult {
					break
				}
			}
		}
	}
	return report, nil
}

// matches compares a recorded outcome with the specification's. A recorded
// suspension matches only a specification that suspends too.
func matches(recorded, expected execution.Outcome) bool {
	if recorded.Kind == execution.KindNoResult {
		return expected.Kind == execution.KindNoResult
	}
	return recorded.Equal(expected)
}

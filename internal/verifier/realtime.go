package verifier

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/anishathalye/porcupine"

	"github.com/roach88/durlin/internal/execution"
	"github.com/roach88/durlin/internal/ir"
	"github.com/roach88/durlin/internal/scenario"
	"github.com/roach88/durlin/internal/seqspec"
)

// ErrRealTimeUnknown is returned when the real-time check times out.
var ErrRealTimeUnknown = errors.New("verifier: real-time check inconclusive")

type rtInput struct {
	ref   scenario.ActorRef
	actor scenario.Actor
}

// CheckRealTime checks res against its recorded call/return timestamps
// instead of program order alone: an actor that returned before another was
// called must also be linearized first. Only crash-free, timed results can
// be checked this way.
func CheckRealTime(ctx context.Context, sc *scenario.Scenario, res *execution.Result, factory seqspec.Factory, timeout time.Duration) (Verdict, error) {
	if err := res.CheckShape(sc); err != nil {
		return "", err
	}
	if len(res.Crashes) > 0 {
		return "", fmt.Errorf("verifier: real-time check does not support crash events")
	}
	if res.Timing == nil {
		return "", fmt.Errorf("verifier: result has no timing")
	}
	if res.Hung {
		return Hung, nil
	}

	history, err := realTimeHistory(sc, res)
	if err != nil {
		return "", err
	}

	budget, err := realTimeBudget(ctx, timeout)
	if err != nil {
		return "", err
	}

	var (
		mu       sync.Mutex
		applyErr error
	)
	model := porcupine.Model{
		Init: func() interface{} { return factory() },
		Step: func(state, input, output interface{}) (bool, interface{}) {
			in := input.(rtInput)
			next := state.(seqspec.Spec).Clone()
			got, err := next.Apply(in.actor.Name, in.actor.Args)
			if err != nil {
				mu.Lock()
				if applyErr == nil {
					applyErr = fmt.Errorf("%s: %w", in.ref, err)
				}
				mu.Unlock()
				return false, state
			}
			return matches(output.(execution.Outcome), got), next
		},
		Equal: func(a, b interface{}) bool {
			return ir.Equal(a.(seqspec.Spec).Snapshot(), b.(seqspec.Spec).Snapshot())
		},
		DescribeOperation: func(input, output interface{}) string {
			return fmt.Sprintf("%s -> %s", input.(rtInput).actor, output.(execution.Outcome))
		},
	}

	// porcupine cannot be cancelled; on cancellation its goroutine runs out
	// the remaining budget in the background.
	done := make(chan porcupine.CheckResult, 1)
	go func() { done <- porcupine.CheckOperationsTimeout(model, history, budget) }()

	var result porcupine.CheckResult
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case result = <-done:
	}

	mu.Lock()
	defer mu.Unlock()
	if applyErr != nil {
		return "", applyErr
	}
	switch result {
	case porcupine.Ok:
		return Pass, nil
	case porcupine.Illegal:
		return Fail, nil
	default:
		return "", ErrRealTimeUnknown
	}
}

// realTimeBudget caps timeout by the context deadline. porcupine reads a
// zero timeout as unbounded, so a spent budget is reported as an error.
func realTimeBudget(ctx context.Context, timeout time.Duration) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout || timeout <= 0 {
			timeout = left
		}
	}
	if timeout <= 0 {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		return 0, context.DeadlineExceeded
	}
	return timeout, nil
}

func realTimeHistory(sc *scenario.Scenario, res *execution.Result) ([]porcupine.Operation, error) {
	timing := map[scenario.Phase][][]execution.Interval{
		scenario.PhaseInit:     {res.Timing.Init},
		scenario.PhaseParallel: res.Timing.Parallel,
		scenario.PhasePost:     {res.Timing.Post},
	}

	var history []porcupine.Operation
	client := 0
	for _, p := range scenario.Phases {
		actors := sc.Lanes(p)
		outcomes := res.Lanes(p)
		lanes := timing[p]
		if len(lanes) != len(actors) {
			return nil, fmt.Errorf("verifier: timing for phase %s has %d lanes, want %d", p, len(lanes), len(actors))
		}
		for t := range actors {
			if len(lanes[t]) != len(actors[t]) {
				return nil, fmt.Errorf("verifier: timing for phase %s lane %d has %d entries, want %d",
					p, t, len(lanes[t]), len(actors[t]))
			}
			for i, a := range actors[t] {
				iv := lanes[t][i]
				if iv.Return < iv.Call {
					return nil, fmt.Errorf("verifier: %s returns before it is called", scenario.ActorRef{Phase: p, Thread: t, Index: i})
				}
				history = append(history, porcupine.Operation{
					ClientId: client,
					Input:    rtInput{ref: scenario.ActorRef{Phase: p, Thread: t, Index: i}, actor: a},
					Call:     iv.Call,
					Output:   outcomes[t][i],
					Return:   iv.Return,
				})
			}
			client++
		}
	}
	return history, nil
}

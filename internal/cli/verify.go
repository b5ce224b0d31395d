package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/durlin/internal/execution"
	"github.com/roach88/durlin/internal/scenario"
	"github.com/roach88/durlin/internal/seqspec"
	"github.com/roach88/durlin/internal/store"
	"github.com/roach88/durlin/internal/verifier"
)

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
	verifyFlags

	RealTime        bool
	RealTimeTimeout time.Duration

	// IDGenerator allows overriding verification ids (for testing).
	// If nil, defaults to store.UUIDv7Generator.
	IDGenerator store.IDGenerator
}

// VerifyResult is the data payload of verify and run --verify.
type VerifyResult struct {
	Scenario       string   `json:"scenario"`
	Spec           string   `json:"spec"`
	Policy         string   `json:"policy"`
	Verdict        string   `json:"verdict"`
	FailureKind    string   `json:"failure_kind,omitempty"`
	OffendingCells []string `json:"offending_cells,omitempty"`
	Counterexample string   `json:"counterexample,omitempty"`
	Linearization  []string `json:"linearization,omitempty"`
	HungActors     []string `json:"hung_actors,omitempty"`
	Explored       int64    `json:"explored"`
	MemoHits       int64    `json:"memo_hits"`
	RealTime       string   `json:"realtime,omitempty"`
	ID             string   `json:"id,omitempty"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	return newVerifyCommand(&VerifyOptions{RootOptions: rootOpts})
}

func newVerifyCommand(opts *VerifyOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <scenario> <result>",
		Short: "Check a recorded result against a sequential specification",
		Long: `Search for a linearization of the recorded result that the sequential
specification accepts, honouring program order, crash cuts and the
recovery policy.

Exit codes:
  0 - pass
  1 - fail or hung
  2 - command error (unreadable files, result does not fit the scenario, etc.)

Examples:
  durlin verify stack.yaml result.yaml
  durlin verify stack.yaml result.yaml --policy last-write --workers 4
  durlin verify stack.yaml result.yaml --realtime --db runs.db`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(opts, args[0], args[1], cmd)
		},
	}

	opts.verifyFlags.bind(cmd)
	cmd.Flags().BoolVar(&opts.RealTime, "realtime", false, "also check real-time order from the result's timing")
	cmd.Flags().DurationVar(&opts.RealTimeTimeout, "realtime-timeout", 10*time.Second, "budget for the real-time check")

	return cmd
}

func runVerify(opts *VerifyOptions, scenarioPath, resultPath string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	sc, err := loadScenario(formatter, scenarioPath)
	if err != nil {
		return err
	}
	res, err := loadResult(formatter, resultPath)
	if err != nil {
		return err
	}

	settings, err := opts.verifyFlags.resolve(cmd, opts.Config(), sc.Spec)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeFlag, "invalid flags", err)
	}
	factory, err := specFactory(formatter, settings.spec)
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	out, err := verifyAndReport(ctx, opts.RootOptions, formatter, sc, res, factory, settings, opts.IDGenerator)
	if err != nil {
		return err
	}

	if opts.RealTime {
		rt, err := verifier.CheckRealTime(ctx, sc, res, factory, opts.RealTimeTimeout)
		switch {
		case errors.Is(err, verifier.ErrRealTimeUnknown):
			out.RealTime = "unknown"
		case err != nil:
			return formatter.fail(ExitCommandError, ErrCodeVerify, "real-time check failed", err)
		default:
			out.RealTime = string(rt)
		}
	}

	return outputVerdict(formatter, out)
}

// verifyAndReport runs the verifier and records the verdict when a run
// history is configured. Errors are already reported through f.
func verifyAndReport(
	ctx context.Context,
	opts *RootOptions,
	f *OutputFormatter,
	sc *scenario.Scenario,
	res *execution.Result,
	factory seqspec.Factory,
	s verifySettings,
	ids store.IDGenerator,
) (*VerifyResult, error) {
	logger := opts.Logger()

	report, err := verifier.Verify(ctx, sc, res, factory, s.policy,
		verifier.WithWorkers(s.workers),
		verifier.WithMaxStates(s.maxStates),
		verifier.WithLogger(logger),
	)
	if err != nil {
		return nil, f.fail(ExitCommandError, verifierErrorCode(err), "verification could not run", err)
	}

	out := &VerifyResult{
		Scenario: sc.Name,
		Spec:     s.spec,
		Policy:   string(s.policy),
		Verdict:  string(report.Verdict),
		Explored: report.Stats.Explored,
		MemoHits: report.Stats.MemoHits,
	}
	for _, step := range report.Linearization {
		out.Linearization = append(out.Linearization, step.String())
	}
	for _, ref := range report.HungActors {
		out.HungActors = append(out.HungActors, ref.String())
	}
	if ce := report.Counterexample; ce != nil {
		out.FailureKind = string(ce.Kind)
		out.OffendingCells = ce.Cells
		out.Counterexample = ce.String()
	}

	if s.database != "" {
		id, err := recordVerification(ctx, s.database, ids, sc, res, s.spec, s, report, logger)
		if err != nil {
			return nil, f.fail(ExitCommandError, ErrCodeStore, "failed to record verification", err)
		}
		out.ID = id
	}
	return out, nil
}

// outputVerdict prints the verdict and maps fail and hung to ExitFailure.
func outputVerdict(f *OutputFormatter, out *VerifyResult) error {
	if f.Format == "json" {
		if err := f.Success(out); err != nil {
			return err
		}
	} else {
		writeVerdictText(f, out)
	}

	if out.Verdict != string(verifier.Pass) {
		return NewExitError(ExitFailure, "verdict: "+out.Verdict)
	}
	return nil
}

func writeVerdictText(f *OutputFormatter, out *VerifyResult) {
	w := f.Writer
	stats := fmt.Sprintf("spec %s, policy %s; explored %d, memo hits %d",
		out.Spec, out.Policy, out.Explored, out.MemoHits)

	switch verifier.Verdict(out.Verdict) {
	case verifier.Pass:
		fmt.Fprintf(w, "✓ PASS %s (%s)\n", out.Scenario, stats)
		if f.Verbose && len(out.Linearization) > 0 {
			fmt.Fprintln(w, "linearization:")
			for _, step := range out.Linearization {
				fmt.Fprintf(w, "  %s\n", step)
			}
		}
	case verifier.Hung:
		fmt.Fprintf(w, "✗ HUNG %s: suspended actors never resumed: %s\n",
			out.Scenario, strings.Join(out.HungActors, ", "))
	default:
		fmt.Fprintf(w, "✗ FAIL %s (%s)\n", out.Scenario, stats)
		if out.Counterexample != "" {
			fmt.Fprintln(w, out.Counterexample)
		}
	}

	if out.RealTime != "" {
		fmt.Fprintf(w, "real-time check: %s\n", out.RealTime)
	}
	if out.ID != "" {
		fmt.Fprintf(w, "recorded as %s\n", out.ID)
	}
}

// commandContext returns the command's context, or Background when the
// command runs outside Execute (as in some tests).
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

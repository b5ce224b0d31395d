package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/durlin/internal/execution"
	"github.com/roach88/durlin/internal/runner"
	"github.com/roach88/durlin/internal/scenario"
	"github.com/roach88/durlin/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	verifyFlags

	Target       string
	SchedulePath string
	StallTimeout time.Duration
	Verify       bool
	Out          string

	// IDGenerator allows overriding verification ids (for testing).
	// If nil, defaults to store.UUIDv7Generator.
	IDGenerator store.IDGenerator
}

// RunOutput is the data payload of the run command.
type RunOutput struct {
	Scenario     string            `json:"scenario"`
	Target       string            `json:"target"`
	Out          string            `json:"out,omitempty"`
	Result       *execution.Result `json:"result"`
	Verification *VerifyResult     `json:"verification,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <scenario>",
		Short: "Run a scenario against a built-in target",
		Long: `Run a scenario against a built-in concurrent target and record the result.

The schedule file fixes the interleaving of parallel lanes and the crash
points; without one, lanes run round-robin and nothing crashes.

Built-in targets: durable-stack, volatile-stack, channel.

Examples:
  durlin run stack.yaml --target durable-stack --out result.yaml
  durlin run stack.yaml --target volatile-stack --schedule crash.yaml --verify
  durlin run recv.yaml --target channel --verify --db runs.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Target, "target", "", "built-in target (required)")
	cmd.Flags().StringVar(&opts.SchedulePath, "schedule", "", "schedule file (YAML)")
	cmd.Flags().DurationVar(&opts.StallTimeout, "stall-timeout", runner.DefaultStallTimeout, "time before a silent lane counts as blocked")
	cmd.Flags().BoolVar(&opts.Verify, "verify", false, "verify the result after the run")
	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "write the result YAML to this file")
	opts.verifyFlags.bind(cmd)
	_ = cmd.MarkFlagRequired("target")

	return cmd
}

func runScenario(opts *RunOptions, scenarioPath string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	cfg := opts.Config()
	logger := opts.Logger()

	sc, err := loadScenario(formatter, scenarioPath)
	if err != nil {
		return err
	}
	info, err := runner.LookupTarget(opts.Target)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeFlag, "invalid --target", err)
	}

	var sched runner.Schedule
	if opts.SchedulePath != "" {
		sched, err = runner.LoadSchedule(opts.SchedulePath)
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeRun, "invalid schedule", err)
		}
	}

	settings, err := opts.verifyFlags.resolve(cmd, cfg, sc.Spec, info.Spec)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeFlag, "invalid flags", err)
	}
	stall := cfg.StallTimeout()
	if cmd.Flags().Changed("stall-timeout") {
		stall = opts.StallTimeout
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("running scenario", "scenario", sc.Name, "target", info.Name, "schedule", opts.SchedulePath)
	res, err := runner.Run(ctx, sc, info.New, sched,
		runner.WithStallTimeout(stall),
		runner.WithLogger(logger),
		runner.WithPolicy(settings.policy),
	)
	if err != nil {
		code := ErrCodeRun
		if scenario.IsInvariantError(err) {
			code = ErrCodeInvalidScenario
		}
		return formatter.fail(ExitCommandError, code, "run failed", err)
	}

	out := &RunOutput{Scenario: sc.Name, Target: info.Name, Out: opts.Out, Result: res}
	if opts.Out != "" {
		if err := execution.Save(opts.Out, res); err != nil {
			return formatter.fail(ExitCommandError, ErrCodeWriteFailed, "failed to write result", err)
		}
		formatter.VerboseLog("Result written to %s", opts.Out)
	}

	if opts.Verify {
		factory, err := specFactory(formatter, settings.spec)
		if err != nil {
			return err
		}
		out.Verification, err = verifyAndReport(ctx, opts.RootOptions, formatter, sc, res, factory, settings, opts.IDGenerator)
		if err != nil {
			return err
		}
	}

	if formatter.Format == "json" {
		if err := formatter.Success(out); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(formatter.Writer, execution.Render(sc, res))
		if out.Verification != nil {
			writeVerdictText(formatter, out.Verification)
		}
	}

	if v := out.Verification; v != nil && v.Verdict != "pass" {
		return NewExitError(ExitFailure, "verdict: "+v.Verdict)
	}
	return nil
}

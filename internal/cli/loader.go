package cli

import (
	"errors"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/roach88/durlin/internal/config"
	"github.com/roach88/durlin/internal/execution"
	"github.com/roach88/durlin/internal/nvm"
	"github.com/roach88/durlin/internal/scenario"
	"github.com/roach88/durlin/internal/seqspec"
)

// loadScenario loads a scenario file, reporting failures through f.
func loadScenario(f *OutputFormatter, path string) (*scenario.Scenario, error) {
	sc, err := scenario.Load(path)
	if err == nil {
		return sc, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return nil, f.fail(ExitCommandError, ErrCodeNotFound, "scenario not found: "+path, nil)
	}
	return nil, f.fail(ExitCommandError, ErrCodeInvalidScenario, "invalid scenario", err)
}

// loadResult loads a result file, reporting failures through f.
func loadResult(f *OutputFormatter, path string) (*execution.Result, error) {
	res, err := execution.Load(path)
	if err == nil {
		return res, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return nil, f.fail(ExitCommandError, ErrCodeNotFound, "result not found: "+path, nil)
	}
	return nil, f.fail(ExitCommandError, ErrCodeInvalidResult, "invalid result", err)
}

// verifyFlags are the verifier flags shared by verify and run.
type verifyFlags struct {
	Spec      string
	Policy    string
	Workers   int
	MaxStates int64
	Database  string
}

func (v *verifyFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&v.Spec, "spec", "", "sequential specification (default: the scenario's spec)")
	cmd.Flags().StringVar(&v.Policy, "policy", "", "recovery policy: strict, last-write, durable or buffered (default from config)")
	cmd.Flags().IntVar(&v.Workers, "workers", 1, "parallel search workers")
	cmd.Flags().Int64Var(&v.MaxStates, "max-states", 0, "bound on explored search nodes (0 = unbounded)")
	cmd.Flags().StringVar(&v.Database, "db", "", "record the verdict in this SQLite run history")
}

// verifySettings is verifyFlags layered over the config file.
type verifySettings struct {
	spec      string
	policy    nvm.Policy
	workers   int
	maxStates int64
	database  string
}

// resolve applies flag > config precedence. Only flags the user set win.
// The specification name comes from --spec, then the first non-empty fallback, then the
// config file.
func (v *verifyFlags) resolve(cmd *cobra.Command, cfg *config.Config, fallbackSpecs ...string) (verifySettings, error) {
	s := verifySettings{
		policy:    cfg.Policy(),
		workers:   cfg.Verify.Workers,
		maxStates: cfg.Verify.MaxStates,
		database:  cfg.Store.Path,
	}
	flags := cmd.Flags()
	if flags.Changed("policy") {
		p, err := nvm.ParsePolicy(v.Policy)
		if err != nil {
			return s, err
		}
		s.policy = p
	}
	if flags.Changed("workers") {
		if v.Workers < 1 {
			return s, errors.New("--workers must be at least 1")
		}
		s.workers = v.Workers
	}
	if flags.Changed("max-states") {
		if v.MaxStates < 0 {
			return s, errors.New("--max-states must not be negative")
		}
		s.maxStates = v.MaxStates
	}
	if flags.Changed("db") {
		s.database = v.Database
	}

	s.spec = v.Spec
	for _, name := range fallbackSpecs {
		if s.spec != "" {
			break
		}
		s.spec = name
	}
	if s.spec == "" {
		s.spec = cfg.Verify.Spec
	}
	return s, nil
}

// specFactory looks up the specification, reporting failures through f.
func specFactory(f *OutputFormatter, name string) (seqspec.Factory, error) {
	if name == "" {
		return nil, f.fail(ExitCommandError, ErrCodeSpec,
			"no specification: pass --spec or set spec in the scenario", nil)
	}
	factory, err := seqspec.Builtin().Lookup(name)
	if err != nil {
		return nil, f.fail(ExitCommandError, ErrCodeSpec, "unknown specification", err)
	}
	return factory, nil
}

// verifierErrorCode classifies an error returned by verifier.Verify.
func verifierErrorCode(err error) string {
	var ae *seqspec.ApplyError
	switch {
	case scenario.IsInvariantError(err):
		return ErrCodeInvalidScenario
	case execution.IsShapeError(err):
		return ErrCodeInvalidResult
	case errors.As(err, &ae):
		return ErrCodeSpec
	default:
		return ErrCodeVerify
	}
}

package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/durlin/internal/scenario"
	"github.com/roach88/durlin/internal/store"
	"github.com/roach88/durlin/internal/verifier"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Scenario string
	Verdict  string
	Limit    int
}

// HistoryEntry is one listed verification.
type HistoryEntry struct {
	Seq         int64  `json:"seq"`
	ID          string `json:"id"`
	Scenario    string `json:"scenario"`
	Hash        string `json:"scenario_hash"`
	Spec        string `json:"spec"`
	Policy      string `json:"policy"`
	Verdict     string `json:"verdict"`
	FailureKind string `json:"failure_kind,omitempty"`
	Explored    int64  `json:"explored"`
}

// HistoryOutput is the data payload of the history command.
type HistoryOutput struct {
	Verifications []HistoryEntry `json:"verifications"`
	Counts        map[string]int `json:"counts"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded verifications",
		Long: `List verifications recorded with --db, oldest first.

--scenario accepts a scenario file or a scenario hash.

Examples:
  durlin history --db runs.db
  durlin history --db runs.db --verdict fail --limit 10
  durlin history --db runs.db --scenario stack.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite run history (default from config)")
	cmd.Flags().StringVar(&opts.Scenario, "scenario", "", "only this scenario (file or hash)")
	cmd.Flags().StringVar(&opts.Verdict, "verdict", "", "only this verdict (pass, fail or hung)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of rows (0 = all)")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	ctx := commandContext(cmd)

	path := opts.Database
	if path == "" {
		path = opts.Config().Store.Path
	}
	if path == "" {
		return formatter.fail(ExitCommandError, ErrCodeFlag, "no run history: pass --db or set store.path", nil)
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return formatter.fail(ExitCommandError, ErrCodeNotFound, "database not found: "+path, nil)
	}

	switch verifier.Verdict(opts.Verdict) {
	case "", verifier.Pass, verifier.Fail, verifier.Hung:
	default:
		return formatter.fail(ExitCommandError, ErrCodeFlag,
			fmt.Sprintf("invalid --verdict %q: must be pass, fail or hung", opts.Verdict), nil)
	}
	if opts.Limit < 0 {
		return formatter.fail(ExitCommandError, ErrCodeFlag, "--limit must not be negative", nil)
	}

	filter := store.Filter{Verdict: opts.Verdict, Limit: opts.Limit}
	if opts.Scenario != "" {
		hash, err := scenarioHash(opts.Scenario)
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeInvalidScenario, "invalid --scenario", err)
		}
		filter.ScenarioHash = hash
	}

	st, err := store.Open(path)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	defer st.Close()

	rows, err := st.ListVerifications(ctx, filter)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeStore, "failed to list verifications", err)
	}
	counts, err := st.CountByVerdict(ctx)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeStore, "failed to count verdicts", err)
	}

	out := HistoryOutput{Verifications: make([]HistoryEntry, 0, len(rows)), Counts: map[string]int{}}
	for _, v := range rows {
		out.Verifications = append(out.Verifications, HistoryEntry{
			Seq:         v.Seq,
			ID:          v.ID,
			Scenario:    v.ScenarioName,
			Hash:        v.ScenarioHash,
			Spec:        v.Spec,
			Policy:      v.Policy,
			Verdict:     v.Verdict,
			FailureKind: v.FailureKind,
			Explored:    v.Explored,
		})
	}
	var summary []string
	for _, c := range counts {
		out.Counts[c.Verdict] = c.Count
		summary = append(summary, fmt.Sprintf("%s=%d", c.Verdict, c.Count))
	}

	if formatter.Format == "json" {
		return formatter.Success(out)
	}

	if len(out.Verifications) == 0 {
		fmt.Fprintln(formatter.Writer, "No verifications recorded.")
		return nil
	}
	w := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "seq\tid\tscenario\tspec\tpolicy\tverdict\tfailure")
	for _, e := range out.Verifications {
		failure := e.FailureKind
		if failure == "" {
			failure = "-"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.Seq, e.ID, e.Scenario, e.Spec, e.Policy, e.Verdict, failure)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(formatter.Writer, "total: %s\n", strings.Join(summary, " "))
	return nil
}

// scenarioHash accepts a scenario file or a literal hash.
func scenarioHash(arg string) (string, error) {
	if _, err := os.Stat(arg); err != nil {
		return arg, nil
	}
	sc, err := scenario.Load(arg)
	if err != nil {
		return "", err
	}
	return sc.Hash()
}

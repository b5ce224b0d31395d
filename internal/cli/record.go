package cli

import (
	"context"
	"log/slog"

	"github.com/roach88/durlin/internal/execution"
	"github.com/roach88/durlin/internal/scenario"
	"github.com/roach88/durlin/internal/store"
	"github.com/roach88/durlin/internal/verifier"
)

// recordVerification appends a verdict to the run history at path and
// returns the new verification id.
func recordVerification(
	ctx context.Context,
	path string,
	ids store.IDGenerator,
	sc *scenario.Scenario,
	res *execution.Result,
	spec string,
	s verifySettings,
	report *verifier.Report,
	logger *slog.Logger,
) (string, error) {
	st, err := store.Open(path)
	if err != nil {
		return "", err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	seq, err := st.NextSeq(ctx)
	if err != nil {
		return "", err
	}
	if ids == nil {
		ids = store.UUIDv7Generator{}
	}

	v := store.Verification{
		ID:       ids.Generate(),
		Spec:     spec,
		Policy:   string(s.policy),
		Verdict:  string(report.Verdict),
		Explored: report.Stats.Explored,
		MemoHits: report.Stats.MemoHits,
		Seq:      seq,
		Crashes:  res.Crashes,
	}
	if ce := report.Counterexample; ce != nil {
		v.FailureKind = string(ce.Kind)
		v.Counterexample = ce.String()
	}

	if err := st.WriteVerification(ctx, sc, v); err != nil {
		return "", err
	}
	logger.Debug("verification recorded", "db", path, "id", v.ID, "seq", seq)
	return v.ID, nil
}

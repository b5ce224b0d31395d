package store

import (
	"context"
	"fmt"

	"github.com/roach88/durlin/internal/scenario"
)

// WriteVerification records a verdict and the scenario it was computed for
// in one transaction.
//
// The scenario row is keyed by content hash and written at most once. The
// verification uses ON CONFLICT(id) DO NOTHING: rewriting an existing id is
// a no-op and its crash events are left untouched. v.ScenarioHash is filled
// from sc; v.Seq must be positive (see NextSeq).
func (s *Store) WriteVerification(ctx context.Context, sc *scenario.Scenario, v Verification) error {
	if v.ID == "" {
		return fmt.Errorf("write verification: empty id")
	}
	if v.Seq <= 0 {
		return fmt.Errorf("write verification %s: seq must be positive, got %d", v.ID, v.Seq)
	}

	hash, err := sc.Hash()
	if err != nil {
		return fmt.Errorf("write verification: %w", err)
	}
	body, err := marshalScenario(sc)
	if err != nil {
		return fmt.Errorf("write verification: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write verification: begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO scenarios (hash, name, body, threads, seq)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(hash) DO NOTHING
	`, hash, sc.Name, body, sc.Threads(), v.Seq)
	if err != nil {
		return fmt.Errorf("write verification: insert scenario: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO verifications
		(id, scenario_hash, spec, policy, verdict, failure_kind, counterexample, explored, memo_hits, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		v.ID,
		hash,
		v.Spec,
		v.Policy,
		v.Verdict,
		v.FailureKind,
		v.Counterexample,
		v.Explored,
		v.MemoHits,
		v.Seq,
	)
	if err != nil {
		return fmt.Errorf("write verification: insert verification: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("write verification: rows affected: %w", err)
	}
	if rowsAffected == 0 {
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("write verification: commit (existing): %w", err)
		}
		return nil
	}

	for ordinal, c := range v.Crashes {
		cut, err := marshalCut(c.Cut)
		if err != nil {
			return fmt.Errorf("write verification: %w", err)
		}
		dirty, err := marshalCells(c.DirtyCells)
		if err != nil {
			return fmt.Errorf("write verification: %w", err)
		}
		lost, err := marshalCells(c.LostCells)
		if err != nil {
			return fmt.Errorf("write verification: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO crash_events
			(verification_id, ordinal, phase, cut, dirty_cells, lost_cells)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT DO NOTHING
		`, v.ID, ordinal, string(c.Phase), cut, dirty, lost)
		if err != nil {
			return fmt.Errorf("write verification: insert crash event %d: %w", ordinal, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write verification: commit: %w", err)
	}
	return nil
}

// NextSeq returns the seq the next verification should carry. It resumes
// the logical clock from the highest seq in the store.
func (s *Store) NextSeq(ctx context.Context) (int64, error) {
	var last int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM verifications
	`).Scan(&last)
	if err != nil {
		return 0, fmt.Errorf("next seq: %w", err)
	}
	return last + 1, nil
}

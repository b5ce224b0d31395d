package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/roach88/durlin/internal/execution"
	"github.com/roach88/durlin/internal/scenario"
)

const verificationColumns = `
	v.id, v.scenario_hash, s.name, v.spec, v.policy, v.verdict,
	v.failure_kind, v.counterexample, v.explored, v.memo_hits, v.seq`

// ReadVerification retrieves a single verification with its crash events.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadVerification(ctx context.Context, id string) (Verification, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT`+verificationColumns+`
		FROM verifications v
		JOIN scenarios s ON s.hash = v.scenario_hash
		WHERE v.id = ?
	`, id)

	v, err := scanVerification(row)
	if err != nil {
		return Verification{}, err
	}

	crashes, err := s.readCrashEvents(ctx, id)
	if err != nil {
		return Verification{}, err
	}
	v.Crashes = crashes
	return v, nil
}

// ListVerifications returns the verifications matching f, ordered by
// seq ASC, id COLLATE BINARY ASC. Crash events are not loaded.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) ListVerifications(ctx context.Context, f Filter) ([]Verification, error) {
	var (
		where []string
		args  []any
	)
	if f.ScenarioHash != "" {
		where = append(where, "v.scenario_hash = ?")
		args = append(args, f.ScenarioHash)
	}
	if f.Verdict != "" {
		where = append(where, "v.verdict = ?")
		args = append(args, f.Verdict)
	}

	query := `SELECT` + verificationColumns + `
		FROM verifications v
		JOIN scenarios s ON s.hash = v.scenario_hash`
	if len(where) > 0 {
		query += "\n\t\tWHERE " + strings.Join(where, " AND ")
	}
	query += "\n\t\tORDER BY v.seq ASC, v.id COLLATE BINARY ASC"
	if f.Limit > 0 {
		query += "\n\t\tLIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query verifications: %w", err)
	}
	defer rows.Close()

	var out []Verification
	for rows.Next() {
		v, err := scanVerification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verifications: %w", err)
	}

	// Return empty slice instead of nil
	if out == nil {
		out = []Verification{}
	}
	return out, nil
}

// CountByVerdict returns how many verifications ended in each verdict,
// ordered by verdict name.
func (s *Store) CountByVerdict(ctx context.Context) ([]VerdictCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT verdict, COUNT(*)
		FROM verifications
		GROUP BY verdict
		ORDER BY verdict COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("count verdicts: %w", err)
	}
	defer rows.Close()

	counts := []VerdictCount{}
	for rows.Next() {
		var c VerdictCount
		if err := rows.Scan(&c.Verdict, &c.Count); err != nil {
			return nil, fmt.Errorf("scan verdict count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verdict counts: %w", err)
	}
	return counts, nil
}

func (s *Store) readCrashEvents(ctx context.Context, verificationID string) ([]execution.CrashEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT phase, cut, dirty_cells, lost_cells
		FROM crash_events
		WHERE verification_id = ?
		ORDER BY ordinal ASC
	`, verificationID)
	if err != nil {
		return nil, fmt.Errorf("query crash events: %w", err)
	}
	defer rows.Close()

	var events []execution.CrashEvent
	for rows.Next() {
		var phase, cutJSON, dirtyJSON, lostJSON string
		if err := rows.Scan(&phase, &cutJSON, &dirtyJSON, &lostJSON); err != nil {
			return nil, fmt.Errorf("scan crash event: %w", err)
		}
		ev := execution.CrashEvent{Phase: scenario.Phase(phase)}
		if ev.Cut, err = unmarshalCut(cutJSON); err != nil {
			return nil, err
		}
		if ev.DirtyCells, err = unmarshalCells(dirtyJSON); err != nil {
			return nil, err
		}
		if ev.LostCells, err = unmarshalCells(lostJSON); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate crash events: %w", err)
	}
	return events, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanVerification(row rowScanner) (Verification, error) {
	var v Verification
	err := row.Scan(
		&v.ID, &v.ScenarioHash, &v.ScenarioName, &v.Spec, &v.Policy, &v.Verdict,
		&v.FailureKind, &v.Counterexample, &v.Explored, &v.MemoHits, &v.Seq,
	)
	if err == sql.ErrNoRows {
		return Verification{}, err
	}
	if err != nil {
		return Verification{}, fmt.Errorf("scan verification: %w", err)
	}
	return v, nil
}

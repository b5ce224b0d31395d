package store

import "github.com/roach88/durlin/internal/execution"

// Verification is one stored verdict.
type Verification struct {
	ID           string
	ScenarioHash string
	ScenarioName string
	Spec         string
	Policy       string
	Verdict      string

	// FailureKind and Counterexample are empty unless Verdict is "fail".
	FailureKind    string
	Counterexample string

	Explored int64
	MemoHits int64
	Seq      int64

	Crashes []execution.CrashEvent
}

// Filter narrows ListVerifications. Zero fields match everything.
type Filter struct {
	ScenarioHash string
	Verdict      string

	// Limit caps the number of rows. Zero means no limit.
	Limit int
}

// VerdictCount is one row of CountByVerdict.
type VerdictCount struct {
	Verdict string
	Count   int
}

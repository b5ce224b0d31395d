package nvm

import (
	"fmt"
	"strings"
)

// Policy names the recovery guarantee an object claims. The verifier uses
// it to decide which forgettings of interrupted work are legal.
type Policy string

const (
	// PolicyStrict: nothing in flight at a crash is lost.
	PolicyStrict Policy = "strict"

	// PolicyLastWrite: at most one interrupted actor per crash is lost.
	PolicyLastWrite Policy = "last-write"

	// PolicyDurable: any subset of the interrupted actors is lost.
	PolicyDurable Policy = "durable"

	// PolicyBuffered: like PolicyDurable, and the state may also fall back
	// to any point reached since the previous crash.
	PolicyBuffered Policy = "buffered"
)

// Policies lists every policy, weakest guarantee last.
var Policies = []Policy{PolicyStrict, PolicyLastWrite, PolicyDurable, PolicyBuffered}

// ParsePolicy resolves a policy name.
func ParsePolicy(s string) (Policy, error) {
	p := Policy(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("unknown recovery policy %q (want one of %s)", s, joinPolicies())
	}
	return p, nil
}

func (p Policy) Valid() bool {
	switch p {
	case PolicyStrict, PolicyLastWrite, PolicyDurable, PolicyBuffered:
		return true
	}
	return false
}

// MaxLost returns how many interrupted actors a single crash may lose.
// A negative value means any number.
func (p Policy) MaxLost() int {
	switch p {
	case PolicyStrict:
		return 0
	case PolicyLastWrite:
		return 1
	default:
		return -1
	}
}

// Buffered reports whether completed work since the previous crash may be
// rolled back as well.
func (p Policy) Buffered() bool {
	return p == PolicyBuffered
}

// Allows reports whether a runtime crash mode is legal under the policy.
func (p Policy) Allows(m CrashMode) bool {
	switch m {
	case ModeKeepAll:
		return p.Valid()
	case ModeLoseLast:
		return p != PolicyStrict && p.Valid()
	case ModeLoseAll:
		return p == PolicyDurable || p == PolicyBuffered
	}
	return false
}

func joinPolicies() string {
	names := make([]string, len(Policies))
	for i, p := range Policies {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}

// CrashMode decides what happens to dirty cells when a region crashes.
type CrashMode string

const (
	// ModeKeepAll persists every dirty cell's pending value.
	ModeKeepAll CrashMode = "keep-all"

	// ModeLoseLast reverts only the most recently written dirty cell.
	ModeLoseLast CrashMode = "lose-last"

	// ModeLoseAll reverts every dirty cell to its persisted value.
	ModeLoseAll CrashMode = "lose-all"
)

// ParseCrashMode resolves a crash mode name. The empty string means
// ModeLoseAll, the harshest mode.
func ParseCrashMode(s string) (CrashMode, error) {
	switch m := CrashMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeLoseAll, nil
	case ModeKeepAll, ModeLoseLast, ModeLoseAll:
		return m, nil
	default:
		return "", fmt.Errorf("unknown crash mode %q (want keep-all, lose-last or lose-all)", s)
	}
}

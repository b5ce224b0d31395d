// Package ir provides the canonical value representation shared by durlin.
//
// Actor arguments, recorded results and sequential-specification state
// snapshots are all IRValues. ir imports nothing internal, so every other
// package can depend on it without cycles.
//
// Key design constraints:
//   - NO float types anywhere - use int64 for numbers
//   - null is a first-class value (IRNull); it is how "empty" results are spelled
//   - Canonical JSON (RFC 8785) is the only encoding used for hashing
//   - All JSON tags use snake_case
package ir

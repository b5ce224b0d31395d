// Package store provides SQLite-backed history of verification runs.
//
// The store is append-only with three tables:
//   - scenarios: scenario bodies keyed by content hash
//   - verifications: one row per verdict, with stats and the rendered counterexample
//   - crash_events: the crash events of the verified result, in firing order
//
// # Ordering
//
// All ordering uses the seq column (logical clock), never timestamps.
// Listings are ORDER BY seq ASC, id COLLATE BINARY ASC so two stores fed
// the same writes list them identically.
//
// # Idempotency
//
// Writes use ON CONFLICT DO NOTHING. Writing the same verification twice
// leaves one row; a scenario shared by many verifications is stored once.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store

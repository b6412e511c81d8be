// Package repositories implements SQLite persistence for run history.
//
// Key Implementations:
//   - [RunRepository] : one record per update run plus the terminal state of each row
//   - [Recorder] : a pipeline observer that writes row results as they land
//
// Sequence numbers provide stable, human-readable ordering (e.g. run #15) independent of UUIDs.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories

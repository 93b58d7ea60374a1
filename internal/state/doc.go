// Package state is the persistent record of what astro has installed.
//
// The store is advisory. Components still probe the real system through their
// IsInstalled and Verify actions; records exist to avoid redundant expensive
// probes and to keep install history.
//
// Key components:
//   - Store: a minimal key/value contract (Get, Set, Delete, Keys)
//   - SQLiteStore: the on-disk implementation with per-key upserts
//   - MemoryStore: an in-process implementation for tests
//   - Records: typed per-component records on top of any Store
//   - History: an append-only event log used by `astro status --history`
package state

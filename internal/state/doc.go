// Package state implements the versioned shared-state store.
//
// Each extension owns one Store: a table of state snapshots keyed by a
// monotonically increasing event version. Independent, asynchronously
// initializing extensions publish snapshots here and resolve each other's
// state by version, with explicit support for provisional ("pending")
// entries that are resolved later.
//
// PROTOCOL:
//
// A version slot moves through exactly one of two legal paths:
//
//	absent → pending → resolved   (Create with pending=true, then Update)
//	absent → resolved             (Create with pending=false)
//
// Illegal transitions are rejected with a false return, never an error or
// panic - every rejection is a recoverable no-op and the caller decides
// how to react.
//
// Reads use nearest-predecessor lookup: the entry at the greatest stored
// version ≤ the requested version. Get treats a pending nearest entry as
// "no state"; Resolve with ResolutionLastSet instead walks back to the most
// recent resolved entry.
//
// CONCURRENCY:
//
// All four operations (create, update, get, clear) are serialized on one
// mutex per Store. Reads observe a consistent snapshot, never a partially
// applied write. Data maps are deep-copied at the boundary in both
// directions, so callers can never mutate table internals.
package state

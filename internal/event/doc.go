// Package event provides the event value type and data-map helpers for statekit.
//
// This package contains type definitions and pure helpers only. All other
// internal packages import event; event imports nothing internal. This
// ensures the event model remains the foundational layer with no circular
// dependencies.
//
// Key design constraints:
//   - Event.Number is a logical version assigned by the hub's clock,
//     never a wall-clock timestamp (ordering must be deterministic)
//   - Event data is map[string]any; use CloneData at ownership boundaries
//     so no two components ever share a mutable map
//   - Event IDs are UUIDv7 (time-sortable, helpful for debugging)
package event

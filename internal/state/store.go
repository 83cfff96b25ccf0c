package state

import (
	"sync"

	"github.com/roach88/statekit/internal/event"
)

// VersionedState is one snapshot in the table.
//
// Data may be nil even when Pending is false - the store makes no inference
// between emptiness of data and pending status; they are orthogonal.
type VersionedState struct {
	// Version is the logical event version this snapshot is keyed by.
	Version int64

	// Data is the snapshot payload. nil means "no data".
	Data map[string]any

	// Pending marks a reservation for a version whose real data arrives
	// later via Update.
	Pending bool
}

// Store is a per-extension table of versioned state snapshots.
//
// Entries are kept in a slice ordered by strictly increasing version -
// Create only ever appends, so insertion order and version order always
// agree. The zero value is ready to use.
type Store struct {
	mu      sync.Mutex
	entries []VersionedState
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Create inserts a new snapshot at version.
//
// Fails (returns false, no mutation) when an entry already exists at a
// version ≥ the requested version: the table never stores two entries
// whose version ordering contradicts arrival order. Equal versions are
// rejected too - versions are unique.
//
// data is deep-copied; the caller keeps ownership of its map.
func (s *Store) Create(data map[string]any, version int64, pending bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Entries are append-only in ascending version order, so the last
	// entry carries the greatest stored version.
	if n := len(s.entries); n > 0 && s.entries[n-1].Version >= version {
		return false
	}

	s.entries = append(s.entries, VersionedState{
		Version: version,
		Data:    event.CloneData(data),
		Pending: pending,
	})
	return true
}

// Update resolves the pending entry at exactly version.
//
// Fails (returns false) when no entry exists at version, the entry is not
// pending, or pending is true - a pending entry cannot be replaced by
// another pending entry; resolution must supply real status.
//
// On success the entry's data and pending flag are overwritten in place,
// preserving its version and table position. Each pending entry resolves
// exactly once.
func (s *Store) Update(data map[string]any, version int64, pending bool) bool {
	if pending {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.indexOf(version)
	if !ok || !s.entries[i].Pending {
		return false
	}

	s.entries[i].Data = event.CloneData(data)
	s.entries[i].Pending = false
	return true
}

// Get returns the data at the greatest stored version ≤ version.
//
// Returns (nil, false) when no such entry exists or the nearest entry is
// pending - pending entries are invisible to readers regardless of how
// they were reached. Otherwise returns (data, true); data may itself be
// nil, which is "resolved with no data", distinct from "no state".
//
// The returned map is a deep copy; callers may mutate it freely.
func (s *Store) Get(version int64) (map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.floorOf(version)
	if !ok || s.entries[i].Pending {
		return nil, false
	}
	return event.CloneData(s.entries[i].Data), true
}

// Resolve performs a status-carrying read at version.
//
// ResolutionAny reports the nearest entry ≤ version with its own status:
// a pending entry yields StatusPending with no data. ResolutionLastSet
// walks back past pending entries to the most recent resolved entry.
// When no entry qualifies the result is StatusNone.
func (s *Store) Resolve(version int64, resolution Resolution) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.floorOf(version)
	if !ok {
		return Result{Status: StatusNone}
	}

	switch resolution {
	case ResolutionLastSet:
		for ; i >= 0; i-- {
			if !s.entries[i].Pending {
				return Result{Status: StatusSet, Data: event.CloneData(s.entries[i].Data)}
			}
		}
		return Result{Status: StatusNone}

	default: // ResolutionAny
		if s.entries[i].Pending {
			return Result{Status: StatusPending}
		}
		return Result{Status: StatusSet, Data: event.CloneData(s.entries[i].Data)}
	}
}

// Clear atomically empties the table. Subsequent lookups behave as if the
// store were newly constructed.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
}

// Len returns the number of stored snapshots. Useful for diagnostics.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// indexOf locates the entry at exactly version.
// Caller must hold s.mu.
func (s *Store) indexOf(version int64) (int, bool) {
	i, ok := s.floorOf(version)
	if !ok || s.entries[i].Version != version {
		return 0, false
	}
	return i, true
}

// floorOf locates the entry at the greatest stored version ≤ version via
// binary search over the ascending entries slice.
// Caller must hold s.mu.
func (s *Store) floorOf(version int64) (int, bool) {
	lo, hi := 0, len(s.entries)
	for lo < hi {
		mid := (lo + hi) / 2
		if s.entries[mid].Version <= version {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo == 0 {
		return 0, false
	}
	return lo - 1, true
}

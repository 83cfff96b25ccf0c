package state

// Status reports the disposition of a shared-state read.
type Status int

const (
	// StatusNone means no entry qualifies at the requested version.
	StatusNone Status = iota

	// StatusPending means the nearest entry is a reservation whose data
	// has not been resolved yet.
	StatusPending

	// StatusSet means a resolved entry was found. Its data may still be
	// nil ("resolved with no data").
	StatusSet
)

// String implements fmt.Stringer for log output.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSet:
		return "set"
	default:
		return "none"
	}
}

// Resolution selects how a read treats pending entries.
type Resolution int

const (
	// ResolutionAny reports the nearest entry with its own status; a
	// pending nearest entry is surfaced as StatusPending.
	ResolutionAny Resolution = iota

	// ResolutionLastSet skips pending entries and returns the most recent
	// resolved entry at or below the requested version.
	ResolutionLastSet
)

// Result is the outcome of Store.Resolve.
type Result struct {
	Status Status
	Data   map[string]any
}

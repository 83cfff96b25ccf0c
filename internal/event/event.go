package event

import (
	"time"

	"github.com/google/uuid"
)

// Standard event types and sources. Extensions match on the (Type, Source)
// pair when deciding whether an event is addressed to them.
const (
	TypeGenericLifecycle = "statekit.eventType.genericLifecycle"
	TypeLifecycle        = "statekit.eventType.lifecycle"
	TypeConfiguration    = "statekit.eventType.configuration"
	TypeSharedState      = "statekit.eventType.sharedState"

	SourceRequestContent  = "statekit.eventSource.requestContent"
	SourceResponseContent = "statekit.eventSource.responseContent"
)

// Event is an immutable-by-convention record flowing through the SDK.
//
// Number is the logical version assigned by the sequencing hub; zero means
// the event has not been stamped yet. Shared state published in response to
// an event is keyed by that event's Number.
type Event struct {
	// ID uniquely identifies the event (UUIDv7, time-sortable).
	ID string

	// Name is a human-readable label ("Lifecycle Start", "Configure").
	Name string

	// Type and Source classify the event for extension matching.
	Type   string
	Source string

	// Data carries the event payload. May be nil.
	Data map[string]any

	// Number is the logical version from the hub clock (0 = unstamped).
	Number int64

	// Timestamp records wall-clock creation time. Informational only -
	// never used for ordering.
	Timestamp time.Time
}

// New creates an event with a fresh UUIDv7 identifier.
//
// The event is unstamped; the hub assigns Number before the event is used
// as a shared-state version.
//
// Panics if UUID generation fails (should never happen in practice).
func New(name, typ, source string, data map[string]any) Event {
	return Event{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Name:      name,
		Type:      typ,
		Source:    source,
		Data:      data,
		Timestamp: time.Now(),
	}
}

// Clone returns a copy of the event with a deep-copied data map.
// The ID, Number, and Timestamp are preserved.
func (e Event) Clone() Event {
	out := e
	out.Data = CloneData(e.Data)
	return out
}

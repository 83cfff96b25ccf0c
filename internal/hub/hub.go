package hub

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/statekit/internal/event"
	"github.com/roach88/statekit/internal/state"
)

// Well-known extension names.
const (
	ConfigurationName = "statekit.configuration"
	LifecycleName     = "statekit.lifecycle"
)

// Hub sequences events and brokers shared state between extensions.
//
// Thread-safety model:
//   - Stamp(): safe from any goroutine (atomic clock)
//   - RegisterExtension()/UnregisterExtension(): safe from any goroutine
//   - ExtensionContext methods: safe from any goroutine; the underlying
//     store serializes per-extension operations
type Hub struct {
	clock    *Clock
	registry *state.Registry

	mu         sync.Mutex
	extensions map[string]*ExtensionContext
}

// New creates a hub with a fresh clock and an empty shared-state registry.
func New() *Hub {
	return NewWithClock(NewClock())
}

// NewWithClock creates a hub resuming from a pre-configured clock.
func NewWithClock(clock *Clock) *Hub {
	return &Hub{
		clock:      clock,
		registry:   state.NewRegistry(),
		extensions: make(map[string]*ExtensionContext),
	}
}

// RegisterExtension adds an extension under a unique name and returns its
// capability surface. Duplicate names are rejected.
func (h *Hub) RegisterExtension(name string) (*ExtensionContext, error) {
	if name == "" {
		return nil, &RegistrationError{Name: name, Reason: "extension name is required"}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.extensions[name]; exists {
		return nil, &RegistrationError{Name: name, Reason: "extension already registered"}
	}

	ec := &ExtensionContext{hub: h, name: name}
	h.extensions[name] = ec

	slog.Info("extension registered", "extension", name)
	return ec, nil
}

// UnregisterExtension removes an extension and clears its shared state.
// Unknown names are a no-op.
func (h *Hub) UnregisterExtension(name string) {
	h.mu.Lock()
	_, existed := h.extensions[name]
	delete(h.extensions, name)
	h.mu.Unlock()

	if existed {
		h.registry.ClearSharedState(name)
		slog.Info("extension unregistered", "extension", name)
	}
}

// Stamp assigns the event the next version number. Already-stamped events
// are left untouched so a version is never assigned twice.
func (h *Hub) Stamp(ev *event.Event) {
	if ev.Number != 0 {
		return
	}
	ev.Number = h.clock.Next()
}

// Clock returns the hub's logical clock.
func (h *Hub) Clock() *Clock {
	return h.clock
}

// Registry exposes the shared-state registry for read-side collaborators
// (the conformance harness and diagnostics). Extensions should publish
// through their ExtensionContext instead.
func (h *Hub) Registry() *state.Registry {
	return h.registry
}

// ExtensionContext is the per-extension capability surface.
//
// Writes are scoped to the owning extension's table; reads may target any
// extension by name (the read-only contract exposed to other extensions).
type ExtensionContext struct {
	hub  *Hub
	name string
}

// Name returns the owning extension's name.
func (ec *ExtensionContext) Name() string {
	return ec.name
}

// CreateSharedState publishes resolved state at the event's version.
func (ec *ExtensionContext) CreateSharedState(data map[string]any, ev event.Event) bool {
	return ec.hub.registry.CreateSharedState(ec.name, data, ev.Number, false)
}

// CreatePendingSharedState reserves the event's version and returns a
// resolver for supplying the data once it is known.
func (ec *ExtensionContext) CreatePendingSharedState(ev event.Event) (state.Resolver, bool) {
	return ec.hub.registry.CreatePendingSharedState(ec.name, ev.Number)
}

// GetSharedState resolves another extension's state as of the event's
// version.
func (ec *ExtensionContext) GetSharedState(extension string, ev event.Event, resolution state.Resolution) state.Result {
	return ec.hub.registry.ResolveSharedState(extension, ev.Number, resolution)
}

// ClearSharedState empties the owning extension's table (reset/teardown).
func (ec *ExtensionContext) ClearSharedState() bool {
	return ec.hub.registry.ClearSharedState(ec.name)
}

// RegistrationError reports why an extension could not be registered.
type RegistrationError struct {
	Name   string
	Reason string
}

// Error implements the error interface.
func (e *RegistrationError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("extension registration failed: %s", e.Reason)
	}
	return fmt.Sprintf("extension registration failed for %q: %s", e.Name, e.Reason)
}

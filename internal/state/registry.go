package state

import (
	"log/slog"

	cmap "github.com/orcaman/concurrent-map/v2"
)

// Resolver resolves a previously created pending entry. It returns the
// Update result: true exactly once, false on every subsequent call and on
// a resolution attempt against a cleared store.
type Resolver func(data map[string]any) bool

// Registry holds one Store per extension.
//
// Stores are created lazily on first write. The registry itself is safe
// for concurrent use; each store serializes its own operations.
type Registry struct {
	stores cmap.ConcurrentMap[string, *Store]
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{stores: cmap.New[*Store]()}
}

// store returns the extension's table, creating it on first use.
func (r *Registry) store(extension string) *Store {
	if s, ok := r.stores.Get(extension); ok {
		return s
	}
	// Upsert keeps the race benign: two concurrent first writers agree on
	// one winning store.
	won := r.stores.Upsert(extension, NewStore(), func(exist bool, valueInMap, newValue *Store) *Store {
		if exist {
			return valueInMap
		}
		return newValue
	})
	return won
}

// CreateSharedState inserts a snapshot for the extension at version.
func (r *Registry) CreateSharedState(extension string, data map[string]any, version int64, pending bool) bool {
	ok := r.store(extension).Create(data, version, pending)
	if !ok {
		slog.Debug("shared state create rejected",
			"extension", extension,
			"version", version,
			"pending", pending,
		)
	}
	return ok
}

// CreatePendingSharedState reserves version for the extension and returns
// a resolver that supplies the real data later.
//
// Returns (nil, false) when the reservation itself is rejected (version
// ordering violation).
func (r *Registry) CreatePendingSharedState(extension string, version int64) (Resolver, bool) {
	s := r.store(extension)
	if !s.Create(nil, version, true) {
		slog.Debug("pending shared state rejected",
			"extension", extension,
			"version", version,
		)
		return nil, false
	}

	return func(data map[string]any) bool {
		ok := s.Update(data, version, false)
		if !ok {
			slog.Debug("pending shared state already resolved or cleared",
				"extension", extension,
				"version", version,
			)
		}
		return ok
	}, true
}

// UpdateSharedState resolves the extension's pending entry at version.
func (r *Registry) UpdateSharedState(extension string, data map[string]any, version int64, pending bool) bool {
	s, ok := r.stores.Get(extension)
	if !ok {
		return false
	}
	return s.Update(data, version, pending)
}

// GetSharedState reads the extension's state at version with Get semantics
// (nearest entry; pending is invisible).
func (r *Registry) GetSharedState(extension string, version int64) (map[string]any, bool) {
	s, ok := r.stores.Get(extension)
	if !ok {
		return nil, false
	}
	return s.Get(version)
}

// ResolveSharedState reads the extension's state at version with an
// explicit resolution mode and status-carrying result.
func (r *Registry) ResolveSharedState(extension string, version int64, resolution Resolution) Result {
	s, ok := r.stores.Get(extension)
	if !ok {
		return Result{Status: StatusNone}
	}
	return s.Resolve(version, resolution)
}

// IsReady reports whether the extension has resolved state visible at
// version. Extensions use this to gate event handling on a collaborator
// having published (e.g. lifecycle waits for configuration).
func (r *Registry) IsReady(extension string, version int64) bool {
	return r.ResolveSharedState(extension, version, ResolutionAny).Status == StatusSet
}

// ClearSharedState empties the extension's table. Returns false when the
// extension never published.
func (r *Registry) ClearSharedState(extension string) bool {
	s, ok := r.stores.Get(extension)
	if !ok {
		return false
	}
	s.Clear()
	slog.Debug("shared state cleared", "extension", extension)
	return true
}

// Extensions returns the names of extensions with a table, in map order.
func (r *Registry) Extensions() []string {
	return r.stores.Keys()
}

package state

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_CreateAndGet(t *testing.T) {
	r := NewRegistry()

	require.True(t, r.CreateSharedState("statekit.configuration", map[string]any{"timeout": 200}, 1, false))

	data, ok := r.GetSharedState("statekit.configuration", 5)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"timeout": 200}, data)
}

func TestRegistry_UnknownExtension(t *testing.T) {
	r := NewRegistry()

	_, ok := r.GetSharedState("nobody", 1)
	assert.False(t, ok)
	assert.Equal(t, StatusNone, r.ResolveSharedState("nobody", 1, ResolutionAny).Status)
	assert.False(t, r.UpdateSharedState("nobody", nil, 1, false))
	assert.False(t, r.ClearSharedState("nobody"))
}

func TestRegistry_IndependentStoresPerExtension(t *testing.T) {
	r := NewRegistry()

	require.True(t, r.CreateSharedState("a", map[string]any{"who": "a"}, 3, false))
	require.True(t, r.CreateSharedState("b", map[string]any{"who": "b"}, 1, false),
		"version ordering is per extension, not global")

	data, ok := r.GetSharedState("b", 3)
	require.True(t, ok)
	assert.Equal(t, "b", data["who"])
}

func TestRegistry_PendingResolverLifecycle(t *testing.T) {
	r := NewRegistry()

	resolve, ok := r.CreatePendingSharedState("statekit.lifecycle", 2)
	require.True(t, ok)

	assert.False(t, r.IsReady("statekit.lifecycle", 2), "pending state is not ready")

	require.True(t, resolve(map[string]any{"session": "started"}))

	data, ok := r.GetSharedState("statekit.lifecycle", 2)
	require.True(t, ok)
	assert.Equal(t, "started", data["session"])

	assert.False(t, resolve(map[string]any{"session": "again"}), "resolver fires exactly once")
}

func TestRegistry_PendingReservationRejected(t *testing.T) {
	r := NewRegistry()
	require.True(t, r.CreateSharedState("ext", nil, 4, false))

	resolve, ok := r.CreatePendingSharedState("ext", 3)
	assert.False(t, ok, "3 < 4 violates version ordering")
	assert.Nil(t, resolve)
}

func TestRegistry_ResolverAfterClear(t *testing.T) {
	r := NewRegistry()

	resolve, ok := r.CreatePendingSharedState("ext", 1)
	require.True(t, ok)

	require.True(t, r.ClearSharedState("ext"))

	assert.False(t, resolve(map[string]any{"late": true}),
		"resolution against a cleared store is a recoverable no-op")
}

func TestRegistry_IsReady(t *testing.T) {
	r := NewRegistry()

	assert.False(t, r.IsReady("cfg", 1), "never published")

	require.True(t, r.CreateSharedState("cfg", map[string]any{"k": "v"}, 1, false))
	assert.True(t, r.IsReady("cfg", 1))
	assert.True(t, r.IsReady("cfg", 9), "resolved state stays visible at greater versions")
	assert.False(t, r.IsReady("cfg", 0), "not visible below its version")
}

func TestRegistry_ConcurrentFirstWriters(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(v int64) {
			defer wg.Done()
			r.CreateSharedState("race", map[string]any{"v": v}, v, false)
		}(int64(i + 1))
	}
	wg.Wait()

	// All writers must have landed in the same table; at least the winning
	// first create is visible and the table is internally ordered.
	s, ok := r.stores.Get("race")
	require.True(t, ok)
	assert.GreaterOrEqual(t, s.Len(), 1)

	_, ok = r.GetSharedState("race", 100)
	assert.True(t, ok)
}

func TestRegistry_Extensions(t *testing.T) {
	r := NewRegistry()
	for i := 0; i < 3; i++ {
		r.CreateSharedState(fmt.Sprintf("ext-%d", i), nil, 1, false)
	}

	assert.ElementsMatch(t, []string{"ext-0", "ext-1", "ext-2"}, r.Extensions())
}

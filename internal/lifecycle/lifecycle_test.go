package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/statekit/internal/config"
	"github.com/roach88/statekit/internal/datastore"
	"github.com/roach88/statekit/internal/event"
	"github.com/roach88/statekit/internal/hub"
	"github.com/roach88/statekit/internal/state"
)

// fixture wires a hub, an in-memory datastore, and a controllable clock.
type fixture struct {
	hub  *hub.Hub
	ext  *Extension
	cfg  *hub.ExtensionContext
	time int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	h := hub.New()
	cfg, err := h.RegisterExtension(hub.ConfigurationName)
	require.NoError(t, err)

	ds, err := datastore.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { ds.Close() })

	ext, err := New(h, ds.Collection(CollectionName), DeviceInfo{
		DeviceName: "Pixel 9",
		OSVersion:  "Android 16",
		AppVersion: "1.1.0",
		Locale:     "en_US",
	})
	require.NoError(t, err)

	f := &fixture{hub: h, ext: ext, cfg: cfg, time: 1_700_000_000}
	ext.now = func() time.Time { return time.Unix(f.time, 0) }
	return f
}

// configure publishes configuration shared state with the given timeout.
func (f *fixture) configure(t *testing.T, timeoutSeconds int64) {
	t.Helper()
	ev := event.New("Configure", event.TypeConfiguration, event.SourceRequestContent, nil)
	f.hub.Stamp(&ev)
	require.True(t, f.cfg.CreateSharedState(map[string]any{
		config.KeyAppID:          "com.example.app",
		config.KeySessionTimeout: timeoutSeconds,
	}, ev))
}

func (f *fixture) startEvent() event.Event {
	ev := event.New("Lifecycle Start", event.TypeGenericLifecycle, event.SourceRequestContent,
		map[string]any{DataKeyAction: ActionStart})
	f.hub.Stamp(&ev)
	return ev
}

func (f *fixture) pauseEvent() event.Event {
	ev := event.New("Lifecycle Pause", event.TypeGenericLifecycle, event.SourceRequestContent,
		map[string]any{DataKeyAction: ActionPause})
	f.hub.Stamp(&ev)
	return ev
}

// lifecycleState resolves the lifecycle shared state as of the hub's
// current version.
func (f *fixture) lifecycleState() state.Result {
	return f.hub.Registry().ResolveSharedState(hub.LifecycleName, f.hub.Clock().Current(), state.ResolutionAny)
}

func TestReadyForEvent_ConfigurationSet(t *testing.T) {
	f := newFixture(t)
	f.configure(t, 200)

	assert.True(t, f.ext.ReadyForEvent(f.startEvent()))
}

func TestReadyForEvent_ConfigurationMissing(t *testing.T) {
	f := newFixture(t)

	assert.False(t, f.ext.ReadyForEvent(f.startEvent()))
}

func TestReadyForEvent_ConfigurationPending(t *testing.T) {
	f := newFixture(t)

	ev := event.New("Configure", event.TypeConfiguration, event.SourceRequestContent, nil)
	f.hub.Stamp(&ev)
	_, ok := f.cfg.CreatePendingSharedState(ev)
	require.True(t, ok)

	assert.False(t, f.ext.ReadyForEvent(f.startEvent()), "pending configuration is not ready")
}

func TestStart_FirstLaunchIsInstall(t *testing.T) {
	f := newFixture(t)
	f.configure(t, 200)

	require.NoError(t, f.ext.Start(f.startEvent(), nil))

	res := f.lifecycleState()
	require.Equal(t, state.StatusSet, res.Status)
	assert.Equal(t, "InstallEvent", res.Data[ContextKeyInstallEvent])
	assert.Equal(t, "LaunchEvent", res.Data[ContextKeyLaunchEvent])
	assert.Equal(t, int64(1), res.Data[ContextKeyLaunches])
	assert.Equal(t, "en-US", res.Data[ContextKeyLocale], "locale is normalized")
	assert.NotContains(t, res.Data, ContextKeyUpgradeEvent)
}

func TestStart_SecondLaunchAfterTimeout(t *testing.T) {
	f := newFixture(t)
	f.configure(t, 200)

	require.NoError(t, f.ext.Start(f.startEvent(), nil))
	require.NoError(t, f.ext.Pause(f.pauseEvent()))

	f.time += 1000 // beyond the 200s timeout
	require.NoError(t, f.ext.Start(f.startEvent(), nil))

	res := f.lifecycleState()
	require.Equal(t, state.StatusSet, res.Status)
	assert.Equal(t, int64(2), res.Data[ContextKeyLaunches])
	assert.NotContains(t, res.Data, ContextKeyInstallEvent, "second launch is not an install")
	assert.Equal(t, int64(0), res.Data[ContextKeyDaysSinceLastUse])
}

func TestStart_ResumeWithinTimeoutPublishesNothing(t *testing.T) {
	f := newFixture(t)
	f.configure(t, 200)

	require.NoError(t, f.ext.Start(f.startEvent(), nil))
	firstVersion := f.hub.Clock().Current()
	require.NoError(t, f.ext.Pause(f.pauseEvent()))

	f.time += 50 // inside the timeout
	require.NoError(t, f.ext.Start(f.startEvent(), nil))

	res := f.lifecycleState()
	require.Equal(t, state.StatusSet, res.Status)
	assert.Equal(t, int64(1), res.Data[ContextKeyLaunches], "resume does not count a launch")

	// No state was published after the first session's version.
	versions := f.hub.Registry().ResolveSharedState(hub.LifecycleName, firstVersion, state.ResolutionAny)
	assert.Equal(t, res.Data[ContextKeySessionStart], versions.Data[ContextKeySessionStart])
}

func TestStart_WhileRunningIsNoOp(t *testing.T) {
	f := newFixture(t)
	f.configure(t, 200)

	require.NoError(t, f.ext.Start(f.startEvent(), nil))
	require.NoError(t, f.ext.Start(f.startEvent(), nil))

	res := f.lifecycleState()
	require.Equal(t, state.StatusSet, res.Status)
	assert.Equal(t, int64(1), res.Data[ContextKeyLaunches])
}

func TestStart_UpgradeDetection(t *testing.T) {
	f := newFixture(t)
	f.configure(t, 200)

	require.NoError(t, f.ext.Start(f.startEvent(), nil))
	require.NoError(t, f.ext.Pause(f.pauseEvent()))

	// App updated between sessions.
	f.ext.device.AppVersion = "2.0.0"
	f.time += 1000
	require.NoError(t, f.ext.Start(f.startEvent(), nil))

	res := f.lifecycleState()
	require.Equal(t, state.StatusSet, res.Status)
	assert.Equal(t, "UpgradeEvent", res.Data[ContextKeyUpgradeEvent])
	assert.Equal(t, "2.0.0", res.Data[ContextKeyAppVersion])
}

func TestStart_DaysSinceFirstUse(t *testing.T) {
	f := newFixture(t)
	f.configure(t, 200)

	require.NoError(t, f.ext.Start(f.startEvent(), nil))
	require.NoError(t, f.ext.Pause(f.pauseEvent()))

	f.time += 3 * 24 * 60 * 60 // three days later
	require.NoError(t, f.ext.Start(f.startEvent(), nil))

	res := f.lifecycleState()
	require.Equal(t, state.StatusSet, res.Status)
	assert.Equal(t, int64(3), res.Data[ContextKeyDaysSinceFirstUse])
	assert.Equal(t, int64(3), res.Data[ContextKeyDaysSinceLastUse])
}

func TestStart_AdditionalContextData(t *testing.T) {
	f := newFixture(t)
	f.configure(t, 200)

	require.NoError(t, f.ext.Start(f.startEvent(), map[string]any{"campaign": "spring"}))

	res := f.lifecycleState()
	require.Equal(t, state.StatusSet, res.Status)
	assert.Equal(t, map[string]any{"campaign": "spring"},
		res.Data[ContextKeyAdditional])
}

func TestStart_DefaultTimeoutWithoutConfiguration(t *testing.T) {
	f := newFixture(t)
	// No configuration published; Start still works with the default.

	require.NoError(t, f.ext.Start(f.startEvent(), nil))
	require.NoError(t, f.ext.Pause(f.pauseEvent()))

	f.time += config.DefaultSessionTimeoutSeconds - 10
	require.NoError(t, f.ext.Start(f.startEvent(), nil))

	res := f.lifecycleState()
	require.Equal(t, state.StatusSet, res.Status)
	assert.Equal(t, int64(1), res.Data[ContextKeyLaunches], "resumed under the default timeout")
}

func TestHandleRequest_Routing(t *testing.T) {
	f := newFixture(t)
	f.configure(t, 200)

	require.NoError(t, f.ext.HandleRequest(f.startEvent()))
	assert.Equal(t, state.StatusSet, f.lifecycleState().Status)

	require.NoError(t, f.ext.HandleRequest(f.pauseEvent()))
	assert.True(t, f.ext.paused)
}

func TestHandleRequest_IgnoresUnknownAndEmpty(t *testing.T) {
	f := newFixture(t)
	f.configure(t, 200)

	empty := event.New("empty", event.TypeGenericLifecycle, event.SourceRequestContent, nil)
	f.hub.Stamp(&empty)
	require.NoError(t, f.ext.HandleRequest(empty))

	unknown := event.New("odd", event.TypeGenericLifecycle, event.SourceRequestContent,
		map[string]any{DataKeyAction: "hibernate"})
	f.hub.Stamp(&unknown)
	require.NoError(t, f.ext.HandleRequest(unknown))

	assert.Equal(t, state.StatusNone, f.lifecycleState().Status, "nothing published")
}

func TestDaysBetween(t *testing.T) {
	day := int64(24 * 60 * 60)

	assert.Equal(t, int64(0), daysBetween(0, day))
	assert.Equal(t, int64(0), daysBetween(day, day))
	assert.Equal(t, int64(0), daysBetween(2*day, day), "clamped when b precedes a")
	assert.Equal(t, int64(2), daysBetween(day, 3*day))
}

func TestNormalizeLocale(t *testing.T) {
	assert.Equal(t, "en-US", normalizeLocale("en_US"))
	assert.Equal(t, "pt-BR", normalizeLocale("pt-BR"))
	assert.Equal(t, "", normalizeLocale(""))
	assert.Equal(t, "???", normalizeLocale("???"), "unparseable input passes through")
}

// Package lifecycle implements the session-tracking extension.
//
// The extension folds application foreground/background transitions into
// sessions: a start within the configured timeout of the last pause resumes
// the running session; anything later begins a new one. Each new session
// publishes lifecycle context data as shared state at the triggering
// event's version, so other extensions resolve a consistent snapshot of
// launch/install/upgrade information.
//
// Session timeout is read from the configuration extension's shared state
// (lifecycle.sessionTimeout, seconds). Install/pause bookkeeping that must
// survive restarts lives in a named datastore collection.
package lifecycle

import (
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/text/language"

	"github.com/roach88/statekit/internal/config"
	"github.com/roach88/statekit/internal/datastore"
	"github.com/roach88/statekit/internal/event"
	"github.com/roach88/statekit/internal/hub"
	"github.com/roach88/statekit/internal/state"
)

// CollectionName is the datastore collection holding lifecycle bookkeeping.
const CollectionName = "Lifecycle"

// Event data keys understood by HandleRequest.
const (
	DataKeyAction            = "action"
	DataKeyAdditionalContext = "additionalcontextdata"

	ActionStart = "start"
	ActionPause = "pause"
)

// Datastore keys.
const (
	keyInstallDate     = "InstallDate"
	keyLastUsedDate    = "LastUsedDate"
	keyPauseDate       = "PauseDate"
	keySuccessfulClose = "SuccessfulClose"
	keyLaunches        = "Launches"
	keyLastVersion     = "LastVersion"
)

// Shared-state context data keys.
const (
	ContextKeyLaunchEvent       = "launchevent"
	ContextKeyInstallEvent      = "installevent"
	ContextKeyUpgradeEvent      = "upgradeevent"
	ContextKeyLaunches          = "launches"
	ContextKeyDaysSinceFirstUse = "dayssincefirstuse"
	ContextKeyDaysSinceLastUse  = "dayssincelastuse"
	ContextKeySessionStart      = "sessionstarttimestampseconds"
	ContextKeyMaxSessionLength  = "maxsessionlength"
	ContextKeyDeviceName        = "devicename"
	ContextKeyOSVersion         = "osversion"
	ContextKeyAppVersion        = "appversion"
	ContextKeyLocale            = "locale"
	ContextKeyAdditional        = "additionalcontextdata"
)

// MaxSessionLengthSeconds caps the session length reported in context data.
const MaxSessionLengthSeconds = int64(7 * 24 * 60 * 60)

// DeviceInfo describes the host application and device. Supplied by the
// embedding application; the zero value is tolerated (keys are simply
// omitted from context data).
type DeviceInfo struct {
	DeviceName string
	OSVersion  string
	AppVersion string
	Locale     string // BCP 47; normalized before publishing
}

// Extension tracks sessions and publishes lifecycle shared state.
//
// All methods are driven from the caller's event-processing sequence; the
// extension itself adds no goroutines.
type Extension struct {
	hub    *hub.Hub
	ctx    *hub.ExtensionContext
	store  *datastore.Collection
	device DeviceInfo

	// now is swappable for tests.
	now func() time.Time

	// Runtime session state. Valid only for the life of the process;
	// persisted bookkeeping is what survives restarts.
	sessionStart int64 // unix seconds; 0 = no session
	paused       bool
	pauseTime    int64 // unix seconds of last pause
}

// New registers the lifecycle extension with the hub.
func New(h *hub.Hub, store *datastore.Collection, device DeviceInfo) (*Extension, error) {
	ctx, err := h.RegisterExtension(hub.LifecycleName)
	if err != nil {
		return nil, fmt.Errorf("lifecycle: %w", err)
	}
	return &Extension{
		hub:    h,
		ctx:    ctx,
		store:  store,
		device: device,
		now:    time.Now,
	}, nil
}

// ReadyForEvent reports whether the extension can process the event.
// False while the configuration shared state is unpublished or pending.
func (x *Extension) ReadyForEvent(ev event.Event) bool {
	res := x.ctx.GetSharedState(hub.ConfigurationName, ev, state.ResolutionAny)
	return res.Status == state.StatusSet
}

// HandleRequest routes a lifecycle request-content event by its action.
// Events without data or with an unknown action are ignored.
func (x *Extension) HandleRequest(ev event.Event) error {
	if event.IsNilOrEmpty(ev.Data) {
		slog.Debug("lifecycle request ignored: no data", "event", ev.ID)
		return nil
	}

	switch action := event.StringValue(ev.Data, DataKeyAction, ""); action {
	case ActionStart:
		return x.Start(ev, event.MapValue(ev.Data, DataKeyAdditionalContext))
	case ActionPause:
		return x.Pause(ev)
	default:
		slog.Debug("lifecycle request ignored: unknown action",
			"event", ev.ID,
			"action", action,
		)
		return nil
	}
}

// Start begins or resumes a session.
//
// A start inside a running session is a no-op. A start within the session
// timeout of the last pause resumes: the paused interval is folded into the
// session start so session length stays meaningful. Otherwise a brand new
// session begins and fresh context data is published as shared state at the
// event's version.
func (x *Extension) Start(ev event.Event, additional map[string]any) error {
	now := x.now().Unix()
	timeout := x.sessionTimeout(ev)

	if x.sessionStart != 0 && !x.paused {
		slog.Debug("lifecycle start ignored: session already running",
			"session_start", x.sessionStart,
		)
		return nil
	}

	if x.paused && now-x.pauseTime < timeout {
		// Resume: shift the start forward by the paused interval.
		x.sessionStart += now - x.pauseTime
		x.paused = false
		if err := x.store.SetBool(keySuccessfulClose, false); err != nil {
			return fmt.Errorf("lifecycle resume: %w", err)
		}
		slog.Debug("lifecycle session resumed",
			"session_start", x.sessionStart,
			"paused_seconds", now-x.pauseTime,
		)
		return nil
	}

	ctxData, err := x.beginSession(now, additional)
	if err != nil {
		return err
	}

	if !x.ctx.CreateSharedState(ctxData, ev) {
		slog.Warn("lifecycle shared state rejected",
			"version", ev.Number,
			"event", ev.ID,
		)
	}

	slog.Info("lifecycle session started",
		"version", ev.Number,
		"launches", ctxData[ContextKeyLaunches],
		"install", ctxData[ContextKeyInstallEvent] != nil,
		"upgrade", ctxData[ContextKeyUpgradeEvent] != nil,
	)
	return nil
}

// Pause records the background transition. The session stays resumable
// until the timeout elapses.
func (x *Extension) Pause(ev event.Event) error {
	now := x.now().Unix()

	if err := x.store.SetBool(keySuccessfulClose, true); err != nil {
		return fmt.Errorf("lifecycle pause: %w", err)
	}
	if err := x.store.SetInt64(keyPauseDate, now); err != nil {
		return fmt.Errorf("lifecycle pause: %w", err)
	}

	x.paused = true
	x.pauseTime = now

	slog.Debug("lifecycle session paused", "event", ev.ID, "pause_time", now)
	return nil
}

// beginSession updates persisted bookkeeping for a fresh session and builds
// the context data to publish.
func (x *Extension) beginSession(now int64, additional map[string]any) (map[string]any, error) {
	installDate, err := x.store.GetInt64(keyInstallDate, 0)
	if err != nil {
		return nil, fmt.Errorf("lifecycle start: %w", err)
	}
	lastUsed, err := x.store.GetInt64(keyLastUsedDate, 0)
	if err != nil {
		return nil, fmt.Errorf("lifecycle start: %w", err)
	}
	lastVersion, err := x.store.GetString(keyLastVersion, "")
	if err != nil {
		return nil, fmt.Errorf("lifecycle start: %w", err)
	}
	launches, err := x.store.GetInt64(keyLaunches, 0)
	if err != nil {
		return nil, fmt.Errorf("lifecycle start: %w", err)
	}

	install := installDate == 0
	upgrade := !install && lastVersion != "" && lastVersion != x.device.AppVersion
	launches++

	if install {
		installDate = now
		if err := x.store.SetInt64(keyInstallDate, now); err != nil {
			return nil, fmt.Errorf("lifecycle start: %w", err)
		}
	}
	if err := x.store.SetInt64(keyLaunches, launches); err != nil {
		return nil, fmt.Errorf("lifecycle start: %w", err)
	}
	if err := x.store.SetInt64(keyLastUsedDate, now); err != nil {
		return nil, fmt.Errorf("lifecycle start: %w", err)
	}
	if err := x.store.SetString(keyLastVersion, x.device.AppVersion); err != nil {
		return nil, fmt.Errorf("lifecycle start: %w", err)
	}

	x.sessionStart = now
	x.paused = false
	x.pauseTime = 0

	ctxData := map[string]any{
		ContextKeyLaunchEvent:       "LaunchEvent",
		ContextKeyLaunches:          launches,
		ContextKeySessionStart:      now,
		ContextKeyMaxSessionLength:  MaxSessionLengthSeconds,
		ContextKeyDaysSinceFirstUse: daysBetween(installDate, now),
	}
	if install {
		ctxData[ContextKeyInstallEvent] = "InstallEvent"
	} else {
		ctxData[ContextKeyDaysSinceLastUse] = daysBetween(lastUsed, now)
		if upgrade {
			ctxData[ContextKeyUpgradeEvent] = "UpgradeEvent"
		}
	}

	event.PutStringIfNotEmpty(ctxData, ContextKeyDeviceName, x.device.DeviceName)
	event.PutStringIfNotEmpty(ctxData, ContextKeyOSVersion, x.device.OSVersion)
	event.PutStringIfNotEmpty(ctxData, ContextKeyAppVersion, x.device.AppVersion)
	event.PutStringIfNotEmpty(ctxData, ContextKeyLocale, normalizeLocale(x.device.Locale))
	event.PutIfNotEmpty(ctxData, ContextKeyAdditional, additional)

	return ctxData, nil
}

// sessionTimeout reads lifecycle.sessionTimeout from configuration shared
// state as of the event, falling back to the default when configuration is
// unavailable or the key is absent.
func (x *Extension) sessionTimeout(ev event.Event) int64 {
	res := x.ctx.GetSharedState(hub.ConfigurationName, ev, state.ResolutionAny)
	if res.Status != state.StatusSet {
		return config.DefaultSessionTimeoutSeconds
	}
	return config.SessionTimeout(res.Data)
}

// daysBetween counts whole days from a to b, clamped at zero.
func daysBetween(a, b int64) int64 {
	if a <= 0 || b <= a {
		return 0
	}
	return (b - a) / (24 * 60 * 60)
}

// normalizeLocale parses and re-renders a BCP 47 tag ("en_US" → "en-US").
// Unparseable input is passed through untouched.
func normalizeLocale(locale string) string {
	if locale == "" {
		return ""
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return locale
	}
	return tag.String()
}

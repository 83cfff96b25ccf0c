package harness

import (
	"fmt"
	"log/slog"
	"reflect"

	"github.com/roach88/statekit/internal/state"
	"github.com/roach88/statekit/internal/testutil"
)

// Harness executes scenarios against a fresh shared-state registry with a
// deterministic version clock.
type Harness struct {
	registry *state.Registry
	clock    *testutil.DeterministicClock
}

// New creates a harness with an empty registry.
func New() *Harness {
	return &Harness{
		registry: state.NewRegistry(),
		clock:    testutil.NewDeterministicClock(),
	}
}

// Result is the outcome of running one scenario.
type Result struct {
	// Pass is true when every step met its expectations.
	Pass bool

	// Errors lists expectation failures, one per failing step.
	Errors []string

	// Trace records what actually happened, step by step, for golden
	// comparison.
	Trace []TraceStep
}

// TraceStep records the observed outcome of one step.
type TraceStep struct {
	Op        string         `json:"op"`
	Extension string         `json:"extension"`
	Version   int64          `json:"version,omitempty"`
	OK        *bool          `json:"ok,omitempty"`     // create/update/clear outcome
	Status    string         `json:"status,omitempty"` // get/resolve outcome
	Data      map[string]any `json:"data,omitempty"`
}

// Run executes a scenario. Each call starts from a fresh registry and a
// reset clock so scenarios are isolated and reproducible.
func (h *Harness) Run(scenario *Scenario) *Result {
	h.registry = state.NewRegistry()
	h.clock.Reset()

	result := &Result{Pass: true}

	slog.Debug("scenario starting", "scenario", scenario.Name, "steps", len(scenario.Steps))

	for i, step := range scenario.Steps {
		trace := h.runStep(step)
		result.Trace = append(result.Trace, trace)

		if msg := checkStep(step, trace); msg != "" {
			result.Pass = false
			result.Errors = append(result.Errors, fmt.Sprintf("step %d (%s %s): %s",
				i+1, step.Op, step.Extension, msg))
		}
	}

	slog.Debug("scenario finished",
		"scenario", scenario.Name,
		"pass", result.Pass,
		"failures", len(result.Errors),
	)
	return result
}

// runStep executes one step and records its observed outcome.
func (h *Harness) runStep(step Step) TraceStep {
	version := step.Version
	if version == 0 && step.Op == OpCreate {
		version = h.clock.Next()
	} else {
		// Explicit versions drag the clock along so later auto-assigned
		// versions never collide.
		h.clock.Advance(version)
	}

	trace := TraceStep{Op: step.Op, Extension: step.Extension, Version: version}

	switch step.Op {
	case OpCreate:
		ok := h.registry.CreateSharedState(step.Extension, step.Data, version, step.Pending)
		trace.OK = &ok

	case OpUpdate:
		ok := h.registry.UpdateSharedState(step.Extension, step.Data, version, step.Pending)
		trace.OK = &ok

	case OpGet:
		data, ok := h.registry.GetSharedState(step.Extension, version)
		if ok {
			trace.Status = "set"
			trace.Data = data
		} else {
			trace.Status = "none"
		}

	case OpResolve:
		res := h.registry.ResolveSharedState(step.Extension, version, resolutionOf(step.Resolution))
		trace.Status = res.Status.String()
		trace.Data = res.Data

	case OpClear:
		ok := h.registry.ClearSharedState(step.Extension)
		trace.OK = &ok
		trace.Version = 0
	}

	return trace
}

// checkStep compares a step's expectations against the observed trace.
// Returns "" when the step passed.
func checkStep(step Step, trace TraceStep) string {
	if trace.OK != nil {
		want := true
		if step.Want != nil {
			want = *step.Want
		}
		if *trace.OK != want {
			return fmt.Sprintf("want %v, got %v", want, *trace.OK)
		}
	}

	if step.WantState != "" && trace.Status != step.WantState {
		return fmt.Sprintf("want state %q, got %q", step.WantState, trace.Status)
	}
	if step.WantStatus != "" && trace.Status != step.WantStatus {
		return fmt.Sprintf("want status %q, got %q", step.WantStatus, trace.Status)
	}
	if step.WantData != nil && !reflect.DeepEqual(trace.Data, step.WantData) {
		return fmt.Sprintf("want data %v, got %v", step.WantData, trace.Data)
	}
	return ""
}

func resolutionOf(name string) state.Resolution {
	if name == "last_set" {
		return state.ResolutionLastSet
	}
	return state.ResolutionAny
}

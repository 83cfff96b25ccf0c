// Package harness provides conformance testing for the shared-state
// protocol.
//
// The harness loads YAML scenarios describing a sequence of shared-state
// operations against named extensions, executes them against a fresh
// registry, checks per-step expectations, and records a trace for golden
// snapshot comparison.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	steps:
//	  - op: create
//	    extension: statekit.lifecycle
//	    version: 3            # omit to take the next clock version
//	    data: { launches: 1 }
//	    pending: false
//	    want: true
//	  - op: update
//	    extension: statekit.lifecycle
//	    version: 3
//	    data: { launches: 2 }
//	    want: false
//	  - op: get
//	    extension: statekit.lifecycle
//	    version: 8
//	    want_state: set       # set | none
//	    want_data: { launches: 1 }
//	  - op: resolve
//	    extension: statekit.lifecycle
//	    version: 8
//	    resolution: last_set  # any | last_set
//	    want_status: set      # none | pending | set
//	  - op: clear
//	    extension: statekit.lifecycle
//	    want: true
//
// # Deterministic Testing
//
// Scenarios execute with a deterministic version clock (testutil): steps
// that omit version take the next clock value, and explicit versions
// advance the clock past themselves. The same scenario therefore produces
// a byte-identical trace on every run, which golden files pin down.
package harness

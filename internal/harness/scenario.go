package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Step operation constants.
const (
	OpCreate  = "create"
	OpUpdate  = "update"
	OpGet     = "get"
	OpResolve = "resolve"
	OpClear   = "clear"
)

// Scenario defines a conformance test scenario for the shared-state
// protocol: an ordered sequence of operations with expected outcomes.
type Scenario struct {
	// Name uniquely identifies this scenario (also the golden file name).
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Steps are executed in order against a fresh registry.
	Steps []Step `yaml:"steps"`
}

// Step is one shared-state operation with its expectations.
type Step struct {
	// Op is one of create, update, get, resolve, clear.
	Op string `yaml:"op"`

	// Extension names the store the operation targets.
	Extension string `yaml:"extension"`

	// Version is the explicit version for the operation. When omitted on
	// create, the next clock version is used; get/resolve/update require
	// an explicit version unless version 0 is genuinely meant.
	Version int64 `yaml:"version,omitempty"`

	// Data is the payload for create/update and ignored elsewhere.
	Data map[string]any `yaml:"data,omitempty"`

	// Pending marks create as a reservation and makes update attempt an
	// (illegal) pending→pending transition.
	Pending bool `yaml:"pending,omitempty"`

	// Resolution selects the resolve mode: "any" (default) or "last_set".
	Resolution string `yaml:"resolution,omitempty"`

	// Want is the expected boolean outcome for create/update/clear.
	// Defaults to true; set explicitly for rejection cases.
	Want *bool `yaml:"want,omitempty"`

	// WantState is the expected get outcome: "set" or "none".
	WantState string `yaml:"want_state,omitempty"`

	// WantStatus is the expected resolve status: "none", "pending", "set".
	WantStatus string `yaml:"want_status,omitempty"`

	// WantData is the expected data for get/resolve. Exact match.
	WantData map[string]any `yaml:"want_data,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected to catch typos like "want_stat:".
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return nil
}

func validateStep(step Step) error {
	switch step.Op {
	case OpCreate, OpUpdate, OpGet, OpResolve, OpClear:
	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}

	if step.Extension == "" {
		return fmt.Errorf("extension is required")
	}

	switch step.Resolution {
	case "", "any", "last_set":
	default:
		return fmt.Errorf("unknown resolution %q", step.Resolution)
	}

	switch step.WantState {
	case "", "set", "none":
	default:
		return fmt.Errorf("unknown want_state %q", step.WantState)
	}

	switch step.WantStatus {
	case "", "none", "pending", "set":
	default:
		return fmt.Errorf("unknown want_status %q", step.WantStatus)
	}

	return nil
}

// Package config loads and validates SDK configuration.
//
// Configuration arrives as a YAML document supplied by the embedding
// application, is validated against an embedded CUE schema, and is then
// published as the configuration extension's shared state so other
// extensions can gate on it (lifecycle reads its session timeout here).
package config

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"

	"github.com/roach88/statekit/internal/event"
	"github.com/roach88/statekit/internal/hub"
)

// Well-known configuration keys.
const (
	KeyAppID          = "app.id"
	KeySessionTimeout = "lifecycle.sessionTimeout"
)

// DefaultSessionTimeoutSeconds applies when the configuration omits
// lifecycle.sessionTimeout.
const DefaultSessionTimeoutSeconds = 300

// schema constrains operator-supplied configuration. Unknown keys are
// allowed (extensions define their own namespaced keys); the keys the core
// depends on are typed here.
const schema = `
{
	"app.id": string & !=""
	"lifecycle.sessionTimeout"?: int & >=0
	...
}
`

// Load reads, decodes, and validates a configuration file.
func Load(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a YAML configuration document and validates it against the
// embedded CUE schema.
func Parse(raw []byte) (map[string]any, error) {
	var cfg map[string]any
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if cfg == nil {
		return nil, &ValidationError{Field: "document", Message: "configuration is empty"}
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate unifies the decoded document with the schema and checks the
// result. CUE reports constraint violations with positions.
func validate(cfg map[string]any) error {
	ctx := cuecontext.New()

	schemaVal := ctx.CompileString(schema)
	if err := schemaVal.Err(); err != nil {
		return formatCUEError(err)
	}

	docVal := ctx.Encode(cfg)
	if err := docVal.Err(); err != nil {
		return formatCUEError(err)
	}

	unified := schemaVal.Unify(docVal)
	if err := unified.Err(); err != nil {
		return formatCUEError(err)
	}
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return formatCUEError(err)
	}
	return nil
}

// SessionTimeout extracts lifecycle.sessionTimeout (seconds) from a
// configuration map, applying the default when absent.
func SessionTimeout(cfg map[string]any) int64 {
	return event.Int64Value(cfg, KeySessionTimeout, DefaultSessionTimeoutSeconds)
}

// Publish stamps the event and creates configuration shared state at its
// version. Returns false when the version is rejected by the store.
func Publish(h *hub.Hub, ec *hub.ExtensionContext, cfg map[string]any, ev event.Event) bool {
	h.Stamp(&ev)
	return ec.CreateSharedState(cfg, ev)
}

// ValidationError reports why a configuration document was rejected.
type ValidationError struct {
	Field   string
	Message string
	Pos     token.Pos
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := cueerrors.Positions(firstErr)
	if len(positions) > 0 {
		return &ValidationError{
			Field:   "config",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}

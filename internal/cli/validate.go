package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/statekit/internal/config"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config.yaml>",
		Short: "Validate an SDK configuration file",
		Long: `Validate a YAML configuration document against the SDK schema.

Checks structure and types (app.id must be a non-empty string,
lifecycle.sessionTimeout a non-negative integer) and reports the
position of the first violation.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,  // Don't print usage on errors
		SilenceErrors: true,  // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("configuration file not found: %s", path))
	}

	formatter.VerboseLog("validating %s", path)

	cfg, err := config.Load(path)
	if err != nil {
		var verr *config.ValidationError
		if errors.As(err, &verr) {
			result := ValidationResult{Valid: false, Errors: []string{verr.Error()}}
			if opts.Format == "json" {
				if err := formatter.Success(result); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "✗ %s\n  %s\n", path, verr.Error())
			}
			return NewExitError(ExitFailure, "configuration is invalid")
		}
		return WrapExitError(ExitCommandError, "failed to load configuration", err)
	}

	if opts.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s (%d keys)\n", path, len(cfg))
	return nil
}

package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/pathfill/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                       `json:"valid"`
	Tables []string                   `json:"tables"`
	Errors []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <fom-dir>",
		Short: "Check template tables for consistency",
		Long: `Load every table declared in the CUE files of a directory and check
that rules reference declared formats and attributes, that placeholders
are well formed, and that no parameter repeats a pattern.

Exit codes:
  0 - All tables valid
  1 - One or more validation errors
  2 - Command error (directory missing, CUE does not load)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	result, err := validateTables(dir)
	if err != nil {
		return formatter.commandError(loadErrorCode(err), "failed to load tables", err)
	}
	formatter.VerboseLog("Validated %d table(s) in %s", len(result.Tables), dir)

	if result.Valid {
		if formatter.JSON() {
			return formatter.Success(result)
		}
		fmt.Fprintf(formatter.Writer, "%s All tables valid (%d)\n", markOK, len(result.Tables))
		return nil
	}

	if formatter.JSON() {
		if err := formatter.Failure(result, result.Errors[0].Code, result.Errors[0].Message); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(formatter.Writer, "%s Validation failed\n\n", markFail)
		for _, e := range result.Errors {
			fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n", e.Code, e.Field, e.Message)
		}
	}
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
}

// validateTables loads dir collecting every compile error, then validates
// each table. A non-nil error means nothing could be loaded.
func validateTables(dir string) (ValidationResult, error) {
	loaded, loadErrs := compiler.LoadTables(dir, compiler.LoadModeCollectAll)
	if loaded == nil {
		return ValidationResult{}, errors.Join(loadErrs...)
	}

	result := ValidationResult{Tables: loaded.Names}
	for _, err := range loadErrs {
		var loadErr *compiler.LoadError
		if errors.As(err, &loadErr) {
			result.Errors = append(result.Errors, compiler.ValidationError{
				Field:   "load",
				Message: loadErr.Error(),
				Code:    loadErr.Code,
			})
		}
	}
	for _, name := range loaded.Names {
		for _, e := range compiler.Validate(loaded.Tables[name]) {
			e.Field = name + "." + e.Field
			result.Errors = append(result.Errors, e)
		}
	}
	result.Valid = len(result.Errors) == 0
	return result, nil
}

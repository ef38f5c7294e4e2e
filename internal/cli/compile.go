package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/pathfill/internal/compiler"
	"github.com/roach88/pathfill/internal/fom"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompilationResult holds the compiled tables in declaration order.
type CompilationResult struct {
	Tables []*fom.Table `json:"tables"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <fom-dir>",
		Short: "Compile CUE template tables to JSON",
		Long: `Compile the file organisation model tables declared in a CUE package
and write them as JSON, to stdout or to the file given with -o.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, dir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	loaded, loadErrs := compiler.LoadTables(dir, compiler.LoadModeCollectAll)
	if len(loadErrs) > 0 {
		return outputCompileErrors(formatter, loadErrs)
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", loaded.FileCount, dir)

	result := &CompilationResult{}
	for _, name := range loaded.Names {
		formatter.VerboseLog("Compiled table: %s", name)
		result.Tables = append(result.Tables, loaded.Tables[name])
	}

	if opts.Output != "" {
		if err := writeTablesToFile(result, opts.Output); err != nil {
			return formatter.commandError(ErrCodeWrite, "writing output file", err)
		}
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "%s Compiled %d table(s)\n\n", markOK, len(result.Tables))
	for _, t := range result.Tables {
		rules := 0
		for _, params := range t.Processes {
			for _, rs := range params {
				rules += len(rs)
			}
		}
		fmt.Fprintf(formatter.Writer, "  %s: %d process(es), %d rule(s), %d attribute(s)\n",
			t.Name, len(t.Processes), rules, len(t.Attributes))
	}
	if opts.Output != "" {
		fmt.Fprintf(formatter.Writer, "\nWrote tables to %s\n", opts.Output)
	}
	return nil
}

// outputCompileErrors reports every load error, with its CUE position in
// text mode.
func outputCompileErrors(formatter *OutputFormatter, errs []error) error {
	cliErrors := make([]CLIError, len(errs))
	for i, err := range errs {
		cliErrors[i] = CLIError{Code: loadErrorCode(err), Message: err.Error()}
	}

	if formatter.JSON() {
		if err := formatter.Failure(cliErrors, cliErrors[0].Code, cliErrors[0].Message); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(formatter.Writer, "%s Compilation failed\n\n", markFail)
		for _, err := range errs {
			var loadErr *compiler.LoadError
			if errors.As(err, &loadErr) && loadErr.Pos.IsValid() {
				fmt.Fprintf(formatter.Writer, "%s:%d:%d\n", loadErr.Pos.Filename(), loadErr.Pos.Line(), loadErr.Pos.Column())
				fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", loadErr.Code, loadErr.Message)
				continue
			}
			fmt.Fprintf(formatter.Writer, "  %s\n\n", err)
		}
	}
	return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
}

// writeTablesToFile writes the tables as indented JSON. Map keys are
// sorted by encoding/json, so output is stable.
func writeTablesToFile(result *CompilationResult, filename string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling tables: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}

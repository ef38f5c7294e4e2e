package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/pathfill/internal/compiler"
	"github.com/roach88/pathfill/internal/fom"
)

// ParseOptions holds flags for the parse command.
type ParseOptions struct {
	*RootOptions
	Study string
}

// ParseResult describes which rule a path matched.
type ParseResult struct {
	Path       string            `json:"path"`
	Direction  string            `json:"direction"`
	Process    string            `json:"process"`
	Parameter  string            `json:"parameter"`
	Format     string            `json:"format,omitempty"`
	Attributes map[string]string `json:"attributes"`
}

// NewParseCommand creates the parse command.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ParseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "parse <path>",
		Short: "Read attributes back out of a file path",
		Long: `Match a path against the study's tables and print the attributes
it encodes. The input table is tried first, then the output table.

Examples:
  pathfill parse /data/subjects/S01/t1mri/default/S01.nii --study study.yaml
  pathfill parse brain_S01.nii --study study.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Study, "study", "", "path to study configuration (required)")
	_ = cmd.MarkFlagRequired("study")

	return cmd
}

func runParse(opts *ParseOptions, p string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := compiler.OpenStudy(opts.Study)
	if err != nil {
		return formatter.commandError(ErrCodeStudy, "failed to open study", err)
	}

	result, ok := parsePath(cfg.Templates, p)
	if !ok {
		msg := fmt.Sprintf("path %s matches no rule", p)
		_ = formatter.Error(ErrCodeUnparsed, msg, nil)
		return NewExitError(ExitFailure, msg)
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}
	w := formatter.Writer
	fmt.Fprintf(w, "%s.%s (%s table)\n", result.Process, result.Parameter, result.Direction)
	if result.Format != "" {
		fmt.Fprintf(w, "  format: %s\n", result.Format)
	}
	keys := make([]string, 0, len(result.Attributes))
	for k := range result.Attributes {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s = %s\n", k, result.Attributes[k])
	}
	return nil
}

// parsePath tries the input table, then the output table.
func parsePath(templates func(fom.Direction) *fom.Resolver, p string) (ParseResult, bool) {
	for _, d := range []fom.Direction{fom.Input, fom.Output} {
		parsed, ok := templates(d).ParsePath(p)
		if !ok {
			continue
		}
		return ParseResult{
			Path:       p,
			Direction:  d.String(),
			Process:    parsed.Process,
			Parameter:  parsed.Parameter,
			Format:     parsed.Format,
			Attributes: parsed.Attributes,
		}, true
	}
	return ParseResult{}, false
}

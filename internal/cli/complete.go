package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/pathfill/internal/ir"
	"github.com/roach88/pathfill/internal/store"
)

// CompleteOptions holds flags for the complete command.
type CompleteOptions struct {
	*RootOptions
	Study      string
	Attributes []string
	Parameters []string
	Name       string
	Database   string
	FromFile   string

	// RunIDs overrides run id generation (for testing).
	// If nil, defaults to store.UUIDv7Generator.
	RunIDs store.RunIDGenerator

	// Now overrides the run timestamp source (for testing).
	Now func() time.Time
}

// CompleteResult is the output of one completion.
type CompleteResult struct {
	RunID       string           `json:"run_id,omitempty"`
	TraceHash   string           `json:"trace_hash"`
	Parameters  []ParameterValue `json:"parameters"`
	Derivations int              `json:"derivations"`
	Outcomes    []ir.Outcome     `json:"outcomes"`
}

// NewCompleteCommand creates the complete command.
func NewCompleteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompleteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "complete <pipeline.yaml>",
		Short: "Fill in pipeline parameters from attributes",
		Long: `Complete a process or pipeline definition within a study.

Attributes given with --attr seed the root strategy; attributes it does
not declare are ignored. --from reads attributes out of an existing file
path first. Nodes whose completion fails are reported but do not stop
their siblings. With --db the run is appended to a history database.

Examples:
  pathfill complete pipeline.yaml --study study.yaml --attr subject=S01
  pathfill complete pipeline.yaml --study study.yaml --from /data/subjects/S01/t1mri/default/S01.nii
  pathfill complete pipeline.yaml --study study.yaml --attr subject=S01 --db history.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runComplete(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Study, "study", "", "path to study configuration (required)")
	_ = cmd.MarkFlagRequired("study")
	cmd.Flags().StringArrayVar(&opts.Attributes, "attr", nil, "attribute key=value (repeatable)")
	cmd.Flags().StringArrayVar(&opts.Parameters, "param", nil, "root parameter key=value (repeatable)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "strategy name to look the root process up under")
	cmd.Flags().StringVar(&opts.Database, "db", "", "history database to record the run in")
	cmd.Flags().StringVar(&opts.FromFile, "from", "", "read attributes from an existing file path")

	return cmd
}

func runComplete(opts *CompleteOptions, pipelinePath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	attrs, err := parseAssignments("attr", opts.Attributes)
	if err != nil {
		return formatter.commandError(ErrCodeGeneric, "invalid attribute", err)
	}
	params, err := parseAssignments("param", opts.Parameters)
	if err != nil {
		return formatter.commandError(ErrCodeGeneric, "invalid parameter", err)
	}

	var st *store.Store
	req := completionRequest{
		StudyPath:    opts.Study,
		PipelinePath: pipelinePath,
		Name:         opts.Name,
		Attributes:   attrs,
		Parameters:   params,
		FromFile:     opts.FromFile,
	}
	if opts.Database != "" {
		st, err = store.Open(opts.Database)
		if err != nil {
			return formatter.commandError(ErrCodeHistory, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		}()
		// Seqs stay unique across runs in one database.
		if req.StartSeq, err = st.GetLastSeq(ctx); err != nil {
			return formatter.commandError(ErrCodeHistory, "failed to read last seq", err)
		}
	}

	c, err := runCompletion(ctx, formatter, req)
	if err != nil {
		return err
	}

	// The recorded attributes reproduce the run: path attributes first,
	// explicit flags win.
	recorded := c.FileAttributes.Clone()
	for k, v := range attrs {
		recorded[k] = v
	}
	run, err := c.Report.Record(ir.Run{
		StudyPath:    opts.Study,
		PipelinePath: pipelinePath,
		Name:         opts.Name,
		Attributes:   recorded,
		Parameters:   params,
	})
	if err != nil {
		return formatter.commandError(ErrCodeComplete, "failed to record run", err)
	}

	if st != nil {
		ids := opts.RunIDs
		if ids == nil {
			ids = store.UUIDv7Generator{}
		}
		now := opts.Now
		if now == nil {
			now = time.Now
		}
		run.ID = ids.Generate()
		run.CreatedAt = now().UTC().Format(time.RFC3339Nano)
		if err := st.WriteRun(ctx, run); err != nil {
			return formatter.commandError(ErrCodeHistory, "failed to write run", err)
		}
		formatter.VerboseLog("Recorded run %s in %s", run.ID, opts.Database)
	}

	result := CompleteResult{
		RunID:       run.ID,
		TraceHash:   run.TraceHash,
		Parameters:  parameterValues(c.Root, c.Label),
		Derivations: len(run.Derivations),
		Outcomes:    run.Outcomes,
	}
	if formatter.JSON() {
		return formatter.Success(result)
	}
	return outputCompleteText(formatter, result)
}

func outputCompleteText(f *OutputFormatter, r CompleteResult) error {
	w := f.Writer
	for _, p := range r.Parameters {
		fmt.Fprintf(w, "%s.%s = %s\n", p.Process, p.Parameter, p.Value)
	}

	failed := 0
	for _, o := range r.Outcomes {
		switch o.Status {
		case ir.StatusFailed:
			failed++
			fmt.Fprintf(w, "%s %s: %s (fallback: %s)\n", markFail, o.Node, o.Error, o.FallbackError)
		case ir.StatusFallback:
			fmt.Fprintf(w, "! %s completed by parent strategy: %s\n", o.Node, o.Error)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%d derivation(s), %d failed node(s)\n", r.Derivations, failed)
	if r.RunID != "" {
		fmt.Fprintf(w, "Run: %s\n", r.RunID)
	}
	return nil
}

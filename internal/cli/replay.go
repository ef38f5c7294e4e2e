package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/spf13/cobra"

	"github.com/roach88/pathfill/internal/ir"
	"github.com/roach88/pathfill/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
}

// ReplayRunResult holds the replay result for a single run.
type ReplayRunResult struct {
	RunID         string `json:"run_id"`
	Derivations   int    `json:"derivations"`
	TraceHash     string `json:"trace_hash"`
	ReplayHash    string `json:"replay_hash"`
	Deterministic bool   `json:"deterministic"`
	Diff          string `json:"diff,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Runs             []ReplayRunResult `json:"runs"`
	TotalRuns        int               `json:"total_runs"`
	AllDeterministic bool              `json:"all_deterministic"`
}

// Seqs and ids depend on where the clock stood when the run was recorded.
var replayCompare = []cmp.Option{
	cmpopts.IgnoreFields(ir.Derivation{}, "ID", "Seq"),
	cmpopts.IgnoreFields(ir.Outcome{}, "Seq"),
	cmpopts.EquateEmpty(),
	cmp.Comparer(ir.Equal),
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay [run-id]",
		Short: "Re-run recorded completions and verify determinism",
		Long: `Re-run recorded completions from their stored study, pipeline,
attributes and parameters, and compare the new derivations and node
outcomes with the recorded ones. Seqs and ids are not compared.

Exit codes:
  0 - Every run reproduced exactly
  1 - At least one run differs
  2 - Command error (database not found, etc.)

Examples:
  pathfill replay --db history.db
  pathfill replay --db history.db 0191f3c2-7b1e-7c3a-9d2e-4f5a6b7c8d9e
  pathfill replay --db history.db --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "history database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runReplay(opts *ReplayOptions, args []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	ctx := cmd.Context()

	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.commandError(ErrCodeHistory, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	var ids []string
	if len(args) == 1 {
		ids = args
	} else {
		runs, err := st.ListRuns(ctx)
		if err != nil {
			return formatter.commandError(ErrCodeHistory, "failed to list runs", err)
		}
		for _, r := range runs {
			ids = append(ids, r.ID)
		}
	}

	result := ReplayResult{
		Runs:             make([]ReplayRunResult, 0, len(ids)),
		TotalRuns:        len(ids),
		AllDeterministic: true,
	}
	for _, id := range ids {
		recorded, err := st.ReadRun(ctx, id)
		if errors.Is(err, store.ErrRunNotFound) {
			_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("run %s not found", id), nil)
			return WrapExitError(ExitFailure, ErrCodeNotFound+": run not found", err)
		}
		if err != nil {
			return formatter.commandError(ErrCodeHistory, fmt.Sprintf("failed to read run %s", id), err)
		}

		c, err := runCompletion(ctx, formatter, completionRequest{
			StudyPath:    recorded.StudyPath,
			PipelinePath: recorded.PipelinePath,
			Name:         recorded.Name,
			Attributes:   recorded.Attributes,
			Parameters:   recorded.Parameters,
		})
		if err != nil {
			return err
		}
		replayed, err := c.Report.Record(ir.Run{})
		if err != nil {
			return formatter.commandError(ErrCodeComplete, "failed to record replay", err)
		}

		rr := compareRuns(recorded, replayed)
		formatter.VerboseLog("Replayed %s: deterministic=%v", id, rr.Deterministic)
		if !rr.Deterministic {
			result.AllDeterministic = false
		}
		result.Runs = append(result.Runs, rr)
	}

	if formatter.JSON() {
		if !result.AllDeterministic {
			_ = formatter.Failure(result, ErrCodeMismatch, "replay differs from recorded history")
			return NewExitError(ExitFailure, "replay differs from recorded history")
		}
		return formatter.Success(result)
	}
	return outputReplayText(formatter, result)
}

// compareRuns checks a replayed run against the recorded one.
func compareRuns(recorded, replayed ir.Run) ReplayRunResult {
	diff := cmp.Diff(recorded.Derivations, replayed.Derivations, replayCompare...)
	diff += cmp.Diff(recorded.Outcomes, replayed.Outcomes, replayCompare...)
	return ReplayRunResult{
		RunID:         recorded.ID,
		Derivations:   len(recorded.Derivations),
		TraceHash:     recorded.TraceHash,
		ReplayHash:    replayed.TraceHash,
		Deterministic: diff == "" && recorded.TraceHash == replayed.TraceHash,
		Diff:          diff,
	}
}

func outputReplayText(f *OutputFormatter, result ReplayResult) error {
	w := f.Writer

	if result.TotalRuns == 0 {
		fmt.Fprintln(w, "No runs found in database.")
		return nil
	}

	fmt.Fprintf(w, "Replay Summary: %d run(s)\n", result.TotalRuns)
	fmt.Fprintln(w)

	for _, r := range result.Runs {
		status := markOK
		if !r.Deterministic {
			status = markFail
		}
		fmt.Fprintf(w, "%s Run: %s (%d derivation(s))\n", status, r.RunID, r.Derivations)
		if !r.Deterministic {
			fmt.Fprintf(w, "  recorded %s, replayed %s\n", r.TraceHash, r.ReplayHash)
			if f.Verbose && r.Diff != "" {
				fmt.Fprintf(w, "  (-recorded +replayed):\n%s\n", r.Diff)
			}
		}
	}
	fmt.Fprintln(w)

	if result.AllDeterministic {
		fmt.Fprintf(w, "%s All runs reproduced\n", markOK)
		return nil
	}
	fmt.Fprintf(w, "%s Replay differs from recorded history\n", markFail)
	return NewExitError(ExitFailure, "replay differs from recorded history")
}

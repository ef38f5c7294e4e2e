package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/pathfill/internal/ir"
	"github.com/roach88/pathfill/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recorded runs or show one run",
		Long: `Without arguments, list every run in the history database, oldest
first. With a run id, show that run's derivations and node outcomes in
seq order.

Examples:
  pathfill history --db history.db
  pathfill history --db history.db 0191f3c2-7b1e-7c3a-9d2e-4f5a6b7c8d9e`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, args, cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "history database (required)")
	_ = cmd.MarkPersistentFlagRequired("db")

	cmd.AddCommand(newHistorySearchCommand(opts))

	return cmd
}

// HistorySearchOptions holds flags for history search.
type HistorySearchOptions struct {
	*HistoryOptions
	RunID     string
	Process   string
	Parameter string
	Value     string
}

func newHistorySearchCommand(historyOpts *HistoryOptions) *cobra.Command {
	opts := &HistorySearchOptions{HistoryOptions: historyOpts}

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Find derivations across recorded runs",
		Long: `List derivations from every recorded run that match all given
filters, in seq order. --process also matches nodes nested below it.

Examples:
  pathfill history search --db history.db --process morphologist.segment
  pathfill history search --db history.db --parameter t1 --value /in/subjects/S01/t1mri/default/S01.nii`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistorySearch(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.RunID, "run", "", "only this run")
	cmd.Flags().StringVar(&opts.Process, "process", "", "qualified node name")
	cmd.Flags().StringVar(&opts.Parameter, "parameter", "", "parameter name")
	cmd.Flags().StringVar(&opts.Value, "value", "", "exact derived value")

	return cmd
}

func runHistorySearch(opts *HistorySearchOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.commandError(ErrCodeHistory, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	filter := store.DerivationFilter{
		RunID:     opts.RunID,
		Process:   opts.Process,
		Parameter: opts.Parameter,
	}
	if cmd.Flags().Changed("value") {
		filter.Value = ir.IRString(opts.Value)
	}
	matches, err := st.SearchDerivations(cmd.Context(), filter)
	if err != nil {
		return formatter.commandError(ErrCodeHistory, "failed to search derivations", err)
	}

	if formatter.JSON() {
		return formatter.Success(matches)
	}
	if len(matches) == 0 {
		fmt.Fprintln(formatter.Writer, "No matching derivations.")
		return nil
	}
	for _, m := range matches {
		fmt.Fprintf(formatter.Writer, "%s  %4d  %s.%s = %s\n", m.RunID, m.Seq, m.Process, m.Parameter, ir.Text(m.Value))
	}
	return nil
}

func runHistory(opts *HistoryOptions, args []string, cmd *cobra.Command) error {
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

	if len(args) == 0 {
		runs, err := st.ListRuns(ctx)
		if err != nil {
			return formatter.commandError(ErrCodeHistory, "failed to list runs", err)
		}
		if formatter.JSON() {
			return formatter.Success(runs)
		}
		if len(runs) == 0 {
			fmt.Fprintln(formatter.Writer, "No runs recorded.")
			return nil
		}
		for _, r := range runs {
			fmt.Fprintf(formatter.Writer, "%s  %s  %s  %d derivation(s), %d failed\n",
				r.ID, r.CreatedAt, r.PipelinePath, r.Derivations, r.Failed)
		}
		return nil
	}

	run, err := st.ReadRun(ctx, args[0])
	if errors.Is(err, store.ErrRunNotFound) {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("run %s not found", args[0]), nil)
		return WrapExitError(ExitFailure, ErrCodeNotFound+": run not found", err)
	}
	if err != nil {
		return formatter.commandError(ErrCodeHistory, "failed to read run", err)
	}
	if formatter.JSON() {
		return formatter.Success(run)
	}
	outputRunText(formatter, run)
	return nil
}

func outputRunText(f *OutputFormatter, run ir.Run) {
	w := f.Writer
	fmt.Fprintf(w, "Run:      %s\n", run.ID)
	fmt.Fprintf(w, "Created:  %s\n", run.CreatedAt)
	fmt.Fprintf(w, "Study:    %s\n", run.StudyPath)
	fmt.Fprintf(w, "Pipeline: %s\n", run.PipelinePath)
	if run.Name != "" {
		fmt.Fprintf(w, "Name:     %s\n", run.Name)
	}
	fmt.Fprintf(w, "Trace:    %s\n", run.TraceHash)
	fmt.Fprintln(w)

	for _, e := range mergeBySeq(run) {
		fmt.Fprintln(w, e)
	}
}

// mergeBySeq renders derivations and outcomes as one seq-ordered log.
func mergeBySeq(run ir.Run) []string {
	var lines []string
	i, j := 0, 0
	for i < len(run.Derivations) || j < len(run.Outcomes) {
		if j >= len(run.Outcomes) || (i < len(run.Derivations) && run.Derivations[i].Seq < run.Outcomes[j].Seq) {
			d := run.Derivations[i]
			lines = append(lines, fmt.Sprintf("%4d  %s.%s = %s", d.Seq, d.Process, d.Parameter, ir.Text(d.Value)))
			i++
			continue
		}
		o := run.Outcomes[j]
		line := fmt.Sprintf("%4d  %s %s", o.Seq, o.Node, o.Status)
		if o.Error != "" {
			line += ": " + o.Error
		}
		lines = append(lines, line)
		j++
	}
	return lines
}

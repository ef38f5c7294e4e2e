package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/pathfill/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update   bool   // regenerate golden files
	Filter   string // scenario filter (glob pattern)
	Golden   string // golden directory, defaults to <scenarios-dir>/golden
	Parallel int
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run completion scenarios",
		Long: `Run scenario files through the completion engine, checking their
assertions and comparing each trace with its golden file when one exists.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  pathfill test ./scenarios
  pathfill test ./scenarios --filter "closed_*"
  pathfill test ./scenarios --golden ./golden --update
  pathfill test ./scenarios --parallel 4 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")
	cmd.Flags().StringVar(&opts.Golden, "golden", "", "golden file directory (default <scenarios-dir>/golden)")
	cmd.Flags().IntVar(&opts.Parallel, "parallel", 1, "scenarios to run at once")

	return cmd
}

func runTests(opts *TestOptions, scenariosDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if _, err := os.Stat(scenariosDir); err != nil {
		return formatter.commandError(ErrCodeNotFound, fmt.Sprintf("scenarios directory not found: %s", scenariosDir), nil)
	}
	goldenDir := opts.Golden
	if goldenDir == "" {
		goldenDir = filepath.Join(scenariosDir, "golden")
	}

	files, err := findScenarioFiles(scenariosDir, opts.Filter)
	if err != nil {
		return formatter.commandError(ErrCodeGeneric, "failed to find scenarios", err)
	}

	result := TestResult{
		Scenarios: make([]ScenarioResult, 0, len(files)),
		Total:     len(files),
	}
	if len(files) == 0 {
		if formatter.JSON() {
			return formatter.Success(result)
		}
		fmt.Fprintln(formatter.Writer, "No scenarios found.")
		return nil
	}

	// Load errors fail their scenario without stopping the rest.
	var (
		scenarios []*harness.Scenario
		loadFails = map[int]ScenarioResult{}
	)
	for i, f := range files {
		sc, err := harness.LoadScenario(f)
		if err != nil {
			loadFails[i] = ScenarioResult{
				Name:   filepath.Base(f),
				Errors: []string{fmt.Sprintf("failed to load scenario: %v", err)},
			}
			continue
		}
		scenarios = append(scenarios, sc)
	}
	entries := harness.RunAll(cmd.Context(), scenarios, opts.Parallel)

	next := 0
	for i := range files {
		sr, failed := loadFails[i]
		if !failed {
			sr = checkScenario(entries[next], goldenDir, opts.Update)
			next++
		}
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
		result.Scenarios = append(result.Scenarios, sr)
	}

	if formatter.JSON() {
		if result.Failed > 0 {
			msg := fmt.Sprintf("%d scenario(s) failed", result.Failed)
			_ = formatter.Failure(result, ErrCodeTestsFail, msg)
			return NewExitError(ExitFailure, msg)
		}
		return formatter.Success(result)
	}
	return outputTestText(formatter, result, opts.Update)
}

// findScenarioFiles finds all YAML scenario files directly in dir or below
// it, skipping the golden directory.
func findScenarioFiles(dir, filter string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && d.Name() == "golden" {
				return filepath.SkipDir
			}
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	return files, err
}

// checkScenario folds the run result and golden comparison into one
// pass/fail verdict.
func checkScenario(entry harness.SuiteEntry, goldenDir string, update bool) ScenarioResult {
	sr := ScenarioResult{Name: entry.Scenario.Name}
	if entry.Err != nil {
		sr.Errors = []string{fmt.Sprintf("execution failed: %v", entry.Err)}
		return sr
	}

	data, err := harness.Snapshot(entry.Scenario.Name, entry.Result.Trace)
	if err != nil {
		sr.Errors = []string{fmt.Sprintf("failed to snapshot trace: %v", err)}
		return sr
	}
	goldenPath := filepath.Join(goldenDir, entry.Scenario.Name+".golden")

	if update {
		if err := os.MkdirAll(goldenDir, 0o755); err != nil {
			sr.Errors = []string{fmt.Sprintf("failed to create golden directory: %v", err)}
			return sr
		}
		if err := os.WriteFile(goldenPath, data, 0o644); err != nil {
			sr.Errors = []string{fmt.Sprintf("failed to write golden file: %v", err)}
			return sr
		}
	} else {
		want, err := os.ReadFile(goldenPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// Assertions alone decide.
		case err != nil:
			sr.Errors = append(sr.Errors, fmt.Sprintf("failed to read golden file: %v", err))
		case !bytes.Equal(want, data):
			sr.Errors = append(sr.Errors, "trace does not match golden file (run with --update to regenerate)")
		}
	}

	sr.Errors = append(sr.Errors, entry.Result.Errors...)
	sr.Pass = len(sr.Errors) == 0
	return sr
}

func outputTestText(f *OutputFormatter, result TestResult, update bool) error {
	w := f.Writer
	for _, sr := range result.Scenarios {
		if sr.Pass {
			suffix := ""
			if update {
				suffix = " (golden updated)"
			}
			fmt.Fprintf(w, "%s %s%s\n", markOK, sr.Name, suffix)
			continue
		}
		fmt.Fprintf(w, "%s %s\n", markFail, sr.Name)
		for _, e := range sr.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	fmt.Fprintf(w, "%s All scenarios passed\n", markOK)
	return nil
}

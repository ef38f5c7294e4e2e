package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/pathfill/internal/compiler"
	"github.com/roach88/pathfill/internal/engine"
	"github.com/roach88/pathfill/internal/fomstrategy"
	"github.com/roach88/pathfill/internal/ir"
	"github.com/roach88/pathfill/internal/process"
	"github.com/roach88/pathfill/internal/study"
)

// Error code constants shared by the table commands live in the compiler;
// these cover the remaining CLI failures.
const (
	ErrCodeGeneric   = compiler.ErrCodeGeneric
	ErrCodeNotFound  = compiler.ErrCodeNotFound
	ErrCodeWrite     = compiler.ErrCodeWriteFailed
	ErrCodeStudy     = "E201" // Study could not be opened
	ErrCodePipeline  = "E202" // Pipeline definition invalid
	ErrCodeComplete  = "E203" // Completion aborted
	ErrCodeHistory   = "E204" // History store error
	ErrCodeUnparsed  = "E205" // Path matches no rule
	ErrCodeMismatch  = "E_REPLAY_MISMATCH"
	ErrCodeTestsFail = "E_TEST_FAILED"
)

// loadErrorCode returns the code of a compiler load error, or the generic
// code for anything else.
func loadErrorCode(err error) string {
	var loadErr *compiler.LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code
	}
	return ErrCodeGeneric
}

// parseAssignments turns repeated k=v flags into an object. Values stay
// strings; template attributes are text.
func parseAssignments(flag string, values []string) (ir.IRObject, error) {
	obj := make(ir.IRObject, len(values))
	for _, kv := range values {
		k, v, ok := strings.Cut(kv, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("--%s %q: expected key=value", flag, kv)
		}
		obj[k] = ir.IRString(v)
	}
	return obj, nil
}

// completionRequest is everything needed to run one completion.
type completionRequest struct {
	StudyPath    string
	PipelinePath string
	Name         string
	Attributes   ir.IRObject
	Parameters   ir.IRObject
	FromFile     string
	StartSeq     int64
}

// completion is a finished completion with the tree it filled in.
type completion struct {
	Study  *study.Config
	Root   engine.Process
	Report *engine.Report

	// Label qualifies the root in output, matching derivation names.
	Label string

	// FileAttributes are the attributes recovered from FromFile.
	FileAttributes ir.IRObject
}

// runCompletion loads the study and pipeline, resolves the root strategy
// from a fresh registry and completes the tree. Failures are reported
// through f and returned as ExitErrors.
func runCompletion(ctx context.Context, f *OutputFormatter, req completionRequest) (*completion, error) {
	cfg, err := compiler.OpenStudy(req.StudyPath)
	if err != nil {
		return nil, f.commandError(ErrCodeStudy, "failed to open study", err)
	}
	root, err := process.LoadFile(req.PipelinePath)
	if err != nil {
		return nil, f.commandError(ErrCodePipeline, "failed to load pipeline", err)
	}

	registry := engine.NewRegistry()
	fomstrategy.Register(registry)
	eng := engine.New(
		engine.WithRegistry(registry),
		engine.WithClock(engine.NewClockAt(req.StartSeq)),
	)

	s, err := registry.Strategy(root, cfg, req.Name)
	if err != nil {
		return nil, f.commandError(ErrCodeComplete, "failed to resolve strategy", err)
	}

	c := &completion{Study: cfg, Root: root, Label: s.Name()}
	if c.Label == "" {
		c.Label = root.Name()
	}
	if req.FromFile != "" {
		fs, ok := s.(*fomstrategy.Strategy)
		if !ok {
			return nil, f.commandError(ErrCodeComplete, fmt.Sprintf("--from needs a template strategy for %s", root.Name()), nil)
		}
		if c.FileAttributes, err = fs.PathAttributes(root, req.FromFile); err != nil {
			return nil, f.commandError(ErrCodeUnparsed, "failed to read attributes from path", err)
		}
	}

	rep, err := eng.Complete(ctx, s, root, engine.Inputs{
		Parameters: req.Parameters,
		Attributes: req.Attributes,
	})
	if err != nil {
		_ = f.Error(ErrCodeComplete, fmt.Sprintf("completion aborted: %v", err), nil)
		return nil, WrapExitError(ExitFailure, ErrCodeComplete+": completion aborted", err)
	}
	c.Report = rep
	return c, nil
}

// parameterValues lists every parameter of the tree with its value,
// qualified by node path from the root. Unset parameters are left out.
func parameterValues(root engine.Process, prefix string) []ParameterValue {
	var out []ParameterValue
	for _, name := range root.ParameterNames() {
		v, ok := root.Get(name)
		if !ok || v == nil {
			continue
		}
		out = append(out, ParameterValue{
			Process:   prefix,
			Parameter: name,
			Value:     ir.Text(v),
			Output:    root.IsOutput(name),
		})
	}
	c, ok := root.(engine.Composite)
	if !ok {
		return out
	}
	nodes, err := c.TopologicalNodes()
	if err != nil {
		return out
	}
	for _, n := range nodes {
		if n.Process == nil {
			continue
		}
		out = append(out, parameterValues(n.Process, prefix+"."+n.Name)...)
	}
	return out
}

// ParameterValue is one filled parameter in command output.
type ParameterValue struct {
	Process   string `json:"process"`
	Parameter string `json:"parameter"`
	Value     string `json:"value"`
	Output    bool   `json:"output,omitempty"`
}

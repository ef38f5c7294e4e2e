package engine

import (
	"errors"
	"fmt"
	"strings"
)

// RuntimeError represents an error detected during completion.
//
// Runtime errors include:
//   - Configuration mismatch: process already bound to another study
//   - Lookup failure: no template table knows the process
//   - Registry exhausted: no factory produced a strategy
//   - Depth exceeded: nested pipelines deeper than the engine allows
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Process is the qualified name of the affected process.
	Process string

	// Details contains additional context.
	Details map[string]string
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeConfigurationMismatch indicates a process is bound to a different study.
	ErrCodeConfigurationMismatch RuntimeErrorCode = "CONFIGURATION_MISMATCH"

	// ErrCodeLookup indicates none of a process's candidate names is known.
	ErrCodeLookup RuntimeErrorCode = "LOOKUP_FAILED"

	// ErrCodeRegistryExhausted indicates every factory declined.
	ErrCodeRegistryExhausted RuntimeErrorCode = "REGISTRY_EXHAUSTED"

	// ErrCodeDepthExceeded indicates pipelines nested past the depth limit.
	ErrCodeDepthExceeded RuntimeErrorCode = "DEPTH_EXCEEDED"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Process != "" {
		return fmt.Sprintf("%s: %s (process=%s)", e.Code, e.Message, e.Process)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func hasCode(err error, code RuntimeErrorCode) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// IsConfigurationMismatch reports whether err is a configuration mismatch.
func IsConfigurationMismatch(err error) bool {
	return hasCode(err, ErrCodeConfigurationMismatch)
}

// IsLookupError reports whether err is a name lookup failure.
func IsLookupError(err error) bool {
	return hasCode(err, ErrCodeLookup)
}

// IsRegistryExhausted reports whether err came from a registry that produced no strategy.
func IsRegistryExhausted(err error) bool {
	return hasCode(err, ErrCodeRegistryExhausted)
}

// IsDepthExceeded reports whether err is a depth limit error.
func IsDepthExceeded(err error) bool {
	return hasCode(err, ErrCodeDepthExceeded)
}

// NewLookupError creates a RuntimeError listing every name that was tried.
func NewLookupError(process string, tried []string) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeLookup,
		Message: fmt.Sprintf("no template table defines any of %s", strings.Join(quoteAll(tried), ", ")),
		Process: process,
		Details: map[string]string{
			"tried": strings.Join(tried, ","),
		},
	}
}

func newMismatchError(process, bound, requested string) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeConfigurationMismatch,
		Message: "process is bound to a different study",
		Process: process,
		Details: map[string]string{
			"bound":     bound,
			"requested": requested,
		},
	}
}

func newExhaustedError(process string) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeRegistryExhausted,
		Message: "no registered factory produced a strategy",
		Process: process,
	}
}

func quoteAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = fmt.Sprintf("%q", n)
	}
	return out
}

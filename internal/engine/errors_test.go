package engine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuntimeError_Format(t *testing.T) {
	withProcess := &RuntimeError{Code: ErrCodeLookup, Message: "nope", Process: "pipe.a"}
	assert.Equal(t, "LOOKUP_FAILED: nope (process=pipe.a)", withProcess.Error())

	bare := &RuntimeError{Code: ErrCodeRegistryExhausted, Message: "empty"}
	assert.Equal(t, "REGISTRY_EXHAUSTED: empty", bare.Error())
}

func TestRuntimeError_HelpersSeeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("resolve: %w", NewLookupError("pipe.a", []string{"pipe.a", "mod.a", "a"}))

	assert.True(t, IsLookupError(err))
	assert.False(t, IsConfigurationMismatch(err))
	assert.False(t, IsDepthExceeded(err))
	assert.False(t, IsRegistryExhausted(errors.New("plain")))
}

func TestNewLookupError_ListsCandidates(t *testing.T) {
	err := NewLookupError("pipe.a", []string{"pipe.a", "mod.a", "a"})

	assert.Contains(t, err.Error(), `"pipe.a", "mod.a", "a"`)
	assert.Equal(t, "pipe.a,mod.a,a", err.Details["tried"])
}

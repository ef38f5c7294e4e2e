package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "pathfill", cmd.Use)
	assert.Contains(t, cmd.Short, "parameter completion")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"complete", "validate", "compile", "parse", "history", "replay", "test"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestCommandFlags(t *testing.T) {
	tests := []struct {
		command string
		flags   []string
	}{
		{"complete", []string{"study", "attr", "param", "name", "db", "from"}},
		{"compile", []string{"output"}},
		{"parse", []string{"study"}},
		{"history", []string{"db"}},
		{"history search", []string{"db", "run", "process", "parameter", "value"}},
		{"replay", []string{"db"}},
		{"test", []string{"update", "filter", "golden", "parallel"}},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			sub, _, err := NewRootCommand().Find(strings.Fields(tt.command))
			require.NoError(t, err)
			for _, name := range tt.flags {
				assert.NotNil(t, sub.Flag(name), "flag --%s", name)
			}
		})
	}
}

func TestCompileOutputShorthand(t *testing.T) {
	sub, _, err := NewRootCommand().Find([]string{"compile"})
	require.NoError(t, err)
	assert.Equal(t, "o", sub.Flags().Lookup("output").Shorthand)
}

func TestRequiredFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		flag string
	}{
		{"complete", []string{"complete", fixturePipeline}, "study"},
		{"parse", []string{"parse", "/in/x.nii"}, "study"},
		{"history", []string{"history"}, "db"},
		{"replay", []string{"replay"}, "db"},
		{"history search", []string{"history", "search"}, "db"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.flag)
		})
	}
}

func TestFormatValidation(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	_, _, err := execute(t, "--format", "invalid", "compile", ".")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

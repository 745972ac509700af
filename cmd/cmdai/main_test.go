package main

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCmdaiCommand(t *testing.T) {
	cmd := NewCmdaiCommand()

	require.NotNil(t, cmd)

	assert.Equal(t, "cmdai", cmd.Use)
	assert.True(t, cmd.HasSubCommands())
	assert.True(t, cmd.HasAvailableSubCommands())

	assert.Nil(t, cmd.Run)
	assert.Nil(t, cmd.RunE)

	// Every persisted config field is overridable from the command line.
	for _, flag := range []string{
		"safety-level",
		"shell",
		"model",
		"log-level",
		"cache-max-size-gb",
		"log-rotation-days",
	} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), "missing flag %q", flag)
	}

	allowedCommands := []string{
		"cache",
		"config",
		"context",
		"status",
		"version",
	}

	subcommands := cmd.Commands()
	assert.Len(t, subcommands, len(allowedCommands))

	for _, subcmd := range subcommands {
		found := slices.Contains(allowedCommands, subcmd.Name())
		assert.True(t, found, "unexpected subcommand %q", subcmd.Name())

		assert.False(t, subcmd.Hidden)
	}
}

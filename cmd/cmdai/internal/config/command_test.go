package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigCommand(t *testing.T) {
	cmd := NewConfigCommand()

	require.NotNil(t, cmd)

	assert.Equal(t, "config", cmd.Use)
	assert.True(t, cmd.HasSubCommands())
	assert.True(t, cmd.HasExample())

	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
		assert.NotNil(t, sub.RunE)
		assert.Nil(t, sub.Run)
	}
	for _, want := range []string{"show", "path", "init", "migrate"} {
		assert.True(t, names[want], "missing subcommand %q", want)
	}
}

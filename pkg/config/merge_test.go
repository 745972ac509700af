package config

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wildcard/cmdai/pkg/types"
)

func TestMergeWithCLIArgsPrecedence(t *testing.T) {
	cfg := Default()
	cfg.General.SafetyLevel = types.SafetyModerate

	strict := types.SafetyStrict
	merged := MergeWithCLIArgs(cfg, CLIOverrides{SafetyLevel: &strict})
	assert.Equal(t, types.SafetyStrict, merged.General.SafetyLevel)

	// Untouched fields come from the loaded config.
	assert.Equal(t, cfg.Logging, merged.Logging)
	assert.Equal(t, cfg.Cache, merged.Cache)
}

func TestMergeWithCLIArgsIdempotent(t *testing.T) {
	cfg := Default()

	strict := types.SafetyStrict
	days := 14
	model := "acme/tiny"
	args := CLIOverrides{
		SafetyLevel:     &strict,
		LogRotationDays: &days,
		DefaultModel:    &model,
	}

	once := MergeWithCLIArgs(cfg, args)
	twice := MergeWithCLIArgs(once, args)
	assert.Equal(t, once, twice)
}

func TestMergeWithCLIArgsEmptyIsIdentity(t *testing.T) {
	cfg := Default()
	cfg.General.DefaultShell = types.ShellFish

	merged := MergeWithCLIArgs(cfg, CLIOverrides{})
	assert.Equal(t, cfg, merged)
}

func TestMergeDoesNotMutateInput(t *testing.T) {
	cfg := Default()
	level := types.LevelError
	_ = MergeWithCLIArgs(cfg, CLIOverrides{LogLevel: &level})
	assert.Equal(t, types.LevelInfo, cfg.Logging.LogLevel)
}

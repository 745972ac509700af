package config

import "github.com/wildcard/cmdai/pkg/types"

// CLIOverrides carries command-line supplied values. A nil field means the
// flag was not given and the loaded value stands.
type CLIOverrides struct {
	SafetyLevel     *types.SafetyLevel
	DefaultShell    *types.ShellKind
	DefaultModel    *string
	LogLevel        *types.LogLevel
	LogRotationDays *int
	CacheMaxSizeGB  *int
}

// MergeWithCLIArgs overlays args on top of cfg and returns the result.
// The merge is idempotent and per-field: merge(merge(c, a), a) == merge(c, a).
func MergeWithCLIArgs(cfg Config, args CLIOverrides) Config {
	out := cfg
	if args.SafetyLevel != nil {
		out.General.SafetyLevel = *args.SafetyLevel
	}
	if args.DefaultShell != nil {
		out.General.DefaultShell = *args.DefaultShell
	}
	if args.DefaultModel != nil {
		out.General.DefaultModel = *args.DefaultModel
	}
	if args.LogLevel != nil {
		out.Logging.LogLevel = *args.LogLevel
	}
	if args.LogRotationDays != nil {
		out.Logging.LogRotationDays = *args.LogRotationDays
	}
	if args.CacheMaxSizeGB != nil {
		out.Cache.MaxSizeGB = *args.CacheMaxSizeGB
	}
	return out
}

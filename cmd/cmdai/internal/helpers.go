package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/wildcard/cmdai/pkg/config"
	"github.com/wildcard/cmdai/pkg/logger"
	"github.com/wildcard/cmdai/pkg/types"
)

const AppName = "cmdai"

var (
	version   = "dev"
	gitCommit string
	buildTime string
	goVersion string
)

// FormatVersion returns the version string with optional git commit
func FormatVersion() string {
	v := version
	if gitCommit != "" {
		v += fmt.Sprintf(" (git: %s)", gitCommit)
	}
	return v
}

// FormatBuildInfo returns build time and go version info
func FormatBuildInfo() (string, string) {
	build := buildTime
	goVer := goVersion
	if goVer == "" {
		goVer = runtime.Version()
	}
	return build, goVer
}

// GetVersion returns the version string
func GetVersion() string {
	return version
}

// RegisterGlobalFlags attaches the configuration-override flags to the
// root command. Every persisted field has a corresponding flag.
func RegisterGlobalFlags(cmd *cobra.Command) {
	fl := cmd.PersistentFlags()
	fl.String("safety-level", "", "Safety level (strict, moderate, permissive)")
	fl.String("shell", "", "Target shell (bash, zsh, fish, powershell, cmd, sh)")
	fl.String("model", "", "Default model identifier")
	fl.String("log-level", "", "Log level (debug, info, warn, error)")
	fl.Int("cache-max-size-gb", 0, "Cache budget in GiB (1-1000)")
	fl.Int("log-rotation-days", 0, "Log retention in days (1-365)")
	fl.String("log-format", "", "Log format (json, pretty)")
	fl.String("log-output", "", "Log sink: stdout, stderr, file, or a directory")
	fl.String("log-rotation", "", "Log rotation policy (never, hourly, daily, weekly)")
}

// ResolveConfig produces the effective configuration for a command run:
// profile from disk, CMDAI_* environment overlay, then flag overrides.
// The result is validated before being returned.
func ResolveConfig(cmd *cobra.Command) (config.Config, error) {
	path, err := config.DefaultPath()
	if err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load(path, slog.Default())
	if err != nil {
		return config.Config{}, err
	}
	if err := config.ApplyEnv(&cfg); err != nil {
		return config.Config{}, err
	}

	overrides, err := overridesFromFlags(cmd)
	if err != nil {
		return config.Config{}, err
	}
	cfg = config.MergeWithCLIArgs(cfg, overrides)

	if err := config.Validate(cfg); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func overridesFromFlags(cmd *cobra.Command) (config.CLIOverrides, error) {
	var o config.CLIOverrides
	fl := cmd.Flags()

	if fl.Changed("safety-level") {
		raw, _ := fl.GetString("safety-level")
		lvl, err := types.ParseSafetyLevel(raw)
		if err != nil {
			return o, err
		}
		o.SafetyLevel = &lvl
	}
	if fl.Changed("shell") {
		raw, _ := fl.GetString("shell")
		kind, err := types.ParseShellKind(raw)
		if err != nil {
			return o, err
		}
		o.DefaultShell = &kind
	}
	if fl.Changed("model") {
		raw, _ := fl.GetString("model")
		o.DefaultModel = &raw
	}
	if fl.Changed("log-level") {
		raw, _ := fl.GetString("log-level")
		lvl, err := types.ParseLogLevel(raw)
		if err != nil {
			return o, err
		}
		o.LogLevel = &lvl
	}
	if fl.Changed("cache-max-size-gb") {
		n, _ := fl.GetInt("cache-max-size-gb")
		o.CacheMaxSizeGB = &n
	}
	if fl.Changed("log-rotation-days") {
		n, _ := fl.GetInt("log-rotation-days")
		o.LogRotationDays = &n
	}
	return o, nil
}

// InitLogging installs the process logger from the effective config and
// the sink flags. A second initialization in the same process is fine.
func InitLogging(cmd *cobra.Command, cfg config.Config) error {
	fl := cmd.Flags()

	lcfg := logger.DefaultConfig()
	lcfg.Level = cfg.Logging.LogLevel
	lcfg.RetentionDays = cfg.Logging.LogRotationDays

	if fl.Changed("log-format") {
		raw, _ := fl.GetString("log-format")
		format, err := types.ParseLogFormat(raw)
		if err != nil {
			return err
		}
		lcfg.Format = format
	}
	if fl.Changed("log-output") {
		out, _ := fl.GetString("log-output")
		// "file" selects the platform log directory; anything else that
		// is not a stream name is used as the directory itself.
		if out == "file" {
			dir, err := logger.DefaultLogDir()
			if err != nil {
				return err
			}
			out = dir
		}
		lcfg.Output = out
	}
	if fl.Changed("log-rotation") {
		raw, _ := fl.GetString("log-rotation")
		policy, err := types.ParseRotationPolicy(raw)
		if err != nil {
			return err
		}
		lcfg.RotationPolicy = policy
	}

	err := logger.Init(lcfg)
	if errors.Is(err, logger.ErrAlreadyInitialized) {
		return nil
	}
	return err
}

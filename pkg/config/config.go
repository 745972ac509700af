// Package config loads and persists the user profile: a small TOML document
// merged with environment and command-line overrides under a strict
// precedence law (CLI > environment > file > default).
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"

	"github.com/wildcard/cmdai/pkg/types"
)

const appDirName = "cmdai"

// Config is the persisted user profile. A loaded value is immutable;
// changes are always made on a fresh copy handed to Save.
type Config struct {
	General GeneralConfig `toml:"general"`
	Logging LoggingConfig `toml:"logging"`
	Cache   CacheConfig   `toml:"cache"`
}

// GeneralConfig holds assistant-wide preferences.
type GeneralConfig struct {
	SafetyLevel  types.SafetyLevel `toml:"safety_level" env:"CMDAI_SAFETY_LEVEL" validate:"required,oneof=strict moderate permissive"`
	DefaultShell types.ShellKind   `toml:"default_shell,omitempty" env:"CMDAI_DEFAULT_SHELL" validate:"omitempty,oneof=bash zsh fish powershell cmd sh"`
	DefaultModel string            `toml:"default_model,omitempty" env:"CMDAI_DEFAULT_MODEL"`
}

// LoggingConfig holds the observability knobs that survive between runs.
type LoggingConfig struct {
	LogLevel        types.LogLevel `toml:"log_level" env:"CMDAI_LOG_LEVEL" validate:"required,oneof=debug info warn error"`
	LogRotationDays int            `toml:"log_rotation_days" env:"CMDAI_LOG_ROTATION_DAYS" validate:"min=1,max=365"`
}

// CacheConfig holds the model cache budget.
type CacheConfig struct {
	MaxSizeGB int `toml:"max_size_gb" env:"CMDAI_CACHE_MAX_SIZE_GB" validate:"min=1,max=1000"`
}

// Default returns the compiled-in configuration used when no profile
// exists on disk.
func Default() Config {
	return Config{
		General: GeneralConfig{
			SafetyLevel: types.SafetyModerate,
		},
		Logging: LoggingConfig{
			LogLevel:        types.LevelInfo,
			LogRotationDays: 7,
		},
		Cache: CacheConfig{
			MaxSizeGB: 10,
		},
	}
}

// DefaultPath returns the platform config file location:
// $XDG_CONFIG_HOME/cmdai/config.toml on POSIX, %APPDATA%\cmdai\config.toml
// on Windows.
func DefaultPath() (string, error) {
	if runtime.GOOS == "windows" {
		base, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("resolving config directory: %w", err)
		}
		return filepath.Join(base, appDirName, "config.toml"), nil
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appDirName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".config", appDirName, "config.toml"), nil
}

// knownSections are the top-level TOML tables the profile understands.
// Anything else is ignored with a warning so newer profiles still load.
var knownSections = map[string]bool{
	"general": true,
	"logging": true,
	"cache":   true,
}

// deprecatedKeys maps section -> old key -> replacement key.
var deprecatedKeys = map[string]map[string]string{
	"general": {"safety": "safety_level"},
	"logging": {"level": "log_level"},
	"cache":   {"max_size": "max_size_gb"},
}

// Load reads the profile at path. A missing file is not an error: the
// compiled defaults are returned. Unknown top-level sections and deprecated
// keys are reported through log and otherwise tolerated.
func Load(path string, log *slog.Logger) (Config, error) {
	if log == nil {
		log = slog.Default()
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}

	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return Config{}, wrapSyntaxError(path, err)
	}
	for section := range raw {
		if !knownSections[section] {
			log.Warn("ignoring unknown config section", "target", "config", "section", section)
		}
	}

	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, wrapSyntaxError(path, err)
	}

	applyDeprecated(&cfg, raw, log)
	return cfg, nil
}

// applyDeprecated resolves deprecated keys to their replacements. The new
// key wins if both are present.
func applyDeprecated(cfg *Config, raw map[string]any, log *slog.Logger) {
	for section, renames := range deprecatedKeys {
		table, ok := raw[section].(map[string]any)
		if !ok {
			continue
		}
		for oldKey, newKey := range renames {
			val, present := table[oldKey]
			if !present {
				continue
			}
			log.Warn("deprecated config key",
				"target", "config",
				"key", section+"."+oldKey,
				"replacement", section+"."+newKey)
			if _, hasNew := table[newKey]; hasNew {
				continue
			}
			setDeprecatedValue(cfg, section, newKey, val)
		}
	}
}

func setDeprecatedValue(cfg *Config, section, key string, val any) {
	switch section + "." + key {
	case "general.safety_level":
		if s, ok := val.(string); ok {
			if lvl, err := types.ParseSafetyLevel(s); err == nil {
				cfg.General.SafetyLevel = lvl
			}
		}
	case "logging.log_level":
		if s, ok := val.(string); ok {
			if lvl, err := types.ParseLogLevel(s); err == nil {
				cfg.Logging.LogLevel = lvl
			}
		}
	case "cache.max_size_gb":
		if n, ok := val.(int64); ok {
			cfg.Cache.MaxSizeGB = int(n)
		}
	}
}

// ApplyEnv overlays CMDAI_* environment variables onto cfg. Environment
// values sit between the file and CLI arguments in precedence.
func ApplyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parsing environment overrides: %w", err)
	}
	return nil
}

// Save persists cfg atomically: serialize, write a sibling temp file,
// fsync, rename over the destination. A crash mid-save never corrupts an
// existing profile. The parent directory is created 0700, the file 0600.
func Save(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".config-*.toml")
	if err != nil {
		return fmt.Errorf("creating temp config: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp config: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing temp config: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("setting config permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp config: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("installing config: %w", err)
	}
	return nil
}

// MigrateFile rewrites deprecated keys in the profile on disk to their
// replacements. Returns true when the file was changed.
func MigrateFile(path string, log *slog.Logger) (bool, error) {
	if log == nil {
		log = slog.Default()
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading config %s: %w", path, err)
	}

	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false, wrapSyntaxError(path, err)
	}

	changed := false
	for section, renames := range deprecatedKeys {
		table, ok := raw[section].(map[string]any)
		if !ok {
			continue
		}
		for oldKey, newKey := range renames {
			val, present := table[oldKey]
			if !present {
				continue
			}
			if _, hasNew := table[newKey]; !hasNew {
				table[newKey] = val
			}
			delete(table, oldKey)
			changed = true
			log.Info("migrated config key",
				"target", "config",
				"from", section+"."+oldKey,
				"to", section+"."+newKey)
		}
	}
	if !changed {
		return false, nil
	}

	out, err := toml.Marshal(raw)
	if err != nil {
		return false, fmt.Errorf("encoding migrated config: %w", err)
	}
	tmp := path + ".migrate"
	if err := os.WriteFile(tmp, out, 0o600); err != nil {
		return false, fmt.Errorf("writing migrated config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return false, fmt.Errorf("installing migrated config: %w", err)
	}
	return true, nil
}

func wrapSyntaxError(path string, err error) error {
	var derr *toml.DecodeError
	if errors.As(err, &derr) {
		row, col := derr.Position()
		return &SyntaxError{Path: path, Line: row, Column: col, Err: err}
	}
	return &SyntaxError{Path: path, Err: err}
}

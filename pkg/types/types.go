// Package types holds the shared vocabulary of enumerated values used by
// the cache, config, context, and logging subsystems. Keeping them here
// means no leaf package has to import another leaf.
package types

import (
	"fmt"
	"strings"
)

// ShellKind identifies a known shell dialect.
type ShellKind string

const (
	ShellBash       ShellKind = "bash"
	ShellZsh        ShellKind = "zsh"
	ShellFish       ShellKind = "fish"
	ShellPowerShell ShellKind = "powershell"
	ShellCmd        ShellKind = "cmd"
	ShellSh         ShellKind = "sh"
)

// KnownShells lists every shell kind, in display order.
func KnownShells() []ShellKind {
	return []ShellKind{ShellBash, ShellZsh, ShellFish, ShellPowerShell, ShellCmd, ShellSh}
}

// ParseShellKind maps a shell name (or executable basename) to a ShellKind.
// "pwsh" is accepted as an alias for powershell.
func ParseShellKind(s string) (ShellKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bash":
		return ShellBash, nil
	case "zsh":
		return ShellZsh, nil
	case "fish":
		return ShellFish, nil
	case "powershell", "pwsh":
		return ShellPowerShell, nil
	case "cmd":
		return ShellCmd, nil
	case "sh":
		return ShellSh, nil
	}
	return "", fmt.Errorf("unknown shell %q (accepted: %s)", s, joinKinds(KnownShells()))
}

func (k ShellKind) String() string { return string(k) }

// PlatformKind identifies the host operating system family.
type PlatformKind string

const (
	PlatformLinux   PlatformKind = "linux"
	PlatformMacOS   PlatformKind = "macos"
	PlatformWindows PlatformKind = "windows"
)

// ParsePlatformKind maps a GOOS value to a PlatformKind.
func ParsePlatformKind(goos string) (PlatformKind, error) {
	switch goos {
	case "linux":
		return PlatformLinux, nil
	case "darwin", "macos":
		return PlatformMacOS, nil
	case "windows":
		return PlatformWindows, nil
	}
	return "", fmt.Errorf("unsupported platform %q", goos)
}

func (k PlatformKind) String() string { return string(k) }

// SafetyLevel controls how aggressively generated commands are vetted
// before being shown to the user.
type SafetyLevel string

const (
	SafetyStrict     SafetyLevel = "strict"
	SafetyModerate   SafetyLevel = "moderate"
	SafetyPermissive SafetyLevel = "permissive"
)

// KnownSafetyLevels lists every safety level, strictest first.
func KnownSafetyLevels() []SafetyLevel {
	return []SafetyLevel{SafetyStrict, SafetyModerate, SafetyPermissive}
}

// ParseSafetyLevel maps a string to a SafetyLevel.
func ParseSafetyLevel(s string) (SafetyLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "strict":
		return SafetyStrict, nil
	case "moderate":
		return SafetyModerate, nil
	case "permissive":
		return SafetyPermissive, nil
	}
	return "", fmt.Errorf("unknown safety level %q (accepted: %s)", s, joinKinds(KnownSafetyLevels()))
}

func (l SafetyLevel) String() string { return string(l) }

// LogLevel is the minimum severity of emitted log events.
// Levels are totally ordered: debug < info < warn < error.
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// KnownLogLevels lists every log level, least severe first.
func KnownLogLevels() []LogLevel {
	return []LogLevel{LevelDebug, LevelInfo, LevelWarn, LevelError}
}

// ParseLogLevel maps a string to a LogLevel. "warning" is accepted as an
// alias for warn.
func ParseLogLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return "", fmt.Errorf("unknown log level %q (accepted: %s)", s, joinKinds(KnownLogLevels()))
}

// Severity returns the ordering rank of the level. Unknown levels rank as
// info so a misconfigured logger errs toward emitting.
func (l LogLevel) Severity() int {
	switch l {
	case LevelDebug:
		return 0
	case LevelInfo:
		return 1
	case LevelWarn:
		return 2
	case LevelError:
		return 3
	}
	return 1
}

// Enabled reports whether an event at level l passes a configured minimum.
func (l LogLevel) Enabled(min LogLevel) bool {
	return l.Severity() >= min.Severity()
}

func (l LogLevel) String() string { return string(l) }

// LogFormat selects the rendered shape of log lines.
type LogFormat string

const (
	FormatJSON   LogFormat = "json"
	FormatPretty LogFormat = "pretty"
)

// ParseLogFormat maps a string to a LogFormat.
func ParseLogFormat(s string) (LogFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "pretty":
		return FormatPretty, nil
	}
	return "", fmt.Errorf("unknown log format %q (accepted: json, pretty)", s)
}

func (f LogFormat) String() string { return string(f) }

// RotationPolicy selects the time window after which a log file sink
// rolls over to a new date-stamped file.
type RotationPolicy string

const (
	RotateNever  RotationPolicy = "never"
	RotateHourly RotationPolicy = "hourly"
	RotateDaily  RotationPolicy = "daily"
	RotateWeekly RotationPolicy = "weekly"
)

// ParseRotationPolicy maps a string to a RotationPolicy.
func ParseRotationPolicy(s string) (RotationPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "never":
		return RotateNever, nil
	case "hourly":
		return RotateHourly, nil
	case "daily":
		return RotateDaily, nil
	case "weekly":
		return RotateWeekly, nil
	}
	return "", fmt.Errorf("unknown rotation policy %q (accepted: never, hourly, daily, weekly)", s)
}

func (p RotationPolicy) String() string { return string(p) }

func joinKinds[T ~string](kinds []T) string {
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = string(k)
	}
	return strings.Join(parts, ", ")
}

package execctx

import (
	"path/filepath"
	"strings"

	"github.com/wildcard/cmdai/pkg/types"
)

// DetectShell resolves the active shell in three stages: an explicit
// configured value, the SHELL environment variable, and (best-effort) the
// parent process executable name. The final fallback is sh, the POSIX
// baseline. Detection never fails.
func DetectShell(explicit types.ShellKind, getenv func(string) string) types.ShellKind {
	if explicit != "" {
		return explicit
	}

	if raw := getenv("SHELL"); raw != "" {
		if kind, ok := normalizeShellName(raw); ok {
			return kind
		}
	}

	if name, ok := parentProcessName(); ok {
		if kind, ok := normalizeShellName(name); ok {
			return kind
		}
	}

	return types.ShellSh
}

// normalizeShellName reduces a shell path or executable name to a known
// shell kind: strip directories, strip a trailing .exe, then match.
func normalizeShellName(raw string) (types.ShellKind, bool) {
	base := filepath.Base(strings.TrimSpace(raw))
	// Windows paths use backslashes, which filepath.Base only splits on
	// when running on Windows.
	if i := strings.LastIndex(base, `\`); i >= 0 {
		base = base[i+1:]
	}
	base = strings.TrimSuffix(strings.ToLower(base), ".exe")
	// A login shell may be spelled "-zsh".
	base = strings.TrimPrefix(base, "-")

	kind, err := types.ParseShellKind(base)
	if err != nil {
		return "", false
	}
	return kind, true
}

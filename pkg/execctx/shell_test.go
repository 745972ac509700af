package execctx

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wildcard/cmdai/pkg/types"
)

func envWith(shell string) func(string) string {
	return func(name string) string {
		if name == "SHELL" {
			return shell
		}
		return ""
	}
}

func TestDetectShellExplicitWins(t *testing.T) {
	got := DetectShell(types.ShellFish, envWith("/bin/bash"))
	assert.Equal(t, types.ShellFish, got)
}

func TestDetectShellFromEnvironment(t *testing.T) {
	cases := map[string]types.ShellKind{
		"/bin/bash":           types.ShellBash,
		"/usr/bin/zsh":        types.ShellZsh,
		"/usr/local/bin/fish": types.ShellFish,
		"pwsh.exe":            types.ShellPowerShell,
		"C:\\Windows\\System32\\cmd.exe": types.ShellCmd,
		"-zsh": types.ShellZsh,
	}
	for raw, want := range cases {
		assert.Equal(t, want, DetectShell("", envWith(raw)), "SHELL=%s", raw)
	}
}

func TestDetectShellFallbackIsSh(t *testing.T) {
	// An unrecognized shell lands on the POSIX baseline.
	assert.Equal(t, types.ShellSh, DetectShell("", envWith("/opt/weirdshell")))
}

func TestNormalizeShellName(t *testing.T) {
	kind, ok := normalizeShellName("POWERSHELL.EXE")
	assert.True(t, ok)
	assert.Equal(t, types.ShellPowerShell, kind)

	_, ok = normalizeShellName("")
	assert.False(t, ok)
}

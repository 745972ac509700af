package execctx

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wildcard/cmdai/pkg/types"
)

func TestCapturePopulatesSnapshot(t *testing.T) {
	ctx, err := Capture()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(ctx.WorkingDir(), "/") || strings.Contains(ctx.WorkingDir(), ":\\"))
	assert.NotEmpty(t, ctx.Shell())
	assert.NotEmpty(t, ctx.Platform())
	assert.NotEmpty(t, ctx.Username())
	assert.NotEmpty(t, ctx.Hostname())
	assert.WithinDuration(t, time.Now().UTC(), ctx.CapturedAt(), 5*time.Second)
}

func TestCaptureIsFast(t *testing.T) {
	start := time.Now()
	_, err := Capture()
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestCaptureWithShellHonoursExplicit(t *testing.T) {
	t.Setenv("SHELL", "/bin/bash")

	ctx, err := CaptureWithShell(types.ShellFish)
	require.NoError(t, err)
	assert.Equal(t, types.ShellFish, ctx.Shell())
}

func TestCaptureFiltersSensitiveVariables(t *testing.T) {
	t.Setenv("HOME", "/h")
	t.Setenv("API_KEY", "xyz")
	t.Setenv("LC_ALL", "C")

	ctx, err := Capture()
	require.NoError(t, err)

	assert.True(t, ctx.HasEnvVar("HOME"))
	assert.True(t, ctx.HasEnvVar("LC_ALL"))
	assert.False(t, ctx.HasEnvVar("API_KEY"))
	assert.NotContains(t, ctx.ToPromptContext(), "xyz")
}

func TestNewBypassesDetection(t *testing.T) {
	ctx := New("/work", types.ShellZsh, types.PlatformLinux)
	assert.Equal(t, "/work", ctx.WorkingDir())
	assert.Equal(t, types.ShellZsh, ctx.Shell())
	assert.Equal(t, types.PlatformLinux, ctx.Platform())
}

func TestEnvVarsReturnsCopy(t *testing.T) {
	ctx, err := Capture()
	require.NoError(t, err)

	snapshot := ctx.EnvVars()
	snapshot["INJECTED"] = "nope"
	assert.False(t, ctx.HasEnvVar("INJECTED"))
}

func TestToPromptContextShape(t *testing.T) {
	ctx := New("/srv/app", types.ShellBash, types.PlatformLinux)
	prompt := ctx.ToPromptContext()

	assert.Contains(t, prompt, "Current directory: /srv/app")
	assert.Contains(t, prompt, "Shell: bash")
	assert.Contains(t, prompt, "Platform: linux")
	assert.Contains(t, prompt, "User: ")
}

// Package execctx captures an immutable snapshot of the invoking
// environment: working directory, detected shell, platform, a filtered
// view of the environment variables, and user identity. The snapshot is
// built once per invocation and serialized into prompt context for the
// model. Capture never performs network I/O.
package execctx

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/wildcard/cmdai/pkg/types"
)

// Context is a point-in-time snapshot of the invoking environment.
// It is never mutated after construction; accessors return copies.
type Context struct {
	workingDir string
	shell      types.ShellKind
	platform   types.PlatformKind
	env        map[string]string
	username   string
	hostname   string
	capturedAt time.Time
}

// Capture snapshots the current process environment, detecting the shell
// from $SHELL and the parent process.
func Capture() (*Context, error) {
	return CaptureWithShell("")
}

// CaptureWithShell is Capture with an explicit shell preference, normally
// the user's configured default_shell. An empty value means auto-detect.
func CaptureWithShell(explicit types.ShellKind) (*Context, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, &ExecutionError{Kind: KindCurrentDir, Err: err}
	}
	if !filepath.IsAbs(cwd) {
		return nil, &ExecutionError{Kind: KindPath, Err: fmt.Errorf("working directory %q is not absolute", cwd)}
	}

	platform, err := types.ParsePlatformKind(runtime.GOOS)
	if err != nil {
		return nil, &ExecutionError{Kind: KindPlatform, Err: err}
	}

	username, err := currentUsername()
	if err != nil {
		return nil, &ExecutionError{Kind: KindUsername, Err: err}
	}

	hostname, err := os.Hostname()
	if err != nil {
		return nil, &ExecutionError{Kind: KindHostname, Err: err}
	}

	return &Context{
		workingDir: cwd,
		shell:      DetectShell(explicit, os.Getenv),
		platform:   platform,
		env:        FilterEnviron(os.Environ()),
		username:   username,
		hostname:   hostname,
		capturedAt: time.Now().UTC(),
	}, nil
}

// New builds a context with fixed values, bypassing detection. Intended
// for tests and for callers that already know the environment.
func New(cwd string, shell types.ShellKind, platform types.PlatformKind) *Context {
	return &Context{
		workingDir: cwd,
		shell:      shell,
		platform:   platform,
		env:        map[string]string{},
		username:   "user",
		hostname:   "localhost",
		capturedAt: time.Now().UTC(),
	}
}

func currentUsername() (string, error) {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username, nil
	}
	for _, key := range []string{"USER", "USERNAME"} {
		if v := os.Getenv(key); v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("no username in user database or environment")
}

// WorkingDir returns the absolute working directory at capture time.
func (c *Context) WorkingDir() string { return c.workingDir }

// Shell returns the detected (or configured) shell kind.
func (c *Context) Shell() types.ShellKind { return c.shell }

// Platform returns the host platform kind.
func (c *Context) Platform() types.PlatformKind { return c.platform }

// Username returns the invoking user's name.
func (c *Context) Username() string { return c.username }

// Hostname returns the host name.
func (c *Context) Hostname() string { return c.hostname }

// CapturedAt returns the UTC capture timestamp.
func (c *Context) CapturedAt() time.Time { return c.capturedAt }

// EnvVar returns the filtered environment value for name.
func (c *Context) EnvVar(name string) (string, bool) {
	v, ok := c.env[name]
	return v, ok
}

// HasEnvVar reports whether name survived environment filtering.
func (c *Context) HasEnvVar(name string) bool {
	_, ok := c.env[name]
	return ok
}

// EnvVars returns a copy of the filtered environment.
func (c *Context) EnvVars() map[string]string {
	out := make(map[string]string, len(c.env))
	for k, v := range c.env {
		out[k] = v
	}
	return out
}

// ToPromptContext renders the snapshot as the short human-readable block
// that precedes the user's request in the model prompt. Filtered-out
// variables never appear here.
func (c *Context) ToPromptContext() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Current directory: %s\n", c.workingDir)
	fmt.Fprintf(&sb, "Shell: %s\n", c.shell)
	fmt.Fprintf(&sb, "Platform: %s\n", c.platform)
	fmt.Fprintf(&sb, "User: %s@%s", c.username, c.hostname)
	return sb.String()
}

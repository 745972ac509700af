// Package logger installs the process-wide structured logging pipeline:
// slog on top of a non-blocking ring buffer drained by a background
// writer, with optional date-stamped file rotation, operation spans, and
// sensitive-data redaction of rendered output.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/wildcard/cmdai/pkg/types"
)

const (
	// SinkStdout and SinkStderr are the stream sinks; any other Output
	// value is treated as a log directory for file output.
	SinkStdout = "stdout"
	SinkStderr = "stderr"

	fileBase = "cmdai"
)

// Config is consumed once at pipeline construction.
type Config struct {
	Level            types.LogLevel
	Format           types.LogFormat
	Output           string
	RotationPolicy   types.RotationPolicy
	RetentionDays    int
	RedactionEnabled bool
	BufferSize       int
}

// DefaultConfig logs info and above, pretty, to stderr, with redaction on.
func DefaultConfig() Config {
	return Config{
		Level:            types.LevelInfo,
		Format:           types.FormatPretty,
		Output:           SinkStderr,
		RotationPolicy:   types.RotateNever,
		RetentionDays:    7,
		RedactionEnabled: true,
	}
}

// DefaultLogDir returns the platform log directory,
// $XDG_STATE_HOME/cmdai/logs or ~/.local/state/cmdai/logs on POSIX.
func DefaultLogDir() (string, error) {
	if runtime.GOOS == "windows" {
		base, err := os.UserCacheDir()
		if err != nil {
			return "", fmt.Errorf("resolving log directory: %w", err)
		}
		return filepath.Join(base, "cmdai", "logs"), nil
	}
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "cmdai", "logs"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".local", "state", "cmdai", "logs"), nil
}

// Pipeline is one assembled logging stack. The process normally has
// exactly one, installed by Init; tests construct their own.
type Pipeline struct {
	cfg      Config
	logger   *slog.Logger
	async    *asyncWriter
	rotator  *rotatingWriter
	redactor *Redactor
	clock    func() time.Time
}

func newPipeline(cfg Config) (*Pipeline, error) {
	var (
		sink       io.Writer
		rotator    *rotatingWriter
		isTerminal bool
	)
	switch cfg.Output {
	case SinkStdout:
		sink = os.Stdout
		isTerminal = isatty.IsTerminal(os.Stdout.Fd())
	case SinkStderr, "":
		sink = os.Stderr
		isTerminal = isatty.IsTerminal(os.Stderr.Fd())
	default:
		var err error
		rotator, err = newRotatingWriter(cfg.Output, fileBase, cfg.RotationPolicy, cfg.RetentionDays, time.Now)
		if err != nil {
			return nil, err
		}
		sink = rotator
	}
	return newPipelineWriter(cfg, sink, rotator, isTerminal)
}

// newPipelineWriter assembles the stack over an explicit sink. Test entry
// point: tests pass an in-memory writer.
func newPipelineWriter(cfg Config, sink io.Writer, rotator *rotatingWriter, isTerminal bool) (*Pipeline, error) {
	if _, err := types.ParseLogLevel(cfg.Level.String()); err != nil {
		return nil, &InvalidLevelError{Value: cfg.Level.String()}
	}

	p := &Pipeline{cfg: cfg, rotator: rotator, clock: time.Now}

	p.async = newAsyncWriter(sink, cfg.BufferSize, p.droppedLine)

	var producer io.Writer = p.async
	if cfg.RedactionEnabled {
		p.redactor = NewRedactor()
		producer = &redactingWriter{redactor: p.redactor, next: p.async}
	}

	minLevel := slogLevel(cfg.Level)
	var handler slog.Handler
	if cfg.Format == types.FormatJSON {
		handler = slog.NewJSONHandler(producer, &slog.HandlerOptions{
			Level:       minLevel,
			ReplaceAttr: renameJSONKeys,
		})
	} else {
		handler = newPrettyHandler(producer, minLevel, isTerminal)
	}
	p.logger = slog.New(handler)
	return p, nil
}

// redactingWriter applies redaction to each rendered line before it is
// enqueued. Runs on the producer side: regex work only, no I/O.
type redactingWriter struct {
	redactor *Redactor
	next     io.Writer
}

func (w *redactingWriter) Write(p []byte) (int, error) {
	if _, err := w.next.Write(w.redactor.Redact(p)); err != nil {
		return 0, err
	}
	return len(p), nil
}

// renameJSONKeys maps slog's default keys onto the documented wire
// format: timestamp (RFC 3339 UTC), level (lower case), message.
func renameJSONKeys(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return a
	}
	switch a.Key {
	case slog.TimeKey:
		return slog.String("timestamp", a.Value.Time().UTC().Format(time.RFC3339))
	case slog.MessageKey:
		a.Key = "message"
	case slog.LevelKey:
		if lvl, ok := a.Value.Any().(slog.Level); ok {
			return slog.String("level", strings.ToLower(levelName(lvl)))
		}
	}
	return a
}

func slogLevel(l types.LogLevel) slog.Level {
	switch l {
	case types.LevelDebug:
		return slog.LevelDebug
	case types.LevelWarn:
		return slog.LevelWarn
	case types.LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// droppedLine renders the logs_dropped notice emitted after ring overflow.
func (p *Pipeline) droppedLine(n uint64) []byte {
	ts := p.clock().UTC()
	if p.cfg.Format == types.FormatJSON {
		return []byte(fmt.Sprintf(
			"{\"timestamp\":%q,\"level\":\"warn\",\"target\":\"logger\",\"message\":\"log events dropped\",\"logs_dropped\":%d}\n",
			ts.Format(time.RFC3339), n))
	}
	return []byte(fmt.Sprintf("%s WARN logger: log events dropped logs_dropped=%d\n",
		ts.Format("2006-01-02 15:04:05"), n))
}

// Logger returns the pipeline's root slog logger.
func (p *Pipeline) Logger() *slog.Logger { return p.logger }

// For returns a logger scoped to a module name; the name appears as the
// target of every event.
func (p *Pipeline) For(target string) *slog.Logger {
	return p.logger.With("target", target)
}

// Flush blocks until all produced events have reached the sink.
func (p *Pipeline) Flush() { p.async.Flush() }

// Close flushes and tears the pipeline down.
func (p *Pipeline) Close() error {
	p.async.Close()
	if p.rotator != nil {
		return p.rotator.Close()
	}
	return nil
}

var (
	installed atomic.Bool
	global    atomic.Pointer[Pipeline]
)

// Init installs the process-wide pipeline exactly once and makes it the
// slog default. A second call returns ErrAlreadyInitialized.
func Init(cfg Config) error {
	if !installed.CompareAndSwap(false, true) {
		return ErrAlreadyInitialized
	}
	p, err := newPipeline(cfg)
	if err != nil {
		installed.Store(false)
		return err
	}
	global.Store(p)
	slog.SetDefault(p.logger)
	return nil
}

// For returns a module-scoped logger from the installed pipeline, or a
// scoped slog default before Init.
func For(target string) *slog.Logger {
	if p := global.Load(); p != nil {
		return p.For(target)
	}
	return slog.Default().With("target", target)
}

// Flush drains the installed pipeline. No-op before Init.
func Flush() {
	if p := global.Load(); p != nil {
		p.Flush()
	}
}

// Close tears down the installed pipeline, flushing first. The pipeline
// stays marked installed: Init is one-shot per process.
func Close() error {
	if p := global.Load(); p != nil {
		return p.Close()
	}
	return nil
}

package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/wildcard/cmdai/pkg/types"
)

// rotatingWriter sinks log lines into date-stamped files under a single
// directory, rolling over when the configured time window changes and
// removing files older than the retention period on each rotation.
// File naming: <base>.<window>.log, e.g. cmdai.2026-01-02.log for daily.
type rotatingWriter struct {
	dir        string
	base       string
	policy     types.RotationPolicy
	retainDays int
	clock      func() time.Time

	mu     sync.Mutex
	file   *os.File
	window time.Time
}

func newRotatingWriter(dir, base string, policy types.RotationPolicy, retainDays int, clock func() time.Time) (*rotatingWriter, error) {
	if clock == nil {
		clock = time.Now
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, &DirectoryError{Path: dir, Err: err}
	}
	return &rotatingWriter{
		dir:        dir,
		base:       base,
		policy:     policy,
		retainDays: retainDays,
		clock:      clock,
	}, nil
}

func (w *rotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.clock().UTC()
	window := windowStart(now, w.policy)
	if w.file == nil || !window.Equal(w.window) {
		if err := w.rotateLocked(window); err != nil {
			return 0, err
		}
	}
	return w.file.Write(p)
}

func (w *rotatingWriter) rotateLocked(window time.Time) error {
	if w.file != nil {
		w.file.Close()
		w.file = nil
	}

	name := filepath.Join(w.dir, w.fileName(window))
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return &DirectoryError{Path: w.dir, Err: err}
	}
	w.file = f
	w.window = window

	w.cleanupLocked(window)
	return nil
}

// cleanupLocked removes files whose window is outside the retention
// period. Best-effort: removal failures are reported to stderr only.
func (w *rotatingWriter) cleanupLocked(current time.Time) {
	if w.policy == types.RotateNever || w.retainDays <= 0 {
		return
	}
	cutoff := current.AddDate(0, 0, -(w.retainDays - 1))

	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return
	}
	prefix := w.base + "."
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".log") {
			continue
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".log")
		day, err := parseWindowDay(stamp)
		if err != nil {
			continue
		}
		if day.Before(cutoff.Truncate(24 * time.Hour)) {
			if rmErr := os.Remove(filepath.Join(w.dir, name)); rmErr != nil {
				fmt.Fprintf(os.Stderr, "cmdai: log cleanup failed: %v\n", rmErr)
			}
		}
	}
}

func (w *rotatingWriter) fileName(window time.Time) string {
	switch w.policy {
	case types.RotateNever:
		return w.base + ".log"
	case types.RotateHourly:
		return fmt.Sprintf("%s.%s.log", w.base, window.Format("2006-01-02-15"))
	default: // daily, weekly
		return fmt.Sprintf("%s.%s.log", w.base, window.Format("2006-01-02"))
	}
}

func (w *rotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

// windowStart truncates t to the start of its rotation window. Weekly
// windows start on Monday.
func windowStart(t time.Time, policy types.RotationPolicy) time.Time {
	switch policy {
	case types.RotateHourly:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, time.UTC)
	case types.RotateDaily:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	case types.RotateWeekly:
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		offset := (int(day.Weekday()) + 6) % 7 // Monday = 0
		return day.AddDate(0, 0, -offset)
	default:
		return time.Time{}
	}
}

// parseWindowDay extracts the day from a file stamp, which is either
// 2006-01-02 (daily, weekly) or 2006-01-02-15 (hourly).
func parseWindowDay(stamp string) (time.Time, error) {
	if len(stamp) > 10 {
		stamp = stamp[:10]
	}
	return time.ParseInLocation("2006-01-02", stamp, time.UTC)
}

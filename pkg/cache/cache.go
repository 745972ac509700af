// Package cache fetches, verifies, serves, and evicts model artifacts
// from a content-addressed on-disk store. A JSON manifest is the source
// of truth; files are published only by atomic rename, so a partial
// download is never observable. Concurrent fetches of the same model
// collapse to a single download.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const defaultMaxBytes = 10 << 30 // 10 GiB

// Options configures a Cache. Zero values select the defaults: the XDG
// cache directory, a 10 GiB budget, no fetcher (offline), slog default.
type Options struct {
	Dir          string
	MaxSizeBytes int64
	Fetcher      Fetcher
	Logger       *slog.Logger
}

// Cache is a manifest-backed store of model files under one directory.
// All methods are safe for concurrent use.
type Cache struct {
	dir      string
	maxBytes int64
	fetcher  Fetcher
	log      *slog.Logger

	mu    sync.RWMutex
	man   *manifest
	group singleflight.Group
}

// Stats is a point-in-time summary of the store.
type Stats struct {
	TotalSizeBytes int64
	ModelCount     int
	MaxSizeBytes   int64
	Dir            string
}

// IntegrityReport partitions cached identifiers by verification outcome.
// Produced by ValidateIntegrity, which never mutates the cache.
type IntegrityReport struct {
	Valid     []string
	Corrupted []string
	Missing   []string
}

// DefaultDir returns the platform cache location, $XDG_CACHE_HOME/cmdai
// or ~/.cache/cmdai on POSIX.
func DefaultDir() (string, error) {
	if runtime.GOOS == "windows" {
		base, err := os.UserCacheDir()
		if err != nil {
			return "", fmt.Errorf("resolving cache directory: %w", err)
		}
		return filepath.Join(base, "cmdai"), nil
	}
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "cmdai"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".cache", "cmdai"), nil
}

// New opens (or initializes) the cache under opts.Dir, creating the
// directory owner-only if missing.
func New(opts Options) (*Cache, error) {
	dir := opts.Dir
	if dir == "" {
		var err error
		dir, err = DefaultDir()
		if err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, &DirectoryError{Path: dir, Err: err}
	}

	man, err := loadManifest(dir)
	if err != nil {
		return nil, err
	}

	maxBytes := opts.MaxSizeBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default().With("target", "cache")
	}

	return &Cache{
		dir:      dir,
		maxBytes: maxBytes,
		fetcher:  opts.Fetcher,
		log:      log,
		man:      man,
	}, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string { return c.dir }

// modelFileName flattens an identifier into a file name by replacing
// directory separators: "acme/tiny" -> "acme__tiny".
func modelFileName(modelID string) string {
	return strings.ReplaceAll(modelID, "/", "__")
}

func (c *Cache) path(modelID string) string {
	return filepath.Join(c.dir, modelFileName(modelID))
}

// GetModel returns the canonical path of the model file, downloading and
// verifying it first if needed. Concurrent calls for the same identifier
// collapse to one fetch and share its result (including its context:
// cancelling the winning caller cancels the shared download).
func (c *Cache) GetModel(ctx context.Context, modelID string) (string, error) {
	v, err, _ := c.group.Do(modelID, func() (any, error) {
		return c.getModel(ctx, modelID)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Cache) getModel(ctx context.Context, modelID string) (string, error) {
	c.mu.RLock()
	e, ok := c.man.Entries[modelID]
	c.mu.RUnlock()

	if ok {
		path := c.path(modelID)
		actual, err := hashFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// File vanished underneath the manifest; reconcile and refetch.
			c.log.Warn("cached file missing, re-downloading", "model_id", modelID)
			c.dropEntry(modelID)
		case err != nil:
			return "", fmt.Errorf("verifying %s: %w", modelID, err)
		case actual == e.SHA256:
			c.touch(modelID)
			return path, nil
		default:
			// Corruption self-heals: evict now so the next call re-downloads.
			os.Remove(path)
			c.dropEntry(modelID)
			return "", &ChecksumMismatchError{ModelID: modelID, Expected: e.SHA256, Actual: actual}
		}
	}

	return c.fetchModel(ctx, modelID)
}

func (c *Cache) fetchModel(ctx context.Context, modelID string) (string, error) {
	if c.fetcher == nil {
		return "", fmt.Errorf("%s not cached and no model host configured: %w", modelID, ErrModelNotFound)
	}

	size, err := c.fetcher.Stat(ctx, modelID)
	if err != nil {
		if errors.Is(err, ErrModelNotFound) {
			return "", err
		}
		return "", &DownloadFailedError{ModelID: modelID, Err: err}
	}
	if size > 0 {
		if avail, ok := availableBytes(c.dir); ok && avail < size {
			return "", &DiskFullError{Needed: size, Available: avail}
		}
	}

	tmp, err := os.CreateTemp(c.dir, ".download-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	discard := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	hasher := sha256.New()
	advertised, err := c.fetcher.Fetch(ctx, modelID, io.MultiWriter(tmp, hasher))
	if err != nil {
		discard()
		if ctx.Err() != nil {
			return "", fmt.Errorf("download of %s cancelled: %w", modelID, ctx.Err())
		}
		if errors.Is(err, ErrModelNotFound) {
			return "", err
		}
		return "", &DownloadFailedError{ModelID: modelID, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		discard()
		return "", fmt.Errorf("syncing download: %w", err)
	}
	info, err := tmp.Stat()
	if err != nil {
		discard()
		return "", fmt.Errorf("statting download: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		discard()
		return "", fmt.Errorf("setting file permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("closing download: %w", err)
	}

	actual := hex.EncodeToString(hasher.Sum(nil))
	if advertised == "" {
		os.Remove(tmpName)
		return "", &DownloadFailedError{ModelID: modelID, Err: errors.New("host advertised no digest")}
	}
	if actual != advertised {
		os.Remove(tmpName)
		return "", &ChecksumMismatchError{ModelID: modelID, Expected: advertised, Actual: actual}
	}

	path := c.path(modelID)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.evictForLocked(modelID, info.Size())

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("installing %s: %w", modelID, err)
	}
	now := time.Now().UTC()
	c.man.Entries[modelID] = entry{
		SizeBytes:    info.Size(),
		CreatedAt:    now,
		LastAccessed: now,
		SHA256:       actual,
	}
	if err := saveManifest(c.dir, c.man); err != nil {
		return "", err
	}

	c.log.Info("model cached", "model_id", modelID, "size_bytes", info.Size())
	return path, nil
}

// evictForLocked makes room for an incoming file of the given size,
// removing least-recently-accessed entries until the new total fits. A
// newcomer larger than the whole budget is still admitted, with a
// warning: a requested model is never refused solely for its size.
func (c *Cache) evictForLocked(incomingID string, incoming int64) {
	if incoming > c.maxBytes {
		c.log.Warn("model exceeds cache budget",
			"model_id", incomingID,
			"size_bytes", incoming,
			"max_size_bytes", c.maxBytes)
	}

	total := c.totalLocked()
	for total+incoming > c.maxBytes && len(c.man.Entries) > 0 {
		victim, ventry := "", entry{}
		first := true
		for id, e := range c.man.Entries {
			if first || e.LastAccessed.Before(ventry.LastAccessed) {
				victim, ventry, first = id, e, false
			}
		}
		// File first, then the manifest entry.
		os.Remove(c.path(victim))
		delete(c.man.Entries, victim)
		total -= ventry.SizeBytes
		c.log.Info("evicted model", "model_id", victim, "size_bytes", ventry.SizeBytes)
	}
}

func (c *Cache) totalLocked() int64 {
	var total int64
	for _, e := range c.man.Entries {
		total += e.SizeBytes
	}
	return total
}

// dropEntry removes the manifest record for modelID and persists.
func (c *Cache) dropEntry(modelID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.man.Entries, modelID)
	if err := saveManifest(c.dir, c.man); err != nil {
		c.log.Error("persisting manifest failed", "error", err)
	}
}

// touch refreshes last_accessed for a cache hit.
func (c *Cache) touch(modelID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.man.Entries[modelID]
	if !ok {
		return
	}
	e.LastAccessed = time.Now().UTC()
	c.man.Entries[modelID] = e
	if err := saveManifest(c.dir, c.man); err != nil {
		c.log.Error("persisting manifest failed", "error", err)
	}
}

// IsCached reports whether modelID has a manifest entry and its file
// exists. No integrity check is performed.
func (c *Cache) IsCached(modelID string) bool {
	c.mu.RLock()
	_, ok := c.man.Entries[modelID]
	c.mu.RUnlock()
	if !ok {
		return false
	}
	_, err := os.Stat(c.path(modelID))
	return err == nil
}

// RemoveModel deletes the model file and its manifest entry.
func (c *Cache) RemoveModel(modelID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.man.Entries[modelID]; !ok {
		return fmt.Errorf("%s: %w", modelID, ErrModelNotFound)
	}
	if err := os.Remove(c.path(modelID)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", modelID, err)
	}
	delete(c.man.Entries, modelID)
	return saveManifest(c.dir, c.man)
}

// ClearCache removes every cached model and resets the manifest.
func (c *Cache) ClearCache() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id := range c.man.Entries {
		if err := os.Remove(c.path(id)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("removing %s: %w", id, err)
		}
	}
	c.man = newManifest()
	return saveManifest(c.dir, c.man)
}

// Stats summarizes the store.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{
		TotalSizeBytes: c.totalLocked(),
		ModelCount:     len(c.man.Entries),
		MaxSizeBytes:   c.maxBytes,
		Dir:            c.dir,
	}
}

// ValidateIntegrity re-hashes every manifest entry and reports each
// identifier as valid, corrupted, or missing. The cache is not mutated;
// callers decide whether to remove.
func (c *Cache) ValidateIntegrity() IntegrityReport {
	c.mu.RLock()
	snapshot := make(map[string]entry, len(c.man.Entries))
	for id, e := range c.man.Entries {
		snapshot[id] = e
	}
	c.mu.RUnlock()

	var report IntegrityReport
	for id, e := range snapshot {
		actual, err := hashFile(c.path(id))
		switch {
		case errors.Is(err, os.ErrNotExist):
			report.Missing = append(report.Missing, id)
		case err != nil || actual != e.SHA256:
			report.Corrupted = append(report.Corrupted, id)
		default:
			report.Valid = append(report.Valid, id)
		}
	}
	sort.Strings(report.Valid)
	sort.Strings(report.Corrupted)
	sort.Strings(report.Missing)
	return report
}

// hashFile computes the hex SHA-256 of the file contents.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

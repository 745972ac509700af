package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	manifestName     = "manifest.json"
	manifestLockName = "manifest.lock"
	manifestVersion  = 1
)

// entry is one cached model's manifest record.
type entry struct {
	SizeBytes    int64     `json:"size_bytes"`
	CreatedAt    time.Time `json:"created_at"`
	LastAccessed time.Time `json:"last_accessed"`
	SHA256       string    `json:"sha256"`
}

// manifest is the persisted index of cached models. It is the source of
// truth for is_cached; filesystem state is reconciled to it.
type manifest struct {
	Version int              `json:"version"`
	Entries map[string]entry `json:"entries"`
}

func newManifest() *manifest {
	return &manifest{Version: manifestVersion, Entries: map[string]entry{}}
}

// loadManifest reads the manifest file, initializing an empty one when it
// does not exist. A deserialization failure is retried once: another
// process may have replaced the file mid-read.
func loadManifest(dir string) (*manifest, error) {
	path := filepath.Join(dir, manifestName)
	for attempt := 0; ; attempt++ {
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			return newManifest(), nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading manifest: %w", err)
		}

		var m manifest
		if err := json.Unmarshal(data, &m); err != nil {
			if attempt == 0 {
				continue
			}
			return nil, fmt.Errorf("decoding manifest: %w", err)
		}
		if m.Entries == nil {
			m.Entries = map[string]entry{}
		}
		return &m, nil
	}
}

// saveManifest persists the manifest atomically: write a sibling temp
// file, fsync, rename over the destination. An advisory lock guards
// against concurrent writers from other processes where the platform
// supports one; the rename discipline stands alone where it does not.
func saveManifest(dir string, m *manifest) error {
	unlock, err := lockManifest(filepath.Join(dir, manifestLockName))
	if err == nil {
		defer unlock()
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".manifest-*.json")
	if err != nil {
		return fmt.Errorf("creating temp manifest: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp manifest: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing temp manifest: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("setting manifest permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp manifest: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(dir, manifestName)); err != nil {
		return fmt.Errorf("installing manifest: %w", err)
	}
	return nil
}

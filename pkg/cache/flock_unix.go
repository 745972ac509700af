//go:build unix

package cache

import (
	"os"

	"golang.org/x/sys/unix"
)

// lockManifest takes a best-effort exclusive advisory lock on the
// manifest lock file, blocking until it is granted. The returned
// function releases it.
func lockManifest(path string) (func(), error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, err
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		f.Close()
		return nil, err
	}
	return func() {
		unix.Flock(int(f.Fd()), unix.LOCK_UN)
		f.Close()
	}, nil
}

//go:build !unix

package cache

import "errors"

// lockManifest is unavailable off Unix; callers fall back to the
// atomic-rename discipline alone, which keeps the manifest consistent at
// the cost of tolerating duplicate downloads.
func lockManifest(string) (func(), error) {
	return nil, errors.New("advisory locks unsupported on this platform")
}

//go:build unix

package cache

import "golang.org/x/sys/unix"

// availableBytes reports free disk space at path for an unprivileged
// writer.
func availableBytes(path string) (int64, bool) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, false
	}
	return int64(st.Bavail) * int64(st.Bsize), true
}

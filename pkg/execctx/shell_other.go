//go:build !linux

package execctx

// parentProcessName is a no-op outside Linux; stage-three shell detection
// is explicitly optional and the documented fallbacks still apply.
func parentProcessName() (string, bool) {
	return "", false
}

//go:build linux

package execctx

import (
	"fmt"
	"os"
	"strings"
)

// parentProcessName reads the parent process's executable name from
// procfs. Best-effort: any failure just reports no result and detection
// falls through to the sh baseline.
func parentProcessName() (string, bool) {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/comm", os.Getppid()))
	if err != nil {
		return "", false
	}
	name := strings.TrimSpace(string(data))
	return name, name != ""
}

//go:build !windows

package executor

import (
	"os"
	"os/exec"
)

func isRoot() bool {
	return os.Geteuid() == 0
}

// sudoCommand returns the sudo binary and the arguments placed before
// the program it runs.
func sudoCommand() (string, []string, bool) {
	path, err := exec.LookPath("sudo")
	if err != nil {
		return "", nil, false
	}
	return path, []string{"--"}, true
}

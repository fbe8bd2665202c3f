package executor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// IsRoot returns true if the current process runs as root/administrator.
func IsRoot() bool {
	return isRoot()
}

// HasSudo returns true if an elevation command is available.
func HasSudo() bool {
	_, _, ok := sudoCommand()
	return ok
}

// CanElevate returns true if the process can write system paths,
// either directly or through sudo.
func CanElevate() bool {
	return isRoot() || HasSudo()
}

// CheckPrivileges returns ErrNoPrivileges when root is needed but unavailable.
// The default repository and staging paths live under /etc and /var/lib.
func CheckPrivileges(needsRoot bool) error {
	if !needsRoot {
		return nil
	}
	if !CanElevate() {
		return ErrNoPrivileges
	}
	return nil
}

// Writable reports whether a file can be created in dir. A missing
// directory is checked through its nearest existing parent.
func Writable(dir string) bool {
	for {
		if _, err := os.Stat(dir); err == nil {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return false
		}
		dir = parent
	}

	f, err := os.CreateTemp(dir, ".tux-write-*")
	if err != nil {
		return false
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return true
}

// Elevate runs the current executable again with args through sudo,
// attached to the terminal, and returns once it exits.
func (e *Executor) Elevate(ctx context.Context, args ...string) error {
	sudo, prefix, ok := sudoCommand()
	if !ok {
		return ErrNoPrivileges
	}

	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to locate the tux executable: %w", err)
	}

	argv := append(append(prefix, self), args...)
	e.logger.Info("re-running with elevated privileges", "sudo", sudo)
	return e.Run(ctx, sudo, argv...)
}

type errNoPrivileges struct{}

func (e errNoPrivileges) Error() string {
	return "writing the repository mirror or staging directories requires root, but neither root nor sudo is available"
}

// ErrNoPrivileges is the error returned when privileges cannot be elevated.
var ErrNoPrivileges = errNoPrivileges{}

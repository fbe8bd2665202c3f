package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"tux/internal/config"
	"tux/internal/executor"
	"tux/pkg/tuxerr"
)

// Privilege checks, replaced in tests.
var (
	isRoot   = executor.IsRoot
	canSudo  = executor.HasSudo
	writable = executor.Writable
	elevate  = func(ctx context.Context, args []string) error {
		return executor.New(logger).Elevate(ctx, args...)
	}
)

// ensurePrivileges makes sure every dir can be written before anything is
// resolved. If one cannot and sudo is available, the command is run again
// through sudo and elevated reports that the child did the work.
func ensurePrivileges(ctx context.Context, args []string, dirs ...string) (elevated bool, err error) {
	var denied []string
	for _, dir := range dirs {
		if !writable(dir) {
			denied = append(denied, dir)
		}
	}
	if len(denied) == 0 || isRoot() {
		return false, nil
	}

	if !canSudo() {
		return false, tuxerr.Wrap(tuxerr.KindIO, executor.ErrNoPrivileges,
			"cannot write %s", strings.Join(denied, ", "))
	}

	logger.Debug("directories need root", "dirs", denied)
	if err := elevate(ctx, args); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// The elevated run has already printed its own error.
			return true, fmt.Errorf("%w: %v", errReported, err)
		}
		return true, fmt.Errorf("failed to re-run with sudo: %w", err)
	}
	return true, nil
}

// installArgs rebuilds the command line of an install for the elevated
// run. The config file is passed explicitly because root resolves a
// different default path.
func installArgs(root string) []string {
	var args []string

	path := cfgFile
	if path == "" {
		if _, err := os.Stat(config.ConfigPath()); err == nil {
			path = config.ConfigPath()
		}
	}
	if path != "" {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		args = append(args, "--config", path)
	}

	if yes {
		args = append(args, "--yes")
	}
	if dryRun {
		args = append(args, "--dry-run")
	}
	if verbose {
		args = append(args, "--verbose")
	}
	if noColor {
		args = append(args, "--no-color")
	}
	if orderFlag != "" {
		args = append(args, "--order", orderFlag)
	}

	return append(args, "install", root)
}

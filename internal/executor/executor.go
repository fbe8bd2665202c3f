// Package executor runs external commands for tux: the git binary used by
// the command-line repository syncer, and sudo when an install needs root.
package executor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"
)

// Executor runs commands and logs what it runs.
type Executor struct {
	logger *log.Logger
}

// New creates an Executor. A nil logger discards diagnostics.
func New(logger *log.Logger) *Executor {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Executor{logger: logger}
}

// Run executes a command attached to the terminal.
func (e *Executor) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	e.logger.Debug("executing", "cmd", name, "args", strings.Join(args, " "))

	return cmd.Run()
}

// OutputCombined runs a command and returns stdout and stderr combined.
// A failing command's output is folded into the returned error.
func (e *Executor) OutputCombined(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var combined bytes.Buffer
	cmd.Stdout = &combined
	cmd.Stderr = &combined

	e.logger.Debug("executing", "cmd", name, "args", strings.Join(args, " "))

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(combined.String())
		if msg == "" {
			return combined.String(), err
		}
		return combined.String(), fmt.Errorf("%s %s: %w: %s", name, firstArg(args), err, msg)
	}
	return combined.String(), nil
}

// LookPath reports whether name is available on PATH.
func LookPath(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

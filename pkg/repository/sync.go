package repository

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"tux/internal/executor"

	"github.com/go-git/go-git/v5"
)

// Sync methods accepted in configuration.
const (
	SyncGoGit = "go-git"
	SyncGit   = "git"
)

// Syncer clones a remote catalog into a local directory.
type Syncer interface {
	Clone(ctx context.Context, origin, dir string) error
}

// GitSyncer clones in-process with go-git.
type GitSyncer struct {
	// Progress receives clone progress output, if set.
	Progress io.Writer
}

// Clone performs a single-branch clone of origin into dir.
func (s *GitSyncer) Clone(ctx context.Context, origin, dir string) error {
	if err := os.MkdirAll(filepath.Dir(dir), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	_, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:          origin,
		SingleBranch: true,
		Progress:     s.Progress,
	})
	if err != nil {
		return fmt.Errorf("failed to clone repository: %w", err)
	}
	return nil
}

// CommandSyncer clones by running the git binary.
type CommandSyncer struct {
	exec *executor.Executor
}

// NewCommandSyncer creates a CommandSyncer running commands through exec.
func NewCommandSyncer(exec *executor.Executor) *CommandSyncer {
	return &CommandSyncer{exec: exec}
}

// Clone runs `git clone --quiet origin dir`.
func (s *CommandSyncer) Clone(ctx context.Context, origin, dir string) error {
	if !executor.LookPath("git") {
		return fmt.Errorf("git binary not found in PATH")
	}
	if err := os.MkdirAll(filepath.Dir(dir), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	if _, err := s.exec.OutputCombined(ctx, "git", "clone", "--quiet", origin, dir); err != nil {
		return fmt.Errorf("failed to clone repository: %w", err)
	}
	return nil
}

// NewSyncer returns the Syncer for a configured sync method.
func NewSyncer(method string, exec *executor.Executor) (Syncer, error) {
	switch method {
	case "", SyncGoGit:
		return &GitSyncer{}, nil
	case SyncGit:
		return NewCommandSyncer(exec), nil
	default:
		return nil, fmt.Errorf("unknown sync method %q (want %q or %q)", method, SyncGoGit, SyncGit)
	}
}

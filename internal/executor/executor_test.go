package executor

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	exec := New(nil)
	if exec == nil {
		t.Fatal("New() returned nil")
	}
}

func TestRun(t *testing.T) {
	exec := New(nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := exec.Run(ctx, "true"); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
}

func TestRunFailing(t *testing.T) {
	exec := New(nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := exec.Run(ctx, "false"); err == nil {
		t.Error("Run() should return error for failing command")
	}
}

func TestOutputCombined(t *testing.T) {
	exec := New(nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	output, err := exec.OutputCombined(ctx, "echo", "test")
	if err != nil {
		t.Fatalf("OutputCombined() error: %v", err)
	}

	if !strings.Contains(output, "test") {
		t.Errorf("OutputCombined() = %s, want to contain 'test'", output)
	}
}

func TestOutputCombinedFailureIncludesOutput(t *testing.T) {
	exec := New(nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := exec.OutputCombined(ctx, "sh", "-c", "echo fatal: no such remote >&2; exit 3")
	if err == nil {
		t.Fatal("OutputCombined() should fail")
	}
	if !strings.Contains(err.Error(), "fatal: no such remote") {
		t.Errorf("error should carry command output: %v", err)
	}
}

func TestContextCancellation(t *testing.T) {
	exec := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := exec.OutputCombined(ctx, "sleep", "10"); err == nil {
		t.Error("OutputCombined() should error with cancelled context")
	}
}

func TestLookPath(t *testing.T) {
	if !LookPath("sh") {
		t.Error("LookPath(sh) should be true on test hosts")
	}
	if LookPath("tux-definitely-not-a-binary") {
		t.Error("LookPath should be false for a missing binary")
	}
}

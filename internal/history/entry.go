// Package history records install attempts in a BoltDB file.
package history

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Operation represents the type of package operation.
type Operation string

const (
	OpInstall Operation = "install"
)

// Entry represents a single operation in the history.
type Entry struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Operation Operation     `json:"operation"`
	Root      string        `json:"root"`     // Package requested by the user
	Origin    string        `json:"origin"`   // Repository origin address
	Order     string        `json:"order"`    // Install order mode
	Packages  []string      `json:"packages"` // Install set, root last
	DryRun    bool          `json:"dry_run,omitempty"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// NewEntry creates a new history entry.
func NewEntry(op Operation, root string) *Entry {
	return &Entry{
		ID:        generateID(),
		Timestamp: time.Now(),
		Operation: op,
		Root:      root,
		Success:   false, // Will be updated after operation completes
	}
}

// MarkSuccess marks the entry as successful.
func (e *Entry) MarkSuccess() {
	e.Success = true
	e.Error = ""
	e.Duration = time.Since(e.Timestamp)
}

// MarkFailed marks the entry as failed with an error message.
func (e *Entry) MarkFailed(err error) {
	e.Success = false
	if err != nil {
		e.Error = err.Error()
	}
	e.Duration = time.Since(e.Timestamp)
}

// generateID generates a unique ID for the entry.
func generateID() string {
	return uuid.New().String()
}

// FormatTime returns a human-readable timestamp.
func (e *Entry) FormatTime() string {
	return e.Timestamp.Format("2006-01-02 15:04:05")
}

// Status returns "success", "dry-run" or "failed".
func (e *Entry) Status() string {
	switch {
	case !e.Success:
		return "failed"
	case e.DryRun:
		return "dry-run"
	default:
		return "success"
	}
}

// Summary returns a brief summary of the operation.
func (e *Entry) Summary() string {
	var b strings.Builder
	b.WriteString(e.FormatTime())
	b.WriteString(" ")
	b.WriteString(string(e.Operation))
	if e.Root != "" {
		b.WriteString(" " + e.Root)
	}
	if n := len(e.Packages); n > 1 {
		b.WriteString(" (+" + strconv.Itoa(n-1) + " deps)")
	}
	b.WriteString(" [" + e.Status() + "]")
	return b.String()
}

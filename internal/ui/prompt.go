package ui

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/manifoldco/promptui"
)

// ConfirmMode selects how an answer to a confirmation prompt is read.
type ConfirmMode string

const (
	// ConfirmNormalized trims and case-folds the answer; "n" and "no" reject.
	ConfirmNormalized ConfirmMode = "normalized"

	// ConfirmStrict rejects only an answer of exactly "n" or "N".
	ConfirmStrict ConfirmMode = "strict"
)

// ParseConfirmMode validates a mode name. The empty string selects
// ConfirmNormalized.
func ParseConfirmMode(s string) (ConfirmMode, error) {
	switch ConfirmMode(s) {
	case "":
		return ConfirmNormalized, nil
	case ConfirmNormalized, ConfirmStrict:
		return ConfirmMode(s), nil
	default:
		return "", fmt.Errorf("unknown confirm mode %q (want normalized or strict)", s)
	}
}

// Accepts reports whether answer lets the operation proceed. Anything that
// is not a rejection proceeds, including an empty answer.
func Accepts(answer string, mode ConfirmMode) bool {
	if mode == ConfirmStrict {
		return answer != "n" && answer != "N"
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "n", "no":
		return false
	default:
		return true
	}
}

// Confirm prompts the user with label and reads one answer.
// An interrupt (Ctrl-C) rejects; end of input counts as an empty answer.
func Confirm(label string, mode ConfirmMode) (bool, error) {
	return ConfirmFrom(nil, nil, label, mode)
}

// ConfirmFrom is Confirm on explicit streams. Nil streams select the terminal.
func ConfirmFrom(in io.ReadCloser, out io.WriteCloser, label string, mode ConfirmMode) (bool, error) {
	p := promptui.Prompt{
		Label:  label + " [Y/n]",
		Stdin:  in,
		Stdout: out,
	}

	answer, err := p.Run()
	if err != nil {
		switch {
		case errors.Is(err, promptui.ErrInterrupt), errors.Is(err, promptui.ErrAbort):
			return false, nil
		case errors.Is(err, promptui.ErrEOF), errors.Is(err, io.EOF):
			answer = ""
		default:
			return false, fmt.Errorf("failed to read answer: %w", err)
		}
	}

	return Accepts(answer, mode), nil
}

package cli

import "errors"

var (
	// ErrNotImplemented is returned by commands that are declared but not built yet.
	ErrNotImplemented = errors.New("not implemented yet")

	// ErrNoPackage is returned when a command needs a package name and got none.
	ErrNoPackage = errors.New("no package specified")

	// ErrTooManyPackages is returned when more than one package is named.
	ErrTooManyPackages = errors.New("only one package can be given")

	// errReported marks failures that were already shown to the user.
	errReported = errors.New("already reported")
)

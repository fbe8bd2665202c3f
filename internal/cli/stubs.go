package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:   "remove <package>",
	Short: "Removes a package from your system",
	Args:  cobra.ArbitraryArgs,
	RunE:  notImplemented,
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Updates the package repository",
	Args:  cobra.ArbitraryArgs,
	RunE:  notImplemented,
}

var buildCmd = &cobra.Command{
	Use:   "build <package>",
	Short: "Builds a package without installing it",
	Long: `Builds a package without installing it, useful for building
packages for other systems.`,
	Args: cobra.ArbitraryArgs,
	RunE: notImplemented,
}

func notImplemented(cmd *cobra.Command, args []string) error {
	return fmt.Errorf("%s: %w", cmd.Name(), ErrNotImplemented)
}

// onePackage accepts exactly one package name.
func onePackage(cmd *cobra.Command, args []string) error {
	switch {
	case len(args) == 0:
		return ErrNoPackage
	case len(args) > 1:
		return fmt.Errorf("%w, got %d", ErrTooManyPackages, len(args))
	}
	return nil
}

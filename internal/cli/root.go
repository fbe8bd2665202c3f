// Package cli implements the command-line interface for tux.
package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"

	"tux/internal/config"
	"tux/internal/executor"
	"tux/internal/ui"
	"tux/pkg/repository"
	"tux/pkg/resolver"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile   string
	dryRun    bool
	yes       bool
	verbose   bool
	noColor   bool
	orderFlag string

	// Global state
	cfg    *config.Config
	logger *log.Logger
)

// Build metadata - set at build time via ldflags
var (
	Version   = "0.1.0"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "tux [command] (package)",
	Short: "Tux: a minimal source package manager",
	Long: `Tux resolves a package and its dependencies from a git-hosted
catalog, asks for confirmation, then downloads every artifact into
its own staging directory.

The catalog origin is read from /etc/tux/repository and cloned into
/var/lib/tux/repository on first use.

Examples:
  tux install vim           # Install vim and its dependencies
  tux install -y vim        # Install without confirmation
  tux install -n vim        # Show the install set only
  tux history               # Show recent installs`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		// No command, or one tux does not know: show usage and succeed.
		_ = cmd.Help() //nolint:errcheck
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd == cmd.Root() {
			return nil
		}
		return initializeApp()
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false, "show the install set without downloading")
	rootCmd.PersistentFlags().BoolVarP(&yes, "yes", "y", false, "assume yes to all prompts")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVar(&orderFlag, "order", "", "install order: raw, dedupe or topological")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(doctorCmd)
}

// Execute runs the root command. A failure is reported once here and
// returned so main can pick the exit status.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errReported) {
			ui.ErrorMsg("%v", err)
		}
		return err
	}
	return nil
}

// initializeApp sets up the application state.
func initializeApp() error {
	// Load configuration
	var err error
	if cfgFile != "" {
		cfg, err = config.LoadFrom(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	// Apply global flag overrides
	if yes {
		cfg.Install.AutoConfirm = true
	}
	if dryRun {
		cfg.Install.DryRun = true
	}
	if verbose {
		cfg.Output.Verbose = true
	}
	if noColor {
		cfg.Output.Color = false
	}
	if orderFlag != "" {
		if _, err := resolver.ParseOrder(orderFlag); err != nil {
			return err
		}
		cfg.Install.Order = orderFlag
	}

	// Initialize UI
	ui.Init(cfg.ShouldUseColor(), cfg.Output.Unicode)

	level := log.WarnLevel
	if cfg.Output.Verbose {
		level = log.DebugLevel
	}
	logger = newLogger(os.Stderr, level)
	logger.Debug("configuration loaded", "file", configSource(), "order", cfg.Install.Order)

	return nil
}

// newLogger creates a new logger with timestamp formatting.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
		Prefix:          "tux",
	})

	styles := log.DefaultStyles()
	styles.Prefix = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#1793D1"))
	styles.Keys["err"] = lipgloss.NewStyle().Foreground(lipgloss.Color("#E95420"))
	styles.Values["err"] = lipgloss.NewStyle().Bold(true)
	l.SetStyles(styles)

	return l
}

func configSource() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.ConfigPath()
}

// openRepository builds the repository accessor from the configuration.
func openRepository() (*repository.Repository, error) {
	exec := executor.New(logger)

	syncer, err := repository.NewSyncer(cfg.Repository.SyncMethod, exec)
	if err != nil {
		return nil, err
	}

	return repository.New(repository.Options{
		LocatorFile: cfg.Repository.LocatorFile,
		MirrorDir:   cfg.Repository.MirrorDir,
		Syncer:      syncer,
		Logger:      logger,
	}), nil
}

// Version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print tux version",
	Run: func(cmd *cobra.Command, args []string) {
		ui.InfoMsg("tux version %s", Version)
		if Commit != "unknown" {
			ui.MutedMsg("  Commit: %s", Commit)
		}
		if BuildTime != "unknown" {
			ui.MutedMsg("  Built:  %s", BuildTime)
		}
	},
}

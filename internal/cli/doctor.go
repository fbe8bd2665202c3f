package cli

import (
	"os"

	"tux/internal/executor"
	"tux/internal/history"
	"tux/internal/ui"
	"tux/pkg/repository"

	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose configuration and repository issues",
	Long: `Check the locator file, the local catalog mirror, the staging
directory and privileges.

Examples:
  tux doctor                # Run diagnostics`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	issues := 0

	ui.HeaderMsg("Running diagnostics...")

	// Check config
	ui.HeaderMsg("Configuration")
	if _, err := os.Stat(configSource()); err == nil {
		ui.SuccessMsg("Config file: %s", configSource())
	} else {
		ui.MutedMsg("No config file at %s, using defaults", configSource())
	}
	ui.PrintField("Install order", cfg.Install.Order)
	ui.PrintField("Confirmation", cfg.Install.Confirm)
	ui.PrintField("Sync method", cfg.Repository.SyncMethod)

	// Check repository
	ui.HeaderMsg("Repository")

	repo, err := openRepository()
	if err != nil {
		return err
	}

	if origin, err := repo.Locator(); err != nil {
		ui.ErrorMsg("%v", err)
		issues++
	} else {
		ui.SuccessMsg("Origin: %s", origin)
	}

	if cfg.Repository.SyncMethod == repository.SyncGit && !executor.LookPath("git") {
		ui.ErrorMsg("git binary not found (required by sync_method = \"git\")")
		issues++
	}

	if !repo.Synced() {
		ui.WarningMsg("Mirror %s not cloned yet; it will be cloned on the next install", repo.MirrorDir())
	} else if names, err := repo.Packages(ctx); err != nil {
		ui.ErrorMsg("%v", err)
		issues++
	} else {
		ui.SuccessMsg("Mirror %s lists %d packages", repo.MirrorDir(), len(names))
		stale := 0
		for _, name := range names {
			if _, err := os.Stat(repo.DescriptorPath(name)); err != nil {
				stale++
			}
		}
		if stale > 0 {
			ui.WarningMsg("%d indexed packages have no package.json; the repository may need an update", stale)
			issues++
		}
	}

	// Check staging directory
	ui.HeaderMsg("Staging")

	writable := executor.Writable(cfg.Install.StagingDir)
	if writable {
		ui.SuccessMsg("Staging directory %s is writable", cfg.Install.StagingDir)
	} else {
		ui.WarningMsg("Staging directory %s is not writable by this user", cfg.Install.StagingDir)
	}

	if err := executor.CheckPrivileges(!writable); err != nil {
		ui.ErrorMsg("%v", err)
		issues++
	} else if executor.IsRoot() {
		ui.MutedMsg("Running as root")
	} else if !writable {
		ui.MutedMsg("tux install will re-run itself through sudo")
	}

	if cfg.History.Enabled {
		ui.HeaderMsg("History")
		ui.PrintField("Database", cfg.HistoryFile())
		if last, err := lastInstall(); err != nil {
			ui.WarningMsg("History unreadable: %v", err)
		} else if last != nil {
			ui.PrintField("Last install", last.Summary())
			if last.Error != "" {
				ui.MutedMsg("  %s", last.Error)
			}
		}
	}

	// Summary
	ui.HeaderMsg("Summary")
	if issues == 0 {
		ui.SuccessMsg("No issues found! Tux is ready to use.")
	} else {
		ui.WarningMsg("Found %d issue(s). Installs may fail.", issues)
	}

	return nil
}

// lastInstall returns the newest history entry, or nil when there is none.
func lastInstall() (*history.Entry, error) {
	if _, err := os.Stat(cfg.HistoryFile()); err != nil {
		return nil, nil
	}

	store, err := history.Open(cfg.HistoryFile())
	if err != nil {
		return nil, err
	}
	defer store.Close()

	return store.Last()
}

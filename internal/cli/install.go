package cli

import (
	"context"
	"errors"

	"tux/internal/history"
	"tux/internal/ui"
	"tux/pkg/installer"
	"tux/pkg/repository"
	"tux/pkg/resolver"
	"tux/pkg/tuxerr"

	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:   "install <package>",
	Short: "Installs a package and its dependencies",
	Long: `Resolve a package's dependencies from the catalog, show the
install set and download every artifact into /var/lib/tux/<name>.

Examples:
  tux install vim                  # Install vim after confirmation
  tux install -y vim               # Install without confirmation
  tux install --order raw vim      # Keep repeated dependencies
  tux install -n vim               # Show what would be fetched`,
	Args: onePackage,
	RunE: runInstall,
}

func runInstall(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	root := args[0]

	repo, err := openRepository()
	if err != nil {
		return err
	}

	var dirs []string
	if !cfg.Install.DryRun {
		dirs = append(dirs, cfg.Install.StagingDir)
	}
	if !repo.Synced() {
		dirs = append(dirs, repo.MirrorDir())
	}
	if elevated, err := ensurePrivileges(ctx, installArgs(root), dirs...); elevated || err != nil {
		return err
	}

	entry := history.NewEntry(history.OpInstall, root)
	entry.Order = cfg.Install.Order
	entry.DryRun = cfg.Install.DryRun

	result, err := doInstall(ctx, repo, root)

	if origin, lerr := repo.Locator(); lerr == nil {
		entry.Origin = origin
	}
	if result != nil && result.Plan != nil {
		entry.Packages = result.Plan.Install
	}
	if err != nil {
		entry.MarkFailed(err)
	} else {
		entry.MarkSuccess()
	}
	recordHistory(entry)

	if err != nil {
		return err
	}

	if result.DryRun {
		ui.MutedMsg("Dry run: nothing was downloaded")
		return nil
	}

	ui.HeaderMsg("Staged packages")
	ui.PrintStaged(result.Staged)
	ui.SuccessMsg("Installed %s", root)
	return nil
}

// doInstall syncs the catalog if needed and drives the installer.
func doInstall(ctx context.Context, repo *repository.Repository, root string) (*installer.Result, error) {
	if !repo.Synced() {
		err := ui.WithSpinner("Package repository not found, cloning it...", func() error {
			return repo.EnsureMirror(ctx)
		})
		if err != nil {
			return nil, err
		}
	}

	order, err := resolver.ParseOrder(cfg.Install.Order)
	if err != nil {
		return nil, err
	}
	mode, err := ui.ParseConfirmMode(cfg.Install.Confirm)
	if err != nil {
		return nil, err
	}

	var sp *ui.Spinner
	stopSpinner := func() {
		if sp != nil {
			sp.Stop()
			sp = nil
		}
	}
	defer stopSpinner()

	inst := installer.New(repo, installer.Options{
		StagingDir:  cfg.Install.StagingDir,
		Order:       order,
		AutoConfirm: cfg.Install.AutoConfirm,
		DryRun:      cfg.Install.DryRun,
		Fetcher:     installer.NewHTTPFetcher(cfg.Network.Timeout.Duration, cfg.Network.UserAgent),
		Logger:      logger,
		OnPlan: func(plan *resolver.Plan) {
			skipped := 0
			if plan.Order != resolver.OrderRaw {
				skipped = plan.Duplicates()
			}
			ui.PrintInstallSet(plan.Install, skipped)
		},
		OnConfirm: func(plan *resolver.Plan) (bool, error) {
			return ui.Confirm("Do you want to continue?", mode)
		},
		OnProgress: func(stage installer.Stage, name, message string) {
			switch stage {
			case installer.StageDownload:
				stopSpinner()
				sp = ui.NewSpinner(message)
				sp.Start()
			case installer.StageStaged:
				if sp != nil {
					sp.Success(message)
					sp = nil
				}
			}
		},
	})

	result, err := inst.Install(ctx, root)
	if err != nil && errors.Is(err, context.Canceled) {
		return result, tuxerr.Wrap(tuxerr.KindAborted, err, "installation of %s interrupted", root)
	}
	return result, err
}

// recordHistory stores entry when history is enabled. Failures only warn.
func recordHistory(entry *history.Entry) {
	if !cfg.History.Enabled {
		return
	}

	store, err := history.Open(cfg.HistoryFile())
	if err != nil {
		logger.Warn("history unavailable", "err", err)
		return
	}
	defer store.Close()

	if err := store.Record(entry); err != nil {
		logger.Warn("failed to record history", "err", err)
	}

	if maxAge := cfg.History.MaxAge.Duration; maxAge > 0 {
		n, err := store.Prune(maxAge)
		if err != nil {
			logger.Warn("failed to prune history", "err", err)
			return
		}
		logger.Debug("pruned history", "entries", n, "max_age", maxAge)
	}
}

package cli

import (
	"fmt"
	"strings"
	"time"

	"tux/internal/history"
	"tux/internal/ui"

	"github.com/spf13/cobra"
)

var (
	historyLimit int
	historyClear bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show install history",
	Long: `Display the install attempts recorded by tux.

Examples:
  tux history               # Show recent history
  tux history -l 20         # Show last 20 operations
  tux history show 3f2a9c10 # Show one entry in full
  tux history --clear       # Forget every entry`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one install attempt",
	Long: `Show every recorded detail of one install attempt. The ID may be
shortened to any unique prefix.`,
	Args: cobra.ExactArgs(1),
	RunE: runHistoryShow,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 10, "number of entries to show")
	historyCmd.Flags().BoolVar(&historyClear, "clear", false, "remove all history entries")
	historyCmd.AddCommand(historyShowCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := history.Open(cfg.HistoryFile())
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer store.Close()

	if historyClear {
		if err := store.Clear(); err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
		ui.SuccessMsg("History cleared")
		return nil
	}

	entries, err := store.List(historyLimit)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	if len(entries) == 0 {
		ui.MutedMsg("No history entries found")
		return nil
	}

	ui.HeaderMsg("Install History")

	for i, entry := range entries {
		var status string
		switch entry.Status() {
		case "success":
			status = ui.Green("success")
		case "dry-run":
			status = ui.Cyan("dry-run")
		default:
			status = ui.Red("failed")
		}

		ui.Println("%2d. %s %s %s %s (%s)",
			i+1,
			ui.Muted.Sprint(shortID(entry.ID)),
			entry.FormatTime(),
			ui.Bold(string(entry.Operation)),
			formatPackages(entry.Root, entry.Packages),
			status,
		)

		if entry.Error != "" {
			ui.MutedMsg("    Error: %s", entry.Error)
		}
	}

	total, _ := store.Count()
	ui.MutedMsg("\nShowing %d of %d total entries", len(entries), total)

	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, err := history.Open(cfg.HistoryFile())
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer store.Close()

	entry, err := store.Get(args[0])
	if err != nil {
		return err
	}

	ui.HeaderMsg("Install %s", entry.Root)
	ui.PrintField("ID", entry.ID)
	ui.PrintField("Time", entry.FormatTime())
	ui.PrintField("Status", entry.Status())
	ui.PrintField("Origin", entry.Origin)
	ui.PrintField("Order", entry.Order)
	ui.PrintField("Packages", strings.Join(entry.Packages, " "))
	ui.PrintField("Duration", entry.Duration.Round(time.Millisecond).String())
	if entry.Error != "" {
		ui.PrintField("Error", entry.Error)
	}
	return nil
}

// shortID trims a UUID to its first group for listing.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// formatPackages formats the root and its install set for display.
func formatPackages(root string, packages []string) string {
	deps := len(packages) - 1
	if deps <= 0 {
		return root
	}
	if deps <= 3 {
		return fmt.Sprintf("%s [%s]", root, strings.Join(packages[:deps], " "))
	}
	return fmt.Sprintf("%s (+%d dependencies)", root, deps)
}

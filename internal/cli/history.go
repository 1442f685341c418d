package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/contentguard/internal/audit"
	"github.com/ppiankov/contentguard/internal/model"
	"github.com/ppiankov/contentguard/internal/settings"
)

var (
	historyWindow string
	historyFormat string
	historyOut    string
)

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyReportCmd)

	historyListCmd.Flags().StringVarP(&historyWindow, "window", "w", "all", "Time window (all|today|week)")
	historyListCmd.Flags().StringVarP(&historyFormat, "format", "f", "text", "Output format (text|json)")
	historyExportCmd.Flags().StringVarP(&historyOut, "out", "o", "", "Output file, - for stdout (default block-history-YYYY-MM-DD.csv)")
	historyReportCmd.Flags().StringVarP(&historyFormat, "format", "f", "text", "Output format (text|json)")
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect the blocked attempt history",
	Long:  "The history keeps the newest 100 blocked attempts.",
}

var historyListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List blocked attempts, newest first",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := audit.ParseWindow(historyWindow)
		if err != nil {
			return err
		}
		return withStore(func(store *settings.Store) error {
			now := time.Now()
			attempts := audit.FilterByWindow(store.Settings().BlockHistory, w, now)

			if historyFormat == "json" {
				out, err := audit.FormatJSON(attempts)
				if err != nil {
					return err
				}
				printf(cmd, "%s\n", out)
				return nil
			}

			if len(attempts) == 0 {
				printf(cmd, "No blocked attempts.\n")
				return nil
			}
			for _, a := range attempts {
				printf(cmd, "%-10s %-8s %-7s %s\n", audit.RelativeTime(a.Timestamp, now), a.Kind(), a.ProtectionLevel, a.Content())
			}
			return nil
		})
	},
}

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the history as CSV",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store *settings.Store) error {
			history := store.Settings().BlockHistory
			if historyOut == "-" {
				return audit.ExportCSV(cmd.OutOrStdout(), history)
			}

			path := historyOut
			if path == "" {
				path = audit.ExportFilename(time.Now())
			}
			f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
			if err != nil {
				return fmt.Errorf("create export file: %w", err)
			}
			if err := audit.ExportCSV(f, history); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close export file: %w", err)
			}
			printf(cmd, "Exported %d attempts to %s\n", len(history), path)
			return nil
		})
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every entry from the history",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store *settings.Store) error {
			if err := store.Commit(ctxOf(cmd), settings.ClearHistory(), ""); err != nil {
				return err
			}
			printf(cmd, "History cleared.\n")
			return nil
		})
	},
}

var historyReportCmd = &cobra.Command{
	Use:       "report <daily|weekly>",
	Short:     "Summarize today's or this week's blocked attempts",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"daily", "weekly"},
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			w     audit.Window
			title string
		)
		switch args[0] {
		case "daily":
			w, title = audit.WindowToday, "Daily report"
		case "weekly":
			w, title = audit.WindowWeek, "Weekly report"
		default:
			return fmt.Errorf("unknown report %q (want daily or weekly)", args[0])
		}

		return withStore(func(store *settings.Store) error {
			attempts := audit.FilterByWindow(store.Settings().BlockHistory, w, time.Now())
			return printReport(cmd, title, attempts)
		})
	},
}

func printReport(cmd *cobra.Command, title string, attempts []model.BlockedAttempt) error {
	summary := audit.Summarize(attempts)
	if historyFormat == "json" {
		out, err := audit.FormatJSON(map[string]any{
			"title":    title,
			"summary":  summary,
			"attempts": attempts,
		})
		if err != nil {
			return err
		}
		printf(cmd, "%s\n", out)
		return nil
	}
	printf(cmd, "%s", audit.FormatTimeline(title, attempts, summary))
	return nil
}

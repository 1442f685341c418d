package cli

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/ppiankov/contentguard/internal/audit"
)

var (
	tailLines int
	tailEvent string
)

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditVerifyCmd)
	auditCmd.AddCommand(auditTailCmd)
	auditTailCmd.Flags().IntVarP(&tailLines, "lines", "n", 10, "Number of recent entries to show")
	auditTailCmd.Flags().StringVar(&tailEvent, "event", "", "Only show one event type (settings_changed, gate_denied, blocked, history_cleared)")
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Journal operations",
	Long:  "Commands for verifying and inspecting the hash-chained journal of\nsettings changes, denied PIN attempts and blocks.",
}

var auditVerifyCmd = &cobra.Command{
	Use:   "verify [path]",
	Short: "Verify hash chain integrity of the journal",
	Long:  "Walks the JSONL journal and validates that every entry's prev_hash\nmatches the SHA-256 of the previous entry. Exits 0 if valid, 1 if tampered.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := journalArg(args)
		if err != nil {
			return err
		}
		result := audit.Verify(path)
		if result.Valid {
			printf(cmd, "OK: %d entries verified\n", result.Lines)
			for _, event := range slices.Sorted(maps.Keys(result.Events)) {
				printf(cmd, "  %-18s %d\n", event, result.Events[event])
			}
			return nil
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "FAILED at line %d: %s\n", result.ErrorLine, result.Error)
		return fmt.Errorf("journal %s failed verification", path)
	},
}

var auditTailCmd = &cobra.Command{
	Use:   "tail [path]",
	Short: "Show recent journal entries",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := journalArg(args)
		if err != nil {
			return err
		}
		entries, err := audit.Read(path, audit.Filter{Event: tailEvent, Limit: tailLines})
		if err != nil {
			return err
		}
		printf(cmd, "%s", audit.FormatEntries(entries))
		return nil
	},
}

// journalArg returns the explicit path or the configured journal.
func journalArg(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	path := cfg.JournalPath()
	if path == "" {
		return "", errors.New("journal is disabled in config; pass a path")
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("journal %s: %w", path, err)
	}
	return path, nil
}

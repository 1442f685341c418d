package cli

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/contentguard/internal/audit"
	"github.com/ppiankov/contentguard/internal/server"
	"github.com/ppiankov/contentguard/internal/settings"
)

var statusFormat string

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringVarP(&statusFormat, "format", "f", "text", "Output format (text|json)")
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the active protection settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store *settings.Store) error {
			s := store.Settings()
			st := server.StatusOf(s)

			if statusFormat == "json" {
				out, err := audit.FormatJSON(st)
				if err != nil {
					return err
				}
				printf(cmd, "%s\n", out)
				return nil
			}

			printf(cmd, "Protection:  %s (%s)\n", s.ProtectionLevel.Label(), enabledWord(s.Enabled))
			printf(cmd, "             %s\n", s.ProtectionLevel.Description())
			printf(cmd, "Vital:       %s\n", enabledWord(s.VitalBlockingEnabled))
			printf(cmd, "PIN:         %s\n", setWord(s.HasPin()))
			if p := s.AccountabilityPartner; p != nil {
				printf(cmd, "Partner:     %s (notify on block: %t)\n", p.Email, p.NotifyOnBlock)
			} else {
				printf(cmd, "Partner:     none\n")
			}
			printf(cmd, "Domains:     %s\n", listOrNone(s.CustomBlockedDomains))
			printf(cmd, "Keywords:    %s\n", listOrNone(s.CustomBlockedKeywords))
			printf(cmd, "History:     %d blocked attempts\n", len(s.BlockHistory))
			printf(cmd, "Modified:    %s\n", s.LastModified.UTC().Format(time.RFC3339))
			if path := store.Path(); path != "" {
				printf(cmd, "Document:    %s\n", path)
			}
			return nil
		})
	},
}

func enabledWord(on bool) string {
	if on {
		return "enabled"
	}
	return "disabled"
}

func setWord(on bool) string {
	if on {
		return "set"
	}
	return "not set"
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

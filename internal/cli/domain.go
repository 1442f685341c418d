package cli

import (
	"github.com/spf13/cobra"

	"github.com/ppiankov/contentguard/internal/settings"
)

func init() {
	rootCmd.AddCommand(domainCmd)
	domainCmd.AddCommand(domainAddCmd)
	domainCmd.AddCommand(domainRemoveCmd)
	domainCmd.AddCommand(domainListCmd)
}

var domainCmd = &cobra.Command{
	Use:   "domain",
	Short: "Manage custom blocked domains",
	Long:  "Custom domains are blocked at every level, off included.",
}

var domainAddCmd = &cobra.Command{
	Use:   "add <domain>...",
	Short: "Block one or more domains",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return commitEach(cmd, args, settings.AddDomain)
	},
}

var domainRemoveCmd = &cobra.Command{
	Use:     "remove <domain>...",
	Aliases: []string{"rm"},
	Short:   "Unblock one or more custom domains",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return commitEach(cmd, args, settings.RemoveDomain)
	},
}

var domainListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List custom blocked domains",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store *settings.Store) error {
			return printList(cmd, store.Settings().CustomBlockedDomains, "No custom domains.")
		})
	},
}

// commitEach commits one unguarded action per argument.
func commitEach(cmd *cobra.Command, args []string, action func(string) settings.Action) error {
	return withStore(func(store *settings.Store) error {
		for _, arg := range args {
			a := action(arg)
			if err := store.Commit(ctxOf(cmd), a, ""); err != nil {
				return err
			}
			printf(cmd, "%s\n", a)
		}
		return nil
	})
}

func printList(cmd *cobra.Command, items []string, empty string) error {
	if len(items) == 0 {
		printf(cmd, "%s\n", empty)
		return nil
	}
	for _, item := range items {
		printf(cmd, "%s\n", item)
	}
	return nil
}

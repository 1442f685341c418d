package cli

import (
	"github.com/spf13/cobra"

	"github.com/ppiankov/contentguard/internal/settings"
)

func init() {
	rootCmd.AddCommand(keywordCmd)
	keywordCmd.AddCommand(keywordAddCmd)
	keywordCmd.AddCommand(keywordRemoveCmd)
	keywordCmd.AddCommand(keywordListCmd)
}

var keywordCmd = &cobra.Command{
	Use:   "keyword",
	Short: "Manage custom blocked keywords",
	Long:  "Custom keywords are matched case-insensitively in text at every level.",
}

var keywordAddCmd = &cobra.Command{
	Use:   "add <keyword>...",
	Short: "Block one or more keywords",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return commitEach(cmd, args, settings.AddKeyword)
	},
}

var keywordRemoveCmd = &cobra.Command{
	Use:     "remove <keyword>...",
	Aliases: []string{"rm"},
	Short:   "Unblock one or more custom keywords",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return commitEach(cmd, args, settings.RemoveKeyword)
	},
}

var keywordListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List custom blocked keywords",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store *settings.Store) error {
			return printList(cmd, store.Settings().CustomBlockedKeywords, "No custom keywords.")
		})
	},
}

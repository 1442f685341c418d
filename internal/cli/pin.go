package cli

import (
	"github.com/spf13/cobra"

	"github.com/ppiankov/contentguard/internal/gate"
	"github.com/ppiankov/contentguard/internal/settings"
)

var pinCurrent string

func init() {
	rootCmd.AddCommand(pinCmd)
	pinCmd.AddCommand(pinSetCmd)
	pinCmd.AddCommand(pinStatusCmd)
	pinSetCmd.Flags().StringVar(&pinCurrent, "pin", "", "Current PIN (prompted for when omitted and required)")
}

var pinCmd = &cobra.Command{
	Use:   "pin",
	Short: "Manage the PIN that guards downgrades",
}

var pinSetCmd = &cobra.Command{
	Use:   "set <new-pin>",
	Short: "Set or change the PIN (4-6 digits)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := gate.ValidatePin(args[0]); err != nil {
			return err
		}
		return withStore(func(store *settings.Store) error {
			if err := applyGuarded(cmd, store, settings.SetPin(args[0]), pinCurrent); err != nil {
				return err
			}
			printf(cmd, "PIN updated.\n")
			return nil
		})
	},
}

var pinStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether a PIN is set",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store *settings.Store) error {
			printf(cmd, "PIN %s\n", setWord(store.Settings().HasPin()))
			return nil
		})
	},
}

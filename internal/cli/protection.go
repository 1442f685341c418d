package cli

import (
	"github.com/spf13/cobra"

	"github.com/ppiankov/contentguard/internal/settings"
)

var protectionPin string

func init() {
	rootCmd.AddCommand(protectionCmd)
	protectionCmd.Flags().StringVar(&protectionPin, "pin", "", "Current PIN (prompted for when omitted and required)")
}

var protectionCmd = &cobra.Command{
	Use:   "protection <on|off>",
	Short: "Turn protection on or off",
	Long: "Turning protection on selects the light level. Turning it off sets the\n" +
		"level to off and needs the PIN once one is set.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		on, err := onOff(args[0])
		if err != nil {
			return err
		}
		return withStore(func(store *settings.Store) error {
			if err := applyGuarded(cmd, store, settings.SetEnabled(on), protectionPin); err != nil {
				return err
			}
			s := store.Settings()
			printf(cmd, "Protection %s (%s)\n", enabledWord(s.Enabled), s.ProtectionLevel.Label())
			return nil
		})
	},
}

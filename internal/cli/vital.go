package cli

import (
	"github.com/spf13/cobra"

	"github.com/ppiankov/contentguard/internal/settings"
)

var vitalPin string

func init() {
	rootCmd.AddCommand(vitalCmd)
	vitalCmd.Flags().StringVar(&vitalPin, "pin", "", "Current PIN (prompted for when omitted and required)")
}

var vitalCmd = &cobra.Command{
	Use:   "vital <on|off>",
	Short: "Toggle vital blocking",
	Long: "Vital blocking sinks adult sites and X/Twitter at every level, including\n" +
		"off. Disabling it needs the PIN once one is set.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		on, err := onOff(args[0])
		if err != nil {
			return err
		}
		return withStore(func(store *settings.Store) error {
			if err := applyGuarded(cmd, store, settings.SetVital(on), vitalPin); err != nil {
				return err
			}
			printf(cmd, "Vital blocking %s\n", enabledWord(store.Settings().VitalBlockingEnabled))
			return nil
		})
	},
}

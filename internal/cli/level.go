package cli

import (
	"github.com/spf13/cobra"

	"github.com/ppiankov/contentguard/internal/model"
	"github.com/ppiankov/contentguard/internal/settings"
)

var levelPin string

func init() {
	rootCmd.AddCommand(levelCmd)
	levelCmd.Flags().StringVar(&levelPin, "pin", "", "Current PIN (prompted for when omitted and required)")
}

var levelCmd = &cobra.Command{
	Use:   "level [off|light|strong|strict]",
	Short: "Show or change the protection level",
	Long: "Without an argument, prints the active level. Raising the level never\n" +
		"needs a PIN; lowering it does once a PIN is set.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store *settings.Store) error {
			if len(args) == 0 {
				for _, l := range model.Levels {
					marker := "  "
					if l == store.Settings().ProtectionLevel {
						marker = "* "
					}
					printf(cmd, "%s%-7s %s\n", marker, l, l.Description())
				}
				return nil
			}

			level, err := model.ParseLevel(args[0])
			if err != nil {
				return err
			}
			if err := applyGuarded(cmd, store, settings.SetLevel(level), levelPin); err != nil {
				return err
			}
			printf(cmd, "Protection level: %s\n", store.Settings().ProtectionLevel.Label())
			return nil
		})
	},
}

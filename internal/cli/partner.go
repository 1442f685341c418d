package cli

import (
	"github.com/spf13/cobra"

	"github.com/ppiankov/contentguard/internal/model"
	"github.com/ppiankov/contentguard/internal/settings"
)

var (
	partnerNotify bool
	partnerDaily  bool
	partnerWeekly bool
)

func init() {
	rootCmd.AddCommand(partnerCmd)
	partnerCmd.AddCommand(partnerSetCmd)
	partnerCmd.AddCommand(partnerClearCmd)
	partnerCmd.AddCommand(partnerShowCmd)
	partnerSetCmd.Flags().BoolVar(&partnerNotify, "notify", true, "Notify the partner on every block")
	partnerSetCmd.Flags().BoolVar(&partnerDaily, "daily", false, "Partner wants a daily report")
	partnerSetCmd.Flags().BoolVar(&partnerWeekly, "weekly", false, "Partner wants a weekly report")
}

var partnerCmd = &cobra.Command{
	Use:   "partner",
	Short: "Manage the accountability partner",
}

var partnerSetCmd = &cobra.Command{
	Use:   "set <email>",
	Short: "Set the accountability partner",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := model.AccountabilityPartner{
			Email:         args[0],
			NotifyOnBlock: partnerNotify,
			DailyReport:   partnerDaily,
			WeeklyReport:  partnerWeekly,
		}
		return withStore(func(store *settings.Store) error {
			if err := store.Commit(ctxOf(cmd), settings.SetPartner(p), ""); err != nil {
				return err
			}
			printPartner(cmd, store.Settings().AccountabilityPartner)
			return nil
		})
	},
}

var partnerClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the accountability partner",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store *settings.Store) error {
			if err := store.Commit(ctxOf(cmd), settings.ClearPartner(), ""); err != nil {
				return err
			}
			printf(cmd, "Partner removed.\n")
			return nil
		})
	},
}

var partnerShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the accountability partner",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store *settings.Store) error {
			printPartner(cmd, store.Settings().AccountabilityPartner)
			return nil
		})
	},
}

func printPartner(cmd *cobra.Command, p *model.AccountabilityPartner) {
	if p == nil {
		printf(cmd, "No accountability partner.\n")
		return
	}
	printf(cmd, "Partner: %s\n", p.Email)
	printf(cmd, "  notify on block: %t\n", p.NotifyOnBlock)
	printf(cmd, "  daily report:    %t\n", p.DailyReport)
	printf(cmd, "  weekly report:   %t\n", p.WeeklyReport)
}

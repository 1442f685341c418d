package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/contentguard/internal/denylist"
	"github.com/ppiankov/contentguard/internal/model"
	"github.com/ppiankov/contentguard/internal/settings"
)

var (
	blocklistLevel  string
	blocklistFormat string
	blocklistOut    string
)

func init() {
	rootCmd.AddCommand(blocklistCmd)
	blocklistCmd.AddCommand(blocklistShowCmd)
	blocklistCmd.AddCommand(blocklistExportCmd)
	blocklistCmd.AddCommand(blocklistDNSCmd)

	blocklistCmd.PersistentFlags().StringVar(&blocklistLevel, "level", "", "Level to render (default: the active level)")
	blocklistExportCmd.Flags().StringVarP(&blocklistFormat, "format", "f", denylist.FormatHosts, "Output format (plain|hosts|dnsmasq)")
	blocklistExportCmd.Flags().StringVarP(&blocklistOut, "out", "o", "-", "Output file, - for stdout")
}

var blocklistCmd = &cobra.Command{
	Use:   "blocklist",
	Short: "Render the effective domain blocklist",
	Long: "The effective list is the level's domains plus custom domains, plus\n" +
		"the vital domains when vital blocking is on.",
}

var blocklistShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the categories and domain count for a level",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store *settings.Store) error {
			level, domains, err := effectiveDomains(store)
			if err != nil {
				return err
			}
			s := store.Settings()
			printf(cmd, "Level:      %s\n", level.Label())
			printf(cmd, "Categories: %s\n", listOrNone(level.Categories()))
			printf(cmd, "Custom:     %d domains\n", len(s.CustomBlockedDomains))
			printf(cmd, "Vital:      %s\n", enabledWord(s.VitalBlockingEnabled))
			printf(cmd, "Effective:  %d domains\n", len(domains))
			return nil
		})
	},
}

var blocklistExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the effective domains for a DNS-level blocker",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store *settings.Store) error {
			_, domains, err := effectiveDomains(store)
			if err != nil {
				return err
			}
			if blocklistOut == "-" {
				return denylist.Export(cmd.OutOrStdout(), domains, blocklistFormat)
			}

			f, err := os.OpenFile(blocklistOut, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
			if err != nil {
				return fmt.Errorf("create blocklist file: %w", err)
			}
			if err := denylist.Export(f, domains, blocklistFormat); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close blocklist file: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d domains to %s\n", len(domains), blocklistOut)
			return nil
		})
	},
}

var blocklistDNSCmd = &cobra.Command{
	Use:   "dns",
	Short: "Print instructions for network-level filtering",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		printf(cmd, "Point your router or system resolver at OpenDNS FamilyShield:\n\n")
		printf(cmd, "  Primary DNS:   %s\n", denylist.FamilyShieldPrimary)
		printf(cmd, "  Secondary DNS: %s\n\n", denylist.FamilyShieldSecondary)
		printf(cmd, "To sink the effective list locally instead:\n\n")
		printf(cmd, "  contentguard blocklist export --format hosts >> /etc/hosts\n")
		printf(cmd, "  contentguard blocklist export --format dnsmasq -o /etc/dnsmasq.d/contentguard.conf\n")
		return nil
	},
}

func effectiveDomains(store *settings.Store) (model.ProtectionLevel, []string, error) {
	s := store.Settings()
	level := s.ProtectionLevel
	if blocklistLevel != "" {
		l, err := model.ParseLevel(blocklistLevel)
		if err != nil {
			return "", nil, err
		}
		level = l
	}
	return level, store.Classifier().Lattice().Effective(level, s.CustomBlockedDomains, s.VitalBlockingEnabled), nil
}

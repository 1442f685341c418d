package cli

import (
	"github.com/spf13/cobra"

	cgmcp "github.com/ppiankov/contentguard/internal/mcp"
)

func init() {
	rootCmd.AddCommand(mcpCmd)
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP tool server for agent integration",
	Long: "Runs contentguard as an MCP (Model Context Protocol) server over stdio.\n" +
		"Exposes tools: contentguard_check_url, contentguard_check_text,\n" +
		"contentguard_status, contentguard_history.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, done, err := openStore()
		if err != nil {
			return err
		}
		defer done()

		ctx, stop := signalContext(cmd)
		defer stop()

		// stdout carries the protocol; everything else goes to the logger.
		logger.Info("mcp server running on stdio", "version", version)
		return cgmcp.New(store, version, logger).Run(ctx)
	},
}

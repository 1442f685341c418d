package cli

import (
	"encoding/json"
	"runtime"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Name     string `json:"name"`
			Version  string `json:"version"`
			Go       string `json:"go"`
			Platform string `json:"platform"`
		}{"contentguard", version, runtime.Version(), runtime.GOOS + "/" + runtime.GOARCH})
	},
}

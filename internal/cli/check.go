package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/contentguard/internal/audit"
	"github.com/ppiankov/contentguard/internal/classify"
	"github.com/ppiankov/contentguard/internal/settings"
)

var (
	checkLog    bool
	checkFormat string
)

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.AddCommand(checkURLCmd)
	checkCmd.AddCommand(checkTextCmd)
	checkCmd.PersistentFlags().BoolVar(&checkLog, "log", false, "Record a block in the history and notify the partner")
	checkCmd.PersistentFlags().StringVarP(&checkFormat, "format", "f", "text", "Output format (text|json)")
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Classify a URL or text against the active settings",
}

var checkURLCmd = &cobra.Command{
	Use:   "url <url>",
	Short: "Check whether a URL is blocked",
	Long: "Runs the URL through vital, domain and keyword stages in order.\n" +
		"Input that is not an absolute URL is matched as a raw string.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store *settings.Store) error {
			var r classify.Result
			if checkLog {
				var err error
				if r, err = store.Guard(ctxOf(cmd), args[0]); err != nil {
					return err
				}
			} else {
				r = store.CheckURL(args[0])
			}
			return printResult(cmd, r)
		})
	},
}

var checkTextCmd = &cobra.Command{
	Use:   "text <text...>",
	Short: "Scan text for blocked keywords",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		return withStore(func(store *settings.Store) error {
			var r classify.Result
			if checkLog {
				var err error
				if r, err = store.GuardText(ctxOf(cmd), text); err != nil {
					return err
				}
			} else {
				r = store.CheckText(text)
			}
			return printResult(cmd, r)
		})
	},
}

func printResult(cmd *cobra.Command, r classify.Result) error {
	if checkFormat == "json" {
		out, err := audit.FormatJSON(r)
		if err != nil {
			return err
		}
		printf(cmd, "%s\n", out)
		return nil
	}
	if !r.Blocked {
		printf(cmd, "ALLOWED\n")
		return nil
	}
	printf(cmd, "BLOCKED [%s] %s\n", r.Stage, r.Reason)
	return nil
}

package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/contentguard/internal/config"
	"github.com/ppiankov/contentguard/internal/denylist"
)

var initForce bool

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing config files")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Bootstrap contentguard configuration",
	Long: `Creates the data directory with a default config.yaml and denylist.yaml.

The data directory is ~/.contentguard unless CONTENTGUARD_HOME or data_dir
in the config says otherwise. Existing files are kept unless --force is set.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
			return fmt.Errorf("create data directory: %w", err)
		}

		cfgFile := configPath
		if cfgFile == "" {
			cfgFile = filepath.Join(cfg.DataDir, "config.yaml")
		}
		scaffold := []struct {
			path   string
			render func() (string, error)
		}{
			{cfgFile, func() (string, error) { return config.DefaultYAML(), nil }},
			{cfg.DenylistPath(), denylistTemplate},
		}

		var created []string
		for _, f := range scaffold {
			content, err := f.render()
			if err != nil {
				return fmt.Errorf("render %s: %w", filepath.Base(f.path), err)
			}
			wrote, err := writeIfMissing(f.path, content)
			if err != nil {
				return err
			}
			if wrote {
				created = append(created, f.path)
			}
		}

		printf(cmd, "contentguard init complete.\n\n")
		if len(created) == 0 {
			printf(cmd, "All files already exist (use --force to overwrite).\n")
		} else {
			printf(cmd, "Created:\n")
			for _, p := range created {
				printf(cmd, "  %s\n", p)
			}
		}
		printf(cmd, "\nTurn protection on:\n  contentguard level light\n  contentguard pin set <4-6 digits>\n")
		return nil
	},
}

// writeIfMissing writes content to path unless the file exists and --force
// is off. It reports whether the file was written.
func writeIfMissing(path, content string) (bool, error) {
	if _, err := os.Stat(path); err == nil && !initForce {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return false, fmt.Errorf("create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, nil
}

const denylistHeader = `# contentguard denylist.
# Domains are matched against URL hosts; keywords against URLs and text.
# light = adult; strong adds dating, gambling, proxy;
# strict adds gaming, streaming, social. vital applies at every level.
#
# Categories left out of this file keep their built-in lists.

`

func denylistTemplate() (string, error) {
	data, err := yaml.Marshal(denylist.DefaultLists)
	if err != nil {
		return "", err
	}
	return denylistHeader + string(data), nil
}

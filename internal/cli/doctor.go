package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/contentguard/internal/audit"
	"github.com/ppiankov/contentguard/internal/config"
	"github.com/ppiankov/contentguard/internal/denylist"
	"github.com/ppiankov/contentguard/internal/kv"
	"github.com/ppiankov/contentguard/internal/settings"
)

func init() {
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the data directory and diagnose configuration issues",
	Args:  cobra.NoArgs,
	RunE:  runDoctor,
}

type checkResult struct {
	label  string
	ok     bool
	detail string
	fix    string
}

func runDoctor(cmd *cobra.Command, args []string) error {
	var checks []checkResult

	// 1. Data directory.
	if info, err := os.Stat(cfg.DataDir); err == nil && info.IsDir() {
		checks = append(checks, checkResult{label: "data directory", ok: true, detail: cfg.DataDir})
	} else {
		checks = append(checks, checkResult{label: "data directory", detail: "missing", fix: "contentguard init"})
	}

	// 2. config.yaml. Load already succeeded, so only presence matters.
	cfgFile := configPath
	if cfgFile == "" {
		cfgFile = config.DefaultPath()
	}
	if _, err := os.Stat(cfgFile); err == nil {
		checks = append(checks, checkResult{label: "config.yaml", ok: true, detail: cfgFile})
	} else {
		checks = append(checks, checkResult{label: "config.yaml", ok: true, detail: "not found, using defaults"})
	}

	// 3. denylist.yaml.
	if _, err := os.Stat(cfg.DenylistPath()); err != nil {
		checks = append(checks, checkResult{label: "denylist.yaml", ok: true, detail: "not found, using built-in lists"})
	} else if _, err := denylist.Load(cfg.DenylistPath()); err != nil {
		checks = append(checks, checkResult{label: "denylist.yaml", detail: err.Error(), fix: "contentguard init --force"})
	} else {
		checks = append(checks, checkResult{label: "denylist.yaml", ok: true, detail: "valid"})
	}

	// 4. Settings document.
	checks = append(checks, checkSettingsDocument())

	// 5. Journal chain.
	if path := cfg.JournalPath(); path == "" {
		checks = append(checks, checkResult{label: "journal", ok: true, detail: "disabled"})
	} else if _, err := os.Stat(path); err != nil {
		checks = append(checks, checkResult{label: "journal", ok: true, detail: "no entries yet"})
	} else if r := audit.Verify(path); r.Valid {
		checks = append(checks, checkResult{label: "journal", ok: true, detail: fmt.Sprintf("%d entries verified", r.Lines)})
	} else {
		checks = append(checks, checkResult{
			label:  "journal",
			detail: fmt.Sprintf("chain broken at line %d: %s", r.ErrorLine, r.Error),
			fix:    "inspect with contentguard audit tail",
		})
	}

	// Print results.
	hasFailures := false
	for _, c := range checks {
		mark := "\u2713" // ✓
		if !c.ok {
			mark = "\u2717" // ✗
			hasFailures = true
		}
		line := fmt.Sprintf("%s %-20s %s", mark, c.label+":", c.detail)
		if !c.ok && c.fix != "" {
			line += fmt.Sprintf("  ->  %s", c.fix)
		}
		printf(cmd, "%s\n", line)
	}

	if hasFailures {
		printf(cmd, "\nSome checks failed. Run the suggested commands to fix.\n")
		return fmt.Errorf("doctor found issues")
	}

	printf(cmd, "\nAll checks passed.\n")
	return nil
}

// checkSettingsDocument reads the raw document so a malformed one is
// reported instead of silently replaced by defaults.
func checkSettingsDocument() checkResult {
	const label = "settings document"

	backing, err := kv.Open(cfg.Backend, cfg.DataDir)
	if err != nil {
		return checkResult{label: label, detail: err.Error()}
	}
	defer backing.Close()

	data, ok, err := backing.Load(settings.DefaultKey)
	switch {
	case err != nil:
		return checkResult{label: label, detail: err.Error()}
	case !ok:
		return checkResult{label: label, ok: true, detail: "not written yet, protection off"}
	}

	s, err := settings.Unmarshal(data)
	if err != nil {
		return checkResult{
			label:  label,
			detail: err.Error(),
			fix:    "contentguard level <level> rewrites it",
		}
	}
	detail := fmt.Sprintf("%s, PIN %s", s.ProtectionLevel.Label(), setWord(s.HasPin()))
	return checkResult{label: label, ok: true, detail: detail}
}

package audit

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/contentguard/internal/model"
)

const separator = "──────────────────────────────────────────────────────────────────"

// FormatTimeline renders history as a human-readable report, newest first.
func FormatTimeline(title string, history []model.BlockedAttempt, s Summary) string {
	if len(history) == 0 {
		return fmt.Sprintf("%s | No blocked attempts.\n", title)
	}

	var b strings.Builder

	b.WriteString(fmt.Sprintf("%s | %s–%s UTC\n", title,
		s.First.UTC().Format("2006-01-02 15:04:05"),
		s.Last.UTC().Format("2006-01-02 15:04:05")))
	b.WriteString(separator + "\n")

	for _, a := range history {
		ts := a.Timestamp.UTC().Format("01-02 15:04")
		b.WriteString(fmt.Sprintf("%-12s %-8s %-7s %-32s %s\n",
			ts, a.Kind(), a.ProtectionLevel, truncate(a.Content(), 32), truncate(a.Reason, 60)))
	}

	b.WriteString(separator + "\n")
	b.WriteString(formatSummary(s))

	return b.String()
}

// FormatJSON renders any report value as indented JSON.
func FormatJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}
	return string(data), nil
}

// RelativeTime renders ts as "just now", "5m ago", "3h ago", "2d ago" or a
// date once it is a week old.
func RelativeTime(ts, now time.Time) string {
	d := now.Sub(ts)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d/time.Minute))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d/time.Hour))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d/(24*time.Hour)))
	default:
		return ts.Local().Format("2006-01-02")
	}
}

func formatSummary(s Summary) string {
	parts := []string{fmt.Sprintf("%d blocked", s.Total)}
	if s.URLCount > 0 {
		parts = append(parts, fmt.Sprintf("%d url", s.URLCount))
	}
	if s.KeywordCount > 0 {
		parts = append(parts, fmt.Sprintf("%d keyword", s.KeywordCount))
	}

	levels := []string{}
	for _, l := range model.Levels {
		if n := s.ByLevel[l]; n > 0 {
			levels = append(levels, fmt.Sprintf("%s=%d", l, n))
		}
	}
	if len(levels) == 0 {
		return fmt.Sprintf("Summary: %s\n", strings.Join(parts, ", "))
	}
	return fmt.Sprintf("Summary: %s | Levels: %s\n", strings.Join(parts, ", "), strings.Join(levels, " "))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

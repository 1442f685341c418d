package audit

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ppiankov/contentguard/internal/model"
)

// TimestampFormat is the layout used for exported and journaled timestamps.
const TimestampFormat = "2006-01-02T15:04:05.000Z"

// Append returns a new history with attempt at index 0, truncated to
// model.MaxHistory entries. history is not modified.
func Append(history []model.BlockedAttempt, attempt model.BlockedAttempt) []model.BlockedAttempt {
	n := len(history) + 1
	if n > model.MaxHistory {
		n = model.MaxHistory
	}
	out := make([]model.BlockedAttempt, 0, n)
	out = append(out, attempt)
	for _, a := range history {
		if len(out) == n {
			break
		}
		out = append(out, a)
	}
	return out
}

// Window selects a slice of history by age.
type Window string

const (
	WindowAll   Window = "all"
	WindowToday Window = "today"
	WindowWeek  Window = "week"
)

// ParseWindow converts user input into a Window. Empty input means all.
func ParseWindow(s string) (Window, error) {
	switch w := Window(strings.ToLower(strings.TrimSpace(s))); w {
	case "", WindowAll:
		return WindowAll, nil
	case WindowToday, WindowWeek:
		return w, nil
	default:
		return "", fmt.Errorf("unknown window %q (want all, today or week)", s)
	}
}

// FilterByWindow returns the attempts inside w relative to now. Today starts
// at midnight in now's location. Week is the last 7×24h.
func FilterByWindow(history []model.BlockedAttempt, w Window, now time.Time) []model.BlockedAttempt {
	var since time.Time
	switch w {
	case WindowToday:
		since = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	case WindowWeek:
		since = now.Add(-7 * 24 * time.Hour)
	default:
		return append([]model.BlockedAttempt{}, history...)
	}

	out := make([]model.BlockedAttempt, 0, len(history))
	for _, a := range history {
		if !a.Timestamp.Before(since) {
			out = append(out, a)
		}
	}
	return out
}

// Clear returns an empty history.
func Clear([]model.BlockedAttempt) []model.BlockedAttempt {
	return []model.BlockedAttempt{}
}

// CSVHeader is the first row of an exported history.
var CSVHeader = []string{"Timestamp", "Type", "Content", "Reason", "Protection Level"}

// ExportCSV writes history as CSV, one row per attempt.
func ExportCSV(w io.Writer, history []model.BlockedAttempt) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("audit: export csv: %w", err)
	}
	for _, a := range history {
		row := []string{
			a.Timestamp.UTC().Format(TimestampFormat),
			a.Kind(),
			a.Content(),
			a.Reason,
			string(a.ProtectionLevel),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("audit: export csv: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("audit: export csv: %w", err)
	}
	return nil
}

// ExportFilename returns the download name for an export made at now.
func ExportFilename(now time.Time) string {
	return "block-history-" + now.UTC().Format("2006-01-02") + ".csv"
}

// Summary holds counts and bounds for a slice of history.
type Summary struct {
	Total        int                           `json:"total"`
	URLCount     int                           `json:"url_count"`
	KeywordCount int                           `json:"keyword_count"`
	ByLevel      map[model.ProtectionLevel]int `json:"by_level"`
	First        time.Time                     `json:"first"`
	Last         time.Time                     `json:"last"`
}

// Summarize counts attempts by kind and level. First and Last are the
// oldest and newest timestamps.
func Summarize(history []model.BlockedAttempt) Summary {
	s := Summary{ByLevel: make(map[model.ProtectionLevel]int)}
	for _, a := range history {
		s.Total++
		if a.Kind() == "URL" {
			s.URLCount++
		} else {
			s.KeywordCount++
		}
		s.ByLevel[a.ProtectionLevel]++

		if s.First.IsZero() || a.Timestamp.Before(s.First) {
			s.First = a.Timestamp
		}
		if a.Timestamp.After(s.Last) {
			s.Last = a.Timestamp
		}
	}
	return s
}

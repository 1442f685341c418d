package audit

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Filter selects journal entries. Zero values match everything.
type Filter struct {
	Event string
	Since time.Time
	Limit int // keep only the newest Limit entries
}

// Read returns journal entries matching filter in file order.
// Malformed lines are skipped; use Verify to detect them.
func Read(path string, filter Filter) ([]Entry, error) {
	var entries []Entry
	err := eachLine(path, func(_ int, line []byte) error {
		var entry Entry
		if json.Unmarshal(line, &entry) != nil || !filter.match(entry) {
			return nil
		}
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}

	if filter.Limit > 0 && len(entries) > filter.Limit {
		entries = entries[len(entries)-filter.Limit:]
	}
	return entries, nil
}

func (f Filter) match(e Entry) bool {
	if f.Event != "" && e.Event != f.Event {
		return false
	}
	if f.Since.IsZero() {
		return true
	}
	ts, err := time.Parse(TimestampFormat, e.Timestamp)
	return err == nil && !ts.Before(f.Since)
}

// FormatEntries renders journal entries one per line.
func FormatEntries(entries []Entry) string {
	if len(entries) == 0 {
		return "No journal entries.\n"
	}

	var b strings.Builder
	for _, e := range entries {
		ts := e.Timestamp
		if t, err := time.Parse(TimestampFormat, e.Timestamp); err == nil {
			ts = t.Format("2006-01-02 15:04:05")
		}
		line := fmt.Sprintf("%-19s %-16s %-8s %-7s %s",
			ts, e.Event, strings.ToUpper(e.Decision), e.Level, truncate(e.Subject, 48))
		if e.Reason != "" {
			line += "  (" + truncate(e.Reason, 60) + ")"
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

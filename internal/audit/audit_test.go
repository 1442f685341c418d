package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func newTestLog(t *testing.T) (*Log, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	l, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open journal: %v", err)
	}
	return l, path
}

func testEntry(decision string) Entry {
	return Entry{
		Timestamp:    time.Now().UTC().Format(TimestampFormat),
		Event:        EventSettingsChanged,
		Subject:      "set level strict",
		Decision:     decision,
		Reason:       "test reason",
		Level:        "strict",
		SettingsHash: "sha256:abc123",
	}
}

func TestSequentialWritesProduceValidChain(t *testing.T) {
	l, path := newTestLog(t)

	for i := 0; i < 5; i++ {
		if err := l.Record(testEntry("allow")); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}
	l.Close()

	result := Verify(path)
	if !result.Valid {
		t.Fatalf("expected valid chain, got error at line %d: %s", result.ErrorLine, result.Error)
	}
	if result.Lines != 5 {
		t.Fatalf("expected 5 lines, got %d", result.Lines)
	}
}

// journalLines writes three entries and returns the raw lines.
func journalLines(t *testing.T) (string, []string) {
	t.Helper()
	l, path := newTestLog(t)
	for i := 0; i < 3; i++ {
		if err := l.Record(testEntry("allow")); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}
	l.Close()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return path, strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestVerifyDetectsTampering(t *testing.T) {
	forged := testEntry("deny")
	forged.PrevHash = "sha256:fake"
	forgedLine, _ := json.Marshal(forged)

	tests := []struct {
		name     string
		mutate   func(lines []string) []string
		wantLine int
	}{
		{"edited entry", func(lines []string) []string {
			lines[1] = strings.Replace(lines[1], `"allow"`, `"deny"`, 1)
			return lines
		}, 3},
		{"deleted entry", func(lines []string) []string {
			return []string{lines[0], lines[2]}
		}, 2},
		{"inserted entry", func(lines []string) []string {
			return []string{lines[0], string(forgedLine), lines[1], lines[2]}
		}, 2},
		{"truncated line", func(lines []string) []string {
			lines[2] = lines[2][:len(lines[2])/2]
			return lines
		}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, lines := journalLines(t)
			out := tt.mutate(lines)
			if err := os.WriteFile(path, []byte(strings.Join(out, "\n")+"\n"), 0600); err != nil {
				t.Fatal(err)
			}

			result := Verify(path)
			if result.Valid {
				t.Fatal("expected invalid chain")
			}
			if result.ErrorLine != tt.wantLine {
				t.Errorf("expected error at line %d, got %d (%s)", tt.wantLine, result.ErrorLine, result.Error)
			}
		})
	}
}

func TestEmptyJournalPassesVerification(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.jsonl")
	os.WriteFile(path, []byte{}, 0644)

	result := Verify(path)
	if !result.Valid {
		t.Fatalf("expected empty journal to be valid, got: %s", result.Error)
	}
	if result.Lines != 0 {
		t.Fatalf("expected 0 lines, got %d", result.Lines)
	}
}

func TestConcurrentWritesSerializeCorrectly(t *testing.T) {
	l, path := newTestLog(t)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Record(testEntry("allow"))
		}()
	}
	wg.Wait()
	l.Close()

	result := Verify(path)
	if !result.Valid {
		t.Fatalf("expected valid chain after concurrent writes, got error at line %d: %s", result.ErrorLine, result.Error)
	}
	if result.Lines != 100 {
		t.Fatalf("expected 100 lines, got %d", result.Lines)
	}
}

func TestHashLine(t *testing.T) {
	line := []byte(`{"ts":"2025-01-15T10:30:00.000Z","event":"blocked","subject":"https://pornhub.com","decision":"deny"}`)
	got := HashLine(line)
	if got != HashLine(append([]byte(nil), line...)) {
		t.Fatal("hash is not deterministic")
	}
	if !strings.HasPrefix(got, "sha256:") || len(got) != len(GenesisHash) {
		t.Fatalf("unexpected hash format %q", got)
	}
	if got == HashLine(append(line, ' ')) {
		t.Error("trailing byte did not change the hash")
	}
}

func TestOpenExistingJournalContinuesChain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.jsonl")

	var head string
	for session, decisions := range [][]string{{"allow", "allow", "allow"}, {"deny", "deny"}} {
		l, err := Open(path)
		if err != nil {
			t.Fatal(err)
		}
		if session > 0 && l.Head() != head {
			t.Fatalf("reopened head %s, want %s", l.Head(), head)
		}
		for _, d := range decisions {
			if err := l.Record(testEntry(d)); err != nil {
				t.Fatal(err)
			}
		}
		head = l.Head()
		l.Close()
	}

	data, _ := os.ReadFile(path)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if got := HashLine([]byte(lines[len(lines)-1])); got != head {
		t.Errorf("head %s does not match last line hash %s", head, got)
	}

	result := Verify(path)
	if !result.Valid || result.Lines != 5 {
		t.Fatalf("expected 5 valid entries after reopen, got %+v", result)
	}
}

func TestNewJournalStartsAtGenesis(t *testing.T) {
	l, path := newTestLog(t)
	if l.Head() != GenesisHash {
		t.Errorf("expected genesis head, got %s", l.Head())
	}
	if err := l.Record(testEntry("allow")); err != nil {
		t.Fatal(err)
	}
	l.Close()

	entries, err := Read(path, Filter{})
	if err != nil || len(entries) != 1 {
		t.Fatalf("Read: %v (%d entries)", err, len(entries))
	}
	if entries[0].PrevHash != GenesisHash {
		t.Errorf("first entry links to %s, want genesis", entries[0].PrevHash)
	}
}

func TestVerify10KEntriesUnder1Second(t *testing.T) {
	l, path := newTestLog(t)

	entry := testEntry("allow")
	for i := 0; i < 10000; i++ {
		if err := l.Record(entry); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}
	l.Close()

	start := time.Now()
	result := Verify(path)
	elapsed := time.Since(start)

	if !result.Valid {
		t.Fatalf("expected valid chain, got error at line %d: %s", result.ErrorLine, result.Error)
	}
	if result.Lines != 10000 {
		t.Fatalf("expected 10000 lines, got %d", result.Lines)
	}
	if elapsed > time.Second {
		t.Fatalf("verification took %v, expected < 1s", elapsed)
	}
}

func TestSettingsHashChangesWhenDocumentChanges(t *testing.T) {
	h1 := HashLine([]byte(`{"protectionLevel":"light"}`))
	h2 := HashLine([]byte(`{"protectionLevel":"strict"}`))
	if h1 == h2 {
		t.Fatal("expected different hashes for different inputs")
	}
}

func TestNilLogDiscards(t *testing.T) {
	var l *Log
	if err := l.Record(testEntry("allow")); err != nil {
		t.Fatalf("expected nil log to discard, got %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("expected nil close to succeed, got %v", err)
	}
}

func TestReadFiltersByEventAndLimit(t *testing.T) {
	l, path := newTestLog(t)

	blocked := testEntry("deny")
	blocked.Event = EventBlocked
	blocked.Subject = "https://pornhub.com"

	l.Record(testEntry("allow"))
	l.Record(blocked)
	l.Record(testEntry("allow"))
	l.Record(blocked)
	l.Close()

	all, err := Read(path, Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(all))
	}

	onlyBlocked, err := Read(path, Filter{Event: EventBlocked})
	if err != nil {
		t.Fatal(err)
	}
	if len(onlyBlocked) != 2 {
		t.Fatalf("expected 2 blocked entries, got %d", len(onlyBlocked))
	}

	last, err := Read(path, Filter{Limit: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(last) != 1 || last[0].Event != EventBlocked {
		t.Fatalf("expected newest entry only, got %+v", last)
	}
}

func TestReadSince(t *testing.T) {
	l, path := newTestLog(t)

	old := testEntry("allow")
	old.Timestamp = "2020-01-01T00:00:00.000Z"
	l.Record(old)
	l.Record(testEntry("allow"))
	l.Close()

	entries, err := Read(path, Filter{Since: time.Now().Add(-time.Hour)})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 recent entry, got %d", len(entries))
	}
}

func TestReadMissingJournal(t *testing.T) {
	if _, err := Read(filepath.Join(t.TempDir(), "missing.jsonl"), Filter{}); err == nil {
		t.Fatal("expected error for missing journal")
	}
}

func TestFormatEntries(t *testing.T) {
	e := testEntry("deny")
	e.Timestamp = "2025-01-15T10:30:00.000Z"
	e.Event = EventGateDenied

	out := FormatEntries([]Entry{e})
	if !strings.Contains(out, "2025-01-15 10:30:00") {
		t.Errorf("expected formatted timestamp, got:\n%s", out)
	}
	if !strings.Contains(out, "gate_denied") || !strings.Contains(out, "DENY") {
		t.Errorf("expected event and decision, got:\n%s", out)
	}
	if !strings.Contains(FormatEntries(nil), "No journal entries") {
		t.Error("expected empty message")
	}
}

func TestVerifyCountsEvents(t *testing.T) {
	l, path := newTestLog(t)

	for _, event := range []string{EventSettingsChanged, EventBlocked, EventBlocked, EventGateDenied} {
		e := testEntry("allow")
		e.Event = event
		if err := l.Record(e); err != nil {
			t.Fatal(err)
		}
	}
	l.Close()

	result := Verify(path)
	if !result.Valid {
		t.Fatalf("expected valid chain: %s", result.Error)
	}
	if result.Events[EventBlocked] != 2 || result.Events[EventSettingsChanged] != 1 || result.Events[EventGateDenied] != 1 {
		t.Errorf("unexpected event counts %v", result.Events)
	}
}

func TestVerifyRejectsForeignGenesis(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	e := testEntry("allow")
	e.PrevHash = "sha256:elsewhere"
	data, _ := json.Marshal(e)
	os.WriteFile(path, append(data, '\n'), 0644)

	result := Verify(path)
	if result.Valid || result.ErrorLine != 1 {
		t.Fatalf("expected failure at line 1, got %+v", result)
	}
	if !strings.Contains(result.Error, "genesis") {
		t.Errorf("unexpected error %q", result.Error)
	}
}

func TestVerifyMissingJournal(t *testing.T) {
	result := Verify(filepath.Join(t.TempDir(), "missing.jsonl"))
	if result.Valid || result.Error == "" {
		t.Fatalf("expected error for missing journal, got %+v", result)
	}
}

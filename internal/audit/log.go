package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// GenesisHash is the prev_hash for the first entry in a new journal.
const GenesisHash = "sha256:0000000000000000000000000000000000000000000000000000000000000000"

// Log appends hash-chained entries to a JSONL journal. Every entry carries
// the hash of the line before it, so any edit, deletion or insertion shows
// up in Verify.
type Log struct {
	mu   sync.Mutex
	path string
	f    *os.File
	head string // hash of the last line written
}

// Open opens or creates a journal for appending. Entries written by an
// earlier process are chained onto, not restarted.
func Open(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("audit: create journal directory: %w", err)
	}
	head, err := tailHash(path)
	if err != nil {
		return nil, fmt.Errorf("audit: recover chain tail: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("audit: open journal: %w", err)
	}
	return &Log{path: path, f: f, head: head}, nil
}

// Record chains entry onto the journal and syncs it to disk.
// A nil Log discards entries.
func (l *Log) Record(entry Entry) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	line, err := l.seal(entry)
	if err != nil {
		return err
	}
	if _, err := l.f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("audit: append entry: %w", err)
	}
	if err := l.f.Sync(); err != nil {
		return fmt.Errorf("audit: sync journal: %w", err)
	}
	l.head = HashLine(line)
	return nil
}

// seal stamps entry with a timestamp and the current chain head and
// returns its encoded line. Callers hold l.mu.
func (l *Log) seal(entry Entry) ([]byte, error) {
	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format(TimestampFormat)
	}
	entry.PrevHash = l.head
	line, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("audit: encode entry: %w", err)
	}
	return line, nil
}

// Head returns the hash the next entry will link to.
func (l *Log) Head() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.head
}

// Path returns the journal file path.
func (l *Log) Path() string { return l.path }

// Close closes the journal file. A nil Log is a no-op.
func (l *Log) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}

// HashLine returns "sha256:<hex>" of b. It chains journal lines and also
// fingerprints settings documents for Entry.SettingsHash.
func HashLine(b []byte) string {
	sum := sha256.Sum256(b)
	return "sha256:" + hex.EncodeToString(sum[:])
}

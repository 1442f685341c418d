// Package kv provides the synchronous string-keyed document store that
// settings are persisted in.
package kv

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrInvalidKey is returned for keys that could escape the store.
var ErrInvalidKey = errors.New("invalid key")

// Store persists whole documents under string keys.
type Store interface {
	// Load returns the document for key. ok is false when nothing is stored.
	Load(key string) (data []byte, ok bool, err error)
	// Save replaces the document for key.
	Save(key string, data []byte) error
	// Path returns the file backing key, or "" if there is none.
	Path(key string) string
	Close() error
}

// Backends accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Open creates a store of the named backend rooted at dir.
func Open(backend, dir string) (Store, error) {
	switch backend {
	case "", BackendFile:
		return NewFileStore(dir)
	case BackendSQLite:
		return OpenSQLite(filepath.Join(dir, "contentguard.db"))
	case BackendMemory:
		return NewMemStore(), nil
	default:
		return nil, fmt.Errorf("kv: unknown backend %q (want file, sqlite or memory)", backend)
	}
}

// DefaultDir returns the default data directory.
func DefaultDir() string {
	if dir := os.Getenv("CONTENTGUARD_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "contentguard")
	}
	return filepath.Join(home, ".contentguard")
}

// validKey matches alphanumeric, dash, underscore, and dot characters only.
var validKey = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// validateKey rejects keys that could cause path traversal.
func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: key must not be empty", ErrInvalidKey)
	}
	if strings.Contains(key, "..") {
		return fmt.Errorf("%w: key must not contain '..'", ErrInvalidKey)
	}
	if !validKey.MatchString(key) {
		return fmt.Errorf("%w: only alphanumeric, dash, underscore, and dot are allowed", ErrInvalidKey)
	}
	return nil
}

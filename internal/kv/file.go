package kv

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps one JSON document per key in a directory.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates a FileStore backed by dir.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("kv: create data directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Load reads the document for key.
func (s *FileStore) Load(key string) ([]byte, bool, error) {
	if err := validateKey(key); err != nil {
		return nil, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.Path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("kv: read %s: %w", key, err)
	}
	return data, true, nil
}

// Save writes the document atomically via tmp+rename.
func (s *FileStore) Save(key string, data []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.Path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("kv: write %s: %w", key, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("kv: commit %s: %w", key, err)
	}
	return nil
}

// Path returns the file that holds key.
func (s *FileStore) Path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Close is a no-op.
func (s *FileStore) Close() error {
	return nil
}

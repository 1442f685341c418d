package kv

import "sync"

// MemStore keeps documents in memory.
type MemStore struct {
	mu   sync.Mutex
	docs map[string][]byte
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{docs: make(map[string][]byte)}
}

// Load returns a copy of the document for key.
func (s *MemStore) Load(key string) ([]byte, bool, error) {
	if err := validateKey(key); err != nil {
		return nil, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.docs[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), data...), true, nil
}

// Save stores a copy of data.
func (s *MemStore) Save(key string, data []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[key] = append([]byte(nil), data...)
	return nil
}

// Path returns "": nothing backs a MemStore on disk.
func (s *MemStore) Path(string) string {
	return ""
}

// Close is a no-op.
func (s *MemStore) Close() error {
	return nil
}

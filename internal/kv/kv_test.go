package kv

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()

	fs, err := NewFileStore(filepath.Join(t.TempDir(), "file"))
	if err != nil {
		t.Fatal(err)
	}
	sq, err := OpenSQLite(filepath.Join(t.TempDir(), "kv.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { sq.Close() })

	return map[string]Store{
		"file":   fs,
		"sqlite": sq,
		"memory": NewMemStore(),
	}
}

func TestLoadMissingKey(t *testing.T) {
	for name, s := range backends(t) {
		data, ok, err := s.Load("settings")
		if err != nil || ok || data != nil {
			t.Errorf("%s: expected absent document, got %q %v %v", name, data, ok, err)
		}
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	for name, s := range backends(t) {
		doc := []byte(`{"protectionLevel":"strict"}`)
		if err := s.Save("settings", doc); err != nil {
			t.Fatalf("%s: save: %v", name, err)
		}
		got, ok, err := s.Load("settings")
		if err != nil || !ok {
			t.Fatalf("%s: load: %v %v", name, ok, err)
		}
		if string(got) != string(doc) {
			t.Errorf("%s: got %s, want %s", name, got, doc)
		}
	}
}

func TestSaveOverwrites(t *testing.T) {
	for name, s := range backends(t) {
		s.Save("settings", []byte("one"))
		s.Save("settings", []byte("two"))
		got, _, _ := s.Load("settings")
		if string(got) != "two" {
			t.Errorf("%s: expected last write to win, got %s", name, got)
		}
	}
}

func TestInvalidKeysRejected(t *testing.T) {
	for name, s := range backends(t) {
		for _, key := range []string{"", "../etc/passwd", "a/b", "bad key"} {
			if err := s.Save(key, []byte("x")); !errors.Is(err, ErrInvalidKey) {
				t.Errorf("%s: Save(%q) expected ErrInvalidKey, got %v", name, key, err)
			}
			if _, _, err := s.Load(key); !errors.Is(err, ErrInvalidKey) {
				t.Errorf("%s: Load(%q) expected ErrInvalidKey, got %v", name, key, err)
			}
		}
	}
}

func TestFileStoreAtomicWrite(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Save("settings", []byte("{}")); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "settings.json.tmp")); !os.IsNotExist(err) {
		t.Error("expected temp file to be renamed away")
	}
	if s.Path("settings") != filepath.Join(dir, "settings.json") {
		t.Errorf("unexpected path %s", s.Path("settings"))
	}
}

func TestSQLitePersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.db")
	s1, err := OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s1.Save("settings", []byte("persisted")); err != nil {
		t.Fatal(err)
	}
	s1.Close()

	s2, err := OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	got, ok, err := s2.Load("settings")
	if err != nil || !ok || string(got) != "persisted" {
		t.Errorf("expected persisted document, got %q %v %v", got, ok, err)
	}
}

func TestMemStoreCopies(t *testing.T) {
	s := NewMemStore()
	data := []byte("abc")
	s.Save("k", data)
	data[0] = 'z'

	got, _, _ := s.Load("k")
	if string(got) != "abc" {
		t.Errorf("expected stored copy, got %s", got)
	}
}

func TestOpenBackends(t *testing.T) {
	dir := t.TempDir()
	for _, b := range []string{"", BackendFile, BackendSQLite, BackendMemory} {
		s, err := Open(b, dir)
		if err != nil {
			t.Errorf("Open(%q): %v", b, err)
			continue
		}
		s.Close()
	}
	if _, err := Open("redis", dir); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestDefaultDirHonoursEnv(t *testing.T) {
	t.Setenv("CONTENTGUARD_HOME", "/tmp/cg-test")
	if got := DefaultDir(); got != "/tmp/cg-test" {
		t.Errorf("expected env override, got %s", got)
	}
}

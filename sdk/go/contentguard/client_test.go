package contentguard

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ppiankov/contentguard/internal/telemetry"
)

func newTestClient(t *testing.T, opts ...Option) *Client {
	t.Helper()
	dir := t.TempDir()
	opts = append([]Option{WithDir(dir), WithLogger(telemetry.Discard())}, opts...)
	c, err := New(opts...)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func requireBlocked(t *testing.T, err error) *BlockedError {
	t.Helper()
	if err == nil {
		t.Fatal("expected content to be blocked, got nil error")
	}
	var blocked *BlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("expected *BlockedError, got %T: %v", err, err)
	}
	return blocked
}

func TestNewDefaultsOff(t *testing.T) {
	c := newTestClient(t)
	s := c.Settings()
	if s.Enabled || s.ProtectionLevel != LevelOff || s.HasPin() {
		t.Errorf("expected all-off defaults, got %+v", s)
	}
	if r := c.CheckURL("https://pornhub.com"); r.Blocked {
		t.Errorf("expected nothing blocked when off, got %+v", r)
	}
}

func TestNewBadBackend(t *testing.T) {
	_, err := New(WithDir(t.TempDir()), WithBackend("nope"))
	if err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestNewBadDenylist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "denylist.yaml")
	if err := os.WriteFile(path, []byte("adult: [unterminated"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := New(WithDir(t.TempDir()), WithDenylist(path)); err == nil {
		t.Fatal("expected error for malformed denylist")
	}
}

func TestGuardBlocksAndRecords(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	if err := c.SetLevel(ctx, LevelLight, ""); err != nil {
		t.Fatalf("SetLevel: %v", err)
	}

	blocked := requireBlocked(t, c.Guard(ctx, "https://www.pornhub.com/video"))
	if blocked.Target != "https://www.pornhub.com/video" || !blocked.Result.Blocked {
		t.Errorf("unexpected blocked error %+v", blocked)
	}

	if err := c.Guard(ctx, "https://example.com"); err != nil {
		t.Errorf("expected clean URL allowed, got %v", err)
	}

	h := c.History()
	if len(h) != 1 || h[0].URL != "https://www.pornhub.com/video" || h[0].ProtectionLevel != LevelLight {
		t.Errorf("unexpected history %+v", h)
	}
}

func TestGuardTextRecordsKeyword(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	if err := c.SetLevel(ctx, LevelStrict, ""); err != nil {
		t.Fatal(err)
	}

	blocked := requireBlocked(t, c.GuardText(ctx, "best online casino"))
	if blocked.Result.MatchedKeyword != "casino" {
		t.Errorf("expected casino, got %q", blocked.Result.MatchedKeyword)
	}
	h := c.History()
	if len(h) != 1 || h[0].Keyword != "casino" || h[0].URL != "" {
		t.Errorf("unexpected history %+v", h)
	}
}

func TestSetLevelNeedsPin(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	if err := c.SetLevel(ctx, LevelStrong, ""); err != nil {
		t.Fatal(err)
	}
	if err := c.SetPin(ctx, "1234", ""); err != nil {
		t.Fatalf("SetPin: %v", err)
	}

	if err := c.SetLevel(ctx, LevelLight, ""); !errors.Is(err, ErrPinRequired) {
		t.Fatalf("expected ErrPinRequired, got %v", err)
	}
	if err := c.SetLevel(ctx, LevelLight, "9999"); !errors.Is(err, ErrIncorrectPin) {
		t.Fatalf("expected ErrIncorrectPin, got %v", err)
	}
	if got := c.Settings().ProtectionLevel; got != LevelStrong {
		t.Fatalf("level changed without PIN: %s", got)
	}

	if err := c.SetLevel(ctx, LevelStrict, ""); err != nil {
		t.Errorf("upgrade should not need PIN: %v", err)
	}
	if err := c.SetLevel(ctx, LevelOff, "1234"); err != nil {
		t.Fatalf("SetLevel with PIN: %v", err)
	}
	if s := c.Settings(); s.Enabled || s.ProtectionLevel != LevelOff {
		t.Errorf("expected off, got %+v", s)
	}
}

func TestSetPinInvalid(t *testing.T) {
	c := newTestClient(t)
	if err := c.SetPin(context.Background(), "12a4", ""); !errors.Is(err, ErrInvalidPin) {
		t.Errorf("expected ErrInvalidPin, got %v", err)
	}
}

func TestSettingsPersistAcrossClients(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	a, err := New(WithDir(dir), WithLogger(telemetry.Discard()))
	if err != nil {
		t.Fatal(err)
	}
	if err := a.SetLevel(ctx, LevelStrong, ""); err != nil {
		t.Fatal(err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	b, err := New(WithDir(dir), WithLogger(telemetry.Discard()))
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()
	if got := b.Settings().ProtectionLevel; got != LevelStrong {
		t.Errorf("expected strong after reopen, got %s", got)
	}
}

func TestSQLiteBackend(t *testing.T) {
	c := newTestClient(t, WithBackend("sqlite"))
	if err := c.SetLevel(context.Background(), LevelLight, ""); err != nil {
		t.Fatal(err)
	}
	if !c.CheckURL("https://xvideos.com").Blocked {
		t.Error("expected xvideos blocked at light")
	}
}

func TestJournalOption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	c := newTestClient(t, WithJournal(path))
	if err := c.SetLevel(context.Background(), LevelLight, ""); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("journal not written: %v", err)
	}
	if info.Size() == 0 {
		t.Error("expected journal entry")
	}
}

func TestBlockedErrorMessage(t *testing.T) {
	err := &BlockedError{Target: "x", Result: Result{Blocked: true, Reason: "nope", Stage: "domain"}}
	if got := err.Error(); got != "contentguard blocked (domain): nope" {
		t.Errorf("unexpected message %q", got)
	}
}

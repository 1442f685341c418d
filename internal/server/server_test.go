package server

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ppiankov/contentguard/internal/kv"
	"github.com/ppiankov/contentguard/internal/model"
	"github.com/ppiankov/contentguard/internal/settings"
	"github.com/ppiankov/contentguard/internal/telemetry"
)

type testEnv struct {
	srv   *Server
	store *settings.Store
	conn  *grpc.ClientConn
	dir   string
}

// testServer spins up an in-process server on a random port backed by a
// file store in a temp dir.
func testServer(t *testing.T, denylistYAML string) *testEnv {
	t.Helper()
	dir := t.TempDir()

	denylistPath := filepath.Join(dir, "denylist.yaml")
	if denylistYAML != "" {
		writeFile(t, denylistPath, denylistYAML)
	}

	fs, err := kv.NewFileStore(dir)
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	store, err := settings.Open(fs, settings.WithLogger(telemetry.Discard()))
	if err != nil {
		t.Fatalf("settings: %v", err)
	}

	srv, err := New(store, Config{DenylistPath: denylistPath}, telemetry.Discard())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go srv.ServeOn(lis)

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		srv.GracefulStop()
		t.Fatalf("dial: %v", err)
	}

	t.Cleanup(func() {
		conn.Close()
		srv.GracefulStop()
	})
	return &testEnv{srv: srv, store: store, conn: conn, dir: dir}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func (e *testEnv) invoke(t *testing.T, method string, in map[string]any) (*structpb.Struct, error) {
	t.Helper()
	req, err := structpb.NewStruct(in)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	out := new(structpb.Struct)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = e.conn.Invoke(ctx, FullMethod(method), req, out)
	return out, err
}

func (e *testEnv) setLevel(t *testing.T, level model.ProtectionLevel) {
	t.Helper()
	if err := e.store.Commit(context.Background(), settings.SetLevel(level), ""); err != nil {
		t.Fatalf("set level: %v", err)
	}
}

func TestCheckURLAllowedWhenOff(t *testing.T) {
	env := testServer(t, "")

	out, err := env.invoke(t, MethodCheckURL, map[string]any{"url": "https://pornhub.com"})
	if err != nil {
		t.Fatalf("CheckURL: %v", err)
	}
	if r := ResultFrom(out); r.Blocked {
		t.Errorf("expected allowed with protection off, got %+v", r)
	}
}

func TestCheckURLBlocksAtLevel(t *testing.T) {
	env := testServer(t, "")
	env.setLevel(t, model.LevelLight)

	out, err := env.invoke(t, MethodCheckURL, map[string]any{"url": "https://www.pornhub.com/video"})
	if err != nil {
		t.Fatalf("CheckURL: %v", err)
	}
	r := ResultFrom(out)
	if !r.Blocked || r.Reason != `Domain "pornhub.com" is blocked at light protection level` {
		t.Errorf("unexpected result %+v", r)
	}
	if len(env.store.Settings().BlockHistory) != 0 {
		t.Error("check without log must not record")
	}
}

func TestCheckURLWithLogRecords(t *testing.T) {
	env := testServer(t, "")
	env.setLevel(t, model.LevelStrong)

	if _, err := env.invoke(t, MethodCheckURL, map[string]any{"url": "https://tinder.com", "log": true}); err != nil {
		t.Fatalf("CheckURL: %v", err)
	}
	h := env.store.Settings().BlockHistory
	if len(h) != 1 || h[0].URL != "https://tinder.com" || h[0].ProtectionLevel != model.LevelStrong {
		t.Errorf("unexpected history %+v", h)
	}
}

func TestCheckURLRequiresURL(t *testing.T) {
	env := testServer(t, "")
	_, err := env.invoke(t, MethodCheckURL, map[string]any{})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

func TestCheckTextUsesCustomDenylist(t *testing.T) {
	env := testServer(t, `
keywords:
  light: ["forbiddenword"]
`)
	env.setLevel(t, model.LevelLight)

	out, err := env.invoke(t, MethodCheckText, map[string]any{"text": "a ForbiddenWord here", "log": true})
	if err != nil {
		t.Fatalf("CheckText: %v", err)
	}
	r := ResultFrom(out)
	if !r.Blocked || r.MatchedKeyword != "forbiddenword" {
		t.Errorf("unexpected result %+v", r)
	}
	h := env.store.Settings().BlockHistory
	if len(h) != 1 || h[0].Keyword != "forbiddenword" {
		t.Errorf("unexpected history %+v", h)
	}
}

func TestLogBlocked(t *testing.T) {
	env := testServer(t, "")
	env.setLevel(t, model.LevelStrict)

	out, err := env.invoke(t, MethodLogBlocked, map[string]any{"keyword": "casino"})
	if err != nil {
		t.Fatalf("LogBlocked: %v", err)
	}
	if String(out, "id") == "" || String(out, "reason") != settings.DefaultReason || String(out, "protection_level") != "strict" {
		t.Errorf("unexpected attempt %v", out.AsMap())
	}

	_, err = env.invoke(t, MethodLogBlocked, map[string]any{"url": "u", "keyword": "k"})
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("expected InvalidArgument for both fields, got %v", err)
	}
}

func TestStatusHidesPin(t *testing.T) {
	env := testServer(t, "")
	ctx := context.Background()
	env.setLevel(t, model.LevelStrong)
	if err := env.store.Commit(ctx, settings.SetPin("1234"), ""); err != nil {
		t.Fatal(err)
	}

	out, err := env.invoke(t, MethodStatus, nil)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	st := StatusFrom(out)
	if !st.Enabled || st.Level != "strong" || !st.HasPin {
		t.Errorf("unexpected status %+v", st)
	}
	if _, ok := out.GetFields()["pin"]; ok {
		t.Error("status must not carry the PIN")
	}
}

func TestSetLevelHonoursPin(t *testing.T) {
	env := testServer(t, "")
	ctx := context.Background()
	env.setLevel(t, model.LevelStrict)
	if err := env.store.Commit(ctx, settings.SetPin("1234"), ""); err != nil {
		t.Fatal(err)
	}

	_, err := env.invoke(t, MethodSetLevel, map[string]any{"level": "off"})
	if status.Code(err) != codes.PermissionDenied {
		t.Fatalf("expected PermissionDenied without PIN, got %v", err)
	}
	_, err = env.invoke(t, MethodSetLevel, map[string]any{"level": "off", "pin": "9999"})
	if status.Code(err) != codes.PermissionDenied {
		t.Fatalf("expected PermissionDenied for wrong PIN, got %v", err)
	}

	out, err := env.invoke(t, MethodSetLevel, map[string]any{"level": "off", "pin": "1234"})
	if err != nil {
		t.Fatalf("SetLevel: %v", err)
	}
	if st := StatusFrom(out); st.Level != "off" || st.Enabled {
		t.Errorf("unexpected status %+v", st)
	}
}

func TestSetLevelUpgradeNeedsNoPin(t *testing.T) {
	env := testServer(t, "")
	if err := env.store.Commit(context.Background(), settings.SetPin("1234"), ""); err != nil {
		t.Fatal(err)
	}
	if _, err := env.invoke(t, MethodSetLevel, map[string]any{"level": "strict"}); err != nil {
		t.Fatalf("expected upgrade without PIN, got %v", err)
	}
}

func TestSetLevelRejectsUnknownLevel(t *testing.T) {
	env := testServer(t, "")
	_, err := env.invoke(t, MethodSetLevel, map[string]any{"level": "extreme"})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

func TestReloadPicksUpDenylistAndSettings(t *testing.T) {
	env := testServer(t, "")
	env.setLevel(t, model.LevelLight)

	out, _ := env.invoke(t, MethodCheckURL, map[string]any{"url": "https://blocked.example"})
	if ResultFrom(out).Blocked {
		t.Fatal("precondition: not blocked")
	}

	writeFile(t, filepath.Join(env.dir, "denylist.yaml"), "adult: [\"blocked.example\"]\n")

	// Another process raises the level directly in the document.
	other, err := kv.NewFileStore(env.dir)
	if err != nil {
		t.Fatal(err)
	}
	otherStore, err := settings.Open(other)
	if err != nil {
		t.Fatal(err)
	}
	if err := otherStore.Commit(context.Background(), settings.SetLevel(model.LevelStrict), ""); err != nil {
		t.Fatal(err)
	}

	if err := env.srv.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	out, _ = env.invoke(t, MethodCheckURL, map[string]any{"url": "https://blocked.example"})
	if !ResultFrom(out).Blocked {
		t.Error("expected reloaded denylist to block")
	}
	if env.store.Settings().ProtectionLevel != model.LevelStrict {
		t.Error("expected refreshed settings")
	}
}

func TestReloadRejectsMalformedDenylist(t *testing.T) {
	env := testServer(t, "")
	writeFile(t, filepath.Join(env.dir, "denylist.yaml"), "adult: [unclosed\n")
	if err := env.srv.Reload(); err == nil {
		t.Fatal("expected error for malformed denylist")
	}
}

type countingTarget struct{ n atomic.Int32 }

func (c *countingTarget) Reload() error {
	c.n.Add(1)
	return nil
}

func TestReloaderDebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "denylist.yaml")
	writeFile(t, watched, "adult: []\n")

	target := &countingTarget{}
	r, err := NewReloader(target, []string{watched, ""}, telemetry.Discard())
	if err != nil {
		t.Fatalf("NewReloader: %v", err)
	}
	r.delay = 100 * time.Millisecond
	if len(r.Watched()) != 1 {
		t.Fatalf("expected one watched file, got %v", r.Watched())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)
	time.Sleep(50 * time.Millisecond)

	for i := 0; i < 5; i++ {
		writeFile(t, watched, "adult: [\"x.example\"]\n")
	}
	writeFile(t, filepath.Join(dir, "unrelated.txt"), "noise")

	deadline := time.Now().Add(3 * time.Second)
	for target.n.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	time.Sleep(300 * time.Millisecond)

	if got := target.n.Load(); got != 1 {
		t.Errorf("expected one debounced reload, got %d", got)
	}
}

func TestReloaderFollowsAtomicReplace(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "contentProtectionSettings.json")
	writeFile(t, watched, "{}")

	target := &countingTarget{}
	r, err := NewReloader(target, []string{watched}, telemetry.Discard())
	if err != nil {
		t.Fatalf("NewReloader: %v", err)
	}
	r.delay = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)
	time.Sleep(50 * time.Millisecond)

	tmp := watched + ".tmp"
	writeFile(t, tmp, `{"a":1}`)
	if err := os.Rename(tmp, watched); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for target.n.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	if target.n.Load() == 0 {
		t.Error("expected reload after rename into place")
	}
}

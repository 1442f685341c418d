package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/contentguard/internal/alert"
	"github.com/ppiankov/contentguard/internal/audit"
	"github.com/ppiankov/contentguard/internal/classify"
	"github.com/ppiankov/contentguard/internal/denylist"
	"github.com/ppiankov/contentguard/internal/gate"
	"github.com/ppiankov/contentguard/internal/kv"
	"github.com/ppiankov/contentguard/internal/settings"
)

// maxPinAttempts bounds the interactive prompt before the change is dropped.
const maxPinAttempts = 3

// openStore wires the settings store from the loaded config. The returned
// func waits for notifications and closes everything.
func openStore() (*settings.Store, func(), error) {
	lat, err := denylist.Load(cfg.DenylistPath())
	if err != nil {
		return nil, nil, err
	}

	backing, err := kv.Open(cfg.Backend, cfg.DataDir)
	if err != nil {
		return nil, nil, err
	}

	opts := []settings.Option{
		settings.WithLogger(logger),
		settings.WithClassifier(classify.New(lat)),
		settings.WithDispatcher(alert.FromConfig(logger, cfg.Notify.Webhooks, cfg.Notify.Log)),
	}

	var journal *audit.Log
	if path := cfg.JournalPath(); path != "" {
		journal, err = audit.Open(path)
		if err != nil {
			backing.Close()
			return nil, nil, err
		}
		opts = append(opts, settings.WithJournal(journal))
	}

	closeAll := func() {
		if journal != nil {
			journal.Close()
		}
		backing.Close()
	}

	store, err := settings.Open(backing, opts...)
	if err != nil {
		closeAll()
		return nil, nil, err
	}

	return store, func() {
		store.Wait()
		closeAll()
	}, nil
}

// withStore runs fn against a freshly opened store.
func withStore(fn func(*settings.Store) error) error {
	store, done, err := openStore()
	if err != nil {
		return err
	}
	defer done()
	return fn(store)
}

// applyGuarded runs a through the two-phase protocol. With --pin the change
// is committed in one step. Otherwise it is requested and, when the gate
// parks it, the PIN is read from stdin.
func applyGuarded(cmd *cobra.Command, store *settings.Store, a settings.Action, pin string) error {
	ctx := ctxOf(cmd)

	if cmd.Flags().Changed("pin") {
		return store.Commit(ctx, a, pin)
	}

	d, err := store.Request(ctx, a)
	if err != nil {
		return err
	}
	if d.Allowed() {
		return nil
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "%s.\n", d.Reason)
	in := bufio.NewReader(cmd.InOrStdin())
	for i := 0; i < maxPinAttempts; i++ {
		fmt.Fprint(cmd.ErrOrStderr(), "PIN: ")
		entered, err := readLine(in)
		if err != nil {
			store.CancelPending()
			return fmt.Errorf("%w: %v", gate.ErrPinRequired, err)
		}

		ok, err := store.ResolvePending(ctx, entered)
		if ok {
			return nil
		}
		if errors.Is(err, gate.ErrIncorrectPin) || errors.Is(err, gate.ErrPinRequired) {
			fmt.Fprintln(cmd.ErrOrStderr(), "Incorrect PIN.")
			continue
		}
		return err
	}

	store.CancelPending()
	return gate.ErrIncorrectPin
}

func ctxOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	line = strings.TrimSpace(line)
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		if errors.Is(err, io.EOF) {
			return "", errors.New("no PIN entered")
		}
		return "", err
	}
	return line, nil
}

func onOff(arg string) (bool, error) {
	switch strings.ToLower(arg) {
	case "on", "true", "enable", "enabled":
		return true, nil
	case "off", "false", "disable", "disabled":
		return false, nil
	default:
		return false, fmt.Errorf("expected on or off, got %q", arg)
	}
}

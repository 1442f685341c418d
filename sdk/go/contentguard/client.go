package contentguard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/ppiankov/contentguard/internal/alert"
	"github.com/ppiankov/contentguard/internal/audit"
	"github.com/ppiankov/contentguard/internal/classify"
	"github.com/ppiankov/contentguard/internal/denylist"
	"github.com/ppiankov/contentguard/internal/kv"
	"github.com/ppiankov/contentguard/internal/settings"
)

// Client owns a settings store and classifier for in-process enforcement.
// Safe for concurrent use.
type Client struct {
	cfg     clientConfig
	kv      kv.Store
	journal *audit.Log
	store   *settings.Store
}

// New creates a Client with the given options.
func New(opts ...Option) (*Client, error) {
	cfg := clientConfig{
		dir:     kv.DefaultDir(),
		backend: kv.BackendFile,
	}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	if cfg.denylistPath == "" {
		cfg.denylistPath = filepath.Join(cfg.dir, "denylist.yaml")
	}

	lat, err := denylist.Load(cfg.denylistPath)
	if err != nil {
		return nil, fmt.Errorf("contentguard: failed to load denylist: %w", err)
	}

	backing, err := kv.Open(cfg.backend, cfg.dir)
	if err != nil {
		return nil, fmt.Errorf("contentguard: failed to open store: %w", err)
	}

	c := &Client{cfg: cfg, kv: backing}
	storeOpts := []settings.Option{
		settings.WithLogger(cfg.logger),
		settings.WithClassifier(classify.New(lat)),
	}
	if len(cfg.webhooks) > 0 || cfg.logNotify {
		storeOpts = append(storeOpts, settings.WithDispatcher(alert.FromConfig(cfg.logger, cfg.webhooks, cfg.logNotify)))
	}
	if cfg.journalPath != "" {
		j, err := audit.Open(cfg.journalPath)
		if err != nil {
			backing.Close()
			return nil, fmt.Errorf("contentguard: failed to open journal: %w", err)
		}
		c.journal = j
		storeOpts = append(storeOpts, settings.WithJournal(j))
	}

	store, err := settings.Open(backing, storeOpts...)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("contentguard: failed to load settings: %w", err)
	}
	c.store = store
	return c, nil
}

// CheckURL classifies url without recording anything.
func (c *Client) CheckURL(url string) Result {
	return c.store.CheckURL(url)
}

// CheckText scans text for blocked keywords without recording anything.
func (c *Client) CheckText(text string) Result {
	return c.store.CheckText(text)
}

// Guard checks url and, if it is blocked, records the attempt and returns a
// *BlockedError. A failure to record is joined to the BlockedError.
func (c *Client) Guard(ctx context.Context, url string) error {
	r, err := c.store.Guard(ctx, url)
	return blocked(url, r, err)
}

// GuardText is Guard for free text such as a search query.
func (c *Client) GuardText(ctx context.Context, text string) error {
	r, err := c.store.GuardText(ctx, text)
	return blocked(text, r, err)
}

// SetLevel changes the protection level. When a PIN is set, lowering the
// level requires it.
func (c *Client) SetLevel(ctx context.Context, level Level, pin string) error {
	return c.store.Commit(ctx, settings.SetLevel(level), pin)
}

// SetPin sets or changes the PIN. Changing an existing PIN requires it.
func (c *Client) SetPin(ctx context.Context, newPin, currentPin string) error {
	return c.store.Commit(ctx, settings.SetPin(newPin), currentPin)
}

// Settings returns a copy of the current settings.
func (c *Client) Settings() Settings {
	return c.store.Settings()
}

// History returns the block history, newest first.
func (c *Client) History() []BlockedAttempt {
	return c.store.Settings().BlockHistory
}

// Refresh re-reads settings written by another process.
func (c *Client) Refresh() error {
	return c.store.Refresh()
}

// Close waits for pending notifications and releases the store.
func (c *Client) Close() error {
	if c.store != nil {
		c.store.Wait()
	}
	var errs []error
	if c.journal != nil {
		errs = append(errs, c.journal.Close())
	}
	errs = append(errs, c.kv.Close())
	return errors.Join(errs...)
}

func blocked(target string, r classify.Result, err error) error {
	if !r.Blocked {
		return err
	}
	be := &BlockedError{Target: target, Result: r}
	if err != nil {
		return errors.Join(be, err)
	}
	return be
}

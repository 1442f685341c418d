package contentguard

import (
	"log/slog"

	"github.com/ppiankov/contentguard/internal/alert"
)

// Option configures a Client at creation time.
type Option func(*clientConfig)

type clientConfig struct {
	dir          string
	backend      string
	denylistPath string
	journalPath  string
	webhooks     []alert.WebhookConfig
	logNotify    bool
	logger       *slog.Logger
}

// WithDir sets the data directory the settings document lives in.
func WithDir(dir string) Option {
	return func(c *clientConfig) { c.dir = dir }
}

// WithBackend selects the storage backend: "file", "sqlite" or "memory".
func WithBackend(backend string) Option {
	return func(c *clientConfig) { c.backend = backend }
}

// WithDenylist sets the path to a denylist YAML file.
func WithDenylist(path string) Option {
	return func(c *clientConfig) { c.denylistPath = path }
}

// WithJournal records every change and block in a hash-chained journal at path.
func WithJournal(path string) Option {
	return func(c *clientConfig) { c.journalPath = path }
}

// WithWebhook adds a partner notification webhook. format is "generic",
// "slack" or "pagerduty".
func WithWebhook(url, format string) Option {
	return func(c *clientConfig) {
		c.webhooks = append(c.webhooks, alert.WebhookConfig{URL: url, Format: format})
	}
}

// WithLogNotifications also writes partner notifications to the logger.
func WithLogNotifications() Option {
	return func(c *clientConfig) { c.logNotify = true }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *clientConfig) { c.logger = l }
}

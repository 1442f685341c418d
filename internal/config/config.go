// Package config loads contentguard's runtime configuration. Values are
// layered: built-in defaults, then config.yaml, then CONTENTGUARD_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/ppiankov/contentguard/internal/alert"
	"github.com/ppiankov/contentguard/internal/kv"
)

// EnvPrefix prefixes every environment override. Nested keys use a double
// underscore: CONTENTGUARD_LOG__LEVEL=debug sets log.level.
const EnvPrefix = "CONTENTGUARD_"

// JournalOff disables the tamper-evident journal.
const JournalOff = "off"

type Config struct {
	DataDir  string       `yaml:"data_dir"`
	Backend  string       `yaml:"backend"`
	Denylist string       `yaml:"denylist"`
	Journal  string       `yaml:"journal"`
	Log      LogConfig    `yaml:"log"`
	Notify   NotifyConfig `yaml:"notify"`
	Server   ServerConfig `yaml:"server"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// NotifyConfig selects where partner notifications are delivered.
type NotifyConfig struct {
	Webhooks []alert.WebhookConfig `yaml:"webhooks"`
	Log      bool                  `yaml:"log"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

func defaults() map[string]any {
	return map[string]any{
		"data_dir":    kv.DefaultDir(),
		"backend":     kv.BackendFile,
		"journal":     "journal.jsonl",
		"log.level":   "info",
		"log.format":  "text",
		"notify.log":  false,
		"server.host": "127.0.0.1",
		"server.port": 50051,
	}
}

// DefaultPath returns the config file location inside the data directory.
func DefaultPath() string {
	return filepath.Join(kv.DefaultDir(), "config.yaml")
}

// Load reads configuration from path. Empty path means DefaultPath().
// A missing file yields defaults; invalid YAML or values return an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("config: defaults: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: stat %s: %w", path, err)
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envValue), nil); err != nil {
		return nil, fmt.Errorf("config: environment: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps CONTENTGUARD_SERVER__PORT to server.port. CONTENTGUARD_HOME
// is the data directory.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if key == "home" {
		return "data_dir"
	}
	return strings.ReplaceAll(key, "__", ".")
}

// envValue skips empty variables so they read as unset, as kv.DefaultDir
// treats CONTENTGUARD_HOME.
func envValue(name, value string) (string, any) {
	if value == "" {
		return "", nil
	}
	return envKey(name), value
}

// Validate rejects values no component can act on.
func (c *Config) Validate() error {
	switch c.Backend {
	case kv.BackendFile, kv.BackendSQLite, kv.BackendMemory:
	default:
		return fmt.Errorf("config: unknown backend %q (want file, sqlite or memory)", c.Backend)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("config: unknown log format %q (want json or text)", c.Log.Format)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server port %d out of range", c.Server.Port)
	}
	if c.DataDir == "" {
		return errors.New("config: data_dir must not be empty")
	}
	for i, wh := range c.Notify.Webhooks {
		if wh.URL == "" {
			return fmt.Errorf("config: notify.webhooks[%d]: url is required", i)
		}
	}
	return nil
}

// JournalPath resolves the journal file, or "" when the journal is off.
func (c *Config) JournalPath() string {
	switch strings.ToLower(c.Journal) {
	case "", JournalOff, "none":
		return ""
	}
	return c.resolve(c.Journal)
}

// DenylistPath resolves the denylist YAML. It defaults to denylist.yaml in
// the data directory.
func (c *Config) DenylistPath() string {
	if c.Denylist == "" {
		return filepath.Join(c.DataDir, "denylist.yaml")
	}
	return c.resolve(c.Denylist)
}

// Addr returns the gRPC listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

func (c *Config) resolve(p string) string {
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[2:])
		}
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.DataDir, p)
}

// DefaultYAML returns a commented config.yaml holding the defaults.
func DefaultYAML() string {
	return `# contentguard configuration.
# Every field is optional. CONTENTGUARD_HOME overrides data_dir and
# CONTENTGUARD_<KEY> (nested keys joined by "__") overrides any value.

# Where the settings document, journal and denylist live.
# data_dir: ~/.contentguard

# Settings storage: file, sqlite or memory.
backend: file

# Hash-chained journal of changes and blocks. "off" disables it.
journal: journal.jsonl

# Domain and keyword lists. Defaults to denylist.yaml in data_dir.
# denylist: denylist.yaml

log:
  level: info     # debug, info, warn, error
  format: text    # text or json

notify:
  # Log partner notifications when no webhook is configured.
  log: false
  webhooks: []
  # - url: https://hooks.slack.com/services/...
  #   format: slack   # generic, slack, pagerduty
  #   headers:
  #     Authorization: Bearer token

server:
  host: 127.0.0.1
  port: 50051
`
}

package server

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 500 * time.Millisecond

// Reloadable is anything the Reloader can refresh.
type Reloadable interface {
	Reload() error
}

// Reloader watches the settings document and the denylist and triggers a
// reload when either changes. Parent directories are watched because both
// files are replaced by rename, which drops a watch on the file itself.
type Reloader struct {
	watcher *fsnotify.Watcher
	target  Reloadable
	logger  *slog.Logger
	files   map[string]bool
	delay   time.Duration

	mu       sync.Mutex
	debounce *time.Timer
}

// NewReloader creates a watcher for paths. Empty paths are skipped; a path
// whose directory does not exist yet is skipped too.
func NewReloader(target Reloadable, paths []string, logger *slog.Logger) (*Reloader, error) {
	if logger == nil {
		logger = slog.Default()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("server: create file watcher: %w", err)
	}

	r := &Reloader{
		watcher: watcher,
		target:  target,
		logger:  logger,
		files:   make(map[string]bool),
		delay:   reloadDebounce,
	}

	dirs := make(map[string]bool)
	for _, p := range paths {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		dir := filepath.Dir(abs)
		if !dirs[dir] {
			if err := watcher.Add(dir); err != nil {
				logger.Debug("not watching", "dir", dir, "error", err)
				continue
			}
			dirs[dir] = true
		}
		r.files[abs] = true
	}
	return r, nil
}

// Watched returns the files being watched.
func (r *Reloader) Watched() []string {
	out := make([]string, 0, len(r.files))
	for f := range r.files {
		out = append(out, f)
	}
	return out
}

// Run handles file events until ctx is cancelled.
func (r *Reloader) Run(ctx context.Context) error {
	defer r.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			r.mu.Lock()
			if r.debounce != nil {
				r.debounce.Stop()
			}
			r.mu.Unlock()
			return nil

		case event, ok := <-r.watcher.Events:
			if !ok {
				return nil
			}
			if !r.files[filepath.Clean(event.Name)] {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				r.schedule(event.Name)
			}

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("file watcher error", "error", err)
		}
	}
}

func (r *Reloader) schedule(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.debounce != nil {
		r.debounce.Stop()
	}
	r.debounce = time.AfterFunc(r.delay, func() {
		if err := r.target.Reload(); err != nil {
			r.logger.Error("hot-reload failed", "trigger", name, "error", err)
			return
		}
		r.logger.Info("hot-reload: settings and denylist reloaded", "trigger", name)
	})
}

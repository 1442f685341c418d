package alert

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const dispatchTimeout = 15 * time.Second

// Notifier delivers a notification somewhere.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier writes notifications as structured log lines.
type LogNotifier struct {
	Logger *slog.Logger
}

// Notify logs n at info level.
func (l LogNotifier) Notify(_ context.Context, n Notification) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("partner notification",
		"partner", n.PartnerEmail,
		"attempt_id", n.AttemptID,
		"content", n.Content(),
		"reason", n.Reason,
		"level", n.Level,
	)
	return nil
}

// Dispatcher fans notifications out to notifiers without blocking the caller.
// Failures are logged, never returned.
type Dispatcher struct {
	notifiers []Notifier
	logger    *slog.Logger
	timeout   time.Duration
	wg        sync.WaitGroup
}

// NewDispatcher creates a Dispatcher. Returns nil if there are no notifiers
// (callers should nil-check, or rely on the nil-safe methods).
func NewDispatcher(logger *slog.Logger, notifiers ...Notifier) *Dispatcher {
	if len(notifiers) == 0 {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{notifiers: notifiers, logger: logger, timeout: dispatchTimeout}
}

// FromConfig builds a Dispatcher with one webhook notifier per config, plus
// a log notifier when logNotify is set or no webhook is configured.
func FromConfig(logger *slog.Logger, webhooks []WebhookConfig, logNotify bool) *Dispatcher {
	var notifiers []Notifier
	for _, cfg := range webhooks {
		if cfg.URL == "" {
			continue
		}
		notifiers = append(notifiers, NewWebhookNotifier(cfg))
	}
	if logNotify || len(notifiers) == 0 {
		notifiers = append(notifiers, LogNotifier{Logger: logger})
	}
	return NewDispatcher(logger, notifiers...)
}

// Dispatch sends n to every notifier in its own goroutine.
func (d *Dispatcher) Dispatch(n Notification) {
	if d == nil {
		return
	}
	for _, nt := range d.notifiers {
		d.wg.Add(1)
		go func(nt Notifier) {
			defer d.wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
			defer cancel()
			if err := nt.Notify(ctx, n); err != nil {
				d.logger.Warn("notification failed",
					"notifier", notifierName(nt),
					"attempt_id", n.AttemptID,
					"error", err,
				)
			}
		}(nt)
	}
}

// Wait blocks until in-flight notifications finish.
func (d *Dispatcher) Wait() {
	if d == nil {
		return
	}
	d.wg.Wait()
}

func notifierName(nt Notifier) string {
	if s, ok := nt.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", nt)
}

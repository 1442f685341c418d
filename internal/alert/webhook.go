package alert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const (
	requestTimeout = 5 * time.Second
	maxRetries     = 3
)

var httpClient = &http.Client{Timeout: requestTimeout}

// errPermanent wraps failures that retrying cannot fix.
var errPermanent = errors.New("permanent")

// WebhookNotifier posts notifications to an HTTP endpoint.
type WebhookNotifier struct {
	cfg     WebhookConfig
	client  *http.Client
	backoff time.Duration
}

// NewWebhookNotifier creates a notifier for cfg.
func NewWebhookNotifier(cfg WebhookConfig) *WebhookNotifier {
	return &WebhookNotifier{cfg: cfg, client: httpClient, backoff: time.Second}
}

// Notify posts n, retrying server errors and transport failures with a
// linear backoff. A 4xx response fails at once.
func (w *WebhookNotifier) Notify(ctx context.Context, n Notification) error {
	body, err := FormatPayload(w.cfg.Format, n)
	if err != nil {
		return fmt.Errorf("format %s payload: %w", w.cfg.Format, err)
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if lastErr = w.post(ctx, body); lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, errPermanent) || attempt == maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("webhook canceled after %d attempts: %w", attempt, ctx.Err())
		case <-time.After(time.Duration(attempt) * w.backoff):
		}
	}
	if errors.Is(lastErr, errPermanent) {
		return lastErr
	}
	return fmt.Errorf("webhook failed after %d attempts: %w", maxRetries, lastErr)
}

func (w *WebhookNotifier) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: build request: %v", errPermanent, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()

	switch {
	case resp.StatusCode < 300:
		return nil
	case resp.StatusCode < 500:
		return fmt.Errorf("%w: webhook rejected: HTTP %d", errPermanent, resp.StatusCode)
	default:
		return fmt.Errorf("webhook server error: HTTP %d", resp.StatusCode)
	}
}

func (w *WebhookNotifier) String() string {
	return "webhook(" + w.cfg.URL + ")"
}

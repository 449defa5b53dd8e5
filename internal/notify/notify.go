// Package notify pushes written entries to downstream systems.
//
// Notification is best-effort: callers record a failure and move on, the
// entry is already durable in the store when a notifier runs.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/HendryAvila/lumen/internal/memory"
)

// Notifier receives every successfully written entry.
type Notifier interface {
	Notify(ctx context.Context, e *memory.Entry) error
}

// ─── Nop ─────────────────────────────────────────────────────────────────────

// Nop discards notifications.
type Nop struct{}

// Notify implements Notifier.
func (Nop) Notify(context.Context, *memory.Entry) error { return nil }

// ─── Log ─────────────────────────────────────────────────────────────────────

// LogNotifier writes one structured line per entry.
type LogNotifier struct {
	logger *log.Logger
}

// NewLogNotifier returns a LogNotifier. A nil logger means log.Default().
func NewLogNotifier(logger *log.Logger) *LogNotifier {
	if logger == nil {
		logger = log.Default()
	}
	return &LogNotifier{logger: logger}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(_ context.Context, e *memory.Entry) error {
	n.logger.Info("entry synced",
		"id", e.ID,
		"category", e.Category,
		"title", memory.Truncate(e.Title, 40),
		"archived", e.Archived,
	)
	return nil
}

// ─── Webhook ─────────────────────────────────────────────────────────────────

// DefaultWebhookTimeout bounds a single webhook delivery.
const DefaultWebhookTimeout = 10 * time.Second

// WebhookNotifier POSTs the entry document as JSON to a URL.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

// NewWebhookNotifier returns a notifier posting to url. A zero timeout
// means DefaultWebhookTimeout.
func NewWebhookNotifier(url string, timeout time.Duration) *WebhookNotifier {
	if timeout <= 0 {
		timeout = DefaultWebhookTimeout
	}
	return &WebhookNotifier{url: url, client: &http.Client{Timeout: timeout}}
}

// WebhookPayload is the body sent to the webhook.
type WebhookPayload struct {
	Event string        `json:"event"`
	Entry *memory.Entry `json:"entry"`
}

// Notify implements Notifier. Any non-2xx response is an error.
func (n *WebhookNotifier) Notify(ctx context.Context, e *memory.Entry) error {
	body, err := json.Marshal(WebhookPayload{Event: "entry.synced", Entry: e})
	if err != nil {
		return fmt.Errorf("notify: encode entry %s: %w", e.ID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("notify: post entry %s: %w", e.ID, err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("notify: post entry %s: unexpected status %s", e.ID, resp.Status)
	}
	return nil
}

// ─── Multi ───────────────────────────────────────────────────────────────────

// Multi fans out to every notifier, even after a failure, and joins the
// errors.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(ctx context.Context, e *memory.Entry) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Package notify delivers operational failure notifications to a webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/amz-risk/docflow-cli/internal/config"
)

// Event is a single operational notification.
type Event struct {
	Subject   string         `json:"subject"`
	Body      string         `json:"body"`
	Recipient string         `json:"recipient,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Notifier sends failure notifications. Delivery is best-effort: a failed
// send is logged, never propagated to the caller.
type Notifier interface {
	Notify(ctx context.Context, subject, body string, details map[string]any)
}

// Webhook posts events as JSON to a configured URL.
type Webhook struct {
	cfg    config.NotifyConfig
	client *http.Client
	now    func() time.Time
}

// NewWebhook creates a webhook notifier with the given config.
func NewWebhook(cfg config.NotifyConfig) *Webhook {
	return &Webhook{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		now:    time.Now,
	}
}

// Notify posts one event. With no webhook URL configured the event is only
// logged.
func (w *Webhook) Notify(ctx context.Context, subject, body string, details map[string]any) {
	zap.L().Warn("notify: "+subject,
		zap.String("body", body),
		zap.Any("details", details),
	)

	if w.cfg.WebhookURL == "" {
		return
	}

	ev := Event{
		Subject:   subject,
		Body:      body,
		Recipient: w.cfg.Recipient,
		Details:   details,
		Timestamp: w.now().UTC(),
	}
	if err := w.send(ctx, ev); err != nil {
		zap.L().Error("notify: failed to send notification",
			zap.String("subject", subject),
			zap.Error(err),
		)
	}
}

func (w *Webhook) send(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return eris.Wrap(err, "notify: marshal event")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "notify: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "notify: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("notify: webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// Nop is a Notifier that discards every event.
type Nop struct{}

func (Nop) Notify(context.Context, string, string, map[string]any) {}

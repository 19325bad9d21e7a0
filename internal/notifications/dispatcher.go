package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Dispatcher records scenario alerts and delivers them to webhook subscribers.
type Dispatcher struct {
	store    *Store
	webhooks []string
	client   *http.Client
	logger   *slog.Logger
	now      func() time.Time
}

// NewDispatcher creates a Dispatcher backed by the given store. With no
// webhooks, alerts are only recorded.
func NewDispatcher(store *Store, webhooks []string, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		store:    store,
		webhooks: webhooks,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
		now:    time.Now,
	}
}

// Notify stores one notification per alert and posts all of them to every
// webhook as a single payload. The notifications are marked delivered only
// when every webhook accepts the payload; delivery failures are logged and
// leave them pending.
func (d *Dispatcher) Notify(ctx context.Context, setID, topic string, revision int, alerts []string) error {
	if len(alerts) == 0 {
		return nil
	}

	now := d.now().UTC()
	ids := make([]string, 0, len(alerts))
	for _, a := range alerts {
		n, err := d.store.Create(ctx, Notification{
			SetID: setID, Topic: topic, Revision: revision, Message: a, CreatedAt: now,
		})
		if err != nil {
			return fmt.Errorf("recording alert: %w", err)
		}
		ids = append(ids, n.ID)
	}

	if len(d.webhooks) == 0 {
		return nil
	}

	payload, err := json.Marshal(Payload{SetID: setID, Topic: topic, Revision: revision, Alerts: alerts, SentAt: now})
	if err != nil {
		return fmt.Errorf("encoding webhook payload: %w", err)
	}

	delivered := true
	for _, url := range d.webhooks {
		if err := d.SendWebhook(ctx, url, payload); err != nil {
			d.logger.Warn("alert webhook failed", "url", url, "set", setID, "error", err)
			delivered = false
		}
	}
	if !delivered {
		return nil
	}
	return d.store.MarkDelivered(ctx, ids...)
}

// SendWebhook POSTs payload to the given URL.
func (d *Dispatcher) SendWebhook(ctx context.Context, url string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

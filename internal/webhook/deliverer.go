// Package webhook delivers new-post notifications to team-configured
// HTTP endpoints.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"contentradar/internal/domain"
	"contentradar/internal/storage/postgres"
)

const deliveryTimeout = 30 * time.Second

type Store interface {
	Get(ctx context.Context, id int64) (domain.Webhook, error)
	RecordDeliverySuccess(ctx context.Context, id int64) error
	RecordDeliveryFailure(ctx context.Context, id int64) error
}

// payload is the JSON body sent to the endpoint.
type payload struct {
	Event      string           `json:"event"`
	SourceID   int64            `json:"source_id"`
	SourceName string           `json:"source_name"`
	NewPosts   []domain.NewPost `json:"new_posts"`
	SentAt     time.Time        `json:"sent_at"`
}

// Deliverer posts notifications and maintains per-webhook failure
// counters. Endpoints that fail persistently end up disabled by the
// store once the counter reaches the cutoff.
type Deliverer struct {
	webhooks   Store
	httpClient *http.Client
	logger     *slog.Logger
}

func NewDeliverer(webhooks Store, logger *slog.Logger) *Deliverer {
	return &Deliverer{
		webhooks:   webhooks,
		httpClient: &http.Client{Timeout: deliveryTimeout},
		logger:     logger.With("component", "webhook"),
	}
}

// Deliver sends one new-posts notification. A disabled or deleted
// webhook drops the task silently. Delivery errors bump the failure
// counter and are returned to the queue for retry.
func (d *Deliverer) Deliver(ctx context.Context, task domain.DeliverWebhookTask) error {
	hook, err := d.webhooks.Get(ctx, task.WebhookID)
	if errors.Is(err, postgres.ErrNotFound) {
		d.logger.Debug("webhook gone, dropping delivery", "webhook_id", task.WebhookID)
		return nil
	}
	if err != nil {
		return err
	}
	if !hook.IsActive {
		d.logger.Debug("webhook disabled, dropping delivery", "webhook_id", hook.ID)
		return nil
	}

	if err := d.post(ctx, hook, task); err != nil {
		if recErr := d.webhooks.RecordDeliveryFailure(ctx, hook.ID); recErr != nil {
			d.logger.Error("record delivery failure", "webhook_id", hook.ID, "error", recErr)
		}
		d.logger.Warn("webhook delivery failed",
			"webhook_id", hook.ID,
			"url", hook.URL,
			"error", err,
		)
		return err
	}

	if err := d.webhooks.RecordDeliverySuccess(ctx, hook.ID); err != nil {
		d.logger.Error("record delivery success", "webhook_id", hook.ID, "error", err)
	}

	d.logger.Info("webhook delivered",
		"webhook_id", hook.ID,
		"source_id", task.SourceID,
		"posts", len(task.NewPosts),
	)
	return nil
}

func (d *Deliverer) post(ctx context.Context, hook domain.Webhook, task domain.DeliverWebhookTask) error {
	body, err := json.Marshal(payload{
		Event:      "posts.found",
		SourceID:   task.SourceID,
		SourceName: task.SourceName,
		NewPosts:   task.NewPosts,
		SentAt:     time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hook.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if hook.Secret != "" {
		req.Header.Set("X-Signature", Sign(hook.Secret, body))
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// Sign computes the hex HMAC-SHA256 of the request body under the
// webhook secret. Receivers recompute it to authenticate deliveries.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

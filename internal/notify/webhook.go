package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/modessa/modessa/internal/domain"
)

// ChatWebhookSender posts order alerts to a chat webhook (Slack-style
// incoming webhook payload). It only implements the ops-facing alert;
// buyer confirmations are a no-op.
type ChatWebhookSender struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

// NewChatWebhookSender creates a webhook-backed sender.
func NewChatWebhookSender(url string, logger *slog.Logger) *ChatWebhookSender {
	return &ChatWebhookSender{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

// OrderConfirmation is a no-op; the webhook channel is ops-only.
func (s *ChatWebhookSender) OrderConfirmation(ctx context.Context, order *domain.Order) error {
	return nil
}

// OrderAlert posts the order summary to the chat channel.
func (s *ChatWebhookSender) OrderAlert(ctx context.Context, order *domain.Order) error {
	payload := map[string]string{
		"text": fmt.Sprintf("New COD order %s: %d item(s), %s, deliver to %s",
			order.ID, len(order.Items), formatCents(order.TotalCents), order.Address),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("chat webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("chat webhook: status %d", resp.StatusCode)
	}

	s.logger.Debug("order alert posted", "order_id", order.ID)
	return nil
}

package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// WebhookPayload is the JSON structure sent to webhook endpoints
type WebhookPayload struct {
	Source  string    `json:"source"`
	Message string    `json:"message"`
	SentAt  time.Time `json:"sent_at"`
}

// Webhook posts messages to an HTTP endpoint as JSON
type Webhook struct {
	url    string
	client *http.Client
	now    func() time.Time
}

// NewWebhook creates a Webhook channel with default HTTP client
func NewWebhook(url string) *Webhook {
	return NewWebhookWithClient(url, &http.Client{
		Timeout: 10 * time.Second,
	})
}

// NewWebhookWithClient creates a Webhook channel with custom HTTP client
func NewWebhookWithClient(url string, client *http.Client) *Webhook {
	return &Webhook{
		url:    url,
		client: client,
		now:    time.Now,
	}
}

// Send posts the message as JSON to the webhook URL
func (w *Webhook) Send(ctx context.Context, message string) (Result, error) {
	payload := WebhookPayload{
		Source:  "lastsignal",
		Message: message,
		SentAt:  w.now().UTC(),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", w.url, bytes.NewReader(body))
	if err != nil {
		return Failed(fmt.Sprintf("create webhook request: %v", err)), nil
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return Failed(fmt.Sprintf("webhook request: %v", err)), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return Failed(fmt.Sprintf("webhook returned %d", resp.StatusCode)), nil
	}
	return Success(), nil
}

// HealthCheck verifies the URL is usable.
func (w *Webhook) HealthCheck(ctx context.Context) (bool, error) {
	return validHTTPURL(w.url), nil
}

// Name returns "webhook"
func (w *Webhook) Name() string {
	return "webhook"
}

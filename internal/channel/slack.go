package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Slack posts messages to a Slack incoming webhook URL
type Slack struct {
	webhookURL string
	client     *http.Client
}

// NewSlack creates a Slack channel with default HTTP client
func NewSlack(webhookURL string) *Slack {
	return &Slack{
		webhookURL: webhookURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// NewSlackWithClient creates a Slack channel with custom HTTP client
func NewSlackWithClient(webhookURL string, client *http.Client) *Slack {
	return &Slack{
		webhookURL: webhookURL,
		client:     client,
	}
}

// Send posts the message to Slack
func (s *Slack) Send(ctx context.Context, message string) (Result, error) {
	payload := map[string]any{
		"text": message,
		"blocks": []map[string]any{
			{
				"type": "section",
				"text": map[string]string{
					"type": "mrkdwn",
					"text": message,
				},
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return Failed(fmt.Sprintf("create slack request: %v", err)), nil
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return Failed(fmt.Sprintf("slack webhook request: %v", err)), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return Failed(fmt.Sprintf("slack webhook returned %d", resp.StatusCode)), nil
	}
	return Success(), nil
}

// HealthCheck verifies the webhook URL is usable. Incoming webhooks have no
// side-effect-free probe.
func (s *Slack) HealthCheck(ctx context.Context) (bool, error) {
	return validHTTPURL(s.webhookURL), nil
}

// Name returns "slack"
func (s *Slack) Name() string {
	return "slack"
}

func validHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultGraphURL is the Facebook Graph API base used by Messenger.
const DefaultGraphURL = "https://graph.facebook.com/v18.0"

// Messenger sends Facebook Messenger messages through the Graph API.
type Messenger struct {
	userID      string
	accessToken string
	baseURL     string
	client      *http.Client
}

// NewMessenger creates a Messenger channel against the production Graph API.
func NewMessenger(userID, accessToken string) *Messenger {
	return NewMessengerWithClient(userID, accessToken, DefaultGraphURL, &http.Client{Timeout: 10 * time.Second})
}

// NewMessengerWithClient creates a Messenger channel with a custom base URL and HTTP client.
func NewMessengerWithClient(userID, accessToken, baseURL string, client *http.Client) *Messenger {
	return &Messenger{
		userID:      userID,
		accessToken: accessToken,
		baseURL:     strings.TrimRight(baseURL, "/"),
		client:      client,
	}
}

type graphError struct {
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

func (m *Messenger) endpoint(path string) string {
	return m.baseURL + path + "?access_token=" + url.QueryEscape(m.accessToken)
}

// Send posts the message to the configured user.
func (m *Messenger) Send(ctx context.Context, message string) (Result, error) {
	payload := map[string]any{
		"recipient": map[string]string{"id": m.userID},
		"message":   map[string]string{"text": message},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, fmt.Errorf("marshal messenger payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint("/me/messages"), bytes.NewReader(body))
	if err != nil {
		return Failed(fmt.Sprintf("create messenger request: %v", err)), nil
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return Failed(fmt.Sprintf("HTTP request failed: %v", err)), nil
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode >= 400 {
		return Failed(fmt.Sprintf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))), nil
	}

	// Graph API can report errors inside a 2xx body
	var ge graphError
	if err := json.Unmarshal(respBody, &ge); err != nil {
		return Failed(fmt.Sprintf("failed to parse response: %v", err)), nil
	}
	if ge.Error != nil {
		return Failed(fmt.Sprintf("Facebook API error: %s", ge.Error.Message)), nil
	}
	return Success(), nil
}

// HealthCheck verifies the access token by fetching the page profile.
func (m *Messenger) HealthCheck(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.endpoint("/me"), nil)
	if err != nil {
		return false, err
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("messenger health check: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, nil
	}

	var me struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&me); err != nil {
		return false, nil
	}
	return me.ID != "", nil
}

// Name returns "facebook_messenger"
func (m *Messenger) Name() string {
	return "facebook_messenger"
}

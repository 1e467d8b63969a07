package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/RevCBH/lastsignal/internal/logging"
)

// DefaultWhoopURL is the WHOOP developer API base.
const DefaultWhoopURL = "https://api.prod.whoop.com/developer/v1"

// DefaultWhoopWindow is how recent device activity must be to count.
const DefaultWhoopWindow = 24 * time.Hour

// whoopEndpoints each return records ordered newest first.
var whoopEndpoints = []string{"/cycle", "/activity/sleep", "/recovery"}

// TokenProvider supplies a currently valid OAuth access token.
type TokenProvider interface {
	AccessToken(ctx context.Context) (string, error)
}

// Whoop is a detection-only channel: it never sends, and it reports recent
// wearable activity as a check-in.
type Whoop struct {
	tokens  TokenProvider
	window  time.Duration
	baseURL string
	client  *http.Client
	now     func() time.Time
	logger  *slog.Logger
}

// NewWhoop creates a WHOOP channel against the production API.
func NewWhoop(tokens TokenProvider, window time.Duration) *Whoop {
	return NewWhoopWithClient(tokens, window, DefaultWhoopURL, &http.Client{Timeout: 10 * time.Second})
}

// NewWhoopWithClient creates a WHOOP channel with a custom base URL and HTTP client.
func NewWhoopWithClient(tokens TokenProvider, window time.Duration, baseURL string, client *http.Client) *Whoop {
	if window <= 0 {
		window = DefaultWhoopWindow
	}
	return &Whoop{
		tokens:  tokens,
		window:  window,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		now:     time.Now,
		logger:  logging.Component("whoop"),
	}
}

type whoopRecords struct {
	Records []struct {
		UpdatedAt time.Time `json:"updated_at"`
	} `json:"records"`
}

func (w *Whoop) latestFrom(ctx context.Context, token, path string) (time.Time, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.baseURL+path+"?limit=1", nil)
	if err != nil {
		return time.Time{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := w.client.Do(req)
	if err != nil {
		return time.Time{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return time.Time{}, fmt.Errorf("%s returned %d", path, resp.StatusCode)
	}

	var recs whoopRecords
	if err := json.NewDecoder(resp.Body).Decode(&recs); err != nil {
		return time.Time{}, fmt.Errorf("parse %s response: %w", path, err)
	}
	if len(recs.Records) == 0 {
		return time.Time{}, fmt.Errorf("%s has no records", path)
	}
	return recs.Records[0].UpdatedAt, nil
}

// LatestActivity returns the newest update time across cycles, sleep and
// recovery. One endpoint failing is tolerated.
func (w *Whoop) LatestActivity(ctx context.Context) (time.Time, error) {
	token, err := w.tokens.AccessToken(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("whoop access token: %w", err)
	}

	var latest time.Time
	var errs []error
	for _, path := range whoopEndpoints {
		ts, err := w.latestFrom(ctx, token, path)
		if err != nil {
			w.logger.Debug("whoop endpoint unavailable", "path", path, "error", err)
			errs = append(errs, err)
			continue
		}
		if ts.After(latest) {
			latest = ts
		}
	}

	if latest.IsZero() {
		return time.Time{}, fmt.Errorf("no recent activity data found: %w", errors.Join(errs...))
	}
	return latest.UTC(), nil
}

// Send is a no-op: WHOOP cannot deliver messages.
func (w *Whoop) Send(ctx context.Context, message string) (Result, error) {
	return Skipped("whoop is a detection-only channel"), nil
}

// HealthCheck succeeds when the newest activity is inside the window.
func (w *Whoop) HealthCheck(ctx context.Context) (bool, error) {
	latest, err := w.LatestActivity(ctx)
	if err != nil {
		return false, err
	}
	return w.now().Sub(latest) <= w.window, nil
}

// PollForReplies reports the newest activity if it is inside the window.
// since is ignored: activity is not a consumable message, so freshness is
// measured against now minus the window.
func (w *Whoop) PollForReplies(ctx context.Context, since *time.Time) ([]CheckinResponse, error) {
	latest, err := w.LatestActivity(ctx)
	if err != nil {
		return nil, err
	}

	cutoff := w.now().Add(-w.window)
	if !latest.After(cutoff) {
		w.logger.Debug("no recent whoop activity", "latest", latest, "cutoff", cutoff)
		return nil, nil
	}
	return []CheckinResponse{Found(latest, "WHOOP device activity detected", "WHOOP device")}, nil
}

// MarkConsumedUntil is a no-op.
func (w *Whoop) MarkConsumedUntil(ctx context.Context, t time.Time) error {
	return nil
}

// Name returns "whoop"
func (w *Whoop) Name() string {
	return "whoop"
}

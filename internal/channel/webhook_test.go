package channel

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestWebhook_Send(t *testing.T) {
	var payload WebhookPayload

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	wh := NewWebhookWithClient(server.URL, server.Client())
	wh.now = func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) }

	res, err := wh.Send(context.Background(), "last signal")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.IsSuccess() {
		t.Errorf("expected success, got %s", res)
	}
	if payload.Source != "lastsignal" || payload.Message != "last signal" {
		t.Errorf("unexpected payload: %+v", payload)
	}
	if !payload.SentAt.Equal(wh.now()) {
		t.Errorf("expected sent_at %v, got %v", wh.now(), payload.SentAt)
	}
}

func TestWebhook_SendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	res, err := NewWebhook(server.URL).Send(context.Background(), "x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.IsFailed() {
		t.Errorf("expected failed result for 400 response, got %s", res)
	}
}

func TestWebhook_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	res, err := NewWebhook(url).Send(context.Background(), "x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.IsFailed() {
		t.Errorf("expected failed result for closed server, got %s", res)
	}
}

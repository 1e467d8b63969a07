package oauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// tokenServer fakes the WHOOP token endpoint and counts requests.
func tokenServer(t *testing.T, calls *int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		if r.URL.Path != "/token" {
			http.NotFound(w, r)
			return
		}
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "id", r.PostForm.Get("client_id"))
		assert.Equal(t, "secret", r.PostForm.Get("client_secret"))

		switch r.PostForm.Get("grant_type") {
		case "authorization_code":
			if r.PostForm.Get("code") != "good-code" {
				http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
				return
			}
		case "refresh_token":
			if r.PostForm.Get("refresh_token") != "refresh-1" {
				http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
				return
			}
		}

		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "access-2",
			"refresh_token": "refresh-2",
			"expires_in":    3600,
			"token_type":    "bearer",
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func TestStore_LoadMissing(t *testing.T) {
	store := NewStore(t.TempDir())
	_, err := store.Load()
	assert.ErrorIs(t, err, ErrNoTokens)
}

func TestStore_SaveLoad(t *testing.T) {
	store := NewStore(t.TempDir())
	tok := Token{AccessToken: "a", RefreshToken: "r", ExpiresAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), TokenType: "bearer"}

	require.NoError(t, store.Save(tok))
	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, tok.AccessToken, loaded.AccessToken)
	assert.True(t, tok.ExpiresAt.Equal(loaded.ExpiresAt))
	assert.NoFileExists(t, store.Path()+".tmp")
}

func TestClient_AuthCodeURL(t *testing.T) {
	c := NewClient("my-id", "secret", RedirectURL(3000))
	u, err := url.Parse(c.AuthCodeURL())
	require.NoError(t, err)

	assert.Equal(t, "api.prod.whoop.com", u.Host)
	assert.Equal(t, "/oauth/oauth2/auth", u.Path)
	assert.Equal(t, "my-id", u.Query().Get("client_id"))
	assert.Equal(t, "http://localhost:3000/auth/whoop/callback", u.Query().Get("redirect_uri"))
	assert.Contains(t, u.Query().Get("scope"), "offline")
	assert.Equal(t, AuthState, u.Query().Get("state"))
}

func TestClient_RefreshError(t *testing.T) {
	var calls int32
	server := tokenServer(t, &calls)
	c := NewClientWithHTTP("id", "secret", "", server.URL, server.Client())

	_, err := c.Refresh(context.Background(), "stale")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestClient_Exchange(t *testing.T) {
	var calls int32
	server := tokenServer(t, &calls)
	c := NewClientWithHTTP("id", "secret", "http://localhost:3000/cb", server.URL, server.Client())

	before := time.Now()
	tok, err := c.Exchange(context.Background(), "good-code")
	require.NoError(t, err)

	assert.Equal(t, "access-2", tok.AccessToken)
	assert.Equal(t, "refresh-2", tok.RefreshToken)
	assert.WithinDuration(t, before.Add(time.Hour), tok.ExpiresAt, time.Minute)
	assert.Equal(t, time.UTC, tok.ExpiresAt.Location())

	_, err = c.Exchange(context.Background(), "bad-code")
	assert.ErrorContains(t, err, "token exchange")
}

func TestClient_Refresh(t *testing.T) {
	var calls int32
	server := tokenServer(t, &calls)
	c := NewClientWithHTTP("id", "secret", "", server.URL, server.Client())

	tok, err := c.Refresh(context.Background(), "refresh-1")
	require.NoError(t, err)
	assert.Equal(t, "access-2", tok.AccessToken)
	assert.Equal(t, "refresh-2", tok.RefreshToken)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestTokenSource_ValidTokenNoRefresh(t *testing.T) {
	var calls int32
	server := tokenServer(t, &calls)
	store := NewStore(t.TempDir())
	require.NoError(t, store.Save(Token{AccessToken: "access-1", RefreshToken: "refresh-1", ExpiresAt: time.Now().Add(time.Hour)}))

	src := NewTokenSource(NewClientWithHTTP("id", "secret", "", server.URL, server.Client()), store)
	tok, err := src.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "access-1", tok)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestTokenSource_RefreshesOnDemand(t *testing.T) {
	var calls int32
	server := tokenServer(t, &calls)
	store := NewStore(t.TempDir())
	require.NoError(t, store.Save(Token{AccessToken: "access-1", RefreshToken: "refresh-1", ExpiresAt: time.Now().Add(2 * time.Minute)}))

	src := NewTokenSource(NewClientWithHTTP("id", "secret", "", server.URL, server.Client()), store)

	// Concurrent readers share a single refresh
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok, err := src.AccessToken(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, "access-2", tok)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	saved, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "refresh-2", saved.RefreshToken)
}

func TestTokenSource_ReloadsWhenFileChanges(t *testing.T) {
	var calls int32
	server := tokenServer(t, &calls)
	store := NewStore(t.TempDir())
	require.NoError(t, store.Save(Token{AccessToken: "access-1", RefreshToken: "refresh-1", ExpiresAt: time.Now().Add(time.Hour)}))

	src := NewTokenSource(NewClientWithHTTP("id", "secret", "", server.URL, server.Client()), store)
	tok, err := src.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "access-1", tok)

	// whoop-auth run again by the user
	require.NoError(t, store.Save(Token{AccessToken: "access-new", RefreshToken: "refresh-new", ExpiresAt: time.Now().Add(time.Hour)}))
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(store.Path(), later, later))

	tok, err = src.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "access-new", tok)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestTokenSource_RefreshFailureRereadsFile(t *testing.T) {
	var calls int32
	server := tokenServer(t, &calls)
	store := NewStore(t.TempDir())
	require.NoError(t, store.Save(Token{AccessToken: "access-1", RefreshToken: "revoked", ExpiresAt: time.Now()}))
	info, err := os.Stat(store.Path())
	require.NoError(t, err)

	src := NewTokenSource(NewClientWithHTTP("id", "secret", "", server.URL, server.Client()), store)
	src.mu.Lock()
	require.NoError(t, src.load())
	src.mu.Unlock()

	// Replaced without a visible mtime change
	require.NoError(t, store.Save(Token{AccessToken: "access-new", RefreshToken: "refresh-new", ExpiresAt: time.Now().Add(time.Hour)}))
	require.NoError(t, os.Chtimes(store.Path(), info.ModTime(), info.ModTime()))

	tok, err := src.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "access-new", tok)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestTokenSource_AuthorizesOAuth2Client(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer access-1", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer api.Close()

	store := NewStore(t.TempDir())
	require.NoError(t, store.Save(Token{AccessToken: "access-1", RefreshToken: "refresh-1", ExpiresAt: time.Now().Add(time.Hour), TokenType: "Bearer"}))

	httpClient := oauth2.NewClient(context.Background(), NewTokenSource(NewClient("id", "secret", ""), store))
	resp, err := httpClient.Get(api.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestTokenSource_NoTokens(t *testing.T) {
	src := NewTokenSource(NewClient("id", "secret", ""), NewStore(t.TempDir()))
	_, err := src.AccessToken(context.Background())
	assert.ErrorIs(t, err, ErrNoTokens)
}

func TestTokenSource_RunStopsOnCancel(t *testing.T) {
	var calls int32
	server := tokenServer(t, &calls)
	store := NewStore(t.TempDir())
	require.NoError(t, store.Save(Token{AccessToken: "access-1", RefreshToken: "refresh-1", ExpiresAt: time.Now()}))

	src := NewTokenSource(NewClientWithHTTP("id", "secret", "", server.URL, server.Client()), store)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		src.Run(ctx, time.Hour)
		close(done)
	}()

	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 1 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestAuthorize_CodeFlow(t *testing.T) {
	var calls int32
	server := tokenServer(t, &calls)
	store := NewStore(t.TempDir())
	client := NewClientWithHTTP("id", "secret", "", server.URL, server.Client())

	show := func(authURL string) {
		u, err := url.Parse(authURL)
		require.NoError(t, err)
		callback := u.Query().Get("redirect_uri") + "?state=" + AuthState + "&code=good-code"
		go func() {
			resp, err := http.Get(callback)
			if err == nil {
				resp.Body.Close()
			}
		}()
	}

	tok, err := Authorize(context.Background(), client, store, 0, show)
	require.NoError(t, err)
	assert.Equal(t, "access-2", tok.AccessToken)

	saved, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "refresh-2", saved.RefreshToken)
}

func TestAuthorize_Denied(t *testing.T) {
	store := NewStore(t.TempDir())
	client := NewClient("id", "secret", "")

	show := func(authURL string) {
		u, _ := url.Parse(authURL)
		go func() {
			resp, err := http.Get(u.Query().Get("redirect_uri") + "?error=access_denied")
			if err == nil {
				resp.Body.Close()
			}
		}()
	}

	_, err := Authorize(context.Background(), client, store, 0, show)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access_denied")
}

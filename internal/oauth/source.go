package oauth

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/RevCBH/lastsignal/internal/logging"
)

// RefreshBuffer is how close to expiry a token is refreshed.
const RefreshBuffer = 5 * time.Minute

// DefaultRefreshInterval is the background refresh cadence.
const DefaultRefreshInterval = 30 * time.Minute

var _ oauth2.TokenSource = (*TokenSource)(nil)

// TokenSource owns the current token and persists every refresh. Readers
// call AccessToken, which refreshes synchronously when the token is close to
// expiry, so callers never depend on the background loop having run. The
// token file is re-read whenever it changes on disk, so running whoop-auth
// while the daemon is up takes effect without a restart.
type TokenSource struct {
	client *Client
	store  *Store
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	token   *Token // nil until first load
	modTime time.Time
}

// NewTokenSource creates a source backed by store and refreshed via client.
func NewTokenSource(client *Client, store *Store) *TokenSource {
	return &TokenSource{
		client: client,
		store:  store,
		logger: logging.Component("oauth"),
		now:    time.Now,
	}
}

// AccessToken returns a token valid for at least RefreshBuffer.
func (s *TokenSource) AccessToken(ctx context.Context) (string, error) {
	tok, err := s.current(ctx)
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

// Token implements oauth2.TokenSource.
func (s *TokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.current(context.Background())
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Expiry:       tok.ExpiresAt,
	}, nil
}

// current holds the lock across the refresh so concurrent callers share one.
func (s *TokenSource) current(ctx context.Context) (Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadIfChanged(); err != nil {
		return Token{}, err
	}
	if !s.token.ExpiresWithin(s.now(), RefreshBuffer) {
		return *s.token, nil
	}

	s.logger.Info("access token expired or expiring soon, refreshing", "expires_at", s.token.ExpiresAt)
	fresh, err := s.client.Refresh(ctx, s.token.RefreshToken)
	if err != nil {
		// The file may have been replaced with a new grant since it was read
		if reloadErr := s.load(); reloadErr == nil && !s.token.ExpiresWithin(s.now(), RefreshBuffer) {
			s.logger.Info("using re-authorized tokens from disk after refresh failure", "error", err)
			return *s.token, nil
		}
		return Token{}, err
	}
	if err := s.store.Save(fresh); err != nil {
		return Token{}, fmt.Errorf("save refreshed tokens: %w", err)
	}
	s.token = &fresh
	if mt, err := s.store.ModTime(); err == nil {
		s.modTime = mt
	}
	return fresh, nil
}

func (s *TokenSource) loadIfChanged() error {
	if s.token == nil {
		return s.load()
	}
	mt, err := s.store.ModTime()
	if err != nil || mt.IsZero() || mt.Equal(s.modTime) {
		return nil
	}
	s.logger.Info("token file changed on disk, reloading", "path", s.store.Path())
	return s.load()
}

func (s *TokenSource) load() error {
	mt, err := s.store.ModTime()
	if err != nil {
		return err
	}
	tok, err := s.store.Load()
	if err != nil {
		return err
	}
	s.token = &tok
	s.modTime = mt
	return nil
}

// Run refreshes in the background every interval until ctx is done.
// Failures are logged; the next AccessToken call retries on demand.
func (s *TokenSource) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := s.current(ctx); err != nil && ctx.Err() == nil {
			s.logger.Warn("background token refresh failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

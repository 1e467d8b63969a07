package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	// DefaultBaseURL is the WHOOP OAuth host.
	DefaultBaseURL = "https://api.prod.whoop.com/oauth/oauth2"

	// AuthState is sent with the authorization request and checked on callback.
	AuthState = "lastsignal_auth"
)

// Scopes requested during authorization. "offline" is required for refresh tokens.
var Scopes = []string{"read:cycles", "read:sleep", "read:recovery", "read:profile", "offline"}

// Client runs the WHOOP authorization code flow.
type Client struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	BaseURL      string

	http *http.Client
}

// NewClient creates a client against the production WHOOP endpoints.
func NewClient(clientID, clientSecret, redirectURL string) *Client {
	return &Client{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		BaseURL:      DefaultBaseURL,
		http:         &http.Client{Timeout: 10 * time.Second},
	}
}

// NewClientWithHTTP creates a client with a custom base URL and HTTP client.
func NewClientWithHTTP(clientID, clientSecret, redirectURL, baseURL string, httpClient *http.Client) *Client {
	c := NewClient(clientID, clientSecret, redirectURL)
	c.BaseURL = strings.TrimRight(baseURL, "/")
	c.http = httpClient
	return c
}

// config is rebuilt per call because Authorize rewrites RedirectURL once the
// callback port is known.
func (c *Client) config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  c.RedirectURL,
		Scopes:       Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   c.BaseURL + "/auth",
			TokenURL:  c.BaseURL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

func (c *Client) withHTTP(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.http)
}

// AuthCodeURL returns the URL the user opens to grant access.
func (c *Client) AuthCodeURL() string {
	return c.config().AuthCodeURL(AuthState)
}

// Exchange trades an authorization code for tokens.
func (c *Client) Exchange(ctx context.Context, code string) (Token, error) {
	tok, err := c.config().Exchange(c.withHTTP(ctx), code)
	if err != nil {
		return Token{}, fmt.Errorf("token exchange: %w", err)
	}
	return fromOAuth2(tok)
}

// Refresh obtains a new token pair from a refresh token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (Token, error) {
	// An empty access token is never valid, so the source always hits the endpoint
	src := c.config().TokenSource(c.withHTTP(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return Token{}, fmt.Errorf("token refresh: %w", err)
	}
	return fromOAuth2(tok)
}

func fromOAuth2(tok *oauth2.Token) (Token, error) {
	if tok.RefreshToken == "" {
		return Token{}, errors.New("token response has no refresh_token (is the offline scope granted?)")
	}
	return Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry.UTC(),
		TokenType:    tok.TokenType,
	}, nil
}

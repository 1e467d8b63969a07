package oauth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	// CallbackPath is where WHOOP redirects after authorization.
	CallbackPath = "/auth/whoop/callback"

	// DefaultCallbackPort is the local port for the callback server.
	DefaultCallbackPort = 3000

	// CallbackTimeout bounds how long Authorize waits for the browser.
	CallbackTimeout = 2 * time.Minute
)

// RedirectURL returns the callback URL for a local port.
func RedirectURL(port int) string {
	return fmt.Sprintf("http://localhost:%d%s", port, CallbackPath)
}

type callbackResult struct {
	code string
	err  error
}

const successPage = `<html>
<head><title>WHOOP Authentication Success</title></head>
<body>
<h1>Authentication Successful</h1>
<p>You can close this window and return to the terminal.</p>
</body>
</html>`

func newCallbackRouter(results chan<- callbackResult) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET(CallbackPath, func(c *gin.Context) {
		deliver := func(r callbackResult) {
			select {
			case results <- r:
			default:
			}
		}

		if errCode := c.Query("error"); errCode != "" {
			deliver(callbackResult{err: fmt.Errorf("authorization denied: %s %s", errCode, c.Query("error_description"))})
			c.String(http.StatusBadRequest, "Authentication failed: %s. Close this window and try again.", errCode)
			return
		}

		if c.Query("state") != AuthState {
			c.String(http.StatusBadRequest, "Invalid state parameter.")
			return
		}

		code := c.Query("code")
		if code == "" {
			c.String(http.StatusBadRequest, "No authorization code received.")
			return
		}

		deliver(callbackResult{code: code})
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(successPage))
	})

	return router
}

// Authorize runs the authorization code flow. It serves the callback on
// 127.0.0.1:port, hands the authorization URL to show, waits for the code,
// exchanges it and saves the tokens. port 0 picks a free port.
func Authorize(ctx context.Context, client *Client, store *Store, port int, show func(authURL string)) (Token, error) {
	gin.SetMode(gin.ReleaseMode)

	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return Token{}, fmt.Errorf("bind callback port %d: %w", port, err)
	}
	client.RedirectURL = RedirectURL(listener.Addr().(*net.TCPAddr).Port)

	results := make(chan callbackResult, 1)
	server := &http.Server{
		Handler:           newCallbackRouter(results),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			results <- callbackResult{err: fmt.Errorf("callback server: %w", err)}
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	show(client.AuthCodeURL())

	waitCtx, cancel := context.WithTimeout(ctx, CallbackTimeout)
	defer cancel()

	var result callbackResult
	select {
	case <-waitCtx.Done():
		return Token{}, fmt.Errorf("waiting for authorization callback: %w", waitCtx.Err())
	case result = <-results:
	}
	if result.err != nil {
		return Token{}, result.err
	}

	tok, err := client.Exchange(ctx, result.code)
	if err != nil {
		return Token{}, err
	}
	if err := store.Save(tok); err != nil {
		return Token{}, err
	}
	return tok, nil
}

package ticktick

import (
	"context"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is the root of the cookie-authenticated v2 API.
	DefaultBaseURL = "https://api.ticktick.com/api/v2/"
	// DefaultOpenAPIURL is the root of the bearer-authenticated open API.
	DefaultOpenAPIURL = "https://api.ticktick.com/open/v1/"
)

// TokenSource yields the OAuth bearer token. *auth.OAuth2 implements it.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// Config holds the account credentials.
type Config struct {
	Username string
	Password string
	// TokenSource authenticates the habit and open API endpoints. It may be
	// nil when only the v2 surface is used.
	TokenSource TokenSource
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL points the v2 surface at another host. The URL must end in '/'.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithOpenAPIURL points the open API surface at another host.
func WithOpenAPIURL(u string) Option {
	return func(c *Client) { c.openURL = u }
}

// WithHTTPClient replaces the retrying default client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithBackOff sets the wait policy of the default client's retries.
func WithBackOff(newBackOff func() backoff.BackOff) Option {
	return func(c *Client) { c.newBackOff = newBackOff }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l == nil {
			l = zap.NewNop()
		}
		c.logger = l
	}
}

// WithClock sets the time source used for "today" and check-in timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

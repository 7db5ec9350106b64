package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/harrisonrobin/ticktask/pkg/httpx"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	// AuthorizeURL is the provider's consent page.
	AuthorizeURL = "https://ticktick.com/oauth/authorize"
	// TokenURL exchanges an authorization code for an access token.
	TokenURL = "https://ticktick.com/oauth/token"
	// DefaultScope grants read and write access to tasks.
	DefaultScope = "tasks:write tasks:read"
)

// Config identifies the registered application and where tokens are kept.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scope        string
	State        string
	// EnvKey names an environment variable holding a JSON TokenRecord.
	EnvKey    string
	CachePath string
	// AuthURL and TokenURL override the provider endpoints.
	AuthURL  string
	TokenURL string
}

// OAuth2 resolves an access token from memory, the environment, the cache
// file or, failing all of those, the interactive authorization-code flow.
// The provider issues no refresh tokens; renewal re-runs the flow.
type OAuth2 struct {
	cfg        Config
	oauth      *oauth2.Config
	cache      *TokenCache
	httpClient *http.Client
	authorizer Authorizer
	logger     *zap.Logger
	now        func() time.Time

	mu    sync.Mutex
	token *TokenRecord
}

// Option customizes an OAuth2.
type Option func(*OAuth2)

// WithHTTPClient sets the client used for the token request.
func WithHTTPClient(c *http.Client) Option {
	return func(o *OAuth2) { o.httpClient = c }
}

// WithAuthorizer replaces the browser prompt.
func WithAuthorizer(a Authorizer) Option {
	return func(o *OAuth2) { o.authorizer = a }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *OAuth2) {
		if l == nil {
			l = zap.NewNop()
		}
		o.logger = l
	}
}

// WithClock sets the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(o *OAuth2) { o.now = now }
}

// New validates cfg and returns an OAuth2. No token is fetched until
// AccessToken is called.
func New(cfg Config, opts ...Option) (*OAuth2, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RedirectURI == "" {
		return nil, fmt.Errorf("client id, client secret and redirect uri are required")
	}
	if cfg.Scope == "" {
		cfg.Scope = DefaultScope
	}
	if cfg.AuthURL == "" {
		cfg.AuthURL = AuthorizeURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = TokenURL
	}

	o := &OAuth2{
		cfg:        cfg,
		authorizer: BrowserPrompt{},
		logger:     zap.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.httpClient == nil {
		o.httpClient = httpx.NewClient(nil, o.logger)
	}
	o.cache = NewTokenCache(cfg.CachePath, o.logger)
	o.oauth = &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Scopes:       strings.Fields(cfg.Scope),
		Endpoint: oauth2.Endpoint{
			AuthURL:   cfg.AuthURL,
			TokenURL:  cfg.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	return o, nil
}

// AuthURL returns the consent page URL. Scopes are joined with '+'.
func (o *OAuth2) AuthURL() string {
	return o.oauth.AuthCodeURL(o.cfg.State)
}

// Cache exposes the token cache.
func (o *OAuth2) Cache() *TokenCache {
	return o.cache
}

// AccessToken returns a live access token, renewing it when fewer than 60
// seconds of validity remain.
func (o *OAuth2) AccessToken(ctx context.Context) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	now := o.now()
	if o.token != nil && !o.token.Expired(now) {
		return o.token.AccessToken, nil
	}

	if o.cfg.EnvKey != "" {
		if raw := os.Getenv(o.cfg.EnvKey); raw != "" {
			rec, err := ParseTokenRecord(raw)
			if err != nil {
				return "", fmt.Errorf("%w: %s: %v", ErrMalformedEnvToken, o.cfg.EnvKey, err)
			}
			if !rec.Expired(now) {
				o.token = rec
				return rec.AccessToken, nil
			}
			o.logger.Info("token from environment has expired", zap.String("env_key", o.cfg.EnvKey))
		}
	}

	if rec := o.cache.Read(); rec != nil {
		if !rec.Expired(now) {
			o.token = rec
			return rec.AccessToken, nil
		}
		o.logger.Info("cached token has expired", zap.String("path", o.cache.Path))
	}

	rec, err := o.requestAccessToken(ctx)
	if err != nil {
		return "", err
	}
	o.token = rec
	return rec.AccessToken, nil
}

// Reauthorize runs the interactive flow even when a valid token exists.
func (o *OAuth2) Reauthorize(ctx context.Context) (*TokenRecord, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	rec, err := o.requestAccessToken(ctx)
	if err != nil {
		return nil, err
	}
	o.token = rec
	return rec, nil
}

func (o *OAuth2) requestAccessToken(ctx context.Context) (*TokenRecord, error) {
	redirect, err := o.authorizer.Authorize(ctx, o.AuthURL())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthFailure, err)
	}

	code, state, err := parseRedirect(redirect)
	if err != nil {
		return nil, err
	}
	if o.cfg.State != "" && state != o.cfg.State {
		return nil, fmt.Errorf("%w: state mismatch in redirect URL", ErrAuthFailure)
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, o.httpClient)
	tok, err := o.oauth.Exchange(ctx, code, oauth2.SetAuthURLParam("scope", o.cfg.Scope))
	if err != nil {
		return nil, fmt.Errorf("%w: unable to retrieve token: %v", ErrAuthFailure, err)
	}

	rec := recordFromToken(tok, o.now())
	if err := o.cache.Write(rec); err != nil {
		o.logger.Warn("could not cache access token", zap.Error(err))
	}
	o.logger.Info("obtained new access token", zap.String("expires", rec.ReadableExpireTime))
	return rec, nil
}

func parseRedirect(raw string) (code, state string, err error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", "", fmt.Errorf("%w: could not parse redirect URL: %v", ErrAuthFailure, err)
	}
	q := u.Query()
	code = q.Get("code")
	if code == "" {
		return "", "", fmt.Errorf("%w: authorization code not found in redirect URL", ErrAuthFailure)
	}
	return code, q.Get("state"), nil
}

// Package ticktick is a client for the TickTick web API. The client keeps a
// local mirror of the account; every mutation is validated against the
// mirror, sent to a batch endpoint, and followed by a full re-sync so the
// returned entities are the service's view of them.
package ticktick

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/harrisonrobin/ticktask/pkg/httpx"
	"github.com/harrisonrobin/ticktask/pkg/model"
	"go.uber.org/zap"
)

// Client owns one session with the service. Operations are synchronous and
// meant to be called sequentially.
type Client struct {
	baseURL    string
	openURL    string
	http       *http.Client
	newBackOff func() backoff.BackOff
	tokens     TokenSource
	logger     *zap.Logger
	now        func() time.Time
	device     string

	accessToken string
	timeZone    string
	profileID   string
	inboxID     string

	mu    sync.RWMutex
	state State

	Projects *ProjectService
	Tags     *TagService
	Tasks    *TaskService
	Habits   *HabitService
	OpenAPI  *OpenAPI
}

// New logs in, loads the account settings and performs the first sync.
func New(ctx context.Context, cfg Config, opts ...Option) (*Client, error) {
	if cfg.Username == "" || cfg.Password == "" {
		return nil, usageErr("username and password are required")
	}

	c := &Client{
		baseURL: DefaultBaseURL,
		openURL: DefaultOpenAPIURL,
		tokens:  cfg.TokenSource,
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		rt := httpx.NewRetryTransport(nil, c.logger)
		if c.newBackOff != nil {
			rt.NewBackOff = c.newBackOff
		}
		c.http = &http.Client{Transport: rt, Timeout: httpx.DefaultTimeout}
	}

	device, err := deviceHeader()
	if err != nil {
		return nil, err
	}
	c.device = device

	c.Projects = &ProjectService{c: c}
	c.Tags = &TagService{c: c}
	c.Tasks = &TaskService{c: c}
	c.Habits = &HabitService{c: c}
	c.OpenAPI = &OpenAPI{c: c}

	if err := c.login(ctx, cfg.Username, cfg.Password); err != nil {
		return nil, err
	}
	if err := c.loadSettings(ctx); err != nil {
		return nil, err
	}
	if err := c.Sync(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// TimeZone is the account's time zone, used when callers give none.
func (c *Client) TimeZone() string { return c.timeZone }

// InboxID is the id of the built-in inbox project.
func (c *Client) InboxID() string { return c.inboxID }

// ProfileID is the account id from the settings.
func (c *Client) ProfileID() string { return c.profileID }

func (c *Client) ready() error {
	if c == nil || c.accessToken == "" {
		return ErrNotLoggedIn
	}
	return nil
}

func (c *Client) login(ctx context.Context, username, password string) error {
	body := map[string]string{"username": username, "password": password}
	var resp struct {
		Token string `json:"token"`
	}
	err := c.send(ctx, call{
		method: http.MethodPost,
		path:   "user/signin",
		query:  map[string]string{"wc": "true", "remember": "true"},
		body:   body,
	}, &resp)
	if err != nil {
		return fmt.Errorf("%w: login: %w", ErrAuthFailure, err)
	}
	if resp.Token == "" {
		return fmt.Errorf("%w: login response has no token", ErrAuthFailure)
	}
	c.accessToken = resp.Token
	c.logger.Debug("logged in", zap.String("username", username))
	return nil
}

func (c *Client) loadSettings(ctx context.Context) error {
	var settings model.Settings
	err := c.send(ctx, call{
		method: http.MethodGet,
		path:   "user/preferences/settings",
		query:  map[string]string{"includeWeb": "true"},
	}, &settings)
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}
	c.timeZone = settings.TimeZone
	c.profileID = settings.ID

	c.mu.Lock()
	c.state.UserSettings = settings
	c.mu.Unlock()
	return nil
}

type syncResponse struct {
	InboxID         string                `json:"inboxId"`
	ProjectGroups   []model.ProjectFolder `json:"projectGroups"`
	ProjectProfiles []model.Project       `json:"projectProfiles"`
	SyncTaskBean    struct {
		Update []model.Task `json:"update"`
	} `json:"syncTaskBean"`
	Tags []model.Tag `json:"tags"`
}

// Sync replaces the local mirror with the account's current contents.
func (c *Client) Sync(ctx context.Context) error {
	if err := c.ready(); err != nil {
		return err
	}

	var resp syncResponse
	if err := c.send(ctx, call{method: http.MethodGet, path: "batch/check/0"}, &resp); err != nil {
		return fmt.Errorf("sync: %w", err)
	}

	c.mu.Lock()
	c.inboxID = resp.InboxID
	c.state.ProjectFolders = resp.ProjectGroups
	c.state.Projects = resp.ProjectProfiles
	c.state.Tasks = resp.SyncTaskBean.Update
	c.state.Tags = resp.Tags
	c.mu.Unlock()

	c.logger.Debug("synced",
		zap.Int("projects", len(resp.ProjectProfiles)),
		zap.Int("folders", len(resp.ProjectGroups)),
		zap.Int("tasks", len(resp.SyncTaskBean.Update)),
		zap.Int("tags", len(resp.Tags)),
	)
	return nil
}

// deviceHeader builds the x-device value. The id is randomized per client.
func deviceHeader() (string, error) {
	b := make([]byte, 10)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating device id: %w", err)
	}
	device := struct {
		Platform string `json:"platform"`
		OS       string `json:"os"`
		Device   string `json:"device"`
		Name     string `json:"name"`
		Version  int    `json:"version"`
		ID       string `json:"id"`
		Channel  string `json:"channel"`
		Campaign string `json:"campaign"`
		Websock  string `json:"websocket"`
	}{
		Platform: "web",
		OS:       "OS X",
		Device:   "Firefox 95.0",
		Name:     "unofficial api!",
		Version:  4531,
		ID:       "6490" + hex.EncodeToString(b),
		Channel:  "website",
	}
	out, err := json.Marshal(device)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// randomHex returns n random bytes hex encoded.
func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating id: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// newObjectID returns a 24 hex digit id in the format the service assigns.
func newObjectID() (string, error) {
	return randomHex(12)
}

package ticktick

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"

	"github.com/harrisonrobin/ticktask/pkg/httpx"
	"go.uber.org/zap"
)

const userAgent = "Mozilla/5.0 (rv:103.0) Gecko/20100101 Firefox/103.0"

// TaskBatchStatusPolicy lists the statuses accepted from task batch writes.
// The service answers some successful task writes with a 500.
var TaskBatchStatusPolicy = []int{http.StatusOK, http.StatusInternalServerError}

// call describes one request.
type call struct {
	method string
	path   string
	query  map[string]string
	body   any
	// open sends the request to the open API host.
	open bool
	// bearer authenticates with the OAuth token instead of the session cookie.
	bearer bool
	// accept overrides the default {200} success set.
	accept []int
}

// send performs cl and decodes the response into out when out is non-nil
// and the body is not empty.
func (c *Client) send(ctx context.Context, cl call, out any) error {
	base := c.baseURL
	if cl.open {
		base = c.openURL
	}
	u, err := url.Parse(base + cl.path)
	if err != nil {
		return fmt.Errorf("building URL for %s: %w", cl.path, err)
	}
	if len(cl.query) > 0 {
		q := u.Query()
		for k, v := range cl.query {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}

	var body io.Reader
	if cl.body != nil {
		b, err := json.Marshal(cl.body)
		if err != nil {
			return fmt.Errorf("encoding %s body: %w", cl.path, err)
		}
		body = bytes.NewReader(b)
	}

	accept := cl.accept
	if len(accept) == 0 {
		accept = []int{http.StatusOK}
	} else {
		ctx = httpx.WithAccepted(ctx, accept...)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, u.String(), body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Device", c.device)
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cl.bearer {
		if c.tokens == nil {
			return fmt.Errorf("%w: %s requires an OAuth token source", ErrNotLoggedIn, cl.path)
		}
		token, err := c.tokens.AccessToken(ctx)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if c.accessToken != "" {
		req.AddCookie(&http.Cookie{Name: "t", Value: c.accessToken})
	}

	c.logger.Debug("request", zap.String("method", cl.method), zap.String("url", u.String()))
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", cl.method, cl.path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading %s response: %w", cl.path, err)
	}
	if !slices.Contains(accept, resp.StatusCode) {
		return &TransportError{Method: cl.method, URL: u.String(), StatusCode: resp.StatusCode, Body: string(data)}
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("accepted non-200 response",
			zap.String("url", u.String()), zap.Int("status", resp.StatusCode))
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		if resp.StatusCode != http.StatusOK {
			// accepted error statuses carry no usable body
			return nil
		}
		return fmt.Errorf("decoding %s response: %w", cl.path, err)
	}
	return nil
}

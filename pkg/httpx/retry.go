// Package httpx holds the HTTP plumbing shared by the OAuth flow and the API
// client: a retrying transport for the service's transient failures.
package httpx

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

const (
	// DefaultAttempts is the total number of tries per request.
	DefaultAttempts = 3
	// DefaultBackoffFactor is the linear backoff step between tries.
	DefaultBackoffFactor = time.Second
	// DefaultTimeout bounds a single round trip.
	DefaultTimeout = 30 * time.Second
)

// TransientStatuses are retried on every method.
var TransientStatuses = []int{
	http.StatusMethodNotAllowed,
	http.StatusInternalServerError,
	http.StatusBadGateway,
	http.StatusGatewayTimeout,
}

type acceptKey struct{}

// WithAccepted marks statuses that the caller treats as success for this
// request, so the transport hands them back instead of retrying.
func WithAccepted(ctx context.Context, statuses ...int) context.Context {
	return context.WithValue(ctx, acceptKey{}, statuses)
}

func accepted(ctx context.Context, status int) bool {
	statuses, _ := ctx.Value(acceptKey{}).([]int)
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

// LinearBackOff waits Factor, 2*Factor, 3*Factor, ... between tries.
type LinearBackOff struct {
	Factor time.Duration
	n      int
}

func (b *LinearBackOff) NextBackOff() time.Duration {
	b.n++
	return time.Duration(b.n) * b.Factor
}

func (b *LinearBackOff) Reset() { b.n = 0 }

// RetryTransport retries requests answered with a transient status.
type RetryTransport struct {
	Base     http.RoundTripper
	Attempts int
	Statuses []int
	// NewBackOff returns the wait policy for one request. Tests substitute
	// backoff.ZeroBackOff.
	NewBackOff func() backoff.BackOff
	Logger     *zap.Logger
}

// NewRetryTransport wraps base (http.DefaultTransport when nil) with the
// default policy.
func NewRetryTransport(base http.RoundTripper, logger *zap.Logger) *RetryTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetryTransport{
		Base:     base,
		Attempts: DefaultAttempts,
		Statuses: TransientStatuses,
		NewBackOff: func() backoff.BackOff {
			return &LinearBackOff{Factor: DefaultBackoffFactor}
		},
		Logger: logger,
	}
}

// NewClient returns an http.Client using the retry transport.
func NewClient(base http.RoundTripper, logger *zap.Logger) *http.Client {
	return &http.Client{
		Transport: NewRetryTransport(base, logger),
		Timeout:   DefaultTimeout,
	}
}

func (t *RetryTransport) transient(status int) bool {
	for _, s := range t.Statuses {
		if s == status {
			return true
		}
	}
	return false
}

// RoundTrip implements http.RoundTripper. After the last try the transient
// response itself is returned so callers can apply their status policy.
func (t *RetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var b backoff.BackOff = &backoff.StopBackOff{}
	if t.Attempts > 1 {
		b = &backoff.ZeroBackOff{}
		if t.NewBackOff != nil {
			b = t.NewBackOff()
		}
		b = backoff.WithMaxRetries(b, uint64(t.Attempts-1))
	}
	b = backoff.WithContext(b, req.Context())

	var (
		resp    *http.Response
		sendErr error
		try     int
	)
	op := func() error {
		try++
		attemptReq := req
		if try > 1 {
			var err error
			if attemptReq, err = rewind(req); err != nil {
				sendErr = err
				return backoff.Permanent(err)
			}
		}
		r, err := t.Base.RoundTrip(attemptReq)
		if err != nil {
			sendErr = err
			return backoff.Permanent(err)
		}
		resp = r
		if !t.transient(r.StatusCode) || accepted(req.Context(), r.StatusCode) {
			return nil
		}
		return fmt.Errorf("transient status %d", r.StatusCode)
	}
	notify := func(err error, wait time.Duration) {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		resp = nil
		t.Logger.Warn("retrying request",
			zap.String("method", req.Method),
			zap.String("url", req.URL.Redacted()),
			zap.Int("attempt", try),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}

	err := backoff.RetryNotify(op, b, notify)
	switch {
	case sendErr != nil:
		return nil, sendErr
	case err != nil && resp != nil && req.Context().Err() == nil:
		// out of tries: hand back the last transient response
		return resp, nil
	case err != nil:
		if resp != nil {
			_ = resp.Body.Close()
		}
		return nil, err
	}
	return resp, nil
}

func rewind(req *http.Request) (*http.Request, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return req, nil
	}
	if req.GetBody == nil {
		return nil, fmt.Errorf("cannot retry %s %s: body is not replayable", req.Method, req.URL.Redacted())
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, fmt.Errorf("rewinding request body: %w", err)
	}
	clone := req.Clone(req.Context())
	clone.Body = body
	return clone, nil
}

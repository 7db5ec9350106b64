package ticktick

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// batchRequest is the body of the batch/* endpoints.
type batchRequest struct {
	Add    any `json:"add,omitempty"`
	Update any `json:"update,omitempty"`
	Delete any `json:"delete,omitempty"`
}

// BatchResponse is the reply of a batch endpoint. The keys of id2etag are
// entity ids, or tag names for tag batches. Their order is kept as sent.
type BatchResponse struct {
	keys     []string
	etags    map[string]string
	ID2Error map[string]json.RawMessage
}

func (r *BatchResponse) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID2Etag  json.RawMessage            `json:"id2etag"`
		ID2Error map[string]json.RawMessage `json:"id2error"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.ID2Error = raw.ID2Error
	r.keys = nil
	r.etags = make(map[string]string)

	if len(raw.ID2Etag) == 0 || bytes.Equal(bytes.TrimSpace(raw.ID2Etag), []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw.ID2Etag))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("id2etag: expected object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("id2etag: expected key, got %v", tok)
		}
		var etag string
		if err := dec.Decode(&etag); err != nil {
			return fmt.Errorf("id2etag[%s]: %w", key, err)
		}
		if _, seen := r.etags[key]; !seen {
			r.keys = append(r.keys, key)
		}
		r.etags[key] = etag
	}
	return nil
}

// ParseID returns the first key of id2etag, or "" when there is none.
func (r *BatchResponse) ParseID() string {
	if len(r.keys) == 0 {
		return ""
	}
	return r.keys[0]
}

// ParseEtag returns the first etag, or "" when there is none.
func (r *BatchResponse) ParseEtag() string {
	if len(r.keys) == 0 {
		return ""
	}
	return r.etags[r.keys[0]]
}

// IDs returns the keys of id2etag in response order.
func (r *BatchResponse) IDs() []string {
	return append([]string(nil), r.keys...)
}

// Etags returns the etags in response order.
func (r *BatchResponse) Etags() []string {
	out := make([]string, 0, len(r.keys))
	for _, k := range r.keys {
		out = append(out, r.etags[k])
	}
	return out
}

// Etag returns the etag for key.
func (r *BatchResponse) Etag(key string) (string, bool) {
	e, ok := r.etags[key]
	return e, ok
}

// rejected returns the non-empty id2error entries.
func (r *BatchResponse) rejected() map[string]string {
	out := make(map[string]string)
	for k, v := range r.ID2Error {
		s := string(bytes.TrimSpace(v))
		if s == "" || s == "null" || s == `""` || s == "{}" {
			continue
		}
		out[k] = s
	}
	return out
}

func (c *Client) logBatchErrors(path string, r *BatchResponse) {
	for id, msg := range r.rejected() {
		c.logger.Warn("batch entry rejected", zap.String("endpoint", path), zap.String("id", id), zap.String("error", msg))
	}
}

// reorder arranges found so that result[i] matches want[i] on key. Each
// found entity is used at most once, so repeated keys resolve in order.
func reorder[T any, K comparable](want []K, found []T, key func(T) K) ([]T, error) {
	used := make([]bool, len(found))
	out := make([]T, len(want))
	for i, k := range want {
		j := -1
		for n, f := range found {
			if !used[n] && key(f) == k {
				j = n
				break
			}
		}
		if j < 0 {
			return nil, fmt.Errorf("%w: %v missing from refreshed state", ErrMissingResource, k)
		}
		used[j] = true
		out[i] = found[j]
	}
	return out, nil
}

// batch posts body to a batch endpoint and re-syncs the mirror. Statuses in
// accept other than 200 are treated as success too.
func (c *Client) batch(ctx context.Context, path string, body any, accept ...int) (*BatchResponse, error) {
	var resp BatchResponse
	if err := c.send(ctx, call{method: http.MethodPost, path: path, body: body, accept: accept}, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	c.logBatchErrors(path, &resp)
	if err := c.Sync(ctx); err != nil {
		return nil, err
	}
	return &resp, nil
}

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/99designs/keyring"
	"go.uber.org/zap"

	"github.com/harrisonrobin/ticktask/pkg/credential"
	"github.com/harrisonrobin/ticktask/pkg/ticktick"
)

const testPassword = "hunter2"

type harness struct {
	app        *app
	store      *credential.Store
	configPath string
}

// newHarness serves just enough of the web API for a login and a sync.
func newHarness(t *testing.T) *harness {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v2/user/signin", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Password != testPassword {
			http.Error(w, `{"errorCode":"username_password_not_match"}`, http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, `{"token":"sess"}`)
	})
	mux.HandleFunc("GET /api/v2/user/preferences/settings", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"id":"u1","timeZone":"UTC"}`)
	})
	mux.HandleFunc("GET /api/v2/batch/check/0", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{
			"inboxId": "inbox1",
			"projectGroups": [],
			"projectProfiles": [{"id": "p1", "name": "Work"}],
			"syncTaskBean": {"update": [{"id": "t1", "projectId": "p1", "title": "Write report"}]},
			"tags": [{"name": "home", "label": "Home"}]
		}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	cfg := "username: alice@example.com\n" +
		"oauth:\n" +
		"  client_secret: shh\n" +
		"  cache_path: " + filepath.Join(dir, ".token-oauth") + "\n"
	if err := os.WriteFile(path, []byte(cfg), 0600); err != nil {
		t.Fatal(err)
	}

	store := credential.NewStore(keyring.NewArrayKeyring(nil))
	a := &app{
		logger:      zap.NewNop(),
		now:         func() time.Time { return time.Date(2027, 1, 2, 0, 0, 0, 0, time.UTC) },
		openSecrets: func() (*credential.Store, error) { return store, nil },
		clientOpts:  []ticktick.Option{ticktick.WithBaseURL(srv.URL + "/api/v2/")},
	}
	return &harness{app: a, store: store, configPath: path}
}

func (h *harness) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(h.app)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config", h.configPath}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSyncUsesKeyringPassword(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	if _, err := h.run(t, "", "sync"); !errors.Is(err, ticktick.ErrUsage) {
		t.Fatalf("sync without password error = %v, want ErrUsage", err)
	}

	if err := h.store.Set(credential.KeyPassword, testPassword); err != nil {
		t.Fatal(err)
	}
	out, err := h.run(t, "", "sync")
	if err != nil {
		t.Fatalf("sync error = %v", err)
	}

	var summary map[string]any
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("sync output is not JSON: %v\n%s", err, out)
	}
	want := map[string]any{
		"inbox_id":  "inbox1",
		"time_zone": "UTC",
		"projects":  float64(1),
		"tasks":     float64(1),
		"tags":      float64(1),
	}
	for k, v := range want {
		if summary[k] != v {
			t.Errorf("summary[%q] = %v, want %v", k, summary[k], v)
		}
	}
}

func TestListOutputFormats(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	if err := h.store.Set(credential.KeyPassword, testPassword); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "projects json", args: []string{"project", "list"}, want: `"name": "Work"`},
		{name: "projects yaml", args: []string{"project", "list", "-o", "yaml"}, want: "name: Work"},
		{name: "tasks of project", args: []string{"task", "list", "--project", "p1"}, want: `"title": "Write report"`},
		{name: "tags yaml", args: []string{"tag", "list", "--output", "yaml"}, want: "label: Home"},
	}
	for _, tt := range tests {
		out, err := h.run(t, "", tt.args...)
		if err != nil {
			t.Errorf("%s: error = %v", tt.name, err)
			continue
		}
		if !strings.Contains(out, tt.want) {
			t.Errorf("%s: output missing %q:\n%s", tt.name, tt.want, out)
		}
	}
}

func TestInvalidOutputFlag(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	if _, err := h.run(t, "", "project", "list", "-o", "xml"); err == nil {
		t.Fatal("expected an error for -o xml")
	}
}

func TestConfigSetPasswordAndShow(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	if _, err := h.run(t, "s3cret\n", "config", "set-password"); err != nil {
		t.Fatalf("set-password error = %v", err)
	}
	if got, err := h.store.Get(credential.KeyPassword); err != nil || got != "s3cret" {
		t.Errorf("stored password = %q, %v", got, err)
	}

	if _, err := h.run(t, "abc\n", "config", "set-password", "--client-secret"); err != nil {
		t.Fatalf("set-password --client-secret error = %v", err)
	}
	if got, _ := h.store.Get(credential.KeyClientSecret); got != "abc" {
		t.Errorf("stored client secret = %q, want abc", got)
	}

	if _, err := h.run(t, "\n", "config", "set-password"); err == nil {
		t.Error("expected an error for an empty password")
	}

	out, err := h.run(t, "", "config", "show")
	if err != nil {
		t.Fatalf("config show error = %v", err)
	}
	if strings.Contains(out, "shh") || !strings.Contains(out, masked) {
		t.Errorf("client secret not masked:\n%s", out)
	}
	if !strings.Contains(out, "username: alice@example.com") {
		t.Errorf("config show missing username:\n%s", out)
	}
}

func TestAuthNeedsClientID(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	if _, err := h.run(t, "", "auth", "--url"); err == nil {
		t.Fatal("expected an error without oauth.client_id")
	}
}

func TestParseWhen(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{in: "", want: time.Time{}},
		{in: "2027-12-31", want: time.Date(2027, 12, 31, 0, 0, 0, 0, time.UTC)},
		{in: "2027-12-31 18:30", want: time.Date(2027, 12, 31, 18, 30, 0, 0, time.UTC)},
		{in: "2027-12-31T18:30", want: time.Date(2027, 12, 31, 18, 30, 0, 0, time.UTC)},
		{in: "2027-12-31 18:30:15", want: time.Date(2027, 12, 31, 18, 30, 15, 0, time.UTC)},
		{in: "31/12/2027", wantErr: true},
		{in: "tomorrow", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseWhen(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseWhen(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("parseWhen(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRender(t *testing.T) {
	t.Parallel()

	v := map[string]any{"name": "Work", "count": 2}

	var js bytes.Buffer
	if err := render(&js, "json", v); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(js.String(), `"name": "Work"`) {
		t.Errorf("json output = %s", js.String())
	}

	var ym bytes.Buffer
	if err := render(&ym, "yaml", v); err != nil {
		t.Fatal(err)
	}
	if ym.String() != "count: 2\nname: Work\n" {
		t.Errorf("yaml output = %q", ym.String())
	}

	if err := render(io.Discard, "xml", v); err == nil {
		t.Error("expected an error for xml")
	}
}

package ticktick

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/harrisonrobin/ticktask/pkg/model"
)

func TestNewLogsInAndSyncs(t *testing.T) {
	t.Parallel()

	c, fake := newTestClient(t)

	if c.TimeZone() != "America/Los_Angeles" {
		t.Errorf("TimeZone() = %q", c.TimeZone())
	}
	if c.ProfileID() != "profile1" {
		t.Errorf("ProfileID() = %q", c.ProfileID())
	}
	if c.InboxID() != testInbox {
		t.Errorf("InboxID() = %q", c.InboxID())
	}
	if _, ok := c.State().UserSettings.Extra["dateFormat"]; !ok {
		t.Error("settings extra fields were dropped")
	}
	for _, path := range []string{"POST /api/v2/user/signin", "GET /api/v2/user/preferences/settings", "GET /api/v2/batch/check/0"} {
		if fake.called(path) != 1 {
			t.Errorf("%s called %d times, want 1", path, fake.called(path))
		}
	}
	if q := fake.queries["POST /api/v2/user/signin"]; q != "remember=true&wc=true" {
		t.Errorf("signin query = %q", q)
	}
}

func TestNewRejectsBadCredentials(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(newFakeService(t))
	defer srv.Close()

	_, err := New(context.Background(), Config{Username: testUser, Password: "wrong"}, WithBaseURL(srv.URL+"/api/v2/"))
	if !errors.Is(err, ErrAuthFailure) {
		t.Fatalf("New() error = %v, want ErrAuthFailure", err)
	}
	te, ok := AsTransportError(err)
	if !ok || te.StatusCode != 401 {
		t.Errorf("AsTransportError() = %v, %v; want status 401", te, ok)
	}

	if _, err := New(context.Background(), Config{}); !errors.Is(err, ErrUsage) {
		t.Errorf("New() with empty config error = %v, want ErrUsage", err)
	}
}

func TestNilLoggerOption(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, WithLogger(nil))
	if c.logger == nil {
		t.Fatal("WithLogger(nil) left a nil logger")
	}
}

func TestZeroClientIsNotLoggedIn(t *testing.T) {
	t.Parallel()

	var c Client
	if err := c.Sync(context.Background()); !errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("Sync() error = %v, want ErrNotLoggedIn", err)
	}
}

func TestLookups(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t)
	ctx := context.Background()

	p, err := c.Projects.Create(ctx, ProjectSpec{Name: "Errands"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := c.Tags.Create(ctx, TagSpec{Label: "Home"}); err != nil {
		t.Fatalf("Tags.Create() error = %v", err)
	}

	got, err := c.ByFields(Fields{"name": "Errands"})
	if err != nil {
		t.Fatalf("ByFields() error = %v", err)
	}
	if len(got) != 1 || got[0].EntityID() != p.ID {
		t.Errorf("ByFields(name=Errands) = %v, want [%s]", got, p.ID)
	}

	got, _ = c.ByFields(Fields{"name": "home"}, ScopeTags)
	if len(got) != 1 || got[0].(model.Tag).Label != "Home" {
		t.Errorf("ByFields(name=home, tags) = %v", got)
	}
	if got, _ := c.ByFields(Fields{"name": "nothing"}); len(got) != 0 {
		t.Errorf("ByFields(name=nothing) = %v, want empty", got)
	}
	if _, err := c.ByFields(Fields{"name": "x"}, Scope("habits")); !errors.Is(err, ErrUsage) {
		t.Errorf("ByFields() with bad scope error = %v, want ErrUsage", err)
	}

	e, ok, err := c.ByID(p.ID)
	if err != nil || !ok || e.(model.Project).Name != "Errands" {
		t.Errorf("ByID(%s) = %v, %v, %v", p.ID, e, ok, err)
	}
	if _, ok, _ := c.ByID(p.ID, ScopeTasks); ok {
		t.Error("ByID() found a project in the tasks scope")
	}
	if _, ok, _ := c.ByID(""); ok {
		t.Error("ByID(\"\") matched an entity")
	}
	e, ok, _ = c.ByEtag(p.Etag, ScopeProjects)
	if !ok || e.EntityID() != p.ID {
		t.Errorf("ByEtag(%s) = %v, %v", p.Etag, e, ok)
	}

	removed, ok, err := c.DeleteFromLocal(ScopeProjects, Fields{"name": "Errands"})
	if err != nil || !ok || removed.EntityID() != p.ID {
		t.Fatalf("DeleteFromLocal() = %v, %v, %v", removed, ok, err)
	}
	if _, ok := c.Project(p.ID); ok {
		t.Error("project still mirrored after DeleteFromLocal")
	}

	// local only: the next sync brings it back
	if err := c.Sync(ctx); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Project(p.ID); !ok {
		t.Error("project missing after re-sync")
	}
}

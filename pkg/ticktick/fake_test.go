package ticktick

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/harrisonrobin/ticktask/pkg/model"
)

const (
	testUser     = "user@example.com"
	testPassword = "hunter2"
	testSession  = "session-token"
	testBearer   = "TKN"
	testInbox    = "inbox115"
)

type staticToken string

func (s staticToken) AccessToken(context.Context) (string, error) { return string(s), nil }

// fakeService is an in-memory stand-in for the TickTick API. Batch replies
// list id2etag keys in reverse order.
type fakeService struct {
	t *testing.T

	mu       sync.Mutex
	seq      int
	tz       string
	projects []model.Project
	folders  []model.ProjectFolder
	tasks    []model.Task
	tags     []model.Tag
	habits   []model.Habit
	checkins []model.HabitCheckin
	calls    []string
	queries  map[string]string
	// taskStatus, when set, is the status of task batch replies.
	taskStatus int
}

func newFakeService(t *testing.T) *fakeService {
	return &fakeService{t: t, tz: "America/Los_Angeles", queries: make(map[string]string)}
}

func newTestClient(t *testing.T, opts ...Option) (*Client, *fakeService) {
	t.Helper()
	fake := newFakeService(t)
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	opts = append([]Option{
		WithBaseURL(srv.URL + "/api/v2/"),
		WithOpenAPIURL(srv.URL + "/open/v1/"),
		WithBackOff(func() backoff.BackOff { return &backoff.ZeroBackOff{} }),
	}, opts...)
	c, err := New(context.Background(),
		Config{Username: testUser, Password: testPassword, TokenSource: staticToken(testBearer)},
		opts...,
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c, fake
}

func (f *fakeService) next(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s%021d", prefix, f.seq)
}

func (f *fakeService) etag() string {
	f.seq++
	return fmt.Sprintf("e%07d", f.seq)
}

func (f *fakeService) called(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == path {
			n++
		}
	}
	return n
}

func (f *fakeService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := r.Method + " " + r.URL.Path
	f.calls = append(f.calls, key)
	f.queries[key] = r.URL.RawQuery

	if r.Header.Get("User-Agent") != userAgent || r.Header.Get("X-Device") == "" {
		http.Error(w, "unknown client", http.StatusForbidden)
		return
	}

	if key == "POST /api/v2/user/signin" {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if r.URL.Query().Get("wc") != "true" || body["username"] != testUser || body["password"] != testPassword {
			http.Error(w, `{"errorCode":"username_password_not_match"}`, http.StatusUnauthorized)
			return
		}
		writeJSON(w, map[string]string{"token": testSession})
		return
	}

	if auth := r.Header.Get("Authorization"); auth != "" {
		if auth != "Bearer "+testBearer {
			http.Error(w, "bad token", http.StatusUnauthorized)
			return
		}
	} else if ck, err := r.Cookie("t"); err != nil || ck.Value != testSession {
		http.Error(w, "no session", http.StatusUnauthorized)
		return
	}

	switch {
	case key == "GET /api/v2/user/preferences/settings":
		writeJSON(w, map[string]any{"id": "profile1", "timeZone": f.tz, "dateFormat": "yyyy-MM-dd"})
	case key == "GET /api/v2/batch/check/0":
		writeJSON(w, map[string]any{
			"inboxId":         testInbox,
			"projectGroups":   f.folders,
			"projectProfiles": f.projects,
			"syncTaskBean":    map[string]any{"update": f.tasks},
			"tags":            f.tags,
		})
	case key == "POST /api/v2/batch/project":
		f.projectBatch(w, r)
	case key == "POST /api/v2/batch/projectGroup":
		f.folderBatch(w, r)
	case key == "POST /api/v2/batch/tag":
		f.tagBatch(w, r)
	case key == "PUT /api/v2/tag/rename":
		f.tagRename(w, r)
	case key == "PUT /api/v2/tag/merge":
		f.tagMerge(w, r)
	case key == "DELETE /api/v2/tag":
		f.removeTag(r.URL.Query().Get("name"))
	case key == "POST /api/v2/batch/task":
		f.taskBatch(w, r)
	case key == "POST /api/v2/batch/taskProject":
		f.taskProject(w, r)
	case key == "POST /api/v2/batch/taskParent":
		f.taskParent(w, r)
	case key == "GET /api/v2/project/all/completed":
		var done []model.Task
		for _, t := range f.tasks {
			if t.Completed() {
				done = append(done, t)
			}
		}
		writeJSON(w, done)
	case key == "GET /api/v2/habits":
		writeJSON(w, f.habits)
	case key == "GET /api/v2/habitSections":
		writeJSON(w, []model.HabitSection{{ID: "s1", Name: "_morning"}, {ID: "s2", Name: "_night"}})
	case key == "POST /api/v2/habits/batch":
		f.habitBatch(w, r)
	case key == "POST /api/v2/habitCheckins/query":
		f.checkinQuery(w, r)
	case key == "POST /api/v2/habitCheckins/batch":
		f.checkinBatch(w, r)
	case key == "POST /open/v1/task":
		var t model.Task
		decode(r, &t)
		t.ID, t.Etag = f.next("o"), f.etag()
		f.tasks = append(f.tasks, t)
		writeJSON(w, t)
	case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, "/open/v1/task/"):
		var t model.Task
		decode(r, &t)
		t.Etag = f.etag()
		f.upsertTask(t)
		writeJSON(w, t)
	case r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, "/open/v1/project/") && strings.HasSuffix(r.URL.Path, "/complete"):
		parts := strings.Split(r.URL.Path, "/")
		id := parts[len(parts)-2]
		for i := range f.tasks {
			if f.tasks[i].ID == id {
				f.tasks[i].Status = model.TaskCompleted
			}
		}
	default:
		http.NotFound(w, r)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func decode(r *http.Request, v any) {
	json.NewDecoder(r.Body).Decode(v)
}

// writeBatch replies with id2etag in reverse order of keys.
func writeBatch(w http.ResponseWriter, status int, keys, etags []string) {
	var buf bytes.Buffer
	buf.WriteString(`{"id2etag":{`)
	for i := len(keys) - 1; i >= 0; i-- {
		k, _ := json.Marshal(keys[i])
		e, _ := json.Marshal(etags[i])
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(e)
		if i > 0 {
			buf.WriteByte(',')
		}
	}
	buf.WriteString(`},"id2error":{}}`)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func (f *fakeService) projectBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Add    []model.Project `json:"add"`
		Update []model.Project `json:"update"`
		Delete []string        `json:"delete"`
	}
	decode(r, &req)
	var keys, etags []string
	for _, p := range req.Add {
		p.ID, p.Etag = f.next("p"), f.etag()
		f.projects = append(f.projects, p)
		keys, etags = append(keys, p.ID), append(etags, p.Etag)
	}
	for _, p := range req.Update {
		for i := range f.projects {
			if f.projects[i].ID == p.ID {
				p.Etag = f.etag()
				f.projects[i] = p
				keys, etags = append(keys, p.ID), append(etags, p.Etag)
			}
		}
	}
	for _, id := range req.Delete {
		f.projects = slices.DeleteFunc(f.projects, func(p model.Project) bool { return p.ID == id })
		f.tasks = slices.DeleteFunc(f.tasks, func(t model.Task) bool { return t.ProjectID == id })
	}
	writeBatch(w, http.StatusOK, keys, etags)
}

func (f *fakeService) folderBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Add    []model.ProjectFolder `json:"add"`
		Update []model.ProjectFolder `json:"update"`
		Delete []string              `json:"delete"`
	}
	decode(r, &req)
	var keys, etags []string
	for _, g := range req.Add {
		g.ID, g.Etag = f.next("g"), f.etag()
		f.folders = append(f.folders, g)
		keys, etags = append(keys, g.ID), append(etags, g.Etag)
	}
	for _, g := range req.Update {
		for i := range f.folders {
			if f.folders[i].ID == g.ID {
				g.Etag = f.etag()
				f.folders[i] = g
				keys, etags = append(keys, g.ID), append(etags, g.Etag)
			}
		}
	}
	for _, id := range req.Delete {
		f.folders = slices.DeleteFunc(f.folders, func(g model.ProjectFolder) bool { return g.ID == id })
		for i := range f.projects {
			if f.projects[i].GroupID == id {
				f.projects[i].GroupID = ""
			}
		}
	}
	writeBatch(w, http.StatusOK, keys, etags)
}

func (f *fakeService) tagBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Add    []model.Tag `json:"add"`
		Update []model.Tag `json:"update"`
	}
	decode(r, &req)
	var keys, etags []string
	for _, t := range req.Add {
		t.Name = strings.ToLower(t.Label)
		t.Etag = f.etag()
		f.tags = append(f.tags, t)
		keys, etags = append(keys, t.Name), append(etags, t.Etag)
	}
	for _, t := range req.Update {
		for i := range f.tags {
			if f.tags[i].Name == t.Name {
				t.Etag = f.etag()
				// one level deep: a parent that is itself a child is replaced by its own parent
				if t.Parent != "" {
					for _, p := range f.tags {
						if p.Name == t.Parent && p.Parent != "" {
							t.Parent = p.Parent
						}
					}
				}
				f.tags[i] = t
				keys, etags = append(keys, t.Name), append(etags, t.Etag)
			}
		}
	}
	writeBatch(w, http.StatusOK, keys, etags)
}

func (f *fakeService) tagRename(w http.ResponseWriter, r *http.Request) {
	var req map[string]string
	decode(r, &req)
	old, label := req["name"], req["newName"]
	name := strings.ToLower(label)
	for i := range f.tags {
		if f.tags[i].Name == old {
			f.tags[i].Name, f.tags[i].Label, f.tags[i].Etag = name, label, f.etag()
		}
		if f.tags[i].Parent == old {
			f.tags[i].Parent = name
		}
	}
	for i := range f.tasks {
		for j, tg := range f.tasks[i].Tags {
			if tg == old {
				f.tasks[i].Tags[j] = name
			}
		}
	}
}

func (f *fakeService) tagMerge(w http.ResponseWriter, r *http.Request) {
	var req map[string]string
	decode(r, &req)
	src, kept := req["name"], req["newName"]
	for i := range f.tasks {
		if !slices.Contains(f.tasks[i].Tags, src) {
			continue
		}
		tags := slices.DeleteFunc(f.tasks[i].Tags, func(s string) bool { return s == src })
		if !slices.Contains(tags, kept) {
			tags = append(tags, kept)
		}
		f.tasks[i].Tags = tags
	}
	f.tags = slices.DeleteFunc(f.tags, func(t model.Tag) bool { return t.Name == src })
}

func (f *fakeService) removeTag(name string) {
	f.tags = slices.DeleteFunc(f.tags, func(t model.Tag) bool { return t.Name == name })
	for i := range f.tasks {
		f.tasks[i].Tags = slices.DeleteFunc(f.tasks[i].Tags, func(s string) bool { return s == name })
	}
}

func (f *fakeService) upsertTask(t model.Task) {
	for i := range f.tasks {
		if f.tasks[i].ID == t.ID {
			f.tasks[i] = t
			return
		}
	}
	f.tasks = append(f.tasks, t)
}

func (f *fakeService) taskBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Add    []model.Task `json:"add"`
		Update []model.Task `json:"update"`
		Delete []taskRef    `json:"delete"`
	}
	decode(r, &req)
	var keys, etags []string
	for _, t := range req.Add {
		t.ID, t.Etag = f.next("t"), f.etag()
		f.tasks = append(f.tasks, t)
		keys, etags = append(keys, t.ID), append(etags, t.Etag)
	}
	for _, t := range req.Update {
		t.Etag = f.etag()
		f.upsertTask(t)
		keys, etags = append(keys, t.ID), append(etags, t.Etag)
	}
	for _, ref := range req.Delete {
		f.tasks = slices.DeleteFunc(f.tasks, func(t model.Task) bool {
			return t.ID == ref.TaskID && t.ProjectID == ref.ProjectID
		})
	}
	status := http.StatusOK
	if f.taskStatus != 0 {
		status = f.taskStatus
	}
	writeBatch(w, status, keys, etags)
}

func (f *fakeService) taskProject(w http.ResponseWriter, r *http.Request) {
	var moves []taskMove
	decode(r, &moves)
	for _, m := range moves {
		for i := range f.tasks {
			if f.tasks[i].ID == m.TaskID && f.tasks[i].ProjectID == m.FromProjectID {
				f.tasks[i].ProjectID = m.ToProjectID
			}
		}
	}
	writeJSON(w, map[string]any{"id2etag": map[string]string{}})
}

func (f *fakeService) taskParent(w http.ResponseWriter, r *http.Request) {
	var links []taskParent
	decode(r, &links)
	for _, l := range links {
		for i := range f.tasks {
			if f.tasks[i].ID == l.TaskID && f.tasks[i].ProjectID == l.ProjectID {
				f.tasks[i].ParentID = l.ParentID
			}
		}
	}
	writeJSON(w, map[string]any{"id2etag": map[string]string{}})
}

func (f *fakeService) habitBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Add    []model.Habit `json:"add"`
		Update []model.Habit `json:"update"`
		Delete []string      `json:"delete"`
	}
	decode(r, &req)
	if req.Add == nil || req.Update == nil || req.Delete == nil {
		http.Error(w, "add, update and delete are required", http.StatusBadRequest)
		return
	}
	var keys, etags []string
	for _, h := range req.Add {
		h.Etag = f.etag()
		f.habits = append(f.habits, h)
		keys, etags = append(keys, h.ID), append(etags, h.Etag)
	}
	for _, h := range req.Update {
		for i := range f.habits {
			if f.habits[i].ID == h.ID {
				h.Etag = f.etag()
				f.habits[i] = h
				keys, etags = append(keys, h.ID), append(etags, h.Etag)
			}
		}
	}
	for _, id := range req.Delete {
		f.habits = slices.DeleteFunc(f.habits, func(h model.Habit) bool { return h.ID == id })
	}
	writeBatch(w, http.StatusOK, keys, etags)
}

func (f *fakeService) checkinQuery(w http.ResponseWriter, r *http.Request) {
	var req struct {
		HabitIDs   []string `json:"habitIds"`
		AfterStamp int      `json:"afterStamp"`
	}
	decode(r, &req)
	out := make(map[string][]model.HabitCheckin)
	for _, id := range req.HabitIDs {
		out[id] = []model.HabitCheckin{}
		for _, c := range f.checkins {
			if c.HabitID == id && c.CheckinStamp > req.AfterStamp {
				out[id] = append(out[id], c)
			}
		}
	}
	writeJSON(w, map[string]any{"checkins": out})
}

func (f *fakeService) checkinBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Add    []model.HabitCheckin `json:"add"`
		Update []model.HabitCheckin `json:"update"`
	}
	decode(r, &req)
	f.checkins = append(f.checkins, req.Add...)
	for _, c := range req.Update {
		for i := range f.checkins {
			if f.checkins[i].ID == c.ID {
				f.checkins[i] = c
			}
		}
	}
	writeJSON(w, map[string]any{"id2etag": map[string]string{}, "id2error": map[string]string{}})
}

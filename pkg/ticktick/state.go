package ticktick

import (
	"encoding/json"
	"reflect"
	"slices"
	"strings"

	"github.com/harrisonrobin/ticktask/pkg/model"
)

// Scope names one collection of the local mirror.
type Scope string

const (
	ScopeProjects       Scope = "projects"
	ScopeProjectFolders Scope = "project_folders"
	ScopeTasks          Scope = "tasks"
	ScopeTags           Scope = "tags"
)

var allScopes = []Scope{ScopeProjects, ScopeProjectFolders, ScopeTasks, ScopeTags}

// State is the local mirror of the account.
type State struct {
	Projects       []model.Project       `json:"projects"`
	ProjectFolders []model.ProjectFolder `json:"project_folders"`
	Tasks          []model.Task          `json:"tasks"`
	Tags           []model.Tag           `json:"tags"`
	UserSettings   model.Settings        `json:"user_settings"`
}

// Entity is a mirrored record.
type Entity interface {
	EntityID() string
	EntityEtag() string
}

// Fields matches entities by their wire field names, e.g. {"name": "work"}.
type Fields map[string]any

// State returns a copy of the mirror.
func (c *Client) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tasks := make([]model.Task, len(c.state.Tasks))
	for i, t := range c.state.Tasks {
		tasks[i] = t.Clone()
	}
	return State{
		Projects:       slices.Clone(c.state.Projects),
		ProjectFolders: slices.Clone(c.state.ProjectFolders),
		Tasks:          tasks,
		Tags:           slices.Clone(c.state.Tags),
		UserSettings:   c.state.UserSettings,
	}
}

func checkScopes(scopes []Scope) ([]Scope, error) {
	if len(scopes) == 0 {
		return allScopes, nil
	}
	for _, s := range scopes {
		if !slices.Contains(allScopes, s) {
			return nil, usageErr("unknown scope %q", s)
		}
	}
	return scopes, nil
}

// entities lists a scope. The caller holds c.mu.
func (c *Client) entities(scope Scope) []Entity {
	var out []Entity
	switch scope {
	case ScopeProjects:
		for _, p := range c.state.Projects {
			out = append(out, p)
		}
	case ScopeProjectFolders:
		for _, f := range c.state.ProjectFolders {
			out = append(out, f)
		}
	case ScopeTasks:
		for _, t := range c.state.Tasks {
			out = append(out, t.Clone())
		}
	case ScopeTags:
		for _, t := range c.state.Tags {
			out = append(out, t)
		}
	}
	return out
}

func matches(e Entity, match Fields) bool {
	if len(match) == 0 {
		return false
	}
	got, err := wireMap(e)
	if err != nil {
		return false
	}
	want, err := wireMap(match)
	if err != nil {
		return false
	}
	for k, v := range want {
		if !reflect.DeepEqual(got[k], v) {
			return false
		}
	}
	return true
}

// wireMap decodes the JSON form of v so values compare by wire representation.
func wireMap(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// ByFields returns every entity in scopes (all scopes when none are given)
// whose fields equal match.
func (c *Client) ByFields(match Fields, scopes ...Scope) ([]Entity, error) {
	scopes, err := checkScopes(scopes)
	if err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []Entity
	for _, s := range scopes {
		for _, e := range c.entities(s) {
			if matches(e, match) {
				out = append(out, e)
			}
		}
	}
	return out, nil
}

// ByID returns the first entity with the given id.
func (c *Client) ByID(id string, scopes ...Scope) (Entity, bool, error) {
	return c.first(func(e Entity) bool { return e.EntityID() == id }, id, scopes)
}

// ByEtag returns the first entity with the given etag.
func (c *Client) ByEtag(etag string, scopes ...Scope) (Entity, bool, error) {
	return c.first(func(e Entity) bool { return e.EntityEtag() == etag }, etag, scopes)
}

func (c *Client) first(pred func(Entity) bool, key string, scopes []Scope) (Entity, bool, error) {
	scopes, err := checkScopes(scopes)
	if err != nil {
		return nil, false, err
	}
	if key == "" {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, s := range scopes {
		for _, e := range c.entities(s) {
			if pred(e) {
				return e, true, nil
			}
		}
	}
	return nil, false, nil
}

// DeleteFromLocal removes the first entity in scope matching match from the
// mirror and returns it. The service is not contacted.
func (c *Client) DeleteFromLocal(scope Scope, match Fields) (Entity, bool, error) {
	if _, err := checkScopes([]Scope{scope}); err != nil {
		return nil, false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, e := range c.entities(scope) {
		if !matches(e, match) {
			continue
		}
		switch scope {
		case ScopeProjects:
			c.state.Projects = slices.Delete(c.state.Projects, i, i+1)
		case ScopeProjectFolders:
			c.state.ProjectFolders = slices.Delete(c.state.ProjectFolders, i, i+1)
		case ScopeTasks:
			c.state.Tasks = slices.Delete(c.state.Tasks, i, i+1)
		case ScopeTags:
			c.state.Tags = slices.Delete(c.state.Tags, i, i+1)
		}
		return e, true, nil
	}
	return nil, false, nil
}

// Project returns the mirrored project with id.
func (c *Client) Project(id string) (model.Project, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.state.Projects {
		if p.ID == id {
			return p, true
		}
	}
	return model.Project{}, false
}

// ProjectByName returns the mirrored project called name.
func (c *Client) ProjectByName(name string) (model.Project, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.state.Projects {
		if p.Name == name {
			return p, true
		}
	}
	return model.Project{}, false
}

// Folder returns the mirrored project folder with id.
func (c *Client) Folder(id string) (model.ProjectFolder, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, f := range c.state.ProjectFolders {
		if f.ID == id {
			return f, true
		}
	}
	return model.ProjectFolder{}, false
}

// Task returns the mirrored task with id.
func (c *Client) Task(id string) (model.Task, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, t := range c.state.Tasks {
		if t.ID == id {
			return t.Clone(), true
		}
	}
	return model.Task{}, false
}

// Tag returns the mirrored tag whose name is the lowercase form of label.
func (c *Client) Tag(label string) (model.Tag, bool) {
	name := strings.ToLower(label)
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, t := range c.state.Tags {
		if t.Name == name {
			return t, true
		}
	}
	return model.Tag{}, false
}

// TagByEtag returns the mirrored tag with etag.
func (c *Client) TagByEtag(etag string) (model.Tag, bool) {
	if etag == "" {
		return model.Tag{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, t := range c.state.Tags {
		if t.Etag == etag {
			return t, true
		}
	}
	return model.Tag{}, false
}

// TasksIn returns the mirrored tasks of a project.
func (c *Client) TasksIn(projectID string) []model.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []model.Task
	for _, t := range c.state.Tasks {
		if t.ProjectID == projectID {
			out = append(out, t.Clone())
		}
	}
	return out
}

// purgeTasks drops every mirrored task of the given projects.
func (c *Client) purgeTasks(projectIDs ...string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	before := len(c.state.Tasks)
	c.state.Tasks = slices.DeleteFunc(c.state.Tasks, func(t model.Task) bool {
		return slices.Contains(projectIDs, t.ProjectID)
	})
	return before - len(c.state.Tasks)
}

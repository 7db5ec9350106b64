package ticktick

import (
	"context"

	"github.com/harrisonrobin/ticktask/pkg/colors"
	"github.com/harrisonrobin/ticktask/pkg/model"
	"go.uber.org/zap"
)

// ProjectService manages projects and project folders.
type ProjectService struct {
	c *Client
}

// ProjectSpec describes a project to create. An empty or "random" Color
// picks a random color; an empty Kind means TASK.
type ProjectSpec struct {
	Name     string            `validate:"required"`
	Color    string            `validate:"ttcolor"`
	Kind     model.ProjectKind `validate:"projectkind"`
	FolderID string
}

// Builder validates spec against the mirror and returns the payload for it.
func (s *ProjectService) Builder(spec ProjectSpec) (model.Project, error) {
	if err := s.c.ready(); err != nil {
		return model.Project{}, err
	}
	if err := checkSpec(spec); err != nil {
		return model.Project{}, err
	}
	if _, ok := s.c.ProjectByName(spec.Name); ok {
		return model.Project{}, usageErr("project %q already exists", spec.Name)
	}
	if spec.FolderID != "" {
		if _, ok := s.c.Folder(spec.FolderID); !ok {
			return model.Project{}, usageErr("project folder %q does not exist", spec.FolderID)
		}
	}
	color, err := colors.Resolve(spec.Color)
	if err != nil {
		return model.Project{}, usageErr("%v", err)
	}
	kind := spec.Kind
	if kind == "" {
		kind = model.ProjectKindTask
	}
	return model.Project{Name: spec.Name, Color: color, Kind: kind, GroupID: spec.FolderID}, nil
}

// Create builds and creates one project.
func (s *ProjectService) Create(ctx context.Context, spec ProjectSpec) (model.Project, error) {
	stub, err := s.Builder(spec)
	if err != nil {
		return model.Project{}, err
	}
	resp, err := s.c.batch(ctx, "batch/project", batchRequest{Add: []model.Project{stub}})
	if err != nil {
		return model.Project{}, err
	}
	p, ok := s.c.Project(resp.ParseID())
	if !ok {
		return model.Project{}, missing("project", resp.ParseID())
	}
	return p, nil
}

// CreateMany creates stubs, usually made by Builder, in one request. The
// result is in input order.
func (s *ProjectService) CreateMany(ctx context.Context, stubs []model.Project) ([]model.Project, error) {
	if err := s.c.ready(); err != nil {
		return nil, err
	}
	resp, err := s.c.batch(ctx, "batch/project", batchRequest{Add: stubs})
	if err != nil {
		return nil, err
	}
	var found []model.Project
	for _, id := range resp.IDs() {
		if p, ok := s.c.Project(id); ok {
			found = append(found, p)
		}
	}
	names := make([]string, len(stubs))
	for i, st := range stubs {
		names[i] = st.Name
	}
	return reorder(names, found, func(p model.Project) string { return p.Name })
}

// Update sends the full record of a mirrored project.
func (s *ProjectService) Update(ctx context.Context, p model.Project) (model.Project, error) {
	out, err := s.UpdateMany(ctx, []model.Project{p})
	if err != nil {
		return model.Project{}, err
	}
	return out[0], nil
}

// UpdateMany sends the records in one request and returns the refreshed
// projects in input order.
func (s *ProjectService) UpdateMany(ctx context.Context, projects []model.Project) ([]model.Project, error) {
	if err := s.c.ready(); err != nil {
		return nil, err
	}
	ids := make([]string, len(projects))
	for i, p := range projects {
		if _, ok := s.c.Project(p.ID); !ok {
			return nil, missing("project", p.ID)
		}
		ids[i] = p.ID
	}
	if _, err := s.c.batch(ctx, "batch/project", batchRequest{Update: projects}); err != nil {
		return nil, err
	}
	var found []model.Project
	for _, id := range ids {
		if p, ok := s.c.Project(id); ok {
			found = append(found, p)
		}
	}
	return reorder(ids, found, func(p model.Project) string { return p.ID })
}

// Delete removes projects and, with them, their tasks. The deleted records
// are returned.
func (s *ProjectService) Delete(ctx context.Context, ids ...string) ([]model.Project, error) {
	if err := s.c.ready(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, usageErr("no project ids given")
	}
	deleted := make([]model.Project, 0, len(ids))
	for _, id := range ids {
		p, ok := s.c.Project(id)
		if !ok {
			return nil, missing("project", id)
		}
		deleted = append(deleted, p)
	}

	if _, err := s.c.batch(ctx, "batch/project", batchRequest{Delete: ids}); err != nil {
		return nil, err
	}

	purged := s.c.purgeTasks(ids...)
	for _, id := range ids {
		if _, _, err := s.c.DeleteFromLocal(ScopeProjects, Fields{"id": id}); err != nil {
			return nil, err
		}
	}
	s.c.logger.Info("deleted projects", zap.Strings("ids", ids), zap.Int("tasks_purged", purged))
	return deleted, nil
}

// Archive closes projects. Archiving a closed project is a no-op on the
// service side.
func (s *ProjectService) Archive(ctx context.Context, ids ...string) ([]model.Project, error) {
	if err := s.c.ready(); err != nil {
		return nil, err
	}
	projects := make([]model.Project, 0, len(ids))
	for _, id := range ids {
		p, ok := s.c.Project(id)
		if !ok {
			return nil, missing("project", id)
		}
		p.Closed = true
		projects = append(projects, p)
	}
	return s.UpdateMany(ctx, projects)
}

type folderStub struct {
	Name     string `json:"name"`
	ListType string `json:"listType"`
}

// CreateFolder creates a project folder.
func (s *ProjectService) CreateFolder(ctx context.Context, name string) (model.ProjectFolder, error) {
	out, err := s.CreateFolders(ctx, name)
	if err != nil {
		return model.ProjectFolder{}, err
	}
	return out[0], nil
}

// CreateFolders creates folders in one request, returned in input order.
func (s *ProjectService) CreateFolders(ctx context.Context, names ...string) ([]model.ProjectFolder, error) {
	if err := s.c.ready(); err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, usageErr("no folder names given")
	}
	stubs := make([]folderStub, len(names))
	for i, n := range names {
		if n == "" {
			return nil, usageErr("folder name must not be empty")
		}
		stubs[i] = folderStub{Name: n, ListType: "group"}
	}
	resp, err := s.c.batch(ctx, "batch/projectGroup", batchRequest{Add: stubs})
	if err != nil {
		return nil, err
	}
	var found []model.ProjectFolder
	for _, id := range resp.IDs() {
		if f, ok := s.c.Folder(id); ok {
			found = append(found, f)
		}
	}
	return reorder(names, found, func(f model.ProjectFolder) string { return f.Name })
}

// UpdateFolder sends the full record of a mirrored folder.
func (s *ProjectService) UpdateFolder(ctx context.Context, f model.ProjectFolder) (model.ProjectFolder, error) {
	if err := s.c.ready(); err != nil {
		return model.ProjectFolder{}, err
	}
	if _, ok := s.c.Folder(f.ID); !ok {
		return model.ProjectFolder{}, missing("project folder", f.ID)
	}
	if _, err := s.c.batch(ctx, "batch/projectGroup", batchRequest{Update: []model.ProjectFolder{f}}); err != nil {
		return model.ProjectFolder{}, err
	}
	out, ok := s.c.Folder(f.ID)
	if !ok {
		return model.ProjectFolder{}, missing("project folder", f.ID)
	}
	return out, nil
}

// DeleteFolder removes folders. Their projects are kept and become
// ungrouped. The deleted folder records are returned.
func (s *ProjectService) DeleteFolder(ctx context.Context, ids ...string) ([]model.ProjectFolder, error) {
	if err := s.c.ready(); err != nil {
		return nil, err
	}
	deleted := make([]model.ProjectFolder, 0, len(ids))
	for _, id := range ids {
		f, ok := s.c.Folder(id)
		if !ok {
			return nil, missing("project folder", id)
		}
		deleted = append(deleted, f)
	}
	req := batchRequest{Add: []any{}, Update: []any{}, Delete: ids}
	if _, err := s.c.batch(ctx, "batch/projectGroup", req); err != nil {
		return nil, err
	}
	return deleted, nil
}

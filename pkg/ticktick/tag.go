package ticktick

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/harrisonrobin/ticktask/pkg/colors"
	"github.com/harrisonrobin/ticktask/pkg/model"
)

// TagService manages tags. Tags are keyed by their lowercase name; every
// method that takes a label matches it case-insensitively.
type TagService struct {
	c *Client
}

// TagSpec describes a tag to create. Parent is the label of an existing
// tag, or empty for a top-level tag. An empty Sort means project.
type TagSpec struct {
	Label  string        `validate:"required"`
	Color  string        `validate:"ttcolor"`
	Parent string
	Sort   model.TagSort `validate:"tagsort"`
}

// Builder validates spec against the mirror and returns the payload for it.
func (s *TagService) Builder(spec TagSpec) (model.Tag, error) {
	if err := s.c.ready(); err != nil {
		return model.Tag{}, err
	}
	return s.checkFields(spec)
}

func (s *TagService) checkFields(spec TagSpec) (model.Tag, error) {
	if err := checkSpec(spec); err != nil {
		return model.Tag{}, err
	}
	name := strings.ToLower(spec.Label)
	if _, ok := s.c.Tag(name); ok {
		return model.Tag{}, usageErr("tag %q already exists", name)
	}
	color, err := colors.Resolve(spec.Color)
	if err != nil {
		return model.Tag{}, usageErr("%v", err)
	}
	parent := strings.ToLower(spec.Parent)
	if parent != "" {
		if _, ok := s.c.Tag(parent); !ok {
			return model.Tag{}, usageErr("parent tag %q does not exist", spec.Parent)
		}
	}
	sort := spec.Sort
	if sort == "" {
		sort = model.TagSortProject
	}
	return model.Tag{
		Label:    spec.Label,
		Color:    color,
		Parent:   parent,
		SortType: sort,
		Name:     name,
	}, nil
}

// Create builds and creates one tag.
func (s *TagService) Create(ctx context.Context, spec TagSpec) (model.Tag, error) {
	stub, err := s.Builder(spec)
	if err != nil {
		return model.Tag{}, err
	}
	resp, err := s.c.batch(ctx, "batch/tag", batchRequest{Add: []model.Tag{stub}})
	if err != nil {
		return model.Tag{}, err
	}
	if t, ok := s.c.TagByEtag(resp.ParseEtag()); ok {
		return t, nil
	}
	if t, ok := s.c.Tag(stub.Name); ok {
		return t, nil
	}
	return model.Tag{}, missing("tag", stub.Name)
}

// CreateMany creates stubs in one request and returns the tags in input
// order. Two stubs with the same name are rejected.
func (s *TagService) CreateMany(ctx context.Context, stubs []model.Tag) ([]model.Tag, error) {
	if err := s.c.ready(); err != nil {
		return nil, err
	}
	if len(stubs) == 0 {
		return nil, usageErr("no tags given")
	}
	stubs = append([]model.Tag(nil), stubs...)
	index := make(map[string]int, len(stubs))
	for i := range stubs {
		if stubs[i].Name == "" {
			stubs[i].Name = strings.ToLower(stubs[i].Label)
		}
		if _, dup := index[stubs[i].Name]; dup {
			return nil, usageErr("tag %q appears more than once", stubs[i].Name)
		}
		index[stubs[i].Name] = i
	}

	resp, err := s.c.batch(ctx, "batch/tag", batchRequest{Add: stubs})
	if err != nil {
		return nil, err
	}

	out := make([]model.Tag, len(stubs))
	filled := make([]bool, len(stubs))
	for _, key := range resp.IDs() {
		i, ok := index[strings.ToLower(key)]
		if !ok {
			continue
		}
		t, ok := s.c.Tag(key)
		if !ok {
			return nil, missing("tag", key)
		}
		out[i], filled[i] = t, true
	}
	for i, ok := range filled {
		if !ok {
			return nil, missing("tag", stubs[i].Name)
		}
	}
	return out, nil
}

// Rename changes a tag's label. Tasks carrying the tag follow the rename.
func (s *TagService) Rename(ctx context.Context, oldLabel, newLabel string) (model.Tag, error) {
	if err := s.c.ready(); err != nil {
		return model.Tag{}, err
	}
	old, ok := s.c.Tag(oldLabel)
	if !ok {
		return model.Tag{}, usageErr("tag %q does not exist", oldLabel)
	}
	if newLabel == "" {
		return model.Tag{}, usageErr("new tag name must not be empty")
	}
	if _, ok := s.c.Tag(newLabel); ok {
		return model.Tag{}, usageErr("tag %q already exists", strings.ToLower(newLabel))
	}

	body := map[string]string{"name": old.Name, "newName": newLabel}
	if err := s.c.send(ctx, call{method: http.MethodPut, path: "tag/rename", body: body}, nil); err != nil {
		return model.Tag{}, fmt.Errorf("tag/rename: %w", err)
	}
	if err := s.c.Sync(ctx); err != nil {
		return model.Tag{}, err
	}
	t, ok := s.c.Tag(newLabel)
	if !ok {
		return model.Tag{}, missing("tag", newLabel)
	}
	return t, nil
}

// Color sets a tag's color.
func (s *TagService) Color(ctx context.Context, label, color string) (model.Tag, error) {
	if err := s.c.ready(); err != nil {
		return model.Tag{}, err
	}
	t, ok := s.c.Tag(label)
	if !ok {
		return model.Tag{}, missing("tag", label)
	}
	if !colors.Valid(color) {
		return model.Tag{}, usageErr("invalid hex color %q", color)
	}
	t.Color = color
	return s.updateOne(ctx, t)
}

// Sorting sets the order of tasks shown under a tag.
func (s *TagService) Sorting(ctx context.Context, label string, sort model.TagSort) (model.Tag, error) {
	if err := s.c.ready(); err != nil {
		return model.Tag{}, err
	}
	t, ok := s.c.Tag(label)
	if !ok {
		return model.Tag{}, missing("tag", label)
	}
	if !sort.Valid() {
		return model.Tag{}, usageErr("invalid tag sort %q", sort)
	}
	t.SortType = sort
	return s.updateOne(ctx, t)
}

// Nesting moves a tag under parent, or to the top level when parent is
// empty. The service keeps the hierarchy one level deep: nesting under a
// child tag re-parents rather than creating a grandchild.
func (s *TagService) Nesting(ctx context.Context, label, parent string) (model.Tag, error) {
	if err := s.c.ready(); err != nil {
		return model.Tag{}, err
	}
	t, ok := s.c.Tag(label)
	if !ok {
		return model.Tag{}, missing("tag", label)
	}

	var parentName string
	if parent != "" {
		p, ok := s.c.Tag(parent)
		if !ok {
			return model.Tag{}, usageErr("parent tag %q does not exist", parent)
		}
		if p.Name == t.Name {
			return model.Tag{}, usageErr("tag %q cannot be its own parent", t.Name)
		}
		parentName = p.Name
	}

	if t.Parent == parentName {
		return t, nil
	}
	t.Parent = parentName
	return s.updateOne(ctx, t)
}

// Merge folds sources into kept: their tasks are re-tagged with kept and the
// source tags are deleted. The kept tag is returned.
func (s *TagService) Merge(ctx context.Context, kept string, sources ...string) (model.Tag, error) {
	if err := s.c.ready(); err != nil {
		return model.Tag{}, err
	}
	k, ok := s.c.Tag(kept)
	if !ok {
		return model.Tag{}, missing("tag", kept)
	}
	if len(sources) == 0 {
		return model.Tag{}, usageErr("no tags to merge into %q", k.Name)
	}
	merge := make([]model.Tag, 0, len(sources))
	for _, src := range sources {
		t, ok := s.c.Tag(src)
		if !ok {
			return model.Tag{}, missing("tag", src)
		}
		if t.Name == k.Name {
			return model.Tag{}, usageErr("cannot merge tag %q into itself", t.Name)
		}
		merge = append(merge, t)
	}

	for _, t := range merge {
		body := map[string]string{"name": t.Name, "newName": k.Name}
		if err := s.c.send(ctx, call{method: http.MethodPut, path: "tag/merge", body: body}, nil); err != nil {
			return model.Tag{}, fmt.Errorf("tag/merge: %w", err)
		}
		if err := s.c.Sync(ctx); err != nil {
			return model.Tag{}, err
		}
	}

	out, ok := s.c.Tag(k.Name)
	if !ok {
		return model.Tag{}, missing("tag", k.Name)
	}
	return out, nil
}

// Update sends full tag records as given and returns the refreshed tags in
// input order. Fields are not validated.
func (s *TagService) Update(ctx context.Context, tags ...model.Tag) ([]model.Tag, error) {
	if err := s.c.ready(); err != nil {
		return nil, err
	}
	if len(tags) == 0 {
		return nil, usageErr("no tags given")
	}
	if _, err := s.c.batch(ctx, "batch/tag", batchRequest{Update: tags}); err != nil {
		return nil, err
	}
	out := make([]model.Tag, len(tags))
	for i, t := range tags {
		got, ok := s.c.Tag(t.Name)
		if !ok {
			return nil, missing("tag", t.Name)
		}
		out[i] = got
	}
	return out, nil
}

func (s *TagService) updateOne(ctx context.Context, t model.Tag) (model.Tag, error) {
	resp, err := s.c.batch(ctx, "batch/tag", batchRequest{Update: []model.Tag{t}})
	if err != nil {
		return model.Tag{}, err
	}
	if etag, ok := resp.Etag(t.Name); ok {
		if out, ok := s.c.TagByEtag(etag); ok {
			return out, nil
		}
	}
	out, ok := s.c.Tag(t.Name)
	if !ok {
		return model.Tag{}, missing("tag", t.Name)
	}
	return out, nil
}

// Delete removes tags and returns the deleted records. Tasks keep their
// other tags.
func (s *TagService) Delete(ctx context.Context, labels ...string) ([]model.Tag, error) {
	if err := s.c.ready(); err != nil {
		return nil, err
	}
	deleted := make([]model.Tag, 0, len(labels))
	for _, label := range labels {
		t, ok := s.c.Tag(label)
		if !ok {
			return nil, missing("tag", label)
		}
		deleted = append(deleted, t)
	}

	for _, t := range deleted {
		err := s.c.send(ctx, call{
			method: http.MethodDelete,
			path:   "tag",
			query:  map[string]string{"name": t.Name},
		}, nil)
		if err != nil {
			return nil, fmt.Errorf("deleting tag %q: %w", t.Name, err)
		}
		match := Fields{"name": t.Name}
		if t.Etag != "" {
			match = Fields{"etag": t.Etag}
		}
		if _, _, err := s.c.DeleteFromLocal(ScopeTags, match); err != nil {
			return nil, err
		}
	}
	return deleted, nil
}

package ticktick

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harrisonrobin/ticktask/pkg/model"
	"github.com/harrisonrobin/ticktask/pkg/timeutil"
	"go.uber.org/zap"
)

// TaskService manages tasks.
type TaskService struct {
	c *Client
}

// TaskSpec describes a task to create. Start and End are wall-clock times in
// TimeZone (the account zone when empty); their locations are ignored. A
// date with no time of day makes the task all-day, and End is then the last
// day, inclusive. ProjectID defaults to the inbox.
type TaskSpec struct {
	Title     string
	Start     time.Time
	End       time.Time
	Priority  model.Priority `validate:"priority"`
	ProjectID string
	Tags      []string
	Content   string
	TimeZone  string
}

type taskDates struct {
	start    *model.WireTime
	due      *model.WireTime
	allDay   bool
	timeZone string
}

func (s *TaskService) zone(tz string) (string, error) {
	if tz == "" {
		tz = s.c.timeZone
	}
	if _, err := timeutil.LoadZone(tz); err != nil {
		return "", fmt.Errorf("%w: %w", ErrUsage, err)
	}
	return tz, nil
}

func (s *TaskService) timeChecks(start, end time.Time, tz string) (taskDates, error) {
	zone, err := s.zone(tz)
	if err != nil {
		return taskDates{}, err
	}
	d := taskDates{timeZone: zone}

	switch {
	case start.IsZero() && end.IsZero():
		return d, nil
	case !start.IsZero() && !end.IsZero():
		if start.After(end) {
			return taskDates{}, usageErr("start %s is after end %s", start.Format(time.DateTime), end.Format(time.DateTime))
		}
		d.allDay = timeutil.IsAllDay(start) && timeutil.IsAllDay(end)
		if d.allDay {
			end = timeutil.NextDay(end)
		}
	case start.IsZero():
		start = end
		d.allDay = timeutil.IsAllDay(start)
	default:
		end = start
		d.allDay = timeutil.IsAllDay(start)
	}

	utcStart, err := timeutil.LocalToUTC(start, zone)
	if err != nil {
		return taskDates{}, err
	}
	utcEnd, err := timeutil.LocalToUTC(end, zone)
	if err != nil {
		return taskDates{}, err
	}
	d.start = model.NewWireTime(utcStart)
	d.due = model.NewWireTime(utcEnd)
	return d, nil
}

func (s *TaskService) fieldChecks(spec TaskSpec) (model.Task, error) {
	if err := checkSpec(spec); err != nil {
		return model.Task{}, err
	}
	project := spec.ProjectID
	if project == "" {
		project = s.c.inboxID
	} else if err := s.checkProject(project); err != nil {
		return model.Task{}, err
	}
	tags := make([]string, 0, len(spec.Tags))
	for _, t := range spec.Tags {
		name := strings.ToLower(t)
		if name == "" || slices.Contains(tags, name) {
			continue
		}
		tags = append(tags, name)
	}
	return model.Task{
		Title:     spec.Title,
		Priority:  spec.Priority,
		ProjectID: project,
		Tags:      tags,
		Content:   spec.Content,
	}, nil
}

// checkProject accepts a mirrored project id or the inbox id.
func (s *TaskService) checkProject(id string) error {
	if id == s.c.inboxID {
		return nil
	}
	if _, ok := s.c.Project(id); !ok {
		return usageErr("project %q does not exist", id)
	}
	return nil
}

// Builder validates spec and returns the payload for it.
func (s *TaskService) Builder(spec TaskSpec) (model.Task, error) {
	if err := s.c.ready(); err != nil {
		return model.Task{}, err
	}
	dates, err := s.timeChecks(spec.Start, spec.End, spec.TimeZone)
	if err != nil {
		return model.Task{}, err
	}
	task, err := s.fieldChecks(spec)
	if err != nil {
		return model.Task{}, err
	}
	task.StartDate = dates.start
	task.DueDate = dates.due
	task.IsAllDay = dates.allDay
	task.TimeZone = dates.timeZone
	return task, nil
}

// Create builds and creates one task, creating any tags it names that do
// not exist yet.
func (s *TaskService) Create(ctx context.Context, spec TaskSpec) (model.Task, error) {
	stub, err := s.Builder(spec)
	if err != nil {
		return model.Task{}, err
	}
	if err := s.ensureTags(ctx, spec.Tags); err != nil {
		return model.Task{}, err
	}
	id, err := newObjectID()
	if err != nil {
		return model.Task{}, err
	}
	stub.ID = id
	return s.update(ctx, stub)
}

// CreateMany creates stubs in one request and returns the tasks in input
// order. Missing tags are created first.
//
// The service's reply does not map inputs to the ids it assigns, so each
// stub's content carries a unique marker until the task is found in the
// refreshed mirror. A final update removes the markers.
func (s *TaskService) CreateMany(ctx context.Context, stubs []model.Task) ([]model.Task, error) {
	if err := s.c.ready(); err != nil {
		return nil, err
	}
	if len(stubs) == 0 {
		return nil, usageErr("no tasks given")
	}
	var tags []string
	for _, st := range stubs {
		tags = append(tags, st.Tags...)
	}
	if err := s.ensureTags(ctx, tags); err != nil {
		return nil, err
	}

	marked := make([]model.Task, len(stubs))
	markers := make([]string, len(stubs))
	for i, st := range stubs {
		marked[i] = st.Clone()
		markers[i] = uuid.NewString()
		marked[i].Content += markers[i]
	}

	if _, err := s.c.batch(ctx, "batch/task", batchRequest{Add: marked}, TaskBatchStatusPolicy...); err != nil {
		return nil, err
	}

	created := make([]model.Task, len(stubs))
	pending := len(markers)
	mirror := s.c.State().Tasks
	for i := len(mirror) - 1; i >= 0 && pending > 0; i-- {
		t := mirror[i]
		for n, marker := range markers {
			if marker == "" || !strings.Contains(t.Content, marker) {
				continue
			}
			t.Content = strings.Replace(t.Content, marker, "", 1)
			created[n] = t
			markers[n] = ""
			pending--
			break
		}
	}
	if pending > 0 {
		for n, marker := range markers {
			if marker != "" {
				return nil, fmt.Errorf("%w: task %q not found after create", ErrMissingResource, stubs[n].Title)
			}
		}
	}

	s.c.logger.Debug("created tasks", zap.Int("count", len(created)))
	return s.updateMany(ctx, created)
}

// ensureTags creates, in one request, every tag in names the mirror lacks.
func (s *TaskService) ensureTags(ctx context.Context, names []string) error {
	var stubs []model.Tag
	seen := make(map[string]bool)
	for _, label := range names {
		name := strings.ToLower(label)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		if _, ok := s.c.Tag(name); ok {
			continue
		}
		stub, err := s.c.Tags.checkFields(TagSpec{Label: label})
		if err != nil {
			return err
		}
		stubs = append(stubs, stub)
	}
	if len(stubs) == 0 {
		return nil
	}
	_, err := s.c.Tags.CreateMany(ctx, stubs)
	return err
}

// Update sends the full record of a mirrored task.
func (s *TaskService) Update(ctx context.Context, task model.Task) (model.Task, error) {
	if err := s.c.ready(); err != nil {
		return model.Task{}, err
	}
	if _, ok := s.c.Task(task.ID); !ok {
		return model.Task{}, missing("task", task.ID)
	}
	return s.update(ctx, task)
}

func (s *TaskService) update(ctx context.Context, task model.Task) (model.Task, error) {
	resp, err := s.c.batch(ctx, "batch/task", batchRequest{Update: []model.Task{task}}, TaskBatchStatusPolicy...)
	if err != nil {
		return model.Task{}, err
	}
	id := resp.ParseID()
	if id == "" {
		id = task.ID
	}
	out, ok := s.c.Task(id)
	if !ok {
		return model.Task{}, missing("task", id)
	}
	return out, nil
}

// UpdateMany sends the records in one request and returns the refreshed
// tasks in input order.
func (s *TaskService) UpdateMany(ctx context.Context, tasks []model.Task) ([]model.Task, error) {
	if err := s.c.ready(); err != nil {
		return nil, err
	}
	for _, t := range tasks {
		if _, ok := s.c.Task(t.ID); !ok {
			return nil, missing("task", t.ID)
		}
	}
	return s.updateMany(ctx, tasks)
}

func (s *TaskService) updateMany(ctx context.Context, tasks []model.Task) ([]model.Task, error) {
	if len(tasks) == 0 {
		return nil, usageErr("no tasks given")
	}
	if _, err := s.c.batch(ctx, "batch/task", batchRequest{Update: tasks}, TaskBatchStatusPolicy...); err != nil {
		return nil, err
	}
	out := make([]model.Task, len(tasks))
	for i, t := range tasks {
		got, ok := s.c.Task(t.ID)
		if !ok {
			return nil, missing("task", t.ID)
		}
		out[i] = got
	}
	return out, nil
}

// Complete marks tasks as done.
func (s *TaskService) Complete(ctx context.Context, ids ...string) ([]model.Task, error) {
	if err := s.c.ready(); err != nil {
		return nil, err
	}
	tasks := make([]model.Task, 0, len(ids))
	for _, id := range ids {
		t, ok := s.c.Task(id)
		if !ok {
			return nil, missing("task", id)
		}
		t.Status = model.TaskCompleted
		tasks = append(tasks, t)
	}
	return s.updateMany(ctx, tasks)
}

type taskRef struct {
	ProjectID string `json:"projectId"`
	TaskID    string `json:"taskId"`
}

// Delete removes tasks and returns the deleted records.
func (s *TaskService) Delete(ctx context.Context, ids ...string) ([]model.Task, error) {
	if err := s.c.ready(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, usageErr("no task ids given")
	}
	deleted := make([]model.Task, 0, len(ids))
	refs := make([]taskRef, 0, len(ids))
	for _, id := range ids {
		t, ok := s.c.Task(id)
		if !ok {
			return nil, missing("task", id)
		}
		deleted = append(deleted, t)
		refs = append(refs, taskRef{ProjectID: t.ProjectID, TaskID: t.ID})
	}
	if _, err := s.c.batch(ctx, "batch/task", batchRequest{Delete: refs}, TaskBatchStatusPolicy...); err != nil {
		return nil, err
	}
	for _, id := range ids {
		if _, _, err := s.c.DeleteFromLocal(ScopeTasks, Fields{"id": id}); err != nil {
			return nil, err
		}
	}
	return deleted, nil
}

type taskMove struct {
	FromProjectID string `json:"fromProjectId"`
	TaskID        string `json:"taskId"`
	ToProjectID   string `json:"toProjectId"`
}

// MoveProjects moves every task of one project to another. Either may be
// the inbox. The destination's tasks are returned.
func (s *TaskService) MoveProjects(ctx context.Context, fromID, toID string) ([]model.Task, error) {
	if err := s.c.ready(); err != nil {
		return nil, err
	}
	if err := s.checkProject(fromID); err != nil {
		return nil, err
	}
	if err := s.checkProject(toID); err != nil {
		return nil, err
	}
	if fromID == toID {
		return s.c.TasksIn(toID), nil
	}

	var moves []taskMove
	for _, t := range s.c.TasksIn(fromID) {
		moves = append(moves, taskMove{FromProjectID: fromID, TaskID: t.ID, ToProjectID: toID})
	}
	if len(moves) == 0 {
		return s.c.TasksIn(toID), nil
	}
	if err := s.c.send(ctx, call{method: http.MethodPost, path: "batch/taskProject", body: moves}, nil); err != nil {
		return nil, fmt.Errorf("batch/taskProject: %w", err)
	}
	if err := s.c.Sync(ctx); err != nil {
		return nil, err
	}
	return s.c.TasksIn(toID), nil
}

type taskParent struct {
	ParentID  string `json:"parentId"`
	ProjectID string `json:"projectId"`
	TaskID    string `json:"taskId"`
}

// CreateSubtasks creates stubs and makes them children of parentID. Stubs
// must be in the parent's project; an empty ProjectID is filled in.
func (s *TaskService) CreateSubtasks(ctx context.Context, parentID string, stubs ...model.Task) ([]model.Task, error) {
	if err := s.c.ready(); err != nil {
		return nil, err
	}
	parent, ok := s.c.Task(parentID)
	if !ok {
		return nil, missing("task", parentID)
	}
	if len(stubs) == 0 {
		return nil, usageErr("no subtasks given")
	}
	stubs = slices.Clone(stubs)
	for i := range stubs {
		if stubs[i].ProjectID == "" {
			stubs[i].ProjectID = parent.ProjectID
		}
		if stubs[i].ProjectID != parent.ProjectID {
			return nil, usageErr("subtask %q is in project %q, parent is in %q",
				stubs[i].Title, stubs[i].ProjectID, parent.ProjectID)
		}
	}

	children, err := s.CreateMany(ctx, stubs)
	if err != nil {
		return nil, err
	}

	links := make([]taskParent, len(children))
	for i, ch := range children {
		links[i] = taskParent{ParentID: parent.ID, ProjectID: parent.ProjectID, TaskID: ch.ID}
	}
	if err := s.c.send(ctx, call{method: http.MethodPost, path: "batch/taskParent", body: links}, nil); err != nil {
		return nil, fmt.Errorf("batch/taskParent: %w", err)
	}
	if err := s.c.Sync(ctx); err != nil {
		return nil, err
	}

	out := make([]model.Task, len(children))
	for i, ch := range children {
		got, ok := s.c.Task(ch.ID)
		if !ok {
			return nil, missing("task", ch.ID)
		}
		out[i] = got
	}
	return out, nil
}

// FromProject returns the mirrored tasks of a project or the inbox.
func (s *TaskService) FromProject(projectID string) ([]model.Task, error) {
	if err := s.c.ready(); err != nil {
		return nil, err
	}
	if err := s.checkProject(projectID); err != nil {
		return nil, err
	}
	return s.c.TasksIn(projectID), nil
}

// CompletedLimit is the page size of the completed task query.
const CompletedLimit = 100

// Completed returns tasks completed between start and end, given as wall
// clock times in tz (the account zone when empty). A zero end means the
// single day of start. With full set the range covers whole days.
func (s *TaskService) Completed(ctx context.Context, start, end time.Time, full bool, tz string) ([]model.Task, error) {
	if err := s.c.ready(); err != nil {
		return nil, err
	}
	zone, err := s.zone(tz)
	if err != nil {
		return nil, err
	}
	if start.IsZero() {
		return nil, usageErr("start date is required")
	}
	if end.IsZero() {
		end = start
	}
	if full {
		start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
		end = time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, 0, end.Location())
	}
	if start.After(end) {
		return nil, usageErr("start %s is after end %s", start.Format(time.DateTime), end.Format(time.DateTime))
	}

	from, err := timeutil.ToWire(start, zone)
	if err != nil {
		return nil, err
	}
	to, err := timeutil.ToWire(end, zone)
	if err != nil {
		return nil, err
	}

	var tasks []model.Task
	err = s.c.send(ctx, call{
		method: http.MethodGet,
		path:   "project/all/completed",
		query:  map[string]string{"from": from, "to": to, "limit": fmt.Sprint(CompletedLimit)},
	}, &tasks)
	if err != nil {
		return nil, fmt.Errorf("project/all/completed: %w", err)
	}
	return tasks, nil
}

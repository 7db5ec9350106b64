package ticktick

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/harrisonrobin/ticktask/pkg/model"
)

// OpenAPI is the documented, OAuth-authenticated task surface. Each call is
// followed by a sync so the mirror reflects it.
type OpenAPI struct {
	c *Client
}

// CreateTask creates a task. ProjectID defaults to the inbox.
func (o *OpenAPI) CreateTask(ctx context.Context, task model.Task) (model.Task, error) {
	if err := o.c.ready(); err != nil {
		return model.Task{}, err
	}
	if task.Title == "" {
		return model.Task{}, usageErr("task title must not be empty")
	}
	if task.ProjectID == "" {
		task.ProjectID = o.c.inboxID
	}
	var out model.Task
	if err := o.c.send(ctx, call{method: http.MethodPost, path: "task", body: task, open: true, bearer: true}, &out); err != nil {
		return model.Task{}, fmt.Errorf("open task create: %w", err)
	}
	return out, o.c.Sync(ctx)
}

// UpdateTask replaces a task's fields.
func (o *OpenAPI) UpdateTask(ctx context.Context, task model.Task) (model.Task, error) {
	if err := o.c.ready(); err != nil {
		return model.Task{}, err
	}
	if task.ID == "" || task.ProjectID == "" {
		return model.Task{}, usageErr("task id and project id are required")
	}
	var out model.Task
	path := "task/" + url.PathEscape(task.ID)
	if err := o.c.send(ctx, call{method: http.MethodPut, path: path, body: task, open: true, bearer: true}, &out); err != nil {
		return model.Task{}, fmt.Errorf("open task update: %w", err)
	}
	return out, o.c.Sync(ctx)
}

// CompleteTask marks a task done.
func (o *OpenAPI) CompleteTask(ctx context.Context, projectID, taskID string) error {
	if err := o.c.ready(); err != nil {
		return err
	}
	path := fmt.Sprintf("project/%s/task/%s/complete", url.PathEscape(projectID), url.PathEscape(taskID))
	if err := o.c.send(ctx, call{method: http.MethodPost, path: path, open: true, bearer: true}, nil); err != nil {
		return fmt.Errorf("open task complete: %w", err)
	}
	return o.c.Sync(ctx)
}

// DeleteTask deletes a task. The open API has no delete, so this goes
// through the v2 batch endpoint with the bearer token.
func (o *OpenAPI) DeleteTask(ctx context.Context, projectID, taskID string) error {
	if err := o.c.ready(); err != nil {
		return err
	}
	body := batchRequest{Delete: []taskRef{{ProjectID: projectID, TaskID: taskID}}}
	if err := o.c.send(ctx, call{method: http.MethodPost, path: "batch/task", body: body, bearer: true, accept: TaskBatchStatusPolicy}, nil); err != nil {
		return fmt.Errorf("open task delete: %w", err)
	}
	return o.c.Sync(ctx)
}

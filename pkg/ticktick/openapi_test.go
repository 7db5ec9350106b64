package ticktick

import (
	"context"
	"testing"

	"github.com/harrisonrobin/ticktask/pkg/model"
)

func TestOpenAPITaskLifecycle(t *testing.T) {
	t.Parallel()

	c, fake := newTestClient(t)
	ctx := context.Background()

	created, err := c.OpenAPI.CreateTask(ctx, model.Task{Title: "via open api"})
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	if created.ID == "" || created.ProjectID != testInbox {
		t.Errorf("CreateTask() = %+v", created)
	}
	if _, ok := c.Task(created.ID); !ok {
		t.Error("created task not mirrored")
	}

	created.Priority = model.PriorityHigh
	updated, err := c.OpenAPI.UpdateTask(ctx, created)
	if err != nil {
		t.Fatalf("UpdateTask() error = %v", err)
	}
	if updated.Priority != model.PriorityHigh {
		t.Errorf("UpdateTask() priority = %v", updated.Priority)
	}

	if err := c.OpenAPI.CompleteTask(ctx, created.ProjectID, created.ID); err != nil {
		t.Fatalf("CompleteTask() error = %v", err)
	}
	if got, _ := c.Task(created.ID); !got.Completed() {
		t.Error("task not completed")
	}

	if err := c.OpenAPI.DeleteTask(ctx, created.ProjectID, created.ID); err != nil {
		t.Fatalf("DeleteTask() error = %v", err)
	}
	if _, ok := c.Task(created.ID); ok {
		t.Error("task still mirrored after DeleteTask()")
	}
	if fake.called("POST /open/v1/task") != 1 {
		t.Error("CreateTask() did not use the open API")
	}
}

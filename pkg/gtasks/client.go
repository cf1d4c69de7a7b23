package gtasks

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/harrisonrobin/sotasks/pkg/task"
	"google.golang.org/api/option"
	"google.golang.org/api/tasks/v1"
)

// TasksClient is a Google Tasks API client scoped to one task list.
type TasksClient struct {
	srv    *tasks.Service
	listID string
	handle uuid.UUID
}

// NewTasksClient creates a client for an already resolved task list.
func NewTasksClient(srv *tasks.Service, listID string) *TasksClient {
	return &TasksClient{srv: srv, listID: listID, handle: task.NewHandle()}
}

// NewClient creates a Google Tasks client for the task list titled listName.
func NewClient(ctx context.Context, listName string, opts ...option.ClientOption) (*TasksClient, error) {
	srv, err := tasks.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Tasks client: %w", err)
	}

	var listID string
	err = srv.Tasklists.List().MaxResults(100).Pages(ctx, func(page *tasks.TaskLists) error {
		for _, item := range page.Items {
			if listID == "" && item.Title == listName {
				listID = item.Id
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve task lists: %w", err)
	}
	if listID == "" {
		return nil, fmt.Errorf("task list '%s' not found", listName)
	}

	return NewTasksClient(srv, listID), nil
}

// IdentifierKey identifies this client in a task's identifier mapping.
func (c *TasksClient) IdentifierKey() uuid.UUID {
	return c.handle
}

// ListID returns the Google Tasks list the client works on.
func (c *TasksClient) ListID() string {
	return c.listID
}

func (c *TasksClient) String() string {
	return fmt.Sprintf("google tasks list %s", c.listID)
}

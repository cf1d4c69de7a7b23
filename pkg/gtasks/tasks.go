package gtasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/harrisonrobin/sotasks/pkg/task"
	"google.golang.org/api/tasks/v1"
)

const (
	statusNeedsAction = "needsAction"
	statusCompleted   = "completed"

	pageSize = 100
)

var (
	// ErrAlreadyTracked is returned by Create for a task that already has an identifier in the list.
	ErrAlreadyTracked = errors.New("task is already in google tasks")
	// ErrNotTracked is returned by Update for a task without an identifier in the list.
	ErrNotTracked = errors.New("task does not have an identifier for google tasks")
)

// ImportTasks returns every task in the list, completed and hidden ones included.
func (c *TasksClient) ImportTasks(ctx context.Context) ([]*task.Task, error) {
	var out []*task.Task
	call := c.srv.Tasks.List(c.listID).MaxResults(pageSize).ShowCompleted(true).ShowHidden(true)
	err := call.Pages(ctx, func(page *tasks.Tasks) error {
		for _, item := range page.Items {
			t, err := c.fromGoogle(item)
			if err != nil {
				return err
			}
			out = append(out, t)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve tasks from list %s: %w", c.listID, err)
	}
	return out, nil
}

func (c *TasksClient) fromGoogle(item *tasks.Task) (*task.Task, error) {
	t, err := task.New(item.Title,
		task.WithDescription(item.Notes),
		task.WithCompleted(item.Status == statusCompleted),
	)
	if err != nil {
		return nil, err
	}
	if item.Due != "" {
		due, err := time.Parse(time.RFC3339, item.Due)
		if err != nil {
			return nil, fmt.Errorf("failed to parse due date of task %s: %w", item.Id, err)
		}
		d := civil.DateOf(due.UTC())
		t.EndDate = &d
	}
	if err := t.AddIdentifier(c, item.Id); err != nil {
		return nil, err
	}
	return t, nil
}

// toGoogle converts t for the Tasks API. Google Tasks has no start date, so
// StartDate is not sent. Due dates are date-only and carried as midnight UTC.
func toGoogle(t *task.Task) *tasks.Task {
	item := &tasks.Task{
		Title:  t.Name,
		Notes:  t.Description,
		Status: statusNeedsAction,
	}
	if t.Completed {
		item.Status = statusCompleted
	}
	if t.EndDate != nil {
		item.Due = t.EndDate.In(time.UTC).Format(time.RFC3339)
	}
	return item
}

// Create inserts each task into the list in order and records the new id on it.
// It stops at the first failure without undoing earlier inserts.
func (c *TasksClient) Create(ctx context.Context, list []*task.Task) error {
	for _, t := range list {
		if _, ok := t.Identifier(c); ok {
			return fmt.Errorf("%w: %s in %s", ErrAlreadyTracked, t, c)
		}
		created, err := c.srv.Tasks.Insert(c.listID, toGoogle(t)).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("could not create task %q: %w", t.Name, err)
		}
		if err := t.AddIdentifier(c, created.Id); err != nil {
			return err
		}
	}
	return nil
}

// Update patches each task in order. Empty fields are left untouched remotely.
func (c *TasksClient) Update(ctx context.Context, list []*task.Task) error {
	for _, t := range list {
		id, ok := t.Identifier(c)
		if !ok {
			return fmt.Errorf("%w: %s in %s", ErrNotTracked, t, c)
		}
		if _, err := c.srv.Tasks.Patch(c.listID, id, toGoogle(t)).Context(ctx).Do(); err != nil {
			return fmt.Errorf("could not update task %s: %w", id, err)
		}
	}
	return nil
}

// DeleteTask removes a task from the list by its Google Tasks id.
func (c *TasksClient) DeleteTask(ctx context.Context, id string) error {
	return c.srv.Tasks.Delete(c.listID, id).Context(ctx).Do()
}

package asana

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/harrisonrobin/sotasks/pkg/task"
)

const pageLimit = 100

// fieldMapping pairs an Asana task field with a Task field.
type fieldMapping struct {
	remote string
	local  string
	get    func(*task.Task) any
	set    func(*task.Task, json.RawMessage) error
}

// staticMapping holds the fields copied in both directions without conversion
// beyond date formatting.
var staticMapping = []fieldMapping{
	{
		remote: "name", local: "name",
		get: func(t *task.Task) any { return t.Name },
		set: func(t *task.Task, raw json.RawMessage) error { return json.Unmarshal(raw, &t.Name) },
	},
	{
		remote: "notes", local: "description",
		get: func(t *task.Task) any { return t.Description },
		set: func(t *task.Task, raw json.RawMessage) error { return json.Unmarshal(raw, &t.Description) },
	},
	{
		remote: "start_on", local: "start_date",
		get: func(t *task.Task) any { return t.StartDate },
		set: func(t *task.Task, raw json.RawMessage) error { return setDate(&t.StartDate, raw) },
	},
	{
		remote: "due_on", local: "end_date",
		get: func(t *task.Task) any { return t.EndDate },
		set: func(t *task.Task, raw json.RawMessage) error { return setDate(&t.EndDate, raw) },
	},
	{
		remote: "completed", local: "completed",
		get: func(t *task.Task) any { return t.Completed },
		set: func(t *task.Task, raw json.RawMessage) error { return json.Unmarshal(raw, &t.Completed) },
	},
}

// timeMapping lists the time-of-day fields. They are requested on import but
// not applied to Task dates yet.
var timeMapping = []fieldMapping{
	{remote: "start_at", local: "start_date"},
	{remote: "due_at", local: "end_date"},
}

func setDate(dst **civil.Date, raw json.RawMessage) error {
	var s *string
	if err := json.Unmarshal(raw, &s); err != nil {
		return err
	}
	if s == nil || *s == "" {
		return nil
	}
	d, err := civil.ParseDate(*s)
	if err != nil {
		return err
	}
	*dst = &d
	return nil
}

func optFields() []string {
	fields := make([]string, 0, len(staticMapping)+len(timeMapping))
	for _, m := range staticMapping {
		fields = append(fields, m.remote)
	}
	for _, m := range timeMapping {
		fields = append(fields, m.remote)
	}
	return fields
}

type taskPage struct {
	Data     []map[string]json.RawMessage `json:"data"`
	NextPage *struct {
		Offset string `json:"offset"`
	} `json:"next_page"`
}

// ImportTasks returns every task in the project, across all pages, in API order.
// Each task carries its Asana gid under this client.
func (c *Client) ImportTasks(ctx context.Context) ([]*task.Task, error) {
	query := url.Values{
		"project":    {c.projectID},
		"opt_fields": {strings.Join(optFields(), ",")},
		"limit":      {strconv.Itoa(pageLimit)},
	}

	var tasks []*task.Task
	for {
		var page taskPage
		if err := c.do(ctx, http.MethodGet, "/tasks", query, nil, &page); err != nil {
			return nil, fmt.Errorf("unable to retrieve tasks from project %s: %w", c.projectID, err)
		}
		for _, record := range page.Data {
			t, err := c.fromAsana(record)
			if err != nil {
				return nil, err
			}
			tasks = append(tasks, t)
		}
		if page.NextPage == nil || page.NextPage.Offset == "" {
			break
		}
		query.Set("offset", page.NextPage.Offset)
	}
	return tasks, nil
}

func (c *Client) fromAsana(record map[string]json.RawMessage) (*task.Task, error) {
	t, err := task.New("")
	if err != nil {
		return nil, err
	}
	for _, m := range staticMapping {
		raw, ok := record[m.remote]
		if !ok {
			continue
		}
		if err := m.set(t, raw); err != nil {
			return nil, fmt.Errorf("failed to map asana field %s to %s: %w", m.remote, m.local, err)
		}
	}

	var gid string
	if err := json.Unmarshal(record["gid"], &gid); err != nil || gid == "" {
		return nil, fmt.Errorf("asana task %q has no gid", t.Name)
	}
	if err := t.AddIdentifier(c, gid); err != nil {
		return nil, err
	}
	return t, nil
}

// toAsana translates t into Asana field names. Absent values are kept as nil.
func (c *Client) toAsana(t *task.Task) map[string]any {
	fields := make(map[string]any, len(staticMapping))
	for _, m := range staticMapping {
		fields[m.remote] = isoDate(m.get(t))
	}
	// Asana rejects a start date without a due date.
	if fields["start_on"] != nil && fields["due_on"] == nil {
		c.logger.Printf("Warning: Asana requires both a start and a due date. Dropping start_on from %q to resolve.", t.Name)
		delete(fields, "start_on")
	}
	return fields
}

// isoDate formats dates as YYYY-MM-DD and passes other values through.
func isoDate(v any) any {
	switch d := v.(type) {
	case *civil.Date:
		if d == nil {
			return nil
		}
		return d.String()
	case civil.Date:
		return d.String()
	case time.Time:
		return civil.DateOf(d).String()
	default:
		return v
	}
}

// Create adds each task to the project in order and records the new gid on it.
// It stops at the first failure; tasks created before it stay created.
func (c *Client) Create(ctx context.Context, tasks []*task.Task) error {
	for _, t := range tasks {
		if err := c.createOne(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) createOne(ctx context.Context, t *task.Task) error {
	if _, ok := t.Identifier(c); ok {
		return fmt.Errorf("%w: %s in %s", ErrAlreadyTracked, t, c)
	}

	fields := c.toAsana(t)
	fields["projects"] = []string{c.projectID}

	var resp struct {
		Data struct {
			GID string `json:"gid"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/tasks", nil, fields, &resp); err != nil {
		return fmt.Errorf("could not create task %q: %w", t.Name, err)
	}
	if resp.Data.GID == "" {
		return fmt.Errorf("asana created task %q without a gid", t.Name)
	}
	return t.AddIdentifier(c, resp.Data.GID)
}

// Update sends the present fields of each task to Asana in order.
// It stops at the first failure; tasks updated before it stay updated.
func (c *Client) Update(ctx context.Context, tasks []*task.Task) error {
	for _, t := range tasks {
		if err := c.updateOne(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) updateOne(ctx context.Context, t *task.Task) error {
	gid, ok := t.Identifier(c)
	if !ok {
		return fmt.Errorf("%w: %s in %s", ErrNotTracked, t, c)
	}

	fields := c.toAsana(t)
	for k, v := range fields {
		if v == nil {
			delete(fields, k)
		}
	}

	if err := c.do(ctx, http.MethodPut, "/tasks/"+url.PathEscape(gid), nil, fields, nil); err != nil {
		return fmt.Errorf("could not update task %s: %w", gid, err)
	}
	return nil
}

// Package taskjson reads and writes tasks as a stream of JSON objects.
package taskjson

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/harrisonrobin/sotasks/pkg/task"
)

// Record is the JSON form of a task. Dates may be in any layout task.ParseDate accepts.
type Record struct {
	Name                 string         `json:"name"`
	Description          string         `json:"description,omitempty"`
	StartDate            string         `json:"start_date,omitempty"`
	EndDate              string         `json:"end_date,omitempty"`
	Completed            bool           `json:"completed,omitempty"`
	AdditionalProperties map[string]any `json:"additional_properties,omitempty"`
}

// Task builds a task.Task from the record.
func (r Record) Task() (*task.Task, error) {
	opts := []task.Option{
		task.WithDescription(r.Description),
		task.WithCompleted(r.Completed),
		task.WithAdditionalProperties(r.AdditionalProperties),
	}
	if r.StartDate != "" {
		opts = append(opts, task.WithStartDateString(r.StartDate))
	}
	if r.EndDate != "" {
		opts = append(opts, task.WithEndDateString(r.EndDate))
	}
	return task.New(r.Name, opts...)
}

// FromTask converts t to its JSON form.
func FromTask(t *task.Task) Record {
	r := Record{
		Name:                 t.Name,
		Description:          t.Description,
		Completed:            t.Completed,
		AdditionalProperties: t.AdditionalProperties,
	}
	if t.StartDate != nil {
		r.StartDate = t.StartDate.String()
	}
	if t.EndDate != nil {
		r.EndDate = t.EndDate.String()
	}
	return r
}

// ParseTasks decodes consecutive JSON objects from r (one per line, or a
// single stream of whitespace separated objects).
func ParseTasks(r io.Reader) ([]*task.Task, error) {
	var tasks []*task.Task
	decoder := json.NewDecoder(r)
	for {
		var rec Record
		if err := decoder.Decode(&rec); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("failed to decode task json: %w", err)
		}
		t, err := rec.Task()
		if err != nil {
			return nil, fmt.Errorf("invalid task %q: %w", rec.Name, err)
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// WriteTasks encodes tasks to w, one JSON object per line.
func WriteTasks(w io.Writer, tasks []*task.Task) error {
	encoder := json.NewEncoder(w)
	for _, t := range tasks {
		if err := encoder.Encode(FromTask(t)); err != nil {
			return err
		}
	}
	return nil
}

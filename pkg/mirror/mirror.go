// Package mirror copies the tasks of one system into another and keeps the
// copies up to date across runs.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/harrisonrobin/sotasks/pkg/task"
	"google.golang.org/api/googleapi"
)

// Source is a system tasks are read from.
type Source interface {
	task.System
	ImportTasks(ctx context.Context) ([]*task.Task, error)
}

// Destination is a system tasks are written to.
type Destination interface {
	task.System
	Create(ctx context.Context, tasks []*task.Task) error
	Update(ctx context.Context, tasks []*task.Task) error
	DeleteTask(ctx context.Context, id string) error
}

// Index maps source identifiers to destination identifiers between runs.
type Index interface {
	Get(sourceID string) string
	Set(sourceID, destID string)
	Remove(sourceID string)
	SourceIDs() []string
}

// Options controls a Run.
type Options struct {
	// Prune deletes destination tasks whose source task no longer exists.
	Prune bool
}

// Result counts the destination tasks a Run touched.
type Result struct {
	Created int
	Updated int
	Deleted int
}

// Run mirrors every task of src into dst. Tasks already in idx are updated,
// the rest are created and added to idx. An indexed task that no longer
// exists in dst is created again. Work done before a failure is kept
// in idx so the next run does not create duplicates.
func Run(ctx context.Context, src Source, dst Destination, idx Index, opts Options) (Result, error) {
	var res Result

	tasks, err := src.ImportTasks(ctx)
	if err != nil {
		return res, err
	}

	seen := make(map[string]bool, len(tasks))
	var toCreate, toUpdate []*task.Task
	for _, t := range tasks {
		srcID, ok := t.Identifier(src)
		if !ok {
			log.Printf("Warning: skipping %s without a source identifier", t)
			continue
		}
		seen[srcID] = true
		if destID := idx.Get(srcID); destID != "" {
			if err := t.AddIdentifier(dst, destID); err != nil {
				return res, err
			}
			toUpdate = append(toUpdate, t)
		} else {
			toCreate = append(toCreate, t)
		}
	}

	for _, t := range toUpdate {
		err := dst.Update(ctx, []*task.Task{t})
		if err == nil {
			res.Updated++
			continue
		}
		if !isNotFound(err) {
			return res, fmt.Errorf("mirror update: %w", err)
		}
		// The destination task was deleted remotely, mirror it again.
		srcID, _ := t.Identifier(src)
		log.Printf("Warning: mirrored task for %s is gone, creating it again", srcID)
		idx.Remove(srcID)
		fresh, err := detach(t, src)
		if err != nil {
			return res, err
		}
		toCreate = append(toCreate, fresh)
	}

	createErr := dst.Create(ctx, toCreate)
	for _, t := range toCreate {
		destID, ok := t.Identifier(dst)
		if !ok {
			continue
		}
		srcID, _ := t.Identifier(src)
		idx.Set(srcID, destID)
		res.Created++
	}
	if createErr != nil {
		return res, fmt.Errorf("mirror create: %w", createErr)
	}

	if !opts.Prune {
		return res, nil
	}
	for _, srcID := range idx.SourceIDs() {
		if seen[srcID] {
			continue
		}
		if err := dst.DeleteTask(ctx, idx.Get(srcID)); err != nil && !isNotFound(err) {
			return res, fmt.Errorf("mirror prune: %w", err)
		}
		idx.Remove(srcID)
		res.Deleted++
	}
	return res, nil
}

// isNotFound reports whether err is a 404 from the destination API.
func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}

// detach copies t keeping only its identifier in src.
func detach(t *task.Task, src task.System) (*task.Task, error) {
	srcID, _ := t.Identifier(src)
	fresh, err := task.New(t.Name,
		task.WithDescription(t.Description),
		task.WithCompleted(t.Completed),
		task.WithAdditionalProperties(t.AdditionalProperties),
		task.WithIdentifiers(map[uuid.UUID]string{src.IdentifierKey(): srcID}),
	)
	if err != nil {
		return nil, err
	}
	fresh.StartDate = t.StartDate
	fresh.EndDate = t.EndDate
	return fresh, nil
}

package task

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/araddon/dateparse"
	"github.com/google/uuid"
)

var (
	// ErrDuplicateIdentifier is returned when a system already has an identifier on a task.
	ErrDuplicateIdentifier = errors.New("identifier already present for system")
	// ErrDateParse is returned when a date string cannot be interpreted as a date.
	ErrDateParse = errors.New("could not parse date")
)

// System is a remote destination a task can be published to.
// Each adapter instance returns its own handle, so two adapters with the
// same configuration are still distinct systems.
type System interface {
	IdentifierKey() uuid.UUID
}

// NewHandle returns a fresh handle for a System implementation.
func NewHandle() uuid.UUID {
	return uuid.New()
}

// Task is the canonical in-memory task shared between remote systems.
type Task struct {
	Name        string
	Description string
	StartDate   *civil.Date
	EndDate     *civil.Date
	Completed   bool
	// Free-form extension bag, never sent to a remote system.
	AdditionalProperties map[string]any

	identifiers map[uuid.UUID]string
}

// Option configures a Task built by New.
type Option func(*Task) error

// WithDescription sets the task description.
func WithDescription(description string) Option {
	return func(t *Task) error {
		t.Description = description
		return nil
	}
}

// WithStartDate sets the start date.
func WithStartDate(d civil.Date) Option {
	return func(t *Task) error {
		t.StartDate = &d
		return nil
	}
}

// WithEndDate sets the end date.
func WithEndDate(d civil.Date) Option {
	return func(t *Task) error {
		t.EndDate = &d
		return nil
	}
}

// WithStartDateString parses s with free-form date parsing and keeps only the calendar date.
func WithStartDateString(s string) Option {
	return func(t *Task) error {
		d, err := ParseDate(s)
		if err != nil {
			return err
		}
		t.StartDate = &d
		return nil
	}
}

// WithEndDateString parses s with free-form date parsing and keeps only the calendar date.
func WithEndDateString(s string) Option {
	return func(t *Task) error {
		d, err := ParseDate(s)
		if err != nil {
			return err
		}
		t.EndDate = &d
		return nil
	}
}

// WithCompleted sets the completion flag.
func WithCompleted(completed bool) Option {
	return func(t *Task) error {
		t.Completed = completed
		return nil
	}
}

// WithAdditionalProperties copies props into the task.
func WithAdditionalProperties(props map[string]any) Option {
	return func(t *Task) error {
		for k, v := range props {
			t.AdditionalProperties[k] = v
		}
		return nil
	}
}

// WithIdentifiers copies ids into the task's identifier mapping.
func WithIdentifiers(ids map[uuid.UUID]string) Option {
	return func(t *Task) error {
		for k, v := range ids {
			t.identifiers[k] = v
		}
		return nil
	}
}

// New builds a Task. It fails only when a date string cannot be parsed.
func New(name string, opts ...Option) (*Task, error) {
	t := &Task{
		Name:                 name,
		AdditionalProperties: make(map[string]any),
		identifiers:          make(map[uuid.UUID]string),
	}
	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// ParseDate interprets s as a date in any common layout and drops the time of day.
func ParseDate(s string) (civil.Date, error) {
	parsed, err := dateparse.ParseAny(strings.TrimSpace(s))
	if err != nil {
		return civil.Date{}, fmt.Errorf("%w %q: %v", ErrDateParse, s, err)
	}
	return civil.DateOf(parsed), nil
}

// Complete marks the task as completed.
func (t *Task) Complete() {
	t.Completed = true
}

// AddIdentifier records id as the task's identifier in system.
// An existing identifier is never overwritten.
func (t *Task) AddIdentifier(system System, id string) error {
	key := system.IdentifierKey()
	if _, exists := t.identifiers[key]; exists {
		return fmt.Errorf("%w %s", ErrDuplicateIdentifier, key)
	}
	if t.identifiers == nil {
		t.identifiers = make(map[uuid.UUID]string)
	}
	t.identifiers[key] = id
	return nil
}

// Identifier returns the task's identifier in system, if any.
func (t *Task) Identifier(system System) (string, bool) {
	id, ok := t.identifiers[system.IdentifierKey()]
	return id, ok
}

// Identifiers returns a copy of the identifier mapping.
func (t *Task) Identifiers() map[uuid.UUID]string {
	ids := make(map[uuid.UUID]string, len(t.identifiers))
	for k, v := range t.identifiers {
		ids[k] = v
	}
	return ids
}

func (t *Task) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "<Task name=%q", t.Name)
	if t.Description != "" {
		fmt.Fprintf(&b, " description=%q", t.Description)
	}
	if t.StartDate != nil {
		fmt.Fprintf(&b, " start=%s", t.StartDate)
	}
	if t.EndDate != nil {
		fmt.Fprintf(&b, " end=%s", t.EndDate)
	}
	fmt.Fprintf(&b, " completed=%t", t.Completed)
	if len(t.identifiers) > 0 {
		ids := make([]string, 0, len(t.identifiers))
		for k, v := range t.identifiers {
			ids = append(ids, fmt.Sprintf("%s:%s", k, v))
		}
		sort.Strings(ids)
		fmt.Fprintf(&b, " identifiers=[%s]", strings.Join(ids, " "))
	}
	b.WriteString(">")
	return b.String()
}

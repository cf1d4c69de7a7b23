package taskjson

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/harrisonrobin/sotasks/pkg/task"
)

func TestParseTasks(t *testing.T) {
	input := `{"name": "Buy milk", "description": "Don't forget almond milk", "end_date": "2015-02-03"}
{"name": "File taxes", "start_date": "2015-02-01", "end_date": "February 3, 2015", "completed": true,
 "additional_properties": {"priority": "H"}}`

	tasks, err := ParseTasks(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseTasks failed: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("Expected 2 tasks, got %d", len(tasks))
	}

	want := civil.Date{Year: 2015, Month: time.February, Day: 3}
	if tasks[0].Name != "Buy milk" {
		t.Errorf("Expected Name 'Buy milk', got '%s'", tasks[0].Name)
	}
	if tasks[0].EndDate == nil || *tasks[0].EndDate != want {
		t.Errorf("Expected end date %s, got %v", want, tasks[0].EndDate)
	}
	if tasks[0].StartDate != nil {
		t.Errorf("Expected no start date, got %v", tasks[0].StartDate)
	}
	if !tasks[1].Completed {
		t.Error("Expected second task to be completed")
	}
	if tasks[1].EndDate == nil || *tasks[1].EndDate != want {
		t.Errorf("Expected free-form end date %s, got %v", want, tasks[1].EndDate)
	}
	if tasks[1].AdditionalProperties["priority"] != "H" {
		t.Errorf("Expected priority H, got %v", tasks[1].AdditionalProperties["priority"])
	}
}

func TestParseTasksBadDate(t *testing.T) {
	_, err := ParseTasks(strings.NewReader(`{"name": "Bad", "end_date": "2015-13-45"}`))
	if !errors.Is(err, task.ErrDateParse) {
		t.Fatalf("Expected ErrDateParse, got %v", err)
	}
}

func TestParseTasksBadJSON(t *testing.T) {
	if _, err := ParseTasks(strings.NewReader(`{"name": `)); err == nil {
		t.Fatal("Expected an error for truncated json")
	}
}

func TestWriteTasks(t *testing.T) {
	tk, err := task.New("Write me", task.WithEndDateString("2015-02-03"))
	if err != nil {
		t.Fatalf("task.New failed: %v", err)
	}
	var buf bytes.Buffer
	if err := WriteTasks(&buf, []*task.Task{tk}); err != nil {
		t.Fatalf("WriteTasks failed: %v", err)
	}
	got := strings.TrimSpace(buf.String())
	want := `{"name":"Write me","end_date":"2015-02-03"}`
	if got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}
}

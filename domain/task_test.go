package domain

import (
	"errors"
	"testing"
	"time"
)

var testNow = time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)

func TestNewTaskDefaults(t *testing.T) {
	task, err := NewTask(TaskInput{Title: "  Write spec  "}, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Title != "Write spec" {
		t.Fatalf("expected trimmed title, got %q", task.Title)
	}
	if task.Priority != PriorityMedium {
		t.Fatalf("expected default priority medium, got %q", task.Priority)
	}
	if task.Category != CategoryPersonal {
		t.Fatalf("expected default category personal, got %q", task.Category)
	}
	if task.Status != StatusTodo {
		t.Fatalf("expected default status todo, got %q", task.Status)
	}
	if task.DueDate != nil {
		t.Fatalf("expected no due date, got %v", task.DueDate)
	}
	if !task.CreatedAt.Equal(testNow) || !task.UpdatedAt.Equal(testNow) {
		t.Fatalf("expected timestamps set to now, got created=%v updated=%v", task.CreatedAt, task.UpdatedAt)
	}
}

func TestNewTaskCoercesUnknownEnums(t *testing.T) {
	task, err := NewTask(TaskInput{Title: "t", Priority: "urgent", Category: "work", Status: "blocked"}, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Priority != PriorityMedium || task.Category != CategoryPersonal || task.Status != StatusTodo {
		t.Fatalf("expected unknown enums coerced to defaults, got %q/%q/%q", task.Priority, task.Category, task.Status)
	}
}

func TestNewTaskEmptyTitle(t *testing.T) {
	for _, title := range []string{"", "   ", "\t\n"} {
		if _, err := NewTask(TaskInput{Title: title}, testNow); !errors.Is(err, ErrEmptyTitle) {
			t.Fatalf("title %q: expected ErrEmptyTitle, got %v", title, err)
		}
	}
}

func TestNewTaskDueDateNormalized(t *testing.T) {
	task, err := NewTask(TaskInput{Title: "t", DueDate: "2025-03-20T18:45:00Z"}, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC)
	if task.DueDate == nil || !task.DueDate.Equal(want) {
		t.Fatalf("expected due date normalized to %v, got %v", want, task.DueDate)
	}
}

func TestNewTaskInvalidDueDate(t *testing.T) {
	if _, err := NewTask(TaskInput{Title: "t", DueDate: "not-a-date"}, testNow); !errors.Is(err, ErrInvalidDueDate) {
		t.Fatalf("expected ErrInvalidDueDate, got %v", err)
	}
	if !IsValidation(ErrInvalidDueDate) {
		t.Fatal("expected date error to classify as validation")
	}
}

func TestStatusNext(t *testing.T) {
	if got := StatusTodo.Next(); got != StatusDoing {
		t.Fatalf("expected todo->doing, got %q", got)
	}
	if got := StatusDoing.Next(); got != StatusDone {
		t.Fatalf("expected doing->done, got %q", got)
	}
	if got := StatusDone.Next(); got != StatusDone {
		t.Fatalf("expected done to be terminal, got %q", got)
	}
}

func TestOverdue(t *testing.T) {
	yesterday := Midnight(testNow).Add(-24 * time.Hour)
	task := Task{Title: "t", Status: StatusDoing, DueDate: &yesterday}
	if !task.Overdue(testNow) {
		t.Fatal("expected past-due doing task to be overdue")
	}
	task.Status = StatusDone
	if task.Overdue(testNow) {
		t.Fatal("done task must never be overdue")
	}
	task.Status = StatusTodo
	task.DueDate = nil
	if task.Overdue(testNow) {
		t.Fatal("task without due date must never be overdue")
	}
	today := Midnight(testNow)
	task.DueDate = &today
	if task.Overdue(testNow) {
		t.Fatal("task due today is not overdue")
	}
}

func TestParsePatchAppliesFields(t *testing.T) {
	body := []byte(`{"title":"New title","status":"doing","dueDate":"2025-04-01","ignored":"x"}`)
	p, err := ParsePatch(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	task := Task{Title: "Old", Status: StatusTodo, CreatedAt: testNow, UpdatedAt: testNow}
	later := testNow.Add(time.Minute)
	got := task.Apply(p, later)
	if got.Title != "New title" || got.Status != StatusDoing {
		t.Fatalf("patch not applied: %+v", got)
	}
	if got.DueDate == nil || !got.DueDate.Equal(time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected due date: %v", got.DueDate)
	}
	if !got.UpdatedAt.Equal(later) {
		t.Fatalf("expected UpdatedAt refreshed, got %v", got.UpdatedAt)
	}
	if !got.CreatedAt.Equal(testNow) {
		t.Fatalf("CreatedAt must not change, got %v", got.CreatedAt)
	}
}

func TestParsePatchRejectsInvalidValues(t *testing.T) {
	cases := map[string]error{
		`{"status":"paused"}`:     ErrInvalidStatus,
		`{"priority":"urgent"}`:   ErrInvalidPriority,
		`{"category":"shopping"}`: ErrInvalidCategory,
		`{"title":"  "}`:          ErrEmptyTitle,
		`{"dueDate":"soon"}`:      ErrInvalidDueDate,
	}
	for body, want := range cases {
		if _, err := ParsePatch([]byte(body)); !errors.Is(err, want) {
			t.Fatalf("body %s: expected %v, got %v", body, want, err)
		}
	}
}

func TestParsePatchClearsDueDate(t *testing.T) {
	p, err := ParsePatch([]byte(`{"dueDate":null}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.ClearDue {
		t.Fatal("expected null dueDate to clear")
	}
	due := Midnight(testNow)
	task := Task{Title: "t", DueDate: &due}
	if got := task.Apply(p, testNow); got.DueDate != nil {
		t.Fatalf("expected due date cleared, got %v", got.DueDate)
	}
}

func TestParsePatchPartialMergeLeavesOtherFields(t *testing.T) {
	p, err := ParsePatch([]byte(`{"description":"more detail"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	task := Task{Title: "keep", Description: "old", Priority: PriorityHigh, Status: StatusDoing}
	got := task.Apply(p, testNow)
	if got.Description != "more detail" {
		t.Fatalf("expected description updated, got %q", got.Description)
	}
	if got.Title != "keep" || got.Priority != PriorityHigh || got.Status != StatusDoing {
		t.Fatalf("unrelated fields changed: %+v", got)
	}
}

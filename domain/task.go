package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status describes where a task sits in the three-column workflow.
type Status string

const (
	StatusTodo  Status = "todo"
	StatusDoing Status = "doing"
	StatusDone  Status = "done"
)

// Priority of a task.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Category groups tasks by area of life.
type Category string

const (
	CategoryPersonal     Category = "personal"
	CategoryProfessional Category = "professional"
	CategoryAcademics    Category = "academics"
)

// ErrValidation is the common sentinel wrapped by every validation error so
// callers can classify failures with a single errors.Is check.
var ErrValidation = errors.New("validation failed")

var (
	ErrEmptyTitle      = fmt.Errorf("%w: title is required", ErrValidation)
	ErrInvalidDueDate  = fmt.Errorf("%w: dueDate is not a valid date", ErrValidation)
	ErrInvalidStatus   = fmt.Errorf("%w: invalid status", ErrValidation)
	ErrInvalidPriority = fmt.Errorf("%w: invalid priority", ErrValidation)
	ErrInvalidCategory = fmt.Errorf("%w: invalid category", ErrValidation)
	ErrInvalidBody     = fmt.Errorf("%w: invalid request body", ErrValidation)
)

// ErrNotFound is returned by stores when no task has the requested ID.
var ErrNotFound = errors.New("task not found")

// IsValidation reports whether err belongs to the validation taxonomy.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// Task is the sole entity of the system.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    Priority   `json:"priority"`
	Category    Category   `json:"category"`
	DueDate     *time.Time `json:"dueDate"`
	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// TaskInput carries the fields a caller may supply when creating a task.
type TaskInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	Category    string `json:"category"`
	Status      string `json:"status"`
	DueDate     string `json:"dueDate"`
}

func (s Status) valid() bool {
	return s == StatusTodo || s == StatusDoing || s == StatusDone
}

func (p Priority) valid() bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

func (c Category) valid() bool {
	return c == CategoryPersonal || c == CategoryProfessional || c == CategoryAcademics
}

// Next returns the status one advance step forward. Done is terminal and
// returns itself.
func (s Status) Next() Status {
	switch s {
	case StatusTodo:
		return StatusDoing
	case StatusDoing:
		return StatusDone
	default:
		return s
	}
}

// Midnight truncates t to the start of its UTC day.
func Midnight(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDueDate accepts a plain calendar date or an RFC 3339 timestamp and
// normalizes it to midnight UTC. An empty string means no due date.
func ParseDueDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, ErrInvalidDueDate
		}
	}
	day := Midnight(t)
	return &day, nil
}

// NewTask validates and normalizes raw input into a Task. Unknown enum values
// coerce to their defaults; the ID is left empty for the store to assign.
func NewTask(in TaskInput, now time.Time) (Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Task{}, ErrEmptyTitle
	}
	due, err := ParseDueDate(in.DueDate)
	if err != nil {
		return Task{}, err
	}
	t := Task{
		Title:       title,
		Description: in.Description,
		Priority:    Priority(in.Priority),
		Category:    Category(in.Category),
		DueDate:     due,
		Status:      Status(in.Status),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if !t.Priority.valid() {
		t.Priority = PriorityMedium
	}
	if !t.Category.valid() {
		t.Category = CategoryPersonal
	}
	if !t.Status.valid() {
		t.Status = StatusTodo
	}
	return t, nil
}

// Overdue reports whether the task's due date has passed. Done tasks are
// never overdue regardless of their due date.
func (t Task) Overdue(now time.Time) bool {
	if t.DueDate == nil || t.Status == StatusDone {
		return false
	}
	return t.DueDate.Before(Midnight(now))
}

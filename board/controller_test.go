package board

import (
	"context"
	"errors"
	"testing"
	"time"

	"taskboard-api/domain"
	"taskboard-api/storage"
)

var testNow = time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)

func newController(t *testing.T) *Controller {
	t.Helper()
	c := New(storage.NewMemory())
	c.now = func() time.Time { return testNow }
	return c
}

func TestLifecycleAdvanceScenario(t *testing.T) {
	ctx := context.Background()
	c := newController(t)

	created, err := c.AddTask(ctx, domain.TaskInput{
		Title:    "Write spec",
		Priority: "high",
		Category: "professional",
	})
	if err != nil {
		t.Fatalf("add task: %v", err)
	}

	b := c.Board()
	if b.Counts.Todo != 1 || b.Counts.Doing != 0 || b.Counts.Done != 0 {
		t.Fatalf("expected task in todo, counts %+v", b.Counts)
	}
	if len(b.Todo) != 1 || b.Todo[0].ID != created.ID {
		t.Fatalf("expected created task in todo bucket, got %+v", b.Todo)
	}

	if _, err := c.Advance(ctx, created.ID); err != nil {
		t.Fatalf("advance: %v", err)
	}
	b = c.Board()
	if b.Counts.Todo != 0 || b.Counts.Doing != 1 {
		t.Fatalf("expected task moved to doing, counts %+v", b.Counts)
	}

	if _, err := c.Advance(ctx, created.ID); err != nil {
		t.Fatalf("advance: %v", err)
	}
	b = c.Board()
	if b.Counts.Doing != 0 || b.Counts.Done != 1 {
		t.Fatalf("expected task moved to done, counts %+v", b.Counts)
	}

	// Done is terminal: a further advance is a no-op.
	final, err := c.Advance(ctx, created.ID)
	if err != nil {
		t.Fatalf("advance past done: %v", err)
	}
	if final.Status != domain.StatusDone {
		t.Fatalf("expected status to stay done, got %q", final.Status)
	}
	if b := c.Board(); b.Counts.Done != 1 {
		t.Fatalf("expected counts unchanged, got %+v", b.Counts)
	}
}

func TestSearchScenario(t *testing.T) {
	ctx := context.Background()
	c := newController(t)

	for _, title := range []string{"Write spec", "Buy milk"} {
		if _, err := c.AddTask(ctx, domain.TaskInput{Title: title}); err != nil {
			t.Fatalf("add %q: %v", title, err)
		}
	}
	c.SetSearch("spec")
	if err := c.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	b := c.Board()
	if b.Counts.Todo != 1 || b.Todo[0].Title != "Write spec" {
		t.Fatalf("expected only the matching task, got %+v", b.Todo)
	}
}

func TestSidebarFilterMapping(t *testing.T) {
	cases := map[string]domain.Filter{
		"all":          {},
		"":             {},
		"high":         {Priority: "high"},
		"low":          {Priority: "low"},
		"today":        {DateFilter: "today"},
		"previous":     {DateFilter: "previous"},
		"upcoming":     {DateFilter: "upcoming"},
		"professional": {Category: "professional"},
		"academics":    {Category: "academics"},
		"bogus":        {},
	}
	for name, want := range cases {
		got := State{ActiveFilter: name}.Filter()
		if got != want {
			t.Fatalf("selection %q: expected %+v, got %+v", name, want, got)
		}
	}
	withSearch := State{ActiveFilter: "high", Search: "x"}.Filter()
	if withSearch.Priority != "high" || withSearch.Search != "x" {
		t.Fatalf("search must combine with the sidebar filter, got %+v", withSearch)
	}
}

func TestSetFilterRecomputes(t *testing.T) {
	ctx := context.Background()
	c := newController(t)
	if _, err := c.AddTask(ctx, domain.TaskInput{Title: "a", Priority: "high"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := c.AddTask(ctx, domain.TaskInput{Title: "b", Priority: "low"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := c.SetFilter(ctx, "high"); err != nil {
		t.Fatalf("set filter: %v", err)
	}
	if b := c.Board(); b.Counts.Todo != 1 || b.Todo[0].Title != "a" {
		t.Fatalf("expected only high-priority task, got %+v", b.Todo)
	}
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	ctx := context.Background()
	c := newController(t)
	created, err := c.AddTask(ctx, domain.TaskInput{Title: "keep me"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := c.DeleteTask(ctx, created.ID, false); !errors.Is(err, ErrDeleteNotConfirmed) {
		t.Fatalf("expected ErrDeleteNotConfirmed, got %v", err)
	}
	if b := c.Board(); b.Counts.Todo != 1 {
		t.Fatalf("unconfirmed delete must not mutate, counts %+v", b.Counts)
	}

	if err := c.DeleteTask(ctx, created.ID, true); err != nil {
		t.Fatalf("confirmed delete: %v", err)
	}
	if b := c.Board(); b.Counts.Todo != 0 {
		t.Fatalf("expected task removed, counts %+v", b.Counts)
	}
}

func TestDeleteMissingLeavesCountsUnchanged(t *testing.T) {
	ctx := context.Background()
	c := newController(t)
	if _, err := c.AddTask(ctx, domain.TaskInput{Title: "survivor"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	before := c.Board().Counts

	if err := c.DeleteTask(ctx, "no-such-id", true); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if after := c.Board().Counts; after != before {
		t.Fatalf("failed delete changed counts: %+v -> %+v", before, after)
	}
}

func TestAddTaskValidationDoesNotMutate(t *testing.T) {
	ctx := context.Background()
	c := newController(t)
	if _, err := c.AddTask(ctx, domain.TaskInput{Title: "   "}); !errors.Is(err, domain.ErrEmptyTitle) {
		t.Fatalf("expected ErrEmptyTitle, got %v", err)
	}
	if b := c.Board(); b.Counts != (domain.Counts{}) {
		t.Fatalf("validation failure must not mutate, counts %+v", b.Counts)
	}
}

func TestEditTaskOverridesStatus(t *testing.T) {
	ctx := context.Background()
	c := newController(t)
	created, err := c.AddTask(ctx, domain.TaskInput{Title: "jump"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	// A direct edit may set any valid status, bypassing the advance machine.
	done := domain.StatusDone
	if _, err := c.EditTask(ctx, created.ID, domain.Patch{Status: &done}); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if b := c.Board(); b.Counts.Done != 1 || b.Counts.Todo != 0 {
		t.Fatalf("expected task jumped to done, counts %+v", b.Counts)
	}
}

func TestEditingStateTracking(t *testing.T) {
	ctx := context.Background()
	c := newController(t)
	created, err := c.AddTask(ctx, domain.TaskInput{Title: "edit me"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	c.StartEditing(created.ID)
	if got := c.State().EditingID; got != created.ID {
		t.Fatalf("expected editing id %q, got %q", created.ID, got)
	}
	title := "edited"
	if _, err := c.EditTask(ctx, created.ID, domain.Patch{Title: &title}); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if got := c.State().EditingID; got != "" {
		t.Fatalf("expected editing id cleared after edit, got %q", got)
	}
}

type failingStore struct {
	TaskStore
	fail bool
}

func (f *failingStore) List(ctx context.Context, filter domain.Filter) ([]domain.Task, error) {
	if f.fail {
		return nil, errors.New("store down")
	}
	return f.TaskStore.List(ctx, filter)
}

func TestRefreshFailureKeepsPreviousBoard(t *testing.T) {
	ctx := context.Background()
	fs := &failingStore{TaskStore: storage.NewMemory()}
	c := New(fs)
	if _, err := c.AddTask(ctx, domain.TaskInput{Title: "visible"}); err != nil {
		t.Fatalf("add: %v", err)
	}

	fs.fail = true
	if err := c.Refresh(ctx); err == nil {
		t.Fatal("expected refresh error")
	}
	if b := c.Board(); b.Counts.Todo != 1 {
		t.Fatalf("failed refresh must keep the previous view, counts %+v", b.Counts)
	}
}

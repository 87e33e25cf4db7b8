// Package board drives the task board in standalone mode: it owns the UI
// state, orchestrates task lifecycle operations against a store handle and
// recomputes the three-column grouping after every mutation.
package board

import (
	"context"
	"errors"
	"sync"
	"time"

	"taskboard-api/domain"
)

// ErrDeleteNotConfirmed is returned when a delete is requested without the
// caller's explicit confirmation signal.
var ErrDeleteNotConfirmed = errors.New("delete requires confirmation")

// TaskStore is the store handle the controller mutates through. Both the
// server-backed and the file-backed stores satisfy it.
type TaskStore interface {
	List(ctx context.Context, f domain.Filter) ([]domain.Task, error)
	Get(ctx context.Context, id string) (domain.Task, error)
	Create(ctx context.Context, t domain.Task) (domain.Task, error)
	Update(ctx context.Context, id string, p domain.Patch) (domain.Task, error)
	Delete(ctx context.Context, id string) error
}

// State is the explicit UI state: which sidebar filter is active, the current
// search text and which task an edit form is open for.
type State struct {
	ActiveFilter string
	Search       string
	EditingID    string
}

// Filter maps the sidebar selection and search text onto query constraints.
// Unknown selections fall back to showing everything.
func (s State) Filter() domain.Filter {
	f := domain.Filter{Search: s.Search}
	switch s.ActiveFilter {
	case "high", "medium", "low":
		f.Priority = s.ActiveFilter
	case domain.DateToday, domain.DatePrevious, domain.DateUpcoming:
		f.DateFilter = s.ActiveFilter
	case "personal", "professional", "academics":
		f.Category = s.ActiveFilter
	}
	return f
}

// Controller orchestrates task lifecycle operations. It holds a store
// reference rather than reaching for ambient state, and keeps the last
// successfully computed board so a failed operation leaves the rendered view
// unchanged.
type Controller struct {
	mu    sync.Mutex
	store TaskStore
	state State
	board domain.Board
	now   func() time.Time
}

// New creates a controller over the given store.
func New(store TaskStore) *Controller {
	if store == nil {
		panic("board.New: store is nil")
	}
	return &Controller{store: store, now: time.Now}
}

// Board returns the last computed grouping.
func (c *Controller) Board() domain.Board {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.board
}

// State returns the current UI state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Refresh recomputes the board from the store and the active filter state.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recompute(ctx)
}

// recompute must be called with the mutex held. On store failure the previous
// board stays in place.
func (c *Controller) recompute(ctx context.Context) error {
	tasks, err := c.store.List(ctx, domain.Filter{})
	if err != nil {
		return err
	}
	c.board = domain.GroupTasks(tasks, c.state.Filter().Build(c.now()))
	return nil
}

// AddTask validates the input, persists the task and recomputes the board.
func (c *Controller) AddTask(ctx context.Context, in domain.TaskInput) (domain.Task, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	task, err := domain.NewTask(in, c.now().UTC())
	if err != nil {
		return domain.Task{}, err
	}
	created, err := c.store.Create(ctx, task)
	if err != nil {
		return domain.Task{}, err
	}
	if err := c.recompute(ctx); err != nil {
		return domain.Task{}, err
	}
	return created, nil
}

// EditTask applies a partial update and recomputes the board. Setting status
// directly through an edit is an explicit override of the advance state
// machine, not a violation of it.
func (c *Controller) EditTask(ctx context.Context, id string, p domain.Patch) (domain.Task, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	updated, err := c.store.Update(ctx, id, p)
	if err != nil {
		return domain.Task{}, err
	}
	if c.state.EditingID == id {
		c.state.EditingID = ""
	}
	if err := c.recompute(ctx); err != nil {
		return domain.Task{}, err
	}
	return updated, nil
}

// Advance moves a task one step forward: todo to doing, doing to done. A done
// task stays done and the store is not touched.
func (c *Controller) Advance(ctx context.Context, id string) (domain.Task, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	current, err := c.store.Get(ctx, id)
	if err != nil {
		return domain.Task{}, err
	}
	if current.Status == domain.StatusDone {
		return current, nil
	}
	next := current.Status.Next()
	updated, err := c.store.Update(ctx, id, domain.Patch{Status: &next})
	if err != nil {
		return domain.Task{}, err
	}
	if err := c.recompute(ctx); err != nil {
		return domain.Task{}, err
	}
	return updated, nil
}

// DeleteTask removes a task once the caller has confirmed. Without
// confirmation the store is never touched.
func (c *Controller) DeleteTask(ctx context.Context, id string, confirmed bool) error {
	if !confirmed {
		return ErrDeleteNotConfirmed
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.store.Delete(ctx, id); err != nil {
		return err
	}
	return c.recompute(ctx)
}

// SetFilter activates a sidebar filter and recomputes the board.
func (c *Controller) SetFilter(ctx context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.ActiveFilter = name
	return c.recompute(ctx)
}

// SetSearch records the search text without recomputing; search input is
// refreshed through a debounced Refresher rather than on every keystroke.
func (c *Controller) SetSearch(term string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Search = term
}

// StartEditing marks which task the edit form is open for.
func (c *Controller) StartEditing(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.EditingID = id
}

// StopEditing clears the editing marker.
func (c *Controller) StopEditing() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.EditingID = ""
}

// NewSearchRefresher returns a debounced refresher that recomputes the board
// after search input goes quiet and hands the result to apply.
func (c *Controller) NewSearchRefresher(debounce time.Duration, apply func(domain.Board)) *Refresher {
	return NewRefresher(debounce, func(ctx context.Context) (domain.Board, error) {
		c.mu.Lock()
		defer c.mu.Unlock()
		if err := c.recompute(ctx); err != nil {
			return domain.Board{}, err
		}
		return c.board, nil
	}, apply)
}

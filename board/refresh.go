package board

import (
	"context"
	"sync"
	"time"

	"taskboard-api/domain"
)

// DefaultDebounce is the quiescence window for search-triggered refreshes.
const DefaultDebounce = 300 * time.Millisecond

// Refresher coalesces rapid refresh triggers into a single fetch after the
// debounce window passes, and drops fetch results that were superseded by a
// later trigger. In-flight fetches are not aborted; a stale response is
// simply discarded when it arrives, so the view never goes backwards.
type Refresher struct {
	mu       sync.Mutex
	debounce time.Duration
	timer    *time.Timer
	gen      uint64
	fetch    func(context.Context) (domain.Board, error)
	apply    func(domain.Board)
}

// NewRefresher builds a refresher. fetch computes a fresh board; apply
// receives it only when the result is still current.
func NewRefresher(debounce time.Duration, fetch func(context.Context) (domain.Board, error), apply func(domain.Board)) *Refresher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Refresher{debounce: debounce, fetch: fetch, apply: apply}
}

// Trigger schedules a refresh after the debounce window. Each call restarts
// the window and invalidates any fetch already in flight.
func (r *Refresher) Trigger() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++
	gen := r.gen
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(r.debounce, func() {
		r.run(gen)
	})
}

// Stop cancels any pending refresh. A fetch already running will still
// complete but its result is discarded.
func (r *Refresher) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

func (r *Refresher) run(gen uint64) {
	b, err := r.fetch(context.Background())
	if err != nil {
		// The previously rendered view stays in place until the next trigger.
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.gen {
		return
	}
	r.apply(b)
}

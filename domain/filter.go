package domain

import (
	"strings"
	"time"
)

// Date filter buckets resolved against today's midnight.
const (
	DateToday    = "today"
	DatePrevious = "previous"
	DateUpcoming = "upcoming"
)

// Filter is the set of requested query constraints. Zero-valued fields are
// not applied; supplied ones are ANDed together.
type Filter struct {
	Status     string
	Priority   string
	Category   string
	Search     string
	DateFilter string
}

// IsZero reports whether no constraint is set.
func (f Filter) IsZero() bool {
	return f == Filter{}
}

// Predicate is a compiled filter usable uniformly against an in-memory list
// or a persisted collection. The reference day is fixed at build time so a
// single query resolves relative dates consistently.
type Predicate struct {
	filter Filter
	today  time.Time
}

// Build compiles the filter against the current moment.
func (f Filter) Build(now time.Time) Predicate {
	return Predicate{filter: f, today: Midnight(now)}
}

// Matches reports whether the task satisfies every supplied constraint.
func (p Predicate) Matches(t Task) bool {
	f := p.filter
	if f.Status != "" && t.Status != Status(f.Status) {
		return false
	}
	if f.Priority != "" && t.Priority != Priority(f.Priority) {
		return false
	}
	if f.Category != "" && t.Category != Category(f.Category) {
		return false
	}
	if f.Search != "" && !matchesSearch(t, f.Search) {
		return false
	}
	return matchesDate(t, f.DateFilter, p.today)
}

// matchesSearch does a case-insensitive substring match over title and
// description, mirroring the regex search the query layer used to run.
func matchesSearch(t Task, term string) bool {
	term = strings.ToLower(term)
	return strings.Contains(strings.ToLower(t.Title), term) ||
		strings.Contains(strings.ToLower(t.Description), term)
}

func matchesDate(t Task, bucket string, today time.Time) bool {
	switch bucket {
	case DateToday:
		return t.DueDate != nil && t.DueDate.Equal(today)
	case DatePrevious:
		return t.DueDate != nil && t.DueDate.Before(today)
	case DateUpcoming:
		return t.DueDate != nil && t.DueDate.After(today)
	default:
		// Unrecognized buckets are ignored rather than rejected so new
		// clients keep working against old servers.
		return true
	}
}

// FilterTasks applies the predicate, preserving input order.
func FilterTasks(tasks []Task, p Predicate) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if p.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}

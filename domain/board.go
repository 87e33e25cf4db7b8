package domain

import "sort"

// Counts holds per-column sizes of the filtered view, not global totals.
type Counts struct {
	Todo  int `json:"todo"`
	Doing int `json:"doing"`
	Done  int `json:"done"`
}

// Board is the three-column grouping the UI renders.
type Board struct {
	Todo   []Task `json:"todo"`
	Doing  []Task `json:"doing"`
	Done   []Task `json:"done"`
	Counts Counts `json:"counts"`
}

// GroupTasks filters the task list with the predicate and partitions the
// result into status columns, preserving input order within each column.
// Tasks with an unrecognized status land in no column.
func GroupTasks(tasks []Task, p Predicate) Board {
	b := Board{
		Todo:  []Task{},
		Doing: []Task{},
		Done:  []Task{},
	}
	for _, t := range tasks {
		if !p.Matches(t) {
			continue
		}
		switch t.Status {
		case StatusTodo:
			b.Todo = append(b.Todo, t)
		case StatusDoing:
			b.Doing = append(b.Doing, t)
		case StatusDone:
			b.Done = append(b.Done, t)
		}
	}
	b.Counts = Counts{Todo: len(b.Todo), Doing: len(b.Doing), Done: len(b.Done)}
	return b
}

// SortByCreatedDesc orders tasks newest-created first, the default listing
// order. The sort is stable so equal timestamps keep their relative order.
func SortByCreatedDesc(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
}

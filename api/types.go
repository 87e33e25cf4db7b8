package api

import (
	"context"

	"taskboard-api/domain"
)

// TaskStore abstracts persistence for handlers.
type TaskStore interface {
	List(ctx context.Context, f domain.Filter) ([]domain.Task, error)
	Get(ctx context.Context, id string) (domain.Task, error)
	Create(ctx context.Context, t domain.Task) (domain.Task, error)
	Update(ctx context.Context, id string, p domain.Patch) (domain.Task, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

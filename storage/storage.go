package storage

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/google/uuid"

	"taskboard-api/domain"
)

// boardPartition is the fixed partition key. The application hosts a single
// board, so every task lives in one partition with its ID as the row key.
const boardPartition = "board"

const dueDateLayout = "2006-01-02"

// Storage persists tasks in an Azure Table.
type Storage struct {
	taskTable *aztables.Client
	now       func() time.Time
}

// New creates a Storage instance from the given connection string.
func New(connStr, tasksTable string) (*Storage, error) {
	tablesClientOptions := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &tablesClientOptions)
	if err != nil {
		return nil, err
	}
	return &Storage{taskTable: svc.NewClient(tasksTable), now: time.Now}, nil
}

type taskEntity struct {
	aztables.Entity
	Title       string `json:"Title"`
	Description string `json:"Description"`
	Priority    string `json:"Priority"`
	Category    string `json:"Category"`
	DueDate     string `json:"DueDate"`
	Status      string `json:"Status"`
	CreatedAt   string `json:"CreatedAt"`
	UpdatedAt   string `json:"UpdatedAt"`
}

// newTaskEntity flattens a task into table properties. The due date is stored
// as a constrained calendar-date string (empty means none), timestamps as
// RFC 3339 so lexical order matches chronological order.
func newTaskEntity(t domain.Task) taskEntity {
	due := ""
	if t.DueDate != nil {
		due = t.DueDate.Format(dueDateLayout)
	}
	return taskEntity{
		Entity:      aztables.Entity{PartitionKey: boardPartition, RowKey: t.ID},
		Title:       t.Title,
		Description: t.Description,
		Priority:    string(t.Priority),
		Category:    string(t.Category),
		DueDate:     due,
		Status:      string(t.Status),
		CreatedAt:   t.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:   t.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func (e taskEntity) toTask() (domain.Task, error) {
	createdAt, err := time.Parse(time.RFC3339Nano, e.CreatedAt)
	if err != nil {
		return domain.Task{}, err
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, e.UpdatedAt)
	if err != nil {
		return domain.Task{}, err
	}
	var due *time.Time
	if e.DueDate != "" {
		d, err := time.Parse(dueDateLayout, e.DueDate)
		if err != nil {
			return domain.Task{}, err
		}
		d = domain.Midnight(d)
		due = &d
	}
	return domain.Task{
		ID:          e.RowKey,
		Title:       e.Title,
		Description: e.Description,
		Priority:    domain.Priority(e.Priority),
		Category:    domain.Category(e.Category),
		DueDate:     due,
		Status:      domain.Status(e.Status),
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}, nil
}

// buildODataFilter translates the equality parts of a filter into an OData
// expression the table service can evaluate. Search and relative-date parts
// are applied in memory after the fetch; the compiled predicate covers both,
// so the two stages cannot drift apart.
func buildODataFilter(f domain.Filter) string {
	parts := []string{"PartitionKey eq '" + boardPartition + "'"}
	if f.Status != "" {
		parts = append(parts, "Status eq '"+odataEscape(f.Status)+"'")
	}
	if f.Priority != "" {
		parts = append(parts, "Priority eq '"+odataEscape(f.Priority)+"'")
	}
	if f.Category != "" {
		parts = append(parts, "Category eq '"+odataEscape(f.Category)+"'")
	}
	return strings.Join(parts, " and ")
}

func odataEscape(v string) string {
	return strings.ReplaceAll(v, "'", "''")
}

// List returns tasks matching the filter, newest-created first.
func (s *Storage) List(ctx context.Context, f domain.Filter) ([]domain.Task, error) {
	filter := buildODataFilter(f)
	pager := s.taskTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	pred := f.Build(s.now())
	tasks := []domain.Task{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range resp.Entities {
			var ent taskEntity
			if err := json.Unmarshal(raw, &ent); err != nil {
				return nil, err
			}
			task, err := ent.toTask()
			if err != nil {
				return nil, err
			}
			if pred.Matches(task) {
				tasks = append(tasks, task)
			}
		}
	}
	domain.SortByCreatedDesc(tasks)
	return tasks, nil
}

// Get retrieves a single task by ID.
func (s *Storage) Get(ctx context.Context, id string) (domain.Task, error) {
	ent, err := s.taskTable.GetEntity(ctx, boardPartition, id, nil)
	if err != nil {
		return domain.Task{}, mapNotFound(err)
	}
	var te taskEntity
	if err := json.Unmarshal(ent.Value, &te); err != nil {
		return domain.Task{}, err
	}
	return te.toTask()
}

// Create persists a new task, assigning its ID.
func (s *Storage) Create(ctx context.Context, t domain.Task) (domain.Task, error) {
	t.ID = uuid.NewString()
	payload, err := json.Marshal(newTaskEntity(t))
	if err != nil {
		return domain.Task{}, err
	}
	if _, err := s.taskTable.AddEntity(ctx, payload, nil); err != nil {
		return domain.Task{}, err
	}
	return t, nil
}

// Update reads the task, merges the patch and writes the result back. The
// board has a single logical writer, so read-apply-replace is sufficient and
// a later update wins.
func (s *Storage) Update(ctx context.Context, id string, p domain.Patch) (domain.Task, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return domain.Task{}, err
	}
	updated := current.Apply(p, s.now())
	payload, err := json.Marshal(newTaskEntity(updated))
	if err != nil {
		return domain.Task{}, err
	}
	opts := &aztables.UpsertEntityOptions{UpdateMode: aztables.UpdateModeReplace}
	if _, err := s.taskTable.UpsertEntity(ctx, payload, opts); err != nil {
		return domain.Task{}, mapNotFound(err)
	}
	return updated, nil
}

// Delete removes a task. Deleting an unknown ID reports ErrNotFound so the
// caller can tell "already gone" from "succeeded".
func (s *Storage) Delete(ctx context.Context, id string) error {
	if _, err := s.taskTable.DeleteEntity(ctx, boardPartition, id, nil); err != nil {
		return mapNotFound(err)
	}
	return nil
}

// Ping verifies the table is reachable.
func (s *Storage) Ping(ctx context.Context) error {
	filter := "PartitionKey eq '" + boardPartition + "'"
	pager := s.taskTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{
		Filter: &filter,
		Top:    to.Ptr(int32(1)),
	})
	if pager.More() {
		if _, err := pager.NextPage(ctx); err != nil {
			return err
		}
	}
	return nil
}

func mapNotFound(err error) error {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) && respErr.StatusCode == 404 {
		return domain.ErrNotFound
	}
	return err
}

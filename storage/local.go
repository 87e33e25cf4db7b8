package storage

import (
	"context"
	"errors"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"

	"taskboard-api/domain"
)

// localBlob is the on-disk shape of the standalone store: the whole task
// list under one fixed key, rewritten after every mutation.
type localBlob struct {
	Tasks []domain.Task `json:"tasks"`
}

// LocalStore is the standalone variant of the task store. The full task list
// lives in memory, loaded from a single JSON blob at startup and flushed back
// after every mutation. With an empty path it is purely in-memory.
type LocalStore struct {
	mu    sync.Mutex
	path  string
	tasks []domain.Task
	now   func() time.Time
}

// OpenLocal loads a file-backed store. A missing file starts an empty board.
func OpenLocal(path string) (*LocalStore, error) {
	s := &LocalStore{path: path, now: time.Now}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, err
	}
	var blob localBlob
	if err := sonic.Unmarshal(data, &blob); err != nil {
		return nil, err
	}
	s.tasks = blob.Tasks
	return s, nil
}

// NewMemory creates a store that never touches disk.
func NewMemory() *LocalStore {
	return &LocalStore{now: time.Now}
}

var lastTimestamp int64

// nextTimestamp returns a strictly increasing nanosecond timestamp so IDs
// minted within the same nanosecond never collide.
func nextTimestamp() int64 {
	for {
		now := time.Now().UnixNano()
		last := atomic.LoadInt64(&lastTimestamp)
		if now <= last {
			now = last + 1
		}
		if atomic.CompareAndSwapInt64(&lastTimestamp, last, now) {
			return now
		}
	}
}

func newLocalID() string {
	return strconv.FormatInt(nextTimestamp(), 36)
}

func (s *LocalStore) persist() error {
	if s.path == "" {
		return nil
	}
	data, err := sonic.Marshal(localBlob{Tasks: s.tasks})
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}

// List returns tasks matching the filter, newest-created first.
func (s *LocalStore) List(_ context.Context, f domain.Filter) ([]domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tasks := domain.FilterTasks(s.tasks, f.Build(s.now()))
	domain.SortByCreatedDesc(tasks)
	return tasks, nil
}

// Get retrieves a single task by ID.
func (s *LocalStore) Get(_ context.Context, id string) (domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return domain.Task{}, domain.ErrNotFound
}

// Create persists a new task under a timestamp-derived ID.
func (s *LocalStore) Create(_ context.Context, t domain.Task) (domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = newLocalID()
	s.tasks = append(s.tasks, t)
	if err := s.persist(); err != nil {
		s.tasks = s.tasks[:len(s.tasks)-1]
		return domain.Task{}, err
	}
	return t, nil
}

// Update merges the patch into the stored task.
func (s *LocalStore) Update(_ context.Context, id string, p domain.Patch) (domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.tasks {
		if t.ID != id {
			continue
		}
		updated := t.Apply(p, s.now())
		s.tasks[i] = updated
		if err := s.persist(); err != nil {
			s.tasks[i] = t
			return domain.Task{}, err
		}
		return updated, nil
	}
	return domain.Task{}, domain.ErrNotFound
}

// Delete removes a task, reporting ErrNotFound for unknown IDs.
func (s *LocalStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.tasks {
		if t.ID != id {
			continue
		}
		prev := s.tasks
		remaining := make([]domain.Task, 0, len(s.tasks)-1)
		remaining = append(remaining, s.tasks[:i]...)
		remaining = append(remaining, s.tasks[i+1:]...)
		s.tasks = remaining
		if err := s.persist(); err != nil {
			s.tasks = prev
			return err
		}
		return nil
	}
	return domain.ErrNotFound
}

// Ping always succeeds for the in-process store.
func (s *LocalStore) Ping(context.Context) error { return nil }

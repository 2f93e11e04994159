// Package testutil provides in-memory fakes for tests.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/repository"
)

// ErrTransport simulates a network failure.
var ErrTransport = fmt.Errorf("connection refused")

// FakeTaskStore is an in-memory, owner-scoped repository.TaskStore.
type FakeTaskStore struct {
	mu    sync.Mutex
	rows  []domain.Task
	seq   int
	clock time.Time

	// Error injection for testing
	ListErr   error
	CreateErr error
	UpdateErr error
	DeleteErr error

	// Hooks run before the call is served, outside the lock.
	BeforeList func()

	Calls map[string]int
}

var _ repository.TaskStore = (*FakeTaskStore)(nil)

func NewFakeTaskStore() *FakeTaskStore {
	return &FakeTaskStore{
		clock: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC),
		Calls: make(map[string]int),
	}
}

// Seed inserts a task directly, bypassing call counters.
func (f *FakeTaskStore) Seed(owner, title string) domain.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.insert(owner, title, nil)
}

// Rows returns a copy of everything stored, across owners.
func (f *FakeTaskStore) Rows() []domain.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Task, len(f.rows))
	copy(out, f.rows)
	return out
}

// CallCount reports how many times op was invoked.
func (f *FakeTaskStore) CallCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls[op]
}

// TotalCalls reports the number of store calls of any kind.
func (f *FakeTaskStore) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.Calls {
		total += n
	}
	return total
}

func (f *FakeTaskStore) List(ctx context.Context, owner string) ([]domain.Task, error) {
	if f.BeforeList != nil {
		f.BeforeList()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls["list"]++
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	out := make([]domain.Task, 0)
	for _, row := range f.rows {
		if row.UserID == owner {
			out = append(out, row)
		}
	}
	domain.SortByCreatedDesc(out)
	return out, nil
}

func (f *FakeTaskStore) Create(ctx context.Context, owner, title string, deadline *time.Time) (*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls["create"]++
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}
	task := f.insert(owner, title, deadline)
	return &task, nil
}

func (f *FakeTaskStore) Update(ctx context.Context, owner, id string, patch domain.TaskPatch) (*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls["update"]++
	if f.UpdateErr != nil {
		return nil, f.UpdateErr
	}
	for i := range f.rows {
		row := &f.rows[i]
		if row.ID != id || row.UserID != owner {
			continue
		}
		if patch.Title != nil {
			row.Title = *patch.Title
		}
		if patch.ClearDeadline {
			row.Deadline = nil
		} else if patch.Deadline != nil {
			d := *patch.Deadline
			row.Deadline = &d
		}
		if patch.Completed != nil {
			row.Completed = *patch.Completed
		}
		row.UpdatedAt = f.tick()
		out := *row
		return &out, nil
	}
	return nil, domain.ErrTaskNotFound
}

func (f *FakeTaskStore) Delete(ctx context.Context, owner, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls["delete"]++
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	for i, row := range f.rows {
		if row.ID == id && row.UserID == owner {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return domain.ErrTaskNotFound
}

// EditDirect changes a stored row as another client would.
func (f *FakeTaskStore) EditDirect(id, title string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows[i].Title = title
			f.rows[i].UpdatedAt = f.tick()
		}
	}
}

func (f *FakeTaskStore) insert(owner, title string, deadline *time.Time) domain.Task {
	f.seq++
	now := f.tick()
	task := domain.Task{
		ID:        fmt.Sprintf("task-%d", f.seq),
		UserID:    owner,
		Title:     title,
		Deadline:  deadline,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.rows = append(f.rows, task)
	return task
}

func (f *FakeTaskStore) tick() time.Time {
	f.clock = f.clock.Add(time.Minute)
	return f.clock
}

// Package task owns the signed-in user's in-memory task list. Every mutation
// is confirm-then-apply: the list changes only after the store acknowledges
// the write, and the store's record is what gets applied.
package task

import (
	"context"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/pkg/deadline"
)

// Store is the owner-scoped task store the manager drives.
type Store interface {
	List(ctx context.Context, owner string) ([]domain.Task, error)
	Create(ctx context.Context, owner, title string, deadline *time.Time) (*domain.Task, error)
	Update(ctx context.Context, owner, id string, patch domain.TaskPatch) (*domain.Task, error)
	Delete(ctx context.Context, owner, id string) error
}

var (
	ErrNotLoaded      = domain.NewError(domain.ErrCodeConflict, "tasks are not loaded")
	ErrSessionChanged = domain.NewError(domain.ErrCodeConflict, "session changed while the request was in flight")
)

// View pairs a task with its remaining-time classification.
type View struct {
	domain.Task `yaml:",inline"`
	Remaining   deadline.Classification `json:"remaining" yaml:"remaining"`
}

// Snapshot is a consistent copy of the manager's state.
type Snapshot struct {
	Owner       string
	State       LoadState
	Tasks       []domain.Task
	Stats       Stats
	Err         error
	PendingEdit string
}

// Observer is notified after every change of list or load state.
type Observer func(Snapshot)

type Manager struct {
	store  Store
	logger *zap.Logger

	refreshes singleflight.Group

	mu          sync.RWMutex
	owner       string
	generation  uint64
	state       LoadState
	tasks       []domain.Task
	lastErr     error
	pendingEdit string
	observers   []Observer
}

func NewManager(store Store, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		store:  store,
		logger: logger,
		tasks:  []domain.Task{},
	}
}

// Subscribe registers an observer.
func (m *Manager) Subscribe(o Observer) {
	if o == nil {
		return
	}
	m.mu.Lock()
	m.observers = append(m.observers, o)
	m.mu.Unlock()
}

// Begin binds the manager to owner and clears anything held for a previous
// session. The list stays Unloaded until Refresh.
func (m *Manager) Begin(owner string) {
	m.mu.Lock()
	if m.owner == owner && m.state != Unloaded {
		m.mu.Unlock()
		return
	}
	m.resetLocked()
	m.owner = owner
	m.mu.Unlock()

	m.logger.Debug("task session started", zap.String("owner", owner))
	m.notify()
}

// Reset discards every in-memory task and returns to Unloaded without an
// owner. Responses still in flight for the old session are dropped.
func (m *Manager) Reset() {
	m.mu.Lock()
	m.resetLocked()
	m.mu.Unlock()
	m.notify()
}

func (m *Manager) resetLocked() {
	m.generation++
	m.owner = ""
	m.state = Unloaded
	m.tasks = []domain.Task{}
	m.lastErr = nil
	m.pendingEdit = ""
}

// Refresh reloads the whole list. On failure the previous list is kept and
// the state becomes LoadFailed. Concurrent calls share one store request,
// which outlives any single caller: a caller whose ctx ends stops waiting
// and gets ctx.Err(), while the shared load still completes for the rest.
func (m *Manager) Refresh(ctx context.Context) error {
	m.mu.Lock()
	owner, gen := m.owner, m.generation
	if owner == "" {
		m.mu.Unlock()
		return domain.ErrNoSession
	}
	m.transitionLocked(Loading)
	m.mu.Unlock()
	m.notify()

	key := owner + "#" + strconv.FormatUint(gen, 10)
	loadCtx := context.WithoutCancel(ctx)
	ch := m.refreshes.DoChan(key, func() (interface{}, error) {
		return nil, m.load(loadCtx, owner, gen)
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		m.logger.Debug("refresh caller gave up waiting", zap.String("owner", owner), zap.Error(ctx.Err()))
		return ctx.Err()
	}
}

// load runs the shared list request and applies its outcome once.
func (m *Manager) load(ctx context.Context, owner string, gen uint64) error {
	tasks, err := m.store.List(ctx, owner)

	m.mu.Lock()
	if gen != m.generation {
		m.mu.Unlock()
		return ErrSessionChanged
	}
	if err != nil {
		m.transitionLocked(LoadFailed)
		m.lastErr = err
		m.mu.Unlock()
		m.logger.Error("refresh tasks failed", zap.String("owner", owner), zap.Error(err))
		m.notify()
		return err
	}
	m.tasks = cloneTasks(tasks)
	m.lastErr = nil
	m.transitionLocked(Loaded)
	m.mu.Unlock()

	m.logger.Debug("tasks refreshed", zap.String("owner", owner), zap.Int("count", len(tasks)))
	m.notify()
	return nil
}

// Add creates a task and puts the store's record first in the list.
func (m *Manager) Add(ctx context.Context, title string, due *time.Time) (*domain.Task, error) {
	title, err := domain.NormalizeTitle(title)
	if err != nil {
		return nil, err
	}
	owner, gen, err := m.session()
	if err != nil {
		return nil, err
	}

	created, err := m.store.Create(ctx, owner, title, due)
	if err != nil {
		m.logger.Error("add task failed", zap.String("owner", owner), zap.Error(err))
		return nil, err
	}

	m.mu.Lock()
	if gen != m.generation {
		m.mu.Unlock()
		return nil, ErrSessionChanged
	}
	tasks := make([]domain.Task, 0, len(m.tasks)+1)
	tasks = append(tasks, *created)
	m.tasks = append(tasks, m.tasks...)
	m.mu.Unlock()

	m.logger.Info("task added", zap.String("owner", owner), zap.String("task_id", created.ID))
	m.notify()
	out := *created
	return &out, nil
}

// ToggleComplete flips the completion flag of t. Only the completed flag and
// the store's updated_at are merged into the local record, so a title or
// deadline changed meanwhile is not overwritten with stale values.
func (m *Manager) ToggleComplete(ctx context.Context, t domain.Task) (*domain.Task, error) {
	owner, gen, err := m.session()
	if err != nil {
		return nil, err
	}

	completed := !t.Completed
	updated, err := m.store.Update(ctx, owner, t.ID, domain.TaskPatch{Completed: &completed})
	if err != nil {
		m.logger.Error("toggle task failed", zap.String("owner", owner), zap.String("task_id", t.ID), zap.Error(err))
		return nil, err
	}

	m.mu.Lock()
	if gen != m.generation {
		m.mu.Unlock()
		return nil, ErrSessionChanged
	}
	var merged *domain.Task
	for i := range m.tasks {
		if m.tasks[i].ID == t.ID {
			m.tasks[i].Completed = updated.Completed
			m.tasks[i].UpdatedAt = updated.UpdatedAt
			cp := m.tasks[i]
			merged = &cp
			break
		}
	}
	m.mu.Unlock()

	if merged == nil {
		merged = updated
	}
	m.notify()
	return merged, nil
}

// StartEdit marks id as the task being edited.
func (m *Manager) StartEdit(id string) {
	m.mu.Lock()
	m.pendingEdit = id
	m.mu.Unlock()
	m.notify()
}

// CancelEdit clears the pending edit target.
func (m *Manager) CancelEdit() {
	m.mu.Lock()
	m.pendingEdit = ""
	m.mu.Unlock()
	m.notify()
}

// PendingEdit returns the id of the task being edited, if any.
func (m *Manager) PendingEdit() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pendingEdit
}

// Edit sets the title and deadline of task id; a nil deadline clears it. On
// success the local record is replaced by the store's record. On failure the
// list is unchanged and id stays the pending edit target.
func (m *Manager) Edit(ctx context.Context, id, title string, due *time.Time) (*domain.Task, error) {
	m.mu.Lock()
	m.pendingEdit = id
	m.mu.Unlock()

	title, err := domain.NormalizeTitle(title)
	if err != nil {
		return nil, err
	}
	owner, gen, err := m.session()
	if err != nil {
		return nil, err
	}

	patch := domain.TaskPatch{Title: &title, Deadline: due, ClearDeadline: due == nil}
	updated, err := m.store.Update(ctx, owner, id, patch)
	if err != nil {
		m.logger.Error("edit task failed", zap.String("owner", owner), zap.String("task_id", id), zap.Error(err))
		return nil, err
	}

	m.mu.Lock()
	if gen != m.generation {
		m.mu.Unlock()
		return nil, ErrSessionChanged
	}
	for i := range m.tasks {
		if m.tasks[i].ID == id {
			m.tasks[i] = *updated
			break
		}
	}
	if m.pendingEdit == id {
		m.pendingEdit = ""
	}
	m.mu.Unlock()

	m.notify()
	out := *updated
	return &out, nil
}

// Remove deletes task id and drops it from the list once confirmed.
func (m *Manager) Remove(ctx context.Context, id string) error {
	owner, gen, err := m.session()
	if err != nil {
		return err
	}

	if err := m.store.Delete(ctx, owner, id); err != nil {
		m.logger.Error("remove task failed", zap.String("owner", owner), zap.String("task_id", id), zap.Error(err))
		return err
	}

	m.mu.Lock()
	if gen != m.generation {
		m.mu.Unlock()
		return ErrSessionChanged
	}
	kept := make([]domain.Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	m.tasks = kept
	if m.pendingEdit == id {
		m.pendingEdit = ""
	}
	m.mu.Unlock()

	m.logger.Info("task removed", zap.String("owner", owner), zap.String("task_id", id))
	m.notify()
	return nil
}

// Find returns the local record with id.
func (m *Manager) Find(id string) (domain.Task, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return domain.Task{}, false
}

// Tasks returns a copy of the list, newest first.
func (m *Manager) Tasks() []domain.Task {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneTasks(m.tasks)
}

// Stats derives counts from the current list.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return ComputeStats(m.tasks)
}

// State returns the load state.
func (m *Manager) State() LoadState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Err returns the error of the last failed refresh.
func (m *Manager) Err() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

// Owner returns the bound user id, or "" when no session is active.
func (m *Manager) Owner() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.owner
}

// Views classifies every task against now.
func (m *Manager) Views(now time.Time) []View {
	tasks := m.Tasks()
	views := make([]View, len(tasks))
	for i, t := range tasks {
		views[i] = View{Task: t, Remaining: deadline.Classify(t.Deadline, now)}
	}
	return views
}

// Snapshot returns a consistent copy of the manager state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() Snapshot {
	return Snapshot{
		Owner:       m.owner,
		State:       m.state,
		Tasks:       cloneTasks(m.tasks),
		Stats:       ComputeStats(m.tasks),
		Err:         m.lastErr,
		PendingEdit: m.pendingEdit,
	}
}

// session returns the bound owner for a mutation. Mutations need an owner
// and a list that has at least started loading.
func (m *Manager) session() (string, uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.owner == "" {
		return "", 0, domain.ErrNoSession
	}
	if m.state == Unloaded {
		return "", 0, ErrNotLoaded
	}
	return m.owner, m.generation, nil
}

func (m *Manager) transitionLocked(to LoadState) {
	if !canTransition(m.state, to) {
		m.logger.Warn("unexpected task state transition",
			zap.Stringer("from", m.state),
			zap.Stringer("to", to))
	}
	m.state = to
}

func (m *Manager) notify() {
	m.mu.RLock()
	observers := append([]Observer(nil), m.observers...)
	snap := m.snapshotLocked()
	m.mu.RUnlock()
	for _, o := range observers {
		o(snap)
	}
}

func cloneTasks(tasks []domain.Task) []domain.Task {
	out := make([]domain.Task, len(tasks))
	copy(out, tasks)
	return out
}

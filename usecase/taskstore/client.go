// Package taskstore is the owner-scoped client over the remote task store.
// It validates input before any remote call, bounds every call with a
// timeout, and classifies failures into validation, not-found and store
// errors.
package taskstore

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/repository"
)

const defaultTimeout = 10 * time.Second

type Client struct {
	store   repository.TaskStore
	timeout time.Duration
	logger  *zap.Logger
}

func New(store repository.TaskStore, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		store:   store,
		timeout: timeout,
		logger:  logger,
	}
}

// List returns the owner's tasks, newest first. An owner without tasks gets
// an empty, non-nil slice.
func (c *Client) List(ctx context.Context, owner string) ([]domain.Task, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	tasks, err := c.store.List(ctx, owner)
	if err != nil {
		c.logger.Error("list tasks failed", zap.String("owner", owner), zap.Error(err))
		return nil, domain.StoreError("list", err)
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	for _, t := range tasks {
		if t.UserID != owner {
			c.logger.Error("store returned a foreign task", zap.String("owner", owner), zap.String("task_id", t.ID))
			return nil, domain.StoreError("list", domain.NewError(domain.ErrCodeForbidden, "store returned a task of another owner"))
		}
	}
	domain.SortByCreatedDesc(tasks)
	return tasks, nil
}

// Create inserts a task. Empty titles are rejected without calling the store.
func (c *Client) Create(ctx context.Context, owner, title string, deadline *time.Time) (*domain.Task, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	title, err := domain.NormalizeTitle(title)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	task, err := c.store.Create(ctx, owner, title, deadline)
	if err != nil {
		c.logger.Error("create task failed", zap.String("owner", owner), zap.Error(err))
		return nil, domain.StoreError("create", err)
	}
	c.logger.Debug("task created", zap.String("owner", owner), zap.String("task_id", task.ID))
	return task, nil
}

// Update applies patch to the task matching both owner and id.
func (c *Client) Update(ctx context.Context, owner, id string, patch domain.TaskPatch) (*domain.Task, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	if strings.TrimSpace(id) == "" {
		return nil, domain.ErrTaskNotFound
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return nil, domain.NewError(domain.ErrCodeInvalid, "update changes nothing")
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	task, err := c.store.Update(ctx, owner, id, patch)
	if err != nil {
		c.logger.Error("update task failed", zap.String("owner", owner), zap.String("task_id", id), zap.Error(err))
		return nil, domain.StoreError("update", err)
	}
	return task, nil
}

// Delete removes the task matching both owner and id. A missing or foreign
// id is reported as domain.ErrTaskNotFound.
func (c *Client) Delete(ctx context.Context, owner, id string) error {
	if err := requireOwner(owner); err != nil {
		return err
	}
	if strings.TrimSpace(id) == "" {
		return domain.ErrTaskNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.store.Delete(ctx, owner, id); err != nil {
		c.logger.Error("delete task failed", zap.String("owner", owner), zap.String("task_id", id), zap.Error(err))
		return domain.StoreError("delete", err)
	}
	return nil
}

func requireOwner(owner string) error {
	if strings.TrimSpace(owner) == "" {
		return domain.ErrNoSession
	}
	return nil
}

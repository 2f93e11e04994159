package repository

import (
	"context"
	"time"

	"github.com/fastygo/taskflow/domain"
)

// TaskStore is the transport over the remote "tasks" collection. Every call
// is scoped by owner; update and delete match on owner and id together so a
// forged id can never reach another owner's row.
type TaskStore interface {
	List(ctx context.Context, owner string) ([]domain.Task, error)
	Create(ctx context.Context, owner, title string, deadline *time.Time) (*domain.Task, error)
	Update(ctx context.Context, owner, id string, patch domain.TaskPatch) (*domain.Task, error)
	Delete(ctx context.Context, owner, id string) error
}

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/repository"
)

const taskColumns = `id, user_id, title, completed, deadline, created_at, updated_at`

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository returns a Postgres-backed implementation of TaskStore.
func NewTaskRepository(pool *pgxpool.Pool) repository.TaskStore {
	return &taskRepository{pool: pool}
}

func (r *taskRepository) List(ctx context.Context, owner string) ([]domain.Task, error) {
	if !validID(owner) {
		return []domain.Task{}, nil
	}
	const query = `
	SELECT ` + taskColumns + `
	FROM tasks
	WHERE user_id = $1
	ORDER BY created_at DESC, id
	`
	rows, err := r.pool.Query(ctx, query, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) Create(ctx context.Context, owner, title string, deadline *time.Time) (*domain.Task, error) {
	title, err := domain.NormalizeTitle(title)
	if err != nil {
		return nil, err
	}

	const query = `
	INSERT INTO tasks (id, user_id, title, deadline)
	VALUES ($1, $2, $3, $4)
	RETURNING ` + taskColumns

	row := r.pool.QueryRow(ctx, query, uuid.NewString(), owner, title, nullTime(deadline))
	return scanTask(row)
}

func (r *taskRepository) Update(ctx context.Context, owner, id string, patch domain.TaskPatch) (*domain.Task, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, domain.ErrTaskNotFound
	}

	const query = `
	UPDATE tasks
	SET title = COALESCE($3, title),
		deadline = CASE
			WHEN $4::boolean THEN NULL
			WHEN $5::timestamptz IS NOT NULL THEN $5::timestamptz
			ELSE deadline
		END,
		completed = COALESCE($6, completed),
		updated_at = NOW()
	WHERE id = $1 AND user_id = $2
	RETURNING ` + taskColumns

	row := r.pool.QueryRow(ctx, query,
		id,
		owner,
		patch.Title,
		patch.ClearDeadline,
		nullTime(patch.Deadline),
		patch.Completed,
	)
	return scanTask(row)
}

func (r *taskRepository) Delete(ctx context.Context, owner, id string) error {
	if !validID(id) {
		return domain.ErrTaskNotFound
	}
	const query = `DELETE FROM tasks WHERE id = $1 AND user_id = $2`
	tag, err := r.pool.Exec(ctx, query, id, owner)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func scanTask(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Task, error) {
	var task domain.Task
	var deadline *time.Time

	if err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Completed,
		&deadline,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}

	task.Deadline = deadline
	return &task, nil
}

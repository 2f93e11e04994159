package rest

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/taskflow/api/transport"
	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/repository"
)

const tasksPath = "/rest/v1/tasks"

// TokenSource yields the access token of the signed-in user.
type TokenSource interface {
	AccessToken() string
}

// TaskClient implements repository.TaskStore against the PostgREST-style
// task collection. Owner filters are always sent as user_id=eq.<owner>.
type TaskClient struct {
	baseClient
	tokens TokenSource
}

var _ repository.TaskStore = (*TaskClient)(nil)

func NewTaskClient(cfg Config, tokens TokenSource, logger *zap.Logger) *TaskClient {
	return &TaskClient{
		baseClient: newBaseClient(cfg, logger),
		tokens:     tokens,
	}
}

func (c *TaskClient) List(ctx context.Context, owner string) ([]domain.Task, error) {
	tasks := make([]domain.Task, 0)
	_, err := c.do(ctx, call{
		method: http.MethodGet,
		path:   tasksPath,
		token:  c.token(),
		query: [][2]string{
			{"select", "*"},
			{"user_id", "eq." + owner},
			{"order", "created_at.desc"},
		},
	}, &tasks)
	if err != nil {
		return nil, err
	}
	domain.SortByCreatedDesc(tasks)
	return tasks, nil
}

func (c *TaskClient) Create(ctx context.Context, owner, title string, deadline *time.Time) (*domain.Task, error) {
	var task domain.Task
	_, err := c.do(ctx, call{
		method: http.MethodPost,
		path:   tasksPath,
		token:  c.token(),
		query:  [][2]string{{"select", "*"}},
		accept: mimeObject,
		prefer: "return=representation",
		body:   transport.TaskCreateRequest{UserID: owner, Title: title, Deadline: deadline},
	}, &task)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *TaskClient) Update(ctx context.Context, owner, id string, patch domain.TaskPatch) (*domain.Task, error) {
	var task domain.Task
	_, err := c.do(ctx, call{
		method: http.MethodPatch,
		path:   tasksPath,
		token:  c.token(),
		query:  scopedQuery(owner, id),
		accept: mimeObject,
		prefer: "return=representation",
		body:   transport.NewPatchRequest(patch),
	}, &task)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *TaskClient) Delete(ctx context.Context, owner, id string) error {
	_, err := c.do(ctx, call{
		method: http.MethodDelete,
		path:   tasksPath,
		token:  c.token(),
		query:  scopedQuery(owner, id),
		accept: mimeObject,
		prefer: "return=representation",
	}, nil)
	return err
}

func (c *TaskClient) token() string {
	if c.tokens == nil {
		return ""
	}
	return c.tokens.AccessToken()
}

func scopedQuery(owner, id string) [][2]string {
	return [][2]string{
		{"id", "eq." + id},
		{"user_id", "eq." + owner},
		{"select", "*"},
	}
}

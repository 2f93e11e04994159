package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskflow/api/transport"
	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/pkg/httpcontext"
	"github.com/fastygo/taskflow/repository"
)

const mimeObject = "application/vnd.pgrst.object+json"

// TaskHandler serves the task collection with PostgREST filter syntax.
// Every query is scoped to the caller; a user_id filter naming someone else
// simply matches nothing.
type TaskHandler struct {
	baseHandler
	store repository.TaskStore
}

func NewTaskHandler(store repository.TaskStore, adapter *httpcontext.Adapter, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		baseHandler: newBaseHandler(adapter, logger),
		store:       store,
	}
}

// @Summary List tasks
// @Tags tasks
// @Router /rest/v1/tasks [get]
func (h *TaskHandler) List(ctx *fasthttp.RequestCtx) {
	owner := httpcontext.RequestUserID(ctx)
	tasks := make([]domain.Task, 0)

	if h.ownerMatches(ctx, owner) {
		stdCtx, cancel := h.requestContext(ctx)
		defer cancel()

		all, err := h.store.List(stdCtx, owner)
		if err != nil {
			h.respondError(ctx, err)
			return
		}
		id, byID := eqFilter(ctx, "id")
		for _, t := range all {
			if !byID || t.ID == id {
				tasks = append(tasks, t)
			}
		}
	}

	if wantsObject(ctx) {
		if len(tasks) != 1 {
			h.respondErrorStatus(ctx, http.StatusNotAcceptable, domain.ErrTaskNotFound)
			return
		}
		h.respondRaw(ctx, http.StatusOK, tasks[0])
		return
	}
	h.respondRaw(ctx, http.StatusOK, tasks)
}

// @Summary Create task
// @Tags tasks
// @Router /rest/v1/tasks [post]
func (h *TaskHandler) Create(ctx *fasthttp.RequestCtx) {
	owner := httpcontext.RequestUserID(ctx)

	var req transport.TaskCreateRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.invalid(ctx, "invalid payload")
		return
	}
	if req.UserID != "" && req.UserID != owner {
		h.respondError(ctx, domain.NewError(domain.ErrCodeForbidden, "new row violates row-level security policy for table \"tasks\""))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.store.Create(stdCtx, owner, req.Title, req.Deadline)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.log(stdCtx).Debug("task created", zap.String("task_id", created.ID))
	h.respondRows(ctx, http.StatusCreated, created)
}

// @Summary Update task
// @Tags tasks
// @Router /rest/v1/tasks [patch]
func (h *TaskHandler) Update(ctx *fasthttp.RequestCtx) {
	owner := httpcontext.RequestUserID(ctx)
	id, ok := eqFilter(ctx, "id")
	if !ok || id == "" {
		h.invalid(ctx, "an id=eq. filter is required")
		return
	}

	var req transport.TaskPatchRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.invalid(ctx, "invalid payload")
		return
	}
	if !h.ownerMatches(ctx, owner) {
		h.notFound(ctx)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.store.Update(stdCtx, owner, id, req.ToPatch())
	if err != nil {
		if domain.IsNotFound(err) {
			h.notFound(ctx)
			return
		}
		h.respondError(ctx, err)
		return
	}
	h.respondRows(ctx, http.StatusOK, updated)
}

// @Summary Delete task
// @Tags tasks
// @Router /rest/v1/tasks [delete]
func (h *TaskHandler) Delete(ctx *fasthttp.RequestCtx) {
	owner := httpcontext.RequestUserID(ctx)
	id, ok := eqFilter(ctx, "id")
	if !ok || id == "" {
		h.invalid(ctx, "an id=eq. filter is required")
		return
	}
	if !h.ownerMatches(ctx, owner) {
		h.notFound(ctx)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.store.Delete(stdCtx, owner, id); err != nil {
		if domain.IsNotFound(err) {
			h.notFound(ctx)
			return
		}
		h.respondError(ctx, err)
		return
	}
	ctx.SetStatusCode(http.StatusNoContent)
}

// ownerMatches reports whether an optional user_id=eq. filter names the caller.
func (h *TaskHandler) ownerMatches(ctx *fasthttp.RequestCtx, owner string) bool {
	filter, ok := eqFilter(ctx, "user_id")
	return !ok || filter == owner
}

// notFound answers a singular request with 406, as PostgREST does when zero
// rows match, and a plural one with 404.
func (h *TaskHandler) notFound(ctx *fasthttp.RequestCtx) {
	status := http.StatusNotFound
	if wantsObject(ctx) {
		status = http.StatusNotAcceptable
	}
	h.respondErrorStatus(ctx, status, domain.ErrTaskNotFound)
}

// respondRows honours Prefer: return=representation and the singular Accept.
func (h *TaskHandler) respondRows(ctx *fasthttp.RequestCtx, status int, t *domain.Task) {
	if !bytes.Contains(ctx.Request.Header.Peek("Prefer"), []byte("return=representation")) {
		ctx.SetStatusCode(status)
		return
	}
	if wantsObject(ctx) {
		h.respondRaw(ctx, status, t)
		return
	}
	h.respondRaw(ctx, status, []domain.Task{*t})
}

func wantsObject(ctx *fasthttp.RequestCtx) bool {
	return bytes.Contains(ctx.Request.Header.Peek("Accept"), []byte(mimeObject))
}

// eqFilter reads a column=eq.value query filter.
func eqFilter(ctx *fasthttp.RequestCtx, column string) (string, bool) {
	raw := ctx.QueryArgs().Peek(column)
	if raw == nil {
		return "", false
	}
	value, ok := strings.CutPrefix(string(raw), "eq.")
	if !ok {
		return "", false
	}
	return value, true
}

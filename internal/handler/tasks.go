package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Prajwol-Chhetri/Task-REST-API/internal/model"
	"github.com/Prajwol-Chhetri/Task-REST-API/internal/policy"
	"github.com/Prajwol-Chhetri/Task-REST-API/internal/publisher"
	"github.com/Prajwol-Chhetri/Task-REST-API/internal/queue"
)

// TaskRepository is implemented by repository.TaskRepo and
// repository.MemoryTaskRepo.
type TaskRepository interface {
	Create(ctx context.Context, t *model.Task) error
	GetByID(ctx context.Context, id string) (*model.Task, error)
	Update(ctx context.Context, t *model.Task) error
	List(ctx context.Context, scope model.TaskScope, order model.TaskOrder) ([]*model.Task, error)
	Delete(ctx context.Context, id string) error
}

// TaskHandler serves /v1/tasks. It never inspects the caller's role: the
// policy decision supplies the list scope and the effective owner.
type TaskHandler struct {
	Tasks  TaskRepository
	Access *Access
	Events publisher.Publisher
	Log    *slog.Logger
}

func NewTaskHandler(tasks TaskRepository, access *Access, events publisher.Publisher, log *slog.Logger) *TaskHandler {
	return &TaskHandler{Tasks: tasks, Access: access, Events: events, Log: log}
}

// taskReq is the body of create and update requests. "id" and
// "task_status" are accepted as aliases of "task_id" and "status".
type taskReq struct {
	TaskID      *string `json:"task_id"`
	ID          *string `json:"id"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	TaskStatus  *string `json:"task_status"`
	Owner       *uint64 `json:"owner"`
}

func (r taskReq) taskID() string {
	switch {
	case r.TaskID != nil:
		return *r.TaskID
	case r.ID != nil:
		return *r.ID
	}
	return ""
}

func (r taskReq) owner() uint64 {
	if r.Owner == nil {
		return 0
	}
	return *r.Owner
}

func (r taskReq) patch() (model.TaskPatch, error) {
	p := model.TaskPatch{Title: r.Title, Description: r.Description}
	raw := r.Status
	if raw == nil {
		raw = r.TaskStatus
	}
	if raw != nil {
		st, err := model.ParseTaskStatus(*raw)
		if err != nil {
			return p, err
		}
		p.Status = &st
	}
	return p, nil
}

type taskResp struct {
	TaskID      string           `json:"task_id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Status      model.TaskStatus `json:"status"`
	Owner       uint64           `json:"owner"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func toTaskResp(t *model.Task) taskResp {
	return taskResp{
		TaskID:      t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Owner:       t.OwnerID,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// List handles GET /v1/tasks?ordering=<field>. Non-elevated callers only
// ever see their own tasks.
func (h *TaskHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	actor, _, err := h.Access.Actor(ctx, c)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	order, err := model.ParseTaskOrder(c.QueryParam("ordering"))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	d, err := h.Access.Decide(actor, policy.OpList, policy.Tasks())
	if err != nil {
		return writeError(c, h.Log, err)
	}
	tasks, err := h.Tasks.List(ctx, d.Scope, order)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	out := make([]taskResp, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, toTaskResp(t))
	}
	return c.JSON(http.StatusOK, out)
}

// Create handles POST /v1/tasks. The owner is whatever the policy decides:
// the caller, unless an elevated caller names someone else.
func (h *TaskHandler) Create(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	actor, _, err := h.Access.Actor(ctx, c)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	var req taskReq
	if err := c.Bind(&req); err != nil {
		return writeError(c, h.Log, errInvalidBody)
	}
	d, err := h.Access.Decide(actor, policy.OpCreate, policy.Tasks().WithOwner(req.owner()))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	p, err := req.patch()
	if err != nil {
		return writeError(c, h.Log, err)
	}
	t := &model.Task{ID: strings.TrimSpace(req.taskID()), OwnerID: d.Owner}
	p.ApplyFull(t)
	if err := model.ValidateTask(t); err != nil {
		return writeError(c, h.Log, err)
	}
	if err := h.Tasks.Create(ctx, t); err != nil {
		return writeError(c, h.Log, err)
	}
	publish(c, h.Events, h.Log, taskEvent(queue.TaskCreated, actor.UserID, t))
	return c.JSON(http.StatusCreated, toTaskResp(t))
}

// Get handles GET /v1/tasks/:id. A task outside the caller's scope is
// reported as not found.
func (h *TaskHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	actor, _, err := h.Access.Actor(ctx, c)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	t, err := h.Tasks.GetByID(ctx, c.Param("id"))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	if _, err := h.Access.Decide(actor, policy.OpRead, policy.Task(t.OwnerID)); err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, toTaskResp(t))
}

// Replace handles PUT /v1/tasks/:id: omitted fields are reset.
func (h *TaskHandler) Replace(c echo.Context) error { return h.update(c, true) }

// Patch handles PATCH /v1/tasks/:id: omitted fields are kept.
func (h *TaskHandler) Patch(c echo.Context) error { return h.update(c, false) }

// update applies a full or partial update. The identifier in the body is
// ignored; the path names the task.
func (h *TaskHandler) update(c echo.Context, full bool) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	actor, _, err := h.Access.Actor(ctx, c)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	var req taskReq
	if err := c.Bind(&req); err != nil {
		return writeError(c, h.Log, errInvalidBody)
	}
	t, err := h.Tasks.GetByID(ctx, c.Param("id"))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	d, err := h.Access.Decide(actor, policy.OpUpdate, policy.Task(t.OwnerID).WithOwner(req.owner()))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	p, err := req.patch()
	if err != nil {
		return writeError(c, h.Log, err)
	}
	if full {
		p.ApplyFull(t)
	} else {
		p.ApplyPartial(t)
	}
	t.OwnerID = d.Owner
	if err := model.ValidateTask(t); err != nil {
		return writeError(c, h.Log, err)
	}
	if err := h.Tasks.Update(ctx, t); err != nil {
		return writeError(c, h.Log, err)
	}
	publish(c, h.Events, h.Log, taskEvent(queue.TaskUpdated, actor.UserID, t))
	return c.JSON(http.StatusOK, toTaskResp(t))
}

// Delete handles DELETE /v1/tasks/:id.
func (h *TaskHandler) Delete(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	actor, _, err := h.Access.Actor(ctx, c)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	t, err := h.Tasks.GetByID(ctx, c.Param("id"))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	if _, err := h.Access.Decide(actor, policy.OpDelete, policy.Task(t.OwnerID)); err != nil {
		return writeError(c, h.Log, err)
	}
	if err := h.Tasks.Delete(ctx, t.ID); err != nil {
		return writeError(c, h.Log, err)
	}
	publish(c, h.Events, h.Log, taskEvent(queue.TaskDeleted, actor.UserID, t))
	return c.NoContent(http.StatusNoContent)
}

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/task"
	"github.com/geocoder89/taskhub/internal/http/middlewares"
	"github.com/geocoder89/taskhub/internal/utils"
	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type TasksStore interface {
	Create(ctx context.Context, t task.Task) (task.Task, error)
	GetByID(ctx context.Context, id string) (task.Task, error)
	List(ctx context.Context, filter task.ListFilter, after *utils.TaskCursor) ([]task.Task, bool, error)
	Update(ctx context.Context, id string, req task.UpdateTaskRequest) (task.Task, error)
	Delete(ctx context.Context, id string) error
}

type TasksHandler struct {
	tasks TasksStore
}

func NewTasksHandler(tasks TasksStore) *TasksHandler {
	return &TasksHandler{tasks: tasks}
}

type TaskPage struct {
	Items      []task.Task `json:"items"`
	Count      int         `json:"count"`
	Limit      int         `json:"limit"`
	HasMore    bool        `json:"hasMore"`
	NextCursor *string     `json:"nextCursor"`
}

func parseIntDefault(s string, fallback int) (int, error) {
	if s == "" {
		return fallback, nil
	}
	return strconv.Atoi(s)
}

// parseTaskQuery reads ?status, ?limit and ?cursor. It writes a 400 and
// returns false on bad input.
func parseTaskQuery(ctx *gin.Context) (task.ListFilter, *utils.TaskCursor, bool) {
	limit, err := parseIntDefault(ctx.Query("limit"), defaultPageSize)
	if err != nil || limit < 1 || limit > maxPageSize {
		RespondBadRequest(ctx, "limit must be between 1 and 100", nil)
		return task.ListFilter{}, nil, false
	}

	filter := task.ListFilter{Limit: limit}

	if s := ctx.Query("status"); s != "" {
		if !task.ValidStatus(s) {
			RespondBadRequest(ctx, "status must be one of pending, in-progress, completed", nil)
			return task.ListFilter{}, nil, false
		}
		filter.Status = &s
	}

	var after *utils.TaskCursor
	if c := ctx.Query("cursor"); c != "" {
		cur, err := utils.DecodeTaskCursor(c)
		if err != nil {
			RespondBadRequest(ctx, "cursor is invalid", nil)
			return task.ListFilter{}, nil, false
		}
		after = &cur
	}

	return filter, after, true
}

func listTasks(ctx *gin.Context, store TasksStore, filter task.ListFilter, after *utils.TaskCursor) {
	cctx, cancel := withTimeout(ctx, 2*time.Second)
	defer cancel()

	items, hasMore, err := store.List(cctx, filter, after)
	if err != nil {
		slog.Default().ErrorContext(ctx.Request.Context(), "list tasks failed", "err", err)
		RespondInternal(ctx, "Could not list tasks")
		return
	}

	page := TaskPage{
		Items:   items,
		Count:   len(items),
		Limit:   filter.Limit,
		HasMore: hasMore,
	}

	if hasMore && len(items) > 0 {
		last := items[len(items)-1]
		next, err := utils.EncodeTaskCursor(last.CreatedAt, last.ID)
		if err != nil {
			RespondInternal(ctx, "Could not list tasks")
			return
		}
		page.NextCursor = &next
	}

	RespondOKWithETag(ctx, page)
}

// GET /tasks?status=pending&assignedUserId=...&limit=20&cursor=...
func (h *TasksHandler) ListTasks(ctx *gin.Context) {
	filter, after, ok := parseTaskQuery(ctx)
	if !ok {
		return
	}

	if a := ctx.Query("assignedUserId"); a != "" {
		if !utils.IsUUID(a) {
			RespondBadRequest(ctx, "assignedUserId must be a uuid", nil)
			return
		}
		filter.AssignedUserID = &a
	}

	listTasks(ctx, h.tasks, filter, after)
}

func (h *TasksHandler) GetTask(ctx *gin.Context) {
	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondBadRequest(ctx, "Invalid task id", nil)
		return
	}

	cctx, cancel := withTimeout(ctx, 2*time.Second)
	defer cancel()

	t, err := h.tasks.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			RespondNotFound(ctx, "Task not found")
			return
		}
		RespondInternal(ctx, "Could not fetch task")
		return
	}

	RespondOKWithETag(ctx, t)
}

func (h *TasksHandler) CreateTask(ctx *gin.Context) {
	var req task.CreateTaskRequest

	if !BindJSON(ctx, &req) {
		return
	}

	userID, _ := middlewares.UserIDFromContext(ctx)

	cctx, cancel := withTimeout(ctx, 2*time.Second)
	defer cancel()

	t, err := h.tasks.Create(cctx, task.NewFromCreateRequest(req, userID))

	if err != nil {
		slog.Default().ErrorContext(ctx.Request.Context(), "create task failed", "err", err)
		RespondInternal(ctx, "Could not create task")
		return
	}

	RespondCreated(ctx, t)
}

func (h *TasksHandler) UpdateTask(ctx *gin.Context) {
	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondBadRequest(ctx, "Invalid task id", nil)
		return
	}

	var req task.UpdateTaskRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := withTimeout(ctx, 2*time.Second)
	defer cancel()

	t, err := h.tasks.Update(cctx, id, req)

	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			RespondNotFound(ctx, "Task not found")
			return
		}
		RespondInternal(ctx, "Could not update task")
		return
	}

	RespondOK(ctx, t)
}

func (h *TasksHandler) DeleteTask(ctx *gin.Context) {
	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondBadRequest(ctx, "Invalid task id", nil)
		return
	}

	cctx, cancel := withTimeout(ctx, 2*time.Second)
	defer cancel()

	err := h.tasks.Delete(cctx, id)

	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			RespondNotFound(ctx, "Task not found")
			return
		}
		RespondInternal(ctx, "Could not delete task")
		return
	}

	RespondOK(ctx, gin.H{"message": "Task deleted successfully"})
}

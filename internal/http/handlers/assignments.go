package handlers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/task"
	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/utils"
	"github.com/gin-gonic/gin"
)

type Assigner interface {
	Assign(ctx context.Context, taskID, userID string) (task.Assignment, error)
}

type UserFinder interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

type AssignmentsHandler struct {
	assigner Assigner
	tasks    TasksStore
	users    UserFinder
}

func NewAssignmentsHandler(assigner Assigner, tasks TasksStore, users UserFinder) *AssignmentsHandler {
	return &AssignmentsHandler{assigner: assigner, tasks: tasks, users: users}
}

// POST /tasks/:id/assign
func (h *AssignmentsHandler) Assign(ctx *gin.Context) {
	taskID := ctx.Param("id")

	if !utils.IsUUID(taskID) {
		RespondBadRequest(ctx, "Invalid task id", nil)
		return
	}

	var req task.AssignRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := withTimeout(ctx, 2*time.Second)
	defer cancel()

	a, err := h.assigner.Assign(cctx, taskID, req.UserID)

	if err != nil {
		switch {
		case errors.Is(err, task.ErrNotFound):
			RespondNotFound(ctx, "Task not found")
		case errors.Is(err, user.ErrNotFound):
			RespondNotFound(ctx, "User not found")
		default:
			slog.Default().ErrorContext(ctx.Request.Context(), "assign task failed", "task_id", taskID, "err", err)
			RespondInternal(ctx, "Could not assign task")
		}
		return
	}

	RespondCreated(ctx, a)
}

// GET /users/:id/tasks takes the same query as GET /tasks.
func (h *AssignmentsHandler) ListUserTasks(ctx *gin.Context) {
	userID := ctx.Param("id")

	if !utils.IsUUID(userID) {
		RespondBadRequest(ctx, "Invalid user id", nil)
		return
	}

	filter, after, ok := parseTaskQuery(ctx)
	if !ok {
		return
	}

	cctx, cancel := withTimeout(ctx, 2*time.Second)
	_, err := h.users.GetByID(cctx, userID)
	cancel()

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}
		RespondInternal(ctx, "Could not list tasks")
		return
	}

	filter.AssignedUserID = &userID
	listTasks(ctx, h.tasks, filter, after)
}

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/security"
	"github.com/geocoder89/taskhub/internal/utils"
	"github.com/gin-gonic/gin"
)

type UsersStore interface {
	GetByID(ctx context.Context, id string) (user.User, error)
	List(ctx context.Context) ([]user.User, error)
	Create(ctx context.Context, u user.User) (user.User, error)
	Update(ctx context.Context, id string, p user.Patch) (user.User, error)
	Delete(ctx context.Context, id string) error
}

type UsersHandler struct {
	users UsersStore
}

func NewUsersHandler(users UsersStore) *UsersHandler {
	return &UsersHandler{users: users}
}

func (h *UsersHandler) ListUsers(ctx *gin.Context) {
	cctx, cancel := withTimeout(ctx, 2*time.Second)
	defer cancel()

	users, err := h.users.List(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not list users")
		return
	}

	RespondOK(ctx, gin.H{
		"items": users,
		"count": len(users),
	})
}

func (h *UsersHandler) GetUser(ctx *gin.Context) {
	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondBadRequest(ctx, "Invalid user id", nil)
		return
	}

	cctx, cancel := withTimeout(ctx, 2*time.Second)
	defer cancel()

	u, err := h.users.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}
		RespondInternal(ctx, "Could not fetch user")
		return
	}

	RespondOK(ctx, u)
}

// CreateUser is the admin path; unlike /auth/register it may set the role.
func (h *UsersHandler) CreateUser(ctx *gin.Context) {
	var req user.CreateUserRequest

	if !BindJSON(ctx, &req) {
		return
	}

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondInternal(ctx, "Could not create user")
		return
	}

	role := req.Role
	if role == "" {
		role = user.RoleUser
	}

	cctx, cancel := withTimeout(ctx, 3*time.Second)
	defer cancel()

	u, err := h.users.Create(cctx, user.User{
		Name:         req.Name,
		Email:        req.Email,
		PhoneNumber:  req.PhoneNumber,
		PasswordHash: hash,
		Role:         role,
	})

	if err != nil {
		if errors.Is(err, user.ErrEmailAlreadyUsed) {
			RespondConflict(ctx, "email_taken", "Email is already in use")
			return
		}
		slog.Default().ErrorContext(ctx.Request.Context(), "create user failed", "err", err)
		RespondInternal(ctx, "Could not create user")
		return
	}

	RespondCreated(ctx, u)
}

// UpdateUser applies a partial update. Mount behind RequireSelfOrAdmin.
func (h *UsersHandler) UpdateUser(ctx *gin.Context) {
	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondBadRequest(ctx, "Invalid user id", nil)
		return
	}

	var req user.UpdateUserRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if req.Empty() {
		RespondBadRequest(ctx, "At least one field is required", nil)
		return
	}

	patch := user.Patch{
		Name:        req.Name,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
	}

	if req.Password != nil {
		hash, err := security.HashPassword(*req.Password)
		if err != nil {
			RespondInternal(ctx, "Could not update user")
			return
		}
		patch.PasswordHash = &hash
	}

	cctx, cancel := withTimeout(ctx, 3*time.Second)
	defer cancel()

	u, err := h.users.Update(cctx, id, patch)

	if err != nil {
		switch {
		case errors.Is(err, user.ErrNotFound):
			RespondNotFound(ctx, "User not found")
		case errors.Is(err, user.ErrEmailAlreadyUsed):
			RespondConflict(ctx, "email_taken", "Email is already in use")
		default:
			RespondInternal(ctx, "Could not update user")
		}
		return
	}

	RespondOK(ctx, u)
}

func (h *UsersHandler) DeleteUser(ctx *gin.Context) {
	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondBadRequest(ctx, "Invalid user id", nil)
		return
	}

	cctx, cancel := withTimeout(ctx, 2*time.Second)
	defer cancel()

	err := h.users.Delete(cctx, id)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}
		RespondInternal(ctx, "Could not delete user")
		return
	}

	RespondOK(ctx, gin.H{"message": "User deleted successfully"})
}

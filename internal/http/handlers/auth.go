package handlers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/geocoder89/taskhub/internal/auth"
	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/http/middlewares"
	"github.com/geocoder89/taskhub/internal/security"
	"github.com/gin-gonic/gin"
)

type CredentialStore interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Create(ctx context.Context, u user.User) (user.User, error)
}

// SessionAuthority is the slice of session.Authority the auth handlers use.
type SessionAuthority interface {
	GetVersion(ctx context.Context, userID string) (int64, error)
	LogoutAllDevices(ctx context.Context, userID string) (int64, error)
}

type TokenIssuer interface {
	Issue(userID, email, role string, version int64) (string, auth.Payload, error)
}

type AuthHandler struct {
	users    CredentialStore
	sessions SessionAuthority
	tokens   TokenIssuer
}

func NewAuthHandler(users CredentialStore, sessions SessionAuthority, tokens TokenIssuer) *AuthHandler {
	return &AuthHandler{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
	}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type SignUpRequest struct {
	Name        string `json:"name" binding:"required,min=2,max=120"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8,max=72"`
	PhoneNumber string `json:"phoneNumber" binding:"omitempty,e164"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// request-scoped deadline for store calls
func withTimeout(ctx *gin.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx.Request.Context(), d)
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req SignUpRequest

	if !BindJSON(ctx, &req) {
		return
	}

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondInternal(ctx, "Could not create user")
		return
	}

	cctx, cancel := withTimeout(ctx, 3*time.Second)
	defer cancel()

	// self sign-up never grants admin
	u, err := h.users.Create(cctx, user.User{
		Name:         req.Name,
		Email:        req.Email,
		PhoneNumber:  req.PhoneNumber,
		PasswordHash: hash,
		Role:         user.RoleUser,
	})

	if err != nil {
		if errors.Is(err, user.ErrEmailAlreadyUsed) {
			RespondConflict(ctx, "email_taken", "Email is already in use")
			return
		}

		slog.Default().ErrorContext(ctx.Request.Context(), "register failed", "err", err)
		RespondInternal(ctx, "Could not create user")
		return
	}

	RespondCreated(ctx, u)
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := withTimeout(ctx, 2*time.Second)
	defer cancel()

	foundUser, err := h.users.GetByEmail(cctx, req.Email)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			security.BurnCompare(req.Password)
			RespondUnauthorized(ctx, "invalid_credentials", "Invalid email or password")
			return
		}

		slog.Default().ErrorContext(ctx.Request.Context(), "login lookup failed", "err", err)
		RespondInternal(ctx, "Login failed")
		return
	}

	err = security.CheckPassword(foundUser.PasswordHash, req.Password)

	if err != nil {
		if !errors.Is(err, security.ErrPasswordMismatch) {
			// a corrupt hash is ours to fix, but the caller still just failed to log in
			slog.Default().WarnContext(ctx.Request.Context(), "password check failed", "user_id", foundUser.ID, "err", err)
		}
		RespondUnauthorized(ctx, "invalid_credentials", "Invalid email or password")
		return
	}

	// read at issuance and embedded verbatim
	version, err := h.sessions.GetVersion(cctx, foundUser.ID)

	if err != nil {
		slog.Default().ErrorContext(ctx.Request.Context(), "read token version failed", "user_id", foundUser.ID, "err", err)
		RespondInternal(ctx, "Login failed")
		return
	}

	token, payload, err := h.tokens.Issue(foundUser.ID, foundUser.Email, foundUser.Role, version)

	if err != nil {
		RespondInternal(ctx, "Could not generate token")
		return
	}

	RespondOK(ctx, LoginResponse{Token: token, ExpiresAt: payload.ExpiresAt})
}

// Logout revokes every token the caller holds, on every device. Mount
// behind RequireAuth.
func (h *AuthHandler) Logout(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Authentication required")
		return
	}

	cctx, cancel := withTimeout(ctx, 2*time.Second)
	defer cancel()

	if _, err := h.sessions.LogoutAllDevices(cctx, userID); err != nil {
		slog.Default().ErrorContext(ctx.Request.Context(), "logout failed", "user_id", userID, "err", err)
		RespondInternal(ctx, "Logout failed")
		return
	}

	RespondOK(ctx, gin.H{"message": "Logged out successfully"})
}

func (h *AuthHandler) Me(ctx *gin.Context) {
	id, ok := middlewares.IdentityFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Authentication required")
		return
	}

	RespondOK(ctx, id)
}

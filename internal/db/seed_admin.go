package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/geocoder89/taskhub/internal/config"
	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/security"
)

type AdminStore interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Create(ctx context.Context, u user.User) (user.User, error)
}

// EnsureAdminUser creates the configured bootstrap account once. It is a
// no-op when no admin credentials are configured or the email exists.
func EnsureAdminUser(ctx context.Context, store AdminStore, cfg config.Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	_, err := store.GetByEmail(ctx, cfg.AdminEmail)

	if err == nil {
		return nil
	}

	if !errors.Is(err, user.ErrNotFound) {
		return err
	}

	hash, err := security.HashPassword(cfg.AdminPassword)

	if err != nil {
		return err
	}

	role := cfg.AdminRole
	if role == "" {
		role = user.RoleAdmin
	}

	u, err := store.Create(ctx, user.User{
		Name:         cfg.AdminName,
		Email:        cfg.AdminEmail,
		PasswordHash: hash,
		Role:         role,
	})

	if errors.Is(err, user.ErrEmailAlreadyUsed) {
		// another instance won the race
		return nil
	}
	if err != nil {
		return err
	}

	slog.Default().InfoContext(ctx, "seeded admin user", "user_id", u.ID)
	return nil
}

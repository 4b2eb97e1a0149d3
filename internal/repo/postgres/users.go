package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/session"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, name, email, COALESCE(phone_number, ''), password_hash, role, COALESCE(token_version, 1), created_at, updated_at`

type UsersRepo struct {
	pool *pgxpool.Pool
	obs  DBObserver
}

func NewUsersRepo(pool *pgxpool.Pool, obs DBObserver) *UsersRepo {
	return &UsersRepo{pool: pool, obs: observerOrNoop(obs)}
}

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User

	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PhoneNumber,
		&u.PasswordHash,
		&u.Role,
		&u.TokenVersion,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User

	err := r.obs.ObserveDB("users.get_by_email", func() (err error) {
		u, err = scanUser(r.pool.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
		return notFoundIsOK(err, user.ErrNotFound)
	})
	if err != nil {
		return user.User{}, err
	}
	if u.ID == "" {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	var u user.User

	err := r.obs.ObserveDB("users.get_by_id", func() (err error) {
		u, err = scanUser(r.pool.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
		return notFoundIsOK(err, user.ErrNotFound)
	})
	if err != nil {
		return user.User{}, err
	}
	if u.ID == "" {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (r *UsersRepo) List(ctx context.Context) ([]user.User, error) {
	out := make([]user.User, 0)

	err := r.obs.ObserveDB("users.list", func() error {
		rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at ASC, id ASC`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			u, err := scanUser(rows)
			if err != nil {
				return err
			}
			out = append(out, u)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *UsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	now := time.Now().UTC()
	u.ID = uuid.NewString()
	u.TokenVersion = session.DefaultVersion
	u.CreatedAt = now
	u.UpdatedAt = now

	err := r.obs.ObserveDB("users.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO users (id, name, email, phone_number, password_hash, role, token_version, created_at, updated_at)
			VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9)`,
			u.ID, u.Name, u.Email, u.PhoneNumber, u.PasswordHash, u.Role, u.TokenVersion, u.CreatedAt, u.UpdatedAt,
		)
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrEmailAlreadyUsed
		}
		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) Update(ctx context.Context, id string, p user.Patch) (user.User, error) {
	sets := []string{"updated_at = NOW()"}
	args := []interface{}{id}

	add := func(col string, v *string) {
		if v == nil {
			return
		}
		args = append(args, *v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	add("name", p.Name)
	add("email", p.Email)
	add("password_hash", p.PasswordHash)
	add("phone_number", p.PhoneNumber)

	query := `UPDATE users SET ` + strings.Join(sets, ", ") + ` WHERE id = $1 RETURNING ` + userColumns

	var u user.User
	err := r.obs.ObserveDB("users.update", func() (err error) {
		u, err = scanUser(r.pool.QueryRow(ctx, query, args...))
		return notFoundIsOK(err, user.ErrNotFound)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrEmailAlreadyUsed
		}
		return user.User{}, err
	}
	if u.ID == "" {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (r *UsersRepo) Delete(ctx context.Context, id string) error {
	var affected int64

	err := r.obs.ObserveDB("users.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		affected = tag.RowsAffected()
		return err
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return user.ErrNotFound
	}
	return nil
}

// TokenVersion and IncrementTokenVersion make UsersRepo a session.VersionStore.

func (r *UsersRepo) TokenVersion(ctx context.Context, userID string) (int64, error) {
	var v int64

	err := r.obs.ObserveDB("users.token_version", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT COALESCE(token_version, 1) FROM users WHERE id = $1`, userID,
		).Scan(&v)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, session.ErrUnknownUser
		}
		return 0, err
	}
	return v, nil
}

// IncrementTokenVersion bumps in one statement; the row lock taken by
// UPDATE serialises racing logouts so no bump is lost.
func (r *UsersRepo) IncrementTokenVersion(ctx context.Context, userID string) (int64, error) {
	var v int64

	err := r.obs.ObserveDB("users.increment_token_version", func() error {
		return r.pool.QueryRow(ctx,
			`UPDATE users
			SET token_version = COALESCE(token_version, 1) + 1,
			    updated_at = NOW()
			WHERE id = $1
			RETURNING token_version`, userID,
		).Scan(&v)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, session.ErrUnknownUser
		}
		return 0, err
	}
	return v, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

// notFoundIsOK keeps "no rows" out of the DB error metrics.
func notFoundIsOK(err, notFound error) error {
	if errors.Is(err, notFound) {
		return nil
	}
	return err
}

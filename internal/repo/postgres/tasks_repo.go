package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/task"
	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/utils"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const taskColumns = `id, title, description, status, due_date, assigned_user_id, assigned_at, COALESCE(created_by::text, ''), created_at, updated_at`

type TasksRepo struct {
	pool *pgxpool.Pool
	obs  DBObserver
}

func NewTasksRepo(pool *pgxpool.Pool, obs DBObserver) *TasksRepo {
	return &TasksRepo{pool: pool, obs: observerOrNoop(obs)}
}

func scanTask(row pgx.Row) (task.Task, error) {
	var t task.Task

	err := row.Scan(
		&t.ID,
		&t.Title,
		&t.Description,
		&t.Status,
		&t.DueDate,
		&t.AssignedUserID,
		&t.AssignedAt,
		&t.CreatedBy,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return task.Task{}, task.ErrNotFound
		}
		return task.Task{}, err
	}
	return t, nil
}

func (r *TasksRepo) Create(ctx context.Context, t task.Task) (task.Task, error) {
	err := r.obs.ObserveDB("tasks.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO tasks (id, title, description, status, due_date, created_by, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, NULLIF($6, '')::uuid, $7, $8)`,
			t.ID, t.Title, t.Description, t.Status, t.DueDate, t.CreatedBy, t.CreatedAt, t.UpdatedAt,
		)
		return err
	})
	if err != nil {
		return task.Task{}, err
	}
	return t, nil
}

func (r *TasksRepo) GetByID(ctx context.Context, id string) (task.Task, error) {
	var t task.Task

	err := r.obs.ObserveDB("tasks.get_by_id", func() (err error) {
		t, err = scanTask(r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
		return notFoundIsOK(err, task.ErrNotFound)
	})
	if err != nil {
		return task.Task{}, err
	}
	if t.ID == "" {
		return task.Task{}, task.ErrNotFound
	}
	return t, nil
}

// List returns up to filter.Limit tasks after the cursor, newest first, and
// whether more rows exist past the page.
func (r *TasksRepo) List(ctx context.Context, filter task.ListFilter, after *utils.TaskCursor) ([]task.Task, bool, error) {
	var conds []string
	var args []interface{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}

	if filter.AssignedUserID != nil {
		args = append(args, *filter.AssignedUserID)
		conds = append(conds, fmt.Sprintf("assigned_user_id = $%d", len(args)))
	}

	if after != nil {
		args = append(args, after.CreatedAt, after.ID)
		conds = append(conds, fmt.Sprintf("(created_at, id) < ($%d, $%d)", len(args)-1, len(args)))
	}

	query := `SELECT ` + taskColumns + ` FROM tasks`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	// fetch one extra row to learn whether another page exists
	args = append(args, filter.Limit+1)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", len(args))

	out := make([]task.Task, 0, filter.Limit)

	err := r.obs.ObserveDB("tasks.list", func() error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			t, err := scanTask(rows)
			if err != nil {
				return err
			}
			out = append(out, t)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, false, err
	}

	hasMore := len(out) > filter.Limit
	if hasMore {
		out = out[:filter.Limit]
	}
	return out, hasMore, nil
}

func (r *TasksRepo) Update(ctx context.Context, id string, req task.UpdateTaskRequest) (task.Task, error) {
	var t task.Task

	err := r.obs.ObserveDB("tasks.update", func() (err error) {
		t, err = scanTask(r.pool.QueryRow(ctx,
			`UPDATE tasks
			SET title = $2,
			    description = $3,
			    due_date = $4,
			    status = $5,
			    updated_at = NOW()
			WHERE id = $1
			RETURNING `+taskColumns,
			id, req.Title, req.Description, req.DueDate, req.Status,
		))
		return notFoundIsOK(err, task.ErrNotFound)
	})
	if err != nil {
		return task.Task{}, err
	}
	if t.ID == "" {
		return task.Task{}, task.ErrNotFound
	}
	return t, nil
}

func (r *TasksRepo) Delete(ctx context.Context, id string) error {
	var affected int64

	err := r.obs.ObserveDB("tasks.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
		affected = tag.RowsAffected()
		return err
	})
	if err != nil {
		return err
	}
	// if no rows were deleted as a result return a not found error
	if affected == 0 {
		return task.ErrNotFound
	}
	return nil
}

// Assign returns user.ErrNotFound when the assignee does not exist.
func (r *TasksRepo) Assign(ctx context.Context, taskID, userID string) (task.Assignment, error) {
	a := task.Assignment{TaskID: taskID, UserID: userID}

	err := r.obs.ObserveDB("tasks.assign", func() error {
		err := r.pool.QueryRow(ctx,
			`UPDATE tasks
			SET assigned_user_id = $2,
			    assigned_at = $3,
			    updated_at = NOW()
			WHERE id = $1
			RETURNING assigned_at`,
			taskID, userID, time.Now().UTC(),
		).Scan(&a.AssignedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return task.ErrNotFound
		}
		if isForeignKeyViolation(err) {
			return user.ErrNotFound
		}
		return err
	})
	if err != nil {
		return task.Assignment{}, err
	}
	return a, nil
}

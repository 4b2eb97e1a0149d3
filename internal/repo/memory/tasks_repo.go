package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/task"
	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/utils"
)

// UserLookup is the slice of UsersRepo that assignment needs.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

type TasksRepo struct {
	mu    sync.RWMutex
	tasks map[string]task.Task
	users UserLookup
}

func NewTasksRepo(users UserLookup) *TasksRepo {
	return &TasksRepo{
		tasks: make(map[string]task.Task),
		users: users,
	}
}

func (r *TasksRepo) Create(_ context.Context, t task.Task) (task.Task, error) {
	r.mu.Lock()
	r.tasks[t.ID] = t
	r.mu.Unlock()

	return t, nil
}

func (r *TasksRepo) GetByID(_ context.Context, id string) (task.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tasks[id]
	if !ok {
		return task.Task{}, task.ErrNotFound
	}
	return t, nil
}

// newer first, id breaks ties, same as the SQL ordering
func taskBefore(a, b task.Task) bool {
	if a.CreatedAt.Equal(b.CreatedAt) {
		return a.ID > b.ID
	}
	return a.CreatedAt.After(b.CreatedAt)
}

func (r *TasksRepo) List(_ context.Context, filter task.ListFilter, after *utils.TaskCursor) ([]task.Task, bool, error) {
	r.mu.RLock()
	matched := make([]task.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.AssignedUserID != nil && (t.AssignedUserID == nil || *t.AssignedUserID != *filter.AssignedUserID) {
			continue
		}
		if after != nil && !taskBefore(task.Task{CreatedAt: after.CreatedAt, ID: after.ID}, t) {
			continue
		}
		matched = append(matched, t)
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return taskBefore(matched[i], matched[j]) })

	hasMore := len(matched) > filter.Limit
	if hasMore {
		matched = matched[:filter.Limit]
	}
	return matched, hasMore, nil
}

func (r *TasksRepo) Update(_ context.Context, id string, req task.UpdateTaskRequest) (task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return task.Task{}, task.ErrNotFound
	}

	t.Title = req.Title
	t.Description = req.Description
	t.DueDate = req.DueDate
	t.Status = req.Status
	t.UpdatedAt = time.Now().UTC()

	r.tasks[id] = t
	return t, nil
}

func (r *TasksRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[id]; !ok {
		return task.ErrNotFound
	}
	delete(r.tasks, id)
	return nil
}

func (r *TasksRepo) Assign(ctx context.Context, taskID, userID string) (task.Assignment, error) {
	if _, err := r.users.GetByID(ctx, userID); err != nil {
		return task.Assignment{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[taskID]
	if !ok {
		return task.Assignment{}, task.ErrNotFound
	}

	now := time.Now().UTC()
	uid := userID
	t.AssignedUserID = &uid
	t.AssignedAt = &now
	t.UpdatedAt = now
	r.tasks[taskID] = t

	return task.Assignment{TaskID: taskID, UserID: userID, AssignedAt: now}, nil
}

package task

import (
	"errors"
	"time"
)

const (
	StatusPending    = "pending"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
)

var ErrNotFound = errors.New("task not found")

func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

type Task struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	Status         string     `json:"status"`
	DueDate        *time.Time `json:"dueDate,omitempty"`
	AssignedUserID *string    `json:"assignedUserId,omitempty"`
	AssignedAt     *time.Time `json:"assignedAt,omitempty"`
	CreatedBy      string     `json:"createdBy,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

type Assignment struct {
	TaskID     string    `json:"taskId"`
	UserID     string    `json:"userId"`
	AssignedAt time.Time `json:"assignedAt"`
}

// with pointers if optional, it will be nil
type ListFilter struct {
	Status         *string
	AssignedUserID *string
	Limit          int
}

type CreateTaskRequest struct {
	Title       string    `json:"title" binding:"required,min=3,max=200"`
	Description string    `json:"description" binding:"required,max=2000"`
	DueDate     time.Time `json:"dueDate" binding:"required"`
	Status      string    `json:"status" binding:"omitempty,oneof=pending in-progress completed"`
}

// a full update payload
type UpdateTaskRequest struct {
	Title       string     `json:"title" binding:"required,min=3,max=200"`
	Description string     `json:"description" binding:"omitempty,max=2000"`
	DueDate     *time.Time `json:"dueDate"`
	Status      string     `json:"status" binding:"required,oneof=pending in-progress completed"`
}

type AssignRequest struct {
	UserID string `json:"userId" binding:"required,uuid"`
}

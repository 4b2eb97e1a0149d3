package task

import (
	"time"

	"github.com/google/uuid"
)

func NewFromCreateRequest(req CreateTaskRequest, createdBy string) Task {
	now := time.Now().UTC()

	status := req.Status
	if status == "" {
		status = StatusPending
	}

	due := req.DueDate.UTC()

	return Task{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Status:      status,
		DueDate:     &due,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

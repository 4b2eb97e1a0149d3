package utils

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// TaskCursor points at the last task of a page in (created_at DESC, id DESC) order.
type TaskCursor struct {
	CreatedAt time.Time `json:"createdAt"`
	ID        string    `json:"id"`
}

var ErrInvalidCursor = errors.New("invalid cursor")

func EncodeTaskCursor(createdAt time.Time, id string) (string, error) {
	b, err := json.Marshal(TaskCursor{CreatedAt: createdAt.UTC(), ID: id})
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func DecodeTaskCursor(cursor string) (TaskCursor, error) {
	if cursor == "" {
		return TaskCursor{}, ErrInvalidCursor
	}

	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return TaskCursor{}, ErrInvalidCursor
	}

	var c TaskCursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return TaskCursor{}, ErrInvalidCursor
	}
	if !IsUUID(c.ID) || c.CreatedAt.IsZero() {
		return TaskCursor{}, ErrInvalidCursor
	}
	return c, nil
}

func IsUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil && len(s) == 36
}

package user

import (
	"errors"
	"time"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

var (
	ErrNotFound         = errors.New("user not found")
	ErrEmailAlreadyUsed = errors.New("email already in use")
)

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PhoneNumber  string    `json:"phoneNumber,omitempty"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	Role         string    `json:"role"`
	TokenVersion int64     `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type CreateUserRequest struct {
	Name        string `json:"name" binding:"required,min=2,max=120"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8,max=72"`
	PhoneNumber string `json:"phoneNumber" binding:"omitempty,e164"`
	Role        string `json:"role" binding:"omitempty,oneof=admin user"`
}

// UpdateUserRequest is a partial update; nil fields are left untouched.
type UpdateUserRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=2,max=120"`
	Email       *string `json:"email" binding:"omitempty,email"`
	Password    *string `json:"password" binding:"omitempty,min=8,max=72"`
	PhoneNumber *string `json:"phoneNumber" binding:"omitempty,e164"`
}

func (r UpdateUserRequest) Empty() bool {
	return r.Name == nil && r.Email == nil && r.Password == nil && r.PhoneNumber == nil
}

// Patch is what the store applies on update; PasswordHash is already hashed.
type Patch struct {
	Name         *string
	Email        *string
	PasswordHash *string
	PhoneNumber  *string
}

package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/session"
	"github.com/google/uuid"
)

// UsersRepo is the in-process credential store backing the handler and
// router tests. Token versions live in an embedded session.MemoryStore so
// they follow the same rules as the Postgres column.
type UsersRepo struct {
	mu    sync.RWMutex
	users map[string]user.User

	*session.MemoryStore
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		users:       make(map[string]user.User),
		MemoryStore: session.NewMemoryStore(),
	}
}

func (r *UsersRepo) GetByEmail(_ context.Context, email string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	r.mu.RLock()
	u, ok := r.users[id]
	r.mu.RUnlock()

	if !ok {
		return user.User{}, user.ErrNotFound
	}

	if v, err := r.MemoryStore.TokenVersion(ctx, id); err == nil {
		u.TokenVersion = v
	}
	return u, nil
}

func (r *UsersRepo) List(_ context.Context) ([]user.User, error) {
	r.mu.RLock()
	out := make([]user.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *UsersRepo) Create(_ context.Context, u user.User) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return user.User{}, user.ErrEmailAlreadyUsed
		}
	}

	now := time.Now().UTC()
	u.ID = uuid.NewString()
	u.TokenVersion = session.DefaultVersion
	u.CreatedAt = now
	u.UpdatedAt = now

	r.users[u.ID] = u
	r.MemoryStore.Register(u.ID)

	return u, nil
}

func (r *UsersRepo) Update(_ context.Context, id string, p user.Patch) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	if p.Email != nil {
		for otherID, other := range r.users {
			if otherID != id && strings.EqualFold(other.Email, *p.Email) {
				return user.User{}, user.ErrEmailAlreadyUsed
			}
		}
		u.Email = *p.Email
	}
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.PasswordHash != nil {
		u.PasswordHash = *p.PasswordHash
	}
	if p.PhoneNumber != nil {
		u.PhoneNumber = *p.PhoneNumber
	}
	u.UpdatedAt = time.Now().UTC()

	r.users[id] = u
	return u, nil
}

func (r *UsersRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return user.ErrNotFound
	}

	delete(r.users, id)
	r.MemoryStore.Forget(id)
	return nil
}

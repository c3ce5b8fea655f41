package users

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo keeps users in process memory. It backs dev runs and any store
// without a users table.
type MemoryRepo struct {
	mu    sync.RWMutex
	users map[string]User
	Now   func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{users: make(map[string]User), Now: time.Now}
}

func (r *MemoryRepo) Upsert(ctx context.Context, user User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validate(user); err != nil {
		return err
	}
	now := r.Now().UTC()
	r.mu.Lock()
	defer r.mu.Unlock()
	user.CreatedAt = now
	if existing, ok := r.users[user.ID]; ok {
		user.CreatedAt = existing.CreatedAt
	}
	user.UpdatedAt = now
	r.users[user.ID] = user
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, userID string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	r.mu.RLock()
	user, ok := r.users[userID]
	r.mu.RUnlock()
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

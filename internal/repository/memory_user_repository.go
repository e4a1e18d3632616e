package repository

import (
	"context"
	"sync"
	"time"

	"github.com/spec-kit/auth-gate/internal/domain"
)

// MemoryUserRepository keeps users in process memory. It backs the service when
// no Postgres DSN is configured.
type MemoryUserRepository struct {
	mu         sync.RWMutex
	nextID     int64
	byID       map[int64]domain.User
	byUsername map[string]int64
}

// NewMemoryUserRepository returns an empty in-memory repository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:       make(map[int64]domain.User),
		byUsername: make(map[string]int64),
	}
}

func (r *MemoryUserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byUsername[user.Username]; taken {
		return ErrConflict
	}
	r.nextID++
	now := time.Now().UTC()
	user.ID = r.nextID
	user.CreatedAt = now
	user.UpdatedAt = now

	r.byID[user.ID] = *user
	r.byUsername[user.Username] = user.ID
	return nil
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (r *MemoryUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	id, ok := r.byUsername[username]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

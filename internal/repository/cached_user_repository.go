package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/auth-gate/internal/domain"
)

const userCacheKeyPrefix = "authgate:user:"

// cachedUser omits the password hash; cached entries only serve identity lookups.
type cachedUser struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type cachedUserRepository struct {
	UserRepository
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedUserRepository wraps inner with a read-through Redis cache for GetByID.
// Redis errors are logged and the lookup falls through to inner.
//
// A MemoryUserRepository is returned unwrapped: its IDs restart at 1 with the
// process while Redis entries outlive it, so cached users would not exist.
func NewCachedUserRepository(inner UserRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) UserRepository {
	if client == nil || ttl <= 0 {
		return inner
	}
	if _, volatile := inner.(*MemoryUserRepository); volatile {
		return inner
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &cachedUserRepository{UserRepository: inner, client: client, ttl: ttl, logger: logger}
}

func (r *cachedUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	key := userCacheKey(id)

	raw, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached cachedUser
		if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil {
			return &domain.User{
				ID:        cached.ID,
				Username:  cached.Username,
				CreatedAt: cached.CreatedAt,
				UpdatedAt: cached.UpdatedAt,
			}, nil
		}
		r.logger.Warn("discarding unreadable cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		r.logger.Warn("user cache read failed", zap.Error(err))
	}

	user, err := r.UserRepository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(cachedUser{
		ID:        user.ID,
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	})
	if err == nil {
		if err := r.client.Set(ctx, key, payload, r.ttl).Err(); err != nil {
			r.logger.Warn("user cache write failed", zap.Error(err))
		}
	}
	return user, nil
}

func userCacheKey(id int64) string {
	return userCacheKeyPrefix + strconv.FormatInt(id, 10)
}

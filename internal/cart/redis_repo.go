package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	redisclient "github.com/angelmondragon/marketplace-core/pkg/redis"
)

type redisStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CartKey(owner string) string
}

// RedisRepository stores each cart as one JSON value under pf:cart:<owner>.
type RedisRepository struct {
	store redisStore
	ttl   time.Duration
}

// NewRedisRepository builds a repository; a zero ttl keeps carts until overwritten.
func NewRedisRepository(store redisStore, ttl time.Duration) (*RedisRepository, error) {
	if store == nil {
		return nil, errors.New("redis store is required")
	}
	return &RedisRepository{store: store, ttl: ttl}, nil
}

func (r *RedisRepository) Load(ctx context.Context, owner string) (*Cart, error) {
	raw, err := r.store.Get(ctx, r.store.CartKey(owner))
	if err != nil {
		if errors.Is(err, redisclient.ErrNotFound) {
			return New(), nil
		}
		return nil, fmt.Errorf("load cart from redis: %w", err)
	}
	return Decode([]byte(raw))
}

func (r *RedisRepository) Save(ctx context.Context, owner string, c *Cart) error {
	blob, err := Encode(c)
	if err != nil {
		return err
	}
	if err := r.store.Set(ctx, r.store.CartKey(owner), string(blob), r.ttl); err != nil {
		return fmt.Errorf("save cart to redis: %w", err)
	}
	return nil
}

package theme

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/marketplace-core/pkg/enums"
	redisclient "github.com/angelmondragon/marketplace-core/pkg/redis"
)

// Store persists one mode per owner. Load reports ok=false when nothing was saved.
type Store interface {
	Load(ctx context.Context, owner string) (mode enums.ThemeMode, ok bool, err error)
	Save(ctx context.Context, owner string, mode enums.ThemeMode) error
}

// MemoryStore keeps preferences in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	modes map[string]enums.ThemeMode
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{modes: map[string]enums.ThemeMode{}}
}

func (s *MemoryStore) Load(ctx context.Context, owner string) (enums.ThemeMode, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	mode, ok := s.modes[owner]
	return mode, ok, nil
}

func (s *MemoryStore) Save(ctx context.Context, owner string, mode enums.ThemeMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modes[owner] = mode
	return nil
}

type redisStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	ThemeKey(owner string) string
}

// RedisStore keeps each preference under pf:theme:<owner> without expiry.
type RedisStore struct {
	store redisStore
}

func NewRedisStore(store redisStore) (*RedisStore, error) {
	if store == nil {
		return nil, errors.New("redis store is required")
	}
	return &RedisStore{store: store}, nil
}

func (s *RedisStore) Load(ctx context.Context, owner string) (enums.ThemeMode, bool, error) {
	raw, err := s.store.Get(ctx, s.store.ThemeKey(owner))
	if err != nil {
		if errors.Is(err, redisclient.ErrNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("load theme from redis: %w", err)
	}
	mode, err := enums.ParseThemeMode(raw)
	if err != nil {
		// stale or foreign value; treat as unset
		return "", false, nil
	}
	return mode, true, nil
}

func (s *RedisStore) Save(ctx context.Context, owner string, mode enums.ThemeMode) error {
	if err := s.store.Set(ctx, s.store.ThemeKey(owner), string(mode), 0); err != nil {
		return fmt.Errorf("save theme to redis: %w", err)
	}
	return nil
}

package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/marketplace-core/pkg/config"
	redisclient "github.com/angelmondragon/marketplace-core/pkg/redis"
)

// NewMemoryManager builds a Manager whose sessions live in process memory.
// Used when no Redis endpoint is configured.
func NewMemoryManager(cfg config.JWTConfig) (*Manager, error) {
	return newManager(newMemoryStore(time.Now), memoryKeyer{}, cfg)
}

type memoryKeyer struct{}

func (memoryKeyer) AccessSessionKey(accessID string) string {
	return "session:access:" + accessID
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

type memoryStore struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]memoryEntry
}

func newMemoryStore(now func() time.Time) *memoryStore {
	return &memoryStore{now: now, entries: map[string]memoryEntry{}}
}

func (s *memoryStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := memoryEntry{value: fmt.Sprint(value)}
	if ttl > 0 {
		entry.expiresAt = s.now().Add(ttl)
	}
	s.entries[key] = entry
	return nil
}

func (s *memoryStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[key]
	if !ok {
		return "", redisclient.ErrNotFound
	}
	if !entry.expiresAt.IsZero() && !s.now().Before(entry.expiresAt) {
		delete(s.entries, key)
		return "", redisclient.ErrNotFound
	}
	return entry.value, nil
}

func (s *memoryStore) Del(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.entries, key)
	}
	return nil
}

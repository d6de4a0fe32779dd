package cart

import (
	"context"
	"sync"
)

// Repository loads and saves whole cart aggregates keyed by owner.
// Saves are full snapshots, so retrying one is idempotent.
type Repository interface {
	Load(ctx context.Context, owner string) (*Cart, error)
	Save(ctx context.Context, owner string, c *Cart) error
}

// MemoryRepository keeps encoded carts in process memory.
type MemoryRepository struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{blobs: make(map[string][]byte)}
}

func (r *MemoryRepository) Load(ctx context.Context, owner string) (*Cart, error) {
	r.mu.RLock()
	blob := r.blobs[owner]
	r.mu.RUnlock()
	return Decode(blob)
}

func (r *MemoryRepository) Save(ctx context.Context, owner string, c *Cart) error {
	blob, err := Encode(c)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.blobs[owner] = blob
	r.mu.Unlock()
	return nil
}

// Raw returns the stored payload for owner.
func (r *MemoryRepository) Raw(owner string) ([]byte, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	blob, ok := r.blobs[owner]
	return blob, ok
}

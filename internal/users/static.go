package users

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/marketplace-core/pkg/config"
	"github.com/angelmondragon/marketplace-core/pkg/db/models"
	"github.com/google/uuid"
)

// StaticDirectory is an in-memory directory built from seeds.
type StaticDirectory struct {
	mu      sync.RWMutex
	byEmail map[string]*models.User
}

// NewStaticDirectory hashes every seed password and indexes the accounts by email.
func NewStaticDirectory(seeds []Seed, cfg config.PasswordConfig) (*StaticDirectory, error) {
	d := &StaticDirectory{byEmail: make(map[string]*models.User, len(seeds))}
	now := time.Now().UTC()
	for _, seed := range seeds {
		dto, err := seed.toCreateDTO(cfg)
		if err != nil {
			return nil, err
		}
		user := dto.ToModel()
		if _, dup := d.byEmail[user.Email]; dup {
			return nil, fmt.Errorf("duplicate seed email %s", user.Email)
		}
		user.ID = uuid.New()
		user.CreatedAt = now
		user.UpdatedAt = now
		d.byEmail[user.Email] = user
	}
	return d, nil
}

func (d *StaticDirectory) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	user, ok := d.byEmail[NormalizeEmail(email)]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (d *StaticDirectory) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, user := range d.byEmail {
		if user.ID == id {
			ts := at
			user.LastLoginAt = &ts
			return nil
		}
	}
	return ErrNotFound
}

package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/marketplace-core/pkg/config"
	redisclient "github.com/angelmondragon/marketplace-core/pkg/redis"
	"github.com/google/uuid"
)

// ErrMissingAccessID is returned for blank jti values.
var ErrMissingAccessID = errors.New("access id is required")

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type sessionKeyer interface {
	AccessSessionKey(accessID string) string
}

// AccessSessionChecker is the read-only surface the auth middleware needs.
type AccessSessionChecker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

// Manager registers, checks and revokes login sessions keyed by the JWT jti.
// A token whose session is gone is rejected even before it expires.
type Manager struct {
	store sessionStore
	keyer sessionKeyer
	ttl   time.Duration
}

// NewManager keeps sessions in redis so every replica sees revocations.
func NewManager(client *redisclient.Client, cfg config.JWTConfig) (*Manager, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	return newManager(client, client, cfg)
}

func newManager(store sessionStore, keyer sessionKeyer, cfg config.JWTConfig) (*Manager, error) {
	ttl := cfg.SessionTTL()
	if ttl <= 0 {
		return nil, errors.New("session ttl must be positive")
	}
	if tokenTTL := time.Duration(cfg.ExpirationMinutes) * time.Minute; ttl < tokenTTL {
		return nil, fmt.Errorf("session ttl (%s) must cover access token ttl (%s)", ttl, tokenTTL)
	}
	return &Manager{store: store, keyer: keyer, ttl: ttl}, nil
}

func (m *Manager) key(accessID string) (string, error) {
	if strings.TrimSpace(accessID) == "" {
		return "", ErrMissingAccessID
	}
	return m.keyer.AccessSessionKey(accessID), nil
}

// Generate registers accessID with the owning user id as its value.
func (m *Manager) Generate(ctx context.Context, accessID, userID string) error {
	k, err := m.key(accessID)
	if err != nil {
		return err
	}
	return m.store.Set(ctx, k, userID, m.ttl)
}

func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	k, err := m.key(accessID)
	if err != nil {
		return err
	}
	return m.store.Del(ctx, k)
}

// HasSession reports false, nil for unknown or expired sessions; store
// failures are returned as errors.
func (m *Manager) HasSession(ctx context.Context, accessID string) (bool, error) {
	k, err := m.key(accessID)
	if err != nil {
		return false, err
	}
	_, err = m.store.Get(ctx, k)
	switch {
	case errors.Is(err, redisclient.ErrNotFound):
		return false, nil
	case err != nil:
		return false, err
	}
	return true, nil
}

// NewAccessID mints the jti that doubles as the session key.
func NewAccessID() string {
	return uuid.NewString()
}

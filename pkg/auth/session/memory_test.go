package session

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/marketplace-core/pkg/config"
)

func TestMemoryManagerLifecycle(t *testing.T) {
	mgr, err := NewMemoryManager(config.JWTConfig{SessionTTLMinutes: 5})
	if err != nil {
		t.Fatalf("new memory manager: %v", err)
	}
	ctx := context.Background()
	id := NewAccessID()

	if err := mgr.Generate(ctx, id, "user-1"); err != nil {
		t.Fatalf("generate: %v", err)
	}
	ok, err := mgr.HasSession(ctx, id)
	if err != nil || !ok {
		t.Fatalf("expected active session, got %v %v", ok, err)
	}
	if err := mgr.Revoke(ctx, id); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if ok, _ := mgr.HasSession(ctx, id); ok {
		t.Fatal("session should be gone after revoke")
	}
}

func TestMemoryStoreExpires(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store := newMemoryStore(func() time.Time { return now })
	ctx := context.Background()

	if err := store.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got, err := store.Get(ctx, "k"); err != nil || got != "v" {
		t.Fatalf("expected v, got %q %v", got, err)
	}
	now = now.Add(time.Minute)
	if _, err := store.Get(ctx, "k"); err == nil {
		t.Fatal("expected expired key to be missing")
	}
}

func TestNewMemoryManagerRequiresTTL(t *testing.T) {
	if _, err := NewMemoryManager(config.JWTConfig{}); err == nil {
		t.Fatal("expected error for zero ttl")
	}
}

package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/marketplace-core/internal/access"
	"github.com/angelmondragon/marketplace-core/internal/users"
	pkgAuth "github.com/angelmondragon/marketplace-core/pkg/auth"
	"github.com/angelmondragon/marketplace-core/pkg/config"
	"github.com/angelmondragon/marketplace-core/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketplace-core/pkg/errors"
	"github.com/google/uuid"
)

var testPasswordCfg = config.PasswordConfig{
	ArgonMemoryKB:    8192,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

var testJWTCfg = config.JWTConfig{
	Secret:            "secret",
	Issuer:            "marketplace",
	ExpirationMinutes: 30,
}

type stubSessions struct {
	mu          sync.Mutex
	generated   map[string]string
	revoked     []string
	generateErr error
}

func newStubSessions() *stubSessions {
	return &stubSessions{generated: map[string]string{}}
}

func (s *stubSessions) Generate(ctx context.Context, accessID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generateErr != nil {
		return s.generateErr
	}
	s.generated[accessID] = userID
	return nil
}

func (s *stubSessions) Revoke(ctx context.Context, accessID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked = append(s.revoked, accessID)
	delete(s.generated, accessID)
	return nil
}

type stubCarts struct {
	reset []string
}

func (s *stubCarts) Reset(ctx context.Context, owner string) error {
	s.reset = append(s.reset, owner)
	return nil
}

func buildTestService(t *testing.T, sessions *stubSessions, carts *stubCarts) (Service, *users.StaticDirectory) {
	t.Helper()
	dir, err := users.NewStaticDirectory(users.DefaultSeeds(), testPasswordCfg)
	if err != nil {
		t.Fatalf("static directory: %v", err)
	}
	fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	params := ServiceParams{
		Directory:      dir,
		SessionManager: sessions,
		JWTConfig:      testJWTCfg,
		Now:            func() time.Time { return fixed },
	}
	if carts != nil {
		params.Carts = carts
	}
	svc, err := NewService(params)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, dir
}

func TestServiceLoginMintsTokenAndRegistersSession(t *testing.T) {
	sessions := newStubSessions()
	svc, dir := buildTestService(t, sessions, nil)

	resp, err := svc.Login(context.Background(), LoginRequest{Email: "vendor@market.test", Password: "vendor123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTCfg, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.Role != enums.RoleVendor {
		t.Fatalf("expected vendor role claim, got %s", claims.Role)
	}
	if _, ok := sessions.generated[claims.ID]; !ok {
		t.Fatalf("expected session %s to be registered", claims.ID)
	}
	if resp.TokenType != "Bearer" {
		t.Fatalf("unexpected token type %q", resp.TokenType)
	}
	if want := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC); !resp.ExpiresAt.Equal(want) {
		t.Fatalf("expected expiry %v, got %v", want, resp.ExpiresAt)
	}
	if resp.User == nil || resp.User.Email != "vendor@market.test" {
		t.Fatalf("unexpected user %+v", resp.User)
	}

	stored, err := dir.FindByEmail(context.Background(), "vendor@market.test")
	if err != nil {
		t.Fatalf("find user: %v", err)
	}
	if stored.LastLoginAt == nil {
		t.Fatal("expected last login to be recorded")
	}
}

func TestServiceLoginRejectsBadCredentials(t *testing.T) {
	sessions := newStubSessions()
	svc, _ := buildTestService(t, sessions, nil)

	_, err := svc.Login(context.Background(), LoginRequest{Email: "vendor@market.test", Password: "wrong"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if len(sessions.generated) != 0 {
		t.Fatal("no session should be registered on failure")
	}
}

func TestServiceLoginSessionStoreFailure(t *testing.T) {
	sessions := newStubSessions()
	sessions.generateErr = errors.New("redis down")
	svc, _ := buildTestService(t, sessions, nil)

	_, err := svc.Login(context.Background(), LoginRequest{Email: "customer@market.test", Password: "customer123"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestServiceLogoutRevokesAndResetsCart(t *testing.T) {
	sessions := newStubSessions()
	carts := &stubCarts{}
	svc, _ := buildTestService(t, sessions, carts)

	userID := uuid.New()
	sess, err := access.Restore(userID, "customer@market.test", enums.RoleCustomer, "jti-9")
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if err := svc.Logout(context.Background(), sess); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(sessions.revoked) != 1 || sessions.revoked[0] != "jti-9" {
		t.Fatalf("expected jti-9 revoked, got %v", sessions.revoked)
	}
	if len(carts.reset) != 1 || carts.reset[0] != userID.String() {
		t.Fatalf("expected cart reset for %s, got %v", userID, carts.reset)
	}
}

func TestServiceLogoutRequiresAuthentication(t *testing.T) {
	svc, _ := buildTestService(t, newStubSessions(), nil)
	if err := svc.Logout(context.Background(), access.Anonymous()); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	if _, err := NewService(ServiceParams{SessionManager: newStubSessions()}); err == nil {
		t.Fatal("expected directory to be required")
	}
	dir, _ := users.NewStaticDirectory(nil, testPasswordCfg)
	if _, err := NewService(ServiceParams{Directory: dir}); err == nil {
		t.Fatal("expected session manager to be required")
	}
}

package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/marketplace-core/internal/access"
	"github.com/angelmondragon/marketplace-core/internal/users"
	pkgAuth "github.com/angelmondragon/marketplace-core/pkg/auth"
	"github.com/angelmondragon/marketplace-core/pkg/auth/session"
	"github.com/angelmondragon/marketplace-core/pkg/config"
	pkgerrors "github.com/angelmondragon/marketplace-core/pkg/errors"
	"github.com/angelmondragon/marketplace-core/pkg/logger"
)

const tokenTypeBearer = "Bearer"

// Service defines the behavior needed by the auth controller.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Logout(ctx context.Context, s access.Session) error
}

type service struct {
	directory users.Directory
	session   sessionManager
	carts     cartResetter
	jwtCfg    config.JWTConfig
	logg      *logger.Logger
	now       func() time.Time
}

type sessionManager interface {
	Generate(ctx context.Context, accessID, userID string) error
	Revoke(ctx context.Context, accessID string) error
}

type cartResetter interface {
	Reset(ctx context.Context, owner string) error
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Directory      users.Directory
	SessionManager sessionManager
	Carts          cartResetter
	JWTConfig      config.JWTConfig
	Logger         *logger.Logger
	Now            func() time.Time
}

// NewService constructs a login service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Directory == nil {
		return nil, fmt.Errorf("user directory is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		directory: params.Directory,
		session:   params.SessionManager,
		carts:     params.Carts,
		jwtCfg:    params.JWTConfig,
		logg:      params.Logger,
		now:       now,
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	var gate access.Session
	user, err := gate.Authenticate(ctx, s.directory, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if err := s.directory.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update last login")
	}
	user.LastLoginAt = &now

	accessID := session.NewAccessID()
	token, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		JTI:    accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	if err := s.session.Generate(ctx, accessID, user.ID.String()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "register session")
	}
	gate.BindSessionID(accessID)

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"user_id":    user.ID.String(),
			"actor_role": string(user.Role),
			"session_id": accessID,
		})
		s.logg.Info(logCtx, "user logged in")
	}

	return &LoginResponse{
		AccessToken: token,
		TokenType:   tokenTypeBearer,
		ExpiresAt:   now.Add(time.Duration(s.jwtCfg.ExpirationMinutes) * time.Minute),
		User:        users.FromModel(user),
	}, nil
}

// Logout revokes the server-side session and evicts the owner's in-memory cart.
// The persisted cart survives so the next login sees it again.
func (s *service) Logout(ctx context.Context, sess access.Session) error {
	if !sess.IsAuthenticated() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "not authenticated")
	}
	if id := strings.TrimSpace(sess.SessionID()); id != "" {
		if err := s.session.Revoke(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
		}
	}
	if s.carts != nil {
		if err := s.carts.Reset(ctx, sess.Owner()); err != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithCartOwner(ctx, sess.Owner()), "cart flush on logout failed: "+err.Error())
		}
	}
	return nil
}

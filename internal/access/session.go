package access

import (
	"context"
	"errors"
	"strings"

	"github.com/angelmondragon/marketplace-core/internal/users"
	"github.com/angelmondragon/marketplace-core/pkg/db/models"
	"github.com/angelmondragon/marketplace-core/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketplace-core/pkg/errors"
	"github.com/angelmondragon/marketplace-core/pkg/security"
	"github.com/google/uuid"
)

const invalidCredentialsMessage = "invalid credentials"

// Directory is the lookup surface Authenticate needs.
type Directory interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// Session is the caller's identity. The zero value is anonymous.
type Session struct {
	userID    uuid.UUID
	email     string
	role      enums.Role
	sessionID string
}

// Anonymous returns a session with no role.
func Anonymous() Session {
	return Session{}
}

// Restore rebuilds an authenticated session from verified token claims.
func Restore(userID uuid.UUID, email string, role enums.Role, sessionID string) (Session, error) {
	if userID == uuid.Nil || !role.IsValid() {
		return Session{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid session")
	}
	return Session{userID: userID, email: email, role: role, sessionID: sessionID}, nil
}

// Authenticate checks the credentials against dir and moves the session to
// authenticated(role). On failure the session is left unchanged.
func (s *Session) Authenticate(ctx context.Context, dir Directory, email, password string) (*models.User, error) {
	if dir == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "directory is required")
	}
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	user, err := dir.FindByEmail(ctx, users.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			security.VerifyDecoy(password)
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}

	valid, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid || !user.IsActive || !user.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	s.userID = user.ID
	s.email = user.Email
	s.role = user.Role
	s.sessionID = ""
	return user, nil
}

// BindSessionID records the server-side session identifier (JWT jti).
func (s *Session) BindSessionID(id string) {
	if s.IsAuthenticated() {
		s.sessionID = id
	}
}

// Logout returns the session to anonymous.
func (s *Session) Logout() {
	*s = Session{}
}

func (s Session) IsAuthenticated() bool {
	return s.role != ""
}

// CurrentRole returns the role and whether the session is authenticated.
func (s Session) CurrentRole() (enums.Role, bool) {
	if !s.IsAuthenticated() {
		return "", false
	}
	return s.role, true
}

// HasAccess reports whether the session holds one of required. An empty
// required set admits any authenticated session; anonymous sessions never pass.
func (s Session) HasAccess(required ...enums.Role) bool {
	role, ok := s.CurrentRole()
	if !ok {
		return false
	}
	if len(required) == 0 {
		return true
	}
	for _, candidate := range required {
		if candidate == role {
			return true
		}
	}
	return false
}

func (s Session) UserID() uuid.UUID {
	return s.userID
}

func (s Session) Email() string {
	return s.email
}

func (s Session) SessionID() string {
	return s.sessionID
}

// Owner is the key under which this session's cart and preferences are stored.
func (s Session) Owner() string {
	if !s.IsAuthenticated() {
		return ""
	}
	return s.userID.String()
}

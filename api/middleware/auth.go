package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/marketplace-core/api/responses"
	"github.com/angelmondragon/marketplace-core/internal/access"
	pkgAuth "github.com/angelmondragon/marketplace-core/pkg/auth"
	"github.com/angelmondragon/marketplace-core/pkg/auth/session"
	"github.com/angelmondragon/marketplace-core/pkg/config"
	pkgerrors "github.com/angelmondragon/marketplace-core/pkg/errors"
	"github.com/angelmondragon/marketplace-core/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the
// authenticated access.Session. A nil verifier skips the revocation check.
func Auth(cfg config.JWTConfig, verifier session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := authenticate(r.Context(), cfg, verifier, bearerToken(r))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := access.WithSession(r.Context(), sess)
			if logg != nil {
				ctx = logg.WithSession(ctx, sess.SessionID(), RoleFromContext(ctx), sess.Owner())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func authenticate(ctx context.Context, cfg config.JWTConfig, verifier session.AccessSessionChecker, token string) (access.Session, error) {
	if token == "" {
		return access.Anonymous(), pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	claims, err := pkgAuth.ParseAccessToken(cfg, token)
	if err != nil {
		return access.Anonymous(), pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}
	if claims.ID == "" {
		return access.Anonymous(), pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id")
	}
	if verifier != nil {
		live, err := verifier.HasSession(ctx, claims.ID)
		switch {
		case err != nil:
			return access.Anonymous(), pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session")
		case !live:
			return access.Anonymous(), pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable")
		}
	}
	return access.Restore(claims.UserID, claims.Email, claims.Role, claims.ID)
}

// bearerToken accepts both "Bearer <jwt>" and a bare token.
func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if scheme, rest, ok := strings.Cut(raw, " "); ok && strings.EqualFold(scheme, "bearer") {
		return strings.TrimSpace(rest)
	}
	return raw
}

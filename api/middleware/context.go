package middleware

import (
	"context"

	"github.com/angelmondragon/marketplace-core/internal/access"
)

// OwnerFromContext returns the cart/preference owner of the authenticated
// caller, or "" for anonymous requests.
func OwnerFromContext(ctx context.Context) string {
	return access.FromContext(ctx).Owner()
}

func RoleFromContext(ctx context.Context) string {
	role, _ := access.FromContext(ctx).CurrentRole()
	return string(role)
}

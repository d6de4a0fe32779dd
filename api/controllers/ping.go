package controllers

import (
	"net/http"

	"github.com/angelmondragon/marketplace-core/api/middleware"
	"github.com/angelmondragon/marketplace-core/api/responses"
)

// RolePing answers the role-gated views (admin, vendor, rider) with the
// scope and the caller's role.
func RolePing(scope string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{
			"scope":  scope,
			"status": "ok",
			"role":   middleware.RoleFromContext(r.Context()),
		})
	}
}

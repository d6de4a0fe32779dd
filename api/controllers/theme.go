package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/marketplace-core/api/middleware"
	"github.com/angelmondragon/marketplace-core/api/responses"
	"github.com/angelmondragon/marketplace-core/api/validators"
	"github.com/angelmondragon/marketplace-core/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketplace-core/pkg/errors"
	"github.com/angelmondragon/marketplace-core/pkg/logger"
)

// ThemeService is the preference surface used by the theme handlers.
type ThemeService interface {
	Get(ctx context.Context, owner string) enums.ThemeMode
	Set(ctx context.Context, owner string, mode enums.ThemeMode) (enums.ThemeMode, error)
	Toggle(ctx context.Context, owner string) (enums.ThemeMode, error)
}

type ThemeRequest struct {
	Mode string `json:"mode" validate:"required,oneof=light dark system"`
}

func ThemeGet(svc ThemeService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := themeOwner(w, r, svc, logg)
		if !ok {
			return
		}
		responses.WriteSuccess(w, map[string]string{"mode": string(svc.Get(r.Context(), owner))})
	}
}

func ThemeSet(svc ThemeService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := themeOwner(w, r, svc, logg)
		if !ok {
			return
		}
		var body ThemeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		mode, err := svc.Set(r.Context(), owner, enums.ThemeMode(body.Mode))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"mode": string(mode)})
	}
}

func ThemeToggle(svc ThemeService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := themeOwner(w, r, svc, logg)
		if !ok {
			return
		}
		mode, err := svc.Toggle(r.Context(), owner)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"mode": string(mode)})
	}
}

func themeOwner(w http.ResponseWriter, r *http.Request, svc ThemeService, logg *logger.Logger) (string, bool) {
	if svc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "theme service unavailable"))
		return "", false
	}
	owner := middleware.OwnerFromContext(r.Context())
	if owner == "" {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
		return "", false
	}
	return owner, true
}

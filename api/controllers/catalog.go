package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/marketplace-core/api/responses"
	"github.com/angelmondragon/marketplace-core/api/validators"
	"github.com/angelmondragon/marketplace-core/internal/catalog"
	pkgerrors "github.com/angelmondragon/marketplace-core/pkg/errors"
	"github.com/angelmondragon/marketplace-core/pkg/logger"
)

const maxCatalogPage = 100

// CatalogList returns products, optionally filtered by ?vendorId= and capped by ?limit=.
func CatalogList(reader catalog.Reader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if reader == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", maxCatalogPage, 1, maxCatalogPage)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		vendorID := validators.SanitizeString(r.URL.Query().Get("vendorId"), 64)
		products, err := reader.List(r.Context(), vendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if len(products) > limit {
			products = products[:limit]
		}
		responses.WriteSuccess(w, products)
	}
}

func CatalogGet(reader catalog.Reader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if reader == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}
		id := strings.TrimSpace(chi.URLParam(r, "productId"))
		product, err := reader.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

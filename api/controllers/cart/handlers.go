package cart

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/marketplace-core/api/middleware"
	"github.com/angelmondragon/marketplace-core/api/responses"
	"github.com/angelmondragon/marketplace-core/api/validators"
	cartsvc "github.com/angelmondragon/marketplace-core/internal/cart"
	"github.com/angelmondragon/marketplace-core/internal/catalog"
	pkgerrors "github.com/angelmondragon/marketplace-core/pkg/errors"
	"github.com/angelmondragon/marketplace-core/pkg/logger"
)

// Service is the cart surface the handlers need.
type Service interface {
	Get(ctx context.Context, owner string) (cartsvc.View, error)
	AddItem(ctx context.Context, owner string, p cartsvc.Product, quantity int, opts []cartsvc.SelectedOption) (cartsvc.View, error)
	RemoveItem(ctx context.Context, owner, lineID string) (cartsvc.View, error)
	UpdateQuantity(ctx context.Context, owner, lineID string, quantity int) (cartsvc.View, error)
	Clear(ctx context.Context, owner string) (cartsvc.View, error)
}

// CartFetch returns the caller's cart.
func CartFetch(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := ownerOrFail(w, r, svc, logg)
		if !ok {
			return
		}
		view, err := svc.Get(r.Context(), owner)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(view))
	}
}

// CartAddItem snapshots the catalog product and merges it into the cart.
func CartAddItem(svc Service, products catalog.Reader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := ownerOrFail(w, r, svc, logg)
		if !ok {
			return
		}
		if products == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}

		var body AddItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := products.Get(r.Context(), body.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !product.Available {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product is not available").
				WithDetails(map[string]any{"productId": product.ID}))
			return
		}

		view, err := svc.AddItem(r.Context(), owner, product.CartProduct(), body.Quantity, toSelectedOptions(body.SelectedOptions))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newCartResponse(view))
	}
}

// CartUpdateQuantity sets a line's quantity exactly.
func CartUpdateQuantity(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := ownerOrFail(w, r, svc, logg)
		if !ok {
			return
		}
		var body UpdateQuantityRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.UpdateQuantity(r.Context(), owner, chi.URLParam(r, "lineId"), *body.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(view))
	}
}

// CartRemoveItem deletes a line; unknown ids leave the cart unchanged.
func CartRemoveItem(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := ownerOrFail(w, r, svc, logg)
		if !ok {
			return
		}
		view, err := svc.RemoveItem(r.Context(), owner, chi.URLParam(r, "lineId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(view))
	}
}

func CartClear(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := ownerOrFail(w, r, svc, logg)
		if !ok {
			return
		}
		view, err := svc.Clear(r.Context(), owner)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(view))
	}
}

func ownerOrFail(w http.ResponseWriter, r *http.Request, svc Service, logg *logger.Logger) (string, bool) {
	if svc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
		return "", false
	}
	owner := middleware.OwnerFromContext(r.Context())
	if owner == "" {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
		return "", false
	}
	return owner, true
}

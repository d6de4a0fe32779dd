package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/marketplace-core/api/middleware"
	"github.com/angelmondragon/marketplace-core/api/responses"
	"github.com/angelmondragon/marketplace-core/api/validators"
	"github.com/angelmondragon/marketplace-core/internal/cart"
	"github.com/angelmondragon/marketplace-core/internal/checkout"
	"github.com/angelmondragon/marketplace-core/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketplace-core/pkg/errors"
	"github.com/angelmondragon/marketplace-core/pkg/logger"
)

// CheckoutService is the checkout surface used by the handler.
type CheckoutService interface {
	Checkout(ctx context.Context, owner string, currency enums.Currency) (*checkout.Receipt, error)
}

// CheckoutRequest is optional; an empty body uses the configured currency.
type CheckoutRequest struct {
	Currency string `json:"currency" validate:"omitempty,len=3"`
}

type CheckoutResponse struct {
	OrderID     string    `json:"orderId"`
	Total       string    `json:"total"`
	Currency    string    `json:"currency"`
	ItemCount   int       `json:"itemCount"`
	ProviderRef string    `json:"providerRef"`
	PaidAt      time.Time `json:"paidAt"`
}

func Checkout(svc CheckoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		owner := middleware.OwnerFromContext(r.Context())
		if owner == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		var body CheckoutRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		var currency enums.Currency
		if body.Currency != "" {
			parsed, err := enums.ParseCurrency(body.Currency)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unsupported currency"))
				return
			}
			currency = parsed
		}

		receipt, err := svc.Checkout(r.Context(), owner, currency)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, CheckoutResponse{
			OrderID:     receipt.OrderID,
			Total:       cart.FormatAmount(receipt.Total),
			Currency:    string(receipt.Currency),
			ItemCount:   receipt.ItemCount,
			ProviderRef: receipt.ProviderRef,
			PaidAt:      receipt.PaidAt,
		})
	}
}

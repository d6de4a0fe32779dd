package checkout

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/angelmondragon/marketplace-core/internal/cart"
	"github.com/angelmondragon/marketplace-core/internal/events"
	"github.com/angelmondragon/marketplace-core/internal/payment"
	"github.com/angelmondragon/marketplace-core/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketplace-core/pkg/errors"
	"github.com/angelmondragon/marketplace-core/pkg/logger"
	"github.com/angelmondragon/marketplace-core/pkg/metrics"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	outcomeSucceeded = "succeeded"
	outcomeDeclined  = "declined"
	outcomeEmpty     = "empty"
	outcomeError     = "error"
)

type cartMutator interface {
	Mutate(ctx context.Context, owner, op string, fn func(c *cart.Cart) (bool, error)) (cart.View, error)
}

// Receipt describes a paid order.
type Receipt struct {
	OrderID         string                `json:"orderId"`
	Owner           string                `json:"owner"`
	Total           decimal.Decimal       `json:"total"`
	Currency        enums.Currency        `json:"currency"`
	ItemCount       int                   `json:"itemCount"`
	Lines           []cart.Line           `json:"-"`
	VendorSubtotals []cart.VendorSubtotal `json:"-"`
	ProviderRef     string                `json:"providerRef"`
	PaidAt          time.Time             `json:"paidAt"`
}

// ServiceParams wires the checkout service.
type ServiceParams struct {
	Carts           cartMutator
	Payments        payment.Provider
	Events          events.Publisher
	Metrics         *metrics.CheckoutMetrics
	Logger          *logger.Logger
	DefaultCurrency enums.Currency
	Now             func() time.Time
}

// Service charges the cart total and clears the cart once payment succeeds.
type Service struct {
	carts    cartMutator
	payments payment.Provider
	events   events.Publisher
	metrics  *metrics.CheckoutMetrics
	logg     *logger.Logger
	currency enums.Currency
	now      func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Carts == nil {
		return nil, errors.New("cart service is required")
	}
	if params.Payments == nil {
		return nil, errors.New("payment provider is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	publisher := params.Events
	if publisher == nil {
		publisher = events.NewNoopPublisher(params.Logger)
	}
	currency := params.DefaultCurrency
	if currency == "" {
		currency = enums.CurrencyUSD
	}
	if !currency.IsValid() {
		return nil, errors.New("default currency is not supported")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		carts:    params.Carts,
		payments: params.Payments,
		events:   publisher,
		metrics:  params.Metrics,
		logg:     params.Logger,
		currency: currency,
		now:      now,
	}, nil
}

// Checkout charges the owner's cart total in currency (empty uses the
// default). The charge runs under the owner's cart lock so the amount paid is
// exactly the cart that gets cleared. A declined payment leaves the cart as is.
func (s *Service) Checkout(ctx context.Context, owner string, currency enums.Currency) (*Receipt, error) {
	if strings.TrimSpace(string(currency)) == "" {
		currency = s.currency
	}
	if !currency.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported currency").
			WithDetails(map[string]any{"currency": string(currency)})
	}
	ctx = s.logg.WithCartOwner(ctx, owner)

	var receipt *Receipt
	_, err := s.carts.Mutate(ctx, owner, "checkout", func(c *cart.Cart) (bool, error) {
		if c.IsEmpty() {
			s.metrics.IncOutcome(outcomeEmpty)
			return false, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		orderID := uuid.NewString()
		total := c.Total()
		result, err := s.payments.Charge(ctx, payment.ChargeRequest{
			Reference: orderID,
			Amount:    total,
			Currency:  currency,
		})
		if err != nil {
			s.metrics.IncOutcome(outcomeError)
			return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment provider unavailable")
		}
		if !result.Succeeded() {
			s.metrics.IncOutcome(outcomeDeclined)
			return false, pkgerrors.New(pkgerrors.CodeStateConflict, "payment declined").
				WithDetails(map[string]any{"reason": result.Reason, "providerRef": result.ProviderRef})
		}

		receipt = &Receipt{
			OrderID:         orderID,
			Owner:           owner,
			Total:           total,
			Currency:        currency,
			ItemCount:       c.Count(),
			Lines:           c.Lines(),
			VendorSubtotals: c.SubtotalsByVendor(),
			ProviderRef:     result.ProviderRef,
			PaidAt:          s.now().UTC(),
		}
		c.Clear()
		s.metrics.IncOutcome(outcomeSucceeded)
		return true, nil
	})
	if err != nil {
		if receipt == nil {
			return nil, err
		}
		// Charged and cleared in memory; the cleared cart is retried by the next save.
		s.logg.Error(ctx, "checkout.cart_persist_failed", err)
	}

	s.publishOrderPlaced(ctx, receipt)
	return receipt, nil
}

func (s *Service) publishOrderPlaced(ctx context.Context, r *Receipt) {
	vendors := make([]events.VendorLineTotal, 0, len(r.VendorSubtotals))
	for _, v := range r.VendorSubtotals {
		vendors = append(vendors, events.VendorLineTotal{VendorID: v.VendorID, Subtotal: v.Subtotal, Count: v.Count})
	}
	event := events.NewOrderPlaced(events.OrderPlaced{
		OrderID:     r.OrderID,
		Owner:       r.Owner,
		Total:       r.Total,
		Currency:    r.Currency,
		ItemCount:   r.ItemCount,
		ProviderRef: r.ProviderRef,
		Vendors:     vendors,
	}, r.PaidAt)

	if err := s.events.Publish(ctx, event); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "order_id", r.OrderID), "checkout.event_publish_failed", err)
		return
	}
	s.logg.Info(s.logg.WithField(ctx, "order_id", r.OrderID), "order placed")
}

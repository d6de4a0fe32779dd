package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/marketplace-core/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Decline reasons reported by FakeProvider.
const (
	ReasonLimitExceeded = "amount_over_limit"
	ReasonCardDeclined  = "card_declined"
)

// ChargeRequest is one payment attempt.
type ChargeRequest struct {
	Reference string
	Amount    decimal.Decimal
	Currency  enums.Currency
}

// Result is the provider verdict. Reason is set only for failed charges.
type Result struct {
	Status      enums.PaymentStatus
	ProviderRef string
	Reason      string
}

func (r Result) Succeeded() bool {
	return r.Status == enums.PaymentStatusSucceeded
}

// Provider charges an amount. A returned error means the provider could not be
// reached; a declined charge is a Result with failed status.
type Provider interface {
	Charge(ctx context.Context, req ChargeRequest) (Result, error)
}

var magicDeclineAmount = decimal.RequireFromString("13.13")

// FakeProvider approves everything except amounts above its limit and the
// amount 13.13, so tests can trigger declines on purpose.
type FakeProvider struct {
	declineAbove decimal.Decimal
}

// NewFakeProvider parses the decline limit; an empty limit disables it.
func NewFakeProvider(declineAbove string) (*FakeProvider, error) {
	p := &FakeProvider{}
	if strings.TrimSpace(declineAbove) == "" {
		return p, nil
	}
	limit, err := decimal.NewFromString(strings.TrimSpace(declineAbove))
	if err != nil {
		return nil, fmt.Errorf("parse decline limit: %w", err)
	}
	if limit.IsNegative() {
		return nil, errors.New("decline limit must not be negative")
	}
	p.declineAbove = limit
	return p, nil
}

func (p *FakeProvider) Charge(ctx context.Context, req ChargeRequest) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if !req.Amount.IsPositive() {
		return Result{}, errors.New("charge amount must be positive")
	}
	if !req.Currency.IsValid() {
		return Result{}, fmt.Errorf("unsupported currency %q", req.Currency)
	}

	ref := "FAKE-" + uuid.NewString()
	switch {
	case req.Amount.Equal(magicDeclineAmount):
		return Result{Status: enums.PaymentStatusFailed, ProviderRef: ref, Reason: ReasonCardDeclined}, nil
	case !p.declineAbove.IsZero() && req.Amount.GreaterThan(p.declineAbove):
		return Result{Status: enums.PaymentStatusFailed, ProviderRef: ref, Reason: ReasonLimitExceeded}, nil
	}
	return Result{Status: enums.PaymentStatusSucceeded, ProviderRef: ref}, nil
}

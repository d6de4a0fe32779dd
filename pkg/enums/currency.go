package enums

import (
	"slices"
	"strings"
)

// Currency is an ISO 4217 code accepted at checkout.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyNGN Currency = "NGN"
)

var currencies = []Currency{CurrencyUSD, CurrencyEUR, CurrencyNGN}

func (c Currency) String() string { return string(c) }

func (c Currency) IsValid() bool { return slices.Contains(currencies, c) }

// ParseCurrency accepts lowercase codes.
func ParseCurrency(value string) (Currency, error) {
	return parse("currency", value, currencies, strings.ToUpper)
}

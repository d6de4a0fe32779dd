package cart

import "github.com/shopspring/decimal"

// FormatAmount renders a money value with at least two fraction digits and
// never fewer than the value's own scale: 0.3 is "0.30", 0.30 is "0.30" and
// 1.005 stays "1.005".
func FormatAmount(d decimal.Decimal) string {
	places := int32(2)
	if scale := -d.Exponent(); scale > places {
		places = scale
	}
	return d.StringFixed(places)
}

// exactString keeps the scale d was built with ("4.50" stays "4.50").
func exactString(d decimal.Decimal) string {
	if exp := d.Exponent(); exp < 0 {
		return d.StringFixed(-exp)
	}
	return d.String()
}

package cart

import "github.com/shopspring/decimal"

// Product is the catalog snapshot handed to AddItem. The cart never looks
// products up itself.
type Product struct {
	ID            string
	Name          string
	Price         decimal.Decimal
	DiscountPrice *decimal.Decimal
	Image         string
	VendorID      string
}

// EffectivePrice is the discount price when present, the regular price otherwise.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.DiscountPrice != nil {
		return *p.DiscountPrice
	}
	return p.Price
}

// Line is one aggregated entry of the cart: a product/options combination and its quantity.
type Line struct {
	ID        string
	ProductID string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
	ImageRef  string
	VendorID  string
	Options   []SelectedOption
}

// Subtotal returns UnitPrice × Quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (l Line) clone() Line {
	l.Options = cloneOptions(l.Options)
	return l
}

// VendorSubtotal groups the cart value owed to one vendor.
type VendorSubtotal struct {
	VendorID string
	Subtotal decimal.Decimal
	Count    int
}

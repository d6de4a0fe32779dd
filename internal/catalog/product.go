package catalog

import (
	"encoding/json"

	"github.com/angelmondragon/marketplace-core/internal/cart"
	"github.com/shopspring/decimal"
)

// Product is the read-only descriptor served by the catalog.
type Product struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Price         decimal.Decimal  `json:"price"`
	DiscountPrice *decimal.Decimal `json:"discountPrice,omitempty"`
	Image         string           `json:"image"`
	VendorID      string           `json:"vendorId"`
	Category      string           `json:"category"`
	Available     bool             `json:"available"`
}

// MarshalJSON renders prices with their cents ("10.00", not "10").
func (p Product) MarshalJSON() ([]byte, error) {
	type plain Product
	out := struct {
		plain
		Price         string  `json:"price"`
		DiscountPrice *string `json:"discountPrice,omitempty"`
	}{plain: plain(p), Price: cart.FormatAmount(p.Price)}
	if p.DiscountPrice != nil {
		d := cart.FormatAmount(*p.DiscountPrice)
		out.DiscountPrice = &d
	}
	return json.Marshal(out)
}

// CartProduct is the snapshot handed to the cart when the product is added.
func (p Product) CartProduct() cart.Product {
	out := cart.Product{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		Image:    p.Image,
		VendorID: p.VendorID,
	}
	if p.DiscountPrice != nil {
		d := *p.DiscountPrice
		out.DiscountPrice = &d
	}
	return out
}

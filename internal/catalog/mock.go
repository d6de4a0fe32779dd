package catalog

import "github.com/shopspring/decimal"

// MockProducts is the demo catalog served when no product source is configured.
func MockProducts() []Product {
	return []Product{
		{ID: "prod-jollof-rice", Name: "Jollof Rice Bowl", Price: price("10.00"), Image: "images/jollof.png", VendorID: "vendor-mama-put", Category: "meals", Available: true},
		{ID: "prod-suya-wrap", Name: "Suya Wrap", Price: price("8.50"), DiscountPrice: pricePtr("7.25"), Image: "images/suya.png", VendorID: "vendor-mama-put", Category: "meals", Available: true},
		{ID: "prod-puff-puff", Name: "Puff Puff (6 pcs)", Price: price("4.50"), Image: "images/puffpuff.png", VendorID: "vendor-mama-put", Category: "snacks", Available: true},
		{ID: "prod-zobo", Name: "Zobo Drink", Price: price("2.99"), Image: "images/zobo.png", VendorID: "vendor-green-market", Category: "drinks", Available: true},
		{ID: "prod-plantain-chips", Name: "Plantain Chips", Price: price("3.10"), DiscountPrice: pricePtr("2.80"), Image: "images/plantain.png", VendorID: "vendor-green-market", Category: "snacks", Available: true},
		{ID: "prod-egusi-soup", Name: "Egusi Soup", Price: price("12.75"), Image: "images/egusi.png", VendorID: "vendor-green-market", Category: "meals", Available: false},
	}
}

func price(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func pricePtr(v string) *decimal.Decimal {
	d := price(v)
	return &d
}

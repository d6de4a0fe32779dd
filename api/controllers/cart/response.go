package cart

import (
	"github.com/angelmondragon/marketplace-core/internal/cart"
)

type LineResponse struct {
	ID              string                `json:"id"`
	ProductID       string                `json:"productId"`
	Name            string                `json:"name"`
	UnitPrice       string                `json:"unitPrice"`
	Quantity        int                   `json:"quantity"`
	Subtotal        string                `json:"subtotal"`
	ImageRef        string                `json:"imageRef"`
	VendorID        string                `json:"vendorId"`
	SelectedOptions []cart.SelectedOption `json:"selectedOptions"`
}

type VendorSubtotalResponse struct {
	VendorID string `json:"vendorId"`
	Subtotal string `json:"subtotal"`
	Count    int    `json:"count"`
}

type CartResponse struct {
	Lines           []LineResponse           `json:"lines"`
	Total           string                   `json:"total"`
	Count           int                      `json:"count"`
	VendorSubtotals []VendorSubtotalResponse `json:"vendorSubtotals"`
}

func newCartResponse(view cart.View) CartResponse {
	lines := make([]LineResponse, 0, len(view.Lines))
	for _, l := range view.Lines {
		opts := l.Options
		if opts == nil {
			opts = []cart.SelectedOption{}
		}
		lines = append(lines, LineResponse{
			ID:              l.ID,
			ProductID:       l.ProductID,
			Name:            l.Name,
			UnitPrice:       cart.FormatAmount(l.UnitPrice),
			Quantity:        l.Quantity,
			Subtotal:        cart.FormatAmount(l.Subtotal()),
			ImageRef:        l.ImageRef,
			VendorID:        l.VendorID,
			SelectedOptions: opts,
		})
	}
	vendors := make([]VendorSubtotalResponse, 0, len(view.VendorSubtotals))
	for _, v := range view.VendorSubtotals {
		vendors = append(vendors, VendorSubtotalResponse{VendorID: v.VendorID, Subtotal: cart.FormatAmount(v.Subtotal), Count: v.Count})
	}
	return CartResponse{
		Lines:           lines,
		Total:           cart.FormatAmount(view.Total),
		Count:           view.Count,
		VendorSubtotals: vendors,
	}
}

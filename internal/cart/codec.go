package cart

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// wireLine is the persisted shape of a Line. Prices travel as strings so
// decimal precision survives the round trip.
type wireLine struct {
	ID              string           `json:"id"`
	ProductID       string           `json:"productId"`
	Name            string           `json:"name"`
	UnitPrice       string           `json:"unitPrice"`
	Quantity        int              `json:"quantity"`
	ImageRef        string           `json:"imageRef,omitempty"`
	VendorID        string           `json:"vendorId"`
	SelectedOptions []SelectedOption `json:"selectedOptions"`
}

// Encode serializes the cart as a JSON array of lines in insertion order.
func Encode(c *Cart) ([]byte, error) {
	if c == nil {
		c = New()
	}
	wire := make([]wireLine, 0, len(c.lines))
	for _, line := range c.lines {
		opts := line.Options
		if opts == nil {
			opts = []SelectedOption{}
		}
		wire = append(wire, wireLine{
			ID:              line.ID,
			ProductID:       line.ProductID,
			Name:            line.Name,
			UnitPrice:       exactString(line.UnitPrice),
			Quantity:        line.Quantity,
			ImageRef:        line.ImageRef,
			VendorID:        line.VendorID,
			SelectedOptions: opts,
		})
	}
	return json.Marshal(wire)
}

// Decode rebuilds a cart from its persisted form. An empty payload yields an empty cart.
func Decode(payload []byte) (*Cart, error) {
	c := New()
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 || bytes.Equal(payload, []byte("null")) {
		return c, nil
	}

	var wire []wireLine
	if err := json.Unmarshal(payload, &wire); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}

	seen := make(map[string]struct{}, len(wire))
	for i, w := range wire {
		if strings.TrimSpace(w.ID) == "" || strings.TrimSpace(w.ProductID) == "" {
			return nil, fmt.Errorf("decode cart: line %d missing id or productId", i)
		}
		if _, dup := seen[w.ID]; dup {
			return nil, fmt.Errorf("decode cart: duplicate line id %q", w.ID)
		}
		seen[w.ID] = struct{}{}
		if w.Quantity < 1 {
			return nil, fmt.Errorf("decode cart: line %q has quantity %d", w.ID, w.Quantity)
		}
		price, err := decimal.NewFromString(w.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("decode cart: line %q unit price: %w", w.ID, err)
		}
		c.lines = append(c.lines, Line{
			ID:        w.ID,
			ProductID: w.ProductID,
			Name:      w.Name,
			UnitPrice: price,
			Quantity:  w.Quantity,
			ImageRef:  w.ImageRef,
			VendorID:  w.VendorID,
			Options:   CanonicalOptions(w.SelectedOptions),
		})
	}
	return c, nil
}

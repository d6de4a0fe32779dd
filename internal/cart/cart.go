package cart

import (
	"fmt"
	"strings"

	pkgerrors "github.com/angelmondragon/marketplace-core/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxLineQuantity caps the quantity of a single line. Request validators
// mirror it as max=999.
const MaxLineQuantity = 999

// Cart is the aggregate of one owner's lines. It is a plain value with no
// locking; Service serializes access per owner.
type Cart struct {
	lines []Line
	newID func() string
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{newID: uuid.NewString}
}

// AddItem merges quantity into the line matching the product and canonical
// options, or appends a new line priced at the product's effective price.
func (c *Cart) AddItem(p Product, quantity int, opts []SelectedOption) (Line, error) {
	if strings.TrimSpace(p.ID) == "" {
		return Line{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if quantity <= 0 || quantity > MaxLineQuantity {
		return Line{}, quantityError(quantity)
	}
	price := p.EffectivePrice()
	if price.IsNegative() {
		return Line{}, pkgerrors.New(pkgerrors.CodeValidation, "product price cannot be negative")
	}

	canonical := CanonicalOptions(opts)
	for i := range c.lines {
		if c.lines[i].ProductID == p.ID && optionsEqual(c.lines[i].Options, canonical) {
			merged := c.lines[i].Quantity + quantity
			if merged > MaxLineQuantity {
				return Line{}, quantityError(merged).WithDetails(map[string]any{
					"quantity": quantity,
					"current":  c.lines[i].Quantity,
					"max":      MaxLineQuantity,
				})
			}
			c.lines[i].Quantity = merged
			return c.lines[i].clone(), nil
		}
	}

	line := Line{
		ID:        c.generateID(),
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: price,
		Quantity:  quantity,
		ImageRef:  p.Image,
		VendorID:  p.VendorID,
		Options:   canonical,
	}
	c.lines = append(c.lines, line)
	return line.clone(), nil
}

// RemoveItem deletes the line with lineID. It reports whether a line was removed.
func (c *Cart) RemoveItem(lineID string) bool {
	idx := c.indexOf(lineID)
	if idx < 0 {
		return false
	}
	c.lines = append(c.lines[:idx], c.lines[idx+1:]...)
	return true
}

// UpdateQuantity sets the quantity of lineID; zero or less removes the line.
// It reports whether the cart changed. Quantities above MaxLineQuantity are
// rejected and leave the cart unchanged.
func (c *Cart) UpdateQuantity(lineID string, quantity int) (bool, error) {
	if quantity <= 0 {
		return c.RemoveItem(lineID), nil
	}
	if quantity > MaxLineQuantity {
		return false, quantityError(quantity)
	}
	idx := c.indexOf(lineID)
	if idx < 0 || c.lines[idx].Quantity == quantity {
		return false, nil
	}
	c.lines[idx].Quantity = quantity
	return true, nil
}

func quantityError(quantity int) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity must be between 1 and %d", MaxLineQuantity)).
		WithDetails(map[string]any{"quantity": quantity, "max": MaxLineQuantity})
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.lines = nil
}

// Total returns Σ(unitPrice × quantity).
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

// Count returns Σ(quantity).
func (c *Cart) Count() int {
	count := 0
	for _, line := range c.lines {
		count += line.Quantity
	}
	return count
}

// Len returns the number of distinct lines.
func (c *Cart) Len() int {
	return len(c.lines)
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	for i, line := range c.lines {
		out[i] = line.clone()
	}
	return out
}

// Line returns a copy of the line with the given id.
func (c *Cart) Line(lineID string) (Line, bool) {
	idx := c.indexOf(lineID)
	if idx < 0 {
		return Line{}, false
	}
	return c.lines[idx].clone(), true
}

// SubtotalsByVendor groups line subtotals by vendor in order of first appearance.
func (c *Cart) SubtotalsByVendor() []VendorSubtotal {
	out := []VendorSubtotal{}
	index := map[string]int{}
	for _, line := range c.lines {
		pos, ok := index[line.VendorID]
		if !ok {
			pos = len(out)
			index[line.VendorID] = pos
			out = append(out, VendorSubtotal{VendorID: line.VendorID, Subtotal: decimal.Zero})
		}
		out[pos].Subtotal = out[pos].Subtotal.Add(line.Subtotal())
		out[pos].Count += line.Quantity
	}
	return out
}

// Clone returns a deep copy of the cart.
func (c *Cart) Clone() *Cart {
	return &Cart{lines: c.Lines(), newID: c.newID}
}

func (c *Cart) indexOf(lineID string) int {
	for i := range c.lines {
		if c.lines[i].ID == lineID {
			return i
		}
	}
	return -1
}

func (c *Cart) generateID() string {
	if c.newID == nil {
		return uuid.NewString()
	}
	return c.newID()
}

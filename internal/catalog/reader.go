package catalog

import (
	"context"
	"errors"
	"sort"
	"strings"

	pkgerrors "github.com/angelmondragon/marketplace-core/pkg/errors"
)

// Reader is the read side of the catalog.
type Reader interface {
	Get(ctx context.Context, id string) (Product, error)
	// List returns every product, or only vendorID's when it is non-empty.
	List(ctx context.Context, vendorID string) ([]Product, error)
}

// StaticCatalog serves a fixed product set.
type StaticCatalog struct {
	byID  map[string]Product
	order []string
}

func NewStaticCatalog(products []Product) (*StaticCatalog, error) {
	c := &StaticCatalog{byID: make(map[string]Product, len(products))}
	for _, p := range products {
		id := strings.TrimSpace(p.ID)
		if id == "" {
			return nil, errors.New("catalog product id is required")
		}
		if _, dup := c.byID[id]; dup {
			return nil, errors.New("duplicate catalog product id " + id)
		}
		c.byID[id] = p
		c.order = append(c.order, id)
	}
	sort.Strings(c.order)
	return c, nil
}

func (c *StaticCatalog) Get(ctx context.Context, id string) (Product, error) {
	p, ok := c.byID[strings.TrimSpace(id)]
	if !ok {
		return Product{}, notFound(id)
	}
	return p, nil
}

func (c *StaticCatalog) List(ctx context.Context, vendorID string) ([]Product, error) {
	vendorID = strings.TrimSpace(vendorID)
	out := make([]Product, 0, len(c.order))
	for _, id := range c.order {
		p := c.byID[id]
		if vendorID != "" && p.VendorID != vendorID {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func notFound(id string) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "product not found").WithDetails(map[string]any{"productId": id})
}

package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const allVendorsKey = "*"

// CachedReader is a read-through cache in front of another Reader.
// Misses and errors are not cached.
type CachedReader struct {
	next     Reader
	products *expirable.LRU[string, Product]
	listings *expirable.LRU[string, []Product]
}

func NewCachedReader(next Reader, size int, ttl time.Duration) (*CachedReader, error) {
	if next == nil {
		return nil, errors.New("catalog reader is required")
	}
	if size <= 0 {
		return nil, errors.New("catalog cache size must be positive")
	}
	return &CachedReader{
		next:     next,
		products: expirable.NewLRU[string, Product](size, nil, ttl),
		listings: expirable.NewLRU[string, []Product](size, nil, ttl),
	}, nil
}

func (c *CachedReader) Get(ctx context.Context, id string) (Product, error) {
	if p, ok := c.products.Get(id); ok {
		return p, nil
	}
	p, err := c.next.Get(ctx, id)
	if err != nil {
		return Product{}, err
	}
	c.products.Add(id, p)
	return p, nil
}

func (c *CachedReader) List(ctx context.Context, vendorID string) ([]Product, error) {
	key := vendorID
	if key == "" {
		key = allVendorsKey
	}
	if list, ok := c.listings.Get(key); ok {
		return append([]Product(nil), list...), nil
	}
	list, err := c.next.List(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	c.listings.Add(key, append([]Product(nil), list...))
	return list, nil
}

// Purge drops every cached entry.
func (c *CachedReader) Purge() {
	c.products.Purge()
	c.listings.Purge()
}

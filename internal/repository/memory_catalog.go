package repository

import (
	"context"
	"sync"

	"github.com/cloud-wave-best-zizon/shopping-service/internal/domain"
)

// MemoryCatalog is the LOCAL_MODE catalog.
type MemoryCatalog struct {
	mu       sync.RWMutex
	products map[int]domain.Product
}

func NewMemoryCatalog(seed ...domain.Product) *MemoryCatalog {
	c := &MemoryCatalog{products: make(map[int]domain.Product, len(seed))}
	for _, p := range seed {
		c.products[p.Key] = p
	}
	return c
}

func (c *MemoryCatalog) CreateProduct(ctx context.Context, product *domain.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.products[product.Key]; ok {
		return ErrProductExists
	}
	c.products[product.Key] = *product
	return nil
}

func (c *MemoryCatalog) GetProduct(ctx context.Context, key int) (*domain.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.products[key]
	if !ok {
		return nil, ErrProductNotFound
	}
	return &p, nil
}

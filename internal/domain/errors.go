package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrInvalidQuantity   = errors.New("quantity must be greater than zero")
	ErrProductNotFound   = errors.New("not found in inventory")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// InsufficientStockError reports a removal larger than the available stock.
// errors.Is(err, ErrInsufficientStock) holds for it.
type InsufficientStockError struct {
	Product   *Product
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Insufficient stock for product %s. Available: %d, Requested: %d",
		e.Product.label(), e.Available, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// NotFound returns the ErrProductNotFound error for a product key.
func NotFound(key int) error {
	return fmt.Errorf("product with ID %d %w", key, ErrProductNotFound)
}

func (p *Product) label() string {
	if p == nil {
		return "<unknown>"
	}
	if p.Name != "" {
		return p.Name
	}
	return fmt.Sprintf("#%d", p.Key)
}

package domain

import (
	"fmt"
	"math"
)

// ProductStock is the ledger entry for one product: the product it was
// created with and the number of units on hand. Quantity never drops below
// zero and only changes by relative amounts.
type ProductStock struct {
	product  *Product
	quantity int
}

func NewProductStock(product *Product, quantity int) (*ProductStock, error) {
	if product == nil {
		return nil, fmt.Errorf("%w: product is required", ErrInvalidArgument)
	}
	if quantity < 0 {
		return nil, fmt.Errorf("%w: quantity cannot be negative", ErrInvalidArgument)
	}

	return &ProductStock{product: product, quantity: quantity}, nil
}

func (s *ProductStock) Product() *Product { return s.product }

func (s *ProductStock) Quantity() int { return s.quantity }

func (s *ProductStock) AddQuantity(quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity to add must be positive", ErrInvalidArgument)
	}
	if quantity > math.MaxInt-s.quantity {
		return fmt.Errorf("%w: adding %d to %d would overflow stock", ErrInvalidArgument, quantity, s.quantity)
	}

	s.quantity += quantity
	return nil
}

func (s *ProductStock) RemoveQuantity(quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity to remove must be positive", ErrInvalidArgument)
	}
	if quantity > s.quantity {
		return &InsufficientStockError{
			Product:   s.product,
			Available: s.quantity,
			Requested: quantity,
		}
	}

	s.quantity -= quantity
	return nil
}

package domain

import (
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProduct() *Product {
	return &Product{
		Key:         1,
		SKU:         "ABC123",
		Name:        "Test Product",
		Description: "A test product",
		Category:    "Test",
		Price:       decimal.RequireFromString("9.99"),
	}
}

func TestNewProductStock(t *testing.T) {
	tests := []struct {
		name     string
		product  *Product
		quantity int
		wantErr  error
	}{
		{name: "valid", product: testProduct(), quantity: 10},
		{name: "zero quantity is valid", product: testProduct(), quantity: 0},
		{name: "nil product", product: nil, quantity: 10, wantErr: ErrInvalidArgument},
		{name: "negative quantity", product: testProduct(), quantity: -1, wantErr: ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stock, err := NewProductStock(tt.product, tt.quantity)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, stock)
				return
			}

			require.NoError(t, err)
			assert.Same(t, tt.product, stock.Product())
			assert.Equal(t, tt.quantity, stock.Quantity())
		})
	}
}

func TestProductStock_AddQuantity(t *testing.T) {
	stock, err := NewProductStock(testProduct(), 5)
	require.NoError(t, err)

	require.NoError(t, stock.AddQuantity(3))
	assert.Equal(t, 8, stock.Quantity())

	for _, qty := range []int{0, -1} {
		err := stock.AddQuantity(qty)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	}
	assert.Equal(t, 8, stock.Quantity())
}

func TestProductStock_AddQuantityOverflow(t *testing.T) {
	stock, err := NewProductStock(testProduct(), math.MaxInt)
	require.NoError(t, err)

	err = stock.AddQuantity(1)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Contains(t, err.Error(), "overflow")
	assert.Equal(t, math.MaxInt, stock.Quantity())

	stock, _ = NewProductStock(testProduct(), 10)
	require.NoError(t, stock.AddQuantity(math.MaxInt-10))
	assert.Equal(t, math.MaxInt, stock.Quantity())
}

func TestProductStock_RemoveQuantity(t *testing.T) {
	t.Run("partial removal", func(t *testing.T) {
		stock, _ := NewProductStock(testProduct(), 10)

		require.NoError(t, stock.RemoveQuantity(4))
		assert.Equal(t, 6, stock.Quantity())
	})

	t.Run("remove everything", func(t *testing.T) {
		stock, _ := NewProductStock(testProduct(), 10)

		require.NoError(t, stock.RemoveQuantity(10))
		assert.Equal(t, 0, stock.Quantity())
	})

	t.Run("non-positive quantity", func(t *testing.T) {
		stock, _ := NewProductStock(testProduct(), 10)

		assert.ErrorIs(t, stock.RemoveQuantity(0), ErrInvalidArgument)
		assert.ErrorIs(t, stock.RemoveQuantity(-3), ErrInvalidArgument)
		assert.Equal(t, 10, stock.Quantity())
	})

	t.Run("more than available", func(t *testing.T) {
		stock, _ := NewProductStock(testProduct(), 5)

		err := stock.RemoveQuantity(6)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInsufficientStock)
		assert.Equal(t, "Insufficient stock for product Test Product. Available: 5, Requested: 6", err.Error())

		var insufficient *InsufficientStockError
		require.True(t, errors.As(err, &insufficient))
		assert.Equal(t, 5, insufficient.Available)
		assert.Equal(t, 6, insufficient.Requested)
		assert.Equal(t, 5, stock.Quantity())
	})

	t.Run("unnamed product uses key in message", func(t *testing.T) {
		stock, _ := NewProductStock(&Product{Key: 42}, 1)

		err := stock.RemoveQuantity(2)
		assert.Contains(t, err.Error(), "#42")
	})
}

func TestNotFound(t *testing.T) {
	err := NotFound(7)

	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.Equal(t, "product with ID 7 not found in inventory", err.Error())
}

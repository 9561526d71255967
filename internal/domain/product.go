package domain

import (
	"github.com/shopspring/decimal"
)

// Product is a catalog item. The service only ever looks products up by Key.
type Product struct {
	Key         int             `json:"key"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
}

type CreateProductRequest struct {
	Key         int             `json:"key"         binding:"required,min=1"`
	SKU         string          `json:"sku"         binding:"required"`
	Name        string          `json:"name"        binding:"required"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
}

// StockChangeRequest carries the quantity for add/remove stock calls.
// Positivity is checked before the product is looked up and again by the
// service, with the same ErrInvalidQuantity message.
type StockChangeRequest struct {
	Quantity int `json:"quantity"`
}

type StockResponse struct {
	ProductKey int `json:"product_key"`
	Quantity   int `json:"quantity"`
}

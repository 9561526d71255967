package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const purchaseSuccessMessage = "Purchase successful"

type PurchaseRequest struct {
	ProductKey int `json:"product_key" binding:"required"`
	Quantity   int `json:"quantity"`
}

// PurchaseResult is the non-failing view of a purchase. Failed results carry
// only a message.
type PurchaseResult struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Product    *Product        `json:"product,omitempty"`
	Quantity   int             `json:"quantity"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

func PurchaseSucceeded(product *Product, quantity int) PurchaseResult {
	return PurchaseResult{
		Success:    true,
		Message:    purchaseSuccessMessage,
		Product:    product,
		Quantity:   quantity,
		TotalPrice: product.Price.Mul(decimal.NewFromInt(int64(quantity))),
	}
}

func PurchaseFailed(message string) PurchaseResult {
	return PurchaseResult{
		Success: false,
		Message: message,
	}
}

type ProductWithStock struct {
	Product       *Product `json:"product"`
	StockQuantity int      `json:"stock_quantity"`
}

func NewProductWithStock(product *Product, stockQuantity int) (ProductWithStock, error) {
	if product == nil {
		return ProductWithStock{}, fmt.Errorf("%w: product is required", ErrInvalidArgument)
	}
	return ProductWithStock{Product: product, StockQuantity: stockQuantity}, nil
}

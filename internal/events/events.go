package events

import (
	"time"
)

// Order Service에서 받을 이벤트
type OrderCreatedEvent struct {
	EventID   string      `json:"event_id"`
	OrderID   int         `json:"order_id"`
	UserID    string      `json:"user_id"`
	Items     []OrderItem `json:"items"`
	Status    string      `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id"`
}

type OrderItem struct {
	ProductKey  int    `json:"product_key"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
}

// 재고 차감 실패 보상 이벤트
type StockDeductionFailedEvent struct {
	EventID    string    `json:"event_id"`
	OrderID    int       `json:"order_id"`
	ProductKey int       `json:"product_key"`
	Quantity   int       `json:"quantity"`
	Reason     string    `json:"reason"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
}

const (
	ReasonProductNotFound   = "product_not_found"
	ReasonStockInsufficient = "stock_insufficient"
	ReasonInvalidQuantity   = "invalid_quantity"
	ReasonInternal          = "internal_error"
)

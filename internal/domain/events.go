package domain

import (
	"time"

	"github.com/google/uuid"
)

type StockEventType string

const (
	StockAdded     StockEventType = "stock.added"
	StockRemoved   StockEventType = "stock.removed"
	StockPurchased StockEventType = "stock.purchased"
)

// StockChangedEvent is emitted after every successful ledger mutation.
type StockChangedEvent struct {
	EventID     string         `json:"event_id"`
	Type        StockEventType `json:"type"`
	ProductKey  int            `json:"product_key"`
	SKU         string         `json:"sku"`
	Quantity    int            `json:"quantity"`
	NewQuantity int            `json:"new_quantity"`
	RequestID   string         `json:"request_id,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
}

func NewStockChangedEvent(eventType StockEventType, product *Product, quantity, newQuantity int) StockChangedEvent {
	return StockChangedEvent{
		EventID:     uuid.New().String(),
		Type:        eventType,
		ProductKey:  product.Key,
		SKU:         product.SKU,
		Quantity:    quantity,
		NewQuantity: newQuantity,
		Timestamp:   time.Now().UTC(),
	}
}

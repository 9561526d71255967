package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StockLevel tracks units on hand per product key. Purged products are
	// removed from the vector.
	StockLevel = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "inventory_stock_level",
			Help: "Units in stock per product",
		},
		[]string{"product_key"},
	)

	// StockOperations counts ledger operations by outcome (ok or the error kind)
	StockOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_stock_operations_total",
			Help: "Total number of stock ledger operations",
		},
		[]string{"operation", "outcome"},
	)

	// TrackedProducts is the number of products with stock above zero
	TrackedProducts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "inventory_tracked_products",
			Help: "Number of products currently tracked in stock",
		},
	)

	// EventsPublished counts stock events handed to the publisher
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_stock_events_total",
			Help: "Total number of stock events published",
		},
		[]string{"type", "status"},
	)
)

func SetStockLevel(productKey, quantity int) {
	label := strconv.Itoa(productKey)
	if quantity == 0 {
		StockLevel.DeleteLabelValues(label)
		return
	}
	StockLevel.WithLabelValues(label).Set(float64(quantity))
}

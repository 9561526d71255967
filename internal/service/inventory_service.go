package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/cloud-wave-best-zizon/shopping-service/internal/domain"
	"github.com/cloud-wave-best-zizon/shopping-service/internal/metrics"
	"go.uber.org/zap"
)

const (
	opAdd      = "add"
	opRemove   = "remove"
	opPurchase = "purchase"
	opGet      = "get"
)

// ShoppingService is the stock ledger contract used by the HTTP and Kafka
// front ends.
type ShoppingService interface {
	Products() []domain.Product
	AddProductToStock(ctx context.Context, product *domain.Product, qty int) error
	RemoveProductFromStock(ctx context.Context, product *domain.Product, qty int) error
	PurchaseProduct(ctx context.Context, product *domain.Product, qty int) error
	GetProduct(product *domain.Product) (int, error)
}

// 재고 변경 이벤트 발행용 인터페이스
type StockEventPublisher interface {
	PublishStockChanged(ctx context.Context, event domain.StockChangedEvent) error
}

// InventoryService keeps stock per product key in memory. A single mutex
// guards the whole map so every check-then-mutate is atomic.
type InventoryService struct {
	mu        sync.Mutex
	inventory map[int]*domain.ProductStock

	publisher StockEventPublisher
	logger    *zap.Logger
}

var _ ShoppingService = (*InventoryService)(nil)

func NewInventoryService(logger *zap.Logger) *InventoryService {
	return &InventoryService{
		inventory: make(map[int]*domain.ProductStock),
		logger:    logger,
	}
}

// SetEventPublisher must be called before the service starts taking traffic.
func (s *InventoryService) SetEventPublisher(p StockEventPublisher) {
	s.publisher = p
}

// Products returns the tracked products ordered by key.
func (s *InventoryService) Products() []domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	products := make([]domain.Product, 0, len(s.inventory))
	for _, key := range s.sortedKeysLocked() {
		products = append(products, *s.inventory[key].Product())
	}
	return products
}

// Stock returns each tracked product with its quantity, ordered by key.
func (s *InventoryService) Stock() []domain.ProductWithStock {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]domain.ProductWithStock, 0, len(s.inventory))
	for _, key := range s.sortedKeysLocked() {
		entry := s.inventory[key]
		product := *entry.Product()
		result = append(result, domain.ProductWithStock{
			Product:       &product,
			StockQuantity: entry.Quantity(),
		})
	}
	return result
}

// Lookup returns the stored product for key and its quantity.
func (s *InventoryService) Lookup(key int) (*domain.Product, int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.inventory[key]
	if !ok {
		return nil, 0, false
	}
	product := *entry.Product()
	return &product, entry.Quantity(), true
}

func (s *InventoryService) AddProductToStock(ctx context.Context, product *domain.Product, qty int) error {
	_, err := s.AddStock(ctx, product, qty)
	return err
}

func (s *InventoryService) RemoveProductFromStock(ctx context.Context, product *domain.Product, qty int) error {
	_, err := s.RemoveStock(ctx, product, qty)
	return err
}

// PurchaseProduct behaves exactly like RemoveProductFromStock; only the
// reported operation differs.
func (s *InventoryService) PurchaseProduct(ctx context.Context, product *domain.Product, qty int) error {
	_, err := s.remove(ctx, opPurchase, domain.StockPurchased, product, qty)
	return err
}

// AddStock is AddProductToStock returning the quantity right after the add.
func (s *InventoryService) AddStock(ctx context.Context, product *domain.Product, qty int) (int, error) {
	if err := validate(product, qty); err != nil {
		return 0, s.fail(opAdd, product, qty, err)
	}

	stored, newQty, err := s.addLocked(product, qty)
	if err != nil {
		return 0, s.fail(opAdd, product, qty, err)
	}

	s.succeed(ctx, opAdd, domain.StockAdded, stored, qty, newQty)
	return newQty, nil
}

// RemoveStock is RemoveProductFromStock returning the quantity right after
// the removal; 0 means the entry was purged.
func (s *InventoryService) RemoveStock(ctx context.Context, product *domain.Product, qty int) (int, error) {
	return s.remove(ctx, opRemove, domain.StockRemoved, product, qty)
}

// GetProduct returns the quantity on hand, or 0 for an untracked product.
func (s *InventoryService) GetProduct(product *domain.Product) (int, error) {
	if product == nil {
		return 0, s.fail(opGet, nil, 0, errNilProduct())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.inventory[product.Key]; ok {
		return entry.Quantity(), nil
	}
	return 0, nil
}

func (s *InventoryService) remove(ctx context.Context, op string, eventType domain.StockEventType, product *domain.Product, qty int) (int, error) {
	if err := validate(product, qty); err != nil {
		return 0, s.fail(op, product, qty, err)
	}

	stored, newQty, err := s.removeLocked(product, qty)
	if err != nil {
		return 0, s.fail(op, product, qty, err)
	}

	s.succeed(ctx, op, eventType, stored, qty, newQty)
	return newQty, nil
}

func (s *InventoryService) addLocked(product *domain.Product, qty int) (*domain.Product, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// 기존 키는 처음 저장된 Product를 유지하고 수량만 증가
	entry, ok := s.inventory[product.Key]
	if ok {
		if err := entry.AddQuantity(qty); err != nil {
			return nil, 0, err
		}
	} else {
		stored := *product
		var err error
		entry, err = domain.NewProductStock(&stored, qty)
		if err != nil {
			return nil, 0, err
		}
		s.inventory[product.Key] = entry
	}

	s.recordLevelLocked(product.Key, entry.Quantity())
	return entry.Product(), entry.Quantity(), nil
}

func (s *InventoryService) removeLocked(product *domain.Product, qty int) (*domain.Product, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.inventory[product.Key]
	if !ok {
		return nil, 0, domain.NotFound(product.Key)
	}
	if err := entry.RemoveQuantity(qty); err != nil {
		return nil, 0, err
	}

	// 재고가 0이 되면 항목 자체를 제거
	if entry.Quantity() == 0 {
		delete(s.inventory, product.Key)
	}

	s.recordLevelLocked(product.Key, entry.Quantity())
	return entry.Product(), entry.Quantity(), nil
}

// recordLevelLocked must run with s.mu held so gauge writes follow ledger order.
func (s *InventoryService) recordLevelLocked(key, quantity int) {
	metrics.SetStockLevel(key, quantity)
	metrics.TrackedProducts.Set(float64(len(s.inventory)))
}

func (s *InventoryService) sortedKeysLocked() []int {
	keys := make([]int, 0, len(s.inventory))
	for key := range s.inventory {
		keys = append(keys, key)
	}
	sort.Ints(keys)
	return keys
}

func (s *InventoryService) succeed(ctx context.Context, op string, eventType domain.StockEventType, product *domain.Product, qty, newQty int) {
	metrics.StockOperations.WithLabelValues(op, "ok").Inc()

	s.logger.Info("Stock updated",
		zap.String("operation", op),
		zap.Int("product_key", product.Key),
		zap.String("sku", product.SKU),
		zap.Int("quantity", qty),
		zap.Int("new_quantity", newQty))

	if s.publisher == nil {
		return
	}

	event := domain.NewStockChangedEvent(eventType, product, qty, newQty)
	event.RequestID = domain.RequestIDFromContext(ctx)

	// 이벤트 발행 실패는 재고 변경을 되돌리지 않음
	if err := s.publisher.PublishStockChanged(ctx, event); err != nil {
		metrics.EventsPublished.WithLabelValues(string(eventType), "failed").Inc()
		s.logger.Error("Failed to publish stock event",
			zap.String("event_id", event.EventID),
			zap.Int("product_key", product.Key),
			zap.Error(err))
		return
	}
	metrics.EventsPublished.WithLabelValues(string(eventType), "published").Inc()
}

func (s *InventoryService) fail(op string, product *domain.Product, qty int, err error) error {
	metrics.StockOperations.WithLabelValues(op, outcome(err)).Inc()

	fields := []zap.Field{
		zap.String("operation", op),
		zap.Int("quantity", qty),
		zap.Error(err),
	}
	if product != nil {
		fields = append(fields, zap.Int("product_key", product.Key))
	}
	s.logger.Warn("Stock operation rejected", fields...)

	return err
}

func validate(product *domain.Product, qty int) error {
	if product == nil {
		return errNilProduct()
	}
	if qty <= 0 {
		return domain.ErrInvalidQuantity
	}
	return nil
}

func errNilProduct() error {
	return fmt.Errorf("%w: product is required", domain.ErrInvalidArgument)
}

func outcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, domain.ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, domain.ErrProductNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	default:
		return "error"
	}
}

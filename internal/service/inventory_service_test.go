package service

import (
	"context"
	"errors"
	"math"
	"strconv"
	"sync"
	"testing"

	"github.com/cloud-wave-best-zizon/shopping-service/internal/domain"
	"github.com/cloud-wave-best-zizon/shopping-service/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePublisher struct {
	mu     sync.Mutex
	events []domain.StockChangedEvent
	err    error
}

func (f *fakePublisher) PublishStockChanged(ctx context.Context, event domain.StockChangedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func newTestService() *InventoryService {
	return NewInventoryService(zap.NewNop())
}

func product(key int, name string) *domain.Product {
	return &domain.Product{
		Key:      key,
		SKU:      "SKU" + name,
		Name:     name,
		Category: "Test",
		Price:    decimal.RequireFromString("9.99"),
	}
}

func TestProducts_EmptyWhenNothingAdded(t *testing.T) {
	s := newTestService()

	assert.Empty(t, s.Products())
	assert.Empty(t, s.Stock())
}

func TestAddProductToStock_NewProduct(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	p := product(1, "Test Product")

	require.NoError(t, s.AddProductToStock(ctx, p, 10))

	products := s.Products()
	require.Len(t, products, 1)
	assert.Equal(t, *p, products[0])

	qty, err := s.GetProduct(p)
	require.NoError(t, err)
	assert.Equal(t, 10, qty)
}

func TestAddProductToStock_Accumulates(t *testing.T) {
	ctx := context.Background()

	splits := [][]int{{12}, {5, 7}, {1, 1, 10}, {6, 6}}
	for _, split := range splits {
		s := newTestService()
		p := product(1, "Test Product")
		for _, qty := range split {
			require.NoError(t, s.AddProductToStock(ctx, p, qty))
		}

		qty, err := s.GetProduct(p)
		require.NoError(t, err)
		assert.Equal(t, 12, qty, "split %v", split)
		assert.Len(t, s.Products(), 1)
	}
}

func TestAddProductToStock_KeepsOriginalProductForExistingKey(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	original := product(1, "Original")
	renamed := &domain.Product{Key: 1, Name: "Renamed", Price: decimal.RequireFromString("100")}

	require.NoError(t, s.AddProductToStock(ctx, original, 2))
	require.NoError(t, s.AddProductToStock(ctx, renamed, 3))

	products := s.Products()
	require.Len(t, products, 1)
	assert.Equal(t, "Original", products[0].Name)
	assert.True(t, decimal.RequireFromString("9.99").Equal(products[0].Price))

	qty, _ := s.GetProduct(renamed)
	assert.Equal(t, 5, qty)
}

func TestAddProductToStock_StoresCopyOfProduct(t *testing.T) {
	s := newTestService()
	p := product(1, "Original")

	require.NoError(t, s.AddProductToStock(context.Background(), p, 1))
	p.Name = "Mutated by caller"

	assert.Equal(t, "Original", s.Products()[0].Name)
}

func TestAddProductToStock_InvalidInput(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	err := s.AddProductToStock(ctx, nil, 10)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	for _, qty := range []int{0, -5} {
		err := s.AddProductToStock(ctx, product(1, "Test"), qty)
		assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
		assert.Contains(t, err.Error(), "greater than zero")
	}

	assert.Empty(t, s.Products())
}

func TestRemoveProductFromStock(t *testing.T) {
	ctx := context.Background()

	t.Run("decreases quantity", func(t *testing.T) {
		s := newTestService()
		p := product(1, "Test")
		require.NoError(t, s.AddProductToStock(ctx, p, 10))

		require.NoError(t, s.RemoveProductFromStock(ctx, p, 3))

		qty, _ := s.GetProduct(p)
		assert.Equal(t, 7, qty)
		assert.Len(t, s.Products(), 1)
	})

	t.Run("exact quantity purges entry", func(t *testing.T) {
		s := newTestService()
		p := product(1, "Test")
		require.NoError(t, s.AddProductToStock(ctx, p, 10))

		require.NoError(t, s.RemoveProductFromStock(ctx, p, 10))

		qty, err := s.GetProduct(p)
		require.NoError(t, err)
		assert.Equal(t, 0, qty)
		assert.Empty(t, s.Products())
		_, _, ok := s.Lookup(1)
		assert.False(t, ok)
	})

	t.Run("one more than stock is insufficient", func(t *testing.T) {
		s := newTestService()
		p := product(1, "Test")
		require.NoError(t, s.AddProductToStock(ctx, p, 10))

		err := s.RemoveProductFromStock(ctx, p, 11)
		assert.ErrorIs(t, err, domain.ErrInsufficientStock)
		assert.Contains(t, err.Error(), "Insufficient stock")
		assert.Contains(t, err.Error(), "Available: 10")
		assert.Contains(t, err.Error(), "Requested: 11")

		qty, _ := s.GetProduct(p)
		assert.Equal(t, 10, qty)
	})

	t.Run("untracked product", func(t *testing.T) {
		s := newTestService()

		err := s.RemoveProductFromStock(ctx, product(9, "Missing"), 1)
		assert.ErrorIs(t, err, domain.ErrProductNotFound)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("invalid quantity is checked before lookup", func(t *testing.T) {
		s := newTestService()

		for _, qty := range []int{0, -1} {
			err := s.RemoveProductFromStock(ctx, product(9, "Missing"), qty)
			assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
			assert.Contains(t, err.Error(), "greater than zero")
		}
	})

	t.Run("nil product", func(t *testing.T) {
		s := newTestService()

		err := s.RemoveProductFromStock(ctx, nil, 1)
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	})
}

func TestRemoveThenReAdd_StoresNewProduct(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	first := product(1, "First")
	second := product(1, "Second")

	require.NoError(t, s.AddProductToStock(ctx, first, 4))
	require.NoError(t, s.RemoveProductFromStock(ctx, first, 4))
	require.NoError(t, s.AddProductToStock(ctx, second, 6))

	products := s.Products()
	require.Len(t, products, 1)
	assert.Equal(t, "Second", products[0].Name)
	qty, _ := s.GetProduct(first)
	assert.Equal(t, 6, qty)
}

func TestGetProduct(t *testing.T) {
	s := newTestService()

	qty, err := s.GetProduct(product(3, "Untracked"))
	require.NoError(t, err)
	assert.Equal(t, 0, qty)

	_, err = s.GetProduct(nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestEndToEnd(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	p1 := product(1, "One")
	p2 := product(2, "Two")

	require.NoError(t, s.AddProductToStock(ctx, p1, 10))
	require.NoError(t, s.AddProductToStock(ctx, p2, 5))
	require.NoError(t, s.RemoveProductFromStock(ctx, p1, 3))

	q1, _ := s.GetProduct(p1)
	q2, _ := s.GetProduct(p2)
	assert.Equal(t, 7, q1)
	assert.Equal(t, 5, q2)
	assert.Len(t, s.Products(), 2)

	require.NoError(t, s.RemoveProductFromStock(ctx, p2, 5))

	q2, _ = s.GetProduct(p2)
	assert.Equal(t, 0, q2)
	assert.Len(t, s.Products(), 1)
}

func TestPurchaseProduct_MatchesRemove(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		initial    int
		qty        int
		nilProduct bool
		wantErr    error
	}{
		{name: "partial", initial: 10, qty: 4},
		{name: "exact", initial: 10, qty: 10},
		{name: "insufficient", initial: 10, qty: 11, wantErr: domain.ErrInsufficientStock},
		{name: "zero", initial: 10, qty: 0, wantErr: domain.ErrInvalidQuantity},
		{name: "negative", initial: 10, qty: -2, wantErr: domain.ErrInvalidQuantity},
		{name: "untracked", initial: 0, qty: 1, wantErr: domain.ErrProductNotFound},
		{name: "nil product", initial: 10, qty: 1, nilProduct: true, wantErr: domain.ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			removeSvc := newTestService()
			purchaseSvc := newTestService()
			p := product(1, "Test")
			if tt.initial > 0 {
				require.NoError(t, removeSvc.AddProductToStock(ctx, p, tt.initial))
				require.NoError(t, purchaseSvc.AddProductToStock(ctx, p, tt.initial))
			}

			target := p
			if tt.nilProduct {
				target = nil
			}
			removeErr := removeSvc.RemoveProductFromStock(ctx, target, tt.qty)
			purchaseErr := purchaseSvc.PurchaseProduct(ctx, target, tt.qty)

			if tt.wantErr != nil {
				assert.ErrorIs(t, removeErr, tt.wantErr)
				assert.ErrorIs(t, purchaseErr, tt.wantErr)
				assert.Equal(t, removeErr.Error(), purchaseErr.Error())
			} else {
				assert.NoError(t, removeErr)
				assert.NoError(t, purchaseErr)
			}

			assert.Equal(t, removeSvc.Products(), purchaseSvc.Products())
			assert.Equal(t, removeSvc.Stock(), purchaseSvc.Stock())
			if tt.wantErr != nil {
				qty, err := purchaseSvc.GetProduct(p)
				require.NoError(t, err)
				assert.Equal(t, tt.initial, qty)
			}
		})
	}
}

func TestAddProductToStock_RejectsOverflow(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	p := product(1, "Test")

	require.NoError(t, s.AddProductToStock(ctx, p, math.MaxInt))

	err := s.AddProductToStock(ctx, p, 1)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	assert.Contains(t, err.Error(), "overflow")

	qty, err := s.GetProduct(p)
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt, qty)
	assert.Len(t, s.Products(), 1)
}

func TestAddStockAndRemoveStock_ReturnNewQuantity(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	p := product(1, "Test")

	qty, err := s.AddStock(ctx, p, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, qty)

	qty, err = s.AddStock(ctx, p, 6)
	require.NoError(t, err)
	assert.Equal(t, 10, qty)

	qty, err = s.RemoveStock(ctx, p, 3)
	require.NoError(t, err)
	assert.Equal(t, 7, qty)

	qty, err = s.RemoveStock(ctx, p, 8)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 0, qty)

	qty, err = s.RemoveStock(ctx, p, 7)
	require.NoError(t, err)
	assert.Equal(t, 0, qty)
	assert.Empty(t, s.Products())
}

func TestStockLevelGaugeFollowsLedger(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	const key = 7301
	label := strconv.Itoa(key)
	p := product(key, "Gauge")

	require.NoError(t, s.AddProductToStock(ctx, p, 1000))

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.AddProductToStock(ctx, p, 1))
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, s.RemoveProductFromStock(ctx, p, 1))
		}()
	}
	wg.Wait()

	qty, _ := s.GetProduct(p)
	require.Equal(t, 1000, qty)
	assert.Equal(t, 1000.0, testutil.ToFloat64(metrics.StockLevel.WithLabelValues(label)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.TrackedProducts))

	require.NoError(t, s.PurchaseProduct(ctx, p, 1000))
	assert.False(t, metrics.StockLevel.DeleteLabelValues(label), "purged product should have no series")
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.TrackedProducts))
}

func TestProducts_OrderedByKey(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	for _, key := range []int{5, 1, 3} {
		require.NoError(t, s.AddProductToStock(ctx, product(key, "P"), key))
	}

	products := s.Products()
	require.Len(t, products, 3)
	assert.Equal(t, []int{1, 3, 5}, []int{products[0].Key, products[1].Key, products[2].Key})

	stock := s.Stock()
	require.Len(t, stock, 3)
	assert.Equal(t, 1, stock[0].StockQuantity)
	assert.Equal(t, 5, stock[2].StockQuantity)
}

func TestLookup(t *testing.T) {
	s := newTestService()
	require.NoError(t, s.AddProductToStock(context.Background(), product(2, "Two"), 4))

	p, qty, ok := s.Lookup(2)
	require.True(t, ok)
	assert.Equal(t, "Two", p.Name)
	assert.Equal(t, 4, qty)

	_, _, ok = s.Lookup(3)
	assert.False(t, ok)
}

func TestEventsPublished(t *testing.T) {
	s := newTestService()
	pub := &fakePublisher{}
	s.SetEventPublisher(pub)
	ctx := domain.ContextWithRequestID(context.Background(), "req-42")
	p := product(1, "Test")

	require.NoError(t, s.AddProductToStock(ctx, p, 10))
	require.NoError(t, s.RemoveProductFromStock(ctx, p, 3))
	require.NoError(t, s.PurchaseProduct(ctx, p, 7))
	require.Error(t, s.PurchaseProduct(ctx, p, 1))

	require.Len(t, pub.events, 3)
	assert.Equal(t, domain.StockAdded, pub.events[0].Type)
	assert.Equal(t, 10, pub.events[0].NewQuantity)
	assert.Equal(t, domain.StockRemoved, pub.events[1].Type)
	assert.Equal(t, 7, pub.events[1].NewQuantity)
	assert.Equal(t, domain.StockPurchased, pub.events[2].Type)
	assert.Equal(t, 7, pub.events[2].Quantity)
	assert.Equal(t, 0, pub.events[2].NewQuantity)
	for _, e := range pub.events {
		assert.Equal(t, "req-42", e.RequestID)
		assert.Equal(t, 1, e.ProductKey)
	}
}

func TestPublishFailureDoesNotFailOperation(t *testing.T) {
	s := newTestService()
	s.SetEventPublisher(&fakePublisher{err: errors.New("broker down")})
	p := product(1, "Test")

	require.NoError(t, s.AddProductToStock(context.Background(), p, 2))

	qty, _ := s.GetProduct(p)
	assert.Equal(t, 2, qty)
}

func TestConcurrentPurchasesNeverOversell(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	p := product(1, "Test")
	require.NoError(t, s.AddProductToStock(ctx, p, 100))

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 150; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.PurchaseProduct(ctx, p, 1); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, succeeded)
	qty, _ := s.GetProduct(p)
	assert.Equal(t, 0, qty)
	assert.Empty(t, s.Products())
}

package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/cloud-wave-best-zizon/shopping-service/internal/domain"
	"github.com/cloud-wave-best-zizon/shopping-service/internal/repository"
	"github.com/cloud-wave-best-zizon/shopping-service/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type InventoryHandler struct {
	inventory *service.InventoryService
	catalog   repository.CatalogRepository
	logger    *zap.Logger
}

func NewInventoryHandler(inventory *service.InventoryService, catalog repository.CatalogRepository, logger *zap.Logger) *InventoryHandler {
	return &InventoryHandler{
		inventory: inventory,
		catalog:   catalog,
		logger:    logger,
	}
}

func (h *InventoryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/catalog/products", h.CreateProduct)
	rg.GET("/catalog/products/:key", h.GetCatalogProduct)

	rg.GET("/products", h.ListStock)
	rg.GET("/products/:key/stock", h.GetStock)
	rg.POST("/products/:key/stock", h.AddStock)
	rg.POST("/products/:key/stock/remove", h.RemoveStock)

	rg.POST("/purchases", h.Purchase)
}

func (h *InventoryHandler) CreateProduct(c *gin.Context) {
	var req domain.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	product := &domain.Product{
		Key:         req.Key,
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
	}

	if err := h.catalog.CreateProduct(c.Request.Context(), product); err != nil {
		if errors.Is(err, repository.ErrProductExists) {
			c.JSON(http.StatusConflict, gin.H{
				"error": "Product already exists",
			})
			return
		}

		h.logger.Error("Failed to create product",
			zap.Int("product_key", req.Key),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create product",
		})
		return
	}

	c.JSON(http.StatusCreated, product)
}

func (h *InventoryHandler) GetCatalogProduct(c *gin.Context) {
	product, ok := h.resolveProduct(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *InventoryHandler) ListStock(c *gin.Context) {
	c.JSON(http.StatusOK, h.inventory.Stock())
}

func (h *InventoryHandler) GetStock(c *gin.Context) {
	key, ok := parseKey(c)
	if !ok {
		return
	}

	// 추적되지 않는 상품은 0
	quantity, err := h.inventory.GetProduct(&domain.Product{Key: key})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, domain.StockResponse{
		ProductKey: key,
		Quantity:   quantity,
	})
}

func (h *InventoryHandler) AddStock(c *gin.Context) {
	h.changeStock(c, h.inventory.AddStock)
}

func (h *InventoryHandler) RemoveStock(c *gin.Context) {
	h.changeStock(c, h.inventory.RemoveStock)
}

func (h *InventoryHandler) Purchase(c *gin.Context) {
	var req domain.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request", zap.Error(err))
		c.JSON(http.StatusBadRequest, domain.PurchaseFailed("Invalid request format"))
		return
	}

	if req.Quantity <= 0 {
		h.writePurchaseFailure(c, domain.ErrInvalidQuantity)
		return
	}

	product, err := h.lookupProduct(c, req.ProductKey)
	if err != nil {
		h.writePurchaseFailure(c, err)
		return
	}

	if err := h.inventory.PurchaseProduct(c.Request.Context(), product, req.Quantity); err != nil {
		h.writePurchaseFailure(c, err)
		return
	}

	c.JSON(http.StatusOK, domain.PurchaseSucceeded(product, req.Quantity))
}

type stockMutation func(ctx context.Context, product *domain.Product, qty int) (int, error)

func (h *InventoryHandler) changeStock(c *gin.Context, mutate stockMutation) {
	key, ok := parseKey(c)
	if !ok {
		return
	}

	var req domain.StockChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	// 수량 검증을 상품 조회보다 먼저 수행
	if req.Quantity <= 0 {
		h.writeError(c, domain.ErrInvalidQuantity)
		return
	}

	product, err := h.lookupProduct(c, key)
	if err != nil {
		h.writeError(c, err)
		return
	}

	quantity, err := mutate(c.Request.Context(), product, req.Quantity)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, domain.StockResponse{
		ProductKey: product.Key,
		Quantity:   quantity,
	})
}

func (h *InventoryHandler) resolveProduct(c *gin.Context) (*domain.Product, bool) {
	key, ok := parseKey(c)
	if !ok {
		return nil, false
	}

	product, err := h.lookupProduct(c, key)
	if err != nil {
		h.writeError(c, err)
		return nil, false
	}
	return product, true
}

// lookupProduct prefers the catalog and falls back to the product already
// stored in the ledger, so stock can still be drained when the catalog entry
// is gone.
func (h *InventoryHandler) lookupProduct(c *gin.Context, key int) (*domain.Product, error) {
	product, err := h.catalog.GetProduct(c.Request.Context(), key)
	if err == nil {
		return product, nil
	}

	if errors.Is(err, repository.ErrProductNotFound) {
		if stored, _, ok := h.inventory.Lookup(key); ok {
			return stored, nil
		}
		return nil, domain.NotFound(key)
	}

	h.logger.Error("Failed to get product from catalog",
		zap.Int("product_key", key),
		zap.Error(err))
	return nil, err
}

func (h *InventoryHandler) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}

	body := gin.H{"error": err.Error()}

	var insufficient *domain.InsufficientStockError
	if errors.As(err, &insufficient) {
		body["available"] = insufficient.Available
		body["requested"] = insufficient.Requested
	}

	c.JSON(status, body)
}

func (h *InventoryHandler) writePurchaseFailure(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		c.JSON(status, domain.PurchaseFailed("Purchase failed"))
		return
	}
	c.JSON(status, domain.PurchaseFailed(err.Error()))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrInvalidQuantity):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientStock):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func parseKey(c *gin.Context) (int, bool) {
	key, err := strconv.Atoi(c.Param("key"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid product key",
		})
		return 0, false
	}
	return key, true
}

package repository

import (
	"context"
	"errors"

	"github.com/cloud-wave-best-zizon/shopping-service/internal/domain"
)

var (
	ErrProductNotFound = errors.New("product not found in catalog")
	ErrProductExists   = errors.New("product already exists")
)

// CatalogRepository stores product descriptions. Stock is not kept here.
type CatalogRepository interface {
	CreateProduct(ctx context.Context, product *domain.Product) error
	GetProduct(ctx context.Context, key int) (*domain.Product, error)
}

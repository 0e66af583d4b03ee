package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
)

// FeaturedProductCount is how many random products the storefront shows
const FeaturedProductCount = 6

var ErrInvalidProduct = errors.New("invalid product")

// ProductService defines the interface for catalog business logic
type ProductService interface {
	Featured(ctx context.Context) ([]*domain.Product, error)
	List(ctx context.Context, limit int) ([]*domain.Product, error)
	Import(ctx context.Context, products []*domain.Product) (int, error)
}

type productService struct {
	productRepo repository.ProductRepository
}

// NewProductService creates a new instance of ProductService
func NewProductService(productRepo repository.ProductRepository) ProductService {
	return &productService{productRepo: productRepo}
}

// Featured returns a random sample of catalog products
func (s *productService) Featured(ctx context.Context) ([]*domain.Product, error) {
	products, err := s.productRepo.Sample(ctx, FeaturedProductCount)
	if err != nil {
		return nil, fmt.Errorf("failed to sample products: %w", err)
	}
	return products, nil
}

// List returns products ordered by name
func (s *productService) List(ctx context.Context, limit int) ([]*domain.Product, error) {
	if limit <= 0 {
		limit = 100
	}
	products, err := s.productRepo.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// Import seeds the catalog. It stops at the first invalid or failing product
// and reports how many were stored before it.
func (s *productService) Import(ctx context.Context, products []*domain.Product) (int, error) {
	imported := 0
	for i, product := range products {
		product.Name = strings.TrimSpace(product.Name)
		if product.Name == "" || product.Price < 0 {
			return imported, fmt.Errorf("%w at index %d: name is required and price must not be negative", ErrInvalidProduct, i)
		}
		if product.ID == uuid.Nil {
			product.ID = uuid.New()
		}
		if product.CreatedAt.IsZero() {
			product.CreatedAt = time.Now().UTC()
		}

		if err := s.productRepo.Create(ctx, product); err != nil {
			return imported, fmt.Errorf("failed to import product %q: %w", product.Name, err)
		}
		imported++
	}
	return imported, nil
}

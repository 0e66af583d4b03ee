package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrEmptyOrder         = errors.New("order must contain at least one product")
	ErrProductNotResolved = errors.New("one or more products not found")
	ErrOrderNotFound      = errors.New("order not found")
	ErrNoOrders           = errors.New("no orders found")
)

// OrderLine is an order item with its product expanded. Product is nil when
// the referenced product no longer exists.
type OrderLine struct {
	ProductID uuid.UUID
	Quantity  int
	Product   *domain.Product
}

// OrderDetails is an order together with its expanded line items
type OrderDetails struct {
	Order *domain.Order
	Lines []OrderLine
}

// OrderService defines the interface for order business logic. Every
// operation is scoped to the calling user.
type OrderService interface {
	Create(ctx context.Context, userID uuid.UUID, items []domain.OrderItem) (*domain.Order, error)
	Update(ctx context.Context, userID, orderID uuid.UUID, items []domain.OrderItem) (*domain.Order, error)
	List(ctx context.Context, userID uuid.UUID) ([]OrderDetails, error)
	Delete(ctx context.Context, userID, orderID uuid.UUID) error
}

type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(orderRepo repository.OrderRepository, productRepo repository.ProductRepository) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
	}
}

// Create stores a new order for userID. Every product must resolve; a single
// unknown product rejects the whole order.
func (s *orderService) Create(ctx context.Context, userID uuid.UUID, items []domain.OrderItem) (*domain.Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}

	catalog, err := s.resolveProducts(ctx, items)
	if err != nil {
		return nil, err
	}

	total, missing := CalculateTotal(items, catalog)
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrProductNotResolved, missing[0])
	}

	now := time.Now().UTC()
	order := &domain.Order{
		ID:         uuid.New(),
		UserID:     userID,
		Items:      items,
		TotalPrice: total,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	return order, nil
}

// Update replaces the items of an order owned by userID. Unknown products are
// kept on the order but left out of the total.
func (s *orderService) Update(ctx context.Context, userID, orderID uuid.UUID, items []domain.OrderItem) (*domain.Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}

	if _, err := s.orderRepo.FindByIDForUser(ctx, orderID, userID); err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order: %w", err)
	}

	catalog, err := s.resolveProducts(ctx, items)
	if err != nil {
		return nil, err
	}

	total, _ := CalculateTotal(items, catalog)

	order, err := s.orderRepo.UpdateItemsForUser(ctx, orderID, userID, items, total)
	if err != nil {
		// Deleted between the lookup and the write
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	return order, nil
}

// List returns the orders of userID with their products expanded
func (s *orderService) List(ctx context.Context, userID uuid.UUID) ([]OrderDetails, error) {
	orders, err := s.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	if len(orders) == 0 {
		return nil, ErrNoOrders
	}

	var allItems []domain.OrderItem
	for _, order := range orders {
		allItems = append(allItems, order.Items...)
	}

	catalog, err := s.resolveProducts(ctx, allItems)
	if err != nil {
		return nil, err
	}

	details := make([]OrderDetails, 0, len(orders))
	for _, order := range orders {
		lines := make([]OrderLine, 0, len(order.Items))
		for _, item := range order.Items {
			lines = append(lines, OrderLine{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				Product:   catalog[item.ProductID],
			})
		}
		details = append(details, OrderDetails{Order: order, Lines: lines})
	}

	return details, nil
}

// Delete removes an order owned by userID
func (s *orderService) Delete(ctx context.Context, userID, orderID uuid.UUID) error {
	if err := s.orderRepo.DeleteForUser(ctx, orderID, userID); err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("failed to delete order: %w", err)
	}
	return nil
}

func (s *orderService) resolveProducts(ctx context.Context, items []domain.OrderItem) (map[uuid.UUID]*domain.Product, error) {
	products, err := s.productRepo.FindByIDs(ctx, distinctIDs(items))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve products: %w", err)
	}
	return indexProducts(products), nil
}

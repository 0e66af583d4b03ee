package service

import (
	"context"
	"errors"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
)

// Mock repositories for testing
type mockUserRepository struct {
	users map[string]*domain.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		users: make(map[string]*domain.User),
	}
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if _, exists := m.users[user.Email]; exists {
		return repository.ErrUserAlreadyExists
	}
	m.users[user.Email] = user
	return nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, exists := m.users[email]
	if !exists {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

type mockProductRepository struct {
	products map[uuid.UUID]*domain.Product
	err      error
}

func newMockProductRepository(products ...*domain.Product) *mockProductRepository {
	m := &mockProductRepository{products: make(map[uuid.UUID]*domain.Product)}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	if m.err != nil {
		return m.err
	}
	m.products[product.ID] = product
	return nil
}

func (m *mockProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	found := []*domain.Product{}
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			found = append(found, p)
		}
	}
	return found, nil
}

func (m *mockProductRepository) Sample(ctx context.Context, n int) ([]*domain.Product, error) {
	return m.List(ctx, n)
}

func (m *mockProductRepository) List(ctx context.Context, limit int) ([]*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := []*domain.Product{}
	for _, p := range m.products {
		if len(out) == limit {
			break
		}
		out = append(out, p)
	}
	return out, nil
}

type mockOrderRepository struct {
	orders map[uuid.UUID]*domain.Order
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{orders: make(map[uuid.UUID]*domain.Order)}
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	m.orders[order.ID] = order
	return nil
}

func (m *mockOrderRepository) FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*domain.Order, error) {
	order, ok := m.orders[id]
	if !ok || order.UserID != userID {
		return nil, repository.ErrOrderNotFound
	}
	return order, nil
}

func (m *mockOrderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	out := []*domain.Order{}
	for _, order := range m.orders {
		if order.UserID == userID {
			out = append(out, order)
		}
	}
	return out, nil
}

func (m *mockOrderRepository) UpdateItemsForUser(ctx context.Context, id, userID uuid.UUID, items []domain.OrderItem, totalPrice float64) (*domain.Order, error) {
	order, err := m.FindByIDForUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	order.Items = items
	order.TotalPrice = totalPrice
	order.UpdatedAt = time.Now().UTC()
	return order, nil
}

func (m *mockOrderRepository) DeleteForUser(ctx context.Context, id, userID uuid.UUID) error {
	if _, err := m.FindByIDForUser(ctx, id, userID); err != nil {
		return err
	}
	delete(m.orders, id)
	return nil
}

type failingTokenIssuer struct{}

func (failingTokenIssuer) Issue(userID, email string) (string, error) {
	return "", errors.New("signing unavailable")
}

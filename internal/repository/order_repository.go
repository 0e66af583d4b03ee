package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrOrderNotFound = errors.New("order not found")
)

// OrderRepository defines the interface for order data access. Every
// operation that takes a userID only touches orders owned by that user.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*domain.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error)
	UpdateItemsForUser(ctx context.Context, id, userID uuid.UUID, items []domain.OrderItem, totalPrice float64) (*domain.Order, error)
	DeleteForUser(ctx context.Context, id, userID uuid.UUID) error
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `id, user_id, items, total_price, created_at, updated_at`

// Create inserts a new order with its line items as a single row
func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	items, err := encodeItems(order.Items)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO orders (id, user_id, items, total_price, created_at, updated_at)
		VALUES ($1, $2, $3::jsonb, $4, $5, $6)
	`

	_, err = r.db.ExecContext(
		ctx,
		query,
		order.ID,
		order.UserID,
		items,
		order.TotalPrice,
		order.CreatedAt,
		order.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	return nil
}

// FindByIDForUser retrieves an order by ID if it belongs to userID
func (r *orderRepository) FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 AND user_id = $2`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order: %w", err)
	}

	return order, nil
}

// ListByUser retrieves all orders owned by userID, newest first
func (r *orderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, nil
}

// UpdateItemsForUser replaces the line items and total of an order owned by
// userID and returns the stored result
func (r *orderRepository) UpdateItemsForUser(ctx context.Context, id, userID uuid.UUID, items []domain.OrderItem, totalPrice float64) (*domain.Order, error) {
	encoded, err := encodeItems(items)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE orders
		SET items = $3::jsonb, total_price = $4, updated_at = $5
		WHERE id = $1 AND user_id = $2
		RETURNING ` + orderColumns

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id, userID, encoded, totalPrice, time.Now().UTC()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	return order, nil
}

// DeleteForUser removes an order if it belongs to userID
func (r *orderRepository) DeleteForUser(ctx context.Context, id, userID uuid.UUID) error {
	query := `DELETE FROM orders WHERE id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrOrderNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	order := &domain.Order{}
	var items []byte
	err := row.Scan(
		&order.ID,
		&order.UserID,
		&items,
		&order.TotalPrice,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(items, &order.Items); err != nil {
		return nil, fmt.Errorf("failed to decode order items: %w", err)
	}

	return order, nil
}

func encodeItems(items []domain.OrderItem) (string, error) {
	if items == nil {
		items = []domain.OrderItem{}
	}
	encoded, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("failed to encode order items: %w", err)
	}
	return string(encoded), nil
}

package domain

import (
	"time"

	"github.com/google/uuid"
)

// OrderItem is a single line of an order. Items are persisted together with
// the order as one JSON document.
type OrderItem struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
}

// Order represents a purchase owned by exactly one user
type Order struct {
	ID         uuid.UUID   `json:"id" db:"id"`
	UserID     uuid.UUID   `json:"userId" db:"user_id"`
	Items      []OrderItem `json:"products" db:"items"`
	TotalPrice float64     `json:"totalPrice" db:"total_price"`
	CreatedAt  time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time   `json:"updatedAt" db:"updated_at"`
}

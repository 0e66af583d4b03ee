package service

import (
	"storefront/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CalculateTotal sums price × quantity over the items whose product is in
// catalog, using exact decimal arithmetic rounded to cents. Items whose
// product is absent are returned in missing, in item order.
func CalculateTotal(items []domain.OrderItem, catalog map[uuid.UUID]*domain.Product) (total float64, missing []uuid.UUID) {
	sum := decimal.Zero
	for _, item := range items {
		product, ok := catalog[item.ProductID]
		if !ok {
			missing = append(missing, item.ProductID)
			continue
		}
		line := decimal.NewFromFloat(product.Price).Mul(decimal.NewFromInt(int64(item.Quantity)))
		sum = sum.Add(line)
	}
	return sum.Round(2).InexactFloat64(), missing
}

func indexProducts(products []*domain.Product) map[uuid.UUID]*domain.Product {
	catalog := make(map[uuid.UUID]*domain.Product, len(products))
	for _, product := range products {
		catalog[product.ID] = product
	}
	return catalog
}

func distinctIDs(items []domain.OrderItem) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(items))
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	return ids
}

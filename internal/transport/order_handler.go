package transport

import (
	"errors"
	"net/http"
	"time"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderItemRequest is one line of an order payload. Quantity is capped so
// line totals stay exact and fit the orders.total_price column.
type OrderItemRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,gt=0,lte=10000"`
}

// OrderRequest is the body of order create and update. An empty list passes
// validation and is rejected by the order service.
type OrderRequest struct {
	Products []OrderItemRequest `json:"products" validate:"required,dive"`
}

func (req OrderRequest) items() []domain.OrderItem {
	items := make([]domain.OrderItem, 0, len(req.Products))
	for _, p := range req.Products {
		// Already validated as a UUID
		id, _ := uuid.Parse(p.ProductID)
		items = append(items, domain.OrderItem{ProductID: id, Quantity: p.Quantity})
	}
	return items
}

// ProductSummary is the expanded product shown inside a listed order
type ProductSummary struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Image string  `json:"image"`
}

// OrderLineResponse is a listed order line. Product is null when the product
// no longer exists.
type OrderLineResponse struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Product   *ProductSummary `json:"product"`
}

// OrderDetailsResponse is an order as returned by GET /orders
type OrderDetailsResponse struct {
	ID         string              `json:"id"`
	UserID     string              `json:"userId"`
	Products   []OrderLineResponse `json:"products"`
	TotalPrice float64             `json:"totalPrice"`
	CreatedAt  time.Time           `json:"createdAt"`
	UpdatedAt  time.Time           `json:"updatedAt"`
}

// OrderHandler handles HTTP requests for the caller's orders
type OrderHandler struct {
	orderService service.OrderService
	logger       *zap.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		logger:       logger,
	}
}

// RegisterRoutes registers the order routes behind authMiddleware
func (h *OrderHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/orders", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

// Create handles order placement
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r, h.logger)
	if !ok {
		return
	}

	var req OrderRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	order, err := h.orderService.Create(r.Context(), userID, req.items())
	if err != nil {
		h.respondWithServiceError(w, err, "failed to create order")
		return
	}

	h.logger.Info("Order created",
		zap.String("order_id", order.ID.String()),
		zap.String("user_id", userID.String()),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, order)
}

// Update replaces the items of one of the caller's orders
func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r, h.logger)
	if !ok {
		return
	}

	orderID, ok := h.orderID(w, r)
	if !ok {
		return
	}

	var req OrderRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	order, err := h.orderService.Update(r.Context(), userID, orderID, req.items())
	if err != nil {
		h.respondWithServiceError(w, err, "failed to update order")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, order)
}

// List returns the caller's orders with products expanded
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r, h.logger)
	if !ok {
		return
	}

	details, err := h.orderService.List(r.Context(), userID)
	if err != nil {
		h.respondWithServiceError(w, err, "failed to list orders")
		return
	}

	response := make([]OrderDetailsResponse, 0, len(details))
	for _, d := range details {
		response = append(response, toOrderDetailsResponse(d))
	}

	middleware.RespondWithJSON(w, http.StatusOK, response)
}

// Delete removes one of the caller's orders
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r, h.logger)
	if !ok {
		return
	}

	orderID, ok := h.orderID(w, r)
	if !ok {
		return
	}

	if err := h.orderService.Delete(r.Context(), userID, orderID); err != nil {
		h.respondWithServiceError(w, err, "failed to delete order")
		return
	}

	h.logger.Info("Order deleted",
		zap.String("order_id", orderID.String()),
		zap.String("user_id", userID.String()),
	)
	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Order deleted"})
}

// orderID parses the {id} path segment. An id that cannot exist is reported
// the same way as one that does not.
func (h *OrderHandler) orderID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusNotFound, "Order not found")
		return uuid.Nil, false
	}
	return id, true
}

func (h *OrderHandler) respondWithServiceError(w http.ResponseWriter, err error, internalMessage string) {
	switch {
	case errors.Is(err, service.ErrEmptyOrder):
		middleware.RespondWithError(w, http.StatusBadRequest, "Order must contain at least one product")
	case errors.Is(err, service.ErrProductNotResolved):
		middleware.RespondWithError(w, http.StatusBadRequest, "One or more products not found")
	case errors.Is(err, service.ErrOrderNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "Order not found")
	case errors.Is(err, service.ErrNoOrders):
		middleware.RespondWithError(w, http.StatusNotFound, "No orders found")
	default:
		h.logger.Error(internalMessage, zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, internalMessage)
	}
}

func toOrderDetailsResponse(d service.OrderDetails) OrderDetailsResponse {
	lines := make([]OrderLineResponse, 0, len(d.Lines))
	for _, line := range d.Lines {
		resp := OrderLineResponse{
			ProductID: line.ProductID.String(),
			Quantity:  line.Quantity,
		}
		if line.Product != nil {
			resp.Product = &ProductSummary{
				ID:    line.Product.ID.String(),
				Name:  line.Product.Name,
				Price: line.Product.Price,
				Image: line.Product.Image,
			}
		}
		lines = append(lines, resp)
	}

	return OrderDetailsResponse{
		ID:         d.Order.ID.String(),
		UserID:     d.Order.UserID.String(),
		Products:   lines,
		TotalPrice: d.Order.TotalPrice,
		CreatedAt:  d.Order.CreatedAt,
		UpdatedAt:  d.Order.UpdatedAt,
	}
}

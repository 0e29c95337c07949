package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ansy-pieris/storefront/internal/domain"
	"github.com/ansy-pieris/storefront/internal/service"
)

type OrderHandler struct {
	orders service.OrderService
}

func NewOrderHandler(orders service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

type OrderLineDTO struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Subtotal    string `json:"subtotal"`
}

type OrderResponseDTO struct {
	ID                string         `json:"id"`
	Status            string         `json:"status"`
	Total             string         `json:"total"`
	PaymentMethod     string         `json:"payment_method"`
	Shipping          ShippingDTO    `json:"shipping"`
	Lines             []OrderLineDTO `json:"lines"`
	CreatedAt         time.Time      `json:"created_at"`
	EstimatedDelivery time.Time      `json:"estimated_delivery"`
}

type UpdateStatusRequestDTO struct {
	Status string `json:"status"`
}

func orderResponse(order *domain.Order) OrderResponseDTO {
	resp := OrderResponseDTO{
		ID:            order.ID.String(),
		Status:        order.Status.String(),
		Total:         order.Total.StringFixed(2),
		PaymentMethod: order.PaymentMethod,
		Shipping: ShippingDTO{
			RecipientName: order.Shipping.RecipientName,
			Phone:         order.Shipping.Phone,
			Address:       order.Shipping.Address,
			City:          order.Shipping.City,
			PostalCode:    order.Shipping.PostalCode,
		},
		Lines:             make([]OrderLineDTO, 0, len(order.Lines)),
		CreatedAt:         order.CreatedAt,
		EstimatedDelivery: order.EstimatedDelivery(),
	}
	for _, line := range order.Lines {
		resp.Lines = append(resp.Lines, OrderLineDTO{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice.StringFixed(2),
			Subtotal:    line.Subtotal().StringFixed(2),
		})
	}
	return resp
}

// GET /api/v1/orders
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	orders, err := h.orders.ListForUser(r.Context(), userID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	resp := make([]OrderResponseDTO, 0, len(orders))
	for _, order := range orders {
		resp = append(resp, orderResponse(order))
	}
	respondJSON(w, http.StatusOK, resp)
}

// GET /api/v1/orders/{id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order id must be a UUID")
		return
	}

	order, err := h.orders.GetForUser(r.Context(), userID, orderID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, orderResponse(order))
}

// PUT /api/v1/orders/{id}/status — staff/admin only; the role gate runs in
// middleware before this handler is reached.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order id must be a UUID")
		return
	}

	var req UpdateStatusRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	order, err := h.orders.UpdateStatus(r.Context(), orderID, domain.OrderStatus(req.Status))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, orderResponse(order))
}

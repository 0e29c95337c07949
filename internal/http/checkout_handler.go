package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ansy-pieris/storefront/internal/domain"
	"github.com/ansy-pieris/storefront/internal/service"
)

type CheckoutHandler struct {
	checkout service.CheckoutService
}

func NewCheckoutHandler(checkout service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

type ShippingDTO struct {
	RecipientName string `json:"recipient_name"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	City          string `json:"city"`
	PostalCode    string `json:"postal_code"`
}

type PlaceOrderRequestDTO struct {
	Shipping      ShippingDTO `json:"shipping"`
	PaymentMethod string      `json:"payment_method"`
}

type PlaceOrderResponseDTO struct {
	OrderID           string    `json:"order_id"`
	Status            string    `json:"status"`
	Total             string    `json:"total"`
	EstimatedDelivery time.Time `json:"estimated_delivery"`
}

func (dto ShippingDTO) toDomain() domain.ShippingDetails {
	return domain.ShippingDetails{
		RecipientName: dto.RecipientName,
		Phone:         dto.Phone,
		Address:       dto.Address,
		City:          dto.City,
		PostalCode:    dto.PostalCode,
	}
}

// POST /api/v1/checkout — the JSON entry point.
func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req PlaceOrderRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	order, err := h.checkout.PlaceOrder(r.Context(), &service.CheckoutRequest{
		UserID:        userID,
		Shipping:      req.Shipping.toDomain(),
		PaymentMethod: domain.PaymentMethod(req.PaymentMethod),
	})
	if err != nil {
		recordCheckoutOutcome(checkoutOutcome(err))
		respondDomainError(w, err)
		return
	}

	recordCheckoutOutcome("success")
	respondJSON(w, http.StatusCreated, PlaceOrderResponseDTO{
		OrderID:           order.ID.String(),
		Status:            order.Status.String(),
		Total:             order.Total.StringFixed(2),
		EstimatedDelivery: order.EstimatedDelivery(),
	})
}

// PlaceOrderForm is the form-post entry point. It accepts
// application/x-www-form-urlencoded bodies and redirects to the placed order
// on success; failures use the same error codes as the JSON entry point.
//
// POST /checkout
func (h *CheckoutHandler) PlaceOrderForm(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	if err := r.ParseForm(); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid form body")
		return
	}

	shipping := domain.ShippingDetails{
		RecipientName: r.PostFormValue("recipient_name"),
		Phone:         r.PostFormValue("phone"),
		Address:       r.PostFormValue("address"),
		City:          r.PostFormValue("city"),
		PostalCode:    r.PostFormValue("postal_code"),
	}

	order, err := h.checkout.PlaceOrder(r.Context(), &service.CheckoutRequest{
		UserID:        userID,
		Shipping:      shipping,
		PaymentMethod: domain.PaymentMethod(r.PostFormValue("payment_method")),
	})
	if err != nil {
		recordCheckoutOutcome(checkoutOutcome(err))
		respondDomainError(w, err)
		return
	}

	recordCheckoutOutcome("success")
	http.Redirect(w, r, "/api/v1/orders/"+order.ID.String(), http.StatusSeeOther)
}

func checkoutOutcome(err error) string {
	var stockErr *domain.InsufficientStockError
	var shippingErr *domain.InvalidShippingError
	switch {
	case errors.Is(err, domain.ErrEmptyCart):
		return "empty_cart"
	case errors.As(err, &shippingErr):
		return "invalid_shipping"
	case errors.As(err, &stockErr):
		return "insufficient_stock"
	default:
		return "error"
	}
}

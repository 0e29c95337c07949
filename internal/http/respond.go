package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/ansy-pieris/storefront/internal/domain"
)

type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Details string            `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
	Extra   map[string]any    `json:"extra,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, details string) {
	respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Code:    code,
		Details: details,
	})
}

// respondDomainError maps domain errors to transport codes. Both checkout
// entry points share this mapping so error codes stay consistent across
// transports.
func respondDomainError(w http.ResponseWriter, err error) {
	var stockErr *domain.InsufficientStockError
	var shippingErr *domain.InvalidShippingError

	switch {
	case errors.Is(err, domain.ErrEmptyCart):
		respondJSON(w, http.StatusConflict, ErrorResponse{
			Error:   http.StatusText(http.StatusConflict),
			Code:    "empty_cart",
			Details: "cart is empty, nothing to checkout",
		})
	case errors.As(err, &shippingErr):
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   http.StatusText(http.StatusBadRequest),
			Code:    "invalid_shipping",
			Details: "shipping details failed validation",
			Fields:  shippingErr.Fields,
		})
	case errors.As(err, &stockErr):
		respondJSON(w, http.StatusConflict, ErrorResponse{
			Error:   http.StatusText(http.StatusConflict),
			Code:    "insufficient_stock",
			Details: stockErr.Error(),
			Extra: map[string]any{
				"product_id": stockErr.ProductID,
				"available":  stockErr.Available,
			},
		})
	case errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrCartLineNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrBelowMinimum):
		respondError(w, http.StatusBadRequest, "below_minimum", err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		respondError(w, http.StatusConflict, "invalid_transition", err.Error())
	default:
		log.Printf("internal error: %v", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "something went wrong, please try again")
	}
}

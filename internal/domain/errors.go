package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared between the repository and the services.
var (
	ErrEmptyCart         = errors.New("cart is empty, nothing to checkout")
	ErrBelowMinimum      = errors.New("cart line quantity must be at least 1")
	ErrProductNotFound   = errors.New("product not found")
	ErrCartLineNotFound  = errors.New("cart line not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidTransition = errors.New("illegal order status transition")
)

// InsufficientStockError reports the first cart line whose quantity exceeded
// the stock observed inside the checkout transaction. Nothing is mutated when
// it is returned.
type InsufficientStockError struct {
	ProductID int64
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: %d available", e.ProductID, e.Available)
}

// InvalidShippingError carries per-field validation failures detected before
// any transaction opens.
type InvalidShippingError struct {
	Fields map[string]string
}

func (e *InvalidShippingError) Error() string {
	return fmt.Sprintf("invalid shipping details: %d field(s) failed validation", len(e.Fields))
}

package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// deliveryOffsetDays is the business-rule offset used for the estimated
// delivery date returned with a confirmed order.
const deliveryOffsetDays = 4

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// String representation (for logging)
func (s OrderStatus) String() string {
	return string(s)
}

// CanTransitionTo reports whether an order may move from the current status
// to next. Forward movement is strictly sequential; cancellation is allowed
// from any non-terminal status.
func CanTransitionTo(current, next OrderStatus) bool {
	if !current.Valid() || !next.Valid() {
		return false
	}
	if current.IsTerminal() {
		return false
	}
	if next == OrderStatusCancelled {
		return true
	}
	switch current {
	case OrderStatusPending:
		return next == OrderStatusProcessing
	case OrderStatusProcessing:
		return next == OrderStatusShipped
	case OrderStatusShipped:
		return next == OrderStatusDelivered
	}
	return false
}

// CanBeUpdated reports whether any further status transition is possible.
func (s OrderStatus) CanBeUpdated() bool {
	return s.Valid() && !s.IsTerminal()
}

// OrderLine is an immutable record of what was purchased. UnitPrice is the
// price read inside the checkout transaction and never tracks later changes
// to the product row.
type OrderLine struct {
	OrderID     uuid.UUID       `json:"order_id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

func (l OrderLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Order struct {
	ID            uuid.UUID       `json:"id"`
	UserID        int64           `json:"user_id"`
	Status        OrderStatus     `json:"status"`
	Total         decimal.Decimal `json:"total"`
	Shipping      ShippingDetails `json:"shipping"`
	PaymentMethod string          `json:"payment_method"`
	Lines         []OrderLine     `json:"lines"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// EstimatedDelivery is a fixed offset from order creation.
func (o *Order) EstimatedDelivery() time.Time {
	return o.CreatedAt.AddDate(0, 0, deliveryOffsetDays)
}

// CheckoutItem names a product and quantity to be ordered. Prices are
// deliberately absent: the repository reads them under lock when the order
// is created.
type CheckoutItem struct {
	ProductID int64
	Quantity  int
}

type PaymentMethod string

const (
	PaymentMethodCOD  PaymentMethod = "cod"
	PaymentMethodCard PaymentMethod = "card"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCOD || m == PaymentMethodCard
}

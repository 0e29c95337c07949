package http

import (
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/google/uuid"

	"github.com/ansy-pieris/storefront/internal/domain"
	"github.com/ansy-pieris/storefront/internal/service"
)

type MockCheckoutService struct {
	PlaceOrderFunc func(ctx context.Context, request *service.CheckoutRequest) (*domain.Order, error)
	LastRequest    *service.CheckoutRequest
}

func (m *MockCheckoutService) PlaceOrder(ctx context.Context, request *service.CheckoutRequest) (*domain.Order, error) {
	m.LastRequest = request
	return m.PlaceOrderFunc(ctx, request)
}

type MockCartService struct {
	SnapshotFunc       func(ctx context.Context, userID int64) (*domain.CartSnapshot, error)
	AddItemFunc        func(ctx context.Context, userID, productID int64, quantity int) error
	UpdateQuantityFunc func(ctx context.Context, userID, productID int64, quantity int) error
	RemoveItemFunc     func(ctx context.Context, userID, productID int64) error
	ClearFunc          func(ctx context.Context, userID int64) error
}

func (m *MockCartService) Snapshot(ctx context.Context, userID int64) (*domain.CartSnapshot, error) {
	return m.SnapshotFunc(ctx, userID)
}

func (m *MockCartService) AddItem(ctx context.Context, userID, productID int64, quantity int) error {
	return m.AddItemFunc(ctx, userID, productID, quantity)
}

func (m *MockCartService) UpdateQuantity(ctx context.Context, userID, productID int64, quantity int) error {
	return m.UpdateQuantityFunc(ctx, userID, productID, quantity)
}

func (m *MockCartService) RemoveItem(ctx context.Context, userID, productID int64) error {
	return m.RemoveItemFunc(ctx, userID, productID)
}

func (m *MockCartService) Clear(ctx context.Context, userID int64) error {
	return m.ClearFunc(ctx, userID)
}

type MockOrderService struct {
	ListForUserFunc  func(ctx context.Context, userID int64) ([]*domain.Order, error)
	GetForUserFunc   func(ctx context.Context, userID int64, orderID uuid.UUID) (*domain.Order, error)
	UpdateStatusFunc func(ctx context.Context, orderID uuid.UUID, next domain.OrderStatus) (*domain.Order, error)
}

func (m *MockOrderService) ListForUser(ctx context.Context, userID int64) ([]*domain.Order, error) {
	return m.ListForUserFunc(ctx, userID)
}

func (m *MockOrderService) GetForUser(ctx context.Context, userID int64, orderID uuid.UUID) (*domain.Order, error) {
	return m.GetForUserFunc(ctx, userID, orderID)
}

func (m *MockOrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, next domain.OrderStatus) (*domain.Order, error) {
	return m.UpdateStatusFunc(ctx, orderID, next)
}

// authenticate stamps the claims the auth middleware would normally extract.
func authenticate(r *http.Request, userID int64, role string) *http.Request {
	ctx := context.WithValue(r.Context(), ctxKeyUserID, userID)
	ctx = context.WithValue(ctx, ctxKeyRole, role)
	return r.WithContext(ctx)
}

func doRequest(h http.HandlerFunc, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h(rec, r)
	return rec
}

package service

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/ansy-pieris/storefront/internal/cache"
	"github.com/ansy-pieris/storefront/internal/domain"
)

// MockStore implements repository.Store for testing
type MockStore struct {
	Snapshot    *domain.CartSnapshot
	SnapshotErr error

	CreateOrderResult *domain.Order
	CreateOrderErr    error
	CreateOrderCalls  int
	CreatedUserID     int64
	CreatedShipping   domain.ShippingDetails
	CreatedPayment    string
	CreatedItems      []domain.CheckoutItem

	UpsertErr    error
	UpsertCalls  int
	UpsertUserID int64
	UpsertDelta  int

	SetQuantityErr error
	RemoveErr      error
	ClearErr       error
	ClearCalls     int

	Orders            []*domain.Order
	Order             *domain.Order
	OrderErr          error
	UpdateStatusOrder *domain.Order
	UpdateStatusErr   error
	UpdateStatusNext  domain.OrderStatus
}

func (m *MockStore) GetProduct(_ context.Context, _ int64) (*domain.Product, error) {
	return nil, domain.ErrProductNotFound
}

func (m *MockStore) ListProducts(_ context.Context) ([]*domain.Product, error) {
	return nil, nil
}

func (m *MockStore) CartSnapshot(_ context.Context, _ int64) (*domain.CartSnapshot, error) {
	return m.Snapshot, m.SnapshotErr
}

func (m *MockStore) UpsertCartLine(_ context.Context, userID, _ int64, delta int) error {
	m.UpsertCalls++
	m.UpsertUserID = userID
	m.UpsertDelta = delta
	return m.UpsertErr
}

func (m *MockStore) SetCartLineQuantity(_ context.Context, _, _ int64, _ int) error {
	return m.SetQuantityErr
}

func (m *MockStore) RemoveCartLine(_ context.Context, _, _ int64) error {
	return m.RemoveErr
}

func (m *MockStore) ClearCart(_ context.Context, _ int64) error {
	m.ClearCalls++
	return m.ClearErr
}

func (m *MockStore) CreateOrder(_ context.Context, userID int64, shipping domain.ShippingDetails, paymentMethod string, items []domain.CheckoutItem) (*domain.Order, error) {
	m.CreateOrderCalls++
	m.CreatedUserID = userID
	m.CreatedShipping = shipping
	m.CreatedPayment = paymentMethod
	m.CreatedItems = items
	return m.CreateOrderResult, m.CreateOrderErr
}

func (m *MockStore) GetOrderByID(_ context.Context, _ uuid.UUID) (*domain.Order, error) {
	return m.Order, m.OrderErr
}

func (m *MockStore) ListOrdersByUserID(_ context.Context, _ int64) ([]*domain.Order, error) {
	return m.Orders, m.OrderErr
}

func (m *MockStore) UpdateOrderStatus(_ context.Context, _ uuid.UUID, next domain.OrderStatus) (*domain.Order, error) {
	m.UpdateStatusNext = next
	return m.UpdateStatusOrder, m.UpdateStatusErr
}

func (m *MockStore) Close() error {
	return nil
}

// MockCache implements cache.CartCache for testing. Set runs on a background
// goroutine in the cart service, so the counters are mutex-guarded.
type MockCache struct {
	mu          sync.Mutex
	Cached      *domain.CartSnapshot
	GetErr      error
	SetErr      error
	DeleteErr   error
	setCalls    int
	deleteCalls int
}

func (m *MockCache) Get(_ context.Context, _ int64) (*domain.CartSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	if m.Cached == nil {
		return nil, cache.ErrCacheMiss
	}
	return m.Cached, nil
}

func (m *MockCache) Set(_ context.Context, _ int64, _ *domain.CartSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalls++
	return m.SetErr
}

func (m *MockCache) Delete(_ context.Context, _ int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteCalls++
	return m.DeleteErr
}

func (m *MockCache) DeleteCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteCalls
}

// MockNotifier implements publisher.Notifier for testing
type MockNotifier struct {
	Err      error
	Calls    int
	LastSent *domain.Order
}

func (m *MockNotifier) OrderConfirmed(_ context.Context, order *domain.Order) error {
	m.Calls++
	m.LastSent = order
	return m.Err
}

func (m *MockNotifier) Close() error {
	return nil
}

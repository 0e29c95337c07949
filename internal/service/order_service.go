package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/ansy-pieris/storefront/internal/domain"
	"github.com/ansy-pieris/storefront/internal/repository"
)

type OrderService interface {
	ListForUser(ctx context.Context, userID int64) ([]*domain.Order, error)
	GetForUser(ctx context.Context, userID int64, orderID uuid.UUID) (*domain.Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, next domain.OrderStatus) (*domain.Order, error)
}

type OrderServiceImpl struct {
	store repository.Store
}

func NewOrderService(store repository.Store) *OrderServiceImpl {
	return &OrderServiceImpl{store: store}
}

func (s *OrderServiceImpl) ListForUser(ctx context.Context, userID int64) ([]*domain.Order, error) {
	return s.store.ListOrdersByUserID(ctx, userID)
}

// GetForUser enforces ownership: an order belonging to another user is
// indistinguishable from a missing one.
func (s *OrderServiceImpl) GetForUser(ctx context.Context, userID int64, orderID uuid.UUID) (*domain.Order, error) {
	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, domain.ErrOrderNotFound
	}
	return order, nil
}

// UpdateStatus applies a staff-driven transition. The capability check (is
// the caller staff or admin) happens once at the transport boundary; the
// state machine itself is enforced by the store under a row lock.
func (s *OrderServiceImpl) UpdateStatus(ctx context.Context, orderID uuid.UUID, next domain.OrderStatus) (*domain.Order, error) {
	if !next.Valid() {
		return nil, domain.ErrInvalidTransition
	}
	return s.store.UpdateOrderStatus(ctx, orderID, next)
}

package service

import (
	"context"
	"log"
	"time"

	"github.com/ansy-pieris/storefront/internal/cache"
	"github.com/ansy-pieris/storefront/internal/domain"
	"github.com/ansy-pieris/storefront/internal/publisher"
	"github.com/ansy-pieris/storefront/internal/repository"
)

type CheckoutRequest struct {
	UserID        int64
	Shipping      domain.ShippingDetails
	PaymentMethod domain.PaymentMethod
}

type CheckoutService interface {
	PlaceOrder(ctx context.Context, request *CheckoutRequest) (*domain.Order, error)
}

type CheckoutServiceImpl struct {
	store    repository.Store
	cache    cache.CartCache
	notifier publisher.Notifier
}

func NewCheckoutService(store repository.Store, cartCache cache.CartCache, notifier publisher.Notifier) *CheckoutServiceImpl {
	return &CheckoutServiceImpl{
		store:    store,
		cache:    cartCache,
		notifier: notifier,
	}
}

// PlaceOrder is the checkout orchestration. Failure handling runs in three
// tiers: the snapshot and shipping checks fail fast with no side effects, the
// order creation is all-or-nothing inside one store transaction, and the
// confirmation publish after commit is best-effort only.
func (s *CheckoutServiceImpl) PlaceOrder(ctx context.Context, request *CheckoutRequest) (*domain.Order, error) {
	// The snapshot always comes from the store, never the cache: a stale
	// cached cart must not decide whether a transaction opens.
	snapshot, err := s.store.CartSnapshot(ctx, request.UserID)
	if err != nil {
		return nil, err
	}
	if snapshot.Empty() {
		return nil, domain.ErrEmptyCart
	}

	if fields := request.Shipping.Validate(); len(fields) > 0 {
		return nil, &domain.InvalidShippingError{Fields: fields}
	}

	paymentMethod := request.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = domain.PaymentMethodCOD
	}
	if !paymentMethod.Valid() {
		return nil, &domain.InvalidShippingError{
			Fields: map[string]string{"payment_method": "must be one of: cod, card"},
		}
	}

	items := make([]domain.CheckoutItem, 0, len(snapshot.Lines))
	for _, line := range snapshot.Lines {
		items = append(items, domain.CheckoutItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
		})
	}

	// Stock is re-checked against current persisted values inside this call;
	// the snapshot above may already be stale.
	order, err := s.store.CreateOrder(ctx, request.UserID, request.Shipping, string(paymentMethod), items)
	if err != nil {
		return nil, err
	}

	s.invalidateCart(request.UserID)
	s.notifyConfirmed(order)

	return order, nil
}

// notifyConfirmed dispatches the order confirmation after commit. The order
// is already durable; a broker failure is logged and swallowed.
func (s *CheckoutServiceImpl) notifyConfirmed(order *domain.Order) {
	if s.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.notifier.OrderConfirmed(ctx, order); err != nil {
		log.Printf("order confirmation publish failed for order %s: %v", order.ID, err)
	}
}

func (s *CheckoutServiceImpl) invalidateCart(userID int64) {
	if s.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		log.Printf("cart cache invalidate error after checkout: %v", err)
	}
}

package publisher

import (
	"context"

	"github.com/ansy-pieris/storefront/internal/domain"
)

// Notifier dispatches the post-commit order confirmation. Implementations
// must not block checkout on delivery guarantees; a failed publish is the
// caller's to log and forget.
type Notifier interface {
	OrderConfirmed(ctx context.Context, order *domain.Order) error
	Close() error
}

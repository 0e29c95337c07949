package cache

import (
	"context"
	"errors"

	"github.com/ansy-pieris/storefront/internal/domain"
)

type CartCache interface {
	Get(ctx context.Context, userID int64) (*domain.CartSnapshot, error)
	Set(ctx context.Context, userID int64, snapshot *domain.CartSnapshot) error
	Delete(ctx context.Context, userID int64) error
}

var ErrCacheMiss = errors.New("cache miss")

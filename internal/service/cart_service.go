package service

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ansy-pieris/storefront/internal/cache"
	"github.com/ansy-pieris/storefront/internal/domain"
	"github.com/ansy-pieris/storefront/internal/repository"
)

type CartService interface {
	Snapshot(ctx context.Context, userID int64) (*domain.CartSnapshot, error)
	AddItem(ctx context.Context, userID, productID int64, quantity int) error
	UpdateQuantity(ctx context.Context, userID, productID int64, quantity int) error
	RemoveItem(ctx context.Context, userID, productID int64) error
	Clear(ctx context.Context, userID int64) error
}

type CartServiceImpl struct {
	store repository.Store
	cache cache.CartCache
	sfg   singleflight.Group // Prevents cache stampede
}

func NewCartService(store repository.Store, cartCache cache.CartCache) *CartServiceImpl {
	return &CartServiceImpl{
		store: store,
		cache: cartCache,
	}
}

// Snapshot serves the cart read path through the cache. Cache failures are
// logged and fall through to the store; stale entries are bounded by the TTL
// and by invalidation on every mutation.
func (s *CartServiceImpl) Snapshot(ctx context.Context, userID int64) (*domain.CartSnapshot, error) {
	v, err, _ := s.sfg.Do(cartKey(userID), func() (interface{}, error) {
		snapshot, err := s.cache.Get(ctx, userID)
		if err == nil {
			return snapshot, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("cart cache get error: %v", err)
		}

		snapshot, err = s.store.CartSnapshot(ctx, userID)
		if err != nil {
			return nil, err
		}

		go func() {
			setCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if errSet := s.cache.Set(setCtx, userID, snapshot); errSet != nil {
				log.Printf("cart cache set error: %v", errSet)
			}
		}()

		return snapshot, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.CartSnapshot), nil
}

func (s *CartServiceImpl) AddItem(ctx context.Context, userID, productID int64, quantity int) error {
	if quantity < 1 {
		return domain.ErrBelowMinimum
	}
	if err := s.store.UpsertCartLine(ctx, userID, productID, quantity); err != nil {
		return err
	}
	s.invalidate(userID)
	return nil
}

func (s *CartServiceImpl) UpdateQuantity(ctx context.Context, userID, productID int64, quantity int) error {
	if err := s.store.SetCartLineQuantity(ctx, userID, productID, quantity); err != nil {
		return err
	}
	s.invalidate(userID)
	return nil
}

func (s *CartServiceImpl) RemoveItem(ctx context.Context, userID, productID int64) error {
	if err := s.store.RemoveCartLine(ctx, userID, productID); err != nil {
		return err
	}
	s.invalidate(userID)
	return nil
}

func (s *CartServiceImpl) Clear(ctx context.Context, userID int64) error {
	if err := s.store.ClearCart(ctx, userID); err != nil {
		return err
	}
	s.invalidate(userID)
	return nil
}

func (s *CartServiceImpl) invalidate(userID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		log.Printf("cart cache invalidate error: %v", err)
	}
}

func cartKey(userID int64) string {
	return "cart:" + strconv.FormatInt(userID, 10)
}

package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ansy-pieris/storefront/internal/domain"
)

func setupTestDB(t *testing.T) (*Repository, func()) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)

	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	creds := &Credentials{
		Host:              host,
		Port:              port.Int(),
		User:              "testuser",
		Password:          "testpass",
		DBName:            "testdb",
		MigrationsDirPath: "./migrations",
	}

	repo, err := NewRepository(creds)
	require.NoError(t, err)

	err = repo.RunMigrations(creds)
	require.NoError(t, err)

	cleanup := func() {
		repo.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return repo, cleanup
}

func seedProduct(t *testing.T, repo *Repository, name, price string, stock int) *domain.Product {
	t.Helper()
	p := &domain.Product{
		Name:  name,
		Price: decimal.RequireFromString(price),
		Stock: stock,
	}
	require.NoError(t, repo.CreateProduct(context.Background(), p))
	return p
}

func shippingFixture() domain.ShippingDetails {
	return domain.ShippingDetails{
		RecipientName: "Jane Customer",
		Phone:         "0771234567",
		Address:       "12 Galle Road",
		City:          "Colombo",
		PostalCode:    "00300",
	}
}

func TestCartLines(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	mug := seedProduct(t, repo, "mug", "10.00", 5)
	tee := seedProduct(t, repo, "tee", "4.25", 10)

	t.Run("upsert merges onto existing line", func(t *testing.T) {
		require.NoError(t, repo.UpsertCartLine(ctx, 1, mug.ID, 2))
		require.NoError(t, repo.UpsertCartLine(ctx, 1, mug.ID, 3))

		snapshot, err := repo.CartSnapshot(ctx, 1)
		require.NoError(t, err)
		require.Len(t, snapshot.Lines, 1)
		assert.Equal(t, 5, snapshot.Lines[0].Quantity)
	})

	t.Run("decrement below one deletes the line", func(t *testing.T) {
		require.NoError(t, repo.UpsertCartLine(ctx, 1, mug.ID, -5))

		snapshot, err := repo.CartSnapshot(ctx, 1)
		require.NoError(t, err)
		assert.Empty(t, snapshot.Lines)
	})

	t.Run("creation requires a positive delta", func(t *testing.T) {
		err := repo.UpsertCartLine(ctx, 2, mug.ID, -1)
		assert.ErrorIs(t, err, domain.ErrBelowMinimum)
	})

	t.Run("unknown product is rejected", func(t *testing.T) {
		err := repo.UpsertCartLine(ctx, 2, 999999, 1)
		assert.ErrorIs(t, err, domain.ErrProductNotFound)
	})

	t.Run("snapshot totals live prices", func(t *testing.T) {
		require.NoError(t, repo.UpsertCartLine(ctx, 3, mug.ID, 2))
		require.NoError(t, repo.UpsertCartLine(ctx, 3, tee.ID, 3))

		snapshot, err := repo.CartSnapshot(ctx, 3)
		require.NoError(t, err)
		require.Len(t, snapshot.Lines, 2)
		assert.True(t, snapshot.Total.Equal(decimal.RequireFromString("32.75")),
			"got total %s", snapshot.Total)
	})

	t.Run("set quantity to zero removes the line", func(t *testing.T) {
		require.NoError(t, repo.UpsertCartLine(ctx, 4, mug.ID, 2))
		require.NoError(t, repo.SetCartLineQuantity(ctx, 4, mug.ID, 0))

		snapshot, err := repo.CartSnapshot(ctx, 4)
		require.NoError(t, err)
		assert.Empty(t, snapshot.Lines)
	})

	t.Run("set quantity on missing line", func(t *testing.T) {
		err := repo.SetCartLineQuantity(ctx, 5, mug.ID, 2)
		assert.ErrorIs(t, err, domain.ErrCartLineNotFound)
	})

	t.Run("clear is idempotent", func(t *testing.T) {
		require.NoError(t, repo.UpsertCartLine(ctx, 6, mug.ID, 1))
		require.NoError(t, repo.ClearCart(ctx, 6))
		require.NoError(t, repo.ClearCart(ctx, 6))

		snapshot, err := repo.CartSnapshot(ctx, 6)
		require.NoError(t, err)
		assert.Empty(t, snapshot.Lines)
	})
}

func TestCreateOrder_Success(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	mug := seedProduct(t, repo, "mug", "10.00", 5)
	require.NoError(t, repo.UpsertCartLine(ctx, 1, mug.ID, 2))

	order, err := repo.CreateOrder(ctx, 1, shippingFixture(), "cod",
		[]domain.CheckoutItem{{ProductID: mug.ID, Quantity: 2}})
	require.NoError(t, err)

	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.True(t, order.Total.Equal(decimal.RequireFromString("20.00")),
		"got total %s", order.Total)
	require.Len(t, order.Lines, 1)
	assert.Equal(t, "mug", order.Lines[0].ProductName)
	assert.True(t, order.Lines[0].UnitPrice.Equal(decimal.RequireFromString("10.00")))

	// Stock decremented by exactly the ordered quantity.
	product, err := repo.GetProduct(ctx, mug.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, product.Stock)

	// Cart emptied in the same transaction.
	snapshot, err := repo.CartSnapshot(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, snapshot.Lines)

	// Order durably readable.
	fetched, err := repo.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, fetched.ID)
	assert.Equal(t, "cod", fetched.PaymentMethod)
	assert.Equal(t, "Colombo", fetched.Shipping.City)
}

func TestCreateOrder_InsufficientStock_NothingMutated(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	mug := seedProduct(t, repo, "mug", "10.00", 2)
	tee := seedProduct(t, repo, "tee", "4.25", 10)
	require.NoError(t, repo.UpsertCartLine(ctx, 1, tee.ID, 1))
	require.NoError(t, repo.UpsertCartLine(ctx, 1, mug.ID, 5))

	_, err := repo.CreateOrder(ctx, 1, shippingFixture(), "cod",
		[]domain.CheckoutItem{
			{ProductID: tee.ID, Quantity: 1},
			{ProductID: mug.ID, Quantity: 5},
		})

	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, mug.ID, stockErr.ProductID)
	assert.Equal(t, 2, stockErr.Available)

	// Full rollback: no stock change on any line, cart intact, no orders.
	mugNow, err := repo.GetProduct(ctx, mug.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, mugNow.Stock)

	teeNow, err := repo.GetProduct(ctx, tee.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, teeNow.Stock)

	snapshot, err := repo.CartSnapshot(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, snapshot.Lines, 2)

	orders, err := repo.ListOrdersByUserID(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCreateOrder_PriceSnapshotImmutable(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	mug := seedProduct(t, repo, "mug", "10.00", 5)
	require.NoError(t, repo.UpsertCartLine(ctx, 1, mug.ID, 2))

	order, err := repo.CreateOrder(ctx, 1, shippingFixture(), "cod",
		[]domain.CheckoutItem{{ProductID: mug.ID, Quantity: 2}})
	require.NoError(t, err)

	require.NoError(t, repo.SetProductPrice(ctx, mug.ID, "99.99"))

	fetched, err := repo.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, fetched.Lines, 1)
	assert.True(t, fetched.Lines[0].UnitPrice.Equal(decimal.RequireFromString("10.00")),
		"snapshot price changed to %s", fetched.Lines[0].UnitPrice)
	assert.True(t, fetched.Total.Equal(decimal.RequireFromString("20.00")),
		"order total changed to %s", fetched.Total)
}

func TestCreateOrder_ConcurrentLastUnit(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	rare := seedProduct(t, repo, "rare", "50.00", 1)
	require.NoError(t, repo.UpsertCartLine(ctx, 1, rare.ID, 1))
	require.NoError(t, repo.UpsertCartLine(ctx, 2, rare.ID, 1))

	items := []domain.CheckoutItem{{ProductID: rare.ID, Quantity: 1}}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, userID := range []int64{1, 2} {
		wg.Add(1)
		go func(i int, userID int64) {
			defer wg.Done()
			_, errs[i] = repo.CreateOrder(ctx, userID, shippingFixture(), "cod", items)
		}(i, userID)
	}
	wg.Wait()

	var successes, stockFailures int
	for _, err := range errs {
		var stockErr *domain.InsufficientStockError
		switch {
		case err == nil:
			successes++
		case assert.ErrorAs(t, err, &stockErr):
			stockFailures++
			assert.Equal(t, rare.ID, stockErr.ProductID)
			assert.Equal(t, 0, stockErr.Available)
		}
	}
	assert.Equal(t, 1, successes, "exactly one checkout must win the last unit")
	assert.Equal(t, 1, stockFailures)

	product, err := repo.GetProduct(ctx, rare.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, product.Stock, "stock must never go negative")
}

func TestCreateOrder_SecondCheckoutSeesEmptyCart(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	mug := seedProduct(t, repo, "mug", "10.00", 5)
	require.NoError(t, repo.UpsertCartLine(ctx, 1, mug.ID, 2))

	items := []domain.CheckoutItem{{ProductID: mug.ID, Quantity: 2}}

	_, err := repo.CreateOrder(ctx, 1, shippingFixture(), "cod", items)
	require.NoError(t, err)

	// Replaying the same stale snapshot must not double-charge: the cart
	// rows are already gone, so the whole transaction aborts.
	_, err = repo.CreateOrder(ctx, 1, shippingFixture(), "cod", items)
	assert.ErrorIs(t, err, domain.ErrEmptyCart)

	product, err := repo.GetProduct(ctx, mug.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, product.Stock, "failed replay must not decrement stock")

	orders, err := repo.ListOrdersByUserID(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestUpdateOrderStatus(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	mug := seedProduct(t, repo, "mug", "10.00", 5)
	require.NoError(t, repo.UpsertCartLine(ctx, 1, mug.ID, 1))
	order, err := repo.CreateOrder(ctx, 1, shippingFixture(), "cod",
		[]domain.CheckoutItem{{ProductID: mug.ID, Quantity: 1}})
	require.NoError(t, err)

	t.Run("valid step forward", func(t *testing.T) {
		updated, err := repo.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusProcessing)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusProcessing, updated.Status)
	})

	t.Run("skipping a stage is rejected", func(t *testing.T) {
		_, err := repo.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusDelivered)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("moving backward is rejected", func(t *testing.T) {
		_, err := repo.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusPending)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("terminal states are final", func(t *testing.T) {
		_, err := repo.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusCancelled)
		require.NoError(t, err)

		_, err = repo.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusProcessing)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("unknown order", func(t *testing.T) {
		_, err := repo.UpdateOrderStatus(ctx, uuid.New(), domain.OrderStatusProcessing)
		assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	})
}

func TestDeletedProduct(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	mug := seedProduct(t, repo, "mug", "10.00", 5)
	tee := seedProduct(t, repo, "tee", "4.25", 10)
	require.NoError(t, repo.UpsertCartLine(ctx, 1, mug.ID, 1))
	require.NoError(t, repo.UpsertCartLine(ctx, 1, tee.ID, 2))

	_, err := repo.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, tee.ID)
	require.NoError(t, err)

	t.Run("snapshot drops lines for removed products", func(t *testing.T) {
		snapshot, err := repo.CartSnapshot(ctx, 1)
		require.NoError(t, err)
		require.Len(t, snapshot.Lines, 1)
		assert.Equal(t, mug.ID, snapshot.Lines[0].ProductID)
		assert.True(t, snapshot.Total.Equal(decimal.RequireFromString("10.00")),
			"got total %s", snapshot.Total)
	})

	t.Run("checkout against a removed product aborts with zero available", func(t *testing.T) {
		// A stale snapshot may still carry the removed product.
		_, err := repo.CreateOrder(ctx, 1, shippingFixture(), "cod",
			[]domain.CheckoutItem{
				{ProductID: mug.ID, Quantity: 1},
				{ProductID: tee.ID, Quantity: 2},
			})

		var stockErr *domain.InsufficientStockError
		require.ErrorAs(t, err, &stockErr)
		assert.Equal(t, tee.ID, stockErr.ProductID)
		assert.Equal(t, 0, stockErr.Available)

		// Full rollback: surviving product untouched, cart line intact.
		mugNow, err := repo.GetProduct(ctx, mug.ID)
		require.NoError(t, err)
		assert.Equal(t, 5, mugNow.Stock)

		snapshot, err := repo.CartSnapshot(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, snapshot.Lines, 1)

		orders, err := repo.ListOrdersByUserID(ctx, 1)
		require.NoError(t, err)
		assert.Empty(t, orders)
	})
}

func TestOrderQueries(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	_, err := repo.GetOrderByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)

	orders, err := repo.ListOrdersByUserID(ctx, 404)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestContextCancellation(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Nanosecond)
	defer cancel()

	time.Sleep(10 * time.Millisecond) // Ensure context is cancelled

	_, err := repo.CartSnapshot(ctx, 1)
	assert.Error(t, err)
}

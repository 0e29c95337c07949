package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ansy-pieris/storefront/internal/domain"
)

// CreateOrder runs the whole order-placement write set in one transaction:
// it locks every product row, re-checks stock against the current persisted
// values, inserts the order header and its line snapshots, decrements stock
// conditionally and deletes the user's cart lines. Any failure rolls the
// whole thing back; no partial order is ever visible.
func (r *Repository) CreateOrder(
	ctx context.Context,
	userID int64,
	shipping domain.ShippingDetails,
	paymentMethod string,
	items []domain.CheckoutItem,
) (*domain.Order, error) {
	if len(items) == 0 {
		return nil, domain.ErrEmptyCart
	}

	// Lock rows in ascending product order so two overlapping checkouts
	// cannot deadlock on each other.
	sorted := make([]domain.CheckoutItem, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ProductID < sorted[j].ProductID })

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // no-op after commit
	}()

	order := &domain.Order{
		ID:            uuid.New(),
		UserID:        userID,
		Status:        domain.OrderStatusPending,
		Shipping:      shipping,
		PaymentMethod: paymentMethod,
	}

	total := decimal.Zero
	for _, item := range sorted {
		var (
			name  string
			price decimal.Decimal
			stock int
		)
		err := tx.QueryRowContext(ctx,
			`SELECT name, price, stock FROM products WHERE id = $1 FOR UPDATE`,
			item.ProductID).Scan(&name, &price, &stock)
		if errors.Is(err, sql.ErrNoRows) {
			// The product vanished between snapshot and commit; the line can
			// never be fulfilled.
			return nil, &domain.InsufficientStockError{ProductID: item.ProductID, Available: 0}
		}
		if err != nil {
			return nil, fmt.Errorf("lock product %d: %w", item.ProductID, err)
		}

		if stock < item.Quantity {
			return nil, &domain.InsufficientStockError{ProductID: item.ProductID, Available: stock}
		}

		order.Lines = append(order.Lines, domain.OrderLine{
			OrderID:     order.ID,
			ProductID:   item.ProductID,
			ProductName: name,
			Quantity:    item.Quantity,
			UnitPrice:   price,
		})
		total = total.Add(price.Mul(decimalFromInt(item.Quantity)))
	}
	order.Total = total

	err = tx.QueryRowContext(ctx,
		`INSERT INTO orders (id, user_id, status, total, recipient_name, phone, address, city, postal_code, payment_method, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		 RETURNING created_at, updated_at`,
		order.ID,
		order.UserID,
		order.Status,
		order.Total,
		shipping.RecipientName,
		shipping.Phone,
		shipping.Address,
		shipping.City,
		shipping.PostalCode,
		order.PaymentMethod,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	for _, line := range order.Lines {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO order_items (order_id, product_id, product_name, quantity, unit_price)
			 VALUES ($1, $2, $3, $4, $5)`,
			line.OrderID, line.ProductID, line.ProductName, line.Quantity, line.UnitPrice,
		); err != nil {
			return nil, fmt.Errorf("insert order line for product %d: %w", line.ProductID, err)
		}

		// Conditional decrement. The row lock above already excludes
		// interleavings; the stock >= $2 guard means the statement alone
		// can never drive stock negative.
		result, err := tx.ExecContext(ctx,
			`UPDATE products SET stock = stock - $2, updated_at = NOW()
			 WHERE id = $1 AND stock >= $2`,
			line.ProductID, line.Quantity)
		if err != nil {
			return nil, fmt.Errorf("decrement stock for product %d: %w", line.ProductID, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return nil, &domain.InsufficientStockError{ProductID: line.ProductID, Available: 0}
		}
	}

	// A concurrent checkout from the same user may have emptied the cart
	// after our snapshot was taken. Deleting zero rows means someone else
	// already placed this cart's order; abort rather than double-charge.
	result, err := tx.ExecContext(ctx,
		`DELETE FROM cart_items WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("clear cart: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if deleted == 0 {
		return nil, domain.ErrEmptyCart
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit order: %w", err)
	}

	return order, nil
}

func (r *Repository) GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT id, user_id, status, total, recipient_name, phone, address, city, postal_code, payment_method, created_at, updated_at
	          FROM orders WHERE id = $1`

	var order domain.Order
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&order.ID,
		&order.UserID,
		&order.Status,
		&order.Total,
		&order.Shipping.RecipientName,
		&order.Shipping.Phone,
		&order.Shipping.Address,
		&order.Shipping.City,
		&order.Shipping.PostalCode,
		&order.PaymentMethod,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", err)
	}

	lines, err := r.orderLines(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Lines = lines
	return &order, nil
}

func (r *Repository) ListOrdersByUserID(ctx context.Context, userID int64) ([]*domain.Order, error) {
	query := `SELECT id, user_id, status, total, recipient_name, phone, address, city, postal_code, payment_method, created_at, updated_at
	          FROM orders WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query orders by user id: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(
			&order.ID,
			&order.UserID,
			&order.Status,
			&order.Total,
			&order.Shipping.RecipientName,
			&order.Shipping.Phone,
			&order.Shipping.Address,
			&order.Shipping.City,
			&order.Shipping.PostalCode,
			&order.PaymentMethod,
			&order.CreatedAt,
			&order.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, &order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	for _, order := range orders {
		lines, err := r.orderLines(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		order.Lines = lines
	}

	return orders, nil
}

func (r *Repository) orderLines(ctx context.Context, orderID uuid.UUID) ([]domain.OrderLine, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT order_id, product_id, product_name, quantity, unit_price
		 FROM order_items WHERE order_id = $1 ORDER BY product_id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.OrderLine
	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(&line.OrderID, &line.ProductID, &line.ProductName, &line.Quantity, &line.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return lines, nil
}

// UpdateOrderStatus enforces the status machine under a row lock so two
// staff sessions cannot race the same order into conflicting states.
func (r *Repository) UpdateOrderStatus(ctx context.Context, id uuid.UUID, next domain.OrderStatus) (*domain.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var current domain.OrderStatus
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock order: %w", err)
	}

	if !domain.CanTransitionTo(current, next) {
		return nil, domain.ErrInvalidTransition
	}

	var updatedAt time.Time
	err = tx.QueryRowContext(ctx,
		`UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1 RETURNING updated_at`,
		id, next).Scan(&updatedAt)
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit status update: %w", err)
	}

	return r.GetOrderByID(ctx, id)
}

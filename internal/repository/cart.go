package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/ansy-pieris/storefront/internal/domain"
)

// CartSnapshot joins the user's cart lines against the live product rows.
// The inner join silently drops lines whose product was deleted; the schema's
// ON DELETE CASCADE removes such rows anyway, so the join never widens the
// cart beyond what exists.
func (r *Repository) CartSnapshot(ctx context.Context, userID int64) (*domain.CartSnapshot, error) {
	query := `SELECT c.product_id, p.name, c.quantity, p.price
	          FROM cart_items c
	          JOIN products p ON p.id = c.product_id
	          WHERE c.user_id = $1
	          ORDER BY c.added_at, c.product_id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query cart lines: %w", err)
	}
	defer rows.Close()

	snapshot := &domain.CartSnapshot{
		UserID:     userID,
		CapturedAt: time.Now(),
	}

	for rows.Next() {
		var line domain.SnapshotLine
		if err := rows.Scan(&line.ProductID, &line.ProductName, &line.Quantity, &line.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		line.Subtotal = line.UnitPrice.Mul(decimalFromInt(line.Quantity))
		snapshot.Lines = append(snapshot.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	snapshot.Total = snapshot.ComputeTotal()
	return snapshot, nil
}

// UpsertCartLine applies a quantity delta to the (user, product) line.
// A new line requires delta >= 1; an existing line dropping to zero or below
// is deleted rather than stored with an illegal quantity.
func (r *Repository) UpsertCartLine(ctx context.Context, userID, productID int64, delta int) error {
	if delta >= 1 {
		query := `INSERT INTO cart_items (user_id, product_id, quantity, added_at, updated_at)
		          VALUES ($1, $2, $3, NOW(), NOW())
		          ON CONFLICT (user_id, product_id)
		          DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = NOW()`

		if _, err := r.db.ExecContext(ctx, query, userID, productID, delta); err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == "23503" {
				return domain.ErrProductNotFound
			}
			return fmt.Errorf("upsert cart line: %w", err)
		}
		return nil
	}

	// Negative delta only makes sense against an existing line.
	query := `UPDATE cart_items
	          SET quantity = quantity + $3, updated_at = NOW()
	          WHERE user_id = $1 AND product_id = $2 AND quantity + $3 >= 1
	          RETURNING quantity`

	var quantity int
	err := r.db.QueryRowContext(ctx, query, userID, productID, delta).Scan(&quantity)
	if err == nil {
		return nil
	}
	if !isNoRows(err) {
		return fmt.Errorf("decrement cart line: %w", err)
	}

	// Either the line does not exist, or the decrement would reach zero or
	// below. A decrement to <= 0 deletes the line; a missing line is an error
	// for delta < 1 creation attempts.
	result, delErr := r.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`, userID, productID)
	if delErr != nil {
		return fmt.Errorf("delete cart line: %w", delErr)
	}
	affected, raErr := result.RowsAffected()
	if raErr != nil {
		return fmt.Errorf("rows affected: %w", raErr)
	}
	if affected == 0 {
		return domain.ErrBelowMinimum
	}
	return nil
}

// SetCartLineQuantity overwrites the line's quantity. Zero or below removes
// the line; a zero-quantity row never exists.
func (r *Repository) SetCartLineQuantity(ctx context.Context, userID, productID int64, quantity int) error {
	if quantity <= 0 {
		return r.RemoveCartLine(ctx, userID, productID)
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE cart_items SET quantity = $3, updated_at = NOW()
		 WHERE user_id = $1 AND product_id = $2`, userID, productID, quantity)
	if err != nil {
		return fmt.Errorf("set cart line quantity: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrCartLineNotFound
	}
	return nil
}

func (r *Repository) RemoveCartLine(ctx context.Context, userID, productID int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`, userID, productID)
	if err != nil {
		return fmt.Errorf("remove cart line: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrCartLineNotFound
	}
	return nil
}

// ClearCart deletes every line for the user. Clearing an already empty cart
// succeeds.
func (r *Repository) ClearCart(ctx context.Context, userID int64) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

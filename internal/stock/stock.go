// Package stock is the sole authority for mutating the products.stock
// counter. Every order or stock-entry line mutation is mirrored here with an
// equal-and-opposite delta, always inside the caller's transaction.
package stock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrProductNotFound is returned when a delta targets a product id that no
// longer exists. The caller must roll back its transaction.
var ErrProductNotFound = errors.New("product not found")

// Movement is one signed adjustment to a product's stock counter.
type Movement struct {
	ProductID string
	Delta     int
}

// Invert returns the equal-and-opposite movements, used to reverse the stock
// effect of an existing line set.
func Invert(movements []Movement) []Movement {
	inverted := make([]Movement, 0, len(movements))
	for _, m := range movements {
		inverted = append(inverted, Movement{ProductID: m.ProductID, Delta: -m.Delta})
	}
	return inverted
}

// ApplyDelta adds delta to the product's stock in a single atomic statement.
// No floor-at-zero clamping: a clamp would hide lost-update races, going
// negative surfaces the bug instead.
func ApplyDelta(ctx context.Context, tx *sql.Tx, productID string, delta int) error {
	const query = `
		UPDATE products
		SET stock = stock + $1, updated_at = NOW()
		WHERE id = $2
	`
	result, err := tx.ExecContext(ctx, query, delta, productID)
	if err != nil {
		return fmt.Errorf("failed to adjust stock for product %s: %w", productID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrProductNotFound, productID)
	}
	return nil
}

// ApplyDeltas applies a batch of movements. Any failure aborts the batch and
// the caller must roll back.
func ApplyDeltas(ctx context.Context, tx *sql.Tx, movements []Movement) error {
	for _, m := range movements {
		if err := ApplyDelta(ctx, tx, m.ProductID, m.Delta); err != nil {
			return err
		}
	}
	return nil
}

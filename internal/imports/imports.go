// Package imports manages stock entries, the receiving side of the
// inventory ledger. It mirrors the order aggregate with opposite-sign stock
// deltas and no status machine.
package imports

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/quanh29/e-sweety-cake-sub000/internal/stock"
)

var (
	// ErrEntryNotFound is returned when the entry id does not exist.
	ErrEntryNotFound = errors.New("stock entry not found")
	// ErrNoItems is returned before any write when the line set is empty.
	ErrNoItems = errors.New("stock entry must have at least one item")
)

type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{db: db}, nil
}

// CreateEntry persists the entry, its lines and the positive stock deltas in
// one transaction.
func (c *Conf) CreateEntry(ctx context.Context, ne NewEntry) (Entry, error) {
	if len(ne.Items) == 0 {
		return Entry{}, ErrNoItems
	}

	entry := Entry{
		ID:          uuid.NewString(),
		ShippingFee: ne.ShippingFee,
		CreatedBy:   ne.CreatedBy,
		Items:       newItems(ne.Items),
	}
	entry.Subtotal = Subtotal(entry.Items)
	entry.Total = entry.Subtotal + entry.ShippingFee

	err := c.withTx(ctx, func(tx *sql.Tx) error {
		const queryEntry = `
			INSERT INTO stock_entries (id, shipping_fee, created_by, created_at, updated_at)
			VALUES ($1, $2, $3, NOW(), NOW())
			RETURNING created_at, updated_at
		`
		err := tx.QueryRowContext(ctx, queryEntry, entry.ID, entry.ShippingFee, entry.CreatedBy).
			Scan(&entry.CreatedAt, &entry.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert stock entry: %w", err)
		}

		if err := insertItems(ctx, tx, entry.ID, entry.Items); err != nil {
			return err
		}
		return stock.ApplyDeltas(ctx, tx, received(entry.Items))
	})
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// UpdateEntry is a full replace of the entry's lines: the old lines' deltas
// are reversed and the new lines' deltas applied, all in one transaction.
// Unlike orders there is no status gate, stock always moves on update.
func (c *Conf) UpdateEntry(ctx context.Context, entryID string, ne NewEntry) (Entry, error) {
	if len(ne.Items) == 0 {
		return Entry{}, ErrNoItems
	}

	var entry Entry
	err := c.withTx(ctx, func(tx *sql.Tx) error {
		if err := lockEntry(ctx, tx, entryID); err != nil {
			return err
		}

		oldItems, err := loadItems(ctx, tx, entryID)
		if err != nil {
			return err
		}
		if err := stock.ApplyDeltas(ctx, tx, stock.Invert(received(oldItems))); err != nil {
			return err
		}

		const queryUpdate = `
			UPDATE stock_entries SET shipping_fee = $2, updated_at = NOW() WHERE id = $1
		`
		if _, err := tx.ExecContext(ctx, queryUpdate, entryID, ne.ShippingFee); err != nil {
			return fmt.Errorf("failed to update stock entry: %w", err)
		}

		if err := deleteItems(ctx, tx, entryID); err != nil {
			return err
		}
		newItemSet := newItems(ne.Items)
		if err := insertItems(ctx, tx, entryID, newItemSet); err != nil {
			return err
		}
		if err := stock.ApplyDeltas(ctx, tx, received(newItemSet)); err != nil {
			return err
		}

		entry, err = getEntryTx(ctx, tx, entryID)
		return err
	})
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// DeleteEntry reverses every line's delta then removes the lines and the
// entry row, atomically.
func (c *Conf) DeleteEntry(ctx context.Context, entryID string) error {
	return c.withTx(ctx, func(tx *sql.Tx) error {
		if err := lockEntry(ctx, tx, entryID); err != nil {
			return err
		}

		items, err := loadItems(ctx, tx, entryID)
		if err != nil {
			return err
		}
		if err := stock.ApplyDeltas(ctx, tx, stock.Invert(received(items))); err != nil {
			return err
		}

		if err := deleteItems(ctx, tx, entryID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM stock_entries WHERE id = $1`, entryID); err != nil {
			return fmt.Errorf("failed to delete stock entry: %w", err)
		}
		return nil
	})
}

// GetEntry loads one entry with lines and computed totals.
func (c *Conf) GetEntry(ctx context.Context, entryID string) (Entry, error) {
	var entry Entry
	err := c.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		entry, err = getEntryTx(ctx, tx, entryID)
		return err
	})
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// ListEntries returns entries newest first with lines and computed totals.
func (c *Conf) ListEntries(ctx context.Context, limit, offset int) ([]Entry, error) {
	const query = `
		SELECT id, shipping_fee, created_by, created_at, updated_at
		FROM stock_entries
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := c.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock entries: %w", err)
	}
	defer rows.Close()

	var result []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.ShippingFee, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stock entry: %w", err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stock entries: %w", err)
	}

	for i := range result {
		const queryItems = `
			SELECT product_id, quantity, price
			FROM stock_entry_items
			WHERE entry_id = $1
			ORDER BY id
		`
		rows, err := c.db.QueryContext(ctx, queryItems, result[i].ID)
		if err != nil {
			return nil, fmt.Errorf("failed to query stock entry items: %w", err)
		}
		items, err := scanItems(rows)
		if err != nil {
			return nil, err
		}
		result[i].Items = items
		result[i].Subtotal = Subtotal(items)
		result[i].Total = result[i].Subtotal + result[i].ShippingFee
	}
	return result, nil
}

// received maps entry lines to positive stock movements (inventory in).
func received(items []Item) []stock.Movement {
	result := make([]stock.Movement, 0, len(items))
	for _, item := range items {
		result = append(result, stock.Movement{ProductID: item.ProductID, Delta: item.Quantity})
	}
	return result
}

func getEntryTx(ctx context.Context, tx *sql.Tx, entryID string) (Entry, error) {
	const query = `
		SELECT id, shipping_fee, created_by, created_at, updated_at
		FROM stock_entries
		WHERE id = $1
	`
	var e Entry
	err := tx.QueryRowContext(ctx, query, entryID).Scan(&e.ID, &e.ShippingFee, &e.CreatedBy,
		&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, fmt.Errorf("%w: %s", ErrEntryNotFound, entryID)
		}
		return Entry{}, fmt.Errorf("failed to query stock entry: %w", err)
	}

	e.Items, err = loadItems(ctx, tx, entryID)
	if err != nil {
		return Entry{}, err
	}
	e.Subtotal = Subtotal(e.Items)
	e.Total = e.Subtotal + e.ShippingFee
	return e, nil
}

func lockEntry(ctx context.Context, tx *sql.Tx, entryID string) error {
	const query = `SELECT id FROM stock_entries WHERE id = $1 FOR UPDATE`
	var id string
	if err := tx.QueryRowContext(ctx, query, entryID).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrEntryNotFound, entryID)
		}
		return fmt.Errorf("failed to lock stock entry: %w", err)
	}
	return nil
}

func newItems(items []NewItem) []Item {
	result := make([]Item, 0, len(items))
	for _, item := range items {
		result = append(result, Item{ProductID: item.ProductID, Quantity: item.Quantity, Price: item.Price})
	}
	return result
}

func insertItems(ctx context.Context, tx *sql.Tx, entryID string, items []Item) error {
	const query = `
		INSERT INTO stock_entry_items (entry_id, product_id, quantity, price)
		VALUES ($1, $2, $3, $4)
	`
	for _, item := range items {
		if _, err := tx.ExecContext(ctx, query, entryID, item.ProductID, item.Quantity, item.Price); err != nil {
			return fmt.Errorf("failed to insert stock entry item: %w", err)
		}
	}
	return nil
}

func deleteItems(ctx context.Context, tx *sql.Tx, entryID string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM stock_entry_items WHERE entry_id = $1`, entryID); err != nil {
		return fmt.Errorf("failed to delete stock entry items: %w", err)
	}
	return nil
}

func loadItems(ctx context.Context, tx *sql.Tx, entryID string) ([]Item, error) {
	const query = `
		SELECT product_id, quantity, price
		FROM stock_entry_items
		WHERE entry_id = $1
		ORDER BY id
	`
	rows, err := tx.QueryContext(ctx, query, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock entry items: %w", err)
	}
	return scanItems(rows)
}

func scanItems(rows *sql.Rows) ([]Item, error) {
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ProductID, &item.Quantity, &item.Price); err != nil {
			return nil, fmt.Errorf("failed to scan stock entry item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stock entry items: %w", err)
	}
	return items, nil
}

func (c *Conf) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		if er := tx.Rollback(); er != nil && !errors.Is(er, sql.ErrTxDone) {
			return fmt.Errorf("failed to rollback withTx: %w", err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit withTx: %w", err)
	}
	return nil
}

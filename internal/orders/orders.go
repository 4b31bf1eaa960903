package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quanh29/e-sweety-cake-sub000/internal/stock"
	"github.com/quanh29/e-sweety-cake-sub000/internal/vouchers"
)

var (
	// ErrOrderNotFound is returned when the order id does not exist.
	ErrOrderNotFound = errors.New("order not found")
	// ErrNoItems is returned before any write when the line set is empty.
	ErrNoItems = errors.New("order must have at least one item")
	// ErrVoucherNotRedeemable is returned when the in-transaction voucher
	// check rejects the code on creation or update.
	ErrVoucherNotRedeemable = errors.New("voucher not redeemable")
)

type Conf struct {
	db *sql.DB
	v  *vouchers.Conf
}

func NewConf(db *sql.DB, v *vouchers.Conf) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	if v == nil {
		return nil, fmt.Errorf("vouchers conf is nil")
	}
	return &Conf{db: db, v: v}, nil
}

// CreateOrder persists the order, its lines and the matching stock deltas in
// one transaction. The voucher, when present, is re-validated inside the
// same transaction under a row lock and its discount snapshotted onto the
// order. Any failure rolls back the whole set of writes.
func (c *Conf) CreateOrder(ctx context.Context, no NewOrder) (Order, error) {
	if len(no.Items) == 0 {
		return Order{}, ErrNoItems
	}

	status := no.Status
	if status == "" {
		status = StatusPending
	}
	if _, err := ParseInitialStatus(string(status)); err != nil {
		return Order{}, err
	}

	order := Order{
		ID:              uuid.NewString(),
		CustomerName:    no.CustomerName,
		CustomerPhone:   no.CustomerPhone,
		CustomerAddress: no.CustomerAddress,
		Note:            no.Note,
		ShippingFee:     no.ShippingFee,
		Status:          status,
		CreatedBy:       no.CreatedBy,
		Items:           newItems(no.Items),
	}
	order.Subtotal = Subtotal(order.Items)
	order.Total = order.Subtotal + order.ShippingFee

	err := c.withTx(ctx, func(tx *sql.Tx) error {
		if no.VoucherCode != nil && *no.VoucherCode != "" {
			code := strings.ToUpper(strings.TrimSpace(*no.VoucherCode))
			voucher, verdict, err := c.v.CheckRedeemableTx(ctx, tx, code, time.Now().UTC())
			if err != nil {
				return err
			}
			if !verdict.Redeemable {
				return fmt.Errorf("%w: %s", ErrVoucherNotRedeemable, verdict.Reason)
			}
			order.VoucherCode = &code
			order.Discount = voucher.Discount(order.Subtotal)
		}

		const queryOrder = `
			INSERT INTO orders (id, customer_name, customer_phone, customer_address, note,
			                    shipping_fee, voucher_code, discount, status, created_by, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
			RETURNING created_at, updated_at
		`
		err := tx.QueryRowContext(ctx, queryOrder, order.ID, order.CustomerName, order.CustomerPhone,
			order.CustomerAddress, order.Note, order.ShippingFee, order.VoucherCode, order.Discount,
			order.Status, order.CreatedBy).Scan(&order.CreatedAt, &order.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}

		if err := insertItems(ctx, tx, order.ID, order.Items); err != nil {
			return err
		}
		if err := stock.ApplyDeltas(ctx, tx, planCreate(order.Items)); err != nil {
			return err
		}

		if salesMarkerNeeded("", order.Status) {
			if err := insertSaleMarker(ctx, tx, order.ID, order.CreatedBy); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Order{}, err
	}
	return order, nil
}

// UpdateOrder is a full replace of the order's scalar fields and line set.
// Stock held by the old lines is restored before the new lines consume
// theirs; a cancelled order holds no stock, so neither side is touched.
// Status is left unchanged. The discount snapshot follows the voucher code:
// removing the code clears it, keeping the code keeps it (clamped by the new
// subtotal), and a new code is re-validated under the voucher row lock and
// snapshotted afresh.
func (c *Conf) UpdateOrder(ctx context.Context, orderID string, uo UpdateOrder) (Order, error) {
	if len(uo.Items) == 0 {
		return Order{}, ErrNoItems
	}

	var order Order
	err := c.withTx(ctx, func(tx *sql.Tx) error {
		current, err := lockOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}

		oldItems, err := loadItems(ctx, tx, orderID)
		if err != nil {
			return err
		}

		var voucherCode *string
		if uo.VoucherCode != nil && *uo.VoucherCode != "" {
			code := strings.ToUpper(strings.TrimSpace(*uo.VoucherCode))
			voucherCode = &code
		}

		newItemSet := newItems(uo.Items)
		subtotal := Subtotal(newItemSet)

		var discount int64
		switch {
		case voucherCode == nil:
			// code removed, discount goes with it
		case sameVoucher(current.voucherCode, voucherCode):
			discount = clampDiscount(current.discount, subtotal)
		default:
			voucher, verdict, err := c.v.CheckRedeemableTx(ctx, tx, *voucherCode, time.Now().UTC())
			if err != nil {
				return err
			}
			if !verdict.Redeemable {
				return fmt.Errorf("%w: %s", ErrVoucherNotRedeemable, verdict.Reason)
			}
			discount = voucher.Discount(subtotal)
		}

		const queryUpdate = `
			UPDATE orders
			SET customer_name = $2, customer_phone = $3, customer_address = $4, note = $5,
			    shipping_fee = $6, voucher_code = $7, discount = $8, updated_at = NOW()
			WHERE id = $1
		`
		_, err = tx.ExecContext(ctx, queryUpdate, orderID, uo.CustomerName, uo.CustomerPhone,
			uo.CustomerAddress, uo.Note, uo.ShippingFee, voucherCode, discount)
		if err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}

		if err := deleteItems(ctx, tx, orderID); err != nil {
			return err
		}
		if err := insertItems(ctx, tx, orderID, newItemSet); err != nil {
			return err
		}

		if err := stock.ApplyDeltas(ctx, tx, planReplace(current.status, oldItems, newItemSet)); err != nil {
			return err
		}

		order, err = c.getOrderTx(ctx, tx, orderID)
		return err
	})
	if err != nil {
		return Order{}, err
	}
	return order, nil
}

// UpdateOrderStatus moves the order to newStatus. Moving into cancelled from
// a non-cancelled state restores the stock held by the order, exactly once;
// moving into confirmed from a non-confirmed state records a sales marker
// for the acting principal. Everything happens in one transaction.
func (c *Conf) UpdateOrderStatus(ctx context.Context, orderID string, newStatus Status, actorID string) error {
	if _, err := ParseStatus(string(newStatus)); err != nil {
		return err
	}

	return c.withTx(ctx, func(tx *sql.Tx) error {
		current, err := lockOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}

		items, err := loadItems(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if err := stock.ApplyDeltas(ctx, tx, planStatusChange(current.status, newStatus, items)); err != nil {
			return err
		}

		if salesMarkerNeeded(current.status, newStatus) {
			if err := insertSaleMarker(ctx, tx, orderID, &actorID); err != nil {
				return err
			}
		}

		const queryStatus = `UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`
		if _, err := tx.ExecContext(ctx, queryStatus, orderID, newStatus); err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}
		return nil
	})
}

// DeleteOrder removes the order, its lines and its sales marker, restoring
// the stock the order still holds. Deleting a cancelled order leaves stock
// untouched.
func (c *Conf) DeleteOrder(ctx context.Context, orderID string) error {
	return c.withTx(ctx, func(tx *sql.Tx) error {
		current, err := lockOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}

		items, err := loadItems(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if err := stock.ApplyDeltas(ctx, tx, planDelete(current.status, items)); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM sales WHERE order_id = $1`, orderID); err != nil {
			return fmt.Errorf("failed to delete sales marker: %w", err)
		}
		if err := deleteItems(ctx, tx, orderID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, orderID); err != nil {
			return fmt.Errorf("failed to delete order: %w", err)
		}
		return nil
	})
}

// GetOrder loads a single order with its lines and computed totals.
func (c *Conf) GetOrder(ctx context.Context, orderID string) (Order, error) {
	var order Order
	err := c.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		order, err = c.getOrderTx(ctx, tx, orderID)
		return err
	})
	if err != nil {
		return Order{}, err
	}
	return order, nil
}

// ListOrders returns orders newest first with lines and computed totals.
func (c *Conf) ListOrders(ctx context.Context, limit, offset int) ([]Order, error) {
	const query = `
		SELECT id, customer_name, customer_phone, customer_address, note,
		       shipping_fee, voucher_code, discount, status, created_by, created_at, updated_at
		FROM orders
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := c.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var result []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.CustomerName, &o.CustomerPhone, &o.CustomerAddress, &o.Note,
			&o.ShippingFee, &o.VoucherCode, &o.Discount, &o.Status, &o.CreatedBy,
			&o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		result = append(result, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	for i := range result {
		items, err := loadItemsDB(ctx, c.db, result[i].ID)
		if err != nil {
			return nil, err
		}
		result[i].Items = items
		result[i].Subtotal = Subtotal(items)
		result[i].Total = result[i].Subtotal + result[i].ShippingFee
	}
	return result, nil
}

func (c *Conf) getOrderTx(ctx context.Context, tx *sql.Tx, orderID string) (Order, error) {
	const query = `
		SELECT id, customer_name, customer_phone, customer_address, note,
		       shipping_fee, voucher_code, discount, status, created_by, created_at, updated_at
		FROM orders
		WHERE id = $1
	`
	var o Order
	err := tx.QueryRowContext(ctx, query, orderID).Scan(&o.ID, &o.CustomerName, &o.CustomerPhone,
		&o.CustomerAddress, &o.Note, &o.ShippingFee, &o.VoucherCode, &o.Discount, &o.Status,
		&o.CreatedBy, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
		}
		return Order{}, fmt.Errorf("failed to query order: %w", err)
	}

	o.Items, err = loadItems(ctx, tx, orderID)
	if err != nil {
		return Order{}, err
	}
	o.Subtotal = Subtotal(o.Items)
	o.Total = o.Subtotal + o.ShippingFee
	return o, nil
}

// lockedOrder is the slice of order state read under the row lock: enough to
// plan stock deltas and carry the discount snapshot through an update.
type lockedOrder struct {
	status      Status
	voucherCode *string
	discount    int64
}

// lockOrder reads the order under a row lock so concurrent status changes,
// updates and deletes of the same order serialize.
func lockOrder(ctx context.Context, tx *sql.Tx, orderID string) (lockedOrder, error) {
	const query = `SELECT status, voucher_code, discount FROM orders WHERE id = $1 FOR UPDATE`
	var cur lockedOrder
	if err := tx.QueryRowContext(ctx, query, orderID).Scan(&cur.status, &cur.voucherCode, &cur.discount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return lockedOrder{}, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
		}
		return lockedOrder{}, fmt.Errorf("failed to lock order: %w", err)
	}
	return cur, nil
}

func insertSaleMarker(ctx context.Context, tx *sql.Tx, orderID string, createdBy *string) error {
	const query = `
		INSERT INTO sales (order_id, created_by, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (order_id) DO NOTHING
	`
	if _, err := tx.ExecContext(ctx, query, orderID, createdBy); err != nil {
		return fmt.Errorf("failed to insert sales marker: %w", err)
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

func insertItems(ctx context.Context, tx *sql.Tx, orderID string, items []Item) error {
	const query = `
		INSERT INTO order_items (order_id, product_id, quantity, price)
		VALUES ($1, $2, $3, $4)
	`
	for _, item := range items {
		if _, err := tx.ExecContext(ctx, query, orderID, item.ProductID, item.Quantity, item.Price); err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}
	return nil
}

func deleteItems(ctx context.Context, tx *sql.Tx, orderID string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = $1`, orderID); err != nil {
		return fmt.Errorf("failed to delete order items: %w", err)
	}
	return nil
}

func loadItems(ctx context.Context, tx *sql.Tx, orderID string) ([]Item, error) {
	const query = `
		SELECT product_id, quantity, price
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`
	rows, err := tx.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	return scanItems(rows)
}

func loadItemsDB(ctx context.Context, db *sql.DB, orderID string) ([]Item, error) {
	const query = `
		SELECT product_id, quantity, price
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`
	rows, err := db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	return scanItems(rows)
}

func scanItems(rows *sql.Rows) ([]Item, error) {
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ProductID, &item.Quantity, &item.Price); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order items: %w", err)
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

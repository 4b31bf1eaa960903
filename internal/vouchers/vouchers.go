package vouchers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrVoucherNotFound is returned when no voucher carries the given code.
	ErrVoucherNotFound = errors.New("voucher not found")
	// ErrDuplicateCode is returned when creating a voucher whose code exists.
	ErrDuplicateCode = errors.New("voucher code already exists")
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

const voucherColumns = `code, discount_type, value, quantity, is_active, start_at, expired_at, created_at, updated_at`

func scanVoucher(row *sql.Row) (Voucher, error) {
	var v Voucher
	var value string
	err := row.Scan(&v.Code, &v.DiscountType, &value, &v.Quantity, &v.IsActive,
		&v.StartAt, &v.ExpiredAt, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return Voucher{}, err
	}
	v.Value, err = decimal.NewFromString(value)
	if err != nil {
		return Voucher{}, fmt.Errorf("failed to parse voucher value: %w", err)
	}
	return v, nil
}

// CheckRedeemable looks up the voucher by uppercased code and evaluates the
// redeemability rules at the given instant. Pure read, advisory only; order
// creation re-runs the check inside its own transaction.
func (c *Conf) CheckRedeemable(ctx context.Context, code string, at time.Time) (Voucher, Verdict, error) {
	code = strings.ToUpper(strings.TrimSpace(code))

	query := fmt.Sprintf(`SELECT %s FROM vouchers WHERE code = $1`, voucherColumns)
	v, err := scanVoucher(c.db.QueryRowContext(ctx, query, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Voucher{}, Verdict{Reason: ReasonNotFound}, nil
		}
		return Voucher{}, Verdict{}, fmt.Errorf("failed to query voucher: %w", err)
	}

	usedCount, err := c.usedCount(ctx, c.db.QueryRowContext, code)
	if err != nil {
		return Voucher{}, Verdict{}, err
	}
	return v, Evaluate(v, usedCount, at), nil
}

// CheckRedeemableTx is the transactional variant used by order creation. It
// locks the voucher row so concurrent redemptions near the quantity cap
// serialize instead of both passing the derived used-count check.
func (c *Conf) CheckRedeemableTx(ctx context.Context, tx *sql.Tx, code string, at time.Time) (Voucher, Verdict, error) {
	code = strings.ToUpper(strings.TrimSpace(code))

	query := fmt.Sprintf(`SELECT %s FROM vouchers WHERE code = $1 FOR UPDATE`, voucherColumns)
	v, err := scanVoucher(tx.QueryRowContext(ctx, query, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Voucher{}, Verdict{Reason: ReasonNotFound}, nil
		}
		return Voucher{}, Verdict{}, fmt.Errorf("failed to query voucher: %w", err)
	}

	usedCount, err := c.usedCount(ctx, tx.QueryRowContext, code)
	if err != nil {
		return Voucher{}, Verdict{}, err
	}
	return v, Evaluate(v, usedCount, at), nil
}

type queryRowFunc func(ctx context.Context, query string, args ...any) *sql.Row

func (c *Conf) usedCount(ctx context.Context, queryRow queryRowFunc, code string) (int, error) {
	const query = `
		SELECT COUNT(*)
		FROM orders
		WHERE voucher_code = $1 AND status != 'cancelled'
	`
	var count int
	if err := queryRow(ctx, query, code).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count voucher usage: %w", err)
	}
	return count, nil
}

// InsertVoucher creates a voucher; the code is stored uppercased.
func (c *Conf) InsertVoucher(ctx context.Context, nv NewVoucher) (Voucher, error) {
	value, err := decimal.NewFromString(nv.Value)
	if err != nil {
		return Voucher{}, fmt.Errorf("invalid voucher value %q: %w", nv.Value, err)
	}

	query := fmt.Sprintf(`
		INSERT INTO vouchers (code, discount_type, value, quantity, is_active, start_at, expired_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		ON CONFLICT (code) DO NOTHING
		RETURNING %s
	`, voucherColumns)

	v, err := scanVoucher(c.db.QueryRowContext(ctx, query,
		strings.ToUpper(strings.TrimSpace(nv.Code)), nv.DiscountType, value.String(),
		nv.Quantity, nv.IsActive, nv.StartAt, nv.ExpiredAt))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Voucher{}, fmt.Errorf("%w: %s", ErrDuplicateCode, nv.Code)
		}
		return Voucher{}, fmt.Errorf("failed to insert voucher: %w", err)
	}
	return v, nil
}

// UpdateVoucher replaces the voucher definition identified by code.
func (c *Conf) UpdateVoucher(ctx context.Context, code string, nv NewVoucher) (Voucher, error) {
	value, err := decimal.NewFromString(nv.Value)
	if err != nil {
		return Voucher{}, fmt.Errorf("invalid voucher value %q: %w", nv.Value, err)
	}

	query := fmt.Sprintf(`
		UPDATE vouchers
		SET discount_type = $2, value = $3, quantity = $4, is_active = $5,
		    start_at = $6, expired_at = $7, updated_at = NOW()
		WHERE code = $1
		RETURNING %s
	`, voucherColumns)

	v, err := scanVoucher(c.db.QueryRowContext(ctx, query,
		strings.ToUpper(strings.TrimSpace(code)), nv.DiscountType, value.String(),
		nv.Quantity, nv.IsActive, nv.StartAt, nv.ExpiredAt))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Voucher{}, fmt.Errorf("%w: %s", ErrVoucherNotFound, code)
		}
		return Voucher{}, fmt.Errorf("failed to update voucher: %w", err)
	}
	return v, nil
}

// DeleteVoucher removes a voucher definition. Orders keep the code string
// they were created with.
func (c *Conf) DeleteVoucher(ctx context.Context, code string) error {
	const query = `DELETE FROM vouchers WHERE code = $1`
	result, err := c.db.ExecContext(ctx, query, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return fmt.Errorf("failed to delete voucher: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrVoucherNotFound, code)
	}
	return nil
}

// ListVouchers returns all voucher definitions, newest first.
func (c *Conf) ListVouchers(ctx context.Context) ([]Voucher, error) {
	query := fmt.Sprintf(`SELECT %s FROM vouchers ORDER BY created_at DESC`, voucherColumns)
	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query vouchers: %w", err)
	}
	defer rows.Close()

	var result []Voucher
	for rows.Next() {
		var v Voucher
		var value string
		if err := rows.Scan(&v.Code, &v.DiscountType, &value, &v.Quantity, &v.IsActive,
			&v.StartAt, &v.ExpiredAt, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan voucher: %w", err)
		}
		v.Value, err = decimal.NewFromString(value)
		if err != nil {
			return nil, fmt.Errorf("failed to parse voucher value: %w", err)
		}
		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating vouchers: %w", err)
	}
	return result, nil
}

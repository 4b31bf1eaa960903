package vouchers

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

// Voucher is keyed by its uppercased code, a natural key referenced from
// orders. Quantity is the redemption budget; the used count is derived from
// non-cancelled orders, not stored.
type Voucher struct {
	Code         string          `json:"code"`
	DiscountType string          `json:"discount_type"`
	Value        decimal.Decimal `json:"value"`
	Quantity     int             `json:"quantity"`
	IsActive     bool            `json:"is_active"`
	StartAt      *time.Time      `json:"start_at,omitempty"`
	ExpiredAt    *time.Time      `json:"expired_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// NewVoucher is the input for voucher creation and full update.
type NewVoucher struct {
	Code         string     `json:"code" validate:"required"`
	DiscountType string     `json:"discount_type" validate:"required,oneof=percentage fixed"`
	Value        string     `json:"value" validate:"required"`
	Quantity     int        `json:"quantity" validate:"min=0"`
	IsActive     bool       `json:"is_active"`
	StartAt      *time.Time `json:"start_at"`
	ExpiredAt    *time.Time `json:"expired_at"`
}

// Reason explains why a voucher is not redeemable. Reasons are checked in a
// fixed precedence order: not-found, inactive, expired, not-started,
// exhausted.
type Reason string

const (
	ReasonOK         Reason = ""
	ReasonNotFound   Reason = "voucher not found"
	ReasonInactive   Reason = "voucher is not active"
	ReasonExpired    Reason = "voucher has expired"
	ReasonNotStarted Reason = "voucher is not active yet"
	ReasonExhausted  Reason = "voucher quantity exhausted"
)

// Verdict is the advisory result of a redeemability check.
type Verdict struct {
	Redeemable bool   `json:"valid"`
	Reason     Reason `json:"message,omitempty"`
	UsedCount  int    `json:"-"`
}

// Discount computes the discount amount for the given order subtotal,
// snapshotted onto the order at creation time. Never exceeds the subtotal.
func (v Voucher) Discount(subtotal int64) int64 {
	var discount decimal.Decimal
	switch v.DiscountType {
	case DiscountPercentage:
		discount = decimal.NewFromInt(subtotal).Mul(v.Value).Div(decimal.NewFromInt(100)).Round(0)
	case DiscountFixed:
		discount = v.Value.Round(0)
	default:
		return 0
	}

	amount := discount.IntPart()
	if amount < 0 {
		return 0
	}
	if amount > subtotal {
		return subtotal
	}
	return amount
}

// Evaluate applies the redeemability rules for a voucher that was found,
// given the derived used count and the instant of the check.
func Evaluate(v Voucher, usedCount int, at time.Time) Verdict {
	if !v.IsActive {
		return Verdict{Reason: ReasonInactive, UsedCount: usedCount}
	}
	if v.ExpiredAt != nil && at.After(*v.ExpiredAt) {
		return Verdict{Reason: ReasonExpired, UsedCount: usedCount}
	}
	if v.StartAt != nil && at.Before(*v.StartAt) {
		return Verdict{Reason: ReasonNotStarted, UsedCount: usedCount}
	}
	if usedCount >= v.Quantity {
		return Verdict{Reason: ReasonExhausted, UsedCount: usedCount}
	}
	return Verdict{Redeemable: true, Reason: ReasonOK, UsedCount: usedCount}
}

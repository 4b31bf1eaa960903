package vouchers

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestDiscount(t *testing.T) {
	tests := []struct {
		name     string
		voucher  Voucher
		subtotal int64
		want     int64
	}{
		{
			name:     "ten percent",
			voucher:  Voucher{DiscountType: DiscountPercentage, Value: decimal.NewFromInt(10)},
			subtotal: 250000,
			want:     25000,
		},
		{
			name:     "percentage rounds to whole unit",
			voucher:  Voucher{DiscountType: DiscountPercentage, Value: decimal.NewFromFloat(12.5)},
			subtotal: 999,
			want:     125, // 124.875 rounds half up
		},
		{
			name:     "hundred percent caps at subtotal",
			voucher:  Voucher{DiscountType: DiscountPercentage, Value: decimal.NewFromInt(100)},
			subtotal: 5000,
			want:     5000,
		},
		{
			name:     "fixed amount",
			voucher:  Voucher{DiscountType: DiscountFixed, Value: decimal.NewFromInt(20000)},
			subtotal: 250000,
			want:     20000,
		},
		{
			name:     "fixed amount capped at subtotal",
			voucher:  Voucher{DiscountType: DiscountFixed, Value: decimal.NewFromInt(20000)},
			subtotal: 15000,
			want:     15000,
		},
		{
			name:     "unknown type discounts nothing",
			voucher:  Voucher{DiscountType: "bogus", Value: decimal.NewFromInt(50)},
			subtotal: 10000,
			want:     0,
		},
		{
			name:     "negative value discounts nothing",
			voucher:  Voucher{DiscountType: DiscountFixed, Value: decimal.NewFromInt(-500)},
			subtotal: 10000,
			want:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.voucher.Discount(tt.subtotal); got != tt.want {
				t.Errorf("Discount(%d) = %d, want %d", tt.subtotal, got, tt.want)
			}
		})
	}
}

func TestEvaluate(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	base := Voucher{
		Code:         "SUMMER10",
		DiscountType: DiscountPercentage,
		Value:        decimal.NewFromInt(10),
		Quantity:     5,
		IsActive:     true,
	}

	tests := []struct {
		name      string
		mutate    func(v *Voucher)
		usedCount int
		want      Reason
	}{
		{
			name:   "redeemable",
			mutate: func(v *Voucher) {},
			want:   ReasonOK,
		},
		{
			name:   "inactive",
			mutate: func(v *Voucher) { v.IsActive = false },
			want:   ReasonInactive,
		},
		{
			name:   "expired",
			mutate: func(v *Voucher) { v.ExpiredAt = &past },
			want:   ReasonExpired,
		},
		{
			name:   "not started",
			mutate: func(v *Voucher) { v.StartAt = &future },
			want:   ReasonNotStarted,
		},
		{
			name:      "exhausted",
			mutate:    func(v *Voucher) {},
			usedCount: 5,
			want:      ReasonExhausted,
		},
		{
			name:      "over-redeemed still exhausted",
			mutate:    func(v *Voucher) {},
			usedCount: 7,
			want:      ReasonExhausted,
		},
		{
			name: "inactive wins over expired",
			mutate: func(v *Voucher) {
				v.IsActive = false
				v.ExpiredAt = &past
			},
			want: ReasonInactive,
		},
		{
			name: "expired wins over not started",
			mutate: func(v *Voucher) {
				v.ExpiredAt = &past
				v.StartAt = &future
			},
			want: ReasonExpired,
		},
		{
			name:      "not started wins over exhausted",
			mutate:    func(v *Voucher) { v.StartAt = &future },
			usedCount: 5,
			want:      ReasonNotStarted,
		},
		{
			name: "window boundaries are inclusive",
			mutate: func(v *Voucher) {
				v.StartAt = &now
				v.ExpiredAt = &now
			},
			want: ReasonOK,
		},
		{
			name:   "open window is redeemable",
			mutate: func(v *Voucher) { v.StartAt, v.ExpiredAt = nil, nil },
			want:   ReasonOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := base
			tt.mutate(&v)
			verdict := Evaluate(v, tt.usedCount, now)
			if verdict.Reason != tt.want {
				t.Errorf("Evaluate() reason = %q, want %q", verdict.Reason, tt.want)
			}
			if verdict.Redeemable != (tt.want == ReasonOK) {
				t.Errorf("Evaluate() redeemable = %v with reason %q", verdict.Redeemable, verdict.Reason)
			}
			if verdict.UsedCount != tt.usedCount {
				t.Errorf("Evaluate() usedCount = %d, want %d", verdict.UsedCount, tt.usedCount)
			}
		})
	}
}

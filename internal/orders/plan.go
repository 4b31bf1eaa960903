package orders

import "github.com/quanh29/e-sweety-cake-sub000/internal/stock"

// Stock movement planners. Each mutation on the order aggregate maps to a
// set of signed stock deltas applied in the same transaction. Keeping the
// planning pure makes the invariant testable without a database: the net
// stock effect of an order is -sum(item quantities) while it is live and 0
// once cancelled or deleted.

// movements converts order items into stock movements, scaling each quantity
// by sign (-1 to consume stock, +1 to restore it).
func movements(items []Item, sign int) []stock.Movement {
	result := make([]stock.Movement, 0, len(items))
	for _, item := range items {
		result = append(result, stock.Movement{ProductID: item.ProductID, Delta: sign * item.Quantity})
	}
	return result
}

// planCreate consumes stock for every new line.
func planCreate(items []Item) []stock.Movement {
	return movements(items, -1)
}

// planReplace restores the old lines and consumes the new ones. A cancelled
// order holds no stock on either side, so its lines are replaced without
// touching stock at all.
func planReplace(current Status, oldItems, newItems []Item) []stock.Movement {
	if current == StatusCancelled {
		return nil
	}
	return append(movements(oldItems, +1), movements(newItems, -1)...)
}

// planStatusChange restores stock only when moving into cancelled from a
// non-cancelled state. Re-cancelling is a no-op: without the old-status
// guard the restore would run twice.
func planStatusChange(oldStatus, newStatus Status, items []Item) []stock.Movement {
	if newStatus == StatusCancelled && oldStatus != StatusCancelled {
		return movements(items, +1)
	}
	return nil
}

// planDelete restores the stock the order still holds; a cancelled order
// already restored it at cancellation time.
func planDelete(current Status, items []Item) []stock.Movement {
	if current == StatusCancelled {
		return nil
	}
	return movements(items, +1)
}

// salesMarkerNeeded reports whether moving from oldStatus to newStatus must
// record a sales marker. Creation passes an empty old status, so an order
// born confirmed is recorded like a confirmation transition.
func salesMarkerNeeded(oldStatus, newStatus Status) bool {
	return newStatus == StatusConfirmed && oldStatus != StatusConfirmed
}

// sameVoucher reports whether a full update keeps the order's voucher code.
func sameVoucher(oldCode, newCode *string) bool {
	if oldCode == nil || newCode == nil {
		return oldCode == nil && newCode == nil
	}
	return *oldCode == *newCode
}

// clampDiscount bounds a kept discount snapshot by the replaced line set's
// subtotal.
func clampDiscount(discount, subtotal int64) int64 {
	if discount < 0 {
		return 0
	}
	if discount > subtotal {
		return subtotal
	}
	return discount
}

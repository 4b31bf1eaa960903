package orders

import (
	"errors"
	"fmt"
)

// ErrInvalidStatus is returned when a status value is not part of the enum.
var ErrInvalidStatus = errors.New("invalid order status")

// Status is the closed set of order states. Transitions between states are
// unrestricted; the guarded side effects (stock restore on cancel, sales
// marker on confirm) depend on the old status, see Conf.UpdateOrderStatus.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusShipped   Status = "shipped"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// ParseStatus validates a raw status value against the enum.
func ParseStatus(raw string) (Status, error) {
	switch Status(raw) {
	case StatusPending, StatusConfirmed, StatusShipped, StatusCompleted, StatusCancelled:
		return Status(raw), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
}

// ParseInitialStatus validates a status for order creation. Only pending and
// confirmed are creatable; the other states only exist as transitions on a
// live order. In particular an order born cancelled would consume stock that
// no cancellation or deletion path ever restores.
func ParseInitialStatus(raw string) (Status, error) {
	s, err := ParseStatus(raw)
	if err != nil {
		return "", err
	}
	switch s {
	case StatusPending, StatusConfirmed:
		return s, nil
	default:
		return "", fmt.Errorf("%w: %q not allowed at creation", ErrInvalidStatus, raw)
	}
}

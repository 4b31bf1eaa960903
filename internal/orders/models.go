package orders

import "time"

// Order represents an order aggregate: the order row plus its line items.
// Prices are in the smallest currency unit.
type Order struct {
	ID              string    `json:"id"`
	CustomerName    string    `json:"customer_name"`
	CustomerPhone   string    `json:"customer_phone"`
	CustomerAddress string    `json:"customer_address"`
	Note            string    `json:"note"`
	ShippingFee     int64     `json:"shipping_fee"`
	VoucherCode     *string   `json:"voucher_code,omitempty"`
	Discount        int64     `json:"discount"` // snapshotted at creation time
	Status          Status    `json:"status"`
	CreatedBy       *string   `json:"created_by,omitempty"` // nil for public orders
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	Items           []Item    `json:"items"`
	Subtotal        int64     `json:"subtotal"` // derived, not stored
	Total           int64     `json:"total"`    // subtotal + shipping fee
}

// Item is one order line. Price is the unit price snapshot captured when the
// order was created, never re-derived from the current product price.
type Item struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Price     int64  `json:"price"`
}

// NewOrder is the input for order creation.
type NewOrder struct {
	CustomerName    string    `json:"customer_name" validate:"required"`
	CustomerPhone   string    `json:"customer_phone" validate:"required"`
	CustomerAddress string    `json:"customer_address" validate:"required"`
	Note            string    `json:"note"`
	ShippingFee     int64     `json:"shipping_fee" validate:"min=0"`
	VoucherCode     *string   `json:"voucher_code"`
	Status          Status    `json:"-"`
	CreatedBy       *string   `json:"-"`
	Items           []NewItem `json:"items" validate:"required,min=1,dive"`
}

// UpdateOrder is the input for a full replace of an order's customer fields
// and line set. Status is left unchanged by updates.
type UpdateOrder struct {
	CustomerName    string    `json:"customer_name" validate:"required"`
	CustomerPhone   string    `json:"customer_phone" validate:"required"`
	CustomerAddress string    `json:"customer_address" validate:"required"`
	Note            string    `json:"note"`
	ShippingFee     int64     `json:"shipping_fee" validate:"min=0"`
	VoucherCode     *string   `json:"voucher_code"`
	Items           []NewItem `json:"items" validate:"required,min=1,dive"`
}

// NewItem is one requested order line.
type NewItem struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
	Price     int64  `json:"price" validate:"min=0"`
}

// Subtotal computes the sum of quantity x unit price over the items.
func Subtotal(items []Item) int64 {
	var sum int64
	for _, item := range items {
		sum += int64(item.Quantity) * item.Price
	}
	return sum
}

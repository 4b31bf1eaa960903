package imports

import "time"

// Entry is a stock entry aggregate: one goods-received record plus its
// lines. Entries have no status; inventory counts as received on creation.
type Entry struct {
	ID          string    `json:"id"`
	ShippingFee int64     `json:"shipping_fee"`
	CreatedBy   *string   `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Items       []Item    `json:"items"`
	Subtotal    int64     `json:"subtotal"` // derived, not stored
	Total       int64     `json:"total"`    // subtotal + shipping fee
}

// Item is one entry line. Price is the unit cost paid to the supplier.
type Item struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Price     int64  `json:"price"`
}

// NewEntry is the input for entry creation and full update.
type NewEntry struct {
	ShippingFee int64     `json:"shipping_fee" validate:"min=0"`
	CreatedBy   *string   `json:"-"`
	Items       []NewItem `json:"items" validate:"required,min=1,dive"`
}

// NewItem is one requested entry line.
type NewItem struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
	Price     int64  `json:"price" validate:"min=0"`
}

// Subtotal computes the sum of quantity x unit cost over the items.
func Subtotal(items []Item) int64 {
	var sum int64
	for _, item := range items {
		sum += int64(item.Quantity) * item.Price
	}
	return sum
}

package products

import "time"

// Product is a catalog item. Price is in the smallest currency unit. Stock
// is only ever mutated through the stock ledger.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       int64     `json:"price"`
	Stock       int       `json:"stock"`
	Image       string    `json:"image"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewProduct is the input for product creation.
type NewProduct struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Price       int64  `json:"price" validate:"min=0"`
	Stock       int    `json:"stock" validate:"min=0"`
	Image       string `json:"image"`
}

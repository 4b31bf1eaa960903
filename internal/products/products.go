package products

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrProductNotFound is returned when the product id does not exist.
var ErrProductNotFound = errors.New("product not found")

type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{db: db}, nil
}

// InsertProduct saves a new product. The initial stock is the opening count;
// after that only the stock ledger mutates it.
func (c *Conf) InsertProduct(ctx context.Context, np NewProduct) (Product, error) {
	const query = `
		INSERT INTO products (id, name, description, price, stock, image, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id, name, description, price, stock, image, created_at, updated_at
	`
	var p Product
	err := c.db.QueryRowContext(ctx, query, uuid.NewString(), np.Name, np.Description,
		np.Price, np.Stock, np.Image).Scan(&p.ID, &p.Name, &p.Description, &p.Price,
		&p.Stock, &p.Image, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Product{}, fmt.Errorf("failed to insert product: %w", err)
	}
	return p, nil
}

// GetProductByID fetches one product.
func (c *Conf) GetProductByID(ctx context.Context, productID string) (Product, error) {
	const query = `
		SELECT id, name, description, price, stock, image, created_at, updated_at
		FROM products
		WHERE id = $1
	`
	var p Product
	err := c.db.QueryRowContext(ctx, query, productID).Scan(&p.ID, &p.Name, &p.Description,
		&p.Price, &p.Stock, &p.Image, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Product{}, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
		}
		return Product{}, fmt.Errorf("failed to query product: %w", err)
	}
	return p, nil
}

// UpdateProductInDB updates the catalog fields. Stock is deliberately not
// part of the update, it belongs to the stock ledger.
func (c *Conf) UpdateProductInDB(ctx context.Context, productID string, np NewProduct) (Product, error) {
	const query = `
		UPDATE products
		SET name = $2, description = $3, price = $4, image = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING id, name, description, price, stock, image, created_at, updated_at
	`
	var p Product
	err := c.db.QueryRowContext(ctx, query, productID, np.Name, np.Description, np.Price, np.Image).
		Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.Image, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Product{}, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
		}
		return Product{}, fmt.Errorf("failed to update product: %w", err)
	}
	return p, nil
}

// DeleteProductFromDB removes a product from the catalog.
func (c *Conf) DeleteProductFromDB(ctx context.Context, productID string) error {
	const query = `DELETE FROM products WHERE id = $1`
	result, err := c.db.ExecContext(ctx, query, productID)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrProductNotFound, productID)
	}
	return nil
}

// ListProductsFromDB lists products with optional name filter and paging.
func (c *Conf) ListProductsFromDB(ctx context.Context, nameFilter string, limit, offset int) ([]Product, error) {
	const query = `
		SELECT id, name, description, price, stock, image, created_at, updated_at
		FROM products
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%')
		ORDER BY name
		LIMIT $2 OFFSET $3
	`
	rows, err := c.db.QueryContext(ctx, query, nameFilter, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var result []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.Image,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}
	return result, nil
}

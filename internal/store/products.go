package store

import (
	"context"
	"database/sql"

	"menu-import-service/internal/models"

	"github.com/google/uuid"
)

// ProductByExternalID retrieves a product by its site-provided
// identifier within a restaurant. Returns nil without error when no
// row exists; external identifiers routinely disappear between scrapes.
func (t *Tx) ProductByExternalID(ctx context.Context, restaurantID uuid.UUID, externalID string) (*models.Product, error) {
	var p models.Product
	err := t.tx.GetContext(ctx, &p,
		"SELECT * FROM products WHERE restaurant_id = $1 AND external_id = $2",
		restaurantID, externalID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ProductByName retrieves a product by name within a restaurant.
// Returns nil without error when no row exists.
func (t *Tx) ProductByName(ctx context.Context, restaurantID uuid.UUID, name string) (*models.Product, error) {
	var p models.Product
	err := t.tx.GetContext(ctx, &p,
		"SELECT * FROM products WHERE restaurant_id = $1 AND name = $2",
		restaurantID, name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProduct inserts a new product. Returns false when a concurrent
// importer created the same (restaurant, name) first.
func (t *Tx) CreateProduct(ctx context.Context, p *models.Product) (bool, error) {
	query := `
		INSERT INTO products (
			id, restaurant_id, category_id, external_id, name,
			description, image_url, options, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (restaurant_id, name) DO NOTHING`

	return t.execInsert(ctx, query,
		p.ID, p.RestaurantID, p.CategoryID, p.ExternalID, p.Name,
		p.Description, p.ImageURL, p.Options, p.IsActive)
}

// RenameProduct updates the stored name after the site renamed an item
// that kept its external identifier.
func (t *Tx) RenameProduct(ctx context.Context, id uuid.UUID, name string) error {
	_, err := t.tx.ExecContext(ctx,
		"UPDATE products SET name = $1, updated_at = NOW() WHERE id = $2", name, id)
	return err
}

// SetProductExternalID records an identifier drift observed for a
// product matched by name.
func (t *Tx) SetProductExternalID(ctx context.Context, id uuid.UUID, externalID string) error {
	_, err := t.tx.ExecContext(ctx,
		"UPDATE products SET external_id = $1, updated_at = NOW() WHERE id = $2", externalID, id)
	return err
}

package store

import (
	"context"
	"database/sql"

	"menu-import-service/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// CategoriesByNames retrieves existing categories for a restaurant in
// one batch lookup. A snapshot commonly references dozens of
// categories, so this replaces one round trip per name.
func (t *Tx) CategoriesByNames(ctx context.Context, restaurantID uuid.UUID, names []string) (map[string]uuid.UUID, error) {
	result := make(map[string]uuid.UUID, len(names))
	if len(names) == 0 {
		return result, nil
	}

	query, args, err := sqlx.In(
		"SELECT id, name FROM categories WHERE restaurant_id = ? AND name IN (?)",
		restaurantID, names)
	if err != nil {
		return nil, err
	}
	query = t.tx.Rebind(query)

	var rows []struct {
		ID   uuid.UUID `db:"id"`
		Name string    `db:"name"`
	}
	if err := t.tx.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	for _, row := range rows {
		result[row.Name] = row.ID
	}
	return result, nil
}

// CreateCategory inserts a new category. Returns false when a
// concurrent importer created the same (restaurant, name) first; the
// caller re-reads instead of erroring.
func (t *Tx) CreateCategory(ctx context.Context, c *models.Category) (bool, error) {
	query := `
		INSERT INTO categories (id, restaurant_id, name, description, display_order, source)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (restaurant_id, name) DO NOTHING`

	return t.execInsert(ctx, query,
		c.ID, c.RestaurantID, c.Name, c.Description, c.DisplayOrder, c.Source)
}

// CategoryByName retrieves one category by name within a restaurant.
// Returns nil without error when no row exists.
func (t *Tx) CategoryByName(ctx context.Context, restaurantID uuid.UUID, name string) (*models.Category, error) {
	var c models.Category
	err := t.tx.GetContext(ctx, &c,
		"SELECT * FROM categories WHERE restaurant_id = $1 AND name = $2", restaurantID, name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

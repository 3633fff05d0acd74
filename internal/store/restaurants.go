package store

import (
	"context"
	"database/sql"
	"strings"
	"unicode"

	"menu-import-service/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// RestaurantByIdentity retrieves a restaurant by its (name, brand)
// identity key. Returns nil without error when no row exists.
func (t *Tx) RestaurantByIdentity(ctx context.Context, name, brand string) (*models.Restaurant, error) {
	var r models.Restaurant
	err := t.tx.GetContext(ctx, &r,
		"SELECT * FROM restaurants WHERE name = $1 AND brand = $2", name, brand)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateRestaurant inserts a new restaurant. Returns false when a
// concurrent importer created the same (name, brand) first.
func (t *Tx) CreateRestaurant(ctx context.Context, r *models.Restaurant) (bool, error) {
	query := `
		INSERT INTO restaurants (id, name, brand, slug, address, phone, cuisine_types)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (name, brand) DO NOTHING`

	return t.execInsert(ctx, query,
		r.ID, r.Name, r.Brand, r.Slug, r.Address, r.Phone, r.CuisineTypes)
}

// UpdateRestaurantContact updates the mutable descriptive fields. The
// (name, brand) identity key is never touched here.
func (t *Tx) UpdateRestaurantContact(ctx context.Context, id uuid.UUID, address, phone string, cuisineTypes []string) error {
	_, err := t.tx.ExecContext(ctx,
		"UPDATE restaurants SET address = $1, phone = $2, cuisine_types = $3, updated_at = NOW() WHERE id = $4",
		address, phone, pq.StringArray(cuisineTypes), id)
	return err
}

// InsertRestaurantSnapshot appends the per-scrape rating/delivery
// metadata. Re-delivery of the same instant is a no-op.
func (t *Tx) InsertRestaurantSnapshot(ctx context.Context, snap *models.RestaurantSnapshot) error {
	query := `
		INSERT INTO restaurant_snapshots (
			restaurant_id, rating, delivery_fee, minimum_order,
			delivery_time, total_products, total_categories, scraped_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (restaurant_id, scraped_at) DO NOTHING`

	_, err := t.tx.ExecContext(ctx, query,
		snap.RestaurantID, snap.Rating, snap.DeliveryFee, snap.MinimumOrder,
		snap.DeliveryTime, snap.TotalProducts, snap.TotalCategories, snap.ScrapedAt)
	return err
}

// Slugify derives the URL-safe restaurant slug from its name.
func Slugify(name string) string {
	s := strings.ToLower(name)
	s = strings.ReplaceAll(s, "&", "and")
	s = strings.ReplaceAll(s, "'", "")
	s = strings.ReplaceAll(s, " ", "-")

	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-")
}

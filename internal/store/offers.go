package store

import (
	"context"
	"database/sql"
	"time"

	"menu-import-service/internal/models"

	"github.com/google/uuid"
)

// OfferByName retrieves the most recent offer with this name within a
// restaurant, active or not. Returns nil without error when no row
// exists.
func (t *Tx) OfferByName(ctx context.Context, restaurantID uuid.UUID, name string) (*models.Offer, error) {
	var o models.Offer
	err := t.tx.GetContext(ctx, &o, `
		SELECT * FROM offers
		WHERE restaurant_id = $1 AND name = $2
		ORDER BY created_at DESC LIMIT 1`,
		restaurantID, name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// CreateOffer inserts a new offer. Returns false when a concurrent
// importer created the same (restaurant, name) first.
func (t *Tx) CreateOffer(ctx context.Context, o *models.Offer) (bool, error) {
	query := `
		INSERT INTO offers (
			id, restaurant_id, name, offer_type, discount_percentage,
			discount_amount, start_date, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (restaurant_id, name) DO NOTHING`

	return t.execInsert(ctx, query,
		o.ID, o.RestaurantID, o.Name, o.OfferType, o.DiscountPercentage,
		o.DiscountAmount, o.StartDate, o.IsActive)
}

// ReactivateOffer brings a previously ended offer back with refreshed
// discount values. The start date resets to the reappearance instant.
func (t *Tx) ReactivateOffer(ctx context.Context, id uuid.UUID, pct, amount *float64, startDate time.Time) error {
	_, err := t.tx.ExecContext(ctx, `
		UPDATE offers
		SET is_active = true, end_date = NULL, discount_percentage = $1,
		    discount_amount = $2, start_date = $3, updated_at = NOW()
		WHERE id = $4`,
		pct, amount, startDate, id)
	return err
}

// ActiveOffers lists the offers currently marked active for a restaurant.
func (t *Tx) ActiveOffers(ctx context.Context, restaurantID uuid.UUID) ([]models.Offer, error) {
	var offers []models.Offer
	err := t.tx.SelectContext(ctx, &offers,
		"SELECT * FROM offers WHERE restaurant_id = $1 AND is_active = true", restaurantID)
	return offers, err
}

// DeactivateOffer ends an offer that no longer appears in the current
// snapshot. The row itself is kept; history references it.
func (t *Tx) DeactivateOffer(ctx context.Context, id uuid.UUID, endDate time.Time) error {
	_, err := t.tx.ExecContext(ctx,
		"UPDATE offers SET is_active = false, end_date = $1, updated_at = NOW() WHERE id = $2",
		endDate, id)
	return err
}

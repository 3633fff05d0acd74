package store

import (
	"context"

	"menu-import-service/internal/models"
)

// InsertPricePoint appends one immutable price observation. Returns
// false when a row for this (product, instant) pair already exists:
// re-delivery of an already-imported snapshot is a no-op, not an error.
func (t *Tx) InsertPricePoint(ctx context.Context, pp *models.PricePoint) (bool, error) {
	query := `
		INSERT INTO product_prices (
			product_id, price, original_price, currency, discount_percentage,
			offer_id, offer_name, availability, scraped_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (product_id, scraped_at) DO NOTHING`

	return t.execInsert(ctx, query,
		pp.ProductID, pp.Price, pp.OriginalPrice, pp.Currency, pp.DiscountPercentage,
		pp.OfferID, pp.OfferName, pp.Availability, pp.ScrapedAt)
}

package store

import (
	"context"

	"menu-import-service/internal/models"

	"github.com/google/uuid"
)

// OrphanOffers lists offers with neither a discount percentage nor a
// fixed amount. The import path never creates these; they are
// leftovers from earlier faulty ingestion.
func (t *Tx) OrphanOffers(ctx context.Context) ([]models.Offer, error) {
	var offers []models.Offer
	err := t.tx.SelectContext(ctx, &offers,
		"SELECT * FROM offers WHERE discount_percentage IS NULL AND discount_amount IS NULL")
	return offers, err
}

// DetachOfferFromPrices nullifies the offer link on price rows. Price
// history is append-only; cleanup must never delete observations.
func (t *Tx) DetachOfferFromPrices(ctx context.Context, offerID uuid.UUID) (int64, error) {
	res, err := t.tx.ExecContext(ctx,
		"UPDATE product_prices SET offer_id = NULL, offer_name = NULL WHERE offer_id = $1", offerID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteOffer removes one offer row. Only used by the orphan cleanup
// pass after its price links were nullified.
func (t *Tx) DeleteOffer(ctx context.Context, offerID uuid.UUID) error {
	_, err := t.tx.ExecContext(ctx, "DELETE FROM offers WHERE id = $1", offerID)
	return err
}

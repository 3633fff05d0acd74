package store

import (
	"context"

	"menu-import-service/internal/models"

	"github.com/google/uuid"
)

// Read-oriented derived views. Everything here is computed at read
// time; the write path stays a pure append.

// LatestPrices returns the most recent observation per product for a
// restaurant.
func (s *Store) LatestPrices(ctx context.Context, restaurantID uuid.UUID) ([]models.LatestPrice, error) {
	var prices []models.LatestPrice
	err := s.db.SelectContext(ctx, &prices, `
		SELECT DISTINCT ON (pp.product_id)
			pp.product_id, p.name AS product_name, c.name AS category_name,
			pp.price, pp.original_price, pp.currency, pp.discount_percentage,
			pp.availability, pp.scraped_at
		FROM product_prices pp
		JOIN products p ON p.id = pp.product_id
		JOIN categories c ON c.id = p.category_id
		WHERE p.restaurant_id = $1
		ORDER BY pp.product_id, pp.scraped_at DESC`,
		restaurantID)
	return prices, err
}

// PriceHistory returns every observation for one product with its
// period-over-period delta.
func (s *Store) PriceHistory(ctx context.Context, productID uuid.UUID) ([]models.PriceChange, error) {
	var changes []models.PriceChange
	err := s.db.SelectContext(ctx, &changes, `
		SELECT product_id, price, original_price,
			LAG(price) OVER w AS previous_price,
			price - LAG(price) OVER w AS delta,
			scraped_at
		FROM product_prices
		WHERE product_id = $1
		WINDOW w AS (ORDER BY scraped_at)
		ORDER BY scraped_at`,
		productID)
	return changes, err
}

// CurrentOffers returns the offers active right now for a restaurant,
// with the number of price observations linked to each.
func (s *Store) CurrentOffers(ctx context.Context, restaurantID uuid.UUID) ([]models.ActiveOffer, error) {
	var offers []models.ActiveOffer
	err := s.db.SelectContext(ctx, &offers, `
		SELECT o.id AS offer_id, o.name, o.offer_type,
			o.discount_percentage, o.discount_amount, o.start_date,
			COUNT(pp.id) AS products_affected,
			MAX(pp.scraped_at) AS last_seen
		FROM offers o
		LEFT JOIN product_prices pp ON pp.offer_id = o.id
		WHERE o.restaurant_id = $1
			AND o.is_active = true
			AND (o.end_date IS NULL OR o.end_date >= NOW())
		GROUP BY o.id
		ORDER BY products_affected DESC`,
		restaurantID)
	return offers, err
}

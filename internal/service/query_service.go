package service

import (
	"context"

	"menu-import-service/internal/models"
	"menu-import-service/internal/redisclient"
	"menu-import-service/internal/store"
	"menu-import-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// QueryService serves the read-oriented derived views consumed by
// downstream analytics.
type QueryService struct {
	store  *store.Store
	cache  *redisclient.Client
	logger *zap.Logger
}

// NewQueryService creates a new query service. The cache may be nil.
func NewQueryService(st *store.Store, cache *redisclient.Client) *QueryService {
	return &QueryService{store: st, cache: cache, logger: util.GetLogger()}
}

// LatestPrices returns the most recent observation per product for a
// restaurant, served from the cache when warm and backfilled on a miss.
func (q *QueryService) LatestPrices(ctx context.Context, restaurantID uuid.UUID) ([]models.LatestPrice, error) {
	if q.cache != nil {
		prices, hit, err := q.cache.GetLatestPrices(ctx, restaurantID)
		if err != nil {
			q.logger.Warn("Latest-price cache read failed, falling back to DB",
				zap.String("restaurant_id", restaurantID.String()),
				zap.Error(err))
		} else if hit {
			return prices, nil
		}
	}

	prices, err := q.store.LatestPrices(ctx, restaurantID)
	if err != nil {
		return nil, err
	}

	if q.cache != nil {
		if err := q.cache.SetLatestPrices(ctx, restaurantID, prices); err != nil {
			q.logger.Warn("Failed to backfill latest-price cache", zap.Error(err))
		}
	}
	return prices, nil
}

// PriceHistory returns a product's observations with their deltas.
func (q *QueryService) PriceHistory(ctx context.Context, productID uuid.UUID) ([]models.PriceChange, error) {
	return q.store.PriceHistory(ctx, productID)
}

// ActiveOffers returns the offers currently running for a restaurant.
func (q *QueryService) ActiveOffers(ctx context.Context, restaurantID uuid.UUID) ([]models.ActiveOffer, error) {
	return q.store.CurrentOffers(ctx, restaurantID)
}

// RecentSessions lists the latest import attempts.
func (q *QueryService) RecentSessions(ctx context.Context, limit int) ([]models.ImportSession, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return q.store.RecentSessions(ctx, limit)
}

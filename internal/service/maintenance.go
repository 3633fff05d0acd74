package service

import (
	"context"
	"fmt"

	"menu-import-service/internal/store"
	"menu-import-service/internal/util"

	"go.uber.org/zap"
)

// Maintenance holds the data-quality passes that run outside the
// ingestion path.
type Maintenance struct {
	store  *store.Store
	logger *zap.Logger
}

// NewMaintenance creates a new maintenance service
func NewMaintenance(st *store.Store) *Maintenance {
	return &Maintenance{store: st, logger: util.GetLogger()}
}

// CleanupResult summarizes one orphan-offer cleanup pass.
type CleanupResult struct {
	OffersDeleted  int   `json:"offers_deleted"`
	PricesDetached int64 `json:"prices_detached"`
}

// CleanupOrphanOffers removes offers that carry neither a discount
// percentage nor a fixed amount. Price history is append-only: linked
// price rows have their offer reference nullified and are never
// deleted.
func (m *Maintenance) CleanupOrphanOffers(ctx context.Context) (*CleanupResult, error) {
	tx, err := m.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	orphans, err := tx.OrphanOffers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list orphan offers: %w", err)
	}

	result := &CleanupResult{}
	for _, offer := range orphans {
		detached, err := tx.DetachOfferFromPrices(ctx, offer.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to detach prices from offer %q: %w", offer.Name, err)
		}
		if err := tx.DeleteOffer(ctx, offer.ID); err != nil {
			return nil, fmt.Errorf("failed to delete orphan offer %q: %w", offer.Name, err)
		}

		result.OffersDeleted++
		result.PricesDetached += detached
		m.logger.Info("Orphan offer removed",
			zap.String("name", offer.Name),
			zap.String("restaurant_id", offer.RestaurantID.String()),
			zap.Int64("prices_detached", detached))
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit cleanup: %w", err)
	}

	m.logger.Info("Orphan offer cleanup finished",
		zap.Int("offers_deleted", result.OffersDeleted),
		zap.Int64("prices_detached", result.PricesDetached))
	return result, nil
}

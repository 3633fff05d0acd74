package service

import (
	"context"
	"fmt"
	"time"

	"menu-import-service/internal/models"
	"menu-import-service/internal/snapshot"
	"menu-import-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OfferStore is the slice of the session handle offer extraction needs.
type OfferStore interface {
	OfferByName(ctx context.Context, restaurantID uuid.UUID, name string) (*models.Offer, error)
	CreateOffer(ctx context.Context, o *models.Offer) (bool, error)
	ReactivateOffer(ctx context.Context, id uuid.UUID, pct, amount *float64, startDate time.Time) error
	ActiveOffers(ctx context.Context, restaurantID uuid.UUID) ([]models.Offer, error)
	DeactivateOffer(ctx context.Context, id uuid.UUID, endDate time.Time) error
}

// OfferExtractor derives named and percentage offer records from
// per-item offer metadata and folds repeated mentions into one row per
// (restaurant, name).
type OfferExtractor struct {
	logger *zap.Logger
}

// NewOfferExtractor creates a new offer extractor
func NewOfferExtractor() *OfferExtractor {
	return &OfferExtractor{logger: util.GetLogger()}
}

// offerIdentity is one deduplicated offer derived from the snapshot.
type offerIdentity struct {
	name      string
	offerType string
	pct       *float64
	amount    *float64
}

// OfferNameFor returns the offer identity an item maps to: its explicit
// offer name, or a synthesized percentage identity when only a bare
// discount percentage is present. The second return is false when the
// item produces no offer at all.
func (e *OfferExtractor) OfferNameFor(item *snapshot.Product) (string, bool) {
	if item.OfferName != "" {
		return item.OfferName, true
	}
	if item.DiscountPercentage > 0 {
		return fmt.Sprintf("%d%% Discount", int(item.DiscountPercentage)), true
	}
	return "", false
}

// Extract resolves or creates every offer mentioned by the snapshot's
// items and returns the name-to-identifier mapping used to link price
// points. Offers previously active for this restaurant but absent from
// the snapshot are deactivated; reappearing offers are reactivated.
func (e *OfferExtractor) Extract(ctx context.Context, tx OfferStore, restaurantID uuid.UUID,
	items []snapshot.Product, observedAt time.Time) (map[string]uuid.UUID, error) {

	identities := e.collect(items)

	if err := e.deactivateAbsent(ctx, tx, restaurantID, identities, observedAt); err != nil {
		return nil, err
	}

	mapping := make(map[string]uuid.UUID, len(identities))
	for name, ident := range identities {
		id, err := e.resolveOffer(ctx, tx, restaurantID, ident, observedAt)
		if err != nil {
			return nil, err
		}
		mapping[name] = id
	}
	return mapping, nil
}

// collect deduplicates offer identities across the snapshot's items.
// An item with neither an offer name nor a positive percentage produces
// nothing; an identity with neither a percentage nor an amount is never
// created.
func (e *OfferExtractor) collect(items []snapshot.Product) map[string]offerIdentity {
	identities := make(map[string]offerIdentity)

	for i := range items {
		item := &items[i]
		name, ok := e.OfferNameFor(item)
		if !ok {
			continue
		}

		ident := offerIdentity{name: name}
		if item.DiscountPercentage > 0 {
			pct := item.DiscountPercentage
			ident.pct = &pct
		}
		if item.DiscountAmount > 0 {
			amount := item.DiscountAmount
			ident.amount = &amount
		}
		if ident.pct == nil && ident.amount == nil {
			// A bare campaign name with no discount data: nothing to store.
			continue
		}

		switch {
		case item.OfferName == "":
			ident.offerType = models.OfferTypePercentage
		case ident.amount != nil && ident.pct == nil:
			ident.offerType = models.OfferTypeFixed
		default:
			ident.offerType = models.OfferTypeNamed
		}

		if _, seen := identities[name]; !seen {
			identities[name] = ident
		}
	}
	return identities
}

// resolveOffer returns the offer's identifier, creating or reactivating
// the row as needed. A create that loses a race against a concurrent
// importer is re-read, never an error.
func (e *OfferExtractor) resolveOffer(ctx context.Context, tx OfferStore, restaurantID uuid.UUID,
	ident offerIdentity, observedAt time.Time) (uuid.UUID, error) {

	existing, err := tx.OfferByName(ctx, restaurantID, ident.name)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to look up offer %q: %w", ident.name, err)
	}
	if existing != nil {
		if !existing.IsActive {
			if err := tx.ReactivateOffer(ctx, existing.ID, ident.pct, ident.amount, observedAt); err != nil {
				return uuid.Nil, fmt.Errorf("failed to reactivate offer %q: %w", ident.name, err)
			}
			util.OffersReactivatedTotal.Inc()
			e.logger.Info("Offer reactivated",
				zap.String("name", ident.name),
				zap.String("restaurant_id", restaurantID.String()))
		}
		return existing.ID, nil
	}

	offer := &models.Offer{
		ID:                 uuid.New(),
		RestaurantID:       restaurantID,
		Name:               ident.name,
		OfferType:          ident.offerType,
		DiscountPercentage: ident.pct,
		DiscountAmount:     ident.amount,
		StartDate:          observedAt,
		IsActive:           true,
	}

	inserted, err := tx.CreateOffer(ctx, offer)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create offer %q: %w", ident.name, err)
	}
	if !inserted {
		existing, err = tx.OfferByName(ctx, restaurantID, ident.name)
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to re-read offer %q after conflict: %w", ident.name, err)
		}
		if existing == nil {
			return uuid.Nil, fmt.Errorf("offer %q vanished after create conflict", ident.name)
		}
		return existing.ID, nil
	}

	util.OffersCreatedTotal.Inc()
	e.logger.Debug("Offer created",
		zap.String("name", ident.name),
		zap.String("type", ident.offerType))
	return offer.ID, nil
}

// deactivateAbsent ends the restaurant's active offers that the current
// snapshot no longer mentions. The rows stay; price history keeps
// referencing them.
func (e *OfferExtractor) deactivateAbsent(ctx context.Context, tx OfferStore, restaurantID uuid.UUID,
	identities map[string]offerIdentity, observedAt time.Time) error {

	active, err := tx.ActiveOffers(ctx, restaurantID)
	if err != nil {
		return fmt.Errorf("failed to list active offers: %w", err)
	}

	for _, offer := range active {
		if _, stillActive := identities[offer.Name]; stillActive {
			continue
		}
		if err := tx.DeactivateOffer(ctx, offer.ID, observedAt); err != nil {
			return fmt.Errorf("failed to deactivate offer %q: %w", offer.Name, err)
		}
		util.OffersDeactivatedTotal.Inc()
		e.logger.Info("Offer deactivated",
			zap.String("name", offer.Name),
			zap.String("restaurant_id", restaurantID.String()))
	}
	return nil
}

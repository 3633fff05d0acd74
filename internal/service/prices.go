package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"menu-import-service/internal/models"
	"menu-import-service/internal/snapshot"
	"menu-import-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PriceStore is the slice of the session handle the history writer needs.
type PriceStore interface {
	InsertPricePoint(ctx context.Context, pp *models.PricePoint) (bool, error)
}

// PriceHistoryWriter appends one immutable price observation per item
// per snapshot. Whether an observation is a discount is derived by
// readers; the write path stays a pure append.
type PriceHistoryWriter struct {
	logger *zap.Logger
}

// NewPriceHistoryWriter creates a new price history writer
func NewPriceHistoryWriter() *PriceHistoryWriter {
	return &PriceHistoryWriter{logger: util.GetLogger()}
}

// Append writes the price observation for one item at the snapshot's
// observation instant. Returns false when a row for this
// (product, instant) pair already exists; re-delivery of the same
// snapshot is a counted no-op, never an error.
func (w *PriceHistoryWriter) Append(ctx context.Context, tx PriceStore, productID uuid.UUID,
	item *snapshot.Product, offerID *uuid.UUID, offerName *string, observedAt time.Time) (bool, error) {

	pp := &models.PricePoint{
		ProductID:          productID,
		Price:              item.Price,
		OriginalPrice:      correctedOriginalPrice(item),
		Currency:           item.Currency,
		DiscountPercentage: item.DiscountPercentage,
		OfferID:            offerID,
		OfferName:          offerName,
		Availability:       item.Available(),
		ScrapedAt:          observedAt,
	}

	inserted, err := tx.InsertPricePoint(ctx, pp)
	if err != nil {
		return false, fmt.Errorf("failed to append price point: %w", err)
	}
	if !inserted {
		util.PricePointsDuplicateTotal.Inc()
		w.logger.Debug("Price point already recorded for this instant",
			zap.String("product_id", productID.String()),
			zap.Time("scraped_at", observedAt))
		return false, nil
	}

	util.PricePointsWrittenTotal.Inc()
	return true, nil
}

// correctedOriginalPrice recomputes the pre-discount price when the
// scraper reported a discount percentage but the same price in both
// fields. price = original * (1 - pct/100), so original = price / (1 - pct/100).
func correctedOriginalPrice(item *snapshot.Product) float64 {
	if item.DiscountPercentage > 0 && item.DiscountPercentage < 100 && item.Price == item.OriginalPrice {
		original := item.Price / (1 - item.DiscountPercentage/100)
		return math.Round(original*100) / 100
	}
	return item.OriginalPrice
}

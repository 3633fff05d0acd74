package service

import (
	"context"
	"fmt"

	"menu-import-service/internal/models"
	"menu-import-service/internal/snapshot"
	"menu-import-service/internal/util"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"
)

// ProductStore is the slice of the session handle product
// reconciliation needs.
type ProductStore interface {
	ProductByExternalID(ctx context.Context, restaurantID uuid.UUID, externalID string) (*models.Product, error)
	ProductByName(ctx context.Context, restaurantID uuid.UUID, name string) (*models.Product, error)
	CreateProduct(ctx context.Context, p *models.Product) (bool, error)
	RenameProduct(ctx context.Context, id uuid.UUID, name string) error
	SetProductExternalID(ctx context.Context, id uuid.UUID, externalID string) error
}

// ProductReconciler resolves the product row for each incoming item.
// External identifiers drift between scrapes (reassigned, omitted,
// replaced); resolving by external ID first and falling back to the
// name absorbs that drift without forking a logical product into
// duplicate rows.
type ProductReconciler struct {
	logger *zap.Logger
}

// NewProductReconciler creates a new product reconciler
func NewProductReconciler() *ProductReconciler {
	return &ProductReconciler{logger: util.GetLogger()}
}

// Resolve returns the product's surrogate identifier, creating the row
// when the item was never seen before. The decision procedure:
//
//  1. Look up by external ID (when present). On a hit, the stored name
//     follows the incoming one (the site renamed the item).
//  2. Look up by name. On a hit, the stored external ID follows the
//     incoming one (the site reassigned the identifier).
//  3. Create. A lost create race re-runs the name lookup.
func (r *ProductReconciler) Resolve(ctx context.Context, tx ProductStore,
	restaurantID, categoryID uuid.UUID, item *snapshot.Product) (uuid.UUID, error) {

	if item.ExternalID != "" {
		found, err := tx.ProductByExternalID(ctx, restaurantID, item.ExternalID)
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to look up product by external id: %w", err)
		}
		if found != nil {
			if found.Name != item.Name {
				r.logger.Info("Product renamed by site",
					zap.String("old_name", found.Name),
					zap.String("new_name", item.Name),
					zap.String("external_id", item.ExternalID))
				if err := tx.RenameProduct(ctx, found.ID, item.Name); err != nil {
					return uuid.Nil, fmt.Errorf("failed to rename product: %w", err)
				}
			}
			util.ProductsMatchedTotal.WithLabelValues("external_id").Inc()
			return found.ID, nil
		}
	}

	found, err := tx.ProductByName(ctx, restaurantID, item.Name)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to look up product by name: %w", err)
	}
	if found != nil {
		return r.adoptByName(ctx, tx, found, item)
	}

	externalID := nullableID(item.ExternalID)
	product := &models.Product{
		ID:           uuid.New(),
		RestaurantID: restaurantID,
		CategoryID:   categoryID,
		ExternalID:   externalID,
		Name:         item.Name,
		Description:  item.Description,
		ImageURL:     item.ImageURL,
		Options:      optionsJSON(item.Options),
		IsActive:     true,
	}

	inserted, err := tx.CreateProduct(ctx, product)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create product %q: %w", item.Name, err)
	}
	if !inserted {
		// A concurrent importer inserted the same name; resolve
		// against the now-existing row instead of erroring.
		found, err = tx.ProductByName(ctx, restaurantID, item.Name)
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to re-read product %q after conflict: %w", item.Name, err)
		}
		if found == nil {
			return uuid.Nil, fmt.Errorf("product %q vanished after create conflict", item.Name)
		}
		return r.adoptByName(ctx, tx, found, item)
	}

	util.ProductsCreatedTotal.Inc()
	r.logger.Debug("Product created",
		zap.String("name", item.Name),
		zap.String("external_id", item.ExternalID))
	return product.ID, nil
}

// adoptByName reuses a row matched by name, recording any external
// identifier drift (nil to value, or value to a different value).
func (r *ProductReconciler) adoptByName(ctx context.Context, tx ProductStore,
	found *models.Product, item *snapshot.Product) (uuid.UUID, error) {

	if item.ExternalID != "" {
		stored := ""
		if found.ExternalID != nil {
			stored = *found.ExternalID
		}
		if stored != item.ExternalID {
			r.logger.Info("Product external id drifted",
				zap.String("name", item.Name),
				zap.String("old_external_id", stored),
				zap.String("new_external_id", item.ExternalID))
			if err := tx.SetProductExternalID(ctx, found.ID, item.ExternalID); err != nil {
				return uuid.Nil, fmt.Errorf("failed to update product external id: %w", err)
			}
		}
	}
	util.ProductsMatchedTotal.WithLabelValues("name").Inc()
	return found.ID, nil
}

func nullableID(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optionsJSON(raw []byte) types.JSONText {
	if len(raw) == 0 {
		return types.JSONText("[]")
	}
	return types.JSONText(raw)
}

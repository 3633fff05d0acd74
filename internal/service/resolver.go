package service

import (
	"context"
	"fmt"

	"menu-import-service/internal/models"
	"menu-import-service/internal/snapshot"
	"menu-import-service/internal/store"
	"menu-import-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RestaurantStore is the slice of the session handle the resolver needs.
type RestaurantStore interface {
	RestaurantByIdentity(ctx context.Context, name, brand string) (*models.Restaurant, error)
	CreateRestaurant(ctx context.Context, r *models.Restaurant) (bool, error)
	UpdateRestaurantContact(ctx context.Context, id uuid.UUID, address, phone string, cuisineTypes []string) error
	InsertRestaurantSnapshot(ctx context.Context, snap *models.RestaurantSnapshot) error
}

// CategoryStore is the slice of the session handle category resolution needs.
type CategoryStore interface {
	CategoriesByNames(ctx context.Context, restaurantID uuid.UUID, names []string) (map[string]uuid.UUID, error)
	CreateCategory(ctx context.Context, c *models.Category) (bool, error)
	CategoryByName(ctx context.Context, restaurantID uuid.UUID, name string) (*models.Category, error)
}

// EntityResolver idempotently resolves the restaurant and category rows
// referenced by one snapshot.
type EntityResolver struct {
	logger *zap.Logger
}

// NewEntityResolver creates a new entity resolver
func NewEntityResolver() *EntityResolver {
	return &EntityResolver{logger: util.GetLogger()}
}

// ResolveRestaurant returns the restaurant's identifier, creating the
// row on first sight. On re-encounter the mutable descriptive fields
// are updated in place; the (name, brand) identity key never changes.
func (r *EntityResolver) ResolveRestaurant(ctx context.Context, tx RestaurantStore, info *snapshot.Restaurant) (uuid.UUID, error) {
	existing, err := tx.RestaurantByIdentity(ctx, info.Name, info.Brand)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to look up restaurant: %w", err)
	}
	if existing != nil {
		if err := tx.UpdateRestaurantContact(ctx, existing.ID, info.Address, info.Phone, info.CuisineTypes); err != nil {
			return uuid.Nil, fmt.Errorf("failed to update restaurant: %w", err)
		}
		return existing.ID, nil
	}

	restaurant := &models.Restaurant{
		ID:           uuid.New(),
		Name:         info.Name,
		Brand:        info.Brand,
		Slug:         store.Slugify(info.Name),
		Address:      info.Address,
		Phone:        info.Phone,
		CuisineTypes: info.CuisineTypes,
	}

	inserted, err := tx.CreateRestaurant(ctx, restaurant)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create restaurant: %w", err)
	}
	if !inserted {
		// Lost the race against a concurrent importer; the row exists now.
		existing, err = tx.RestaurantByIdentity(ctx, info.Name, info.Brand)
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to re-read restaurant after conflict: %w", err)
		}
		if existing == nil {
			return uuid.Nil, fmt.Errorf("restaurant %q vanished after create conflict", info.Name)
		}
		return existing.ID, nil
	}

	util.RestaurantsCreatedTotal.Inc()
	r.logger.Info("Restaurant created",
		zap.String("name", info.Name),
		zap.String("restaurant_id", restaurant.ID.String()))
	return restaurant.ID, nil
}

// ResolveCategories resolves every category name referenced by one
// snapshot in one batch lookup plus one batch create, and guarantees
// the fallback category exists. A creation that loses a race against a
// concurrent importer is re-read, never surfaced as an error.
func (r *EntityResolver) ResolveCategories(ctx context.Context, tx CategoryStore, restaurantID uuid.UUID, categories []snapshot.Category) (map[string]uuid.UUID, error) {
	names := make([]string, 0, len(categories)+1)
	seen := make(map[string]bool, len(categories)+1)
	for _, c := range categories {
		if c.Name == "" || seen[c.Name] {
			continue
		}
		seen[c.Name] = true
		names = append(names, c.Name)
	}
	if !seen[snapshot.FallbackCategory] {
		names = append(names, snapshot.FallbackCategory)
	}

	mapping, err := tx.CategoriesByNames(ctx, restaurantID, names)
	if err != nil {
		return nil, fmt.Errorf("failed to batch-fetch categories: %w", err)
	}

	for _, c := range categories {
		if c.Name == "" {
			continue
		}
		if _, ok := mapping[c.Name]; ok {
			continue
		}
		id, err := r.createCategory(ctx, tx, &models.Category{
			ID:           uuid.New(),
			RestaurantID: restaurantID,
			Name:         c.Name,
			Description:  c.Description,
			DisplayOrder: c.DisplayOrder,
			Source:       "scraper",
		})
		if err != nil {
			return nil, err
		}
		mapping[c.Name] = id
	}

	if _, ok := mapping[snapshot.FallbackCategory]; !ok {
		id, err := r.createCategory(ctx, tx, &models.Category{
			ID:           uuid.New(),
			RestaurantID: restaurantID,
			Name:         snapshot.FallbackCategory,
			Description:  "Products without specific category",
			DisplayOrder: 999,
			Source:       "fallback",
		})
		if err != nil {
			return nil, err
		}
		mapping[snapshot.FallbackCategory] = id
	}

	return mapping, nil
}

// RecordRestaurantSnapshot appends the rating/delivery metadata seen in
// this scrape.
func (r *EntityResolver) RecordRestaurantSnapshot(ctx context.Context, tx RestaurantStore, restaurantID uuid.UUID, doc *snapshot.Document) error {
	snap := &models.RestaurantSnapshot{
		RestaurantID:    restaurantID,
		Rating:          doc.Restaurant.Rating,
		DeliveryFee:     doc.Restaurant.DeliveryFee,
		MinimumOrder:    doc.Restaurant.MinimumOrder,
		DeliveryTime:    doc.Restaurant.DeliveryTime,
		TotalProducts:   len(doc.Products),
		TotalCategories: len(doc.Categories),
		ScrapedAt:       doc.ObservedAt(),
	}
	if err := tx.InsertRestaurantSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("failed to record restaurant snapshot: %w", err)
	}
	return nil
}

func (r *EntityResolver) createCategory(ctx context.Context, tx CategoryStore, c *models.Category) (uuid.UUID, error) {
	inserted, err := tx.CreateCategory(ctx, c)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create category %q: %w", c.Name, err)
	}
	if inserted {
		util.CategoriesCreatedTotal.Inc()
		return c.ID, nil
	}

	r.logger.Debug("Category already exists, re-reading after conflict",
		zap.String("name", c.Name))
	existing, err := tx.CategoryByName(ctx, c.RestaurantID, c.Name)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to re-read category %q after conflict: %w", c.Name, err)
	}
	if existing == nil {
		return uuid.Nil, fmt.Errorf("category %q vanished after create conflict", c.Name)
	}
	return existing.ID, nil
}

package service

import (
	"context"
	"time"

	"menu-import-service/internal/models"

	"github.com/google/uuid"
)

// In-memory store fakes. Each one keeps the same compare-and-create
// contract as the real session handle: Create returns false when the
// row already exists, and the caller re-reads.

type fakeRestaurantStore struct {
	restaurants []*models.Restaurant
	snapshots   []*models.RestaurantSnapshot
	updates     int

	// When set, the next Create loses the race: the fake inserts a
	// competing row under a different identifier and reports no insert,
	// as a concurrent importer having won would.
	conflictOnCreate bool
}

func (f *fakeRestaurantStore) RestaurantByIdentity(_ context.Context, name, brand string) (*models.Restaurant, error) {
	for _, r := range f.restaurants {
		if r.Name == name && r.Brand == brand {
			return r, nil
		}
	}
	return nil, nil
}

func (f *fakeRestaurantStore) CreateRestaurant(_ context.Context, r *models.Restaurant) (bool, error) {
	if f.conflictOnCreate {
		f.conflictOnCreate = false
		winner := *r
		winner.ID = uuid.New()
		f.restaurants = append(f.restaurants, &winner)
		return false, nil
	}
	f.restaurants = append(f.restaurants, r)
	return true, nil
}

func (f *fakeRestaurantStore) UpdateRestaurantContact(_ context.Context, id uuid.UUID, address, phone string, cuisineTypes []string) error {
	for _, r := range f.restaurants {
		if r.ID == id {
			r.Address = address
			r.Phone = phone
			r.CuisineTypes = cuisineTypes
		}
	}
	f.updates++
	return nil
}

func (f *fakeRestaurantStore) InsertRestaurantSnapshot(_ context.Context, snap *models.RestaurantSnapshot) error {
	f.snapshots = append(f.snapshots, snap)
	return nil
}

type fakeCategoryStore struct {
	categories []*models.Category

	conflictOnCreate bool
}

func (f *fakeCategoryStore) CategoriesByNames(_ context.Context, restaurantID uuid.UUID, names []string) (map[string]uuid.UUID, error) {
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}
	result := make(map[string]uuid.UUID)
	for _, c := range f.categories {
		if c.RestaurantID == restaurantID && wanted[c.Name] {
			result[c.Name] = c.ID
		}
	}
	return result, nil
}

func (f *fakeCategoryStore) CreateCategory(_ context.Context, c *models.Category) (bool, error) {
	if f.conflictOnCreate {
		f.conflictOnCreate = false
		winner := *c
		winner.ID = uuid.New()
		f.categories = append(f.categories, &winner)
		return false, nil
	}
	f.categories = append(f.categories, c)
	return true, nil
}

func (f *fakeCategoryStore) CategoryByName(_ context.Context, restaurantID uuid.UUID, name string) (*models.Category, error) {
	for _, c := range f.categories {
		if c.RestaurantID == restaurantID && c.Name == name {
			return c, nil
		}
	}
	return nil, nil
}

type fakeProductStore struct {
	products []*models.Product

	conflictOnCreate bool
}

func (f *fakeProductStore) ProductByExternalID(_ context.Context, restaurantID uuid.UUID, externalID string) (*models.Product, error) {
	for _, p := range f.products {
		if p.RestaurantID == restaurantID && p.ExternalID != nil && *p.ExternalID == externalID {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakeProductStore) ProductByName(_ context.Context, restaurantID uuid.UUID, name string) (*models.Product, error) {
	for _, p := range f.products {
		if p.RestaurantID == restaurantID && p.Name == name {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakeProductStore) CreateProduct(_ context.Context, p *models.Product) (bool, error) {
	if f.conflictOnCreate {
		f.conflictOnCreate = false
		winner := *p
		winner.ID = uuid.New()
		f.products = append(f.products, &winner)
		return false, nil
	}
	f.products = append(f.products, p)
	return true, nil
}

func (f *fakeProductStore) RenameProduct(_ context.Context, id uuid.UUID, name string) error {
	for _, p := range f.products {
		if p.ID == id {
			p.Name = name
		}
	}
	return nil
}

func (f *fakeProductStore) SetProductExternalID(_ context.Context, id uuid.UUID, externalID string) error {
	for _, p := range f.products {
		if p.ID == id {
			v := externalID
			p.ExternalID = &v
		}
	}
	return nil
}

type fakeOfferStore struct {
	offers []*models.Offer

	conflictOnCreate bool
}

func (f *fakeOfferStore) OfferByName(_ context.Context, restaurantID uuid.UUID, name string) (*models.Offer, error) {
	var latest *models.Offer
	for _, o := range f.offers {
		if o.RestaurantID != restaurantID || o.Name != name {
			continue
		}
		if latest == nil || o.CreatedAt.After(latest.CreatedAt) {
			latest = o
		}
	}
	return latest, nil
}

func (f *fakeOfferStore) CreateOffer(_ context.Context, o *models.Offer) (bool, error) {
	if f.conflictOnCreate {
		f.conflictOnCreate = false
		winner := *o
		winner.ID = uuid.New()
		f.offers = append(f.offers, &winner)
		return false, nil
	}
	f.offers = append(f.offers, o)
	return true, nil
}

func (f *fakeOfferStore) ReactivateOffer(_ context.Context, id uuid.UUID, pct, amount *float64, startDate time.Time) error {
	for _, o := range f.offers {
		if o.ID == id {
			o.IsActive = true
			o.EndDate = nil
			o.DiscountPercentage = pct
			o.DiscountAmount = amount
			o.StartDate = startDate
		}
	}
	return nil
}

func (f *fakeOfferStore) ActiveOffers(_ context.Context, restaurantID uuid.UUID) ([]models.Offer, error) {
	var active []models.Offer
	for _, o := range f.offers {
		if o.RestaurantID == restaurantID && o.IsActive {
			active = append(active, *o)
		}
	}
	return active, nil
}

func (f *fakeOfferStore) DeactivateOffer(_ context.Context, id uuid.UUID, endDate time.Time) error {
	for _, o := range f.offers {
		if o.ID == id {
			o.IsActive = false
			end := endDate
			o.EndDate = &end
		}
	}
	return nil
}

type fakePriceStore struct {
	points []*models.PricePoint
}

func (f *fakePriceStore) InsertPricePoint(_ context.Context, pp *models.PricePoint) (bool, error) {
	for _, existing := range f.points {
		if existing.ProductID == pp.ProductID && existing.ScrapedAt.Equal(pp.ScrapedAt) {
			return false, nil
		}
	}
	f.points = append(f.points, pp)
	return true, nil
}

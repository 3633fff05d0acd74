package service

import (
	"context"
	"testing"

	"menu-import-service/internal/models"
	"menu-import-service/internal/snapshot"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveRestaurantCreates(t *testing.T) {
	st := &fakeRestaurantStore{}
	r := NewEntityResolver()

	info := &snapshot.Restaurant{
		Name:         "Costa Coffee",
		Brand:        "Costa Coffee",
		Address:      "12 Main St",
		CuisineTypes: []string{"coffee"},
	}

	id, err := r.ResolveRestaurant(context.Background(), st, info)
	require.NoError(t, err)

	require.Len(t, st.restaurants, 1)
	assert.Equal(t, st.restaurants[0].ID, id)
	assert.Equal(t, "costa-coffee", st.restaurants[0].Slug)
}

func TestResolveRestaurantUpdatesInPlace(t *testing.T) {
	existing := &models.Restaurant{
		ID:      uuid.New(),
		Name:    "Costa Coffee",
		Brand:   "Costa Coffee",
		Address: "old address",
	}
	st := &fakeRestaurantStore{restaurants: []*models.Restaurant{existing}}
	r := NewEntityResolver()

	info := &snapshot.Restaurant{
		Name:    "Costa Coffee",
		Brand:   "Costa Coffee",
		Address: "12 Main St",
		Phone:   "+357 22 123456",
	}

	id, err := r.ResolveRestaurant(context.Background(), st, info)
	require.NoError(t, err)

	// Re-encounter never forks a second row; descriptive fields follow
	// the latest snapshot.
	assert.Equal(t, existing.ID, id)
	assert.Len(t, st.restaurants, 1)
	assert.Equal(t, "12 Main St", existing.Address)
	assert.Equal(t, "+357 22 123456", existing.Phone)
}

func TestResolveRestaurantLostCreateRace(t *testing.T) {
	st := &fakeRestaurantStore{conflictOnCreate: true}
	r := NewEntityResolver()

	info := &snapshot.Restaurant{Name: "Costa Coffee", Brand: "Costa Coffee"}
	id, err := r.ResolveRestaurant(context.Background(), st, info)
	require.NoError(t, err)

	require.Len(t, st.restaurants, 1)
	assert.Equal(t, st.restaurants[0].ID, id)
}

func TestResolveCategoriesCreatesMissing(t *testing.T) {
	restaurantID := uuid.New()
	existing := &models.Category{
		ID:           uuid.New(),
		RestaurantID: restaurantID,
		Name:         "Hot Drinks",
	}
	st := &fakeCategoryStore{categories: []*models.Category{existing}}
	r := NewEntityResolver()

	mapping, err := r.ResolveCategories(context.Background(), st, restaurantID, []snapshot.Category{
		{Name: "Hot Drinks"},
		{Name: "Cold Drinks"},
		{Name: ""}, // ignored
	})
	require.NoError(t, err)

	assert.Equal(t, existing.ID, mapping["Hot Drinks"])
	assert.Contains(t, mapping, "Cold Drinks")
	// The fallback category is always resolvable, whether or not the
	// snapshot mentions it.
	assert.Contains(t, mapping, snapshot.FallbackCategory)
	assert.Len(t, st.categories, 3)
}

func TestResolveCategoriesDeduplicatesNames(t *testing.T) {
	st := &fakeCategoryStore{}
	r := NewEntityResolver()

	mapping, err := r.ResolveCategories(context.Background(), st, uuid.New(), []snapshot.Category{
		{Name: "Hot Drinks"},
		{Name: "Hot Drinks"},
	})
	require.NoError(t, err)

	assert.Len(t, mapping, 2) // Hot Drinks + fallback
	assert.Len(t, st.categories, 2)
}

func TestResolveCategoriesLostCreateRace(t *testing.T) {
	st := &fakeCategoryStore{conflictOnCreate: true}
	r := NewEntityResolver()

	mapping, err := r.ResolveCategories(context.Background(), st, uuid.New(), []snapshot.Category{
		{Name: "Hot Drinks"},
	})
	require.NoError(t, err)

	// The winner's identifier is adopted after the re-read.
	winner, err := st.CategoryByName(context.Background(), st.categories[0].RestaurantID, "Hot Drinks")
	require.NoError(t, err)
	require.NotNil(t, winner)
	assert.Equal(t, winner.ID, mapping["Hot Drinks"])
}

func TestRecordRestaurantSnapshot(t *testing.T) {
	st := &fakeRestaurantStore{}
	r := NewEntityResolver()
	restaurantID := uuid.New()

	rating := 4.5
	doc := &snapshot.Document{
		Restaurant: snapshot.Restaurant{Name: "Costa Coffee", Rating: &rating},
		Categories: []snapshot.Category{{Name: "Hot Drinks"}},
		Products:   []snapshot.Product{{Name: "Flat White", Price: 3.5}},
		Metadata:   snapshot.Metadata{ScrapedAt: "2026-08-20T10:30:00Z"},
		Source:     snapshot.Source{URL: "https://example.test/costa"},
	}
	require.NoError(t, doc.Validate())

	require.NoError(t, r.RecordRestaurantSnapshot(context.Background(), st, restaurantID, doc))

	require.Len(t, st.snapshots, 1)
	snap := st.snapshots[0]
	assert.Equal(t, restaurantID, snap.RestaurantID)
	assert.Equal(t, 1, snap.TotalProducts)
	assert.Equal(t, 1, snap.TotalCategories)
	assert.True(t, snap.ScrapedAt.Equal(doc.ObservedAt()))
	require.NotNil(t, snap.Rating)
	assert.Equal(t, 4.5, *snap.Rating)
}

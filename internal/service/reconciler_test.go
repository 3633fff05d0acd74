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

func strPtr(s string) *string { return &s }

func TestResolveCreatesNewProduct(t *testing.T) {
	st := &fakeProductStore{}
	r := NewProductReconciler()
	restaurantID, categoryID := uuid.New(), uuid.New()

	item := &snapshot.Product{ExternalID: "ext-1", Name: "Flat White", Price: 3.5}
	id, err := r.Resolve(context.Background(), st, restaurantID, categoryID, item)
	require.NoError(t, err)

	require.Len(t, st.products, 1)
	assert.Equal(t, id, st.products[0].ID)
	assert.Equal(t, "Flat White", st.products[0].Name)
	require.NotNil(t, st.products[0].ExternalID)
	assert.Equal(t, "ext-1", *st.products[0].ExternalID)
}

func TestResolveMatchesByExternalIDAndRenames(t *testing.T) {
	restaurantID, categoryID := uuid.New(), uuid.New()
	existing := &models.Product{
		ID:           uuid.New(),
		RestaurantID: restaurantID,
		CategoryID:   categoryID,
		ExternalID:   strPtr("ext-1"),
		Name:         "Flat White",
	}
	st := &fakeProductStore{products: []*models.Product{existing}}
	r := NewProductReconciler()

	// Same external ID, renamed on the site.
	item := &snapshot.Product{ExternalID: "ext-1", Name: "Flat White (Large)", Price: 3.9}
	id, err := r.Resolve(context.Background(), st, restaurantID, categoryID, item)
	require.NoError(t, err)

	assert.Equal(t, existing.ID, id)
	assert.Equal(t, "Flat White (Large)", existing.Name)
	assert.Len(t, st.products, 1)
}

func TestResolveExternalIDDrift(t *testing.T) {
	restaurantID, categoryID := uuid.New(), uuid.New()
	existing := &models.Product{
		ID:           uuid.New(),
		RestaurantID: restaurantID,
		CategoryID:   categoryID,
		ExternalID:   strPtr("ext-old"),
		Name:         "Flat White",
	}
	st := &fakeProductStore{products: []*models.Product{existing}}
	r := NewProductReconciler()

	// The platform reassigned the identifier; the name still matches,
	// so the logical product keeps its row and adopts the new ID.
	item := &snapshot.Product{ExternalID: "ext-new", Name: "Flat White", Price: 3.5}
	id, err := r.Resolve(context.Background(), st, restaurantID, categoryID, item)
	require.NoError(t, err)

	assert.Equal(t, existing.ID, id)
	require.NotNil(t, existing.ExternalID)
	assert.Equal(t, "ext-new", *existing.ExternalID)
	assert.Len(t, st.products, 1)
}

func TestResolveNameMatchBackfillsExternalID(t *testing.T) {
	restaurantID, categoryID := uuid.New(), uuid.New()
	existing := &models.Product{
		ID:           uuid.New(),
		RestaurantID: restaurantID,
		CategoryID:   categoryID,
		Name:         "Flat White",
	}
	st := &fakeProductStore{products: []*models.Product{existing}}
	r := NewProductReconciler()

	item := &snapshot.Product{ExternalID: "ext-1", Name: "Flat White", Price: 3.5}
	id, err := r.Resolve(context.Background(), st, restaurantID, categoryID, item)
	require.NoError(t, err)

	assert.Equal(t, existing.ID, id)
	require.NotNil(t, existing.ExternalID)
	assert.Equal(t, "ext-1", *existing.ExternalID)
}

func TestResolveWithoutExternalID(t *testing.T) {
	restaurantID, categoryID := uuid.New(), uuid.New()
	st := &fakeProductStore{}
	r := NewProductReconciler()

	item := &snapshot.Product{Name: "House Blend", Price: 2.5}
	id1, err := r.Resolve(context.Background(), st, restaurantID, categoryID, item)
	require.NoError(t, err)

	// Re-encountering the same name resolves to the same row and never
	// creates a duplicate.
	id2, err := r.Resolve(context.Background(), st, restaurantID, categoryID, item)
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
	assert.Len(t, st.products, 1)
	assert.Nil(t, st.products[0].ExternalID)
}

func TestResolveLostCreateRace(t *testing.T) {
	restaurantID, categoryID := uuid.New(), uuid.New()
	// A concurrent importer wins the insert between our name lookup and
	// our create. Resolve must re-read and adopt the winner's row.
	st := &fakeProductStore{conflictOnCreate: true}
	r := NewProductReconciler()

	item := &snapshot.Product{Name: "Flat White", Price: 3.5}
	id, err := r.Resolve(context.Background(), st, restaurantID, categoryID, item)
	require.NoError(t, err)

	require.Len(t, st.products, 1)
	assert.Equal(t, st.products[0].ID, id)
}

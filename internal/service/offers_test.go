package service

import (
	"context"
	"testing"
	"time"

	"menu-import-service/internal/models"
	"menu-import-service/internal/snapshot"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOfferNameFor(t *testing.T) {
	e := NewOfferExtractor()

	name, ok := e.OfferNameFor(&snapshot.Product{OfferName: "Summer Deal"})
	assert.True(t, ok)
	assert.Equal(t, "Summer Deal", name)

	name, ok = e.OfferNameFor(&snapshot.Product{DiscountPercentage: 30})
	assert.True(t, ok)
	assert.Equal(t, "30% Discount", name)

	// Explicit name wins over a percentage.
	name, ok = e.OfferNameFor(&snapshot.Product{OfferName: "Summer Deal", DiscountPercentage: 30})
	assert.True(t, ok)
	assert.Equal(t, "Summer Deal", name)

	_, ok = e.OfferNameFor(&snapshot.Product{Price: 3.5})
	assert.False(t, ok)
}

func TestExtractCreatesDedupedOffers(t *testing.T) {
	st := &fakeOfferStore{}
	e := NewOfferExtractor()
	restaurantID := uuid.New()
	now := time.Now()

	items := []snapshot.Product{
		{Name: "Flat White", Price: 2.45, DiscountPercentage: 30},
		{Name: "Latte", Price: 2.80, DiscountPercentage: 30},
		{Name: "Mocha", Price: 3.00, OfferName: "Summer Deal", DiscountPercentage: 20},
		{Name: "Tea", Price: 2.00},
	}

	mapping, err := e.Extract(context.Background(), st, restaurantID, items, now)
	require.NoError(t, err)

	// Two items share the synthesized 30% identity; one creates a named
	// offer; the undiscounted item creates nothing.
	assert.Len(t, mapping, 2)
	assert.Len(t, st.offers, 2)

	pct, err := st.OfferByName(context.Background(), restaurantID, "30% Discount")
	require.NoError(t, err)
	require.NotNil(t, pct)
	assert.Equal(t, models.OfferTypePercentage, pct.OfferType)
	require.NotNil(t, pct.DiscountPercentage)
	assert.Equal(t, 30.0, *pct.DiscountPercentage)
	assert.True(t, pct.IsActive)

	named, err := st.OfferByName(context.Background(), restaurantID, "Summer Deal")
	require.NoError(t, err)
	require.NotNil(t, named)
	assert.Equal(t, models.OfferTypeNamed, named.OfferType)
}

func TestExtractScopesOffersPerRestaurant(t *testing.T) {
	st := &fakeOfferStore{}
	e := NewOfferExtractor()
	now := time.Now()

	items := []snapshot.Product{
		{Name: "Flat White", Price: 2.45, DiscountPercentage: 30},
	}

	// The same synthesized name at two restaurants is two distinct rows.
	first, err := e.Extract(context.Background(), st, uuid.New(), items, now)
	require.NoError(t, err)
	second, err := e.Extract(context.Background(), st, uuid.New(), items, now)
	require.NoError(t, err)

	assert.Len(t, st.offers, 2)
	assert.NotEqual(t, first["30% Discount"], second["30% Discount"])
}

func TestExtractFixedAmountOffer(t *testing.T) {
	st := &fakeOfferStore{}
	e := NewOfferExtractor()
	restaurantID := uuid.New()

	items := []snapshot.Product{
		{Name: "Combo", Price: 8.00, OfferName: "2 Euro Off", DiscountAmount: 2},
	}

	_, err := e.Extract(context.Background(), st, restaurantID, items, time.Now())
	require.NoError(t, err)

	require.Len(t, st.offers, 1)
	assert.Equal(t, models.OfferTypeFixed, st.offers[0].OfferType)
	require.NotNil(t, st.offers[0].DiscountAmount)
	assert.Equal(t, 2.0, *st.offers[0].DiscountAmount)
	assert.Nil(t, st.offers[0].DiscountPercentage)
}

func TestExtractSkipsBareCampaignName(t *testing.T) {
	st := &fakeOfferStore{}
	e := NewOfferExtractor()

	// A campaign name with no discount data carries nothing to store.
	items := []snapshot.Product{
		{Name: "Flat White", Price: 3.5, OfferName: "New!"},
	}

	mapping, err := e.Extract(context.Background(), st, uuid.New(), items, time.Now())
	require.NoError(t, err)
	assert.Empty(t, mapping)
	assert.Empty(t, st.offers)
}

func TestExtractDeactivatesAbsentOffers(t *testing.T) {
	restaurantID := uuid.New()
	stale := &models.Offer{
		ID:           uuid.New(),
		RestaurantID: restaurantID,
		Name:         "Winter Deal",
		OfferType:    models.OfferTypeNamed,
		IsActive:     true,
	}
	st := &fakeOfferStore{offers: []*models.Offer{stale}}
	e := NewOfferExtractor()
	now := time.Now()

	items := []snapshot.Product{
		{Name: "Flat White", Price: 2.45, DiscountPercentage: 30},
	}

	_, err := e.Extract(context.Background(), st, restaurantID, items, now)
	require.NoError(t, err)

	assert.False(t, stale.IsActive)
	require.NotNil(t, stale.EndDate)
	assert.True(t, stale.EndDate.Equal(now))
}

func TestExtractReactivatesReturningOffer(t *testing.T) {
	restaurantID := uuid.New()
	ended := time.Now().Add(-24 * time.Hour)
	dormant := &models.Offer{
		ID:           uuid.New(),
		RestaurantID: restaurantID,
		Name:         "30% Discount",
		OfferType:    models.OfferTypePercentage,
		IsActive:     false,
		EndDate:      &ended,
	}
	st := &fakeOfferStore{offers: []*models.Offer{dormant}}
	e := NewOfferExtractor()
	now := time.Now()

	items := []snapshot.Product{
		{Name: "Flat White", Price: 2.45, DiscountPercentage: 30},
	}

	mapping, err := e.Extract(context.Background(), st, restaurantID, items, now)
	require.NoError(t, err)

	// Same row comes back; no duplicate is created.
	assert.Len(t, st.offers, 1)
	assert.Equal(t, dormant.ID, mapping["30% Discount"])
	assert.True(t, dormant.IsActive)
	assert.Nil(t, dormant.EndDate)
	assert.True(t, dormant.StartDate.Equal(now))
}

func TestExtractLostCreateRace(t *testing.T) {
	st := &fakeOfferStore{conflictOnCreate: true}
	e := NewOfferExtractor()
	restaurantID := uuid.New()

	items := []snapshot.Product{
		{Name: "Flat White", Price: 2.45, DiscountPercentage: 30},
	}

	mapping, err := e.Extract(context.Background(), st, restaurantID, items, time.Now())
	require.NoError(t, err)

	require.Len(t, st.offers, 1)
	assert.Equal(t, st.offers[0].ID, mapping["30% Discount"])
}

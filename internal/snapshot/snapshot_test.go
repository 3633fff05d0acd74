package snapshot

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSnapshot = `{
	"restaurant": {
		"name": "Costa Coffee",
		"address": "12 Main St",
		"phone": "+357 22 123456",
		"cuisine_types": ["coffee", "snacks"]
	},
	"categories": [
		{"name": "Hot Drinks", "display_order": 1},
		{"name": "Cold Drinks", "display_order": 2}
	],
	"products": [
		{"id": "p-1", "name": "Flat White", "price": 3.5, "category": "Hot Drinks"},
		{"id": "p-2", "name": "Iced Latte", "price": 4.0, "original_price": 5.0, "currency": "EUR", "category": "Cold Drinks"}
	],
	"metadata": {
		"domain": "foody.com.cy",
		"scraped_at": "2026-08-20T10:30:00Z"
	},
	"source": {"url": "https://foody.com.cy/delivery/costa-coffee"}
}`

func TestDecodeAndValidate(t *testing.T) {
	doc, err := Decode(strings.NewReader(sampleSnapshot))
	require.NoError(t, err)
	require.NoError(t, doc.Validate())

	assert.Equal(t, "Costa Coffee", doc.Restaurant.Name)
	// Brand defaults to the restaurant name when absent.
	assert.Equal(t, "Costa Coffee", doc.Restaurant.Brand)
	assert.Equal(t, time.Date(2026, 8, 20, 10, 30, 0, 0, time.UTC), doc.ObservedAt())
	assert.Len(t, doc.Products, 2)
}

func TestValidateFatalFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Document)
	}{
		{"missing restaurant name", func(d *Document) { d.Restaurant.Name = "" }},
		{"missing source url", func(d *Document) { d.Source.URL = "" }},
		{"missing scraped_at", func(d *Document) { d.Metadata.ScrapedAt = "" }},
		{"unparseable scraped_at", func(d *Document) { d.Metadata.ScrapedAt = "20/08/2026" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Decode(strings.NewReader(sampleSnapshot))
			require.NoError(t, err)
			tt.mutate(doc)
			assert.Error(t, doc.Validate())
		})
	}
}

func TestProductDefaults(t *testing.T) {
	doc, err := Decode(strings.NewReader(sampleSnapshot))
	require.NoError(t, err)
	require.NoError(t, doc.Validate())

	flatWhite := doc.Products[0]
	assert.Equal(t, "EUR", flatWhite.Currency)
	assert.Equal(t, 3.5, flatWhite.OriginalPrice) // defaults to price
	assert.True(t, flatWhite.Available())

	icedLatte := doc.Products[1]
	assert.Equal(t, 5.0, icedLatte.OriginalPrice) // explicit value kept
}

func TestProductMissingCategoryFallsBack(t *testing.T) {
	doc, err := Decode(strings.NewReader(sampleSnapshot))
	require.NoError(t, err)
	doc.Products[0].Category = ""
	require.NoError(t, doc.Validate())

	assert.Equal(t, FallbackCategory, doc.Products[0].Category)
}

func TestProductValidate(t *testing.T) {
	p := Product{Name: "Flat White", Price: 3.5}
	assert.NoError(t, p.Validate())

	p.Name = ""
	assert.Error(t, p.Validate())

	p = Product{Name: "Broken", Price: -1}
	assert.Error(t, p.Validate())
}

func TestAvailabilityExplicitFalse(t *testing.T) {
	unavailable := false
	p := Product{Name: "Seasonal", Price: 2, Availability: &unavailable}
	assert.False(t, p.Available())
}

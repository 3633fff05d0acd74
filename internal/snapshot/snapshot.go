// Package snapshot defines the scrape snapshot document produced by the
// extraction layer and the validation policy applied before import.
package snapshot

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// FallbackCategory receives products whose category name is missing or
// unknown.
const FallbackCategory = "Uncategorized"

// Document is one JSON snapshot of one restaurant's menu at one
// observation instant.
type Document struct {
	Restaurant Restaurant        `json:"restaurant"`
	Categories []Category        `json:"categories"`
	Products   []Product         `json:"products"`
	Metadata   Metadata          `json:"metadata"`
	Source     Source            `json:"source"`
	Errors     []json.RawMessage `json:"errors,omitempty"`

	observedAt time.Time
}

// Restaurant describes the scraped restaurant.
type Restaurant struct {
	Name         string   `json:"name"`
	Brand        string   `json:"brand"`
	Address      string   `json:"address"`
	Phone        string   `json:"phone"`
	Rating       *float64 `json:"rating,omitempty"`
	DeliveryFee  *float64 `json:"delivery_fee,omitempty"`
	MinimumOrder *float64 `json:"minimum_order,omitempty"`
	DeliveryTime string   `json:"delivery_time"`
	CuisineTypes []string `json:"cuisine_types"`
}

// Category is one menu section as observed on the site.
type Category struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	DisplayOrder int    `json:"display_order"`
	ItemCount    int    `json:"item_count"`
}

// Product is one menu item. The external ID is supplied by the
// originating platform and is not guaranteed stable across scrapes.
type Product struct {
	ExternalID         string          `json:"id"`
	Name               string          `json:"name"`
	Description        string          `json:"description"`
	Price              float64         `json:"price"`
	OriginalPrice      float64         `json:"original_price"`
	Currency           string          `json:"currency"`
	DiscountPercentage float64         `json:"discount_percentage"`
	DiscountAmount     float64         `json:"discount_amount"`
	OfferName          string          `json:"offer_name"`
	Category           string          `json:"category"`
	ImageURL           string          `json:"image_url"`
	Availability       *bool           `json:"availability,omitempty"`
	Options            json.RawMessage `json:"options,omitempty"`
}

// Metadata identifies the producing scraper and the observation instant.
type Metadata struct {
	Domain         string `json:"domain"`
	ScrapedAt      string `json:"scraped_at"`
	ScrapingMethod string `json:"scraping_method"`
	ScraperVersion string `json:"scraper_version"`
}

// Source is the originating URL.
type Source struct {
	URL string `json:"url"`
}

// Decode parses one snapshot document.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &doc, nil
}

// Validate checks the document for fatal shape problems and applies the
// documented defaults. Item-level problems are not fatal; they are
// reported per product by (*Product).Validate.
func (d *Document) Validate() error {
	if d.Restaurant.Name == "" {
		return fmt.Errorf("snapshot is missing restaurant name")
	}
	if d.Source.URL == "" {
		return fmt.Errorf("snapshot is missing source url")
	}
	if d.Metadata.ScrapedAt == "" {
		return fmt.Errorf("snapshot is missing observation instant")
	}

	observedAt, err := time.Parse(time.RFC3339, d.Metadata.ScrapedAt)
	if err != nil {
		return fmt.Errorf("invalid observation instant %q: %w", d.Metadata.ScrapedAt, err)
	}
	d.observedAt = observedAt

	if d.Restaurant.Brand == "" {
		d.Restaurant.Brand = d.Restaurant.Name
	}

	for i := range d.Products {
		d.Products[i].applyDefaults()
	}

	return nil
}

// ObservedAt returns the parsed observation instant. Valid only after
// Validate has succeeded.
func (d *Document) ObservedAt() time.Time {
	return d.observedAt
}

// Validate reports item-level problems; the offending product is
// skipped and the error recorded in the session, never fatal.
func (p *Product) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("product is missing name")
	}
	if p.Price < 0 {
		return fmt.Errorf("product %q has negative price %.2f", p.Name, p.Price)
	}
	return nil
}

// Available resolves the availability flag, defaulting to true.
func (p *Product) Available() bool {
	if p.Availability == nil {
		return true
	}
	return *p.Availability
}

func (p *Product) applyDefaults() {
	if p.Currency == "" {
		p.Currency = "EUR"
	}
	if p.Category == "" {
		p.Category = FallbackCategory
	}
	if p.OriginalPrice == 0 {
		p.OriginalPrice = p.Price
	}
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
)

// Restaurant is identified by (name, brand). Descriptive fields are
// updated in place on re-encounter; the identity key never changes.
type Restaurant struct {
	ID           uuid.UUID      `db:"id" json:"id"`
	Name         string         `db:"name" json:"name"`
	Brand        string         `db:"brand" json:"brand"`
	Slug         string         `db:"slug" json:"slug"`
	Address      string         `db:"address" json:"address"`
	Phone        string         `db:"phone" json:"phone"`
	CuisineTypes pq.StringArray `db:"cuisine_types" json:"cuisine_types"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// Category is unique per (restaurant_id, name).
type Category struct {
	ID           uuid.UUID `db:"id" json:"id"`
	RestaurantID uuid.UUID `db:"restaurant_id" json:"restaurant_id"`
	Name         string    `db:"name" json:"name"`
	Description  string    `db:"description" json:"description"`
	DisplayOrder int       `db:"display_order" json:"display_order"`
	Source       string    `db:"source" json:"source"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Product carries an optional site-provided external identifier that is
// not stable across scrapes. The surrogate ID never changes once
// assigned; both name and external_id may be updated after creation.
type Product struct {
	ID           uuid.UUID      `db:"id" json:"id"`
	RestaurantID uuid.UUID      `db:"restaurant_id" json:"restaurant_id"`
	CategoryID   uuid.UUID      `db:"category_id" json:"category_id"`
	ExternalID   *string        `db:"external_id" json:"external_id,omitempty"`
	Name         string         `db:"name" json:"name"`
	Description  string         `db:"description" json:"description"`
	ImageURL     string         `db:"image_url" json:"image_url"`
	Options      types.JSONText `db:"options" json:"options,omitempty"`
	IsActive     bool           `db:"is_active" json:"is_active"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// Offer is unique per (restaurant_id, name). A valid offer carries a
// discount percentage, a fixed discount amount, or both.
type Offer struct {
	ID                 uuid.UUID  `db:"id" json:"id"`
	RestaurantID       uuid.UUID  `db:"restaurant_id" json:"restaurant_id"`
	Name               string     `db:"name" json:"name"`
	OfferType          string     `db:"offer_type" json:"offer_type"`
	DiscountPercentage *float64   `db:"discount_percentage" json:"discount_percentage,omitempty"`
	DiscountAmount     *float64   `db:"discount_amount" json:"discount_amount,omitempty"`
	StartDate          time.Time  `db:"start_date" json:"start_date"`
	EndDate            *time.Time `db:"end_date" json:"end_date,omitempty"`
	IsActive           bool       `db:"is_active" json:"is_active"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

// Offer types
const (
	OfferTypePercentage = "percentage"
	OfferTypeNamed      = "named"
	OfferTypeFixed      = "fixed"
)

// PricePoint is one immutable price observation for one product at one
// instant. Unique per (product_id, scraped_at); never updated or
// deleted by the import path.
type PricePoint struct {
	ID                 int64      `db:"id" json:"id"`
	ProductID          uuid.UUID  `db:"product_id" json:"product_id"`
	Price              float64    `db:"price" json:"price"`
	OriginalPrice      float64    `db:"original_price" json:"original_price"`
	Currency           string     `db:"currency" json:"currency"`
	DiscountPercentage float64    `db:"discount_percentage" json:"discount_percentage"`
	OfferID            *uuid.UUID `db:"offer_id" json:"offer_id,omitempty"`
	OfferName          *string    `db:"offer_name" json:"offer_name,omitempty"`
	Availability       bool       `db:"availability" json:"availability"`
	ScrapedAt          time.Time  `db:"scraped_at" json:"scraped_at"`
}

// ImportSession records one restaurant-import attempt. The row lives
// outside the data transaction so a failed import still leaves its
// audit record behind.
type ImportSession struct {
	ID            uuid.UUID      `db:"id" json:"id"`
	RestaurantID  *uuid.UUID     `db:"restaurant_id" json:"restaurant_id,omitempty"`
	Platform      string         `db:"platform" json:"platform"`
	URL           string         `db:"url" json:"url"`
	StartedAt     time.Time      `db:"started_at" json:"started_at"`
	CompletedAt   *time.Time     `db:"completed_at" json:"completed_at,omitempty"`
	Status        string         `db:"status" json:"status"`
	ProductCount  int            `db:"product_count" json:"product_count"`
	CategoryCount int            `db:"category_count" json:"category_count"`
	ErrorCount    int            `db:"error_count" json:"error_count"`
	Errors        types.JSONText `db:"errors" json:"errors,omitempty"`
}

// Session statuses
const (
	SessionStatusRunning   = "RUNNING"
	SessionStatusCompleted = "COMPLETED"
	SessionStatusPartial   = "PARTIAL"
	SessionStatusFailed    = "FAILED"
)

// ImportError is one structured entry in a session's error list.
type ImportError struct {
	Stage   string `json:"stage"`
	Item    string `json:"item,omitempty"`
	Message string `json:"message"`
}

// RestaurantSnapshot holds the rating-adjacent metadata observed per
// scrape, kept separate from the restaurant identity row.
type RestaurantSnapshot struct {
	RestaurantID    uuid.UUID `db:"restaurant_id" json:"restaurant_id"`
	Rating          *float64  `db:"rating" json:"rating,omitempty"`
	DeliveryFee     *float64  `db:"delivery_fee" json:"delivery_fee,omitempty"`
	MinimumOrder    *float64  `db:"minimum_order" json:"minimum_order,omitempty"`
	DeliveryTime    string    `db:"delivery_time" json:"delivery_time"`
	TotalProducts   int       `db:"total_products" json:"total_products"`
	TotalCategories int       `db:"total_categories" json:"total_categories"`
	ScrapedAt       time.Time `db:"scraped_at" json:"scraped_at"`
}

// LatestPrice is the read view of the most recent observation per product.
type LatestPrice struct {
	ProductID          uuid.UUID `db:"product_id" json:"product_id"`
	ProductName        string    `db:"product_name" json:"product_name"`
	CategoryName       string    `db:"category_name" json:"category_name"`
	Price              float64   `db:"price" json:"price"`
	OriginalPrice      float64   `db:"original_price" json:"original_price"`
	Currency           string    `db:"currency" json:"currency"`
	DiscountPercentage float64   `db:"discount_percentage" json:"discount_percentage"`
	Availability       bool      `db:"availability" json:"availability"`
	ScrapedAt          time.Time `db:"scraped_at" json:"scraped_at"`
}

// PriceChange is one history row with its period-over-period delta.
type PriceChange struct {
	ProductID     uuid.UUID `db:"product_id" json:"product_id"`
	Price         float64   `db:"price" json:"price"`
	OriginalPrice float64   `db:"original_price" json:"original_price"`
	PreviousPrice *float64  `db:"previous_price" json:"previous_price,omitempty"`
	Delta         *float64  `db:"delta" json:"delta,omitempty"`
	ScrapedAt     time.Time `db:"scraped_at" json:"scraped_at"`
}

// ActiveOffer is the read view of currently running offers.
type ActiveOffer struct {
	OfferID            uuid.UUID  `db:"offer_id" json:"offer_id"`
	Name               string     `db:"name" json:"name"`
	OfferType          string     `db:"offer_type" json:"offer_type"`
	DiscountPercentage *float64   `db:"discount_percentage" json:"discount_percentage,omitempty"`
	DiscountAmount     *float64   `db:"discount_amount" json:"discount_amount,omitempty"`
	StartDate          time.Time  `db:"start_date" json:"start_date"`
	ProductsAffected   int        `db:"products_affected" json:"products_affected"`
	LastSeen           *time.Time `db:"last_seen" json:"last_seen,omitempty"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	EventTypeImportCompleted = "IMPORT_COMPLETED"
	EventTypeImportFailed    = "IMPORT_FAILED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// ImportCompletedEvent is published after a restaurant session commits
type ImportCompletedEvent struct {
	BaseEvent
	SessionID      uuid.UUID `json:"session_id"`
	RestaurantID   uuid.UUID `json:"restaurant_id"`
	RestaurantName string    `json:"restaurant_name"`
	Status         string    `json:"status"`
	ProductCount   int       `json:"product_count"`
	CategoryCount  int       `json:"category_count"`
	PricePoints    int       `json:"price_points"`
}

// ImportFailedEvent is published when a restaurant session is marked failed
type ImportFailedEvent struct {
	BaseEvent
	SessionID uuid.UUID `json:"session_id"`
	URL       string    `json:"url"`
	Reason    string    `json:"reason"`
}

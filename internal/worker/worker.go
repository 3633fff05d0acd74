package worker

import (
	"context"
	"log"

	"menu-import-service/internal/broker"
	"menu-import-service/internal/models"
	"menu-import-service/internal/redisclient"
	"menu-import-service/internal/store"
)

// CacheWorker keeps the latest-price cache warm by consuming import
// session events. Cache refresh is decoupled from the import path so a
// cold or absent cache never slows ingestion.
type CacheWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	store        *store.Store
	cache        *redisclient.Client
}

// NewCacheWorker creates a new cache worker
func NewCacheWorker(consumer *broker.Consumer, st *store.Store, cache *redisclient.Client) *CacheWorker {
	w := &CacheWorker{
		consumer: consumer,
		store:    st,
		cache:    cache,
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnImportCompleted(w.handleImportCompleted)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *CacheWorker) Start(ctx context.Context) error {
	log.Println("Starting cache worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *CacheWorker) Stop() error {
	log.Println("Stopping cache worker...")
	return w.consumer.Close()
}

// handleImportCompleted refreshes the restaurant's cached latest-price
// view from the committed store state.
func (w *CacheWorker) handleImportCompleted(ctx context.Context, event *models.ImportCompletedEvent) error {
	prices, err := w.store.LatestPrices(ctx, event.RestaurantID)
	if err != nil {
		log.Printf("Failed to load latest prices for restaurant %s: %v", event.RestaurantID, err)
		// Drop whatever is cached rather than serve a stale view.
		if invErr := w.cache.InvalidateLatestPrices(ctx, event.RestaurantID); invErr != nil {
			log.Printf("Failed to invalidate price cache for restaurant %s: %v", event.RestaurantID, invErr)
		}
		return err
	}

	if err := w.cache.SetLatestPrices(ctx, event.RestaurantID, prices); err != nil {
		log.Printf("Failed to refresh price cache for restaurant %s: %v", event.RestaurantID, err)
		return err
	}

	log.Printf("Refreshed price cache: restaurant=%s, products=%d", event.RestaurantID, len(prices))
	return nil
}

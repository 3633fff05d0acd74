package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"menu-import-service/internal/models"

	"github.com/segmentio/kafka-go"
)

// EventPublisher handles publishing import lifecycle events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishImportCompleted publishes ImportCompleted event
func (ep *EventPublisher) PublishImportCompleted(ctx context.Context, event *models.ImportCompletedEvent) error {
	key := fmt.Sprintf("session-%s", event.SessionID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishImportFailed publishes ImportFailed event
func (ep *EventPublisher) PublishImportFailed(ctx context.Context, event *models.ImportFailedEvent) error {
	key := fmt.Sprintf("session-%s", event.SessionID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// EventHandler routes incoming import events
type EventHandler struct {
	onImportCompleted func(context.Context, *models.ImportCompletedEvent) error
	onImportFailed    func(context.Context, *models.ImportFailedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnImportCompleted registers a handler for ImportCompleted events
func (eh *EventHandler) OnImportCompleted(handler func(context.Context, *models.ImportCompletedEvent) error) {
	eh.onImportCompleted = handler
}

// OnImportFailed registers a handler for ImportFailed events
func (eh *EventHandler) OnImportFailed(handler func(context.Context, *models.ImportFailedEvent) error) {
	eh.onImportFailed = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	log.Printf("Handling event: type=%s, id=%s", baseEvent.EventType, baseEvent.EventID)

	switch baseEvent.EventType {
	case models.EventTypeImportCompleted:
		if eh.onImportCompleted != nil {
			var event models.ImportCompletedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal ImportCompleted event: %w", err)
			}
			return eh.onImportCompleted(ctx, &event)
		}

	case models.EventTypeImportFailed:
		if eh.onImportFailed != nil {
			var event models.ImportFailedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal ImportFailed event: %w", err)
			}
			return eh.onImportFailed(ctx, &event)
		}

	default:
		log.Printf("Unhandled event type: %s", baseEvent.EventType)
	}

	return nil
}

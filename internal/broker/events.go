package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"veira-pos/internal/models"
	"veira-pos/internal/util"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// NewBaseEvent stamps a fresh event id and time
func NewBaseEvent(eventType string, now time.Time) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: now,
	}
}

// EventPublisher publishes sale events to Kafka
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishSaleCompleted publishes a SALE_COMPLETED event keyed by transaction
func (ep *EventPublisher) PublishSaleCompleted(ctx context.Context, event *models.SaleCompletedEvent) error {
	return ep.producer.PublishEvent(ctx, "sale-"+event.TransactionID, models.EventTypeSaleCompleted, event)
}

// PublishStockLow publishes a STOCK_LOW event keyed by product
func (ep *EventPublisher) PublishStockLow(ctx context.Context, event *models.StockLowEvent) error {
	return ep.producer.PublishEvent(ctx, "product-"+event.ProductID, models.EventTypeStockLow, event)
}

// LocalPublisher delivers events straight to an in-process handler. It stands
// in for Kafka when KAFKA_ENABLED is false.
type LocalPublisher struct {
	handler *EventHandler
	logger  *zap.Logger
}

// NewLocalPublisher creates a publisher bound to handler. A nil handler only logs.
func NewLocalPublisher(handler *EventHandler) *LocalPublisher {
	return &LocalPublisher{handler: handler, logger: util.Named("events")}
}

func (lp *LocalPublisher) deliver(ctx context.Context, key, eventType string, event interface{}) error {
	msg, err := encodeMessage(key, eventType, event)
	if err != nil {
		return err
	}
	lp.logger.Debug("Local event", zap.String("key", key), zap.String("type", eventType))
	if lp.handler == nil {
		return nil
	}
	return lp.handler.HandleMessage(ctx, msg)
}

// PublishSaleCompleted hands the event to the local handler
func (lp *LocalPublisher) PublishSaleCompleted(ctx context.Context, event *models.SaleCompletedEvent) error {
	return lp.deliver(ctx, "sale-"+event.TransactionID, models.EventTypeSaleCompleted, event)
}

// PublishStockLow hands the event to the local handler
func (lp *LocalPublisher) PublishStockLow(ctx context.Context, event *models.StockLowEvent) error {
	return lp.deliver(ctx, "product-"+event.ProductID, models.EventTypeStockLow, event)
}

// EventHandler routes incoming events by type
type EventHandler struct {
	onSaleCompleted func(context.Context, *models.SaleCompletedEvent) error
	onStockLow      func(context.Context, *models.StockLowEvent) error
	logger          *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{logger: util.Named("events")}
}

// OnSaleCompleted registers a handler for SALE_COMPLETED events
func (eh *EventHandler) OnSaleCompleted(handler func(context.Context, *models.SaleCompletedEvent) error) {
	eh.onSaleCompleted = handler
}

// OnStockLow registers a handler for STOCK_LOW events
func (eh *EventHandler) OnStockLow(handler func(context.Context, *models.StockLowEvent) error) {
	eh.onStockLow = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	eh.logger.Debug("Handling event",
		zap.String("type", baseEvent.EventType),
		zap.String("id", baseEvent.EventID))

	switch baseEvent.EventType {
	case models.EventTypeSaleCompleted:
		if eh.onSaleCompleted != nil {
			var event models.SaleCompletedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal SaleCompleted event: %w", err)
			}
			return eh.onSaleCompleted(ctx, &event)
		}

	case models.EventTypeStockLow:
		if eh.onStockLow != nil {
			var event models.StockLowEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal StockLow event: %w", err)
			}
			return eh.onStockLow(ctx, &event)
		}

	default:
		eh.logger.Warn("Unhandled event type", zap.String("type", baseEvent.EventType))
	}

	return nil
}

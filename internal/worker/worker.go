package worker

import (
	"context"

	"veira-pos/internal/broker"
	"veira-pos/internal/service"
	"veira-pos/internal/util"

	"go.uber.org/zap"
)

// NewEventHandler routes sale events to the insights service
func NewEventHandler(insights *service.InsightsService) *broker.EventHandler {
	eventHandler := broker.NewEventHandler()
	Register(eventHandler, insights)
	return eventHandler
}

// Register binds the insights callbacks to an existing handler. The local
// publisher needs its handler before the insights service exists.
func Register(eventHandler *broker.EventHandler, insights *service.InsightsService) {
	eventHandler.OnSaleCompleted(insights.HandleSaleCompleted)
	eventHandler.OnStockLow(insights.HandleStockLow)
}

// InsightsWorker consumes sale events from Kafka and keeps the dashboard
// insight current
type InsightsWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	logger       *zap.Logger
}

// NewInsightsWorker creates a new insights worker
func NewInsightsWorker(consumer *broker.Consumer, insights *service.InsightsService) *InsightsWorker {
	return &InsightsWorker{
		consumer:     consumer,
		eventHandler: NewEventHandler(insights),
		logger:       util.Named("worker"),
	}
}

// Start blocks consuming until ctx is cancelled
func (w *InsightsWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting insights worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *InsightsWorker) Stop() error {
	w.logger.Info("Stopping insights worker")
	return w.consumer.Close()
}

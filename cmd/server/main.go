package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"veira-pos/config"
	"veira-pos/internal/api"
	"veira-pos/internal/assistant"
	"veira-pos/internal/broker"
	"veira-pos/internal/redisclient"
	"veira-pos/internal/service"
	"veira-pos/internal/store"
	"veira-pos/internal/util"
	"veira-pos/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type closer interface {
	Close() error
}

func openStateStore(cfg *config.Config) (service.StateStore, closer, error) {
	switch cfg.Persistence.Backend {
	case "redis":
		c, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Persistence.StateKey, cfg.Persistence.AuthKey)
		return c, c, err
	case "postgres":
		s, err := store.NewStore(cfg.Database.URL, cfg.Persistence.StateKey, cfg.Persistence.AuthKey)
		return s, s, err
	case "memory":
		return store.NewMemoryStore(), nil, nil
	}
	return nil, nil, fmt.Errorf("unknown persistence backend %q", cfg.Persistence.Backend)
}

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env, cfg.Server.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting veira pos")

	tp, err := util.InitTracer("veira-pos", cfg.Server.Env, cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Error("Error shutting down tracer", zap.Error(err))
		}
	}()

	stateStore, stateCloser, err := openStateStore(cfg)
	if err != nil {
		logger.Fatal("Failed to open state store", zap.String("backend", cfg.Persistence.Backend), zap.Error(err))
	}
	if stateCloser != nil {
		defer stateCloser.Close()
	}
	logger.Info("State store connected", zap.String("backend", cfg.Persistence.Backend))

	// the local handler gets its callbacks once the insights service exists
	localHandler := broker.NewEventHandler()
	var publisher service.EventPublisher = broker.NewLocalPublisher(localHandler)
	var producer *broker.Producer
	if cfg.Kafka.Enabled {
		producer = broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicSales)
		defer producer.Close()
		publisher = broker.NewEventPublisher(producer)
		logger.Info("Kafka producer initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
	}

	vatRate := cfg.Business.DefaultVATRate
	pos := service.NewPOSService(stateStore, publisher, service.Options{
		DefaultVATRate:    &vatRate,
		CheckoutDelay:     time.Duration(cfg.Business.CheckoutDelayMs) * time.Millisecond,
		LowStockThreshold: cfg.Business.LowStockThreshold,
	})

	loadCtx, loadCancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = pos.Load(loadCtx)
	loadCancel()
	if err != nil {
		logger.Fatal("Failed to load state", zap.Error(err))
	}

	assistantClient := assistant.NewClient(
		cfg.Assistant.Endpoint,
		cfg.Assistant.APIKey,
		time.Duration(cfg.Assistant.TimeoutSeconds)*time.Second,
		cfg.Assistant.RatePerMinute,
	)
	if !assistantClient.Configured() {
		logger.Info("Assistant endpoint not set, using fallback replies")
	}
	insights := service.NewInsightsService(pos, assistantClient, 0)
	worker.Register(localHandler, insights)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	var insightsWorker *worker.InsightsWorker
	if cfg.Kafka.Enabled {
		consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicSales, cfg.Kafka.ConsumerGroup)
		insightsWorker = worker.NewInsightsWorker(consumer, insights)
		go func() {
			if err := insightsWorker.Start(workerCtx); err != nil {
				logger.Error("Insights worker error", zap.Error(err))
			}
		}()
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(pos, insights)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	if insightsWorker != nil {
		insightsWorker.Stop()
	}

	logger.Info("Server exited")
}

package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"veira-pos/internal/assistant"
	"veira-pos/internal/models"
	"veira-pos/internal/report"
	"veira-pos/internal/util"

	"go.uber.org/zap"
)

const maxChatHistory = 20

// Generator produces assistant text
type Generator interface {
	Generate(ctx context.Context, req assistant.Request) (string, error)
}

// ContextSource supplies the read-only snapshot handed to the assistant
type ContextSource interface {
	AssistantContext(ctx context.Context) (report.Summary, models.Settings)
}

// InsightsService wraps the assistant with fixed fallback replies and caches
// the dashboard insight between sales
type InsightsService struct {
	source    ContextSource
	generator Generator
	ttl       time.Duration
	now       func() time.Time
	logger    *zap.Logger

	mu        sync.Mutex
	insight   string
	fetchedAt time.Time

	// generation changes on every sale; a refresh started before it changed
	// is not cached
	generation uint64
}

// NewInsightsService creates an insights service. Cached insights expire after ttl.
func NewInsightsService(source ContextSource, generator Generator, ttl time.Duration) *InsightsService {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &InsightsService{
		source:    source,
		generator: generator,
		ttl:       ttl,
		now:       time.Now,
		logger:    util.Named("insights"),
	}
}

func profileOf(st models.Settings) assistant.Profile {
	return assistant.Profile{Owner: st.OwnerProfile, Business: st.BusinessType, Role: st.UserRole}
}

// Insights returns the cached insight or fetches a fresh one. It never fails.
func (is *InsightsService) Insights(ctx context.Context) string {
	is.mu.Lock()
	cached, at := is.insight, is.fetchedAt
	is.mu.Unlock()

	if cached != "" && is.now().Sub(at) < is.ttl {
		return cached
	}
	return is.Refresh(ctx)
}

// Refresh asks the assistant for a new two sentence status
func (is *InsightsService) Refresh(ctx context.Context) string {
	ctx, span := util.StartSpan(ctx, "InsightsService.Refresh")
	defer span.End()

	is.mu.Lock()
	generation := is.generation
	is.mu.Unlock()

	summary, settings := is.source.AssistantContext(ctx)
	profile := profileOf(settings)

	text, err := is.generator.Generate(ctx, assistant.Request{
		System: assistant.SystemInstruction(profile),
		Prompt: assistant.InsightPrompt(summary, profile),
	})
	if err != nil {
		util.AssistantRequestsTotal.WithLabelValues("insight", "fallback").Inc()
		is.logger.Warn("Insight request failed, using fallback", zap.Error(err))
		return assistant.InsightFallback
	}

	util.AssistantRequestsTotal.WithLabelValues("insight", "ok").Inc()
	is.mu.Lock()
	if is.generation == generation {
		is.insight, is.fetchedAt = text, is.now()
	}
	is.mu.Unlock()
	return text
}

// Chat answers one message in the context of the business snapshot. Only a
// blank message is an error; assistant failures return the fallback reply.
func (is *InsightsService) Chat(ctx context.Context, message string, history []assistant.Turn) (string, error) {
	ctx, span := util.StartSpan(ctx, "InsightsService.Chat")
	defer span.End()

	message = strings.TrimSpace(message)
	if message == "" {
		return "", models.NewValidationError("message", "must not be blank")
	}
	if len(history) > maxChatHistory {
		history = history[len(history)-maxChatHistory:]
	}

	summary, settings := is.source.AssistantContext(ctx)
	profile := profileOf(settings)

	text, err := is.generator.Generate(ctx, assistant.Request{
		System:  assistant.SystemInstruction(profile) + "\n\nBusiness Context:\n" + assistant.ChatContext(summary, profile),
		Prompt:  message,
		History: history,
	})
	if err != nil {
		util.AssistantRequestsTotal.WithLabelValues("chat", "fallback").Inc()
		is.logger.Warn("Chat request failed, using fallback", zap.Error(err))
		return assistant.ChatFallback, nil
	}

	util.AssistantRequestsTotal.WithLabelValues("chat", "ok").Inc()
	return text, nil
}

// HandleSaleCompleted drops the cached insight so the next read fetches a
// fresh one. It runs on the checkout path when events are delivered locally.
func (is *InsightsService) HandleSaleCompleted(ctx context.Context, event *models.SaleCompletedEvent) error {
	is.logger.Debug("Invalidating insight after sale", zap.String("transaction_id", event.TransactionID))
	is.mu.Lock()
	is.insight = ""
	is.generation++
	is.mu.Unlock()
	return nil
}

// HandleStockLow logs products that dropped under the alert level
func (is *InsightsService) HandleStockLow(ctx context.Context, event *models.StockLowEvent) error {
	is.logger.Warn("Stock low",
		zap.String("product_id", event.ProductID),
		zap.String("name", event.Name),
		zap.Int("stock", event.Stock),
		zap.Int("threshold", event.Threshold))
	return nil
}

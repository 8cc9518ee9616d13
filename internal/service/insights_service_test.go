package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"veira-pos/internal/assistant"
	"veira-pos/internal/models"
	"veira-pos/internal/report"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	reply string
	err   error
	calls []assistant.Request
}

func (f *fakeGenerator) Generate(ctx context.Context, req assistant.Request) (string, error) {
	f.calls = append(f.calls, req)
	return f.reply, f.err
}

type blockingGenerator struct {
	started chan struct{}
	release chan struct{}
	mu      sync.Mutex
	replies []string
}

func (b *blockingGenerator) Generate(ctx context.Context, req assistant.Request) (string, error) {
	b.mu.Lock()
	reply := b.replies[0]
	b.replies = b.replies[1:]
	first := len(b.replies) > 0
	b.mu.Unlock()

	if first {
		close(b.started)
		<-b.release
	}
	return reply, nil
}

type staticSource struct{}

func (staticSource) AssistantContext(ctx context.Context) (report.Summary, models.Settings) {
	st := models.DefaultSettings()
	st.UserRole = models.RoleAccountant
	return report.Summary{Revenue: decimal.NewFromInt(5000), CostOfGoods: decimal.NewFromInt(4000), Anomalies: 3, LowStock: 2}, st
}

func TestInsightsCachesUntilExpiry(t *testing.T) {
	gen := &fakeGenerator{reply: "Sales are good. Watch gas stock."}
	is := NewInsightsService(staticSource{}, gen, time.Minute)
	now := testNow
	is.now = func() time.Time { return now }

	assert.Equal(t, gen.reply, is.Insights(context.Background()))
	assert.Equal(t, gen.reply, is.Insights(context.Background()))
	require.Len(t, gen.calls, 1)
	assert.Contains(t, gen.calls[0].Prompt, "Problems Found: 3")
	assert.Contains(t, gen.calls[0].System, "Professional Accountant")

	now = now.Add(2 * time.Minute)
	is.Insights(context.Background())
	assert.Len(t, gen.calls, 2)
}

func TestInsightsFallback(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("timeout")}
	is := NewInsightsService(staticSource{}, gen, time.Minute)

	assert.Equal(t, "Records look okay. No issues found.", is.Insights(context.Background()))
	// failures are not cached
	is.Insights(context.Background())
	assert.Len(t, gen.calls, 2)
}

func TestChat(t *testing.T) {
	gen := &fakeGenerator{reply: "Your profit is KES 1,000."}
	is := NewInsightsService(staticSource{}, gen, time.Minute)

	history := make([]assistant.Turn, 30)
	for i := range history {
		history[i] = assistant.Turn{Role: "user", Text: "q"}
	}
	reply, err := is.Chat(context.Background(), "  what is my profit?  ", history)
	require.NoError(t, err)
	assert.Equal(t, gen.reply, reply)
	require.Len(t, gen.calls, 1)
	assert.Equal(t, "what is my profit?", gen.calls[0].Prompt)
	assert.Len(t, gen.calls[0].History, maxChatHistory)
	assert.True(t, strings.Contains(gen.calls[0].System, "Business Context:\nShop Type: Retail Shop"))

	_, err = is.Chat(context.Background(), "   ", nil)
	assert.True(t, models.IsValidation(err))

	gen.err = errors.New("down")
	reply, err = is.Chat(context.Background(), "hello", nil)
	require.NoError(t, err)
	assert.Equal(t, "Sorry, I'm having trouble connecting. Your records are safe.", reply)
}

func TestHandleSaleCompletedInvalidates(t *testing.T) {
	gen := &fakeGenerator{reply: "first"}
	is := NewInsightsService(staticSource{}, gen, time.Hour)
	is.Insights(context.Background())

	gen.reply = "second"
	require.NoError(t, is.HandleSaleCompleted(context.Background(), &models.SaleCompletedEvent{TransactionID: "VRA-1"}))
	assert.Equal(t, "second", is.Insights(context.Background()))
}

func TestSaleDuringRefreshDiscardsStaleInsight(t *testing.T) {
	gen := &blockingGenerator{
		started: make(chan struct{}),
		release: make(chan struct{}),
		replies: []string{"pre-sale insight", "post-sale insight"},
	}
	is := NewInsightsService(staticSource{}, gen, time.Hour)
	ctx := context.Background()

	done := make(chan string)
	go func() { done <- is.Insights(ctx) }()

	<-gen.started
	require.NoError(t, is.HandleSaleCompleted(ctx, &models.SaleCompletedEvent{TransactionID: "VRA-2"}))
	close(gen.release)

	// the caller that started the refresh still gets its answer
	assert.Equal(t, "pre-sale insight", <-done)
	assert.Equal(t, "post-sale insight", is.Insights(ctx))
	assert.Equal(t, "post-sale insight", is.Insights(ctx))
}

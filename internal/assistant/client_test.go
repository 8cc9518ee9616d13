package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"veira-pos/internal/models"
	"veira-pos/internal/report"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	var got Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":"  Sales are steady. Restock gas soon.  "}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", time.Second, 10)
	text, err := c.Generate(context.Background(), Request{
		System:  "sys",
		Prompt:  "how are we doing?",
		History: []Turn{{Role: "user", Text: "hi"}, {Role: "model", Text: "hello"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Sales are steady. Restock gas soon.", text)
	assert.Equal(t, "how are we doing?", got.Prompt)
	assert.Len(t, got.History, 2)
}

func TestGenerateErrors(t *testing.T) {
	_, err := NewClient("", "", time.Second, 10).Generate(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrNotConfigured)

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota", http.StatusTooManyRequests)
	}))
	defer failing.Close()
	_, err = NewClient(failing.URL, "", time.Second, 10).Generate(context.Background(), Request{})
	assert.ErrorContains(t, err, "429")

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text":""}`))
	}))
	defer empty.Close()
	_, err = NewClient(empty.URL, "", time.Second, 10).Generate(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrEmptyReply)
}

func TestGenerateRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text":"ok"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second, 1)
	_, err := c.Generate(context.Background(), Request{})
	require.NoError(t, err)
	_, err = c.Generate(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestPrompts(t *testing.T) {
	p := Profile{Owner: models.ProfileBurned, Business: models.BusinessPharmacy, Role: models.RoleAuditor}
	sys := SystemInstruction(p)
	assert.Contains(t, sys, "Watch for theft or loss.")
	assert.Contains(t, sys, "Checking for mistakes or fraud.")
	assert.Contains(t, sys, "Use KES for money.")

	s := report.Summary{Revenue: decimal.NewFromInt(12000), CostOfGoods: decimal.NewFromInt(9000), Anomalies: 2, LowStock: 1}
	assert.Contains(t, InsightPrompt(s, p), "Total Sales: KES 12000.00\nProblems Found: 2\nLow Stock Items: 1")
	assert.Contains(t, ChatContext(s, p), "Total Cost: KES 9000.00")
}

package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"debt-planner/config"
	"debt-planner/domain"
)

func testPlan() domain.PayoffResult {
	return domain.PayoffResult{
		Months:        24,
		TotalInterest: 812.4,
		Strategy:      domain.Snowball,
	}
}

func TestExplainPlan_FallbackWithoutKey(t *testing.T) {

	advisor := NewAdvisorService(config.AdvisorConfig{BaseURL: "http://unused", Timeout: time.Second})

	comparison := &domain.Comparison{Recommended: domain.Avalanche, InterestSaved: 120.5}
	text := advisor.ExplainPlan(context.Background(), testPlan(), nil, comparison)

	if !strings.Contains(text, "Snowball") || !strings.Contains(text, "24 months") {
		t.Errorf("unexpected explanation: %s", text)
	}
	if !strings.Contains(text, "Switching to Avalanche would save $120.50") {
		t.Errorf("expected switching hint, got: %s", text)
	}
}

func TestExplainPlan_UsesRemoteModel(t *testing.T) {

	var received chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer token")
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  Pay Card first.  "}}]}`))
	}))
	defer server.Close()

	advisor := NewAdvisorService(config.AdvisorConfig{
		APIKey:    "test-key",
		BaseURL:   server.URL + "/",
		Model:     "test-model",
		Timeout:   time.Second,
		MaxTokens: 50,
	})

	debts := []domain.Debt{{Name: "Card", Balance: 1000, InterestRate: 20, MinPayment: 50}}
	text := advisor.ExplainPlan(context.Background(), testPlan(), debts, nil)

	if text != "Pay Card first." {
		t.Errorf("expected trimmed model answer, got %q", text)
	}
	if received.Model != "test-model" || received.MaxTokens != 50 {
		t.Errorf("unexpected request %+v", received)
	}
	if len(received.Messages) != 2 || !strings.Contains(received.Messages[1].Content, "Card") {
		t.Errorf("expected prompt to mention the debts, got %+v", received.Messages)
	}
}

func TestExplainPlan_FallbackOnError(t *testing.T) {

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	advisor := NewAdvisorService(config.AdvisorConfig{
		APIKey:    "test-key",
		BaseURL:   server.URL,
		Timeout:   time.Second,
		MaxTokens: 50,
	})

	text := advisor.ExplainPlan(context.Background(), testPlan(), nil, nil)

	if !strings.Contains(text, "Snowball strategy") {
		t.Errorf("expected fallback explanation, got %q", text)
	}
}

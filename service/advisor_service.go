package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"debt-planner/config"
	"debt-planner/domain"
)

const advisorSystemPrompt = "You are a personal finance coach who explains debt payoff plans. " +
	"You are clear, specific with numbers and encouraging without making promises. " +
	"Answer in plain English without markdown."

// AdvisorService writes a short plain-language explanation of a plan. With
// no API key configured it always uses the built-in text.
type AdvisorService struct {
	apiKey     string
	apiURL     string
	model      string
	maxTokens  int
	enabled    bool
	httpClient *http.Client
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func NewAdvisorService(cfg config.AdvisorConfig) *AdvisorService {
	return &AdvisorService{
		apiKey:    cfg.APIKey,
		apiURL:    strings.TrimRight(cfg.BaseURL, "/") + "/chat/completions",
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		enabled:   cfg.APIKey != "",
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// ExplainPlan never fails: any problem with the remote model falls back to
// the built-in explanation.
func (s *AdvisorService) ExplainPlan(
	ctx context.Context,
	result domain.PayoffResult,
	debts []domain.Debt,
	comparison *domain.Comparison,
) string {
	if !s.enabled {
		return s.fallbackExplanation(result, comparison)
	}

	explanation, err := s.callLLM(ctx, s.buildPrompt(result, debts, comparison))
	if err != nil {
		slog.Warn("advisor request failed", slog.String("error", err.Error()))
		return s.fallbackExplanation(result, comparison)
	}
	return explanation
}

func (s *AdvisorService) buildPrompt(
	result domain.PayoffResult,
	debts []domain.Debt,
	comparison *domain.Comparison,
) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Explain this debt payoff plan in 4-5 sentences.\n\n")
	fmt.Fprintf(&b, "STRATEGY: %s\n%s\n\n", strategyName(result.Strategy), strategyDescription(result.Strategy))
	fmt.Fprintf(&b, "SUMMARY:\n")
	fmt.Fprintf(&b, "- Monthly payment: $%.2f plus $%.2f extra\n", result.CurrentMonthlyPayment, result.ExtraSnowball)
	fmt.Fprintf(&b, "- Total interest: $%.2f\n", result.TotalInterest)
	fmt.Fprintf(&b, "- Debt free in %d months (%.1f years), starting %s\n\n", result.Months, float64(result.Months)/12.0, result.StartDate)

	if len(debts) > 0 {
		fmt.Fprintf(&b, "DEBTS:\n")
		for _, debt := range debts {
			fmt.Fprintf(&b, "- %s: $%.2f at %.2f%% APR, minimum $%.2f\n",
				debt.Name, debt.Balance, debt.InterestRate, debt.MinPayment)
		}
		b.WriteString("\n")
	}

	if comparison != nil {
		fmt.Fprintf(&b, "COMPARISON:\n")
		fmt.Fprintf(&b, "- Snowball: $%.2f interest, %d months\n", comparison.Snowball.TotalInterest, comparison.Snowball.Months)
		fmt.Fprintf(&b, "- Avalanche: $%.2f interest, %d months\n", comparison.Avalanche.TotalInterest, comparison.Avalanche.Months)
		fmt.Fprintf(&b, "- Recommended: %s, saving $%.2f\n\n", comparison.Recommended, comparison.InterestSaved)
	}

	b.WriteString("Explain how the strategy works, name the debt that gets paid first, and give one practical tip for staying on track.")
	return b.String()
}

func (s *AdvisorService) callLLM(ctx context.Context, prompt string) (string, error) {
	reqBody := chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: advisorSystemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens: s.maxTokens,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("advisor API error (status %d): %s", resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", err
	}

	if len(chatResp.Choices) == 0 || strings.TrimSpace(chatResp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("empty response from advisor")
	}

	return strings.TrimSpace(chatResp.Choices[0].Message.Content), nil
}

func (s *AdvisorService) fallbackExplanation(result domain.PayoffResult, comparison *domain.Comparison) string {
	text := fmt.Sprintf("With the %s strategy you will pay $%.2f in interest and be debt free in %d months (%.1f years). %s",
		strategyName(result.Strategy), result.TotalInterest, result.Months, float64(result.Months)/12.0,
		strategyTip(result.Strategy))

	if comparison != nil && comparison.Recommended != result.Strategy && comparison.InterestSaved > 0 {
		text += fmt.Sprintf(" Switching to %s would save $%.2f in interest.",
			strategyName(comparison.Recommended), comparison.InterestSaved)
	}
	return text
}

func strategyName(strategy domain.Strategy) string {
	if strategy == domain.Avalanche {
		return "Avalanche"
	}
	return "Snowball"
}

func strategyDescription(strategy domain.Strategy) string {
	if strategy == domain.Avalanche {
		return "Pays the highest interest rate first, which minimises total interest."
	}
	return "Pays the smallest balance first, so early wins keep motivation high."
}

func strategyTip(strategy domain.Strategy) string {
	if strategy == domain.Snowball {
		return "Each debt you close frees its minimum payment for the next one, so keep paying the same total every month."
	}
	return "Keep sending every spare dollar to the highest-rate debt; that is where each dollar saves the most interest."
}

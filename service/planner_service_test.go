package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"debt-planner/domain"
	"debt-planner/repository"
)

type MockStateStore struct {
	SaveCalled bool
	ForceError bool
	Saved      domain.PlannerState
}

func (m *MockStateStore) Load(ctx context.Context) (domain.PlannerState, error) {
	return m.Saved, nil
}

func (m *MockStateStore) Save(ctx context.Context, state domain.PlannerState) error {
	m.SaveCalled = true
	if m.ForceError {
		return errors.New("save error")
	}
	m.Saved = state.Clone()
	return nil
}

type CountingCache struct {
	*repository.MemoryCache
	Hits int
}

func (c *CountingCache) Get(key string) (string, bool) {
	val, ok := c.MemoryCache.Get(key)
	if ok {
		c.Hits++
	}
	return val, ok
}

func newTestPlanner(t *testing.T) (*PlannerService, *repository.MemoryStateStore) {
	t.Helper()

	store := repository.NewMemoryStateStore()
	planner := NewPlannerService(store, nil)
	planner.now = func() time.Time {
		return time.Date(2024, time.March, 15, 10, 30, 0, 0, time.UTC)
	}
	return planner, store
}

func addDebts(t *testing.T, planner *PlannerService, debts ...domain.Debt) {
	t.Helper()
	for _, debt := range debts {
		if err := planner.AddDebt(context.Background(), debt); err != nil {
			t.Fatalf("unexpected error adding %s: %v", debt.Name, err)
		}
	}
}

var (
	cardDebt = domain.Debt{Name: "Card", Balance: 3000, InterestRate: 22, MinPayment: 90}
	carDebt  = domain.Debt{Name: "Car", Balance: 8000, InterestRate: 6, MinPayment: 250}
)

func TestAddDebt_Persists(t *testing.T) {

	planner, store := newTestPlanner(t)

	addDebts(t, planner, domain.Debt{Name: "  Card  ", Balance: 3000, InterestRate: 22, MinPayment: 90})

	debts := planner.Debts()
	if len(debts) != 1 || debts[0].Name != "Card" {
		t.Fatalf("expected trimmed debt Card, got %+v", debts)
	}
	if store.Saves() != 1 {
		t.Errorf("expected 1 save, got %d", store.Saves())
	}
}

func TestAddDebt_InvalidLeavesStateUnchanged(t *testing.T) {

	planner, store := newTestPlanner(t)
	addDebts(t, planner, cardDebt)

	invalidDebts := []domain.Debt{
		{Name: "", Balance: 100, InterestRate: 5, MinPayment: 10},
		{Name: "Zero", Balance: 0, InterestRate: 5, MinPayment: 10},
		{Name: "Negative rate", Balance: 100, InterestRate: -1, MinPayment: 10},
		{Name: "No minimum", Balance: 100, InterestRate: 5, MinPayment: 0},
		{Name: "Huge", Balance: MaxDebtAmount + 1, InterestRate: 5, MinPayment: 10},
		{Name: "Card", Balance: 100, InterestRate: 5, MinPayment: 10},
	}

	for _, debt := range invalidDebts {
		err := planner.AddDebt(context.Background(), debt)
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("%q: expected ErrInvalidInput, got %v", debt.Name, err)
		}
	}

	if len(planner.Debts()) != 1 {
		t.Errorf("expected 1 debt, got %d", len(planner.Debts()))
	}
	if store.Saves() != 1 {
		t.Errorf("expected no extra saves, got %d", store.Saves())
	}
}

func TestAddDebt_ValidationErrorNamesField(t *testing.T) {

	planner, _ := newTestPlanner(t)

	err := planner.AddDebt(context.Background(), domain.Debt{Name: "Card", Balance: 100, InterestRate: 5, MinPayment: -3})

	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if validationErr.Field != "minPayment" {
		t.Errorf("expected field minPayment, got %s", validationErr.Field)
	}
}

func TestAddDebt_StoreFailure(t *testing.T) {

	store := &MockStateStore{ForceError: true}
	planner := NewPlannerService(store, nil)

	err := planner.AddDebt(context.Background(), cardDebt)

	if err == nil {
		t.Fatalf("expected error")
	}
	if !store.SaveCalled {
		t.Errorf("expected store Save to be called")
	}
	if len(planner.Debts()) != 0 {
		t.Errorf("expected no debts after failed save, got %d", len(planner.Debts()))
	}
}

func TestRemoveDebt(t *testing.T) {

	planner, _ := newTestPlanner(t)
	addDebts(t, planner, cardDebt, carDebt)

	if err := planner.RemoveDebt(context.Background(), 5); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if err := planner.RemoveDebt(context.Background(), -1); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}

	if err := planner.RemoveDebt(context.Background(), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	debts := planner.Debts()
	if len(debts) != 1 || debts[0].Name != "Car" {
		t.Errorf("expected only Car left, got %+v", debts)
	}
}

func TestClearDebts_DropsResults(t *testing.T) {

	planner, store := newTestPlanner(t)
	addDebts(t, planner, cardDebt)
	if _, err := planner.CalculatePayoff(context.Background(), domain.PayoffRequest{Strategy: domain.Snowball}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := planner.ClearDebts(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := planner.Results(); !errors.Is(err, ErrNoResults) {
		t.Errorf("expected ErrNoResults, got %v", err)
	}

	saved, _ := store.Load(context.Background())
	if len(saved.Debts) != 0 || saved.Results != nil {
		t.Errorf("expected cleared state to be saved, got %+v", saved)
	}
}

func TestCalculatePayoff_StoresResult(t *testing.T) {

	planner, store := newTestPlanner(t)
	addDebts(t, planner, cardDebt, carDebt)

	result, err := planner.CalculatePayoff(context.Background(), domain.PayoffRequest{
		Strategy:      domain.Avalanche,
		StartDate:     "2024-04-01",
		ExtraSnowball: 100,
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.CurrentMonthlyPayment != 340 {
		t.Errorf("expected minimums 340 as monthly payment, got %.2f", result.CurrentMonthlyPayment)
	}
	if result.CalculationDate.IsZero() {
		t.Errorf("expected calculation date to be set")
	}
	if result.PaymentPlan[0].Debts[0].Name != "Card" {
		t.Errorf("expected avalanche to start with Card, got %s", result.PaymentPlan[0].Debts[0].Name)
	}

	saved, _ := store.Load(context.Background())
	if saved.Results == nil || saved.Results.Months != result.Months {
		t.Fatalf("expected result to be saved")
	}
	if saved.ExtraPayment != 100 {
		t.Errorf("expected extra payment 100 to be saved, got %.2f", saved.ExtraPayment)
	}
}

func TestCalculatePayoff_InvalidRequest(t *testing.T) {

	planner, _ := newTestPlanner(t)

	_, err := planner.CalculatePayoff(context.Background(), domain.PayoffRequest{Strategy: domain.Snowball})
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput with no debts, got %v", err)
	}

	addDebts(t, planner, cardDebt)

	requests := []domain.PayoffRequest{
		{Strategy: "random"},
		{Strategy: domain.Snowball, StartDate: "01/04/2024"},
		{Strategy: domain.Snowball, ExtraSnowball: -10},
	}
	for _, req := range requests {
		if _, err := planner.CalculatePayoff(context.Background(), req); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("%+v: expected ErrInvalidInput, got %v", req, err)
		}
	}
}

func TestCalculatePayoff_UsesCache(t *testing.T) {

	cache := &CountingCache{MemoryCache: repository.NewMemoryCache()}
	planner := NewPlannerService(repository.NewMemoryStateStore(), cache)
	addDebts(t, planner, cardDebt)

	req := domain.PayoffRequest{Strategy: domain.Snowball, StartDate: "2024-01-01"}
	first, err := planner.CalculatePayoff(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := planner.CalculatePayoff(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cache.Hits != 1 {
		t.Errorf("expected 1 cache hit, got %d", cache.Hits)
	}
	if first.Months != second.Months || !almostEqual(first.TotalInterest, second.TotalInterest) {
		t.Errorf("cached result differs: %d/%.2f vs %d/%.2f", first.Months, first.TotalInterest, second.Months, second.TotalInterest)
	}
}

func TestCompare(t *testing.T) {

	planner, _ := newTestPlanner(t)
	addDebts(t, planner, cardDebt, domain.Debt{Name: "Store", Balance: 500, InterestRate: 3, MinPayment: 25})

	comparison, err := planner.Compare(context.Background(), domain.CompareRequest{StartDate: "2024-01-01", ExtraSnowball: 50})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := domain.Snowball
	if comparison.Avalanche.TotalInterest < comparison.Snowball.TotalInterest {
		want = domain.Avalanche
	}
	if comparison.Recommended != want {
		t.Errorf("expected %s to be recommended, got %s", want, comparison.Recommended)
	}
	saved := comparison.Snowball.TotalInterest - comparison.Avalanche.TotalInterest
	if saved < 0 {
		saved = 0
	}
	if !almostEqual(comparison.InterestSaved, saved) {
		t.Errorf("expected %.2f saved, got %.2f", saved, comparison.InterestSaved)
	}
	if comparison.MonthsSaved != comparison.Snowball.Months-comparison.Avalanche.Months {
		t.Errorf("unexpected months saved %d", comparison.MonthsSaved)
	}
	if _, err := planner.Results(); !errors.Is(err, ErrNoResults) {
		t.Errorf("expected compare not to store a plan, got %v", err)
	}
}

func TestCompare_TieRecommendsSnowball(t *testing.T) {

	planner, _ := newTestPlanner(t)
	addDebts(t, planner, domain.Debt{Name: "Only", Balance: 1000, InterestRate: 10, MinPayment: 100})

	comparison, err := planner.Compare(context.Background(), domain.CompareRequest{StartDate: "2024-01-01"})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if comparison.Recommended != domain.Snowball {
		t.Errorf("expected snowball on a tie, got %s", comparison.Recommended)
	}
	if comparison.InterestSaved != 0 {
		t.Errorf("expected no saving, got %.2f", comparison.InterestSaved)
	}
}

func TestApplyExtraPayments(t *testing.T) {

	planner, _ := newTestPlanner(t)

	_, err := planner.ApplyExtraPayments(context.Background(), domain.ExtraPaymentsRequest{Overrides: map[int]float64{1: 100}})
	if !errors.Is(err, ErrNoResults) {
		t.Errorf("expected ErrNoResults, got %v", err)
	}

	addDebts(t, planner, cardDebt)
	result, err := planner.CalculatePayoff(context.Background(), domain.PayoffRequest{Strategy: domain.Snowball, StartDate: "2024-01-01"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	revision, err := planner.ApplyExtraPayments(context.Background(), domain.ExtraPaymentsRequest{Overrides: map[int]float64{1: 1000}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if revision.PayoffMonth >= result.Months {
		t.Errorf("expected earlier payoff than %d, got %d", result.Months, revision.PayoffMonth)
	}

	stored, _ := planner.Results()
	if stored.Months != result.Months {
		t.Errorf("expected stored plan to be unchanged")
	}

	_, err = planner.ApplyExtraPayments(context.Background(), domain.ExtraPaymentsRequest{Overrides: map[int]float64{1: -5}})
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestExportImport_RoundTrip(t *testing.T) {

	source, _ := newTestPlanner(t)
	addDebts(t, source, cardDebt, carDebt)
	if _, err := source.CalculatePayoff(context.Background(), domain.PayoffRequest{Strategy: domain.Snowball, ExtraSnowball: 75}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := source.Export()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var payload domain.ExportPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if payload.Version != ExportVersion {
		t.Errorf("expected version %s, got %s", ExportVersion, payload.Version)
	}
	if payload.ExportedAt != "2024-03-15T10:30:00Z" {
		t.Errorf("unexpected exportedAt %s", payload.ExportedAt)
	}

	target, _ := newTestPlanner(t)
	if err := target.Import(context.Background(), data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	state := target.State()
	if len(state.Debts) != 2 || state.Debts[0].Name != "Card" {
		t.Errorf("unexpected debts after import: %+v", state.Debts)
	}
	if state.ExtraPayment != 75 {
		t.Errorf("expected extra payment 75, got %.2f", state.ExtraPayment)
	}
	original, _ := source.Results()
	if state.Results == nil || state.Results.Months != original.Months {
		t.Errorf("expected results to survive the round trip")
	}
}

func TestImport_RejectsBadPayload(t *testing.T) {

	tests := []struct {
		name    string
		payload string
		want    error
	}{
		{"not json", `{"debts": [`, ErrImportParse},
		{"missing debts", `{"extraPayment": 10}`, ErrImportSchema},
		{"debts not a list", `{"debts": "Card"}`, ErrImportSchema},
		{"invalid debt", `{"debts": [{"name": "Card", "balance": -5, "interestRate": 10, "minPayment": 10}]}`, ErrImportSchema},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			planner, store := newTestPlanner(t)
			addDebts(t, planner, cardDebt)

			err := planner.Import(context.Background(), []byte(tt.payload))

			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if len(planner.Debts()) != 1 {
				t.Errorf("expected state to be unchanged")
			}
			if store.Saves() != 1 {
				t.Errorf("expected no save on failed import, got %d saves", store.Saves())
			}
		})
	}
}

func TestImport_EmptyDebts(t *testing.T) {

	planner, _ := newTestPlanner(t)
	addDebts(t, planner, cardDebt)

	if err := planner.Import(context.Background(), []byte(`{"debts": [], "results": null}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(planner.Debts()) != 0 {
		t.Errorf("expected no debts, got %d", len(planner.Debts()))
	}
}

func TestLoad_RestoresState(t *testing.T) {

	store := repository.NewMemoryStateStore()
	first := NewPlannerService(store, nil)
	addDebts(t, first, cardDebt)

	second := NewPlannerService(store, nil)
	if err := second.Load(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(second.Debts()) != 1 || !strings.EqualFold(second.Debts()[0].Name, "card") {
		t.Errorf("expected restored debt, got %+v", second.Debts())
	}
}

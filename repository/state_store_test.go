package repository

import (
	"context"
	"testing"
	"time"

	"debt-planner/domain"
)

func testState() domain.PlannerState {
	return domain.PlannerState{
		Debts: []domain.Debt{
			{Name: "Card", Balance: 1200, InterestRate: 12, MinPayment: 100},
		},
		Results: &domain.PayoffResult{
			Months:        13,
			TotalInterest: 84.5,
			Strategy:      domain.Snowball,
			StartDate:     "2024-01-01",
			PaymentPlan: []domain.MonthEntry{
				{
					Month: 1,
					Date:  time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
					Debts: []domain.DebtMonthRecord{{Name: "Card", Payment: 100, Interest: 12, NewBalance: 1112}},
				},
			},
		},
		ExtraPayment: 25,
	}
}

func TestKVStateStore_RoundTrip(t *testing.T) {

	cache := NewMemoryCache()
	store := NewKVStateStore(cache)

	if err := store.Save(context.Background(), testState()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, key := range []string{DebtsKey, ResultsKey, ExtraPaymentKey} {
		if _, ok := cache.Get(key); !ok {
			t.Errorf("expected record %s to be written", key)
		}
	}

	state, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(state.Debts) != 1 || state.Debts[0].Name != "Card" {
		t.Errorf("unexpected debts %+v", state.Debts)
	}
	if state.Results == nil || state.Results.Months != 13 {
		t.Fatalf("expected results to be restored")
	}
	if got := state.Results.PaymentPlan[0].Debts[0].NewBalance; got != 1112 {
		t.Errorf("expected balance 1112, got %.2f", got)
	}
	if state.ExtraPayment != 25 {
		t.Errorf("expected extra payment 25, got %.2f", state.ExtraPayment)
	}
}

func TestKVStateStore_MissingRecordsUseDefaults(t *testing.T) {

	store := NewKVStateStore(NewMemoryCache())

	state, err := store.Load(context.Background())

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.Debts == nil || len(state.Debts) != 0 {
		t.Errorf("expected empty debts, got %+v", state.Debts)
	}
	if state.Results != nil {
		t.Errorf("expected no results")
	}
	if state.ExtraPayment != 0 {
		t.Errorf("expected zero extra payment, got %.2f", state.ExtraPayment)
	}
}

func TestKVStateStore_ClearedResultsOverwriteOldOnes(t *testing.T) {

	store := NewKVStateStore(NewMemoryCache())
	if err := store.Save(context.Background(), testState()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cleared := testState()
	cleared.Results = nil
	if err := store.Save(context.Background(), cleared); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	state, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.Results != nil {
		t.Errorf("expected stale results to be gone")
	}
}

func TestKVStateStore_CorruptRecord(t *testing.T) {

	cache := NewMemoryCache()
	_ = cache.Set(DebtsKey, "{not json")
	store := NewKVStateStore(cache)

	if _, err := store.Load(context.Background()); err == nil {
		t.Errorf("expected error for corrupt debts record")
	}
}

func TestMemoryStateStore_ReturnsCopies(t *testing.T) {

	store := NewMemoryStateStore()
	state := testState()
	if err := store.Save(context.Background(), state); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	state.Debts[0].Balance = 1
	state.Results.PaymentPlan[0].Debts[0].Payment = 1

	loaded, _ := store.Load(context.Background())
	if loaded.Debts[0].Balance != 1200 {
		t.Errorf("saved debts changed through caller's slice")
	}
	if loaded.Results.PaymentPlan[0].Debts[0].Payment != 100 {
		t.Errorf("saved plan changed through caller's slice")
	}

	loaded.Debts[0].Name = "Changed"
	again, _ := store.Load(context.Background())
	if again.Debts[0].Name != "Card" {
		t.Errorf("stored debts changed through loaded copy")
	}
	if store.Saves() != 1 {
		t.Errorf("expected 1 save, got %d", store.Saves())
	}
}

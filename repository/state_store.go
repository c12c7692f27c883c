package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"debt-planner/domain"
)

// Keys the planner state is stored under. They match what the browser
// version of the planner kept in localStorage, so exported stores line up.
const (
	DebtsKey        = "debtCalculator_debts"
	ResultsKey      = "debtCalculator_results"
	ExtraPaymentKey = "debtCalculator_extraPayment"
)

var stateKeys = []string{DebtsKey, ResultsKey, ExtraPaymentKey}

// StateStore persists the planner state. Last writer wins.
type StateStore interface {
	Load(ctx context.Context) (domain.PlannerState, error)
	Save(ctx context.Context, state domain.PlannerState) error
}

func encodeState(state domain.PlannerState) (map[string]string, error) {
	debts := state.Debts
	if debts == nil {
		debts = []domain.Debt{}
	}
	debtsJSON, err := json.Marshal(debts)
	if err != nil {
		return nil, fmt.Errorf("encode debts: %w", err)
	}
	resultsJSON, err := json.Marshal(state.Results)
	if err != nil {
		return nil, fmt.Errorf("encode results: %w", err)
	}

	return map[string]string{
		DebtsKey:        string(debtsJSON),
		ResultsKey:      string(resultsJSON),
		ExtraPaymentKey: strconv.FormatFloat(state.ExtraPayment, 'f', -1, 64),
	}, nil
}

// decodeState rebuilds the state from whatever records exist; missing
// records fall back to empty debts, no results and zero extra payment.
func decodeState(records map[string]string) (domain.PlannerState, error) {
	state := domain.PlannerState{Debts: []domain.Debt{}}

	if raw, ok := records[DebtsKey]; ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &state.Debts); err != nil {
			return domain.PlannerState{}, fmt.Errorf("decode %s: %w", DebtsKey, err)
		}
		if state.Debts == nil {
			state.Debts = []domain.Debt{}
		}
	}

	if raw, ok := records[ResultsKey]; ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &state.Results); err != nil {
			return domain.PlannerState{}, fmt.Errorf("decode %s: %w", ResultsKey, err)
		}
	}

	if raw, ok := records[ExtraPaymentKey]; ok && raw != "" {
		extra, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return domain.PlannerState{}, fmt.Errorf("decode %s: %w", ExtraPaymentKey, err)
		}
		state.ExtraPayment = extra
	}

	return state, nil
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"debt-planner/domain"
	"debt-planner/repository"
)

const simulationCachePrefix = "simulation:"

// PlannerService owns the planner state and persists it after every change.
type PlannerService struct {
	mu    sync.Mutex
	store repository.StateStore
	cache repository.CacheRepository
	now   func() time.Time
	state domain.PlannerState
}

// NewPlannerService creates a PlannerService. cache memoises simulations and
// may be nil.
func NewPlannerService(store repository.StateStore, cache repository.CacheRepository) *PlannerService {
	return &PlannerService{
		store: store,
		cache: cache,
		now:   time.Now,
		state: domain.PlannerState{Debts: []domain.Debt{}},
	}
}

// Load replaces the in-memory state with what the store holds.
func (s *PlannerService) Load(ctx context.Context) error {
	state, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load planner state: %w", err)
	}
	if state.Debts == nil {
		state.Debts = []domain.Debt{}
	}

	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	return nil
}

// commit persists next and only then makes it the current state.
// Callers hold s.mu.
func (s *PlannerService) commit(ctx context.Context, next domain.PlannerState) error {
	if err := s.store.Save(ctx, next); err != nil {
		return fmt.Errorf("save planner state: %w", err)
	}
	s.state = next
	return nil
}

func (s *PlannerService) State() domain.PlannerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

func (s *PlannerService) Debts() []domain.Debt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.CloneDebts(s.state.Debts)
}

// Results returns the last calculated plan.
func (s *PlannerService) Results() (domain.PayoffResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Results == nil {
		return domain.PayoffResult{}, ErrNoResults
	}
	return s.state.Results.Clone(), nil
}

// AddDebt validates debt and appends it. Nothing changes if it is rejected.
func (s *PlannerService) AddDebt(ctx context.Context, debt domain.Debt) error {
	debt.Name = strings.TrimSpace(debt.Name)
	if err := ValidateDebt(debt); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.state.Debts) >= MaxDebtsPerPlanner {
		return invalid("debts", "number of debts exceeds the maximum of %d", MaxDebtsPerPlanner)
	}
	for _, existing := range s.state.Debts {
		if existing.Name == debt.Name {
			return invalid("name", "duplicate debt name %q", debt.Name)
		}
	}

	next := s.state.Clone()
	next.Debts = append(next.Debts, debt)
	return s.commit(ctx, next)
}

// RemoveDebt deletes the debt at index.
func (s *PlannerService) RemoveDebt(ctx context.Context, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.state.Debts) {
		return invalid("index", "no debt at index %d", index)
	}

	next := s.state.Clone()
	next.Debts = append(next.Debts[:index], next.Debts[index+1:]...)
	return s.commit(ctx, next)
}

// ClearDebts removes every debt together with the last plan.
func (s *PlannerService) ClearDebts(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()
	next.Debts = []domain.Debt{}
	next.Results = nil
	return s.commit(ctx, next)
}

// CalculatePayoff simulates the current debts and stores the plan.
func (s *PlannerService) CalculatePayoff(ctx context.Context, req domain.PayoffRequest) (domain.PayoffResult, error) {
	if err := ValidateStruct(req); err != nil {
		return domain.PayoffResult{}, err
	}
	start, err := s.startDate(req.StartDate)
	if err != nil {
		return domain.PayoffResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.state.Debts) == 0 {
		return domain.PayoffResult{}, invalid("debts", "please add at least one debt")
	}

	total := req.CurrentMonthlyPayment
	if total <= 0 {
		total = sumMinPayments(s.state.Debts)
	}

	result, err := s.simulate(s.state.Debts, req.Strategy, start, total, req.ExtraSnowball)
	if err != nil {
		return domain.PayoffResult{}, err
	}
	result.CalculationDate = s.now().UTC()

	next := s.state.Clone()
	stored := result.Clone()
	next.Results = &stored
	next.ExtraPayment = req.ExtraSnowball
	if err := s.commit(ctx, next); err != nil {
		return domain.PayoffResult{}, err
	}

	return result, nil
}

// Compare runs both strategies over the current debts without storing either.
func (s *PlannerService) Compare(ctx context.Context, req domain.CompareRequest) (domain.Comparison, error) {
	if err := ValidateStruct(req); err != nil {
		return domain.Comparison{}, err
	}
	start, err := s.startDate(req.StartDate)
	if err != nil {
		return domain.Comparison{}, err
	}

	debts := s.Debts()
	if len(debts) == 0 {
		return domain.Comparison{}, invalid("debts", "please add at least one debt")
	}

	total := req.CurrentMonthlyPayment
	if total <= 0 {
		total = sumMinPayments(debts)
	}

	// Calcular ambos métodos y comparar
	snowball, err := s.simulate(debts, domain.Snowball, start, total, req.ExtraSnowball)
	if err != nil {
		return domain.Comparison{}, err
	}
	avalanche, err := s.simulate(debts, domain.Avalanche, start, total, req.ExtraSnowball)
	if err != nil {
		return domain.Comparison{}, err
	}

	comparison := domain.Comparison{
		Snowball: domain.StrategySummary{
			Strategy:      domain.Snowball,
			TotalInterest: snowball.TotalInterest,
			Months:        snowball.Months,
		},
		Avalanche: domain.StrategySummary{
			Strategy:      domain.Avalanche,
			TotalInterest: avalanche.TotalInterest,
			Months:        avalanche.Months,
		},
		Recommended:   domain.Snowball,
		InterestSaved: math.Max(0, snowball.TotalInterest-avalanche.TotalInterest),
		MonthsSaved:   snowball.Months - avalanche.Months,
	}
	if avalanche.TotalInterest < snowball.TotalInterest {
		comparison.Recommended = domain.Avalanche
	}

	return comparison, nil
}

// ApplyExtraPayments revises the stored plan with one-off extra payments.
// The stored plan itself is left as it was.
func (s *PlannerService) ApplyExtraPayments(ctx context.Context, req domain.ExtraPaymentsRequest) (domain.Revision, error) {
	if err := ValidateStruct(req); err != nil {
		return domain.Revision{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Results == nil {
		return domain.Revision{}, ErrNoResults
	}
	return Revise(*s.state.Results, s.state.Debts, req.Overrides)
}

// Export serialises the state in the planner's export format.
func (s *PlannerService) Export() ([]byte, error) {
	state := s.State()
	payload := domain.ExportPayload{
		Debts:        state.Debts,
		Results:      state.Results,
		ExtraPayment: state.ExtraPayment,
		Version:      ExportVersion,
		ExportedAt:   s.now().UTC().Format(time.RFC3339),
	}
	return json.MarshalIndent(payload, "", "  ")
}

type importPayload struct {
	Debts        *[]domain.Debt       `json:"debts"`
	Results      *domain.PayoffResult `json:"results"`
	ExtraPayment float64              `json:"extraPayment"`
	Version      string               `json:"version"`
}

// Import replaces the state with an export. On failure the current state is
// kept.
func (s *PlannerService) Import(ctx context.Context, data []byte) error {
	var payload importPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return fmt.Errorf("%w: field %s has the wrong type", ErrImportSchema, typeErr.Field)
		}
		return fmt.Errorf("%w: %v", ErrImportParse, err)
	}
	if payload.Debts == nil {
		return fmt.Errorf("%w: debts", ErrImportSchema)
	}

	debts := *payload.Debts
	if len(debts) > 0 {
		if err := ValidateDebts(debts); err != nil {
			return fmt.Errorf("%w: %v", ErrImportSchema, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := domain.PlannerState{
		Debts:        domain.CloneDebts(debts),
		Results:      payload.Results,
		ExtraPayment: payload.ExtraPayment,
	}
	if next.Debts == nil {
		next.Debts = []domain.Debt{}
	}
	if err := s.commit(ctx, next); err != nil {
		return err
	}

	slog.Info("planner state imported",
		slog.Int("debts", len(next.Debts)),
		slog.String("version", payload.Version),
	)
	return nil
}

func (s *PlannerService) startDate(value string) (time.Time, error) {
	if value == "" {
		now := s.now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	start, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, invalid("startDate", "must be a date formatted as %s", dateLayout)
	}
	return start, nil
}

type simulationKey struct {
	Debts    []domain.Debt   `json:"debts"`
	Strategy domain.Strategy `json:"strategy"`
	Start    string          `json:"start"`
	Total    float64         `json:"total"`
	Extra    float64         `json:"extra"`
}

// simulate wraps Simulate with the optional result cache.
func (s *PlannerService) simulate(
	debts []domain.Debt,
	strategy domain.Strategy,
	start time.Time,
	total float64,
	extra float64,
) (domain.PayoffResult, error) {
	if s.cache == nil {
		return Simulate(debts, strategy, start, total, extra)
	}

	key, err := cacheKey(simulationKey{
		Debts:    debts,
		Strategy: strategy,
		Start:    start.Format(dateLayout),
		Total:    total,
		Extra:    extra,
	})
	if err == nil {
		if cached, ok := s.cache.Get(key); ok {
			var result domain.PayoffResult
			if jsonErr := json.Unmarshal([]byte(cached), &result); jsonErr == nil {
				return result, nil
			}
		}
	}

	result, simErr := Simulate(debts, strategy, start, total, extra)
	if simErr != nil {
		return domain.PayoffResult{}, simErr
	}

	if err == nil {
		// Guardar en caché (no crítico si falla)
		if encoded, jsonErr := json.Marshal(result); jsonErr == nil {
			if setErr := s.cache.Set(key, string(encoded)); setErr != nil {
				slog.Warn("failed to cache simulation", slog.String("error", setErr.Error()))
			}
		}
	}

	return result, nil
}

func cacheKey(v simulationKey) (string, error) {
	encoded, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	sum := xxhash.Sum64(encoded)
	return simulationCachePrefix + strconv.FormatUint(sum, 16), nil
}

func sumMinPayments(debts []domain.Debt) float64 {
	total := 0.0
	for _, debt := range debts {
		total += debt.MinPayment
	}
	return total
}

package domain

import "time"

type Strategy string

const (
	Snowball  Strategy = "snowball"  // smallest balance first
	Avalanche Strategy = "avalanche" // highest interest rate first
)

// Valid reports whether s is one of the supported strategies.
func (s Strategy) Valid() bool {
	return s == Snowball || s == Avalanche
}

type Debt struct {
	Name         string  `json:"name" yaml:"name" validate:"required"`
	Balance      float64 `json:"balance" yaml:"balance" validate:"gt=0"`
	InterestRate float64 `json:"interestRate" yaml:"interest_rate" validate:"gte=0"`
	MinPayment   float64 `json:"minPayment" yaml:"min_payment" validate:"gt=0"`
}

// CloneDebts returns an independent copy of debts.
func CloneDebts(debts []Debt) []Debt {
	if debts == nil {
		return nil
	}
	out := make([]Debt, len(debts))
	copy(out, debts)
	return out
}

type DebtMonthRecord struct {
	Name                string  `json:"name"`
	Payment             float64 `json:"payment"`
	AdjustedMinPayment  float64 `json:"adjustedMinPayment"`
	ExtraPayment        float64 `json:"extraPayment"`
	Interest            float64 `json:"interest"`
	NewBalance          float64 `json:"newBalance"`
	OriginalMinPayment  float64 `json:"originalMinPayment"`
	ExtraPaymentApplied float64 `json:"extraPaymentApplied,omitempty"`
}

type MonthEntry struct {
	Month                 int               `json:"month"`
	Date                  time.Time         `json:"date"`
	TotalPayment          float64           `json:"totalPayment"`
	TotalInterest         float64           `json:"totalInterest"`
	CurrentMonthlyPayment float64           `json:"currentMonthlyPayment"`
	ExtraSnowball         float64           `json:"extraSnowball"`
	ExtraPaymentAdded     float64           `json:"extraPaymentAdded,omitempty"`
	Debts                 []DebtMonthRecord `json:"debts"`
}

// Record returns the month's record for the named debt.
func (m *MonthEntry) Record(name string) (*DebtMonthRecord, bool) {
	for i := range m.Debts {
		if m.Debts[i].Name == name {
			return &m.Debts[i], true
		}
	}
	return nil, false
}

// Clone returns a deep copy of the month.
func (m MonthEntry) Clone() MonthEntry {
	out := m
	if m.Debts != nil {
		out.Debts = make([]DebtMonthRecord, len(m.Debts))
		copy(out.Debts, m.Debts)
	}
	return out
}

type PayoffResult struct {
	Months                int          `json:"months"`
	TotalInterest         float64      `json:"totalInterest"`
	CurrentMonthlyPayment float64      `json:"currentMonthlyPayment"`
	ExtraSnowball         float64      `json:"extraSnowball"`
	TotalMonthlyPayment   float64      `json:"totalMonthlyPayment"`
	PaymentPlan           []MonthEntry `json:"paymentPlan"`
	CalculationDate       time.Time    `json:"calculationDate"`
	Strategy              Strategy     `json:"strategy"`
	StartDate             string       `json:"startDate"`
	ExtraPayment          float64      `json:"extraPayment"`
}

// ClonePlan deep-copies a payment plan.
func ClonePlan(plan []MonthEntry) []MonthEntry {
	if plan == nil {
		return nil
	}
	out := make([]MonthEntry, len(plan))
	for i, m := range plan {
		out[i] = m.Clone()
	}
	return out
}

// Clone returns a deep copy of the result.
func (r PayoffResult) Clone() PayoffResult {
	out := r
	out.PaymentPlan = ClonePlan(r.PaymentPlan)
	return out
}

// Revision is a what-if overlay of extra payments on top of a PayoffResult.
type Revision struct {
	RevisedPlan        []MonthEntry `json:"revisedPlan"`
	PayoffMonth        int          `json:"payoffMonth"`
	MonthsSaved        int          `json:"monthsSaved"`
	TotalInterestSaved float64      `json:"totalInterestSaved"`
	TotalExtraAdded    float64      `json:"totalExtraAdded"`
	TotalInterest      float64      `json:"totalInterest"`
	TotalPaid          float64      `json:"totalPaid"`
	TotalImpact        float64      `json:"totalImpact"`
}

type StrategySummary struct {
	Strategy      Strategy `json:"strategy"`
	TotalInterest float64  `json:"totalInterest"`
	Months        int      `json:"months"`
}

type Comparison struct {
	Snowball      StrategySummary `json:"snowball"`
	Avalanche     StrategySummary `json:"avalanche"`
	Recommended   Strategy        `json:"recommended"`
	InterestSaved float64         `json:"interestSaved"`
	MonthsSaved   int             `json:"monthsSaved"`
}

// PlannerState is everything the planner persists between calls.
type PlannerState struct {
	Debts        []Debt        `json:"debts"`
	Results      *PayoffResult `json:"results"`
	ExtraPayment float64       `json:"extraPayment"`
}

// Clone returns a deep copy of the state.
func (s PlannerState) Clone() PlannerState {
	out := PlannerState{
		Debts:        CloneDebts(s.Debts),
		ExtraPayment: s.ExtraPayment,
	}
	if s.Results != nil {
		r := s.Results.Clone()
		out.Results = &r
	}
	return out
}

type ExportPayload struct {
	Debts        []Debt        `json:"debts"`
	Results      *PayoffResult `json:"results"`
	ExtraPayment float64       `json:"extraPayment"`
	Version      string        `json:"version"`
	ExportedAt   string        `json:"exportedAt"`
}

package service

import (
	"math"
	"sort"

	"debt-planner/domain"
)

// Revise layers one-off extra payments on top of an existing schedule.
//
// overrides maps 1-based month numbers to an extra amount for that month.
// The revision keeps the original payment sequence: each extra amount is
// spread over that month's debts in strategy order, capped at each debt's
// balance, and then balances and interest are recomputed forward from the
// current balances of debts. The plan is cut at the first month in which
// everything is paid. original is not modified.
func Revise(
	original domain.PayoffResult,
	debts []domain.Debt,
	overrides map[int]float64,
) (domain.Revision, error) {

	months := make([]int, 0, len(overrides))
	for month, amount := range overrides {
		if math.IsNaN(amount) || amount < 0 {
			return domain.Revision{}, invalid("overrides", "extra payment for month %d cannot be negative", month)
		}
		if amount > 0 && month >= 1 && month <= len(original.PaymentPlan) {
			months = append(months, month)
		}
	}
	sort.Ints(months)

	plan := domain.ClonePlan(original.PaymentPlan)

	ordered := domain.CloneDebts(debts)
	sortByStrategy(ordered, original.Strategy)

	// 1. Aplicar los pagos extra a cada mes
	totalExtraAdded := 0.0
	for _, month := range months {
		amount := overrides[month]
		entry := &plan[month-1]
		entry.ExtraPaymentAdded = amount
		entry.TotalPayment += amount
		totalExtraAdded += amount

		remaining := amount
		for _, debt := range ordered {
			if remaining <= 0 {
				break
			}
			record, ok := entry.Record(debt.Name)
			if !ok || record.NewBalance <= 0 {
				continue
			}
			applied := math.Min(remaining, record.NewBalance)
			record.Payment += applied
			record.NewBalance -= applied
			record.ExtraPaymentApplied = applied
			remaining -= applied
		}
	}

	// 2. Recalcular el plan completo desde los saldos actuales
	running := make(map[string]*domain.Debt, len(debts))
	tracked := []string{}
	work := domain.CloneDebts(debts)
	for i := range work {
		running[work[i].Name] = &work[i]
	}
	if len(plan) > 0 {
		for _, record := range plan[0].Debts {
			if _, ok := running[record.Name]; ok {
				tracked = append(tracked, record.Name)
			}
		}
	}

	payoffMonth := len(plan)
	totalInterestSaved := 0.0

	for i := range plan {
		entry := &plan[i]
		entry.TotalInterest = 0

		for j := range entry.Debts {
			record := &entry.Debts[j]
			debt, ok := running[record.Name]
			if !ok || debt.Balance <= 0 {
				record.Interest = 0
				record.NewBalance = 0
				continue
			}

			record.Interest = debt.Balance * monthlyRate(debt.InterestRate)
			record.NewBalance = math.Max(0, debt.Balance+record.Interest-record.Payment)
			entry.TotalInterest += record.Interest

			if entry.ExtraPaymentAdded > 0 {
				if originalRecord, ok := original.PaymentPlan[i].Record(record.Name); ok {
					totalInterestSaved += originalRecord.Interest - record.Interest
				}
			}

			debt.Balance = record.NewBalance
		}

		if allPaid(running, tracked) {
			payoffMonth = i + 1
			break
		}
	}

	revised := plan[:payoffMonth]
	totalInterest := 0.0
	totalPaid := 0.0
	for _, entry := range revised {
		totalInterest += entry.TotalInterest
		totalPaid += entry.TotalPayment
	}

	return domain.Revision{
		RevisedPlan:        revised,
		PayoffMonth:        payoffMonth,
		MonthsSaved:        original.Months - payoffMonth,
		TotalInterestSaved: totalInterestSaved,
		TotalExtraAdded:    totalExtraAdded,
		TotalInterest:      totalInterest,
		TotalPaid:          totalPaid,
		TotalImpact:        totalExtraAdded + totalInterestSaved,
	}, nil
}

func allPaid(running map[string]*domain.Debt, tracked []string) bool {
	if len(tracked) == 0 {
		return false
	}
	for _, name := range tracked {
		if running[name].Balance > 0 {
			return false
		}
	}
	return true
}

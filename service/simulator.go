package service

import (
	"fmt"
	"math"
	"sort"
	"time"

	"debt-planner/domain"
)

func monthlyRate(annualPercent float64) float64 {
	return annualPercent / 100 / 12
}

// sortByStrategy orders debts in payoff priority. Ties keep input order.
func sortByStrategy(debts []domain.Debt, strategy domain.Strategy) {
	if strategy == domain.Snowball {
		sort.SliceStable(debts, func(i, j int) bool {
			return debts[i].Balance < debts[j].Balance
		})
		return
	}
	sort.SliceStable(debts, func(i, j int) bool {
		return debts[i].InterestRate > debts[j].InterestRate
	})
}

// Simulate builds a month-by-month payoff schedule for debts.
//
// Every minimum payment is scaled by totalMonthlyPayment / sum(minimums), so
// the adjusted minimums add up to what the user actually pays each month. The
// whole extra amount goes to the first unpaid debt in strategy order, and a
// debt that is paid off releases its adjusted minimum to the next debts in the
// same month. The caller's slice is never modified.
func Simulate(
	debts []domain.Debt,
	strategy domain.Strategy,
	start time.Time,
	totalMonthlyPayment float64,
	extra float64,
) (domain.PayoffResult, error) {

	// Validaciones
	if err := ValidateDebts(debts); err != nil {
		return domain.PayoffResult{}, err
	}
	if !strategy.Valid() {
		return domain.PayoffResult{}, invalid("strategy", "unknown strategy %q", strategy)
	}
	if math.IsNaN(totalMonthlyPayment) || totalMonthlyPayment < 0 {
		return domain.PayoffResult{}, invalid("currentMonthlyPayment", "cannot be negative")
	}
	if math.IsNaN(extra) || extra < 0 {
		return domain.PayoffResult{}, invalid("extraSnowball", "cannot be negative")
	}
	if totalMonthlyPayment+extra <= 0 {
		return domain.PayoffResult{}, invalid("currentMonthlyPayment", "monthly payment plus extra must be greater than 0")
	}

	// Crear copia de las deudas para trabajar
	work := domain.CloneDebts(debts)
	sortByStrategy(work, strategy)

	totalMinPayment := 0.0
	for _, debt := range work {
		totalMinPayment += debt.MinPayment
	}
	paymentRatio := 1.0
	if totalMinPayment > 0 {
		paymentRatio = totalMonthlyPayment / totalMinPayment
	}

	plan := []domain.MonthEntry{}
	totalInterest := 0.0
	date := start
	month := 0

	for anyUnpaid(work) {
		// Límite de seguridad para evitar loops infinitos
		if month >= MaxPayoffMonths {
			return domain.PayoffResult{}, fmt.Errorf("%w: balance remains after %d months", ErrPayoffHorizon, MaxPayoffMonths)
		}
		month++

		remainingExtra := extra
		entry := domain.MonthEntry{
			Month:                 month,
			Date:                  date,
			CurrentMonthlyPayment: totalMonthlyPayment,
			ExtraSnowball:         extra,
			Debts:                 make([]domain.DebtMonthRecord, 0, len(work)),
		}

		for i := range work {
			debt := &work[i]
			if debt.Balance <= 0 {
				continue
			}

			interest := debt.Balance * monthlyRate(debt.InterestRate)
			totalInterest += interest
			entry.TotalInterest += interest

			adjustedMinPayment := debt.MinPayment * paymentRatio
			payment := adjustedMinPayment
			if remainingExtra > 0 {
				payment += remainingExtra
				remainingExtra = 0
			}

			// Nunca pagar más que el saldo más intereses
			payment = math.Min(payment, debt.Balance+interest)
			entry.TotalPayment += payment
			debt.Balance = debt.Balance + interest - payment

			entry.Debts = append(entry.Debts, domain.DebtMonthRecord{
				Name:               debt.Name,
				Payment:            payment,
				AdjustedMinPayment: adjustedMinPayment,
				ExtraPayment:       payment - adjustedMinPayment,
				Interest:           interest,
				NewBalance:         math.Max(0, debt.Balance),
				OriginalMinPayment: debt.MinPayment,
			})

			// El mínimo liberado pasa a la siguiente deuda este mismo mes
			if debt.Balance <= 0 {
				remainingExtra += adjustedMinPayment
			}
		}

		plan = append(plan, entry)
		date = date.AddDate(0, 1, 0)
	}

	return domain.PayoffResult{
		Months:                month,
		TotalInterest:         totalInterest,
		CurrentMonthlyPayment: totalMonthlyPayment,
		ExtraSnowball:         extra,
		TotalMonthlyPayment:   totalMonthlyPayment + extra,
		PaymentPlan:           plan,
		Strategy:              strategy,
		StartDate:             start.Format(dateLayout),
		ExtraPayment:          extra,
	}, nil
}

func anyUnpaid(debts []domain.Debt) bool {
	for _, debt := range debts {
		if debt.Balance > 0 {
			return true
		}
	}
	return false
}

package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"debt-planner/domain"
)

const dateLayout = "2006-01-02"

var scheduleHeader = []string{
	"month",
	"date",
	"debt",
	"payment",
	"extra_payment",
	"interest",
	"principal",
	"new_balance",
	"month_total_payment",
	"month_total_interest",
}

// WriteScheduleCSV writes one row per debt per month of plan.
func WriteScheduleCSV(w io.Writer, plan []domain.MonthEntry) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(scheduleHeader); err != nil {
		return err
	}

	for _, month := range plan {
		for _, debt := range month.Debts {
			record := []string{
				strconv.Itoa(month.Month),
				month.Date.Format(dateLayout),
				debt.Name,
				formatMoney(debt.Payment),
				formatMoney(debt.ExtraPayment + debt.ExtraPaymentApplied),
				formatMoney(debt.Interest),
				formatMoney(debt.Payment - debt.Interest),
				formatMoney(debt.NewBalance),
				formatMoney(month.TotalPayment),
				formatMoney(month.TotalInterest),
			}
			if err := writer.Write(record); err != nil {
				return err
			}
		}
	}

	writer.Flush()
	return writer.Error()
}

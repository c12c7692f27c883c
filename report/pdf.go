package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"debt-planner/domain"
)

const (
	pageWidth    = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 20.0
	contentWidth = pageWidth - marginLeft - marginRight
	rowHeight    = 6.0
)

// schedule table column widths; they add up to contentWidth.
var scheduleColumns = []struct {
	title string
	width float64
	align string
}{
	{"Month", 14, "C"},
	{"Date", 24, "C"},
	{"Payment", 28, "R"},
	{"Principal", 28, "R"},
	{"Interest", 24, "R"},
	{"Balance", 28, "R"},
	{"Paid off", 34, "L"},
}

// SchedulePDF renders a payoff plan as a printable report.
type SchedulePDF struct {
	pdf    *fpdf.Fpdf
	result domain.PayoffResult
	debts  []domain.Debt
}

// GenerateSchedulePDF builds the PDF report for result.
func GenerateSchedulePDF(result domain.PayoffResult, debts []domain.Debt) ([]byte, error) {
	report := &SchedulePDF{
		pdf:    fpdf.New("P", "mm", "A4", ""),
		result: result,
		debts:  debts,
	}

	report.pdf.SetMargins(marginLeft, marginTop, marginRight)
	report.pdf.SetAutoPageBreak(true, marginBottom)
	report.pdf.AliasNbPages("")
	report.pdf.SetFooterFunc(report.footer)

	report.addSummaryPage()
	report.addSchedule()

	var buf bytes.Buffer
	if err := report.pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *SchedulePDF) footer() {
	r.pdf.SetY(-15)
	r.pdf.SetFont("Arial", "I", 8)
	r.pdf.SetTextColor(128, 128, 128)
	r.pdf.CellFormat(0, 10, fmt.Sprintf("Page %d of {nb}", r.pdf.PageNo()), "", 0, "C", false, 0, "")
}

func (r *SchedulePDF) addSummaryPage() {
	r.pdf.AddPage()

	r.pdf.SetFont("Arial", "B", 24)
	r.pdf.SetTextColor(0, 51, 102)
	r.pdf.Ln(10)
	r.pdf.CellFormat(contentWidth, 12, "Debt Payoff Plan", "", 1, "C", false, 0, "")

	r.pdf.SetFont("Arial", "", 13)
	r.pdf.SetTextColor(80, 80, 80)
	r.pdf.CellFormat(contentWidth, 8, strategyLabel(r.result.Strategy), "", 1, "C", false, 0, "")

	r.pdf.SetFont("Arial", "I", 10)
	calculated := r.result.CalculationDate
	if calculated.IsZero() {
		calculated = time.Now()
	}
	r.pdf.CellFormat(contentWidth, 8, "Calculated "+calculated.Format("2 January 2006"), "", 1, "C", false, 0, "")
	r.pdf.Ln(8)

	r.sectionHeader("Summary")
	r.summaryRow("Start date", r.result.StartDate)
	r.summaryRow("Months to debt free", fmt.Sprintf("%d", r.result.Months))
	if len(r.result.PaymentPlan) > 0 {
		last := r.result.PaymentPlan[len(r.result.PaymentPlan)-1]
		r.summaryRow("Final payment", last.Date.Format("January 2006"))
	}
	r.summaryRow("Monthly payment", formatCurrency(r.result.CurrentMonthlyPayment))
	r.summaryRow("Extra each month", formatCurrency(r.result.ExtraSnowball))
	r.summaryRow("Total interest", formatCurrency(r.result.TotalInterest))
	r.summaryRow("Total paid", formatCurrency(totalPaid(r.result.PaymentPlan)))
	r.pdf.CellFormat(contentWidth, 1, "", "LRB", 1, "C", true, 0, "")

	if len(r.debts) == 0 {
		return
	}

	r.pdf.Ln(8)
	r.sectionHeader("Debts")
	for _, debt := range r.debts {
		text := fmt.Sprintf("%s  %s at %.2f%%, minimum %s",
			debt.Name, formatCurrency(debt.Balance), debt.InterestRate, formatCurrency(debt.MinPayment))
		if month, ok := payoffMonth(r.result.PaymentPlan, debt.Name); ok {
			text += fmt.Sprintf(", paid off in month %d", month)
		}
		r.pdf.CellFormat(contentWidth, 7, text, "LR", 1, "L", true, 0, "")
	}
	r.pdf.CellFormat(contentWidth, 1, "", "LRB", 1, "C", true, 0, "")
}

func (r *SchedulePDF) sectionHeader(title string) {
	r.pdf.SetFillColor(245, 247, 250)
	r.pdf.SetDrawColor(200, 200, 200)
	r.pdf.SetFont("Arial", "B", 12)
	r.pdf.SetTextColor(0, 51, 102)
	r.pdf.CellFormat(contentWidth, 8, title, "1", 1, "C", true, 0, "")
	r.pdf.SetFont("Arial", "", 11)
	r.pdf.SetTextColor(50, 50, 50)
}

func (r *SchedulePDF) summaryRow(label, value string) {
	half := contentWidth / 2
	r.pdf.CellFormat(half, 7, label, "L", 0, "L", true, 0, "")
	r.pdf.CellFormat(half, 7, value, "R", 1, "R", true, 0, "")
}

func (r *SchedulePDF) addSchedule() {
	r.pdf.AddPage()
	r.pdf.SetFont("Arial", "B", 14)
	r.pdf.SetTextColor(0, 51, 102)
	r.pdf.CellFormat(contentWidth, 10, "Payment Schedule", "", 1, "L", false, 0, "")
	r.tableHeader()

	r.pdf.SetFont("Arial", "", 9)
	r.pdf.SetTextColor(50, 50, 50)
	for i, month := range r.result.PaymentPlan {
		if r.pdf.GetY()+rowHeight > 297-marginBottom {
			r.pdf.AddPage()
			r.tableHeader()
			r.pdf.SetFont("Arial", "", 9)
			r.pdf.SetTextColor(50, 50, 50)
		}

		fill := i%2 == 1
		r.pdf.SetFillColor(248, 248, 248)

		balance := 0.0
		paidOff := []string{}
		for _, debt := range month.Debts {
			balance += debt.NewBalance
			if debt.NewBalance <= 0 {
				paidOff = append(paidOff, debt.Name)
			}
		}

		cells := []string{
			fmt.Sprintf("%d", month.Month),
			month.Date.Format(dateLayout),
			formatCurrency(month.TotalPayment),
			formatCurrency(month.TotalPayment - month.TotalInterest),
			formatCurrency(month.TotalInterest),
			formatCurrency(balance),
			strings.Join(paidOff, ", "),
		}
		for j, col := range scheduleColumns {
			r.pdf.CellFormat(col.width, rowHeight, cells[j], "", 0, col.align, fill, 0, "")
		}
		r.pdf.Ln(rowHeight)
	}
}

func (r *SchedulePDF) tableHeader() {
	r.pdf.SetFont("Arial", "B", 9)
	r.pdf.SetFillColor(0, 51, 102)
	r.pdf.SetTextColor(255, 255, 255)
	for _, col := range scheduleColumns {
		r.pdf.CellFormat(col.width, 7, col.title, "", 0, "C", true, 0, "")
	}
	r.pdf.Ln(7)
}

func totalPaid(plan []domain.MonthEntry) float64 {
	total := 0.0
	for _, month := range plan {
		total += month.TotalPayment
	}
	return total
}

// payoffMonth finds the month in which the named debt reached zero.
func payoffMonth(plan []domain.MonthEntry, name string) (int, bool) {
	for _, month := range plan {
		if record, ok := month.Record(name); ok && record.NewBalance <= 0 {
			return month.Month, true
		}
	}
	return 0, false
}

func strategyLabel(strategy domain.Strategy) string {
	if strategy == domain.Avalanche {
		return "Avalanche strategy (highest interest rate first)"
	}
	return "Snowball strategy (smallest balance first)"
}

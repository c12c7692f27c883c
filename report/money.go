package report

import "github.com/shopspring/decimal"

// formatMoney renders an amount rounded half away from zero to cents.
func formatMoney(amount float64) string {
	return decimal.NewFromFloat(amount).StringFixed(2)
}

// formatCurrency is formatMoney with a dollar sign and thousands separators.
func formatCurrency(amount float64) string {
	d := decimal.NewFromFloat(amount).Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}

	fixed := d.StringFixed(2)
	whole, cents := fixed[:len(fixed)-3], fixed[len(fixed)-3:]

	var grouped []byte
	for i := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			grouped = append(grouped, ',')
		}
		grouped = append(grouped, whole[i])
	}
	return sign + "$" + string(grouped) + cents
}

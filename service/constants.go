package service

const (
	MaxDebtAmount      = 100_000_000.0 // 100 millones
	MaxInterestRate    = 1000.0        // 1000% anual
	MaxDebtsPerPlanner = 50
	MaxPayoffMonths    = 600 // 50 años máximo para pagar deudas

	// ExportVersion is written into every export and never checked on import.
	ExportVersion = "1.1"

	dateLayout = "2006-01-02"
)

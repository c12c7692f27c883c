package http

import (
	"log/slog"
	"net/http"
)

// NewRouter registers every planner route behind the rate limiter and the
// request logger.
func NewRouter(
	logger *slog.Logger,
	limiter *RateLimiter,
	planner *PlannerHandler,
	exports *ExportHandler,
) http.Handler {
	mux := http.NewServeMux()

	limited := func(path string, h http.HandlerFunc) {
		mux.Handle(path, RateLimitMiddleware(limiter, h))
	}

	mux.HandleFunc("/health", planner.Health)

	limited("/debts", planner.Debts)
	limited("/debts/remove", planner.RemoveDebt)
	limited("/debts/clear", planner.ClearDebts)

	limited("/plan", planner.Plan)
	limited("/plan/calculate", planner.CalculatePayoff)
	limited("/plan/compare", planner.Compare)
	limited("/plan/extra-payments", planner.ApplyExtraPayments)
	limited("/plan/explain", planner.Explain)
	limited("/plan/schedule.csv", exports.ScheduleCSV)
	limited("/plan/report.pdf", exports.ReportPDF)

	limited("/export", exports.Export)
	limited("/import", exports.Import)

	return RequestMiddleware(logger, mux)
}

package http

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"time"

	"debt-planner/report"
	"debt-planner/service"
)

type ExportHandler struct {
	service *service.PlannerService
}

func NewExportHandler(service *service.PlannerService) *ExportHandler {
	return &ExportHandler{service: service}
}

func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}

	data, err := h.service.Export()
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	filename := "debt-plan-" + time.Now().UTC().Format("2006-01-02") + ".json"
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+filename+"\"")
	if _, err := w.Write(data); err != nil {
		slog.Warn("failed to write export", slog.String("error", err.Error()))
	}
}

func (h *ExportHandler) Import(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "import file is too large")
		return
	}

	if err := h.service.Import(r.Context(), data); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.service.State())
}

func (h *ExportHandler) ScheduleCSV(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}

	result, err := h.service.Results()
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteScheduleCSV(&buf, result.PaymentPlan); err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=\"payment-schedule.csv\"")
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("failed to write schedule csv", slog.String("error", err.Error()))
	}
}

func (h *ExportHandler) ReportPDF(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}

	result, err := h.service.Results()
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	data, err := report.GenerateSchedulePDF(result, h.service.Debts())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=\"debt-payoff-plan.pdf\"")
	if _, err := w.Write(data); err != nil {
		slog.Warn("failed to write pdf report", slog.String("error", err.Error()))
	}
}

package http

import (
	"net/http"
	"strconv"

	"debt-planner/domain"
	"debt-planner/service"
)

const maxBodyBytes = 5 << 20

type PlannerHandler struct {
	service *service.PlannerService
	advisor *service.AdvisorService
}

func NewPlannerHandler(service *service.PlannerService, advisor *service.AdvisorService) *PlannerHandler {
	return &PlannerHandler{service: service, advisor: advisor}
}

type debtsResponse struct {
	Debts               []domain.Debt `json:"debts"`
	TotalMinimumPayment float64       `json:"totalMinimumPayment"`
}

type explanationResponse struct {
	Strategy    domain.Strategy    `json:"strategy"`
	Explanation string             `json:"explanation"`
	Comparison  *domain.Comparison `json:"comparison,omitempty"`
}

func (h *PlannerHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Debts lists debts on GET and adds one on POST.
func (h *PlannerHandler) Debts(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet, http.MethodPost) {
		return
	}

	if r.Method == http.MethodPost {
		var debt domain.Debt
		if !decodeJSON(w, r, &debt) {
			return
		}
		if err := h.service.AddDebt(r.Context(), debt); err != nil {
			writeServiceError(w, r, err)
			return
		}
		h.writeDebts(w, http.StatusCreated)
		return
	}

	h.writeDebts(w, http.StatusOK)
}

func (h *PlannerHandler) RemoveDebt(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodDelete) {
		return
	}

	index, err := strconv.Atoi(r.URL.Query().Get("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "index must be an integer")
		return
	}
	if err := h.service.RemoveDebt(r.Context(), index); err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.writeDebts(w, http.StatusOK)
}

func (h *PlannerHandler) ClearDebts(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}
	if err := h.service.ClearDebts(r.Context()); err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.writeDebts(w, http.StatusOK)
}

func (h *PlannerHandler) writeDebts(w http.ResponseWriter, status int) {
	debts := h.service.Debts()
	total := 0.0
	for _, debt := range debts {
		total += debt.MinPayment
	}
	writeJSON(w, status, debtsResponse{Debts: debts, TotalMinimumPayment: total})
}

func (h *PlannerHandler) CalculatePayoff(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}

	var input domain.PayoffRequest
	if !decodeJSON(w, r, &input) {
		return
	}

	result, err := h.service.CalculatePayoff(r.Context(), input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Plan returns the last calculated plan.
func (h *PlannerHandler) Plan(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}

	result, err := h.service.Results()
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *PlannerHandler) Compare(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}

	var input domain.CompareRequest
	if !decodeJSON(w, r, &input) {
		return
	}

	comparison, err := h.service.Compare(r.Context(), input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, comparison)
}

func (h *PlannerHandler) ApplyExtraPayments(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}

	var input domain.ExtraPaymentsRequest
	if !decodeJSON(w, r, &input) {
		return
	}

	revision, err := h.service.ApplyExtraPayments(r.Context(), input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, revision)
}

// Explain describes the last plan; ?compare=true also weighs the other strategy.
func (h *PlannerHandler) Explain(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}

	result, err := h.service.Results()
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var comparison *domain.Comparison
	if compare, _ := strconv.ParseBool(r.URL.Query().Get("compare")); compare {
		c, err := h.service.Compare(r.Context(), domain.CompareRequest{
			StartDate:             result.StartDate,
			CurrentMonthlyPayment: result.CurrentMonthlyPayment,
			ExtraSnowball:         result.ExtraSnowball,
		})
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		comparison = &c
	}

	writeJSON(w, http.StatusOK, explanationResponse{
		Strategy:    result.Strategy,
		Explanation: h.advisor.ExplainPlan(r.Context(), result, h.service.Debts(), comparison),
		Comparison:  comparison,
	})
}

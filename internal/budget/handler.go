package budget

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	budgetDatamodel "github.com/AbrarAhmad001/antigravity-budget/internal/core/datamodel/budget"
	"github.com/AbrarAhmad001/antigravity-budget/internal/transport"
	"github.com/AbrarAhmad001/antigravity-budget/pkg/logger"
)

type ServiceAPI interface {
	Budgets() []budgetDatamodel.Budget
	AddBudget(ctx context.Context, b budgetDatamodel.Budget) (string, error)
	DeleteBudget(ctx context.Context, id string) error
	Alerts() []budgetDatamodel.Alert
	Period() (month, year int)
}

// UpstreamAlerts is the backend's own alert computation. The view renders
// the locally derived list; this one exists to cross-check the two.
type UpstreamAlerts interface {
	Alerts(ctx context.Context, month, year int) ([]budgetDatamodel.Alert, error)
}

type Handler struct {
	*transport.BaseHandler
	Service  ServiceAPI
	Upstream UpstreamAlerts
}

func NewHandler(service ServiceAPI, upstream UpstreamAlerts) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
		Upstream:    upstream,
	}
}

type createBudgetDTO struct {
	Category  string  `json:"category"`
	Amount    float64 `json:"amount"`
	Threshold float64 `json:"threshold"`
	Month     *int    `json:"month"`
	Year      *int    `json:"year"`
}

// alertResponse carries the raw percentage plus the clamped one the view
// renders in progress bars.
type alertResponse struct {
	budgetDatamodel.Alert
	DisplayPercentage float64 `json:"display_percentage"`
}

func (h *Handler) GetBudgets(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusOK, h.Service.Budgets())
}

func (h *Handler) CreateBudget(w http.ResponseWriter, r *http.Request) {
	var dto createBudgetDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreateBudget: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := h.Service.AddBudget(r.Context(), budgetDatamodel.Budget{
		Category:  dto.Category,
		Amount:    dto.Amount,
		Threshold: dto.Threshold,
		Month:     dto.Month,
		Year:      dto.Year,
	})
	if err != nil {
		h.Logger.Error("CreateBudget: add failed", "error", err, "category", dto.Category)
		h.WriteAppError(w, err)
		return
	}

	h.Logger.Info("CreateBudget: budget created", "id", id, "category", dto.Category)
	h.WriteJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *Handler) DeleteBudget(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.Service.DeleteBudget(r.Context(), id); err != nil {
		h.Logger.Error("DeleteBudget: delete failed", "error", err, "id", id)
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	alerts := h.Service.Alerts()

	out := make([]alertResponse, len(alerts))
	for i, a := range alerts {
		out[i] = alertResponse{Alert: a, DisplayPercentage: DisplayPercent(a)}
	}

	h.WriteJSON(w, http.StatusOK, out)
}

// GetUpstreamAlerts fetches the backend's alert list for the selected (or
// query-overridden) period so divergence from the local list can be spotted.
func (h *Handler) GetUpstreamAlerts(w http.ResponseWriter, r *http.Request) {
	month, year := h.Service.Period()
	if v := r.URL.Query().Get("month"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, "invalid month")
			return
		}
		month = parsed
	}
	if v := r.URL.Query().Get("year"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, "invalid year")
			return
		}
		year = parsed
	}

	alerts, err := h.Upstream.Alerts(r.Context(), month, year)
	if err != nil {
		h.Logger.Error("GetUpstreamAlerts: fetch failed", "error", err, "month", month, "year", year)
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, alerts)
}

package analytics

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	summaryDatamodel "github.com/AbrarAhmad001/antigravity-budget/internal/core/datamodel/summary"
	"github.com/AbrarAhmad001/antigravity-budget/internal/transport"
	"github.com/AbrarAhmad001/antigravity-budget/pkg/logger"
)

type ServiceAPI interface {
	Monthly() summaryDatamodel.Summary
	Overall() summaryDatamodel.OverallSavings
	Years() []int
	Period() (month, year int)
	SetPeriod(ctx context.Context, month, year int) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

type periodDTO struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

type monthlyResponse struct {
	summaryDatamodel.Summary
	Ratio string `json:"ratio"`
}

func (h *Handler) GetMonthlySummary(w http.ResponseWriter, r *http.Request) {
	sum := h.Service.Monthly()
	h.WriteJSON(w, http.StatusOK, monthlyResponse{Summary: sum, Ratio: Ratio(sum)})
}

func (h *Handler) GetOverallSavings(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusOK, h.Service.Overall())
}

func (h *Handler) GetAvailableYears(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusOK, map[string][]int{"years": h.Service.Years()})
}

func (h *Handler) GetPeriod(w http.ResponseWriter, r *http.Request) {
	month, year := h.Service.Period()
	h.WriteJSON(w, http.StatusOK, periodDTO{Month: month, Year: year})
}

func (h *Handler) SetPeriod(w http.ResponseWriter, r *http.Request) {
	var dto periodDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Service.SetPeriod(r.Context(), dto.Month, dto.Year); err != nil {
		h.Logger.Error("SetPeriod: switch failed", "error", err, "month", dto.Month, "year", dto.Year)
		h.WriteAppError(w, err)
		return
	}

	sum := h.Service.Monthly()
	h.WriteJSON(w, http.StatusOK, monthlyResponse{Summary: sum, Ratio: Ratio(sum)})
}

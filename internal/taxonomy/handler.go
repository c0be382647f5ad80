package taxonomy

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi"

	"github.com/AbrarAhmad001/antigravity-budget/internal/transport"
	"github.com/AbrarAhmad001/antigravity-budget/pkg/logger"
)

type ServiceAPI interface {
	Catalog() Catalog
	AddCategory(ctx context.Context, set, value string) error
	RemoveCategory(ctx context.Context, set, value string) error
	CategoryOptions(transactionType, current string) []string
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

type categoryValueDTO struct {
	Value string `json:"value"`
}

func (h *Handler) GetCategories(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusOK, h.Service.Catalog())
}

// GetOptions lists the categories offered for a draft of the given type,
// with the entry's current value included even when it left the taxonomy.
func (h *Handler) GetOptions(w http.ResponseWriter, r *http.Request) {
	transactionType := r.URL.Query().Get("type")
	current := r.URL.Query().Get("current")
	h.WriteJSON(w, http.StatusOK, map[string][]string{
		"options": h.Service.CategoryOptions(transactionType, current),
	})
}

func (h *Handler) AddCategory(w http.ResponseWriter, r *http.Request) {
	set := chi.URLParam(r, "set")

	var dto categoryValueDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Service.AddCategory(r.Context(), set, dto.Value); err != nil {
		h.Logger.Error("AddCategory: add failed", "error", err, "set", set)
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, h.Service.Catalog())
}

func (h *Handler) RemoveCategory(w http.ResponseWriter, r *http.Request) {
	set := chi.URLParam(r, "set")
	value, err := url.PathUnescape(chi.URLParam(r, "value"))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid category value")
		return
	}

	if err := h.Service.RemoveCategory(r.Context(), set, value); err != nil {
		h.Logger.Error("RemoveCategory: remove failed", "error", err, "set", set, "value", value)
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, h.Service.Catalog())
}

package reconcile

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	errors "github.com/AbrarAhmad001/antigravity-budget/internal"
	summaryDatamodel "github.com/AbrarAhmad001/antigravity-budget/internal/core/datamodel/summary"
	"github.com/AbrarAhmad001/antigravity-budget/internal/transport"
	"github.com/AbrarAhmad001/antigravity-budget/pkg/logger"
)

// maxUploadSize caps receipt uploads at 10 MB.
const maxUploadSize = 10 << 20

type ServiceAPI interface {
	CaptureText(ctx context.Context, text string) (int, error)
	CaptureImage(ctx context.Context, filename string, content io.Reader) (int, error)
	Drafts() Batch
	UpdateDraft(ctx context.Context, i int, field string, value any) error
	DeleteDraft(ctx context.Context, i int) error
	ConfirmBatch(ctx context.Context) error
	PreviewSummary() summaryDatamodel.Summary
	PreviewDaily() []summaryDatamodel.DailyFlow
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

type captureTextDTO struct {
	Text string `json:"text"`
}

type captureResponse struct {
	Status string `json:"status"`
	Added  int    `json:"added"`
	Drafts Batch  `json:"drafts"`
}

// writeCaptureResult distinguishes "nothing extracted" from real failures:
// an empty extraction is an explicit state the view routes on, not an error
// message.
func (h *Handler) writeCaptureResult(w http.ResponseWriter, added int, err error) {
	if err != nil {
		if appErr, ok := errors.IsAppError(err); ok && appErr.Code == errors.ErrCodeNothingExtracted {
			h.WriteJSON(w, http.StatusOK, captureResponse{Status: "nothing_extracted", Drafts: h.Service.Drafts()})
			return
		}
		h.Logger.Error("capture failed", "error", err)
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, captureResponse{Status: "extracted", Added: added, Drafts: h.Service.Drafts()})
}

type updateDraftDTO struct {
	Field string          `json:"field"`
	Value json.RawMessage `json:"value"`
}

func (h *Handler) CaptureText(w http.ResponseWriter, r *http.Request) {
	var dto captureTextDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CaptureText: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if dto.Text == "" {
		h.WriteError(w, http.StatusBadRequest, "text is required")
		return
	}

	added, err := h.Service.CaptureText(r.Context(), dto.Text)
	h.writeCaptureResult(w, added, err)
}

func (h *Handler) CaptureImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		h.Logger.Error("CaptureImage: invalid multipart form", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid upload")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	added, err := h.Service.CaptureImage(r.Context(), header.Filename, file)
	h.writeCaptureResult(w, added, err)
}

func (h *Handler) GetDrafts(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"drafts":  h.Service.Drafts(),
		"summary": h.Service.PreviewSummary(),
		"daily":   h.Service.PreviewDaily(),
	})
}

func (h *Handler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid draft index")
		return
	}

	var dto updateDraftDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var value any
	if len(dto.Value) > 0 {
		if err := json.Unmarshal(dto.Value, &value); err != nil {
			h.WriteError(w, http.StatusBadRequest, "invalid field value")
			return
		}
	}

	if err := h.Service.UpdateDraft(r.Context(), index, dto.Field, value); err != nil {
		h.Logger.Error("UpdateDraft: update failed", "error", err, "index", index, "field", dto.Field)
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, h.Service.Drafts())
}

func (h *Handler) DeleteDraft(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid draft index")
		return
	}

	if err := h.Service.DeleteDraft(r.Context(), index); err != nil {
		h.Logger.Error("DeleteDraft: delete failed", "error", err, "index", index)
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, h.Service.Drafts())
}

func (h *Handler) ConfirmBatch(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.ConfirmBatch(r.Context()); err != nil {
		h.Logger.Error("ConfirmBatch: confirm failed", "error", err)
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

package rest

import (
	"log/slog"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/AbrarAhmad001/antigravity-budget/internal/analytics"
	"github.com/AbrarAhmad001/antigravity-budget/internal/budget"
	"github.com/AbrarAhmad001/antigravity-budget/internal/reconcile"
	"github.com/AbrarAhmad001/antigravity-budget/internal/taxonomy"
	"github.com/AbrarAhmad001/antigravity-budget/internal/transport/middleware"
)

// RegisterAllRoutes wires the local view API. Capture and draft editing sit
// under /capture and /drafts; the remaining routes are read views plus the
// budget and taxonomy mutations.
func RegisterAllRoutes(router *chi.Mux, backend BackendPinger, reconcileHandler *reconcile.Handler, taxonomyHandler *taxonomy.Handler, budgetHandler *budget.Handler, analyticsHandler *analytics.Handler, logger *slog.Logger) {
	healthHandler := NewHealthHandler(backend)

	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		r.Route("/capture", func(cr chi.Router) {
			cr.Post("/text", reconcileHandler.CaptureText)
			cr.Post("/image", reconcileHandler.CaptureImage)
		})

		r.Route("/drafts", func(dr chi.Router) {
			dr.Get("/", reconcileHandler.GetDrafts)
			dr.Post("/confirm", reconcileHandler.ConfirmBatch)
			dr.Patch("/{index}", reconcileHandler.UpdateDraft)
			dr.Delete("/{index}", reconcileHandler.DeleteDraft)
		})

		r.Route("/categories", func(tr chi.Router) {
			tr.Get("/", taxonomyHandler.GetCategories)
			tr.Get("/options", taxonomyHandler.GetOptions)
			tr.Post("/{set}", taxonomyHandler.AddCategory)
			tr.Delete("/{set}/{value}", taxonomyHandler.RemoveCategory)
		})

		r.Route("/budgets", func(br chi.Router) {
			br.Get("/", budgetHandler.GetBudgets)
			br.Post("/", budgetHandler.CreateBudget)
			br.Delete("/{id}", budgetHandler.DeleteBudget)
		})

		r.Get("/alerts", budgetHandler.GetAlerts)
		r.Get("/alerts/upstream", budgetHandler.GetUpstreamAlerts)

		r.Route("/summary", func(sr chi.Router) {
			sr.Get("/monthly", analyticsHandler.GetMonthlySummary)
			sr.Get("/overall-savings", analyticsHandler.GetOverallSavings)
			sr.Get("/available-years", analyticsHandler.GetAvailableYears)
		})

		r.Get("/period", analyticsHandler.GetPeriod)
		r.Put("/period", analyticsHandler.SetPeriod)
	})
}

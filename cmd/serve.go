package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/spf13/cobra"

	"github.com/AbrarAhmad001/antigravity-budget/internal"
	"github.com/AbrarAhmad001/antigravity-budget/internal/analytics"
	"github.com/AbrarAhmad001/antigravity-budget/internal/backendapi"
	"github.com/AbrarAhmad001/antigravity-budget/internal/budget"
	"github.com/AbrarAhmad001/antigravity-budget/internal/core/events"
	"github.com/AbrarAhmad001/antigravity-budget/internal/reconcile"
	"github.com/AbrarAhmad001/antigravity-budget/internal/session"
	"github.com/AbrarAhmad001/antigravity-budget/internal/taxonomy"
	"github.com/AbrarAhmad001/antigravity-budget/internal/transport/rest"
	"github.com/AbrarAhmad001/antigravity-budget/pkg/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local view server",
	Long:  `Start the HTTP server that backs the capture and dashboard views`,
	Run: func(cmd *cobra.Command, args []string) {
		startServer()
	},
}

type Dependencies struct {
	Config  *internal.Config
	Backend *backendapi.Client
	Session *session.Session
	Router  *chi.Mux
	Logger  *slog.Logger
}

func startServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	// An unreachable backend at startup is not fatal; the health endpoint
	// reports it and the next successful call repopulates the session.
	if err := deps.Session.Load(context.Background()); err != nil {
		deps.Logger.Warn("initial session load failed", "error", err)
	}

	rest.RegisterAllRoutes(deps.Router, deps.Backend,
		reconcile.NewHandler(deps.Session),
		taxonomy.NewHandler(deps.Session),
		budget.NewHandler(deps.Session, deps.Backend),
		analytics.NewHandler(deps.Session),
		deps.Logger)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	slog.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.InitFromConfig(config.Observability.Logging.Level, config.Observability.Logging.Format)
	lg := logger.LoggerWrapper()

	backend := backendapi.NewClient(backendapi.Config{
		BaseURL:        config.Backend.BaseURL,
		RequestTimeout: config.Backend.RequestTimeout,
		UploadTimeout:  config.Backend.UploadTimeout,
	}, lg)

	bus := events.NewEventBus(lg)
	sess := session.NewSession(backend, bus, lg)

	return &Dependencies{
		Config:  config,
		Backend: backend,
		Session: sess,
		Router:  chi.NewRouter(),
		Logger:  lg,
	}, nil
}

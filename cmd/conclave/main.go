package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	cchttp "github.com/conclave-ai/conclave/internal/adapter/http"
	ccotel "github.com/conclave-ai/conclave/internal/adapter/otel"
	"github.com/conclave-ai/conclave/internal/adapter/ristretto"
	"github.com/conclave-ai/conclave/internal/adapter/ws"
	"github.com/conclave-ai/conclave/internal/config"
	"github.com/conclave-ai/conclave/internal/logger"
	"github.com/conclave-ai/conclave/internal/middleware"
	"github.com/conclave-ai/conclave/internal/service"
)

func main() {
	fallback := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(fallback)

	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, logCloser := logger.New(cfg.Logging)
	slog.SetDefault(log)
	defer logCloser.Close()

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"strategy", cfg.Consensus.Strategy,
		"max_concurrent", cfg.Orchestrator.MaxConcurrentRequests,
	)

	ctx := context.Background()

	// --- Telemetry ---
	otelShutdown, err := ccotel.Setup(ctx, cfg.Logging.Service, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown", "error", err)
		}
	}()

	telemetry, err := ccotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metric instruments: %w", err)
	}

	// --- Caches ---
	agentBackend, err := ristretto.New(cfg.Cache.MaxSizeBytes)
	if err != nil {
		return fmt.Errorf("agent cache: %w", err)
	}
	defer agentBackend.Close()

	consensusBackend, err := ristretto.New(cfg.Cache.MaxSizeBytes)
	if err != nil {
		return fmt.Errorf("consensus cache: %w", err)
	}
	defer consensusBackend.Close()

	analysisCache := service.NewAnalysisCache(agentBackend, cfg.Cache.AgentTTL)
	consensusCache := service.NewConsensusCache(consensusBackend, cfg.Cache.ConsensusTTL)

	// --- Core ---
	hub := ws.NewHub()
	orch := service.NewOrchestrator(cfg, analysisCache, consensusCache, hub, telemetry)

	if err := registerBuiltinAgents(orch); err != nil {
		return fmt.Errorf("register agents: %w", err)
	}

	// --- HTTP ---
	handlers := cchttp.NewHandlers(orch, hub)

	r := chi.NewRouter()
	r.Use(cchttp.CORS(cfg.Server.CORSOrigin))
	r.Use(middleware.RequestID)
	r.Use(cchttp.Logger)
	r.Use(cchttp.SecurityHeaders)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	if cfg.Telemetry.Enabled {
		r.Use(ccotel.HTTPMiddleware(cfg.Logging.Service))
	}

	cchttp.MountRoutes(r, handlers)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// Package main is the entry point for ecoflow-watch-server, a read-only MCP
// server reporting live EcoFlow telemetry and the persisted alert state.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jamesprial/ecoflow-watch/internal/app"
	"github.com/jamesprial/ecoflow-watch/internal/auth"
	"github.com/jamesprial/ecoflow-watch/internal/config"
	"github.com/jamesprial/ecoflow-watch/internal/logger"
	"github.com/jamesprial/ecoflow-watch/internal/metrics"
	"github.com/jamesprial/ecoflow-watch/internal/probe"
	"github.com/jamesprial/ecoflow-watch/internal/status"
	"github.com/jamesprial/ecoflow-watch/internal/tools"
	"github.com/mark3labs/mcp-go/server"
)

// unavailableProber answers every probe with the reason the sampler could
// not be built, so power_status reports it instead of disappearing.
type unavailableProber struct {
	err error
}

func (u unavailableProber) Probe(context.Context) probe.Result {
	return probe.ErrorResult(u.err)
}

func main() {
	configPath := flag.String("config", os.Getenv(config.ConfigPathEnv), "path to YAML config file (optional)")
	envPath := flag.String("env", config.DefaultEnvFile, "KEY=VALUE credentials file")
	flag.Parse()

	envErr := config.LoadDotEnv(*envPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(2)
	}
	if err := logger.Init(cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(2)
	}
	log := logger.WithComponent("server")
	if envErr != nil {
		log.Warn().Err(envErr).Msg("env file not loaded, using process environment")
	}

	tokenBefore := cfg.Server.AuthToken
	token, err := config.EnsureAuthToken(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("could not generate auth token, running without authentication")
	} else if tokenBefore == "" {
		log.Info().Str("token", token).Msg("generated auth token (set ECOFLOW_WATCH_AUTH_TOKEN to persist)")
	}

	journal, closeJournal, err := app.OpenJournal(cfg.Audit, "server-"+uuid.NewString())
	if err != nil {
		log.Warn().Err(err).Msg("audit journal disabled")
	}
	defer func() { _ = closeJournal() }()

	var prober probe.Prober
	if sampler, err := app.NewSampler(cfg); err != nil {
		log.Warn().Err(err).Msg("EcoFlow sampler unavailable, power_status will report the error")
		prober = unavailableProber{err: err}
	} else {
		prober = sampler
	}

	store, err := app.OpenStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open state backend")
	}
	defer func() { _ = store.Close() }()

	rec := metrics.New()

	mcpServer := server.NewMCPServer(
		"ecoflow-watch",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	registrations := status.StatusTools(prober, store, app.Thresholds(cfg), journal, rec)
	tools.RegisterAll(mcpServer, registrations)
	log.Info().Strs("tools", tools.Names(registrations)).Msg("tools registered")

	mux := http.NewServeMux()
	mux.Handle("/mcp", server.NewStreamableHTTPServer(mcpServer))
	mux.Handle("/metrics", rec.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	authMiddleware := auth.NewAuthMiddleware(cfg.Server.AuthToken, auth.WithExemptPaths("/healthz", "/metrics"))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           authMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("addr", addr).Msg("listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server error")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown error")
	}
	log.Info().Msg("server stopped")
}

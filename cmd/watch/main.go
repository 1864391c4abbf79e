// Package main is the entry point for ecoflow-watch. Each invocation runs
// the prober once, announces AC transitions and low battery through the
// configured channels, and persists the alert state. It is meant to be
// started periodically by cron or a systemd timer.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jamesprial/ecoflow-watch/internal/app"
	"github.com/jamesprial/ecoflow-watch/internal/config"
	"github.com/jamesprial/ecoflow-watch/internal/logger"
	"github.com/jamesprial/ecoflow-watch/internal/metrics"
	"github.com/jamesprial/ecoflow-watch/internal/state"
	"github.com/jamesprial/ecoflow-watch/internal/tracker"
)

const (
	exitOK     = 0
	exitConfig = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run returns exitOK for every outcome except configuration errors,
// including probe failures and notifier or state errors.
func run(args []string) int {
	fset := flag.NewFlagSet("ecoflow-watch", flag.ContinueOnError)
	configPath := fset.String("config", os.Getenv(config.ConfigPathEnv), "path to YAML config file (optional)")
	envPath := fset.String("env", config.DefaultEnvFile, "KEY=VALUE credentials file")
	if err := fset.Parse(args); err != nil {
		return exitConfig
	}

	envErr := config.LoadDotEnv(*envPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		return exitConfig
	}
	if err := logger.Init(cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		return exitConfig
	}

	runID := uuid.NewString()
	log := logger.WithComponent("watch").With().Str("run_id", runID).Logger()

	if envErr != nil {
		log.Warn().Err(envErr).Msg("env file not loaded, using process environment")
	}
	if cfg.ThresholdsInverted() {
		log.Warn().
			Int("low_threshold", cfg.Battery.LowThreshold).
			Int("recover_threshold", cfg.Battery.RecoverThreshold).
			Msg("recover threshold below low threshold; low battery alerts will repeat")
	}

	notifier, err := app.NewNotifier(cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("notifier not configured")
		return exitConfig
	}
	messages, err := app.NewMessages(cfg)
	if err != nil {
		log.Error().Err(err).Msg("invalid message template")
		return exitConfig
	}
	prober, err := app.NewProber(cfg)
	if err != nil {
		log.Error().Err(err).Msg("prober not configured")
		return exitConfig
	}
	if err := cfg.ValidateState(); err != nil {
		log.Error().Err(err).Msg("state backend not configured")
		return exitConfig
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	journal, closeJournal, err := app.OpenJournal(cfg.Audit, runID)
	if err != nil {
		log.Warn().Err(err).Msg("audit journal disabled")
	}
	defer func() { _ = closeJournal() }()

	rec := metrics.New()
	defer func() {
		if err := rec.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			log.Warn().Err(err).Msg("metrics textfile not written")
		}
	}()

	start := time.Now()
	res := prober.Probe(ctx)
	rec.ObserveProbe(res)
	log.Debug().Str("outcome", res.Outcome.String()).Str("line", res.Message).Msg("probe finished")

	store, err := app.OpenStore(cfg)
	if err != nil {
		log.Error().Err(err).Msg("state backend unavailable")
		return exitOK
	}
	defer func() { _ = store.Close() }()

	lockCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.State.LockTimeout)*time.Second)
	lock, err := state.AcquireLock(lockCtx, store.LockPath)
	cancel()
	if err != nil {
		log.Warn().Err(err).Msg("another run holds the state lock, skipping")
		return exitOK
	}
	defer func() { _ = lock.Release() }()

	tr, err := tracker.New(store, notifier, app.Thresholds(cfg),
		tracker.WithMessages(messages),
		tracker.WithLogger(log),
		tracker.WithJournal(journal),
	)
	if err != nil {
		log.Error().Err(err).Msg("tracker not constructed")
		return exitOK
	}

	rep := tr.Run(ctx, res)
	rec.ObserveReport(rep, start, time.Now())

	log.Info().
		Bool("skipped", rep.Skipped).
		Str("ac", string(rep.CurrentAC)).
		Bool("ac_notified", rep.ACNotified).
		Bool("battery_alerted", rep.BatteryAlerted).
		Bool("battery_rearmed", rep.BatteryRearmed).
		Int("errors", len(rep.Errors)).
		Dur("elapsed", time.Since(start)).
		Msg("run complete")

	return exitOK
}

// Package main is the entry point for ecoflow-probe, which samples the
// EcoFlow station once, prints one status line and reports AC presence
// through its exit status: 0 present, 1 absent, 2 error.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/jamesprial/ecoflow-watch/internal/app"
	"github.com/jamesprial/ecoflow-watch/internal/config"
	"github.com/jamesprial/ecoflow-watch/internal/logger"
	"github.com/jamesprial/ecoflow-watch/internal/probe"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, stdout io.Writer) int {
	fset := flag.NewFlagSet("ecoflow-probe", flag.ContinueOnError)
	configPath := fset.String("config", os.Getenv(config.ConfigPathEnv), "path to YAML config file (optional)")
	envPath := fset.String("env", config.DefaultEnvFile, "KEY=VALUE credentials file")
	if err := fset.Parse(args); err != nil {
		return probe.ExitError
	}

	envErr := config.LoadDotEnv(*envPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stdout, "ERROR: %v\n", err)
		return probe.ExitError
	}
	if err := logger.Init(cfg.Log); err != nil {
		fmt.Fprintf(stdout, "ERROR: %v\n", err)
		return probe.ExitError
	}
	log := logger.WithComponent("probe")
	if envErr != nil {
		log.Debug().Err(envErr).Msg("env file not loaded")
	}

	sampler, err := app.NewSampler(cfg)
	if err != nil {
		fmt.Fprintf(stdout, "ERROR: %v\n", err)
		return probe.ExitError
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res := sampler.Probe(ctx)
	if res.Outcome == probe.OutcomeError {
		log.Error().Err(res.Err).Msg("quota request failed")
		fmt.Fprintf(stdout, "ERROR: %s\n", res.Message)
		return probe.ExitError
	}

	log.Debug().Str("outcome", res.Outcome.String()).Msg("sample taken")
	fmt.Fprintln(stdout, res.Message)
	return probe.ExitCode(res.Outcome)
}

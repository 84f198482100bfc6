package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/user/mira-client/internal/client"
	"github.com/user/mira-client/internal/config"
	"github.com/user/mira-client/internal/metrics"
	"github.com/user/mira-client/internal/monitor"
	"github.com/user/mira-client/internal/observer"
	"github.com/user/mira-client/internal/runner"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logging
	setupLogging(cfg.LogLevel)

	if err := run(cfg); err != nil {
		log.Error().Err(err).Msg("Runtime error")
		os.Exit(1)
	}

	log.Info().Msg("Mira client stopped")
}

func run(cfg *config.Config) error {
	log.Info().
		Str("server_url", cfg.ServerURL).
		Str("client_id", cfg.ClientID).
		Str("version", client.Version).
		Msg("Starting Mira client")

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	srv := client.New(cfg.ServerURL, cfg.ClientID, time.Duration(cfg.HTTPTimeoutSeconds)*time.Second)

	obs := observer.New(
		time.Duration(cfg.SilenceThresholdMS)*time.Millisecond,
		cfg.VADAggressiveness,
		m,
	)

	loop := runner.New(srv, obs, m)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A version mismatch or unreachable server is fatal before any audio
	// work starts.
	if err := srv.Register(ctx); err != nil {
		return err
	}

	// Best-effort teardown mirrors registration: disable, then deregister.
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Disable(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Error disabling Mira")
		}
		if err := srv.Deregister(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Error disconnecting from server")
		}
	}()

	if err := srv.Enable(ctx); err != nil {
		log.Error().Err(err).Msg("Error enabling Mira")
	}

	// Ctrl+C triggers an orderly shutdown through context cancellation.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		sig := <-sigCh
		log.Info().Str("signal", sig.String()).Msg("Mira interrupted")
		cancel()
	}()

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return loop.Run(groupCtx)
	})

	if cfg.MonitorEnabled {
		mon := monitor.NewServer(cfg.MonitorAddr, loop, registry)
		group.Go(func() error {
			return mon.Run(groupCtx)
		})
	}

	return group.Wait()
}

func setupLogging(level string) {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

package monitor

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/user/mira-client/internal/runner"
)

// Server exposes local health and Prometheus metrics endpoints.
type Server struct {
	server    *http.Server
	runner    *runner.Runner
	startTime time.Time
}

func NewServer(addr string, r *runner.Runner, gatherer prometheus.Gatherer) *Server {
	s := &Server{
		runner:    r,
		startTime: time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	s.server = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		log.Info().Str("addr", s.server.Addr).Msg("Monitoring server listening")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("Monitoring server shutdown failed")
		}
		return <-errCh
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := struct {
		Status   string  `json:"status"`
		Uptime   float64 `json:"uptime_seconds"`
		Observer string  `json:"observer"`
	}{
		Status: "healthy",
		Uptime: time.Since(s.startTime).Seconds(),
	}

	switch s.runner.CurrentState() {
	case runner.StateRunning:
		health.Observer = "running"
	default:
		health.Observer = "disabled"
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(health); err != nil {
		log.Warn().Err(err).Msg("Failed to encode health response")
	}
}

// Package api provides the HTTP server for MoodLens.
//
// It exposes JSON endpoints for creating users, submitting check-ins, reading
// trends and stored assessments, and calling the assessment engine directly.
// Run wires the store, the check-in service and the crisis alert dispatcher.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BTreeMap/MoodLens/internal/checkin"
	"github.com/BTreeMap/MoodLens/internal/notify"
	"github.com/BTreeMap/MoodLens/internal/store"
	"github.com/BTreeMap/MoodLens/internal/telemetry"
)

// Default configuration constants
const (
	// DefaultAddr is the default listen address
	DefaultAddr = ":8080"
	// DefaultAlertPollInterval is how often queued crisis alerts are checked
	DefaultAlertPollInterval = 5 * time.Second
	// shutdownTimeout bounds graceful HTTP shutdown
	shutdownTimeout = 10 * time.Second
)

// Opts holds configuration options for the API server.
type Opts struct {
	Addr              string
	CrisisAlerts      bool
	AlertPollInterval time.Duration
	OTelEndpoint      string
}

// Option defines a configuration option for the API server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// WithCrisisAlerts enables or disables crisis alert queuing and delivery.
func WithCrisisAlerts(enabled bool) Option {
	return func(o *Opts) { o.CrisisAlerts = enabled }
}

// WithAlertPollInterval sets how often the dispatcher polls the alert outbox.
func WithAlertPollInterval(d time.Duration) Option {
	return func(o *Opts) { o.AlertPollInterval = d }
}

// WithOTelEndpoint exports traces to an OTLP/HTTP collector. Empty disables tracing.
func WithOTelEndpoint(endpoint string) Option {
	return func(o *Opts) { o.OTelEndpoint = endpoint }
}

// Server routes HTTP requests to the check-in service.
type Server struct {
	svc *checkin.Service
	mux *http.ServeMux
}

// NewServer creates a Server and registers its routes.
func NewServer(svc *checkin.Service) *Server {
	s := &Server{svc: svc, mux: http.NewServeMux()}
	s.mux.HandleFunc("/health", s.healthHandler)
	s.mux.HandleFunc("/emotions", s.emotionsHandler)
	s.mux.HandleFunc("/resources", s.resourcesHandler)
	s.mux.HandleFunc("/users", s.createUserHandler)
	s.mux.HandleFunc("/users/{id}/checkins", s.checkInHandler)
	s.mux.HandleFunc("/users/{id}/trend", s.trendHandler)
	s.mux.HandleFunc("/users/{id}/assessments", s.assessmentsHandler)
	s.mux.HandleFunc("/assess", s.assessHandler)
	s.mux.HandleFunc("/schemas", s.schemaIndexHandler)
	s.mux.HandleFunc("/schemas/{name}", s.schemaHandler)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.ServeHTTP: request", "method", r.Method, "path", r.URL.Path)
	s.mux.ServeHTTP(w, r)
}

// Run opens the store, starts the alert dispatcher and serves HTTP until
// SIGINT or SIGTERM.
func Run(storeOpts []store.Option, notifyOpts []notify.Option, apiOpts []Option) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return serve(ctx, storeOpts, notifyOpts, apiOpts)
}

func serve(ctx context.Context, storeOpts []store.Option, notifyOpts []notify.Option, apiOpts []Option) error {
	cfg := Opts{Addr: DefaultAddr, CrisisAlerts: true, AlertPollInterval: DefaultAlertPollInterval}
	for _, opt := range apiOpts {
		opt(&cfg)
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}

	shutdownTracing, err := telemetry.Setup(ctx, cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			slog.Error("Run: failed to flush traces", "error", err)
		}
	}()

	st, err := store.New(storeOpts...)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			slog.Error("Run: failed to close store", "error", err)
		}
	}()

	svc := checkin.NewService(st, checkin.WithCrisisAlerts(cfg.CrisisAlerts))

	dispatchCtx, cancelDispatch := context.WithCancel(ctx)
	defer cancelDispatch()
	if cfg.CrisisAlerts {
		startDispatcher(dispatchCtx, st, notifyOpts, cfg.AlertPollInterval)
	} else {
		slog.Warn("Run: crisis alerts disabled")
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewServer(svc),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("MoodLens API listening", "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
		slog.Info("Run: shutdown signal received")
	}

	cancelDispatch()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	slog.Info("Run: server stopped")
	return nil
}

// startDispatcher delivers queued alerts through Twilio. Without Twilio
// credentials alerts stay queued until a configured instance picks them up.
func startDispatcher(ctx context.Context, repo store.AlertRepo, notifyOpts []notify.Option, interval time.Duration) {
	notifier, err := notify.NewTwilioNotifier(notifyOpts...)
	if err != nil {
		slog.Warn("Run: Twilio not configured, crisis alerts will remain queued", "error", err)
		return
	}
	d := notify.NewDispatcher(repo, notifier, interval)
	if err := d.RecoverStaleAlerts(); err != nil {
		slog.Error("Run: failed to recover stale alerts", "error", err)
	}
	go d.Run(ctx)
}

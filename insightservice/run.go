// Package insightservice boots the HTTP server: configuration, dependencies,
// health gating, and graceful shutdown.
package insightservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/mindloom/mindloom/server/internal/api"
	"github.com/mindloom/mindloom/server/internal/auth"
	"github.com/mindloom/mindloom/server/internal/config"
	"github.com/mindloom/mindloom/server/internal/events"
	"github.com/mindloom/mindloom/server/internal/factory"
	"github.com/mindloom/mindloom/server/internal/health"
	"github.com/mindloom/mindloom/server/internal/logger"
	"github.com/mindloom/mindloom/server/internal/narrative"
	"github.com/mindloom/mindloom/server/internal/store"
)

// Run starts the insight service HTTP server and blocks until shutdown or error.
func Run() error {
	log := logger.New("insight-service")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}

	log.Info().
		Str("build_target", cfg.BuildTarget).
		Str("db_driver", cfg.DBDriver).
		Int("http_port", cfg.HTTPPort).
		Str("auth_mode", cfg.AuthMode).
		Msg("Insight service starting")

	// Create cancellable root context bound to SIGINT/SIGTERM
	ctx, stop := newServerContext()
	defer stop()

	st, authorizer, narrativeClient, err := initDependencies(ctx, cfg, log)
	if err != nil {
		return err
	}

	bus := events.NewBus(cfg.EventBufferSize)
	router := buildRouter(st, authorizer, narrativeClient, bus, cfg, log)

	// Start health checkers and bind service health
	svcHealth := startHealthCheckers(ctx, cfg, log, st)

	// Block startup until dependencies report healthy; fail fast otherwise
	if err := waitUntilHealthy(ctx, cfg, svcHealth); err != nil {
		log.Error().Stack().Err(err).Msg("startup health check failed")
		return err
	}

	server := newHTTPServer(ctx, cfg, router)
	errCh := serveHTTP(server, log, cfg)

	// Graceful shutdown on context cancel or server error
	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Stack().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Stack().Err(err).Msg("HTTP server failed")
		return err
	}
}

// initDependencies constructs required components and enforces fail-fast on missing deps.
func initDependencies(ctx context.Context, cfg *config.Config, log zerolog.Logger) (store.Store, auth.Authorizer, narrative.Client, error) {
	st, err := factory.NewStore(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Store adapter unavailable")
		return nil, nil, nil, err
	}

	authorizer, err := factory.NewAuthorizer(cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Authorizer unavailable")
		return nil, nil, nil, err
	}

	narrativeClient, err := factory.NewNarrativeClient(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Narrative client unavailable")
		return nil, nil, nil, err
	}
	return st, authorizer, narrativeClient, nil
}

func buildRouter(st store.Store, authorizer auth.Authorizer, narrativeClient narrative.Client, bus *events.Bus, cfg *config.Config, log zerolog.Logger) *mux.Router {
	return api.NewRouter(api.RouterConfig{
		Store:               st,
		Authorizer:          authorizer,
		Bus:                 bus,
		NarrativeClient:     narrativeClient,
		GenerationTimeout:   time.Duration(cfg.GenerationTimeoutSeconds) * time.Second,
		DefaultInsightLimit: cfg.DefaultInsightListLimit,
		Log:                 log,
	})
}

// startHealthCheckers starts component checkers and the service-level aggregator.
func startHealthCheckers(ctx context.Context, cfg *config.Config, log zerolog.Logger, st store.Store) *health.ServiceHealthChecker {
	probeTimeout := time.Duration(cfg.HealthProbeTimeoutSeconds) * time.Second
	interval := time.Duration(cfg.HealthIntervalSeconds) * time.Second

	storeChecker := store.NewStoreHealthChecker(st, log, probeTimeout)
	go storeChecker.Start(ctx, interval)

	svcHealth := health.NewServiceHealthChecker(log, storeChecker)
	go svcHealth.Start(ctx, interval)
	api.BindServiceHealth(svcHealth.IsHealthy)
	return svcHealth
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		// Write timeout would cut long-lived SSE streams; idle and read
		// timeouts still bound misbehaving clients.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}
}

func serveHTTP(server *http.Server, log zerolog.Logger, cfg *config.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

// calculateStartupHealthTimeout returns the startup health timeout in seconds,
// calculated as interval*2 with a minimum of 60 seconds.
func calculateStartupHealthTimeout(healthIntervalSeconds int) int {
	timeout := healthIntervalSeconds * 2
	if timeout < 60 {
		return 60
	}
	return timeout
}

// waitUntilHealthy blocks until service health is healthy or the startup window expires.
func waitUntilHealthy(ctx context.Context, cfg *config.Config, svcHealth *health.ServiceHealthChecker) error {
	// Health checkers start as unhealthy and need time to run their first probe.
	timeoutSeconds := calculateStartupHealthTimeout(cfg.HealthIntervalSeconds)
	deadline := time.Now().Add(time.Duration(timeoutSeconds) * time.Second)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		if svcHealth.IsHealthy() {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("startup aborted: dependencies not healthy within %d seconds", timeoutSeconds)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// newServerContext returns a cancellable context that is cancelled on SIGINT/SIGTERM.
func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

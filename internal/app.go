package internal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"streakd/internal/controllers"
	"streakd/internal/persistence/interfaces"
	"streakd/internal/providers"
	"streakd/internal/structures"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	WebServer *http.Server
}

// newHandler mounts /health and /metrics bare and every API route behind the
// request id and metrics middlewares.
func newHandler(healthController *controllers.HealthController, router providers.RouterProviderInterface, metrics providers.MetricsProviderInterface, conf *structures.Config) http.Handler {
	api := http.NewServeMux()
	for _, route := range router.GetRoutes() {
		api.Handle(route.Url, route.Handler)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthController.Health)
	if conf.Metrics.Enabled {
		mux.Handle("/metrics", promhttp.Handler())
	}
	mux.Handle("/", providers.RequestIDMiddleware(providers.MetricsMiddleware(metrics, api)))
	return mux
}

// NewApp restores persisted profiles, serves until SIGINT/SIGTERM or a
// listener failure, then stops the sweep and flushes every engine.
func NewApp(healthController *controllers.HealthController, scheduler interfaces.SchedulerInterface, conf *structures.Config, logger providers.Logger, router providers.RouterProviderInterface, metrics providers.MetricsProviderInterface) (*App, error) {
	logger.Infof(providers.TypeApp, "Starting %s", conf.AppName)
	if err := scheduler.Restore(); err != nil {
		logger.Errorf(providers.TypeApp, "Restore error: %s", err)
	}

	addr := conf.WebServer.Host + ":" + strconv.Itoa(conf.WebServer.Port)
	app := &App{
		WebServer: &http.Server{
			Addr:         addr,
			Handler:      newHandler(healthController, router, metrics, conf),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}

	scheduler.Init()

	serverErr := make(chan error, 1)
	go func() {
		logger.Infof(providers.TypeApp, "Listening HTTP clients on %s", addr)
		if err := app.WebServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case sig := <-stop:
		logger.Infof(providers.TypeApp, "Shutdown signal received: %s", sig)
	case err := <-serverErr:
		scheduler.Stop()
		_ = scheduler.Persist()
		return nil, fmt.Errorf("server error: %w", err)
	}

	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.WebServer.Shutdown(ctx); err != nil {
		_ = scheduler.Persist()
		return nil, fmt.Errorf("shutdown: %w", err)
	}

	// Engines are flushed after in-flight requests have drained.
	if err := scheduler.Persist(); err != nil {
		return nil, err
	}
	logger.Infof(providers.TypeApp, "gracefully stopped")
	return app, nil
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/okian/redzone/internal/adapters/actuator"
	"github.com/okian/redzone/internal/adapters/channels"
	"github.com/okian/redzone/internal/adapters/http/api"
	"github.com/okian/redzone/internal/adapters/http/swagger"
	"github.com/okian/redzone/internal/adapters/http/ws"
	"github.com/okian/redzone/internal/adapters/provider"
	"github.com/okian/redzone/internal/adapters/provider/espn"
	"github.com/okian/redzone/internal/adapters/provider/fixture"
	"github.com/okian/redzone/internal/adapters/repository"
	app "github.com/okian/redzone/internal/app"
	"github.com/okian/redzone/internal/config"
	"github.com/okian/redzone/pkg/logger"
	"github.com/okian/redzone/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout           = 10 * time.Second
	writeMargin           = 10 * time.Second
	idleTimeout           = 60 * time.Second
	readHeaderTimeout     = 5 * time.Second
	shutdownTimeout       = 30 * time.Second
	systemMetricsInterval = 10 * time.Second
	defaultTenant         = "default"
)

func main() {
	// The custom registry carries our own process metrics.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run() error {
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// defaults -> optional file -> env
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	prov, err := newProvider(cfg)
	if err != nil {
		return err
	}

	chans := channels.New()
	if cfg.ChannelsFile != "" {
		if chans, err = channels.Load(cfg.ChannelsFile); err != nil {
			return err
		}
		go func() {
			if err := chans.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Warn(ctx, "channel map watch stopped", logger.Error(err))
			}
		}()
	}

	var journal repository.Store = repository.NewMemStore()
	if cfg.JournalPath != "" {
		if journal, err = repository.OpenSQLite(ctx, cfg.JournalPath); err != nil {
			return err
		}
	}

	var act actuator.Actuator = actuator.NewLog()
	if cfg.ActuatorURL != "" {
		act = actuator.NewHTTP(cfg.ActuatorURL, actuator.WithToken(cfg.ActuatorToken))
	} else {
		log.Warn(ctx, "no actuator_url configured; switching in dry-run mode")
	}

	opts := []app.Option{
		app.WithLogger(log.Named("service")),
		app.WithLeague(cfg.League),
		app.WithPollInterval(cfg.PollInterval),
		app.WithProviderTimeout(cfg.ProviderTimeout),
		app.WithWorkerCount(cfg.FetchWorkers),
		app.WithQueueSize(cfg.FetchQueueSize),
		app.WithDebounceWindows(cfg.TimeoutWindow, cfg.ScoreChangeWindow),
		app.WithHysteresisBonus(cfg.HysteresisBonus),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithStatusLogSize(cfg.StatusLogSize),
		app.WithChannels(chans),
		app.WithJournal(journal),
	}
	var stream api.Stream
	if cfg.WSEnabled {
		hub := ws.New()
		defer hub.Close()
		opts = append(opts, app.WithPublisher(hub))
		stream = hub
	}

	svc := app.New(prov, act, opts...)
	if err := svc.Start(ctx); err != nil {
		return err
	}

	if cfg.Autostart {
		if _, err := svc.CreateTenant(ctx, defaultTenant, cfg.League); err != nil {
			return err
		}
		if err := svc.StartMonitoring(ctx, defaultTenant); err != nil {
			return err
		}
	}

	go startSystemMetricsUpdater(ctx)

	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc, stream).Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeoutFor(cfg),
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err = <-errCh:
		log.Error(ctx, "HTTP server failed", logger.Error(err))
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if serr := srv.Shutdown(shutdownCtx); serr != nil {
		log.Error(shutdownCtx, "server shutdown failed", logger.Error(serr))
	}
	svc.Stop(shutdownCtx)

	log.Info(shutdownCtx, "server stopped")
	return err
}

// refreshProviderCalls is the worst case of provider timeouts one refresh can
// wait through: the live list, then the snapshot fan-out bounded at twice the
// provider timeout.
const refreshProviderCalls = 3

// writeTimeoutFor keeps a synchronous refresh inside the server write timeout.
func writeTimeoutFor(cfg *config.Config) time.Duration {
	return refreshProviderCalls*cfg.ProviderTimeout + writeMargin
}

// newProvider returns the fixture replay when configured, else ESPN.
func newProvider(cfg *config.Config) (provider.Provider, error) {
	if cfg.FixtureFile != "" {
		p, err := fixture.Load(cfg.FixtureFile)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	return espn.New(
		espn.WithBaseURL(cfg.ProviderBaseURL),
		espn.WithTimeout(cfg.ProviderTimeout),
		espn.WithCacheTTL(cfg.ScoreboardCacheTTL),
		espn.WithLeague(cfg.League),
	), nil
}

// startSystemMetricsUpdater updates process metrics until ctx ends.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
}

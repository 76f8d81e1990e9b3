package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/okian/podium/internal/adapters/http/api"
	"github.com/okian/podium/internal/adapters/http/swagger"
	"github.com/okian/podium/internal/adapters/ingest"
	app "github.com/okian/podium/internal/app"
	"github.com/okian/podium/internal/config"
	"github.com/okian/podium/internal/domain/dedupe"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/rollup"
	"github.com/okian/podium/internal/domain/session"
	"github.com/okian/podium/pkg/logger"
	"github.com/okian/podium/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 30 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	systemMetricsInterval  = 10 * time.Second
	serviceMetricsInterval = 5 * time.Second
	watchDebounce          = 500 * time.Millisecond
)

func main() {
	// Our own system metrics replace the default Go collectors.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		// Logger isn't configured yet.
		_, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithLevel(cfg.LogLevel)); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "podium stopped with error", logger.Error(err))
		os.Exit(1)
	}
}

// run serves the dashboard API until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config) error {
	log := logger.Get()

	svc, err := buildService(ctx, cfg)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer svc.Stop()

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	var changes <-chan struct{}
	if cfg.WatchData {
		if changes, err = ingest.Changes(watchCtx, cfg.DataPath, watchDebounce); err != nil {
			return fmt.Errorf("watch dataset: %w", err)
		}
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info(gctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info(gctx, "shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		log.Info(shutdownCtx, "server stopped")
		return nil
	})

	g.Go(func() error {
		every(gctx, systemMetricsInterval, metrics.UpdateSystemMetrics)
		return nil
	})

	g.Go(func() error {
		every(gctx, serviceMetricsInterval, func() { _ = svc.GetStats() })
		return nil
	})

	g.Go(func() error {
		reloadOnChange(gctx, cfg, svc, changes)
		return nil
	})

	return g.Wait()
}

// buildService loads the dataset and configures the service from cfg.
func buildService(ctx context.Context, cfg *config.Config) (*app.Service, error) {
	log := logger.Get()

	rows, err := loadRows(ctx, cfg)
	if err != nil {
		return nil, err
	}

	chron, err := rollup.NewChronology(cfg.EventDates)
	if err != nil {
		return nil, fmt.Errorf("event dates: %w", err)
	}
	mode, _ := session.ParseMode(cfg.ProjectionMode)
	heatmapMode, _ := rollup.ParseHeatmapMode(cfg.HeatmapMode)

	return app.New(
		app.WithLogger(log.Named("service")),
		app.WithRows(rows),
		app.WithQueueSize(cfg.QueueSize),
		app.WithMaxSessions(cfg.MaxSessions),
		app.WithIntentRate(cfg.IntentRate, cfg.IntentBurst),
		app.WithDeduper(dedupe.NewRing(dedupe.WithMaxSize(cfg.DedupeSize))),
		app.WithIntentTimeout(time.Duration(cfg.IntentTimeoutMS)*time.Millisecond),
		app.WithSessionOptions(
			session.WithColumns(cfg.PCAColumns),
			session.WithBrushMinRows(cfg.BrushMinRows),
			session.WithMode(mode),
			session.WithHeatmapMode(heatmapMode),
			session.WithChronology(chron),
		),
	), nil
}

func loadRows(ctx context.Context, cfg *config.Config) ([]model.Row, error) {
	loader := ingest.NewLoader(ingest.WithLogger(logger.Get().Named("ingest")))
	res, err := loader.LoadFile(ctx, cfg.DataPath)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	metrics.RecordRowsDropped(res.Dropped)
	return res.Rows, nil
}

// newMux registers the docs and API routes.
func newMux(ctx context.Context, svc *app.Service) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc).Register(ctx, mux)
	return mux
}

// reloadOnChange re-reads the dataset on SIGHUP or when changes fires and
// rebuilds every session. A nil changes channel only listens for SIGHUP.
func reloadOnChange(ctx context.Context, cfg *config.Config, svc *app.Service, changes <-chan struct{}) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	log := logger.Get()
	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
		case <-changes:
		}
		rows, err := loadRows(ctx, cfg)
		if err == nil {
			err = svc.Reload(ctx, rows)
		}
		if err != nil {
			metrics.RecordErrorByComponent("reload", "failed")
			log.Error(ctx, "dataset reload failed", logger.Error(err))
		}
	}
}

// every calls fn on each tick until ctx is done.
func every(ctx context.Context, interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

// Command fetchrates runs one complete fetch: every provider for every
// tracked currency, then writes rates.json and README.md.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ikaadil/any-currency-to-bdt/internal/browser"
	"github.com/ikaadil/any-currency-to-bdt/internal/cache"
	"github.com/ikaadil/any-currency-to-bdt/internal/config"
	"github.com/ikaadil/any-currency-to-bdt/internal/db"
	"github.com/ikaadil/any-currency-to-bdt/internal/logger"
	"github.com/ikaadil/any-currency-to-bdt/internal/metrics"
	"github.com/ikaadil/any-currency-to-bdt/internal/provider"
	"github.com/ikaadil/any-currency-to-bdt/internal/publisher"
	"github.com/ikaadil/any-currency-to-bdt/internal/service"
	"github.com/ikaadil/any-currency-to-bdt/internal/snapshot"
	"github.com/ikaadil/any-currency-to-bdt/pkg/tracing"
)

const serviceName = "any-currency-to-bdt-fetch"

var (
	loadConfigFunc   = config.Load
	initLoggerFunc   = logger.Initialize
	initTracerFunc   = tracing.InitTracer
	newPoolFunc      = browser.NewPool
	newStealthFunc   = browser.NewStealthFetcher
	registryFunc     = provider.Registry
	connectRedisFunc = cache.Connect
	initPostgresFunc = db.InitPostgres
	newKafkaFunc     = func(brokers []string, topic string) snapshot.Sink {
		return publisher.NewKafkaPublisher(brokers, topic)
	}
	stdout io.Writer = os.Stdout
)

func main() {
	cfg := loadConfigFunc()
	if err := initLoggerFunc(cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Log.Fatalw("fetch run failed", "error", err)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	tp, tracer, err := initTracerFunc(ctx, tracing.Options{
		Enabled:     cfg.TracingEnabled,
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: serviceName,
	})
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Log.Warnw("tracer shutdown failed", "error", err)
		}
	}()

	m := metrics.New()
	deps := provider.Deps{
		Tracer:     tracer,
		HTTPClient: provider.NewHTTPClient(cfg.HTTPTimeout),
	}
	opts := []service.Option{
		service.WithMetrics(m),
		service.WithTaskTimeout(cfg.TaskTimeout),
		service.WithDiagnostics(stdout),
	}
	if cfg.BrowserEnabled {
		pool := newPoolFunc(browser.Options{
			MaxPages: cfg.BrowserMaxPages,
			Headless: true,
			ExecPath: cfg.ChromePath,
		})
		deps.Pages = pool
		deps.Stealth = newStealthFunc(browser.StealthOptions{ExecPath: cfg.ChromePath})
		opts = append(opts, service.WithBrowser(pool))
	} else {
		logger.Log.Warn("browser disabled, browser-backed providers will report no data")
	}

	providers := registryFunc(deps)
	svc := service.NewRateService(tracer, providers, opts...)

	start := time.Now()
	snap, err := svc.FetchAll(ctx)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	writer := snapshot.NewFileWriter(cfg.OutputDir, cfg.JSONFile, cfg.ReportFile, provider.Names(providers))
	optional, cleanup := optionalSinks(ctx, cfg, tracer)
	defer cleanup()

	if err := snapshot.NewFanout(tracer, writer, optional...).Save(ctx, snap); err != nil {
		return err
	}
	logger.Log.Infow("snapshot written", "path", filepath.Join(cfg.OutputDir, cfg.JSONFile))

	if err := m.Push(ctx, cfg.PushgatewayURL, "fetchrates"); err != nil {
		logger.Log.Warnw("pushgateway push failed", "error", err)
	}

	fmt.Fprintf(stdout, "\n✅ %d rates fetched in %.1fs\n", snap.Count(), elapsed.Seconds())
	return nil
}

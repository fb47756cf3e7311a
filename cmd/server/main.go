// Command server exposes the latest snapshot over HTTP and, when a token is
// configured, through a Telegram bot.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/ikaadil/any-currency-to-bdt/internal/bot"
	"github.com/ikaadil/any-currency-to-bdt/internal/cache"
	"github.com/ikaadil/any-currency-to-bdt/internal/config"
	"github.com/ikaadil/any-currency-to-bdt/internal/db"
	"github.com/ikaadil/any-currency-to-bdt/internal/handler"
	"github.com/ikaadil/any-currency-to-bdt/internal/logger"
	"github.com/ikaadil/any-currency-to-bdt/internal/metrics"
	"github.com/ikaadil/any-currency-to-bdt/internal/repository"
	"github.com/ikaadil/any-currency-to-bdt/internal/service"
	"github.com/ikaadil/any-currency-to-bdt/pkg/tracing"

	_ "github.com/ikaadil/any-currency-to-bdt/docs"
)

const serviceName = "any-currency-to-bdt"

var (
	loadConfigFunc         = config.Load
	initLoggerFunc         = logger.Initialize
	initTracerFunc         = tracing.InitTracer
	connectRedisFunc       = cache.Connect
	initPostgresFunc       = db.InitPostgres
	startBotFunc           = func(ctx context.Context, b *bot.Bot, token string) error { return b.Start(ctx, token) }
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           Any Currency to BDT API
// @version         1.0
// @description     Latest remittance rates into Bangladeshi Taka, ranked per source currency.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey  ApiKeyAuth
// @in                          header
// @name                        X-API-Key
func main() {
	cfg := loadConfigFunc()
	if err := initLoggerFunc(cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, tracer, err := initTracerFunc(ctx, tracing.Options{
		Enabled:     cfg.TracingEnabled,
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: serviceName,
	})
	if err != nil {
		logger.Log.Fatalw("failed to initialize tracer", "error", err)
	}
	defer func() {
		if err := tp.Shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Log.Warnw("error shutting down tracer provider", "error", err)
		}
	}()

	var source service.SnapshotSource
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = connectRedisFunc(ctx, cfg.RedisURL)
		if err != nil {
			logger.Log.Warnw("redis unavailable, serving from file", "error", err)
		} else {
			source = cache.NewSnapshotStore(redisClient)
			defer redisClient.Close()
		}
	}

	var history handler.HistoryReader
	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		pool, err = initPostgresFunc(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Log.Warnw("postgres unavailable, history endpoint disabled", "error", err)
		} else {
			history = repository.NewSnapshotRepository(pool, tracer)
			defer db.Close(pool)
		}
	}

	reader := service.NewSnapshotReader(tracer, source, filepath.Join(cfg.OutputDir, cfg.JSONFile))
	m := metrics.New()

	if err := startBotFunc(ctx, bot.New(reader), cfg.TelegramBotToken); err != nil {
		logger.Log.Warnw("telegram bot disabled", "error", err)
	}

	r := newRouterFunc()
	r.Use(otelgin.Middleware(serviceName))
	r.Use(snapshotAge(reader, m))

	handler.New(tracer, reader, history).RegisterRoutes(r, cfg.APIKey)
	r.GET("/metrics", gin.WrapH(m.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatalw("listen failed", "error", err)
		}
	}()
	logger.Log.Infow("server listening", "addr", srv.Addr)

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	logger.Log.Info("shutting down server")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		logger.Log.Errorw("server forced to shutdown", "error", err)
		return
	}
	logger.Log.Info("server exiting")
}

// snapshotAge refreshes the snapshot-age gauge before each scrape.
func snapshotAge(reader *service.SnapshotReader, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			if snap, err := reader.Latest(c.Request.Context()); err == nil {
				m.RecordSnapshotAge(snap.UpdatedAt)
			}
		}
		c.Next()
	}
}

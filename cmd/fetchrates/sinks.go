package main

import (
	"context"
	"io"

	"go.opentelemetry.io/otel/trace"

	"github.com/ikaadil/any-currency-to-bdt/internal/cache"
	"github.com/ikaadil/any-currency-to-bdt/internal/config"
	"github.com/ikaadil/any-currency-to-bdt/internal/db"
	"github.com/ikaadil/any-currency-to-bdt/internal/logger"
	"github.com/ikaadil/any-currency-to-bdt/internal/repository"
	"github.com/ikaadil/any-currency-to-bdt/internal/snapshot"
)

// optionalSinks connects whatever downstream stores are configured. A store
// that cannot be reached is skipped with a warning.
func optionalSinks(ctx context.Context, cfg *config.Config, tracer trace.Tracer) ([]snapshot.Sink, func()) {
	var sinks []snapshot.Sink
	var closers []func()

	if cfg.RedisURL != "" {
		client, err := connectRedisFunc(ctx, cfg.RedisURL)
		if err != nil {
			logger.Log.Warnw("redis sink disabled", "error", err)
		} else {
			sinks = append(sinks, cache.NewSnapshotStore(client))
			closers = append(closers, func() { _ = client.Close() })
		}
	}

	if cfg.DatabaseURL != "" {
		pool, err := initPostgresFunc(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Log.Warnw("postgres sink disabled", "error", err)
		} else {
			sinks = append(sinks, repository.NewSnapshotRepository(pool, tracer))
			closers = append(closers, func() { db.Close(pool) })
		}
	}

	if len(cfg.KafkaBrokers) > 0 {
		k := newKafkaFunc(cfg.KafkaBrokers, cfg.KafkaTopic)
		sinks = append(sinks, k)
		if c, ok := k.(io.Closer); ok {
			closers = append(closers, func() { _ = c.Close() })
		}
	}

	return sinks, func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
}

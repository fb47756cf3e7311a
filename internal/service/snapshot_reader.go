package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.opentelemetry.io/otel/trace"

	"github.com/ikaadil/any-currency-to-bdt/internal/domain"
	"github.com/ikaadil/any-currency-to-bdt/internal/logger"
)

// SnapshotSource is a fast store holding the latest snapshot, usually Redis.
// A nil snapshot with a nil error is a miss.
type SnapshotSource interface {
	Latest(ctx context.Context) (*domain.Snapshot, error)
}

var readFile = os.ReadFile

// SnapshotReader serves the latest snapshot to the API and bot.
type SnapshotReader struct {
	tracer trace.Tracer
	cache  SnapshotSource
	path   string
}

// NewSnapshotReader reads from cache first and falls back to the rates.json
// at path. cache may be nil.
func NewSnapshotReader(tracer trace.Tracer, cache SnapshotSource, path string) *SnapshotReader {
	return &SnapshotReader{tracer: tracer, cache: cache, path: path}
}

func (r *SnapshotReader) Latest(ctx context.Context) (*domain.Snapshot, error) {
	ctx, span := r.tracer.Start(ctx, "snapshot-reader.latest")
	defer span.End()

	if r.cache != nil {
		snap, err := r.cache.Latest(ctx)
		if err != nil {
			logger.Log.Warnw("snapshot cache read failed", "error", err)
		}
		if snap != nil {
			return snap, nil
		}
	}

	data, err := readFile(r.path)
	if err != nil {
		recordError(span, err)
		return nil, fmt.Errorf("read snapshot file: %w", err)
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		recordError(span, err)
		return nil, fmt.Errorf("decode %s: %w", r.path, err)
	}
	return &snap, nil
}

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ikaadil/any-currency-to-bdt/internal/domain"
)

const (
	LatestKey = "bdt-rates:latest"
	// Runs are hourly; a snapshot older than this is not served from cache.
	defaultTTL = 2 * time.Hour
)

type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// SnapshotStore keeps the latest snapshot in Redis for the API and bot.
type SnapshotStore struct {
	client RedisClient
	key    string
	ttl    time.Duration
}

func NewSnapshotStore(client RedisClient) *SnapshotStore {
	return &SnapshotStore{client: client, key: LatestKey, ttl: defaultTTL}
}

func (s *SnapshotStore) Name() string { return "redis" }

func (s *SnapshotStore) Save(ctx context.Context, snap *domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return s.client.Set(ctx, s.key, data, s.ttl).Err()
}

// Latest returns nil, nil when nothing is cached.
func (s *SnapshotStore) Latest(ctx context.Context) (*domain.Snapshot, error) {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode cached snapshot: %w", err)
	}
	return &snap, nil
}

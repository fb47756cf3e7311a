package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ikaadil/any-currency-to-bdt/internal/domain"
)

type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// HistoryPoint is the best rate for one currency at one run.
type HistoryPoint struct {
	UpdatedAt time.Time `json:"updated_at"`
	Provider  string    `json:"provider"`
	Rate      float64   `json:"rate"`
}

// SnapshotRepository appends every run to Postgres so rate movements can be
// charted. rates.json stays the contract; this is history only.
type SnapshotRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewSnapshotRepository(pool PgxPool, tracer trace.Tracer) *SnapshotRepository {
	return &SnapshotRepository{pool: pool, tracer: tracer}
}

func (r *SnapshotRepository) Name() string { return "postgres" }

// Save stores snap and its records in one transaction. A snapshot already
// stored for the same timestamp is skipped.
func (r *SnapshotRepository) Save(ctx context.Context, snap *domain.Snapshot) error {
	ctx, span := r.tracer.Start(ctx, "snapshot-repo.save")
	defer span.End()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var id int64
	err = tx.QueryRow(ctx,
		`INSERT INTO rate_snapshots (updated_at, target, total)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (updated_at) DO NOTHING
		 RETURNING id`,
		snap.UpdatedAt, snap.Target, snap.Count(),
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	batch := &pgx.Batch{}
	for _, c := range domain.Currencies {
		for i, rate := range snap.Rates[c.Code] {
			var fee *decimal.Decimal
			if rate.Fee != nil {
				d := decimal.NewFromFloat(*rate.Fee)
				fee = &d
			}
			batch.Queue(
				`INSERT INTO rate_records (snapshot_id, currency, rank, provider, url, rate, delivery, fee)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				id, c.Code, i+1, rate.Provider, rate.URL, decimal.NewFromFloat(rate.Rate), rate.Delivery, fee,
			)
		}
	}
	span.SetAttributes(attribute.Int("records", batch.Len()))

	if batch.Len() > 0 {
		if err := sendRecords(ctx, tx, batch); err != nil {
			return err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// sendRecords runs batch and closes its results before the transaction moves on.
func sendRecords(ctx context.Context, tx pgx.Tx, batch *pgx.Batch) error {
	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("insert rate record: %w", err)
		}
	}
	return br.Close()
}

// BestHistory returns the top-ranked record per run for code, newest first.
func (r *SnapshotRepository) BestHistory(ctx context.Context, code string, limit int) ([]HistoryPoint, error) {
	ctx, span := r.tracer.Start(ctx, "snapshot-repo.best-history")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT s.updated_at, r.provider, r.rate
		 FROM rate_records r
		 JOIN rate_snapshots s ON s.id = r.snapshot_id
		 WHERE r.currency = $1 AND r.rank = 1
		 ORDER BY s.updated_at DESC
		 LIMIT $2`,
		code, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []HistoryPoint
	for rows.Next() {
		var p HistoryPoint
		var rate decimal.Decimal
		if err := rows.Scan(&p.UpdatedAt, &p.Provider, &rate); err != nil {
			return nil, err
		}
		p.Rate = rate.InexactFloat64()
		points = append(points, p)
	}
	return points, rows.Err()
}

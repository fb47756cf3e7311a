package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"

	"github.com/ikaadil/any-currency-to-bdt/internal/config"
	"github.com/ikaadil/any-currency-to-bdt/internal/domain"
	"github.com/ikaadil/any-currency-to-bdt/internal/provider"
	"github.com/ikaadil/any-currency-to-bdt/internal/snapshot"
)

type stubProvider struct {
	name  string
	kind  provider.Kind
	rates map[string]float64
}

func (s stubProvider) Info() provider.Info {
	return provider.Info{Name: s.name, URL: "https://" + s.name + ".test", Delivery: "Bank", Kind: s.kind}
}

func (s stubProvider) DisplayURL(string) string { return "https://" + s.name + ".test" }

func (s stubProvider) FetchRate(_ context.Context, code string) (domain.Quote, error) {
	r, ok := s.rates[code]
	if !ok {
		return domain.Quote{}, provider.ErrUnsupported
	}
	return domain.NewQuote(r), nil
}

type recordingSink struct {
	saved int
}

func (r *recordingSink) Name() string { return "recording" }

func (r *recordingSink) Save(context.Context, *domain.Snapshot) error {
	r.saved++
	return nil
}

func stubDeps(t *testing.T) *bytes.Buffer {
	t.Helper()
	origRegistry := registryFunc
	origRedis := connectRedisFunc
	origPostgres := initPostgresFunc
	origKafka := newKafkaFunc
	origStdout := stdout
	t.Cleanup(func() {
		registryFunc = origRegistry
		connectRedisFunc = origRedis
		initPostgresFunc = origPostgres
		newKafkaFunc = origKafka
		stdout = origStdout
	})

	registryFunc = func(d provider.Deps) []provider.Provider {
		if d.Pages != nil || d.Stealth != nil {
			t.Errorf("browser deps must be nil when disabled")
		}
		return []provider.Provider{
			stubProvider{name: "wise", rates: map[string]float64{"USD": 122.2, "GBP": 160.5}},
			stubProvider{name: "xe", rates: map[string]float64{"USD": 121.9}},
		}
	}

	out := &bytes.Buffer{}
	stdout = out
	return out
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		OutputDir:   t.TempDir(),
		JSONFile:    "rates.json",
		ReportFile:  "README.md",
		LogLevel:    "info",
		HTTPTimeout: time.Second,
		TaskTimeout: time.Second,
	}
}

func TestRunWritesOutputs(t *testing.T) {
	out := stubDeps(t)
	cfg := testConfig(t)

	if err := run(context.Background(), cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(cfg.OutputDir, "rates.json"))
	if err != nil {
		t.Fatalf("rates.json not written: %v", err)
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("rates.json is not valid: %v", err)
	}
	if snap.Count() != 3 || snap.Best("USD").Provider != "wise" {
		t.Fatalf("unexpected snapshot: %+v", snap.Rates)
	}

	readme, err := os.ReadFile(filepath.Join(cfg.OutputDir, "README.md"))
	if err != nil {
		t.Fatalf("README.md not written: %v", err)
	}
	if !strings.Contains(string(readme), "### USD to BDT") {
		t.Fatalf("unexpected report:\n%s", readme)
	}

	if !strings.Contains(out.String(), "✅ 3 rates fetched in ") {
		t.Fatalf("missing summary line in %q", out.String())
	}
}

func TestRunFailsWhenFileWriteFails(t *testing.T) {
	stubDeps(t)
	cfg := testConfig(t)
	cfg.OutputDir = filepath.Join(cfg.OutputDir, "missing", "dir")

	if err := run(context.Background(), cfg); err == nil {
		t.Fatal("expected write error")
	}
}

func TestRunSkipsUnreachableOptionalSinks(t *testing.T) {
	stubDeps(t)
	cfg := testConfig(t)
	cfg.RedisURL = "redis://cache:6379"
	cfg.DatabaseURL = "postgres://db/rates"
	cfg.KafkaBrokers = []string{"kafka:9092"}

	connectRedisFunc = func(context.Context, string) (*redis.Client, error) {
		return nil, errors.New("connection refused")
	}
	initPostgresFunc = func(context.Context, string) (*pgxpool.Pool, error) {
		return nil, errors.New("connection refused")
	}
	sink := &recordingSink{}
	newKafkaFunc = func([]string, string) snapshot.Sink { return sink }

	if err := run(context.Background(), cfg); err != nil {
		t.Fatalf("optional sink failures must not fail the run: %v", err)
	}
	if sink.saved != 1 {
		t.Fatalf("expected kafka sink to receive the snapshot, got %d", sink.saved)
	}
}

func TestOptionalSinksNoneConfigured(t *testing.T) {
	sinks, cleanup := optionalSinks(context.Background(), &config.Config{}, trace.NewNoopTracerProvider().Tracer("test"))
	defer cleanup()
	if len(sinks) != 0 {
		t.Fatalf("expected no sinks, got %d", len(sinks))
	}
}

package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "bdt_rates"

// Fetch outcomes used as the "outcome" label.
const (
	OutcomeOK          = "ok"
	OutcomeNoRate      = "no_rate"
	OutcomeUnsupported = "unsupported"
	OutcomeError       = "error"
	OutcomeTimeout     = "timeout"
	OutcomePanic       = "panic"
)

// Metrics holds the collectors for fetch runs. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	ProviderFetchTotal    *prometheus.CounterVec
	ProviderFetchDuration *prometheus.HistogramVec
	ImplausibleRatesTotal *prometheus.CounterVec

	RatesFetched       prometheus.Gauge
	RunDuration        prometheus.Gauge
	LastRunTimestamp   prometheus.Gauge
	SnapshotAgeSeconds prometheus.Gauge
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		ProviderFetchTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_fetch_total",
				Help:      "Provider fetch attempts by outcome",
			},
			[]string{"provider", "currency", "outcome"},
		),

		ProviderFetchDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "provider_fetch_duration_seconds",
				Help:      "Duration of a single provider fetch",
				Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 60},
			},
			[]string{"provider"},
		),

		ImplausibleRatesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "implausible_rates_total",
				Help:      "Rates kept in the snapshot despite falling outside the expected band",
			},
			[]string{"provider", "currency"},
		),

		RatesFetched: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rates_fetched",
			Help:      "Records in the last snapshot",
		}),

		RunDuration: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last fetch run",
		}),

		LastRunTimestamp: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last snapshot was taken",
		}),

		SnapshotAgeSeconds: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_age_seconds",
			Help:      "Age of the snapshot served by the API",
		}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordFetch records one provider × currency attempt.
func (m *Metrics) RecordFetch(provider, currency, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.ProviderFetchTotal.WithLabelValues(provider, currency, outcome).Inc()
	m.ProviderFetchDuration.WithLabelValues(provider).Observe(d.Seconds())
}

func (m *Metrics) RecordImplausible(provider, currency string) {
	if m == nil {
		return
	}
	m.ImplausibleRatesTotal.WithLabelValues(provider, currency).Inc()
}

// RecordRun records the totals of a finished run.
func (m *Metrics) RecordRun(total int, d time.Duration, at time.Time) {
	if m == nil {
		return
	}
	m.RatesFetched.Set(float64(total))
	m.RunDuration.Set(d.Seconds())
	m.LastRunTimestamp.Set(float64(at.Unix()))
}

func (m *Metrics) RecordSnapshotAge(updatedAt time.Time) {
	if m == nil {
		return
	}
	m.SnapshotAgeSeconds.Set(time.Since(updatedAt).Seconds())
}

// Handler serves this registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

var newPusher = func(url, job string) *push.Pusher {
	return push.New(url, job)
}

// Push sends the current values to a Pushgateway. The batch job exits right
// after a run, so scraping it is not an option.
func (m *Metrics) Push(ctx context.Context, url, job string) error {
	if m == nil || url == "" {
		return nil
	}
	return newPusher(url, job).Gatherer(m.registry).PushContext(ctx)
}

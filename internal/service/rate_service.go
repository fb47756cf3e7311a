package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/sourcegraph/conc"
	"golang.org/x/sync/semaphore"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ikaadil/any-currency-to-bdt/internal/domain"
	"github.com/ikaadil/any-currency-to-bdt/internal/logger"
	"github.com/ikaadil/any-currency-to-bdt/internal/metrics"
	"github.com/ikaadil/any-currency-to-bdt/internal/provider"
)

const defaultTaskTimeout = 60 * time.Second

// Browser is the shared page pool as seen by the orchestrator.
type Browser interface {
	Warm(ctx context.Context)
	Close() error
}

// RateService runs every provider against every tracked currency and
// assembles the ranked snapshot.
type RateService struct {
	tracer      trace.Tracer
	providers   []provider.Provider
	browser     Browser
	metrics     *metrics.Metrics
	currencies  []string
	taskTimeout time.Duration
	stealthGate *semaphore.Weighted
	diag        io.Writer
	now         func() time.Time
}

type Option func(*RateService)

// WithBrowser hands the orchestrator the pool to pre-warm and close.
func WithBrowser(b Browser) Option {
	return func(s *RateService) { s.browser = b }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *RateService) { s.metrics = m }
}

func WithTaskTimeout(d time.Duration) Option {
	return func(s *RateService) {
		if d > 0 {
			s.taskTimeout = d
		}
	}
}

// WithCurrencies restricts the run to codes. Defaults to every tracked currency.
func WithCurrencies(codes []string) Option {
	return func(s *RateService) { s.currencies = codes }
}

// WithDiagnostics redirects the per-pair progress lines. Defaults to stdout.
func WithDiagnostics(w io.Writer) Option {
	return func(s *RateService) { s.diag = w }
}

func withClock(now func() time.Time) Option {
	return func(s *RateService) { s.now = now }
}

func NewRateService(tracer trace.Tracer, providers []provider.Provider, opts ...Option) *RateService {
	s := &RateService{
		tracer:      tracer,
		providers:   providers,
		currencies:  domain.CurrencyCodes(),
		taskTimeout: defaultTaskTimeout,
		stealthGate: semaphore.NewWeighted(1),
		diag:        os.Stdout,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type task struct {
	code     string
	provider provider.Provider
}

type result struct {
	code string
	rate *domain.Rate
}

// FetchAll runs one complete pass. Provider failures never surface as an
// error; a pair that fails simply contributes no record.
func (s *RateService) FetchAll(ctx context.Context) (*domain.Snapshot, error) {
	ctx, span := s.tracer.Start(ctx, "rate-service.fetch-all")
	defer span.End()

	start := time.Now()
	snap := domain.NewSnapshot(s.now())

	tasks, browserTasks := s.plan()
	span.SetAttributes(
		attribute.Int("tasks.http", len(tasks)),
		attribute.Int("tasks.browser", len(browserTasks)),
	)
	tasks = append(tasks, browserTasks...)

	results := make([]result, len(tasks))
	var out sync.Mutex
	var wg conc.WaitGroup

	if s.browser != nil && len(browserTasks) > 0 {
		wg.Go(func() { s.browser.Warm(ctx) })
	}
	for i, t := range tasks {
		wg.Go(func() {
			r := s.run(ctx, t)
			results[i] = result{code: t.code, rate: r}
			out.Lock()
			s.report(t, r)
			out.Unlock()
		})
	}
	// Task goroutines recover their own panics, so this only catches the warm-up.
	if rec := wg.WaitAndRecover(); rec != nil {
		logger.Log.Errorw("browser warm-up panicked", "error", rec.AsError())
	}

	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			logger.Log.Warnw("browser close failed", "error", err)
		}
	}

	for _, r := range results {
		if r.rate != nil {
			snap.Add(r.code, *r.rate)
		}
	}
	snap.Rank()
	s.checkPlausible(snap)

	total := snap.Count()
	elapsed := time.Since(start)
	s.metrics.RecordRun(total, elapsed, snap.UpdatedAt)
	span.SetAttributes(attribute.Int("rates.total", total))
	logger.Log.Infow("fetch run finished", "rates", total, "elapsed", elapsed.Round(time.Millisecond))

	return snap, nil
}

// plan builds the currency × provider matrix, currency-major, split into
// tasks that need the shared browser and tasks that do not.
func (s *RateService) plan() (plain, browser []task) {
	for _, code := range s.currencies {
		for _, p := range s.providers {
			t := task{code: code, provider: p}
			if provider.NeedsBrowser(p) {
				browser = append(browser, t)
			} else {
				plain = append(plain, t)
			}
		}
	}
	return plain, browser
}

func (s *RateService) run(ctx context.Context, t task) (rate *domain.Rate) {
	info := t.provider.Info()
	start := time.Now()
	outcome := metrics.OutcomeOK

	defer func() {
		if rec := recover(); rec != nil {
			logger.Log.Errorw("provider panicked", "provider", info.Name, "currency", t.code, "panic", rec)
			rate = nil
			outcome = metrics.OutcomePanic
		}
		s.metrics.RecordFetch(info.Name, t.code, outcome, time.Since(start))
	}()

	// Stealth pages load one at a time. A queued task's deadline starts
	// when it takes the slot, not when it joins the queue.
	if info.Kind == provider.KindStealth {
		if err := s.stealthGate.Acquire(ctx, 1); err != nil {
			outcome = classify(ctx, err)
			logger.Log.Warnw("stealth queue abandoned", "provider", info.Name, "currency", t.code, "error", err)
			return nil
		}
		defer s.stealthGate.Release(1)
		start = time.Now()
	}

	taskCtx, cancel := context.WithTimeout(ctx, s.taskTimeout)
	defer cancel()

	q, err := t.provider.FetchRate(taskCtx, t.code)
	if err == nil {
		var r domain.Rate
		r, err = domain.NewRate(info.Name, t.provider.DisplayURL(t.code), info.Delivery, q)
		if err == nil {
			return &r
		}
		err = fmt.Errorf("%w: %v", provider.ErrNoRate, err)
	}

	outcome = classify(taskCtx, err)
	if outcome == metrics.OutcomeUnsupported {
		logger.Log.Debugw("currency not served", "provider", info.Name, "currency", t.code)
	} else {
		logger.Log.Warnw("provider fetch failed", "provider", info.Name, "currency", t.code, "error", err)
	}
	return nil
}

func classify(ctx context.Context, err error) string {
	switch {
	case errors.Is(err, provider.ErrUnsupported):
		return metrics.OutcomeUnsupported
	case errors.Is(err, provider.ErrNoRate):
		return metrics.OutcomeNoRate
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return metrics.OutcomeTimeout
	default:
		return metrics.OutcomeError
	}
}

func (s *RateService) report(t task, r *domain.Rate) {
	if s.diag == nil {
		return
	}
	if r != nil {
		fmt.Fprintf(s.diag, "  %s: ✅ %s: %g\n", t.code, r.Provider, r.Rate)
		return
	}
	fmt.Fprintf(s.diag, "  %s: ❌ %s\n", t.code, t.provider.Info().Name)
}

// checkPlausible flags records outside their currency band. They stay in the
// snapshot.
func (s *RateService) checkPlausible(snap *domain.Snapshot) {
	for code, rates := range snap.Rates {
		for _, r := range rates {
			if domain.Plausible(code, r.Rate) {
				continue
			}
			band := domain.PlausibleRanges[code]
			logger.Log.Warnw("implausible rate",
				"provider", r.Provider,
				"currency", code,
				"rate", r.Rate,
				"low", band.Low,
				"high", band.High,
			)
			s.metrics.RecordImplausible(r.Provider, code)
		}
	}
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

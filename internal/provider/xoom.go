package provider

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/ikaadil/any-currency-to-bdt/internal/browser"
	"github.com/ikaadil/any-currency-to-bdt/internal/domain"
)

const xoomURL = "https://www.xoom.com/bangladesh/send-money"

// XoomProvider loads the send-money page once per run. Xoom picks the
// sending currency from the visitor's IP, so one page yields at most one
// currency; every other currency reports ErrUnsupported.
type XoomProvider struct {
	pageFetcher
	pageURL string

	mu     sync.Mutex
	loaded bool
	cache  map[string]float64
	err    error
}

func NewXoomProvider(tracer trace.Tracer, pages browser.PageRunner, wait time.Duration) *XoomProvider {
	return &XoomProvider{
		pageFetcher: newPageFetcher(tracer, pages, wait),
		pageURL:     xoomURL,
		cache:       make(map[string]float64),
	}
}

func (p *XoomProvider) Info() Info {
	return Info{
		Name:     "Xoom",
		URL:      xoomURL,
		Delivery: "Bank, Cash Pickup, Mobile Wallet",
		Kind:     KindBrowser,
	}
}

func (p *XoomProvider) DisplayURL(string) string {
	return xoomURL
}

func (p *XoomProvider) FetchRate(ctx context.Context, code string) (domain.Quote, error) {
	if err := p.load(ctx); err != nil {
		return domain.Quote{}, err
	}
	p.mu.Lock()
	rate, ok := p.cache[code]
	p.mu.Unlock()
	if !ok {
		return domain.Quote{}, ErrUnsupported
	}
	return domain.NewQuote(rate), nil
}

func (p *XoomProvider) load(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loaded {
		return p.err
	}

	ctx, span := p.tracer.Start(ctx, "xoom.load-page")
	defer span.End()

	m, err := p.match(ctx, p.pageURL, xoomPattern)
	if err != nil && ctx.Err() != nil {
		return err
	}
	p.loaded = true
	if err != nil {
		p.err = err
		return err
	}
	if rate, ok := parseNumber(m[2]); ok {
		p.cache[m[1]] = rate
	}
	return nil
}

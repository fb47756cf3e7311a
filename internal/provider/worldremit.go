package provider

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ikaadil/any-currency-to-bdt/internal/browser"
	"github.com/ikaadil/any-currency-to-bdt/internal/domain"
)

var worldRemitRegions = map[string]string{
	"USD": "en-us",
	"GBP": "en-gb",
	"CAD": "en-ca",
	"AUD": "en-au",
}

type WorldRemitProvider struct {
	pageFetcher
	baseURL string
}

func NewWorldRemitProvider(tracer trace.Tracer, pages browser.PageRunner, wait time.Duration) *WorldRemitProvider {
	return &WorldRemitProvider{
		pageFetcher: newPageFetcher(tracer, pages, wait),
		baseURL:     "https://www.worldremit.com",
	}
}

func (p *WorldRemitProvider) Info() Info {
	return Info{
		Name:     "WorldRemit",
		URL:      "https://www.worldremit.com/en-us/bangladesh",
		Delivery: "Bank, Mobile Wallet, Cash Pickup",
		Kind:     KindBrowser,
	}
}

func (p *WorldRemitProvider) DisplayURL(code string) string {
	region, ok := worldRemitRegions[code]
	if !ok {
		region = "en-us"
	}
	return fmt.Sprintf("https://www.worldremit.com/%s/bangladesh", region)
}

func (p *WorldRemitProvider) FetchRate(ctx context.Context, code string) (domain.Quote, error) {
	region, ok := worldRemitRegions[code]
	if !ok {
		return domain.Quote{}, ErrUnsupported
	}

	ctx, span := p.tracer.Start(ctx, "worldremit.fetch-rate", trace.WithAttributes(attribute.String("currency", code)))
	defer span.End()

	m, err := p.match(ctx, fmt.Sprintf("%s/%s/bangladesh", p.baseURL, region), worldRemitPattern(code))
	if err != nil {
		return domain.Quote{}, err
	}
	rate, ok := parseNumber(m[1])
	if !ok {
		return domain.Quote{}, ErrNoRate
	}
	return domain.NewQuote(rate), nil
}

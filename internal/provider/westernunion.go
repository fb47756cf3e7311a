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

var westernUnionRegions = map[string]string{
	"USD": "us", "GBP": "gb", "EUR": "de", "CAD": "ca",
	"AUD": "au", "SGD": "sg", "JPY": "jp",
}

// WesternUnionProvider renders the converter page, which fills its FX line in client-side.
type WesternUnionProvider struct {
	pageFetcher
	baseURL string
}

func NewWesternUnionProvider(tracer trace.Tracer, pages browser.PageRunner, wait time.Duration) *WesternUnionProvider {
	return &WesternUnionProvider{
		pageFetcher: newPageFetcher(tracer, pages, wait),
		baseURL:     "https://www.westernunion.com",
	}
}

func (p *WesternUnionProvider) Info() Info {
	return Info{
		Name:     "Western Union",
		URL:      "https://www.westernunion.com/us/en/currency-converter/usd-to-bdt-rate.html",
		Delivery: "Bank, Cash Pickup, Mobile Wallet",
		Kind:     KindBrowser,
	}
}

func westernUnionURL(base, code string) string {
	region, ok := westernUnionRegions[code]
	if !ok {
		region = "us"
	}
	return fmt.Sprintf("%s/%s/en/currency-converter/%s-to-bdt-rate.html", base, region, lowerCode(code))
}

func (p *WesternUnionProvider) DisplayURL(code string) string {
	return westernUnionURL("https://www.westernunion.com", code)
}

func (p *WesternUnionProvider) FetchRate(ctx context.Context, code string) (domain.Quote, error) {
	if _, ok := westernUnionRegions[code]; !ok {
		return domain.Quote{}, ErrUnsupported
	}

	ctx, span := p.tracer.Start(ctx, "westernunion.fetch-rate", trace.WithAttributes(attribute.String("currency", code)))
	defer span.End()

	m, err := p.match(ctx, westernUnionURL(p.baseURL, code), westernUnionPattern(code))
	if err != nil {
		return domain.Quote{}, err
	}
	rate, ok := parseNumber(m[1])
	if !ok {
		return domain.Quote{}, ErrNoRate
	}
	return domain.NewQuote(rate), nil
}

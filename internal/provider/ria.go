package provider

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ikaadil/any-currency-to-bdt/internal/browser"
	"github.com/ikaadil/any-currency-to-bdt/internal/domain"
)

var riaCurrencies = map[string]bool{
	"USD": true, "GBP": true, "EUR": true, "CAD": true, "AUD": true,
	"SGD": true, "AED": true, "SAR": true, "JPY": true,
}

// RiaProvider reads the rates-conversion page through the stealth fetcher.
type RiaProvider struct {
	stealthFetcher
	baseURL string
}

func NewRiaProvider(tracer trace.Tracer, docs browser.DocumentFetcher) *RiaProvider {
	return &RiaProvider{
		stealthFetcher: stealthFetcher{docs: docs, tracer: tracerOrNoop(tracer)},
		baseURL:        "https://www.riamoneytransfer.com",
	}
}

func (p *RiaProvider) Info() Info {
	return Info{
		Name:     "Ria",
		URL:      "https://www.riamoneytransfer.com/en-us/rates-conversion/?From=USD&To=BDT&Amount=1",
		Delivery: "Bank, Cash Pickup, Mobile Wallet",
		Kind:     KindStealth,
	}
}

func riaURL(base, code string) string {
	return fmt.Sprintf("%s/en-us/rates-conversion/?From=%s&To=%s&Amount=1", base, code, domain.Target)
}

func (p *RiaProvider) DisplayURL(code string) string {
	return riaURL("https://www.riamoneytransfer.com", code)
}

func (p *RiaProvider) FetchRate(ctx context.Context, code string) (domain.Quote, error) {
	if !riaCurrencies[code] {
		return domain.Quote{}, ErrUnsupported
	}

	ctx, span := p.tracer.Start(ctx, "ria.fetch-rate", trace.WithAttributes(attribute.String("currency", code)))
	defer span.End()

	_, text, err := p.fetch(ctx, riaURL(p.baseURL, code))
	if err != nil {
		return domain.Quote{}, err
	}
	rate, ok := riaRate(text, code)
	if !ok {
		return domain.Quote{}, ErrNoRate
	}
	return domain.NewQuote(rate), nil
}

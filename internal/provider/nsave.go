package provider

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"github.com/ikaadil/any-currency-to-bdt/internal/browser"
	"github.com/ikaadil/any-currency-to-bdt/internal/domain"
)

const nsaveURL = "https://www.nsave.com/calculator/usd-bdt"

// NsaveProvider reads the USD calculator page. Best effort, USD only.
type NsaveProvider struct {
	stealthFetcher
	pageURL string
}

func NewNsaveProvider(tracer trace.Tracer, docs browser.DocumentFetcher) *NsaveProvider {
	return &NsaveProvider{
		stealthFetcher: stealthFetcher{docs: docs, tracer: tracerOrNoop(tracer)},
		pageURL:        nsaveURL,
	}
}

func (p *NsaveProvider) Info() Info {
	return Info{
		Name:     "nsave",
		URL:      nsaveURL,
		Delivery: "Bank, Mobile Wallet",
		Kind:     KindStealth,
	}
}

func (p *NsaveProvider) DisplayURL(string) string {
	return nsaveURL
}

func (p *NsaveProvider) FetchRate(ctx context.Context, code string) (domain.Quote, error) {
	if code != "USD" {
		return domain.Quote{}, ErrUnsupported
	}

	ctx, span := p.tracer.Start(ctx, "nsave.fetch-rate")
	defer span.End()

	_, text, err := p.fetch(ctx, p.pageURL)
	if err != nil {
		return domain.Quote{}, err
	}
	rate, ok := nsaveRate(text)
	if !ok {
		return domain.Quote{}, ErrNoRate
	}
	return domain.NewQuote(rate), nil
}

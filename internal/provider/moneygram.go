package provider

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"github.com/ikaadil/any-currency-to-bdt/internal/browser"
	"github.com/ikaadil/any-currency-to-bdt/internal/domain"
)

const moneyGramURL = "https://www.moneygram.com/us/en/corridor/bangladesh"

// MoneyGramProvider reads the US corridor page. Best effort: the page layout
// changes often and only USD is published.
type MoneyGramProvider struct {
	stealthFetcher
	pageURL string
}

func NewMoneyGramProvider(tracer trace.Tracer, docs browser.DocumentFetcher) *MoneyGramProvider {
	return &MoneyGramProvider{
		stealthFetcher: stealthFetcher{docs: docs, tracer: tracerOrNoop(tracer)},
		pageURL:        moneyGramURL,
	}
}

func (p *MoneyGramProvider) Info() Info {
	return Info{
		Name:     "MoneyGram",
		URL:      moneyGramURL,
		Delivery: "Bank, Cash Pickup, Mobile Wallet",
		Kind:     KindStealth,
	}
}

func (p *MoneyGramProvider) DisplayURL(string) string {
	return moneyGramURL
}

func (p *MoneyGramProvider) FetchRate(ctx context.Context, code string) (domain.Quote, error) {
	if code != "USD" {
		return domain.Quote{}, ErrUnsupported
	}

	ctx, span := p.tracer.Start(ctx, "moneygram.fetch-rate")
	defer span.End()

	html, text, err := p.fetch(ctx, p.pageURL)
	if err != nil {
		return domain.Quote{}, err
	}
	rate, ok := moneyGramRate(html, text)
	if !ok {
		return domain.Quote{}, ErrNoRate
	}
	return domain.NewQuote(rate), nil
}

package provider

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel/trace"

	"github.com/ikaadil/any-currency-to-bdt/internal/domain"
)

const nalaAPI = "https://partners-api.prod.nala-api.com/v1/fx/rates"

// NalaProvider reads NALA's own quotes from the public partners rate table.
type NalaProvider struct {
	httpFetcher
	apiURL string
	bulk   bulkRates
}

func NewNalaProvider(tracer trace.Tracer, client *http.Client) *NalaProvider {
	return &NalaProvider{httpFetcher: newHTTPFetcher(tracer, client), apiURL: nalaAPI}
}

func (p *NalaProvider) Info() Info {
	return Info{
		Name:     "NALA",
		URL:      "https://www.nala.com/country/bangladesh",
		Delivery: "Bank, Mobile Wallet",
		Kind:     KindHTTP,
	}
}

func (p *NalaProvider) DisplayURL(string) string {
	return p.Info().URL
}

func (p *NalaProvider) FetchRate(ctx context.Context, code string) (domain.Quote, error) {
	rate, err := p.bulk.get(ctx, code, p.load)
	if err != nil {
		return domain.Quote{}, err
	}
	return domain.NewQuote(rate), nil
}

func (p *NalaProvider) load(ctx context.Context) (map[string]float64, error) {
	ctx, span := p.tracer.Start(ctx, "nala.load-rates")
	defer span.End()

	var resp struct {
		Data []struct {
			SourceCurrency      string `json:"source_currency"`
			DestinationCurrency string `json:"destination_currency"`
			ProviderName        string `json:"provider_name"`
			Rate                any    `json:"rate"`
		} `json:"data"`
	}
	if err := p.getJSON(ctx, "nala", p.apiURL, nil, &resp); err != nil {
		return nil, err
	}

	rates := make(map[string]float64)
	for _, e := range resp.Data {
		if e.DestinationCurrency != domain.Target || e.ProviderName != "NALA" {
			continue
		}
		if rate, ok := asFloat(e.Rate); ok {
			rates[e.SourceCurrency] = rate
		}
	}
	return rates, nil
}

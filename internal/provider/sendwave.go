package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ikaadil/any-currency-to-bdt/internal/domain"
)

const sendWaveAPI = "https://app.sendwave.com/v2/pricing-public"

// sendWaveCorridors maps a source currency to its sending country.
var sendWaveCorridors = map[string]string{
	"USD": "US",
	"GBP": "GB",
	"EUR": "DE",
	"CAD": "CA",
}

// SendWaveProvider prices a 100-unit transfer, which discloses both rate and fee.
type SendWaveProvider struct {
	httpFetcher
	apiURL string
}

func NewSendWaveProvider(tracer trace.Tracer, client *http.Client) *SendWaveProvider {
	return &SendWaveProvider{httpFetcher: newHTTPFetcher(tracer, client), apiURL: sendWaveAPI}
}

func (p *SendWaveProvider) Info() Info {
	return Info{
		Name:     "SendWave",
		URL:      "https://www.sendwave.com/en/currency-converter/usd_us-bdt_bd",
		Delivery: "Bank, Mobile Wallet",
		Kind:     KindHTTP,
	}
}

func (p *SendWaveProvider) DisplayURL(code string) string {
	country, ok := sendWaveCorridors[code]
	if !ok {
		return p.Info().URL
	}
	return fmt.Sprintf("https://www.sendwave.com/en/currency-converter/%s_%s-bdt_bd", lowerCode(code), lowerCode(country))
}

func (p *SendWaveProvider) FetchRate(ctx context.Context, code string) (domain.Quote, error) {
	country, ok := sendWaveCorridors[code]
	if !ok {
		return domain.Quote{}, ErrUnsupported
	}

	ctx, span := p.tracer.Start(ctx, "sendwave.fetch-rate", trace.WithAttributes(attribute.String("currency", code)))
	defer span.End()

	q := url.Values{
		"amount":             {"100"},
		"amountType":         {"SEND"},
		"sendCountryIso2":    {country},
		"sendCurrency":       {code},
		"receiveCountryIso2": {"BD"},
		"receiveCurrency":    {domain.Target},
	}
	var resp struct {
		BaseExchangeRate any `json:"baseExchangeRate"`
		BaseFeeAmount    any `json:"baseFeeAmount"`
	}
	if err := p.getJSON(ctx, "sendwave", p.apiURL+"?"+q.Encode(), nil, &resp); err != nil {
		return domain.Quote{}, err
	}

	rate, ok := asFloat(resp.BaseExchangeRate)
	if !ok || rate == 0 {
		return domain.Quote{}, ErrNoRate
	}
	if fee, ok := asFloat(resp.BaseFeeAmount); ok {
		return domain.NewQuoteWithFee(rate, fee), nil
	}
	return domain.NewQuote(rate), nil
}

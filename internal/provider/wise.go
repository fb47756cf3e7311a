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

const wiseBaseURL = "https://wise.com"

var wiseRegions = map[string]string{
	"USD": "us", "GBP": "gb", "EUR": "de", "CAD": "ca", "AUD": "au",
	"SGD": "sg", "AED": "ae", "MYR": "my", "SAR": "sa", "KWD": "kw",
	"QAR": "qa", "JPY": "jp", "NZD": "nz", "BHD": "bh", "OMR": "om",
}

// WiseProvider reads the public live mid-market rate that Wise converts at.
type WiseProvider struct {
	httpFetcher
	baseURL string
}

func NewWiseProvider(tracer trace.Tracer, client *http.Client) *WiseProvider {
	return &WiseProvider{httpFetcher: newHTTPFetcher(tracer, client), baseURL: wiseBaseURL}
}

func (p *WiseProvider) Info() Info {
	return Info{
		Name:     "Wise",
		URL:      "https://wise.com/us/currency-converter/usd-to-bdt-rate",
		Delivery: "Bank",
		Kind:     KindHTTP,
	}
}

func (p *WiseProvider) DisplayURL(code string) string {
	region, ok := wiseRegions[code]
	if !ok {
		region = "us"
	}
	return fmt.Sprintf("https://wise.com/%s/currency-converter/%s-to-bdt-rate", region, lowerCode(code))
}

func (p *WiseProvider) FetchRate(ctx context.Context, code string) (domain.Quote, error) {
	ctx, span := p.tracer.Start(ctx, "wise.fetch-rate", trace.WithAttributes(attribute.String("currency", code)))
	defer span.End()

	q := url.Values{"source": {code}, "target": {domain.Target}}
	var resp struct {
		Value *float64 `json:"value"`
	}
	if err := p.getJSON(ctx, "wise", p.baseURL+"/rates/live?"+q.Encode(), nil, &resp); err != nil {
		return domain.Quote{}, err
	}
	if resp.Value == nil {
		return domain.Quote{}, ErrNoRate
	}
	return domain.NewQuote(*resp.Value), nil
}

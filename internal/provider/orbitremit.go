package provider

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ikaadil/any-currency-to-bdt/internal/domain"
)

const orbitRemitBaseURL = "https://www.orbitremit.com"

var orbitRemitPaths = map[string]string{
	"AUD": "aud-to-bdt",
	"NZD": "nzd-to-bdt",
}

// OrbitRemitProvider scrapes the AUD and NZD converter pages.
type OrbitRemitProvider struct {
	httpFetcher
	baseURL string
}

func NewOrbitRemitProvider(tracer trace.Tracer, client *http.Client) *OrbitRemitProvider {
	return &OrbitRemitProvider{httpFetcher: newHTTPFetcher(tracer, client), baseURL: orbitRemitBaseURL}
}

func (p *OrbitRemitProvider) Info() Info {
	return Info{
		Name:     "OrbitRemit",
		URL:      "https://www.orbitremit.com/currency-converter/aud-to-bdt",
		Delivery: "Bank, Mobile Wallet",
		Kind:     KindHTTP,
	}
}

func (p *OrbitRemitProvider) DisplayURL(code string) string {
	path, ok := orbitRemitPaths[code]
	if !ok {
		path = orbitRemitPaths["AUD"]
	}
	return orbitRemitBaseURL + "/currency-converter/" + path
}

func (p *OrbitRemitProvider) FetchRate(ctx context.Context, code string) (domain.Quote, error) {
	path, ok := orbitRemitPaths[code]
	if !ok {
		return domain.Quote{}, ErrUnsupported
	}

	ctx, span := p.tracer.Start(ctx, "orbitremit.fetch-rate", trace.WithAttributes(attribute.String("currency", code)))
	defer span.End()

	text, err := p.getText(ctx, "orbitremit", p.baseURL+"/currency-converter/"+path)
	if err != nil {
		return domain.Quote{}, err
	}
	rate, ok := orbitRemitRate(text, code)
	if !ok {
		return domain.Quote{}, ErrNoRate
	}
	return domain.NewQuote(rate), nil
}

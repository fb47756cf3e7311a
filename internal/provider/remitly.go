package provider

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ikaadil/any-currency-to-bdt/internal/domain"
)

const remitlyBaseURL = "https://www.remitly.com"

type remitlyRegion struct{ country, lang string }

var remitlyRegions = map[string]remitlyRegion{
	"USD": {"us", "en"},
	"GBP": {"gb", "en"},
	"EUR": {"de", "en"},
	"CAD": {"ca", "en"},
	"AUD": {"au", "en"},
}

// RemitlyProvider scrapes the Bangladesh landing page of each sending country.
type RemitlyProvider struct {
	httpFetcher
	baseURL string
}

func NewRemitlyProvider(tracer trace.Tracer, client *http.Client) *RemitlyProvider {
	f := newHTTPFetcher(tracer, client)
	f.throttle = NewThrottle(3, 300*time.Millisecond)
	return &RemitlyProvider{httpFetcher: f, baseURL: remitlyBaseURL}
}

func (p *RemitlyProvider) Info() Info {
	return Info{
		Name:     "Remitly",
		URL:      "https://www.remitly.com/us/en/bangladesh",
		Delivery: "Bank, Mobile Wallet, Cash Pickup",
		Kind:     KindHTTP,
	}
}

func (p *RemitlyProvider) DisplayURL(code string) string {
	r, ok := remitlyRegions[code]
	if !ok {
		r = remitlyRegions["USD"]
	}
	return fmt.Sprintf("%s/%s/%s/bangladesh", remitlyBaseURL, r.country, r.lang)
}

func (p *RemitlyProvider) FetchRate(ctx context.Context, code string) (domain.Quote, error) {
	r, ok := remitlyRegions[code]
	if !ok {
		return domain.Quote{}, ErrUnsupported
	}

	ctx, span := p.tracer.Start(ctx, "remitly.fetch-rate", trace.WithAttributes(attribute.String("currency", code)))
	defer span.End()

	text, err := p.getText(ctx, "remitly", fmt.Sprintf("%s/%s/%s/bangladesh", p.baseURL, r.country, r.lang))
	if err != nil {
		return domain.Quote{}, err
	}
	rate, ok := remitlyRate(text)
	if !ok {
		return domain.Quote{}, ErrNoRate
	}
	return domain.NewQuote(rate), nil
}

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

const paysendBaseURL = "https://paysend.com"

type paysendRegion struct{ locale, country string }

var paysendRegions = map[string]paysendRegion{
	"USD": {"en-us", "the-united-states-of-america"},
	"EUR": {"en-us", "germany"},
	"CAD": {"en-ca", "canada"},
	"AUD": {"en-au", "australia"},
}

// PaysendProvider scrapes the send-money page, which lists both rate and fee.
type PaysendProvider struct {
	httpFetcher
	baseURL string
}

func NewPaysendProvider(tracer trace.Tracer, client *http.Client) *PaysendProvider {
	f := newHTTPFetcher(tracer, client)
	f.throttle = NewThrottle(2, 300*time.Millisecond)
	return &PaysendProvider{httpFetcher: f, baseURL: paysendBaseURL}
}

func (p *PaysendProvider) Info() Info {
	return Info{
		Name:     "Paysend",
		URL:      "https://paysend.com/en-us/send-money/from-the-united-states-of-america-to-bangladesh",
		Delivery: "Bank, Card",
		Kind:     KindHTTP,
	}
}

func paysendURL(base string, r paysendRegion) string {
	return fmt.Sprintf("%s/%s/send-money/from-%s-to-bangladesh", base, r.locale, r.country)
}

func (p *PaysendProvider) DisplayURL(code string) string {
	r, ok := paysendRegions[code]
	if !ok {
		r = paysendRegions["USD"]
	}
	return paysendURL(paysendBaseURL, r)
}

func (p *PaysendProvider) FetchRate(ctx context.Context, code string) (domain.Quote, error) {
	r, ok := paysendRegions[code]
	if !ok {
		return domain.Quote{}, ErrUnsupported
	}

	ctx, span := p.tracer.Start(ctx, "paysend.fetch-rate", trace.WithAttributes(attribute.String("currency", code)))
	defer span.End()

	text, err := p.getText(ctx, "paysend", paysendURL(p.baseURL, r))
	if err != nil {
		return domain.Quote{}, err
	}
	rate, fee, ok := paysendQuote(text, code)
	if !ok {
		return domain.Quote{}, ErrNoRate
	}
	return domain.Quote{Rate: rate, Fee: fee}, nil
}

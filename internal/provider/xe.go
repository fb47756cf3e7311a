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

const xeBaseURL = "https://www.xe.com"

// XeProvider scrapes the Xe converter page, which quotes the mid-market rate.
type XeProvider struct {
	httpFetcher
	baseURL string
}

func NewXeProvider(tracer trace.Tracer, client *http.Client) *XeProvider {
	f := newHTTPFetcher(tracer, client)
	f.throttle = NewThrottle(4, 250*time.Millisecond)
	return &XeProvider{httpFetcher: f, baseURL: xeBaseURL}
}

func (p *XeProvider) Info() Info {
	return Info{
		Name:     "Xe",
		URL:      "https://www.xe.com/currencyconverter/convert/?Amount=1&From=USD&To=BDT",
		Delivery: "Bank",
		Kind:     KindHTTP,
	}
}

func (p *XeProvider) DisplayURL(code string) string {
	return xeConvertURL(xeBaseURL, code)
}

func xeConvertURL(base, code string) string {
	return fmt.Sprintf("%s/currencyconverter/convert/?Amount=1&From=%s&To=%s", base, code, domain.Target)
}

func (p *XeProvider) FetchRate(ctx context.Context, code string) (domain.Quote, error) {
	ctx, span := p.tracer.Start(ctx, "xe.fetch-rate", trace.WithAttributes(attribute.String("currency", code)))
	defer span.End()

	text, err := p.getText(ctx, "xe", xeConvertURL(p.baseURL, code))
	if err != nil {
		return domain.Quote{}, err
	}
	rate, ok := xeRate(text, code)
	if !ok {
		return domain.Quote{}, ErrNoRate
	}
	return domain.NewQuote(rate), nil
}

package provider

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ikaadil/any-currency-to-bdt/internal/domain"
)

const instaremAPI = "https://www.instarem.com/wp-json/instarem/v2/convert-rate"

// InstaremProvider calls the converter widget endpoint, one currency at a time.
type InstaremProvider struct {
	httpFetcher
	apiURL string

	mu    sync.Mutex
	cache map[string]float64
}

func NewInstaremProvider(tracer trace.Tracer, client *http.Client) *InstaremProvider {
	return &InstaremProvider{
		httpFetcher: newHTTPFetcher(tracer, client),
		apiURL:      instaremAPI,
		cache:       make(map[string]float64),
	}
}

func (p *InstaremProvider) Info() Info {
	return Info{
		Name:     "Instarem",
		URL:      "https://www.instarem.com/en-us/currency-conversion/usd-to-bdt/",
		Delivery: "Bank",
		Kind:     KindHTTP,
	}
}

func (p *InstaremProvider) DisplayURL(code string) string {
	return fmt.Sprintf("https://www.instarem.com/en-us/currency-conversion/%s-to-bdt/", lowerCode(code))
}

func (p *InstaremProvider) FetchRate(ctx context.Context, code string) (domain.Quote, error) {
	p.mu.Lock()
	rate, ok := p.cache[code]
	p.mu.Unlock()
	if ok {
		return domain.NewQuote(rate), nil
	}

	ctx, span := p.tracer.Start(ctx, "instarem.fetch-rate", trace.WithAttributes(attribute.String("currency", code)))
	defer span.End()

	var resp map[string]any
	if err := p.getJSON(ctx, "instarem", fmt.Sprintf("%s/%s/", p.apiURL, lowerCode(code)), nil, &resp); err != nil {
		return domain.Quote{}, err
	}

	// Wrapped responses carry {"status": true, "data": {...}}; older ones are the table itself.
	table := resp
	if truthy(resp["status"]) {
		table, _ = resp["data"].(map[string]any)
	}
	rate, ok = asFloat(table[domain.Target])
	if !ok {
		return domain.Quote{}, ErrNoRate
	}

	p.mu.Lock()
	p.cache[code] = rate
	p.mu.Unlock()
	return domain.NewQuote(rate), nil
}

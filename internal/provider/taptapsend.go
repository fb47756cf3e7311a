package provider

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel/trace"

	"github.com/ikaadil/any-currency-to-bdt/internal/domain"
)

const tapTapSendAPI = "https://api.taptapsend.com/api/fxRates"

var tapTapSendHeaders = http.Header{
	"Appian-Version": {"web/2022-05-03.0"},
	"X-Device-Id":    {"web"},
	"X-Device-Model": {"web"},
}

// TapTapSendProvider reads every corridor from one public fxRates call.
type TapTapSendProvider struct {
	httpFetcher
	apiURL string
	bulk   bulkRates
}

func NewTapTapSendProvider(tracer trace.Tracer, client *http.Client) *TapTapSendProvider {
	return &TapTapSendProvider{httpFetcher: newHTTPFetcher(tracer, client), apiURL: tapTapSendAPI}
}

func (p *TapTapSendProvider) Info() Info {
	return Info{
		Name:     "TapTapSend",
		URL:      "https://www.taptapsend.com/send-money-to/bangladesh",
		Delivery: "Bank, Mobile Wallet",
		Kind:     KindHTTP,
	}
}

func (p *TapTapSendProvider) DisplayURL(string) string {
	return p.Info().URL
}

func (p *TapTapSendProvider) FetchRate(ctx context.Context, code string) (domain.Quote, error) {
	rate, err := p.bulk.get(ctx, code, p.load)
	if err != nil {
		return domain.Quote{}, err
	}
	return domain.NewQuote(rate), nil
}

// load keeps the best BDT corridor per sending currency. A currency can be
// sent from several countries at different rates.
func (p *TapTapSendProvider) load(ctx context.Context) (map[string]float64, error) {
	ctx, span := p.tracer.Start(ctx, "taptapsend.load-rates")
	defer span.End()

	var resp struct {
		AvailableCountries []struct {
			Currency  string `json:"currency"`
			Corridors []struct {
				Currency string `json:"currency"`
				FxRate   any    `json:"fxRate"`
			} `json:"corridors"`
		} `json:"availableCountries"`
	}
	header := tapTapSendHeaders.Clone()
	if err := p.getJSON(ctx, "taptapsend", p.apiURL, header, &resp); err != nil {
		return nil, err
	}

	rates := make(map[string]float64)
	for _, country := range resp.AvailableCountries {
		for _, corridor := range country.Corridors {
			if corridor.Currency != domain.Target {
				continue
			}
			rate, ok := asFloat(corridor.FxRate)
			if !ok {
				continue
			}
			if cur, seen := rates[country.Currency]; !seen || rate > cur {
				rates[country.Currency] = rate
			}
		}
	}
	return rates, nil
}

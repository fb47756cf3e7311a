package provider

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

func TestWiseProviderFetchRate(t *testing.T) {
	t.Parallel()

	p := NewWiseProvider(testTracer(), nil)
	p.baseURL = "http://example"
	p.client = stubClient(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/rates/live" {
			t.Fatalf("unexpected path: %s", req.URL.Path)
		}
		if req.URL.Query().Get("source") != "GBP" || req.URL.Query().Get("target") != "BDT" {
			t.Fatalf("unexpected query: %s", req.URL.RawQuery)
		}
		if req.Header.Get("User-Agent") == "" {
			t.Fatal("expected a browser user agent")
		}
		return respond(http.StatusOK, `{"source":"GBP","target":"BDT","value":165.123456}`), nil
	})

	q, err := p.FetchRate(context.Background(), "GBP")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Rate != 165.123456 || q.Fee != nil {
		t.Fatalf("unexpected quote: %+v", q)
	}
	if got := p.DisplayURL("GBP"); got != "https://wise.com/gb/currency-converter/gbp-to-bdt-rate" {
		t.Fatalf("unexpected display url %s", got)
	}
	if got := p.DisplayURL("XYZ"); !strings.Contains(got, "/us/") {
		t.Fatalf("unknown currency should fall back to us region, got %s", got)
	}
}

func TestWiseProviderErrors(t *testing.T) {
	t.Parallel()

	p := NewWiseProvider(testTracer(), stubClient(func(req *http.Request) (*http.Response, error) {
		return respond(http.StatusTooManyRequests, "slow down"), nil
	}))
	_, err := p.FetchRate(context.Background(), "USD")
	if err == nil || !strings.Contains(err.Error(), "wise error 429") {
		t.Fatalf("expected status error, got %v", err)
	}

	p = NewWiseProvider(testTracer(), stubClient(func(req *http.Request) (*http.Response, error) {
		return respond(http.StatusOK, `{}`), nil
	}))
	if _, err := p.FetchRate(context.Background(), "USD"); !errors.Is(err, ErrNoRate) {
		t.Fatalf("expected ErrNoRate, got %v", err)
	}
}

func TestSendWaveProviderIncludesFee(t *testing.T) {
	t.Parallel()

	p := NewSendWaveProvider(testTracer(), stubClient(func(req *http.Request) (*http.Response, error) {
		q := req.URL.Query()
		if q.Get("sendCountryIso2") != "US" || q.Get("sendCurrency") != "USD" || q.Get("amount") != "100" {
			t.Fatalf("unexpected query: %s", req.URL.RawQuery)
		}
		return respond(http.StatusOK, `{"baseExchangeRate":"121.5","baseFeeAmount":"0.99"}`), nil
	}))

	q, err := p.FetchRate(context.Background(), "USD")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Rate != 121.5 || q.Fee == nil || *q.Fee != 0.99 {
		t.Fatalf("unexpected quote: %+v", q)
	}
	if got := p.DisplayURL("EUR"); got != "https://www.sendwave.com/en/currency-converter/eur_de-bdt_bd" {
		t.Fatalf("unexpected display url %s", got)
	}
	if _, err := p.FetchRate(context.Background(), "JPY"); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestSendWaveProviderZeroRate(t *testing.T) {
	t.Parallel()

	p := NewSendWaveProvider(testTracer(), stubClient(func(req *http.Request) (*http.Response, error) {
		return respond(http.StatusOK, `{"baseExchangeRate":0}`), nil
	}))
	if _, err := p.FetchRate(context.Background(), "GBP"); !errors.Is(err, ErrNoRate) {
		t.Fatalf("expected ErrNoRate, got %v", err)
	}
}

func TestTapTapSendLoadsOnceAndKeepsBestCorridor(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	body := `{"availableCountries":[
		{"currency":"EUR","corridors":[{"currency":"BDT","fxRate":"139.10"},{"currency":"PKR","fxRate":"300"}]},
		{"currency":"EUR","corridors":[{"currency":"BDT","fxRate":140.25}]},
		{"currency":"GBP","corridors":[{"currency":"BDT","fxRate":164.4}]}
	]}`
	p := NewTapTapSendProvider(testTracer(), stubClient(func(req *http.Request) (*http.Response, error) {
		calls.Add(1)
		if req.Header.Get("Appian-Version") != "web/2022-05-03.0" || req.Header.Get("X-Device-Id") != "web" {
			t.Fatalf("missing api headers: %v", req.Header)
		}
		return respond(http.StatusOK, body), nil
	}))

	var wg sync.WaitGroup
	for _, code := range []string{"EUR", "GBP", "USD", "EUR"} {
		wg.Add(1)
		go func(code string) {
			defer wg.Done()
			_, _ = p.FetchRate(context.Background(), code)
		}(code)
	}
	wg.Wait()

	q, err := p.FetchRate(context.Background(), "EUR")
	if err != nil || q.Rate != 140.25 {
		t.Fatalf("expected best EUR corridor 140.25, got %+v %v", q, err)
	}
	if _, err := p.FetchRate(context.Background(), "USD"); !errors.Is(err, ErrNoRate) {
		t.Fatalf("expected ErrNoRate for missing corridor, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one bulk call, got %d", calls.Load())
	}
}

func TestTapTapSendFailureIsKeptForRun(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	p := NewTapTapSendProvider(testTracer(), stubClient(func(req *http.Request) (*http.Response, error) {
		calls.Add(1)
		return respond(http.StatusBadGateway, "bad gateway"), nil
	}))
	for i := 0; i < 3; i++ {
		if _, err := p.FetchRate(context.Background(), "GBP"); err == nil {
			t.Fatal("expected error")
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("expected failure to be cached, got %d calls", calls.Load())
	}
}

func TestNalaProviderFiltersOwnQuotes(t *testing.T) {
	t.Parallel()

	body := `{"data":[
		{"source_currency":"GBP","destination_currency":"BDT","provider_name":"NALA","rate":"166.2"},
		{"source_currency":"GBP","destination_currency":"BDT","provider_name":"Other","rate":"170"},
		{"source_currency":"USD","destination_currency":"KES","provider_name":"NALA","rate":"129"}
	]}`
	p := NewNalaProvider(testTracer(), stubClient(func(req *http.Request) (*http.Response, error) {
		return respond(http.StatusOK, body), nil
	}))

	q, err := p.FetchRate(context.Background(), "GBP")
	if err != nil || q.Rate != 166.2 {
		t.Fatalf("expected 166.2, got %+v %v", q, err)
	}
	if _, err := p.FetchRate(context.Background(), "USD"); !errors.Is(err, ErrNoRate) {
		t.Fatalf("expected ErrNoRate, got %v", err)
	}
}

func TestInstaremProviderShapesAndCache(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	p := NewInstaremProvider(testTracer(), stubClient(func(req *http.Request) (*http.Response, error) {
		calls.Add(1)
		switch req.URL.Path {
		case "/wp-json/instarem/v2/convert-rate/usd/":
			return respond(http.StatusOK, `{"status":true,"data":{"BDT":"121.7","INR":"83"}}`), nil
		case "/wp-json/instarem/v2/convert-rate/sgd/":
			return respond(http.StatusOK, `{"BDT":90.5}`), nil
		default:
			return respond(http.StatusOK, `{"status":true,"data":[]}`), nil
		}
	}))

	for i := 0; i < 2; i++ {
		q, err := p.FetchRate(context.Background(), "USD")
		if err != nil || q.Rate != 121.7 {
			t.Fatalf("expected wrapped USD rate, got %+v %v", q, err)
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("expected cached second lookup, got %d calls", calls.Load())
	}

	q, err := p.FetchRate(context.Background(), "SGD")
	if err != nil || q.Rate != 90.5 {
		t.Fatalf("expected bare SGD rate, got %+v %v", q, err)
	}
	if _, err := p.FetchRate(context.Background(), "JPY"); !errors.Is(err, ErrNoRate) {
		t.Fatalf("expected ErrNoRate, got %v", err)
	}
}

func TestHTMLProviders(t *testing.T) {
	t.Parallel()

	pages := map[string]string{
		"/us/en/bangladesh": `<html><body><div>Everyday rate</div><span>121.35 BDT</span><span>122.90 BDT</span></body></html>`,
		"/currencyconverter/convert/": `<html><body><p>1.00 EUR =</p><p>144.26367589 BDT</p></body></html>`,
		"/currency-converter/aud-to-bdt": `<html><body><table><tr><td>5 AUD</td><td>434.76 BDT</td></tr></table></body></html>`,
		"/en-ca/send-money/from-canada-to-bangladesh": `<html><body>1.00 CAD = 88.45 BDT <em>Fee: 2.50 CAD</em></body></html>`,
	}
	client := stubClient(func(req *http.Request) (*http.Response, error) {
		body, ok := pages[req.URL.Path]
		if !ok {
			return respond(http.StatusNotFound, "not found"), nil
		}
		return respond(http.StatusOK, body), nil
	})

	remitly := NewRemitlyProvider(testTracer(), client)
	remitly.baseURL = "http://example"
	q, err := remitly.FetchRate(context.Background(), "USD")
	if err != nil || q.Rate != 122.90 {
		t.Fatalf("remitly: %+v %v", q, err)
	}
	if _, err := remitly.FetchRate(context.Background(), "JPY"); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("remitly JPY should be unsupported, got %v", err)
	}

	xe := NewXeProvider(testTracer(), client)
	xe.baseURL = "http://example"
	q, err = xe.FetchRate(context.Background(), "EUR")
	if err != nil || q.Rate != 144.26367589 {
		t.Fatalf("xe: %+v %v", q, err)
	}

	orbit := NewOrbitRemitProvider(testTracer(), client)
	orbit.baseURL = "http://example"
	q, err = orbit.FetchRate(context.Background(), "AUD")
	if err != nil || !approx(q.Rate, 86.952) {
		t.Fatalf("orbitremit: %+v %v", q, err)
	}
	if _, err := orbit.FetchRate(context.Background(), "NZD"); err == nil {
		t.Fatal("orbitremit NZD page is missing, expected error")
	}

	paysend := NewPaysendProvider(testTracer(), client)
	paysend.baseURL = "http://example"
	q, err = paysend.FetchRate(context.Background(), "CAD")
	if err != nil || q.Rate != 88.45 || q.Fee == nil || *q.Fee != 2.50 {
		t.Fatalf("paysend: %+v %v", q, err)
	}
	if got := paysend.DisplayURL("AUD"); got != "https://paysend.com/en-au/send-money/from-australia-to-bangladesh" {
		t.Fatalf("paysend display url %s", got)
	}
}

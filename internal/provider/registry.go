package provider

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/ikaadil/any-currency-to-bdt/internal/browser"
)

// Deps are the shared resources providers are built from. Pages and Stealth
// may be nil; the providers that need them then report an error per pair.
type Deps struct {
	Tracer      trace.Tracer
	HTTPClient  *http.Client
	Pages       browser.PageRunner
	Stealth     browser.DocumentFetcher
	WaitTimeout time.Duration
}

// Registry lists every provider in discovery order. Rates that tie keep
// this order in the ranked output.
func Registry(d Deps) []Provider {
	return []Provider{
		NewWiseProvider(d.Tracer, d.HTTPClient),
		NewRemitlyProvider(d.Tracer, d.HTTPClient),
		NewTapTapSendProvider(d.Tracer, d.HTTPClient),
		NewNalaProvider(d.Tracer, d.HTTPClient),
		NewInstaremProvider(d.Tracer, d.HTTPClient),
		NewXeProvider(d.Tracer, d.HTTPClient),
		NewOrbitRemitProvider(d.Tracer, d.HTTPClient),
		NewSendWaveProvider(d.Tracer, d.HTTPClient),
		NewPaysendProvider(d.Tracer, d.HTTPClient),
		NewWesternUnionProvider(d.Tracer, d.Pages, d.WaitTimeout),
		NewWorldRemitProvider(d.Tracer, d.Pages, d.WaitTimeout),
		NewXoomProvider(d.Tracer, d.Pages, d.WaitTimeout),
		NewRiaProvider(d.Tracer, d.Stealth),
		NewMoneyGramProvider(d.Tracer, d.Stealth),
		NewNsaveProvider(d.Tracer, d.Stealth),
	}
}

// Names returns the display names of ps in order.
func Names(ps []Provider) []string {
	names := make([]string, 0, len(ps))
	for _, p := range ps {
		names = append(names, p.Info().Name)
	}
	return names
}

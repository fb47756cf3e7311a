package provider

import (
	"context"
	"io"
	"net/http"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/ikaadil/any-currency-to-bdt/internal/browser"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func testTracer() trace.Tracer {
	return trace.NewNoopTracerProvider().Tracer("test")
}

func stubClient(fn roundTripFunc) *http.Client {
	return &http.Client{Transport: fn}
}

func respond(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

// fakePage serves fixed body text for every URL it is pointed at.
type fakePage struct {
	texts   map[string]string
	current string
	visited *[]string
}

func (p *fakePage) Navigate(ctx context.Context, url string) error {
	p.current = url
	if p.visited != nil {
		*p.visited = append(*p.visited, url)
	}
	return nil
}

func (p *fakePage) WaitForText(ctx context.Context, re *regexp.Regexp, timeout time.Duration) ([]string, error) {
	if m := re.FindStringSubmatch(p.texts[p.current]); m != nil {
		return m, nil
	}
	return nil, browser.ErrTextNotFound
}

func (p *fakePage) Text(ctx context.Context) (string, error) { return p.texts[p.current], nil }

func (p *fakePage) HTML(ctx context.Context) (string, error) {
	return "<html><body>" + p.texts[p.current] + "</body></html>", nil
}

type fakePages struct {
	texts   map[string]string
	opened  atomic.Int32
	visited []string
	err     error
}

func (f *fakePages) WithPage(ctx context.Context, fn func(ctx context.Context, p browser.Page) error) error {
	if f.err != nil {
		return f.err
	}
	f.opened.Add(1)
	return fn(ctx, &fakePage{texts: f.texts, visited: &f.visited})
}

type fakeDocs struct {
	pages map[string]string
	calls atomic.Int32
}

func (f *fakeDocs) FetchHTML(ctx context.Context, url string) (string, error) {
	f.calls.Add(1)
	html, ok := f.pages[url]
	if !ok {
		return "", io.ErrUnexpectedEOF
	}
	return html, nil
}

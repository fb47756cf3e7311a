package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/ikaadil/any-currency-to-bdt/internal/browser"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	maxErrorBody       = 256
)

// NewHTTPClient returns the client shared by every HTTP provider.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &http.Client{Timeout: timeout}
}

// httpFetcher holds what every plain-HTTP provider needs.
type httpFetcher struct {
	client   *http.Client
	tracer   trace.Tracer
	throttle *Throttle
}

func newHTTPFetcher(tracer trace.Tracer, client *http.Client) httpFetcher {
	tracer = tracerOrNoop(tracer)
	if client == nil {
		client = NewHTTPClient(defaultHTTPTimeout)
	}
	return httpFetcher{client: client, tracer: tracer}
}

func tracerOrNoop(t trace.Tracer) trace.Tracer {
	if t == nil {
		return noop.NewTracerProvider().Tracer("provider")
	}
	return t
}

func (f *httpFetcher) get(ctx context.Context, name, url string, header http.Header) ([]byte, error) {
	if err := f.throttle.Wait(ctx); err != nil {
		return nil, fmt.Errorf("throttle wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", browser.DesktopUserAgent)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("%s error %d: %s", name, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return io.ReadAll(resp.Body)
}

func (f *httpFetcher) getJSON(ctx context.Context, name, url string, header http.Header, out any) error {
	if header == nil {
		header = http.Header{}
	}
	if header.Get("Accept") == "" {
		header.Set("Accept", "application/json")
	}
	body, err := f.get(ctx, name, url, header)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse %s response: %w", name, err)
	}
	return nil
}

// getText fetches an HTML page and returns its visible text.
func (f *httpFetcher) getText(ctx context.Context, name, url string) (string, error) {
	body, err := f.get(ctx, name, url, http.Header{"Accept": {"text/html,application/xhtml+xml"}})
	if err != nil {
		return "", err
	}
	return htmlText(body)
}

func htmlText(body []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	return documentText(doc), nil
}

// documentText joins every non-empty text node with single spaces, skipping
// script and style bodies. Unicode spaces collapse to ASCII so patterns can use \s.
func documentText(doc *goquery.Document) string {
	doc.Find("script, style, noscript, template").Remove()

	var parts []string
	var walk func(*goquery.Selection)
	walk = func(s *goquery.Selection) {
		s.Contents().Each(func(_ int, c *goquery.Selection) {
			if goquery.NodeName(c) == "#text" {
				if t := strings.TrimSpace(c.Text()); t != "" {
					parts = append(parts, t)
				}
				return
			}
			walk(c)
		})
	}
	walk(doc.Selection)

	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return ' '
		}
		return r
	}, strings.Join(parts, " "))
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		return parseNumber(n)
	default:
		return 0, false
	}
}

// parseNumber accepts thousands separators ("1,234.5").
func parseNumber(v string) (float64, bool) {
	v = strings.ReplaceAll(strings.TrimSpace(v), ",", "")
	if v == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}

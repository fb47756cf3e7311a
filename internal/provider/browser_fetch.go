package provider

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/trace"

	"github.com/ikaadil/any-currency-to-bdt/internal/browser"
)

const defaultWaitTimeout = 6 * time.Second

// pageFetcher backs the providers whose numbers only appear after client-side rendering.
type pageFetcher struct {
	pages  browser.PageRunner
	tracer trace.Tracer
	wait   time.Duration
}

func newPageFetcher(tracer trace.Tracer, pages browser.PageRunner, wait time.Duration) pageFetcher {
	if wait <= 0 {
		wait = defaultWaitTimeout
	}
	return pageFetcher{pages: pages, tracer: tracerOrNoop(tracer), wait: wait}
}

// match opens url in a pooled tab and waits for re to show up in the rendered text.
func (f *pageFetcher) match(ctx context.Context, url string, re *regexp.Regexp) ([]string, error) {
	if f.pages == nil {
		return nil, errors.New("browser disabled")
	}
	var m []string
	err := f.pages.WithPage(ctx, func(ctx context.Context, pg browser.Page) error {
		if err := pg.Navigate(ctx, url); err != nil {
			return err
		}
		found, err := pg.WaitForText(ctx, re, f.wait)
		if err != nil {
			return err
		}
		m = found
		return nil
	})
	if errors.Is(err, browser.ErrTextNotFound) {
		return nil, ErrNoRate
	}
	return m, err
}

// stealthFetcher backs the providers that block ordinary headless tabs.
type stealthFetcher struct {
	docs   browser.DocumentFetcher
	tracer trace.Tracer
}

// fetch returns the rendered HTML and its visible text.
func (f *stealthFetcher) fetch(ctx context.Context, url string) (html, text string, err error) {
	if f.docs == nil {
		return "", "", errors.New("stealth browser disabled")
	}
	html, err = f.docs.FetchHTML(ctx, url)
	if err != nil {
		return "", "", err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", "", err
	}
	return html, documentText(doc), nil
}

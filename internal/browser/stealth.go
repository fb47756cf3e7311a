package browser

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"golang.org/x/sync/semaphore"

	"github.com/ikaadil/any-currency-to-bdt/internal/logger"
)

// DocumentFetcher returns the fully rendered HTML of a page.
type DocumentFetcher interface {
	FetchHTML(ctx context.Context, url string) (string, error)
}

type StealthOptions struct {
	UserAgent   string
	ExecPath    string
	Timeout     time.Duration
	IdleWindow  time.Duration
	SettleLimit time.Duration
}

func DefaultStealthOptions() StealthOptions {
	return StealthOptions{
		UserAgent:   DesktopUserAgent,
		Timeout:     45 * time.Second,
		IdleWindow:  500 * time.Millisecond,
		SettleLimit: 15 * time.Second,
	}
}

// StealthFetcher loads pages that reject the shared pool's tabs. Every call
// gets its own short-lived browser, and calls run strictly one at a time.
type StealthFetcher struct {
	opts  StealthOptions
	gate  *semaphore.Weighted
	fetch func(ctx context.Context, url string) (string, error)
}

func NewStealthFetcher(opts StealthOptions) *StealthFetcher {
	d := DefaultStealthOptions()
	if opts.UserAgent == "" {
		opts.UserAgent = d.UserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = d.Timeout
	}
	if opts.IdleWindow <= 0 {
		opts.IdleWindow = d.IdleWindow
	}
	if opts.SettleLimit <= 0 {
		opts.SettleLimit = d.SettleLimit
	}
	s := &StealthFetcher{opts: opts, gate: semaphore.NewWeighted(1)}
	s.fetch = s.fetchChrome
	return s
}

func (s *StealthFetcher) FetchHTML(ctx context.Context, url string) (string, error) {
	if err := s.gate.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer s.gate.Release(1)
	return s.fetch(ctx, url)
}

func (s *StealthFetcher) fetchChrome(ctx context.Context, url string) (string, error) {
	allocOpts := allocatorOptions(Options{
		UserAgent: s.opts.UserAgent,
		Width:     1440,
		Height:    900,
		Headless:  true,
		ExecPath:  s.opts.ExecPath,
	})
	allocOpts = append(allocOpts,
		chromedp.Flag("disable-features", "IsolateOrigins,site-per-process"),
		chromedp.Flag("enable-automation", false),
	)

	runCtx, cancelRun := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancelRun()
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(runCtx, allocOpts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	var inflight atomic.Int64
	var lastActivity atomic.Int64
	lastActivity.Store(time.Now().UnixNano())
	chromedp.ListenTarget(browserCtx, trackNetwork(&inflight, &lastActivity))

	err := chromedp.Run(browserCtx,
		network.Enable(),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(maskWebdriverJS).Do(ctx)
			return err
		}),
		chromedp.Navigate(url),
	)
	if err != nil {
		return "", fmt.Errorf("stealth navigate %s: %w", url, err)
	}

	if !waitNetworkIdle(browserCtx, &inflight, &lastActivity, s.opts.IdleWindow, s.opts.SettleLimit) {
		logger.Log.Debugw("network never settled, reading page anyway", "url", url)
	}

	var html string
	if err := chromedp.Run(browserCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("stealth read %s: %w", url, err)
	}
	return html, nil
}

// trackNetwork counts requests in flight and stamps the time of the last
// network event.
func trackNetwork(inflight, last *atomic.Int64) func(ev interface{}) {
	return func(ev interface{}) {
		switch e := ev.(type) {
		case *network.EventRequestWillBeSent:
			// A redirect hop reuses the request ID and never finishes on its own.
			if e.RedirectResponse == nil {
				inflight.Add(1)
			}
		case *network.EventLoadingFinished, *network.EventLoadingFailed:
			inflight.Add(-1)
		default:
			return
		}
		last.Store(time.Now().UnixNano())
	}
}

// waitNetworkIdle blocks until no request has been in flight for window, or
// until limit passes. It reports whether the page went idle.
func waitNetworkIdle(ctx context.Context, inflight, last *atomic.Int64, window, limit time.Duration) bool {
	deadline := time.Now().Add(limit)
	ticker := time.NewTicker(window / 5)
	defer ticker.Stop()
	for {
		quietFor := time.Since(time.Unix(0, last.Load()))
		if inflight.Load() <= 0 && quietFor >= window {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
}

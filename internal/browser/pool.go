package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"golang.org/x/sync/semaphore"

	"github.com/ikaadil/any-currency-to-bdt/internal/logger"
)

// ErrClosed is returned once the pool has been shut down.
var ErrClosed = errors.New("browser pool closed")

// DesktopUserAgent is a current desktop Chrome on macOS.
const DesktopUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"

const maskWebdriverJS = `Object.defineProperty(navigator, 'webdriver', { get: () => undefined });`

type Options struct {
	MaxPages        int
	UserAgent       string
	Width           int64
	Height          int64
	Headless        bool
	ExecPath        string
	NavigateTimeout time.Duration
}

func DefaultOptions() Options {
	return Options{
		MaxPages:        12,
		UserAgent:       DesktopUserAgent,
		Width:           1440,
		Height:          900,
		Headless:        true,
		NavigateTimeout: 10 * time.Second,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxPages <= 0 {
		o.MaxPages = d.MaxPages
	}
	if o.UserAgent == "" {
		o.UserAgent = d.UserAgent
	}
	if o.Width <= 0 || o.Height <= 0 {
		o.Width, o.Height = d.Width, d.Height
	}
	if o.NavigateTimeout <= 0 {
		o.NavigateTimeout = d.NavigateTimeout
	}
	return o
}

// instance is a running browser able to open tabs.
type instance interface {
	newTab(ctx context.Context) (tab, error)
	close() error
}

type tab interface {
	Page
	close()
}

type launchFunc func(ctx context.Context, opts Options) (instance, error)

// Pool shares one headless browser between every browser-backed fetch.
// The browser starts on first use; at most MaxPages tabs are open at once.
type Pool struct {
	opts   Options
	gate   *semaphore.Weighted
	launch launchFunc

	mu       sync.Mutex
	started  bool
	closed   bool
	startErr error
	browser  instance
}

func NewPool(opts Options) *Pool {
	opts = opts.withDefaults()
	return &Pool{
		opts:   opts,
		gate:   semaphore.NewWeighted(int64(opts.MaxPages)),
		launch: launchChrome,
	}
}

// Start launches the browser if it is not running yet. Concurrent callers
// share one launch; a failed launch is reported to every later caller.
func (p *Pool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	if p.started {
		return p.startErr
	}
	p.started = true

	b, err := p.launch(ctx, p.opts)
	if err != nil {
		p.startErr = fmt.Errorf("launch browser: %w", err)
		logger.Log.Warnw("browser launch failed", "error", err)
		return p.startErr
	}
	p.browser = b
	logger.Log.Debugw("browser started", "max_pages", p.opts.MaxPages)
	return nil
}

// Warm starts the browser in the background of a run. Errors surface again
// on the first WithPage call.
func (p *Pool) Warm(ctx context.Context) {
	_ = p.Start(ctx)
}

// WithPage opens a fresh tab, runs fn on it and always closes the tab,
// whether fn returns, fails or ctx is cancelled.
func (p *Pool) WithPage(ctx context.Context, fn func(ctx context.Context, pg Page) error) error {
	if err := p.Start(ctx); err != nil {
		return err
	}
	if err := p.gate.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.gate.Release(1)

	p.mu.Lock()
	b, closed := p.browser, p.closed
	p.mu.Unlock()
	if closed {
		return ErrClosed
	}

	t, err := b.newTab(ctx)
	if err != nil {
		return fmt.Errorf("open tab: %w", err)
	}
	defer t.close()

	return fn(ctx, t)
}

// Close shuts the browser down. Safe to call more than once and before Start.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	if p.browser == nil {
		return nil
	}
	err := p.browser.close()
	p.browser = nil
	return err
}

type chromeBrowser struct {
	opts        Options
	ctx         context.Context
	cancel      context.CancelFunc
	cancelAlloc context.CancelFunc
}

func allocatorOptions(opts Options) []chromedp.ExecAllocatorOption {
	allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	allocOpts = append(allocOpts,
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("lang", "en-US"),
		chromedp.UserAgent(opts.UserAgent),
		chromedp.WindowSize(int(opts.Width), int(opts.Height)),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	return allocOpts
}

func launchChrome(ctx context.Context, opts Options) (instance, error) {
	// The browser outlives the context that happened to start it.
	base := context.WithoutCancel(ctx)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(base, allocatorOptions(opts)...)
	browserCtx, cancel := chromedp.NewContext(allocCtx)

	startCtx, cancelStart := context.WithTimeout(browserCtx, 30*time.Second)
	defer cancelStart()
	if err := chromedp.Run(startCtx); err != nil {
		cancel()
		cancelAlloc()
		return nil, err
	}
	return &chromeBrowser{opts: opts, ctx: browserCtx, cancel: cancel, cancelAlloc: cancelAlloc}, nil
}

func (b *chromeBrowser) newTab(ctx context.Context) (tab, error) {
	tabCtx, cancel := chromedp.NewContext(b.ctx)
	stop := context.AfterFunc(ctx, cancel)

	interceptRequests(tabCtx)
	setup := chromedp.Tasks{
		fetch.Enable(),
		chromedp.EmulateViewport(b.opts.Width, b.opts.Height),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(maskWebdriverJS).Do(ctx)
			return err
		}),
	}
	if err := chromedp.Run(tabCtx, setup); err != nil {
		stop()
		cancel()
		return nil, err
	}

	closeTab := func() {
		stop()
		cancel()
	}
	return &chromeTab{
		chromePage: chromePage{ctx: tabCtx, navigateTimeout: b.opts.NavigateTimeout},
		cancel:     closeTab,
	}, nil
}

func (b *chromeBrowser) close() error {
	err := chromedp.Cancel(b.ctx)
	b.cancel()
	b.cancelAlloc()
	return err
}

type chromeTab struct {
	chromePage
	cancel func()
}

func (t *chromeTab) close() {
	t.cancel()
}

// interceptRequests fails blocked sub-requests and lets everything else through.
func interceptRequests(tabCtx context.Context) {
	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		paused, ok := ev.(*fetch.EventRequestPaused)
		if !ok {
			return
		}
		go func() {
			c := chromedp.FromContext(tabCtx)
			if c == nil || c.Target == nil {
				return
			}
			execCtx := cdp.WithExecutor(tabCtx, c.Target)
			var err error
			if ShouldBlock(string(paused.ResourceType), paused.Request.URL) {
				err = fetch.FailRequest(paused.RequestID, network.ErrorReasonBlockedByClient).Do(execCtx)
			} else {
				err = fetch.ContinueRequest(paused.RequestID).Do(execCtx)
			}
			if err != nil && tabCtx.Err() == nil {
				logger.Log.Debugw("request interception failed", "url", paused.Request.URL, "error", err)
			}
		}()
	})
}

package browser

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/chromedp/chromedp"
)

// ErrTextNotFound is returned by WaitForText when the pattern never shows up.
var ErrTextNotFound = errors.New("pattern not found in page text")

const textPollInterval = 250 * time.Millisecond

// Page is one open browser tab.
type Page interface {
	Navigate(ctx context.Context, url string) error
	// WaitForText polls the rendered body text until re matches and returns
	// the match with its submatches.
	WaitForText(ctx context.Context, re *regexp.Regexp, timeout time.Duration) ([]string, error)
	Text(ctx context.Context) (string, error)
	HTML(ctx context.Context) (string, error)
}

// PageRunner hands out short-lived pages.
type PageRunner interface {
	WithPage(ctx context.Context, fn func(ctx context.Context, p Page) error) error
}

const bodyTextJS = `document.body ? document.body.innerText : ""`

type chromePage struct {
	ctx             context.Context
	navigateTimeout time.Duration
}

// bounded derives a context from the tab that also ends when the caller's ctx does.
func (p *chromePage) bounded(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithTimeout(p.ctx, d)
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

func (p *chromePage) Navigate(ctx context.Context, url string) error {
	runCtx, cancel := p.bounded(ctx, p.navigateTimeout)
	defer cancel()
	if err := chromedp.Run(runCtx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

func (p *chromePage) WaitForText(ctx context.Context, re *regexp.Regexp, timeout time.Duration) ([]string, error) {
	runCtx, cancel := p.bounded(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(textPollInterval)
	defer ticker.Stop()
	for {
		var text string
		if err := chromedp.Run(runCtx, chromedp.Evaluate(bodyTextJS, &text)); err == nil {
			if m := re.FindStringSubmatch(text); m != nil {
				return m, nil
			}
		}
		select {
		case <-runCtx.Done():
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return nil, ErrTextNotFound
		case <-ticker.C:
		}
	}
}

func (p *chromePage) Text(ctx context.Context) (string, error) {
	runCtx, cancel := p.bounded(ctx, p.navigateTimeout)
	defer cancel()
	var text string
	if err := chromedp.Run(runCtx, chromedp.Evaluate(bodyTextJS, &text)); err != nil {
		return "", err
	}
	return text, nil
}

func (p *chromePage) HTML(ctx context.Context) (string, error) {
	runCtx, cancel := p.bounded(ctx, p.navigateTimeout)
	defer cancel()
	var html string
	if err := chromedp.Run(runCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

package browser

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShouldBlock(t *testing.T) {
	cases := []struct {
		resource string
		url      string
		want     bool
	}{
		{"Image", "https://wise.com/logo.png", true},
		{"Stylesheet", "https://wise.com/app.css", true},
		{"Font", "https://fonts.example.com/a.woff2", true},
		{"Media", "https://cdn.example.com/clip.mp4", true},
		{"Script", "https://www.googletagmanager.com/gtm.js", true},
		{"XHR", "https://api-js.mixpanel.com/track", true},
		{"Script", "https://static.hotjar.com/c/hotjar.js", true},
		{"Document", "https://www.westernunion.com/us/en/currency-converter/usd-to-bdt-rate.html", false},
		{"XHR", "https://www.worldremit.com/api/rates", false},
		{"Script", "https://notsegment.io.example.com/x.js", false},
		{"Script", "::not a url", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ShouldBlock(tc.resource, tc.url), "%s %s", tc.resource, tc.url)
	}
}

type fakeTab struct {
	closed *atomic.Int32
}

func (f fakeTab) Navigate(ctx context.Context, url string) error { return nil }
func (f fakeTab) WaitForText(ctx context.Context, re *regexp.Regexp, timeout time.Duration) ([]string, error) {
	return nil, ErrTextNotFound
}
func (f fakeTab) Text(ctx context.Context) (string, error) { return "", nil }
func (f fakeTab) HTML(ctx context.Context) (string, error) { return "<html></html>", nil }
func (f fakeTab) close() { f.closed.Add(1) }

type fakeInstance struct {
	tabsClosed atomic.Int32
	closes     atomic.Int32
}

func (f *fakeInstance) newTab(ctx context.Context) (tab, error) {
	return fakeTab{closed: &f.tabsClosed}, nil
}

func (f *fakeInstance) close() error {
	f.closes.Add(1)
	return nil
}

func newTestPool(maxPages int, inst *fakeInstance, launches *atomic.Int32, launchErr error) *Pool {
	p := NewPool(Options{MaxPages: maxPages})
	p.launch = func(ctx context.Context, opts Options) (instance, error) {
		launches.Add(1)
		if launchErr != nil {
			return nil, launchErr
		}
		return inst, nil
	}
	return p
}

func TestPoolLaunchesOnce(t *testing.T) {
	var launches atomic.Int32
	inst := &fakeInstance{}
	p := newTestPool(4, inst, &launches, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = p.WithPage(context.Background(), func(ctx context.Context, pg Page) error { return nil })
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, launches.Load())
	assert.EqualValues(t, 20, inst.tabsClosed.Load())
}

func TestPoolLaunchFailureIsRemembered(t *testing.T) {
	var launches atomic.Int32
	p := newTestPool(2, nil, &launches, errors.New("chrome not found"))

	for i := 0; i < 3; i++ {
		err := p.WithPage(context.Background(), func(ctx context.Context, pg Page) error {
			t.Fatal("fn must not run without a browser")
			return nil
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "chrome not found")
	}
	assert.EqualValues(t, 1, launches.Load())
}

func TestPoolGateBoundsOpenPages(t *testing.T) {
	var launches atomic.Int32
	inst := &fakeInstance{}
	p := newTestPool(3, inst, &launches, nil)

	var open, peak atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = p.WithPage(context.Background(), func(ctx context.Context, pg Page) error {
				n := open.Add(1)
				for {
					old := peak.Load()
					if n <= old || peak.CompareAndSwap(old, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				open.Add(-1)
				return nil
			})
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, peak.Load(), int32(3))
	assert.Greater(t, peak.Load(), int32(0))
}

func TestPoolClosesTabOnError(t *testing.T) {
	var launches atomic.Int32
	inst := &fakeInstance{}
	p := newTestPool(1, inst, &launches, nil)

	boom := errors.New("boom")
	err := p.WithPage(context.Background(), func(ctx context.Context, pg Page) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.EqualValues(t, 1, inst.tabsClosed.Load())

	// slot was released
	err = p.WithPage(context.Background(), func(ctx context.Context, pg Page) error { return nil })
	assert.NoError(t, err)
}

func TestPoolHonoursCancelledContext(t *testing.T) {
	var launches atomic.Int32
	inst := &fakeInstance{}
	p := newTestPool(1, inst, &launches, nil)
	require.NoError(t, p.Start(context.Background()))

	release := make(chan struct{})
	go func() {
		_ = p.WithPage(context.Background(), func(ctx context.Context, pg Page) error {
			<-release
			return nil
		})
	}()
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := p.WithPage(ctx, func(ctx context.Context, pg Page) error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	close(release)
}

func TestPoolCloseIdempotent(t *testing.T) {
	var launches atomic.Int32
	inst := &fakeInstance{}
	p := newTestPool(2, inst, &launches, nil)

	assert.NoError(t, p.Close(), "close before start")

	p = newTestPool(2, inst, &launches, nil)
	require.NoError(t, p.Start(context.Background()))
	assert.NoError(t, p.Close())
	assert.NoError(t, p.Close())
	assert.EqualValues(t, 1, inst.closes.Load())

	err := p.WithPage(context.Background(), func(ctx context.Context, pg Page) error { return nil })
	assert.ErrorIs(t, err, ErrClosed)
}

func TestStealthFetcherSerializes(t *testing.T) {
	s := NewStealthFetcher(StealthOptions{})
	var running, peak atomic.Int32
	s.fetch = func(ctx context.Context, url string) (string, error) {
		n := running.Add(1)
		if n > peak.Load() {
			peak.Store(n)
		}
		time.Sleep(2 * time.Millisecond)
		running.Add(-1)
		return "<html>" + url + "</html>", nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			html, err := s.FetchHTML(context.Background(), "https://example.com")
			assert.NoError(t, err)
			assert.Contains(t, html, "example.com")
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, peak.Load())
}

func TestStealthFetcherCancelledWhileWaiting(t *testing.T) {
	s := NewStealthFetcher(StealthOptions{})
	release := make(chan struct{})
	s.fetch = func(ctx context.Context, url string) (string, error) {
		<-release
		return "", nil
	}
	go func() { _, _ = s.FetchHTML(context.Background(), "a") }()
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.FetchHTML(ctx, "b")
	assert.ErrorIs(t, err, context.Canceled)
	close(release)
}

func TestWaitNetworkIdle(t *testing.T) {
	var inflight, last atomic.Int64
	last.Store(time.Now().Add(-time.Second).UnixNano())
	assert.True(t, waitNetworkIdle(context.Background(), &inflight, &last, 50*time.Millisecond, time.Second))

	inflight.Store(2)
	assert.False(t, waitNetworkIdle(context.Background(), &inflight, &last, 10*time.Millisecond, 30*time.Millisecond))
}

func TestTrackNetworkIgnoresRedirectHops(t *testing.T) {
	var inflight, last atomic.Int64
	track := trackNetwork(&inflight, &last)

	track(&network.EventRequestWillBeSent{RequestID: "doc"})
	track(&network.EventRequestWillBeSent{RequestID: "doc", RedirectResponse: &network.Response{Status: 301}})
	track(&network.EventRequestWillBeSent{RequestID: "doc", RedirectResponse: &network.Response{Status: 302}})
	track(&network.EventRequestWillBeSent{RequestID: "img"})
	assert.Equal(t, int64(2), inflight.Load())
	assert.NotZero(t, last.Load())

	track(&network.EventLoadingFinished{RequestID: "doc"})
	track(&network.EventLoadingFailed{RequestID: "img"})
	assert.Equal(t, int64(0), inflight.Load())

	stamp := last.Load()
	track(&network.EventResponseReceived{RequestID: "doc"})
	assert.Equal(t, stamp, last.Load())
}

package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/chromedp/chromedp"

	"commoditybot/internal/fetcher"
	"commoditybot/internal/ratelimit"
)

// countScript resolves true once sel matches at least n elements; the caller's
// context bounds how long it is polled.
const countScript = `(sel, n) => document.querySelectorAll(sel).length >= n`

const pollInterval = 100 * time.Millisecond

// ChromeOptions configures the headless browser.
type ChromeOptions struct {
	// ExecPath overrides the Chromium binary; empty lets chromedp search PATH.
	ExecPath  string
	UserAgent string
	// Limiter paces sessions per host; nil disables limiting.
	Limiter *ratelimit.Limiter
	Logger  *slog.Logger
}

// Chrome renders pages in a fresh headless browser process per Load call.
// Every session is torn down before Load returns, whatever the outcome.
type Chrome struct {
	opts    []chromedp.ExecAllocatorOption
	limiter *ratelimit.Limiter
	logger  *slog.Logger
	open    atomic.Int64
}

// NewChrome creates a Chrome loader.
func NewChrome(o ChromeOptions) *Chrome {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", true),
		chromedp.DisableGPU,
		chromedp.NoSandbox,
	)
	if o.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(o.ExecPath))
	}
	ua := o.UserAgent
	if ua == "" {
		ua = fetcher.DefaultUserAgent
	}
	opts = append(opts, chromedp.UserAgent(ua))

	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Chrome{opts: opts, limiter: o.Limiter, logger: logger}
}

// OpenSessions returns the number of browser sessions currently alive.
func (c *Chrome) OpenSessions() int64 {
	return c.open.Load()
}

// Load navigates to url, waits until the page satisfies wait and returns the
// rendered document. A single-element wait uses WaitReady; larger counts poll
// the DOM until enough elements exist.
func (c *Chrome) Load(ctx context.Context, url string, wait Wait) (string, error) {
	if err := c.limiter.Wait(ctx, HostKey(url)); err != nil {
		return "", fetcher.Classify(err)
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, c.opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	c.open.Add(1)
	defer func() {
		cancelTab()
		cancelAlloc()
		c.open.Add(-1)
	}()

	actions := []chromedp.Action{chromedp.Navigate(url)}
	switch {
	case wait.Selector == "":
	case wait.min() == 1:
		actions = append(actions, chromedp.WaitReady(wait.Selector, chromedp.ByQuery))
	default:
		var ready bool
		actions = append(actions, chromedp.PollFunction(countScript, &ready,
			chromedp.WithPollingArgs(wait.Selector, wait.min()),
			chromedp.WithPollingInterval(pollInterval),
			chromedp.WithPollingTimeout(0),
		))
	}
	var html string
	actions = append(actions, chromedp.OuterHTML("html", &html, chromedp.ByQuery))

	if err := chromedp.Run(tabCtx, actions...); err != nil {
		c.logger.Debug("browser session failed", "url", url, "wait", wait.String(), "error", err)
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fetcher.NewTimeoutError(err)
		}
		return "", fetcher.NewNetworkError(fmt.Errorf("render %s: %w", url, err))
	}
	return html, nil
}

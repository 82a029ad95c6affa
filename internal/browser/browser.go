// Package browser loads pages whose data tables only exist after scripts run.
// Chrome drives a headless Chromium session per load; Static fetches the raw
// HTML and is used for pages that render server-side and in tests.
package browser

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"resty.dev/v3"

	"commoditybot/internal/fetcher"
	"commoditybot/internal/ratelimit"
)

// Wait is the readiness condition for a loaded page: at least Count elements
// matching Selector. The zero value accepts any page.
type Wait struct {
	Selector string
	Count    int
}

// Element waits for one element matching sel.
func Element(sel string) Wait {
	return Wait{Selector: sel, Count: 1}
}

// AtLeast waits for n elements matching sel.
func AtLeast(sel string, n int) Wait {
	return Wait{Selector: sel, Count: n}
}

func (w Wait) min() int {
	return max(w.Count, 1)
}

func (w Wait) String() string {
	if w.Selector == "" {
		return "none"
	}
	return fmt.Sprintf("%d x %s", w.min(), w.Selector)
}

// Loader returns the HTML of url once the page satisfies wait.
type Loader interface {
	Load(ctx context.Context, url string, wait Wait) (string, error)
}

// Static fetches the page over plain HTTP without executing scripts.
type Static struct {
	client  *resty.Client
	limiter *ratelimit.Limiter
}

// NewStatic creates a static loader. A nil limiter disables rate limiting.
func NewStatic(client *resty.Client, limiter *ratelimit.Limiter) *Static {
	return &Static{client: client, limiter: limiter}
}

// Load fetches url and fails with a shape error when the page does not
// satisfy wait.
func (s *Static) Load(ctx context.Context, pageURL string, wait Wait) (string, error) {
	if err := s.limiter.Wait(ctx, HostKey(pageURL)); err != nil {
		return "", fetcher.Classify(err)
	}
	body, err := fetcher.GetPage(ctx, s.client, pageURL)
	if err != nil {
		return "", err
	}
	if wait.Selector == "" {
		return body, nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return "", fetcher.NewShapeError("unparseable html: %v", err)
	}
	if n := doc.Find(wait.Selector).Length(); n < wait.min() {
		return "", fetcher.NewShapeError("%d elements match %q, want at least %d", n, wait.Selector, wait.min())
	}
	return body, nil
}

// HostKey returns the rate-limit bucket for a page URL.
func HostKey(pageURL string) ratelimit.Key {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" {
		return ratelimit.Key(pageURL)
	}
	return ratelimit.Key(u.Host)
}

package fetcher

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"resty.dev/v3"
)

const (
	// Default retry configuration
	defaultRetryCount       = 1
	defaultRetryWaitTime    = 500 * time.Millisecond
	defaultRetryMaxWaitTime = 3 * time.Second

	// DefaultUserAgent is sent when the configuration does not override it.
	DefaultUserAgent = "Mozilla/5.0 (compatible; commoditybot/1.0)"
)

// HTTPOptions tunes the clients returned by NewHTTPClient.
type HTTPOptions struct {
	UserAgent  string
	RetryCount int
}

// NewHTTPClient creates a new HTTP client for scraping HTML pages with retry
// logic and exponential backoff. The caller's context bounds the total time.
func NewHTTPClient(opts HTTPOptions) *resty.Client {
	ua := opts.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	retries := opts.RetryCount
	if retries < 0 {
		retries = defaultRetryCount
	}

	client := resty.New().
		SetHeader("User-Agent", ua).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/json;q=0.9,*/*;q=0.8").
		SetRetryCount(retries).
		SetRetryWaitTime(defaultRetryWaitTime).
		SetRetryMaxWaitTime(defaultRetryMaxWaitTime).
		AddRetryConditions(retryCondition).
		AddRetryHooks(retryHook)

	return client
}

// GetPage performs a GET and returns the body of a 2xx response. Transport
// failures and non-2xx statuses come back as classified FetchErrors.
func GetPage(ctx context.Context, client *resty.Client, url string) (string, error) {
	resp, err := client.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return "", classifyTransport(ctx, err)
	}
	if !resp.IsSuccess() {
		return "", ClassifyHTTPError(resp.StatusCode())
	}
	return resp.String(), nil
}

func classifyTransport(ctx context.Context, err error) *FetchError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return NewTimeoutError(err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewTimeoutError(err)
	}
	return NewNetworkError(err)
}

// retryCondition determines whether a request should be retried based on the response and error
func retryCondition(r *resty.Response, err error) bool {
	// Retry on network errors
	if err != nil {
		return true
	}

	// Retry on server errors (5xx)
	if r.StatusCode() >= 500 {
		return true
	}

	// Retry on rate limit (429) and request timeout (408)
	if r.StatusCode() == 429 || r.StatusCode() == 408 {
		return true
	}

	return false
}

// retryHook logs retry attempts for observability
func retryHook(r *resty.Response, err error) {
	if err != nil {
		slog.Debug("retrying request due to error",
			"url", r.Request.URL,
			"attempt", r.Request.Attempt,
			"error", err.Error())
		return
	}

	slog.Debug("retrying request due to status code",
		"url", r.Request.URL,
		"attempt", r.Request.Attempt,
		"status_code", r.StatusCode())
}

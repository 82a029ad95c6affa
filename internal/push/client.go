// Package push talks to the messaging gateway that delivers reports to
// subscribers.
package push

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"resty.dev/v3"

	"commoditybot/internal/render"
)

const (
	// DefaultBaseURL is the gateway API root.
	DefaultBaseURL = "https://api.line.me"

	pushPath = "/v2/bot/message/push"

	// retryKeyHeader lets the gateway drop duplicates when a retried send
	// had in fact been accepted.
	retryKeyHeader = "X-Line-Retry-Key"

	maxErrorBody = 512
)

// Error is a non-2xx answer from the gateway.
type Error struct {
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("push gateway returned %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether resending could succeed.
func (e *Error) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	Token      string
	RetryCount int
	Timeout    time.Duration
}

// Client sends messages through the gateway's push endpoint.
type Client struct {
	http *resty.Client
}

// New creates a push client. The token is required.
func New(opts Options) (*Client, error) {
	if opts.Token == "" {
		return nil, errors.New("push token is required")
	}
	base := opts.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	retries := opts.RetryCount
	if retries < 0 {
		retries = 0
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(base, "/")).
		SetAuthToken(opts.Token).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout).
		SetRetryCount(retries).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(3 * time.Second).
		SetAllowNonIdempotentRetry(true).
		AddRetryConditions(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() == 429 || r.StatusCode() >= 500
		})

	return &Client{http: client}, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	return c.http.Close()
}

// Send implements broadcast.Sender
func (c *Client) Send(ctx context.Context, to string, msg render.Message) error {
	body := pushRequest{To: to, Messages: []message{toMessage(msg)}}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader(retryKeyHeader, uuid.NewString()).
		SetBody(body).
		Post(pushPath)
	if err != nil {
		return fmt.Errorf("push to %s: %w", to, err)
	}
	if !resp.IsSuccess() {
		text := resp.String()
		if len(text) > maxErrorBody {
			text = text[:maxErrorBody]
		}
		return &Error{StatusCode: resp.StatusCode(), Body: text}
	}
	return nil
}

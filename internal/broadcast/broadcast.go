// Package broadcast delivers one rendered report to every subscriber.
package broadcast

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"commoditybot/internal/ratelimit"
	"commoditybot/internal/render"
)

// Sender delivers a message to one recipient.
type Sender interface {
	Send(ctx context.Context, to string, msg render.Message) error
}

// Summary describes one broadcast batch.
type Summary struct {
	BatchID string `json:"batch_id"`
	Total   int    `json:"total"`
	Failed  int    `json:"failed"`
}

// Delivered returns how many recipients were reached.
func (s Summary) Delivered() int {
	return s.Total - s.Failed
}

func (s Summary) String() string {
	return fmt.Sprintf("batch %s: %d/%d delivered", s.BatchID, s.Delivered(), s.Total)
}

// Dispatcher fans a message out to recipients with bounded concurrency.
type Dispatcher struct {
	sender      Sender
	limiter     *ratelimit.Limiter
	concurrency int
	sendTimeout time.Duration
	logger      *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithConcurrency caps in-flight sends; values below 1 mean sequential.
func WithConcurrency(n int) Option {
	return func(d *Dispatcher) { d.concurrency = n }
}

// WithLimiter paces sends through the push bucket of l.
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(d *Dispatcher) { d.limiter = l }
}

// WithSendTimeout bounds each individual send.
func WithSendTimeout(t time.Duration) Option {
	return func(d *Dispatcher) { d.sendTimeout = t }
}

// WithLogger sets the logger for per-recipient failures.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// New creates a dispatcher around sender.
func New(sender Sender, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		sender:      sender,
		concurrency: 4,
		sendTimeout: 15 * time.Second,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.concurrency < 1 {
		d.concurrency = 1
	}
	return d
}

// Broadcast sends msg to every id. A failure for one recipient is logged and
// counted; it never stops delivery to the others.
func (d *Dispatcher) Broadcast(ctx context.Context, msg render.Message, ids []string) Summary {
	sum := Summary{BatchID: uuid.NewString(), Total: len(ids)}
	if len(ids) == 0 {
		d.logger.Info("broadcast skipped, no subscribers", "batch", sum.BatchID)
		return sum
	}

	var failed atomic.Int64
	p := pool.New().WithMaxGoroutines(d.concurrency)
	for _, id := range ids {
		p.Go(func() {
			if err := d.send(ctx, id, msg); err != nil {
				failed.Add(1)
				d.logger.Warn("broadcast delivery failed",
					"batch", sum.BatchID,
					"subscriber", id,
					"error", err)
			}
		})
	}
	p.Wait()

	sum.Failed = int(failed.Load())
	d.logger.Info("broadcast complete",
		"batch", sum.BatchID,
		"total", sum.Total,
		"failed", sum.Failed)
	return sum
}

func (d *Dispatcher) send(ctx context.Context, id string, msg render.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sender panic: %v", r)
		}
	}()

	if err := d.limiter.Wait(ctx, ratelimit.KeyPush); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}
	if d.sendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.sendTimeout)
		defer cancel()
	}
	return d.sender.Send(ctx, id, msg)
}

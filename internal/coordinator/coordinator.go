package coordinator

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sourcegraph/conc"

	"commoditybot/internal/fetcher"
	"commoditybot/internal/report"
)

// ErrNoSources is returned when a report is requested with nothing configured.
var ErrNoSources = errors.New("no sources configured")

// Source binds a fetcher to its slot in the report.
type Source struct {
	ID       string
	Category report.Category
	Label    string
	Fetcher  fetcher.Fetcher
	// Timeout bounds this source alone; zero uses the coordinator default.
	Timeout time.Duration
}

// Coordinator manages concurrent fetchers and aggregates results
type Coordinator struct {
	sources        []Source
	defaultTimeout time.Duration
	logger         *slog.Logger
	now            func() time.Time
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger used for per-source outcomes.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// WithDefaultTimeout sets the deadline applied to sources without their own.
func WithDefaultTimeout(d time.Duration) Option {
	return func(c *Coordinator) { c.defaultTimeout = d }
}

// WithClock overrides time.Now for GeneratedAt.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// New creates a new Coordinator with the given sources
func New(sources []Source, opts ...Option) *Coordinator {
	c := &Coordinator{
		sources:        append([]Source(nil), sources...),
		defaultTimeout: 30 * time.Second,
		logger:         slog.Default(),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Len returns the number of configured sources.
func (c *Coordinator) Len() int {
	return len(c.sources)
}

// BuildReport executes all fetchers concurrently and assembles a report with
// exactly one entry per configured source, in configuration order. Source
// failures and timeouts are recorded in their entry; they never fail the call.
func (c *Coordinator) BuildReport(ctx context.Context) (*report.Report, error) {
	if len(c.sources) == 0 {
		return nil, ErrNoSources
	}

	// Each goroutine owns one slot, so no lock is needed.
	entries := make([]report.Entry, len(c.sources))

	var wg conc.WaitGroup
	for i, src := range c.sources {
		wg.Go(func() {
			timeout := src.Timeout
			if timeout <= 0 {
				timeout = c.defaultTimeout
			}

			start := time.Now()
			res := fetcher.Collect(ctx, src.Fetcher, timeout)
			entries[i] = report.Entry{
				ID:       src.ID,
				Category: src.Category,
				Label:    src.Label,
				Result:   res,
			}

			if res.OK() {
				c.logger.Info("source fetched",
					"source", src.ID,
					"key", res.Key,
					"quotes", len(res.Quotes),
					"duration", time.Since(start))
				return
			}
			c.logger.Warn("source failed",
				"source", src.ID,
				"key", res.Key,
				"kind", res.Kind(),
				"reason", res.Reason(),
				"duration", time.Since(start))
		})
	}
	wg.Wait()

	return report.New(entries, c.now()), nil
}

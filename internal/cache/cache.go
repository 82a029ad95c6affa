// Package cache holds the most recently built report so read paths never wait
// on scraping.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"commoditybot/internal/report"
)

// ErrEmpty is returned by Get before the first successful Refresh.
var ErrEmpty = errors.New("report cache not yet populated")

// Builder produces a fresh report; *coordinator.Coordinator implements it.
type Builder interface {
	BuildReport(ctx context.Context) (*report.Report, error)
}

// Cache serves the last report and coalesces concurrent refreshes into one
// build. It starts empty and is only filled by Refresh.
type Cache struct {
	builder Builder
	logger  *slog.Logger
	now     func() time.Time

	mu          sync.RWMutex
	current     *report.Report
	refreshedAt time.Time

	// coalesce concurrent refreshes
	sf singleflight.Group
}

// New creates an empty cache.
func New(builder Builder, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{builder: builder, logger: logger, now: time.Now}
}

// Get returns a copy of the held report and when it was stored, or ErrEmpty.
func (c *Cache) Get() (*report.Report, time.Time, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return nil, time.Time{}, ErrEmpty
	}
	return c.current.Clone(), c.refreshedAt, nil
}

// Refresh builds a new report and replaces the held one. A call made while
// another refresh is running waits for that refresh and shares its result;
// every caller gets its own copy. A build error leaves the held report
// untouched.
func (c *Cache) Refresh(ctx context.Context) (*report.Report, error) {
	v, err, shared := c.sf.Do("refresh", func() (any, error) {
		start := c.now()
		rep, err := c.builder.BuildReport(ctx)
		if err != nil {
			return nil, fmt.Errorf("build report: %w", err)
		}

		c.mu.Lock()
		c.current = rep
		c.refreshedAt = c.now()
		c.mu.Unlock()

		c.logger.Info("report refreshed",
			"sources", rep.Len(),
			"succeeded", rep.Succeeded(),
			"duration", c.now().Sub(start))
		return rep, nil
	})
	if err != nil {
		c.logger.Error("report refresh failed", "error", err, "shared", shared)
		return nil, err
	}
	return v.(*report.Report).Clone(), nil
}

// Fresh returns the held report when it is younger than maxAge and refreshes
// otherwise. A non-positive maxAge always serves the cache when populated.
func (c *Cache) Fresh(ctx context.Context, maxAge time.Duration) (*report.Report, error) {
	rep, at, err := c.Get()
	if err == nil && (maxAge <= 0 || c.now().Sub(at) < maxAge) {
		return rep, nil
	}
	return c.Refresh(ctx)
}

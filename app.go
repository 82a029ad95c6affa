package main

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"commoditybot/internal/broadcast"
	"commoditybot/internal/browser"
	"commoditybot/internal/businessanalytiq"
	"commoditybot/internal/cache"
	"commoditybot/internal/cnyes"
	"commoditybot/internal/config"
	"commoditybot/internal/coordinator"
	"commoditybot/internal/fetcher"
	"commoditybot/internal/ppi100"
	"commoditybot/internal/ratelimit"
	"commoditybot/internal/render"
	"commoditybot/internal/report"
	"commoditybot/internal/subscriber"
	"commoditybot/internal/ycharts"
)

// Source ids in report order.
const (
	sourceCoconut   = "coconut-carbon"
	sourceCoalIndex = "coal-index"
	sourceBromine   = "bromine"

	coconutLabel = "椰殼活性碳"
)

func futuresID(i int) string {
	return fmt.Sprintf("coal-futures-%d", i+1)
}

// loaders holds the page loaders sources are built on. Static serves pages
// rendered server-side; Rendered serves script-driven tables.
type loaders struct {
	Static   browser.Loader
	Rendered browser.Loader
}

func newLoaders(cfg *config.Config, limiter *ratelimit.Limiter, logger *slog.Logger) loaders {
	client := fetcher.NewHTTPClient(fetcher.HTTPOptions{
		UserAgent:  cfg.HTTP.UserAgent,
		RetryCount: cfg.HTTP.RetryCount,
	})
	static := browser.NewStatic(client, limiter)

	l := loaders{Static: static, Rendered: static}
	if cfg.Browser.Mode == "chrome" {
		l.Rendered = browser.NewChrome(browser.ChromeOptions{
			ExecPath:  cfg.Browser.ExecPath,
			UserAgent: cfg.HTTP.UserAgent,
			Limiter:   limiter,
			Logger:    logger,
		})
	}
	return l
}

// buildSources lists every configured source in report order: coconut,
// coal index, each futures instrument, bromine.
func buildSources(cfg *config.Config, l loaders) []coordinator.Source {
	sc := cfg.Sources
	sources := []coordinator.Source{
		{
			ID:       sourceCoconut,
			Category: report.CategoryCoconut,
			Label:    coconutLabel,
			Fetcher:  businessanalytiq.NewCharcoalFetcher(sc.Coconut.URL, sc.Coconut.Marker, l.Static),
			Timeout:  sc.Coconut.Timeout,
		},
		{
			ID:       sourceCoalIndex,
			Category: report.CategoryCoal,
			Label:    sc.CoalIndex.Name,
			Fetcher:  ycharts.NewIndicatorFetcher(sc.CoalIndex.URL, sc.CoalIndex.Name, l.Rendered),
			Timeout:  sc.CoalIndex.Timeout,
		},
	}

	for i, in := range sc.CoalFutures.Instruments {
		f := cnyes.NewFuturesFetcher(sc.CoalFutures.URL, cnyes.Instrument{Name: in.Name, Keywords: in.Keywords}, l.Rendered)
		sources = append(sources, coordinator.Source{
			ID:       futuresID(i),
			Category: report.CategoryCoal,
			Label:    f.Name(),
			Fetcher:  f,
			Timeout:  sc.CoalFutures.Timeout,
		})
	}

	sources = append(sources, coordinator.Source{
		ID:       sourceBromine,
		Category: report.CategoryBromine,
		Label:    sc.Bromine.Name,
		Fetcher:  ppi100.NewBromineFetcher(sc.Bromine.URL, sc.Bromine.Name, sc.Bromine.ComputeChange, l.Rendered),
		Timeout:  sc.Bromine.Timeout,
	})
	return sources
}

// app is the wired set of components one command runs against.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	limiter  *ratelimit.Limiter
	cache    *cache.Cache
	renderer render.Renderer
	registry subscriber.Registry
}

func newApp(cfg *config.Config, logger *slog.Logger, l loaders, limiter *ratelimit.Limiter) (*app, error) {
	renderer, err := render.ForFormat(cfg.Render.Format, cfg.Location())
	if err != nil {
		return nil, err
	}
	registry, err := subscriber.Open(cfg.Subscribers.Backend, cfg.Subscribers.Path)
	if err != nil {
		return nil, fmt.Errorf("open subscribers: %w", err)
	}

	coord := coordinator.New(buildSources(cfg, l),
		coordinator.WithLogger(logger),
		coordinator.WithDefaultTimeout(cfg.Sources.Timeout))

	return &app{
		cfg:      cfg,
		logger:   logger,
		limiter:  limiter,
		cache:    cache.New(coord, logger),
		renderer: renderer,
		registry: registry,
	}, nil
}

func (a *app) Close() error {
	return a.registry.Close()
}

func (a *app) dispatcher(sender broadcast.Sender) *broadcast.Dispatcher {
	return broadcast.New(sender,
		broadcast.WithConcurrency(a.cfg.Push.Concurrency),
		broadcast.WithLimiter(a.limiter),
		broadcast.WithSendTimeout(a.cfg.Push.Timeout),
		broadcast.WithLogger(a.logger))
}

func printSummary(w io.Writer, sum broadcast.Summary, took time.Duration) {
	fmt.Fprintf(w, "%s (%d failed) in %s\n", sum, sum.Failed, took.Round(time.Millisecond))
}

package fetcher

import "context"

// Fetcher is the core interface that all source adapters must implement.
// Each fetcher knows how to retrieve and parse exactly one external page.
type Fetcher interface {
	// Fetch retrieves the page and returns its quotes in the source's display order.
	// Returns an error if the page cannot be reached or does not have the expected shape.
	Fetch(ctx context.Context) ([]Quote, error)

	// Key returns a hierarchical identifier for this fetcher, used in logs.
	// Format: fetcher:{source}:{identifier}
	// Examples:
	//   - fetcher:businessanalytiq:activated-charcoal
	//   - fetcher:cnyes:大連焦煤
	Key() string
}

package fetcher

import (
	"context"
	"fmt"
	"time"
)

// Collect runs f under its own deadline and converts every outcome, including
// a panic, into a Result. It never returns an error and never panics.
func Collect(ctx context.Context, f Fetcher, timeout time.Duration) (res Result) {
	key := f.Key()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	defer func() {
		if p := recover(); p != nil {
			res = Failure(key, &FetchError{
				Type:    ErrorTypeUnknown,
				Message: fmt.Sprintf("fetcher panicked: %v", p),
			})
		}
	}()

	quotes, err := f.Fetch(ctx)
	if err != nil {
		// A source that swallowed the context error still lost the race.
		if ctxErr := ctx.Err(); ctxErr != nil && Classify(err).Type == ErrorTypeUnknown {
			err = ctxErr
		}
		return Failure(key, err)
	}
	return Success(key, quotes)
}

package fetcher

// Result represents the outcome of one adapter invocation.
// Exactly one of Quotes (success, possibly empty) or Error (failure) is meaningful.
type Result struct {
	// Key is the hierarchical key of the fetcher that produced the result
	Key string

	// Quotes holds the parsed data points in the source's display order.
	Quotes []Quote

	// Error is the classified failure. If Error is not nil, Quotes is empty.
	Error *FetchError
}

// Success builds a successful result.
func Success(key string, quotes []Quote) Result {
	if quotes == nil {
		quotes = []Quote{}
	}
	return Result{Key: key, Quotes: quotes}
}

// Failure builds a failed result from any error.
func Failure(key string, err error) Result {
	fe := Classify(err)
	if fe == nil {
		fe = &FetchError{Type: ErrorTypeUnknown, Message: "failure without cause"}
	}
	return Result{Key: key, Error: fe}
}

// OK reports whether the result is a success.
func (r Result) OK() bool {
	return r.Error == nil
}

// Empty reports whether the result is a success that carried no quotes.
func (r Result) Empty() bool {
	return r.Error == nil && len(r.Quotes) == 0
}

// Reason returns the human-readable failure cause, or "" for a success.
func (r Result) Reason() string {
	if r.Error == nil {
		return ""
	}
	return r.Error.Error()
}

// Kind returns the failure's taxonomy type, or "" for a success.
func (r Result) Kind() ErrorType {
	if r.Error == nil {
		return ""
	}
	return r.Error.Type
}

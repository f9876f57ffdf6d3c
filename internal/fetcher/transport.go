package fetcher

import "context"

// Response is the raw result of one GET.
type Response struct {
	StatusCode int
	Body       []byte
}

// Transport performs a single GET. It returns an error only when no HTTP response
// was received; non-2xx statuses are reported through Response.StatusCode.
type Transport interface {
	Get(ctx context.Context, url string) (Response, error)
}

package pagegen

import (
	"context"
	"time"
)

// EntityFetcher retrieves one entity. Implementations never return an error out of band;
// every failure is reported through the FetchResult.
type EntityFetcher interface {
	Fetch(ctx context.Context, id int) FetchResult
}

// PageStore persists rendered pages. Paths are slash-separated and relative to the store root.
type PageStore interface {
	WritePage(ctx context.Context, path string, data []byte) (string, error)
	// Clean removes everything under prefix. Missing prefixes are not an error.
	Clean(ctx context.Context, prefix string) error
}

// SummaryStore records a finished run somewhere durable.
type SummaryStore interface {
	StoreSummary(ctx context.Context, summary RunSummary) error
}

// Publisher pushes run notifications to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run IDs.
type IDGenerator interface {
	NewID() (string, error)
}

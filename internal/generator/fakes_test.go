package generator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/JakeFAU/gigaspace-pagegen/internal/pagegen"
	"github.com/JakeFAU/gigaspace-pagegen/internal/storage/memory"
)

type fakeFetcher struct {
	mu       sync.Mutex
	results  map[int]pagegen.FetchResult
	fallback pagegen.FetchResult
	calls    map[int]int
}

func newFakeFetcher(results map[int]pagegen.FetchResult) *fakeFetcher {
	if results == nil {
		results = map[int]pagegen.FetchResult{}
	}
	return &fakeFetcher{results: results, fallback: pagegen.NotFound(), calls: map[int]int{}}
}

func (f *fakeFetcher) Fetch(_ context.Context, id int) pagegen.FetchResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[id]++
	if res, ok := f.results[id]; ok {
		return res
	}
	return f.fallback
}

func (f *fakeFetcher) callsFor(id int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id]
}

func (f *fakeFetcher) ids() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int, 0, len(f.calls))
	for id := range f.calls {
		out = append(out, id)
	}
	return out
}

// failingStore fails writes whose path contains failOn.
type failingStore struct {
	*memory.PageStore
	failOn   string
	cleanErr error
}

func (s *failingStore) WritePage(ctx context.Context, path string, data []byte) (string, error) {
	if s.failOn != "" && strings.Contains(path, s.failOn) {
		return "", errors.New("disk full")
	}
	return s.PageStore.WritePage(ctx, path, data)
}

func (s *failingStore) Clean(ctx context.Context, prefix string) error {
	if s.cleanErr != nil {
		return s.cleanErr
	}
	return s.PageStore.Clean(ctx, prefix)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeSummaryStore struct {
	mu     sync.Mutex
	stored []pagegen.RunSummary
	err    error
}

func (s *fakeSummaryStore) StoreSummary(_ context.Context, summary pagegen.RunSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.stored = append(s.stored, summary)
	return nil
}

type fixedIDs struct{ id string }

func (f fixedIDs) NewID() (string, error) { return f.id, nil }

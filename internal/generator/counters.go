package generator

import (
	"sort"
	"sync"
	"sync/atomic"
)

// Counters accumulates the outcome of one run. All methods are safe for concurrent use.
type Counters struct {
	total         atomic.Int64
	processed     atomic.Int64
	successful    atomic.Int64
	missing       atomic.Int64
	errors        atomic.Int64
	totalPages    atomic.Int64
	writeFailures atomic.Int64

	mu         sync.Mutex
	categories map[string]struct{}
}

// Snapshot is a point-in-time copy of Counters.
type Snapshot struct {
	Total         int64    `json:"total"`
	Processed     int64    `json:"processed"`
	Successful    int64    `json:"successful"`
	Missing       int64    `json:"missing"`
	Errors        int64    `json:"errors"`
	TotalPages    int64    `json:"total_pages"`
	WriteFailures int64    `json:"write_failures"`
	Categories    []string `json:"categories"`
}

// NewCounters returns zeroed counters for a run over total entities.
func NewCounters(total int) *Counters {
	c := &Counters{categories: make(map[string]struct{})}
	c.total.Store(int64(total))
	return c
}

// entityDone records the single processed increment an entity contributes.
func (c *Counters) entityDone(usedDefault, transportError bool) {
	if usedDefault {
		c.missing.Add(1)
	} else {
		c.successful.Add(1)
	}
	if transportError {
		c.errors.Add(1)
	}
	c.processed.Add(1)
}

func (c *Counters) pageWritten() {
	c.totalPages.Add(1)
}

func (c *Counters) pageFailed() {
	c.writeFailures.Add(1)
}

func (c *Counters) addCategory(category string) {
	if category == "" {
		return
	}
	c.mu.Lock()
	c.categories[category] = struct{}{}
	c.mu.Unlock()
}

// Processed returns the number of entities finished so far.
func (c *Counters) Processed() int64 {
	return c.processed.Load()
}

// Snapshot copies the current values. Categories are sorted.
func (c *Counters) Snapshot() Snapshot {
	c.mu.Lock()
	categories := make([]string, 0, len(c.categories))
	for cat := range c.categories {
		categories = append(categories, cat)
	}
	c.mu.Unlock()
	sort.Strings(categories)

	return Snapshot{
		Total:         c.total.Load(),
		Processed:     c.processed.Load(),
		Successful:    c.successful.Load(),
		Missing:       c.missing.Load(),
		Errors:        c.errors.Load(),
		TotalPages:    c.totalPages.Load(),
		WriteFailures: c.writeFailures.Load(),
		Categories:    categories,
	}
}

// Package memory keeps generated pages in memory for tests and dry runs.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// PageStore stores pages keyed by path and returns memory:// URIs.
type PageStore struct {
	mu     sync.RWMutex
	pages  map[string][]byte
	writes int
}

// NewPageStore creates an empty in-memory page store.
func NewPageStore() *PageStore {
	return &PageStore{pages: make(map[string][]byte)}
}

// WritePage copies data so callers may reuse their buffer.
func (s *PageStore) WritePage(_ context.Context, path string, data []byte) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("path is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[path] = append([]byte(nil), data...)
	s.writes++
	return "memory://" + path, nil
}

// Clean drops every page under prefix.
func (s *PageStore) Clean(_ context.Context, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	dir := strings.TrimSuffix(prefix, "/") + "/"
	for p := range s.pages {
		if strings.HasPrefix(p, dir) {
			delete(s.pages, p)
		}
	}
	return nil
}

// Page returns a copy of the stored page.
func (s *PageStore) Page(path string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.pages[path]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), data...), true
}

// Paths lists stored paths in sorted order.
func (s *PageStore) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.pages))
	for p := range s.pages {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Writes reports how many WritePage calls succeeded.
func (s *PageStore) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

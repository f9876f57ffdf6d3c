package pagegen

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// EntityRecord is one character served by the remote API, or a synthesized placeholder.
type EntityRecord struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Tags        Tags   `json:"tags"`
	Image       string `json:"image"`
	Category    string `json:"category"`

	// TotalCount is only populated by the API on id 1.
	TotalCount Count `json:"totalCount,omitempty"`
}

// Count decodes a JSON number or a numeric string. Anything else decodes as zero
// rather than failing the whole record.
type Count int

// UnmarshalJSON implements json.Unmarshaler.
func (c *Count) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = strings.TrimSpace(unquoted)
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil || n < 0 {
		*c = 0
		return nil
	}
	*c = Count(n)
	return nil
}

// Tags decodes either a JSON array of strings or a single comma-separated string.
type Tags []string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Tags) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = nil
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*t = compactTags(list)
		return nil
	}
	var joined string
	if err := json.Unmarshal(data, &joined); err != nil {
		return fmt.Errorf("tags must be a string or list of strings: %w", err)
	}
	*t = compactTags(strings.Split(joined, ","))
	return nil
}

func compactTags(in []string) Tags {
	out := make(Tags, 0, len(in))
	for _, tag := range in {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

// FetchStatus classifies the outcome of a fetch.
type FetchStatus string

// Fetch outcomes.
const (
	FetchOK       FetchStatus = "ok"
	FetchNotFound FetchStatus = "not_found"
	FetchError    FetchStatus = "error"
)

// FetchResult is the typed outcome of fetching one entity. Record is set only for FetchOK,
// Message only for FetchError.
type FetchResult struct {
	Status  FetchStatus
	Record  EntityRecord
	Message string
}

// Found builds a successful result.
func Found(record EntityRecord) FetchResult {
	return FetchResult{Status: FetchOK, Record: record}
}

// NotFound builds an absence result.
func NotFound() FetchResult {
	return FetchResult{Status: FetchNotFound}
}

// Failed builds an error result.
func Failed(format string, args ...any) FetchResult {
	return FetchResult{Status: FetchError, Message: fmt.Sprintf(format, args...)}
}

// OK reports whether the fetch produced a usable record.
func (r FetchResult) OK() bool {
	return r.Status == FetchOK
}

// TargetKind distinguishes the canonical page from the category-scoped copy.
type TargetKind string

// Target kinds.
const (
	TargetCanonical TargetKind = "canonical"
	TargetCategory  TargetKind = "category"
)

// PageTarget is one output location for an entity page.
type PageTarget struct {
	Kind         TargetKind
	FilePath     string
	CanonicalURL string
}

// RunSummary is persisted once at the end of a generation run.
type RunSummary struct {
	RunID              string    `json:"run_id"`
	Timestamp          time.Time `json:"timestamp"`
	DurationSeconds    float64   `json:"duration_seconds"`
	ThroughputPerSec   float64   `json:"throughput_per_second"`
	TotalEntities      int       `json:"total_entities"`
	Processed          int64     `json:"processed"`
	Successful         int64     `json:"successful"`
	Missing            int64     `json:"missing"`
	NotFound           int64     `json:"not_found"`
	Errors             int64     `json:"errors"`
	TotalPages         int64     `json:"total_pages"`
	WriteFailures      int64     `json:"write_failures"`
	CategoryPages      bool      `json:"category_pages"`
	Categories         []string  `json:"categories"`
	MaxObservedPermits int64     `json:"max_observed_permits"`
}

// Duration returns the run duration as a time.Duration.
func (s RunSummary) Duration() time.Duration {
	return time.Duration(s.DurationSeconds * float64(time.Second))
}

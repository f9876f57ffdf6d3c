// Package summary reports and persists the outcome of a generation run.
package summary

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/JakeFAU/gigaspace-pagegen/internal/pagegen"
)

// WriteFile writes s as indented JSON, creating parent directories.
func WriteFile(path string, s pagegen.RunSummary) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("summary path is required")
	}
	if s.Categories == nil {
		s.Categories = []string{}
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create summary directory: %w", err)
	}
	// #nosec G306 -- the summary is published alongside the static site.
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

// ReadFile loads a summary written by WriteFile.
func ReadFile(path string) (pagegen.RunSummary, error) {
	var s pagegen.RunSummary
	// #nosec G304 -- path comes from operator configuration.
	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("read summary: %w", err)
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("decode summary: %w", err)
	}
	return s, nil
}

// Remove deletes a previous summary. A missing file is not an error.
func Remove(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove summary: %w", err)
	}
	return nil
}

// WriteReport prints the human-readable end-of-run report.
func WriteReport(w io.Writer, s pagegen.RunSummary) error {
	rows := [][2]string{
		{"Run ID", s.RunID},
		{"Duration", s.Duration().Round(100 * time.Millisecond).String()},
		{"Entities", humanize.Comma(int64(s.TotalEntities))},
		{"Processed", humanize.Comma(s.Processed)},
		{"Successful", humanize.Comma(s.Successful)},
		{"Missing", fmt.Sprintf("%s (not found %s, errors %s)",
			humanize.Comma(s.Missing), humanize.Comma(s.NotFound), humanize.Comma(s.Errors))},
		{"Pages written", humanize.Comma(s.TotalPages)},
		{"Write failures", humanize.Comma(s.WriteFailures)},
		{"Throughput", fmt.Sprintf("%.1f entities/s", s.ThroughputPerSec)},
		{"Categories", humanize.Comma(int64(len(s.Categories)))},
		{"Peak workers", humanize.Comma(s.MaxObservedPermits)},
	}
	var b strings.Builder
	b.WriteString("Generation complete\n")
	for _, row := range rows {
		fmt.Fprintf(&b, "  %-15s %s\n", row[0]+":", row[1])
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

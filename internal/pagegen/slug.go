package pagegen

import (
	"regexp"
	"strings"
)

var (
	slugDisallowed = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugSeparators = regexp.MustCompile(`[\s-]+`)
)

// FallbackSlug is used when a name yields no usable characters.
const FallbackSlug = "character"

// Slugify derives a lowercase, hyphen-separated, URL-safe slug from name.
func Slugify(name string) string {
	if s := slugOrEmpty(name); s != "" {
		return s
	}
	return FallbackSlug
}

// CategorySegment reduces a category to a path-safe directory name, falling back to
// DefaultCategory when nothing usable remains.
func CategorySegment(category string) string {
	if s := slugOrEmpty(category); s != "" {
		return s
	}
	return DefaultCategory
}

func slugOrEmpty(raw string) string {
	s := strings.ToLower(raw)
	s = slugDisallowed.ReplaceAllString(s, "")
	s = slugSeparators.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Package render stamps entity metadata into the shared base HTML document.
package render

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/JakeFAU/gigaspace-pagegen/internal/pagegen"
)

// MaxDescriptionRunes bounds the description used in meta tags.
const MaxDescriptionRunes = 160

// DefaultSiteName is used when Config.SiteName is empty.
const DefaultSiteName = "GigaSpace"

var titlePattern = regexp.MustCompile(`(?is)<title>.*?</title>`)

var htmlEscaper = strings.NewReplacer(
	`"`, "&quot;",
	`'`, "&#39;",
	`<`, "&lt;",
	`>`, "&gt;",
)

// Config controls site-wide values stamped into every page.
type Config struct {
	SiteName string
	BaseURL  string
}

// Renderer is stateless after construction and safe for concurrent use.
type Renderer struct {
	siteName string
	baseURL  string
}

// New builds a Renderer.
func New(cfg Config) *Renderer {
	name := strings.TrimSpace(cfg.SiteName)
	if name == "" {
		name = DefaultSiteName
	}
	return &Renderer{
		siteName: name,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// Title returns the page title for an entity before escaping.
func (r *Renderer) Title(entity pagegen.EntityRecord) string {
	return fmt.Sprintf("Chat with %s | %s", entity.Name, r.siteName)
}

// Render replaces the first <title> element of tmpl and inserts the SEO meta block
// immediately before the first </head>. Nothing else in tmpl changes.
func (r *Renderer) Render(entity pagegen.EntityRecord, tmpl string, canonicalURL string) string {
	title := Escape(r.Title(entity))
	out := tmpl
	if loc := titlePattern.FindStringIndex(out); loc != nil {
		out = out[:loc[0]] + "<title>" + title + "</title>" + out[loc[1]:]
	}

	idx := strings.Index(out, "</head>")
	if idx < 0 {
		return out
	}
	return out[:idx] + r.MetaBlock(entity, canonicalURL) + out[idx:]
}

// MetaBlock builds the description, Open Graph, Twitter Card and canonical tags.
func (r *Renderer) MetaBlock(entity pagegen.EntityRecord, canonicalURL string) string {
	title := Escape(r.Title(entity))
	desc := Escape(Truncate(entity.Description, MaxDescriptionRunes))
	image := Escape(r.resolveImage(entity.Image))
	url := Escape(canonicalURL)

	var b strings.Builder
	line := func(format string, args ...any) {
		b.WriteString("    ")
		fmt.Fprintf(&b, format, args...)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	line(`<meta name="description" content="%s">`, desc)
	if len(entity.Tags) > 0 {
		line(`<meta name="keywords" content="%s">`, Escape(strings.Join(entity.Tags, ", ")))
	}
	line(`<meta property="og:type" content="website">`)
	line(`<meta property="og:site_name" content="%s">`, Escape(r.siteName))
	line(`<meta property="og:title" content="%s">`, title)
	line(`<meta property="og:description" content="%s">`, desc)
	line(`<meta property="og:image" content="%s">`, image)
	line(`<meta property="og:url" content="%s">`, url)
	line(`<meta name="twitter:card" content="summary_large_image">`)
	line(`<meta name="twitter:title" content="%s">`, title)
	line(`<meta name="twitter:description" content="%s">`, desc)
	line(`<meta name="twitter:image" content="%s">`, image)
	line(`<link rel="canonical" href="%s">`, url)
	return b.String()
}

func (r *Renderer) resolveImage(image string) string {
	image = strings.TrimSpace(image)
	if image == "" {
		image = pagegen.DefaultImage
	}
	if strings.HasPrefix(image, "http://") || strings.HasPrefix(image, "https://") || strings.HasPrefix(image, "//") {
		return image
	}
	if r.baseURL == "" {
		return image
	}
	return r.baseURL + "/" + strings.TrimLeft(image, "/")
}

// Escape replaces the four characters that can break out of an attribute or element.
func Escape(s string) string {
	return htmlEscaper.Replace(s)
}

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

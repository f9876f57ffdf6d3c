package generator

import (
	"context"
	"fmt"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/gigaspace-pagegen/internal/metrics"
	"github.com/JakeFAU/gigaspace-pagegen/internal/pagegen"
)

// DefaultSection is the dashboard section canonical pages live under.
const DefaultSection = "characters"

// Renderer produces the final HTML for one entity.
type Renderer interface {
	Render(entity pagegen.EntityRecord, template string, canonicalURL string) string
}

// ProcessorConfig controls where pages are written and which URLs they advertise.
type ProcessorConfig struct {
	Section       string
	SiteBaseURL   string
	CategoryPages bool
}

// Processor turns one entity id into its rendered pages.
type Processor struct {
	fetcher  pagegen.EntityFetcher
	renderer Renderer
	store    pagegen.PageStore
	cfg      ProcessorConfig
	metrics  *metrics.Collectors
	logger   *zap.Logger
}

// NewProcessor validates dependencies and fills config defaults.
func NewProcessor(
	fetcher pagegen.EntityFetcher,
	renderer Renderer,
	store pagegen.PageStore,
	cfg ProcessorConfig,
	collectors *metrics.Collectors,
	logger *zap.Logger,
) (*Processor, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if renderer == nil {
		return nil, fmt.Errorf("renderer is required")
	}
	if store == nil {
		return nil, fmt.Errorf("page store is required")
	}
	cfg.Section = strings.Trim(cfg.Section, "/")
	if cfg.Section == "" {
		cfg.Section = DefaultSection
	}
	cfg.SiteBaseURL = strings.TrimRight(cfg.SiteBaseURL, "/")
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		fetcher:  fetcher,
		renderer: renderer,
		store:    store,
		cfg:      cfg,
		metrics:  collectors,
		logger:   logger,
	}, nil
}

// Targets lists the pages an entity is written to. The canonical page always comes first.
//
// A category page is a second copy of the same character page under a browsable path.
// Its canonical link names the canonical page's URL, not its own location, so search
// engines index one URL per character and treat the category copy as a duplicate.
func (p *Processor) Targets(entity pagegen.EntityRecord) []pagegen.PageTarget {
	canonicalDir := path.Join("dashboard", p.cfg.Section, "chat", fmt.Sprint(entity.ID))
	canonicalURL := p.cfg.SiteBaseURL + "/" + canonicalDir + "/"
	targets := []pagegen.PageTarget{{
		Kind:         pagegen.TargetCanonical,
		FilePath:     path.Join(canonicalDir, "index.html"),
		CanonicalURL: canonicalURL,
	}}
	if p.cfg.CategoryPages {
		category := pagegen.CategorySegment(entity.Category)
		slug := pagegen.Slugify(entity.Name)
		targets = append(targets, pagegen.PageTarget{
			Kind:         pagegen.TargetCategory,
			FilePath:     path.Join("dashboard", "categories", category, "chat", fmt.Sprint(entity.ID), slug, "index.html"),
			CanonicalURL: canonicalURL,
		})
	}
	return targets
}

// Process fetches, renders and writes every target for id. Failures never escape:
// missing entities fall back to the default page and write errors are counted.
func (p *Processor) Process(ctx context.Context, id int, template string, counters *Counters) {
	logger := p.logger.With(zap.Int("id", id))

	result := p.fetcher.Fetch(ctx, id)
	entity := result.Record
	usedDefault := !result.OK()
	transportError := result.Status == pagegen.FetchError
	switch result.Status {
	case pagegen.FetchOK:
	case pagegen.FetchNotFound:
		logger.Debug("entity not found, using default")
	default:
		logger.Warn("fetch failed, using default", zap.String("reason", result.Message))
	}
	if usedDefault {
		entity = pagegen.DefaultEntity(id)
	}
	entity.ID = id

	for _, target := range p.Targets(entity) {
		html := p.renderer.Render(entity, template, target.CanonicalURL)
		if _, err := p.store.WritePage(ctx, target.FilePath, []byte(html)); err != nil {
			logger.Error("write page failed",
				zap.String("path", target.FilePath),
				zap.String("kind", string(target.Kind)),
				zap.Error(err),
			)
			counters.pageFailed()
			p.metrics.ObservePage(string(target.Kind), false)
			continue
		}
		counters.pageWritten()
		p.metrics.ObservePage(string(target.Kind), true)
	}

	if !usedDefault && strings.TrimSpace(entity.Category) != "" {
		counters.addCategory(pagegen.CategorySegment(entity.Category))
	}
	counters.entityDone(usedDefault, transportError)
	p.metrics.ObserveEntity(usedDefault)
}

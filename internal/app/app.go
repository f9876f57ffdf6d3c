// Package app builds the long-lived services of a generation run from configuration
// and owns their shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	gpubsub "cloud.google.com/go/pubsub"
	gstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/JakeFAU/gigaspace-pagegen/internal/clock/system"
	"github.com/JakeFAU/gigaspace-pagegen/internal/config"
	"github.com/JakeFAU/gigaspace-pagegen/internal/fetcher"
	collyfetcher "github.com/JakeFAU/gigaspace-pagegen/internal/fetcher/colly"
	"github.com/JakeFAU/gigaspace-pagegen/internal/fetcher/nethttp"
	"github.com/JakeFAU/gigaspace-pagegen/internal/generator"
	"github.com/JakeFAU/gigaspace-pagegen/internal/id/uuid"
	"github.com/JakeFAU/gigaspace-pagegen/internal/metrics"
	"github.com/JakeFAU/gigaspace-pagegen/internal/pagegen"
	pubsubpublisher "github.com/JakeFAU/gigaspace-pagegen/internal/publisher/pubsub"
	"github.com/JakeFAU/gigaspace-pagegen/internal/render"
	"github.com/JakeFAU/gigaspace-pagegen/internal/server"
	gcsstore "github.com/JakeFAU/gigaspace-pagegen/internal/storage/gcs"
	localstore "github.com/JakeFAU/gigaspace-pagegen/internal/storage/local"
	memorystore "github.com/JakeFAU/gigaspace-pagegen/internal/storage/memory"
	pgsummary "github.com/JakeFAU/gigaspace-pagegen/internal/summary/postgres"
)

const shutdownTimeout = 10 * time.Second

// SummaryEvent is the Pub/Sub event attribute attached to run notifications.
const SummaryEvent = "generation.completed"

// App holds every service one run needs.
type App struct {
	cfg       config.Config
	logger    *zap.Logger
	metrics   *metrics.Collectors
	generator *generator.Generator
	server    *server.Server

	closers []func() error
}

// New wires services according to cfg. Everything opened so far is closed on failure.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger, out io.Writer) (_ *App, err error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	collectors, err := metrics.New(nil)
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	a.metrics = collectors

	clock := system.New()
	transport, err := newTransport(cfg.API)
	if err != nil {
		return nil, err
	}
	client, err := fetcher.New(fetcher.Config{
		BaseURL:           cfg.API.BaseURL,
		Timeout:           cfg.API.Timeout,
		CacheTTL:          cfg.API.CacheTTL,
		RequestsPerSecond: cfg.API.RequestsPerSecond,
		Burst:             cfg.API.Burst,
	}, transport, clock, collectors, logger.Named("fetcher"))
	if err != nil {
		return nil, fmt.Errorf("init fetcher: %w", err)
	}

	pages, err := a.newPageStore(ctx)
	if err != nil {
		return nil, err
	}
	summaries, err := a.newSummaryStore(ctx)
	if err != nil {
		return nil, err
	}
	publisher, err := a.newPublisher(ctx)
	if err != nil {
		return nil, err
	}

	deps := generator.Deps{
		Fetcher:  client,
		Renderer: render.New(render.Config{SiteName: cfg.Site.Name, BaseURL: cfg.Site.BaseURL}),
		Pages:    pages,
		Clock:    clock,
		IDs:      uuid.New(),
		Metrics:  collectors,
		Logger:   logger.Named("generator"),
		Out:      out,
	}
	// Typed nils must not reach the interface fields.
	if summaries != nil {
		deps.Summaries = summaries
	}
	if publisher != nil {
		deps.Publisher = publisher
	}

	gen, err := generator.New(generator.Config{
		Processor: generator.ProcessorConfig{
			Section:       cfg.Generator.Section,
			SiteBaseURL:   cfg.Site.BaseURL,
			CategoryPages: cfg.Generator.CategoryPages,
		},
		Scheduler: generator.SchedulerConfig{
			MaxConcurrent: cfg.Generator.MaxConcurrent,
			ChunkSize:     cfg.Generator.ChunkSize,
		},
		TemplatePath:     cfg.Template.Path,
		SummaryPath:      cfg.Summary.Path,
		Total:            cfg.Generator.Total,
		DefaultTotal:     cfg.Generator.DefaultTotal,
		SummaryTopic:     cfg.Summary.PubSubTopic,
		Progress:         cfg.Progress.Enabled,
		ProgressInterval: cfg.Progress.Interval,
	}, deps)
	if err != nil {
		return nil, fmt.Errorf("init generator: %w", err)
	}
	a.generator = gen

	if cfg.Metrics.ListenAddr != "" {
		a.server = server.New(gen, collectors.Handler(), logger.Named("server"))
	}
	return a, nil
}

func newTransport(cfg config.APIConfig) (fetcher.Transport, error) {
	switch cfg.Transport {
	case config.TransportColly:
		return collyfetcher.New(collyfetcher.Config{UserAgent: cfg.UserAgent, Timeout: cfg.Timeout}), nil
	case config.TransportHTTP, "":
		return nethttp.New(nethttp.Config{UserAgent: cfg.UserAgent, Timeout: cfg.Timeout}), nil
	default:
		return nil, fmt.Errorf("unknown transport %q", cfg.Transport)
	}
}

func (a *App) newPageStore(ctx context.Context) (pagegen.PageStore, error) {
	switch a.cfg.Output.Backend {
	case config.BackendGCS:
		client, err := gstorage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("init gcs client: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		store, err := gcsstore.New(client, gcsstore.Config{Bucket: a.cfg.Output.GCSBucket, Prefix: a.cfg.Output.GCSPrefix})
		if err != nil {
			return nil, fmt.Errorf("init gcs page store: %w", err)
		}
		a.logger.Info("writing pages to gcs", zap.String("bucket", a.cfg.Output.GCSBucket))
		return store, nil
	case config.BackendMemory:
		a.logger.Info("writing pages to memory")
		return memorystore.NewPageStore(), nil
	default:
		store, err := localstore.New(localstore.Config{BaseDir: a.cfg.Output.Dir})
		if err != nil {
			return nil, fmt.Errorf("init local page store: %w", err)
		}
		a.logger.Info("writing pages to disk", zap.String("dir", store.BaseDir()))
		return store, nil
	}
}

func (a *App) newSummaryStore(ctx context.Context) (*pgsummary.Store, error) {
	if a.cfg.Summary.PostgresDSN == "" {
		return nil, nil
	}
	store, err := pgsummary.New(ctx, pgsummary.Config{
		DSN:   a.cfg.Summary.PostgresDSN,
		Table: a.cfg.Summary.PostgresTable,
	})
	if err != nil {
		return nil, fmt.Errorf("init postgres summary store: %w", err)
	}
	a.closers = append(a.closers, func() error {
		store.Close()
		return nil
	})
	return store, nil
}

func (a *App) newPublisher(ctx context.Context) (*pubsubpublisher.Publisher, error) {
	if a.cfg.Summary.PubSubTopic == "" {
		return nil, nil
	}
	client, err := gpubsub.NewClient(ctx, a.cfg.Summary.PubSubProject)
	if err != nil {
		return nil, fmt.Errorf("init pubsub client: %w", err)
	}
	a.closers = append(a.closers, client.Close)
	pub, err := pubsubpublisher.New(client, a.cfg.Summary.PubSubTopic, SummaryEvent)
	if err != nil {
		return nil, fmt.Errorf("init pubsub publisher: %w", err)
	}
	a.closers = append(a.closers, func() error {
		pub.Close()
		return nil
	})
	return pub, nil
}

// Generator exposes the wired generator.
func (a *App) Generator() *generator.Generator {
	return a.generator
}

// Run serves the status endpoints (when configured) for the lifetime of one generation.
func (a *App) Run(ctx context.Context) (pagegen.RunSummary, error) {
	if a.server != nil {
		if _, err := a.server.Start(a.cfg.Metrics.ListenAddr); err != nil {
			a.logger.Warn("status server disabled", zap.Error(err))
		} else {
			defer a.stopServer()
		}
	}
	return a.generator.Run(ctx)
}

func (a *App) stopServer() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(ctx); err != nil {
		a.logger.Warn("status server shutdown failed", zap.Error(err))
	}
}

// Close releases external clients in reverse order of creation.
func (a *App) Close() {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if err := errors.Join(errs...); err != nil {
		a.logger.Warn("close services failed", zap.Error(err))
	}
	_ = a.logger.Sync()
}

package generator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/gigaspace-pagegen/internal/clock/system"
	"github.com/JakeFAU/gigaspace-pagegen/internal/metrics"
	"github.com/JakeFAU/gigaspace-pagegen/internal/pagegen"
	"github.com/JakeFAU/gigaspace-pagegen/internal/summary"
)

// ErrTemplateMissing is returned when the base HTML template cannot be read.
var ErrTemplateMissing = errors.New("base template missing")

// DefaultTotal is used when the API does not report how many entities exist.
const DefaultTotal = 1000

// CleanPrefix is the output subtree removed at the start of every run.
const CleanPrefix = "dashboard"

// State is a stage of a generation run.
type State string

// Run states, in order.
const (
	StateIdle            State = "idle"
	StateCleaning        State = "cleaning"
	StateDetectingCount  State = "detecting_count"
	StateLoadingTemplate State = "loading_template"
	StateGenerating      State = "generating"
	StateSummarizing     State = "summarizing"
	StateDone            State = "done"
	StateFatal           State = "fatal"
)

// Config controls a Generator.
type Config struct {
	Processor ProcessorConfig
	Scheduler SchedulerConfig

	TemplatePath string
	SummaryPath  string
	// Total skips detection when positive.
	Total        int
	DefaultTotal int
	SummaryTopic string

	Progress         bool
	ProgressInterval time.Duration
}

// Deps are the collaborators a Generator drives. Summaries and Publisher are optional.
type Deps struct {
	Fetcher   pagegen.EntityFetcher
	Renderer  Renderer
	Pages     pagegen.PageStore
	Summaries pagegen.SummaryStore
	Publisher pagegen.Publisher
	Clock     pagegen.Clock
	IDs       pagegen.IDGenerator
	Metrics   *metrics.Collectors
	Logger    *zap.Logger
	// Out receives the progress line and the final report.
	Out       io.Writer
}

// Generator runs the state machine that produces every entity page.
type Generator struct {
	cfg       Config
	deps      Deps
	processor *Processor
	logger    *zap.Logger

	state    atomic.Value
	counters atomic.Pointer[Counters]
	runMu    sync.Mutex
}

// New wires a Generator. It fails on missing required collaborators.
func New(cfg Config, deps Deps) (*Generator, error) {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Clock == nil {
		deps.Clock = system.New()
	}
	if deps.Out == nil {
		deps.Out = io.Discard
	}
	if cfg.DefaultTotal <= 0 {
		cfg.DefaultTotal = DefaultTotal
	}
	if cfg.TemplatePath == "" {
		return nil, fmt.Errorf("template path is required")
	}
	processor, err := NewProcessor(deps.Fetcher, deps.Renderer, deps.Pages, cfg.Processor, deps.Metrics, deps.Logger)
	if err != nil {
		return nil, fmt.Errorf("build processor: %w", err)
	}
	if err := cfg.Scheduler.validate(); err != nil {
		return nil, err
	}
	g := &Generator{
		cfg:       cfg,
		deps:      deps,
		processor: processor,
		logger:    deps.Logger,
	}
	g.state.Store(StateIdle)
	return g, nil
}

// State returns the current run state.
func (g *Generator) State() State {
	return g.state.Load().(State)
}

// Progress returns a snapshot of the current (or last) run.
func (g *Generator) Progress() Snapshot {
	c := g.counters.Load()
	if c == nil {
		return Snapshot{Categories: []string{}}
	}
	return c.Snapshot()
}

func (g *Generator) transition(next State, fields ...zap.Field) {
	prev := g.State()
	g.state.Store(next)
	g.logger.Info("generator state",
		append([]zap.Field{zap.String("from", string(prev)), zap.String("to", string(next))}, fields...)...)
}

// Run performs one complete generation. Only ErrTemplateMissing and scheduler
// failures are returned; everything else is logged and reflected in the summary.
func (g *Generator) Run(ctx context.Context) (pagegen.RunSummary, error) {
	g.runMu.Lock()
	defer g.runMu.Unlock()

	start := g.deps.Clock.Now()

	g.transition(StateCleaning)
	g.clean(ctx)

	g.transition(StateDetectingCount)
	total := g.detectTotal(ctx)

	g.transition(StateLoadingTemplate, zap.Int("total", total))
	template, err := g.loadTemplate()
	if err != nil {
		g.transition(StateFatal, zap.Error(err))
		return pagegen.RunSummary{}, err
	}

	scheduler, err := NewScheduler(g.cfg.Scheduler, g.deps.Metrics, g.logger)
	if err != nil {
		g.transition(StateFatal, zap.Error(err))
		return pagegen.RunSummary{}, fmt.Errorf("build scheduler: %w", err)
	}
	counters := NewCounters(total)
	g.counters.Store(counters)

	g.transition(StateGenerating,
		zap.Int("max_concurrent", scheduler.MaxConcurrent()),
		zap.Bool("category_pages", g.cfg.Processor.CategoryPages),
	)
	var reporter *Reporter
	if g.cfg.Progress {
		reporter = NewReporter(g.deps.Out, counters, g.deps.Clock, g.cfg.ProgressInterval)
		reporter.Start()
	}
	runErr := scheduler.Run(ctx, total, func(ctx context.Context, id int) {
		g.processor.Process(ctx, id, template, counters)
	}, func(int, any) {
		counters.entityDone(true, true)
	})
	reporter.Stop()

	g.transition(StateSummarizing)
	s := g.summarize(start, total, counters, scheduler)
	g.emit(ctx, s)

	if runErr != nil {
		g.transition(StateFatal, zap.Error(runErr))
		return s, fmt.Errorf("schedule entities: %w", runErr)
	}
	g.transition(StateDone, zap.Int64("processed", s.Processed), zap.Int64("pages", s.TotalPages))
	return s, nil
}

func (g *Generator) clean(ctx context.Context) {
	if err := g.deps.Pages.Clean(ctx, CleanPrefix); err != nil {
		g.logger.Warn("clean output failed", zap.String("prefix", CleanPrefix), zap.Error(err))
	}
	if err := summary.Remove(g.cfg.SummaryPath); err != nil {
		g.logger.Warn("remove stale summary failed", zap.String("path", g.cfg.SummaryPath), zap.Error(err))
	}
}

func (g *Generator) detectTotal(ctx context.Context) int {
	if g.cfg.Total > 0 {
		g.logger.Info("using configured total", zap.Int("total", g.cfg.Total))
		return g.cfg.Total
	}
	result := g.deps.Fetcher.Fetch(ctx, 1)
	if result.OK() && result.Record.TotalCount > 0 {
		total := int(result.Record.TotalCount)
		g.logger.Info("detected total", zap.Int("total", total))
		return total
	}
	g.logger.Warn("total not reported, using default",
		zap.Int("total", g.cfg.DefaultTotal),
		zap.String("status", string(result.Status)),
	)
	return g.cfg.DefaultTotal
}

func (g *Generator) loadTemplate() (string, error) {
	data, err := os.ReadFile(g.cfg.TemplatePath)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrTemplateMissing, g.cfg.TemplatePath, err)
	}
	return string(data), nil
}

func (g *Generator) summarize(start time.Time, total int, counters *Counters, scheduler *Scheduler) pagegen.RunSummary {
	elapsed := g.deps.Clock.Now().Sub(start)
	g.deps.Metrics.SetRunDuration(elapsed)

	snap := counters.Snapshot()
	throughput := 0.0
	if elapsed > 0 {
		throughput = float64(snap.Processed) / elapsed.Seconds()
	}
	return pagegen.RunSummary{
		RunID:              g.runID(),
		Timestamp:          start,
		DurationSeconds:    elapsed.Seconds(),
		ThroughputPerSec:   throughput,
		TotalEntities:      total,
		Processed:          snap.Processed,
		Successful:         snap.Successful,
		Missing:            snap.Missing,
		NotFound:           snap.Missing - snap.Errors,
		Errors:             snap.Errors,
		TotalPages:         snap.TotalPages,
		WriteFailures:      snap.WriteFailures,
		CategoryPages:      g.cfg.Processor.CategoryPages,
		Categories:         snap.Categories,
		MaxObservedPermits: scheduler.Peak(),
	}
}

func (g *Generator) runID() string {
	if g.deps.IDs == nil {
		return ""
	}
	id, err := g.deps.IDs.NewID()
	if err != nil {
		g.logger.Warn("generate run id failed", zap.Error(err))
		return ""
	}
	return id
}

// emit delivers the summary to every configured sink. Each sink is best-effort.
func (g *Generator) emit(ctx context.Context, s pagegen.RunSummary) {
	if err := summary.WriteReport(g.deps.Out, s); err != nil {
		g.logger.Warn("print report failed", zap.Error(err))
	}
	if g.cfg.SummaryPath != "" {
		if err := summary.WriteFile(g.cfg.SummaryPath, s); err != nil {
			g.logger.Warn("write summary failed", zap.String("path", g.cfg.SummaryPath), zap.Error(err))
		} else {
			g.logger.Info("summary written", zap.String("path", g.cfg.SummaryPath))
		}
	}
	if g.deps.Summaries != nil {
		if err := g.deps.Summaries.StoreSummary(ctx, s); err != nil {
			g.logger.Warn("store summary failed", zap.Error(err))
		}
	}
	if g.deps.Publisher != nil {
		id, err := g.deps.Publisher.Publish(ctx, g.cfg.SummaryTopic, s)
		if err != nil {
			g.logger.Warn("publish summary failed", zap.Error(err))
		} else {
			g.logger.Info("summary published", zap.String("message_id", id))
		}
	}
}

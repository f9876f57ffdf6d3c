// Package metrics exposes Prometheus collectors for the page generator.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Fetch outcome label values.
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// Collectors groups every generator metric. A nil *Collectors is valid and records nothing,
// so components can run without metrics wired.
type Collectors struct {
	fetchTotal    *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	cacheHits     prometheus.Counter
	pagesWritten  *prometheus.CounterVec
	pageFailures  *prometheus.CounterVec
	entitiesTotal *prometheus.CounterVec
	activePermits prometheus.Gauge
	runDuration   prometheus.Gauge
	gatherer      prometheus.Gatherer
}

// New registers the collectors against reg. A nil reg uses a fresh private registry.
func New(reg *prometheus.Registry) (*Collectors, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	c := &Collectors{
		fetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pagegen_fetch_total",
			Help: "Entity fetches partitioned by outcome.",
		}, []string{"outcome"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pagegen_fetch_duration_seconds",
			Help:    "Upstream fetch latency partitioned by outcome.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"outcome"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pagegen_cache_hits_total",
			Help: "Fetches served from the TTL cache.",
		}),
		pagesWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pagegen_pages_written_total",
			Help: "Pages written partitioned by target kind.",
		}, []string{"kind"}),
		pageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pagegen_page_failures_total",
			Help: "Page targets that failed to render or write, partitioned by target kind.",
		}, []string{"kind"}),
		entitiesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pagegen_entities_total",
			Help: "Processed entities partitioned by source (api or default).",
		}, []string{"source"}),
		activePermits: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pagegen_active_permits",
			Help: "Entity processors currently holding a concurrency permit.",
		}),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pagegen_last_run_duration_seconds",
			Help: "Wall time of the most recent generation run.",
		}),
		gatherer: reg,
	}
	for _, collector := range []prometheus.Collector{
		c.fetchTotal,
		c.fetchDuration,
		c.cacheHits,
		c.pagesWritten,
		c.pageFailures,
		c.entitiesTotal,
		c.activePermits,
		c.runDuration,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register metrics collector: %w", err)
		}
	}
	return c, nil
}

// Handler serves the registry the collectors were registered on.
func (c *Collectors) Handler() http.Handler {
	if c == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

// ObserveFetch records one upstream fetch.
func (c *Collectors) ObserveFetch(outcome string, duration time.Duration) {
	if c == nil {
		return
	}
	c.fetchTotal.WithLabelValues(outcome).Inc()
	c.fetchDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// ObserveCacheHit records a fetch served from cache.
func (c *Collectors) ObserveCacheHit() {
	if c == nil {
		return
	}
	c.cacheHits.Inc()
}

// ObservePage records a written page or a failed target.
func (c *Collectors) ObservePage(kind string, ok bool) {
	if c == nil {
		return
	}
	if ok {
		c.pagesWritten.WithLabelValues(kind).Inc()
		return
	}
	c.pageFailures.WithLabelValues(kind).Inc()
}

// ObserveEntity records a processed entity by data source.
func (c *Collectors) ObserveEntity(usedDefault bool) {
	if c == nil {
		return
	}
	source := "api"
	if usedDefault {
		source = "default"
	}
	c.entitiesTotal.WithLabelValues(source).Inc()
}

// IncActivePermits increments the active permits gauge.
func (c *Collectors) IncActivePermits() {
	if c == nil {
		return
	}
	c.activePermits.Inc()
}

// DecActivePermits decrements the active permits gauge.
func (c *Collectors) DecActivePermits() {
	if c == nil {
		return
	}
	c.activePermits.Dec()
}

// SetRunDuration records the wall time of a finished run.
func (c *Collectors) SetRunDuration(d time.Duration) {
	if c == nil {
		return
	}
	c.runDuration.Set(d.Seconds())
}

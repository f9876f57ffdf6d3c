package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/JakeFAU/gigaspace-pagegen/internal/cache/ttl"
	"github.com/JakeFAU/gigaspace-pagegen/internal/metrics"
	"github.com/JakeFAU/gigaspace-pagegen/internal/pagegen"
)

const (
	defaultTimeout  = 10 * time.Second
	defaultCacheTTL = 5 * time.Minute
)

// Config controls Client behavior.
type Config struct {
	BaseURL           string
	Timeout           time.Duration
	CacheTTL          time.Duration
	RequestsPerSecond float64
	Burst             int
}

// Client fetches entities through a Transport and memoizes successes for CacheTTL.
type Client struct {
	cfg       Config
	transport Transport
	cache     *ttl.Cache[int, pagegen.EntityRecord]
	limiter   *rate.Limiter
	metrics   *metrics.Collectors
	logger    *zap.Logger
}

// New constructs a Client. clock drives cache expiry; nil uses the wall clock.
func New(
	cfg Config,
	transport Transport,
	clock pagegen.Clock,
	collectors *metrics.Collectors,
	logger *zap.Logger,
) (*Client, error) {
	if transport == nil {
		return nil, fmt.Errorf("transport is required")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("api base url is required")
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	var now func() time.Time
	if clock != nil {
		now = clock.Now
	}
	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return &Client{
		cfg:       cfg,
		transport: transport,
		cache:     ttl.New[int, pagegen.EntityRecord](cfg.CacheTTL, now),
		limiter:   limiter,
		metrics:   collectors,
		logger:    logger,
	}, nil
}

// EntityURL returns the API URL for id.
func (c *Client) EntityURL(id int) string {
	return fmt.Sprintf("%s/getcharacter/%d", c.cfg.BaseURL, id)
}

// Fetch returns the entity for id, serving from cache when a fresh entry exists.
func (c *Client) Fetch(ctx context.Context, id int) pagegen.FetchResult {
	if rec, ok := c.cache.Get(id); ok {
		c.metrics.ObserveCacheHit()
		return pagegen.Found(rec)
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return pagegen.Failed("rate limit wait: %v", err)
		}
	}

	start := time.Now()
	result := c.fetchRemote(ctx, id)
	c.metrics.ObserveFetch(outcomeLabel(result.Status), time.Since(start))

	switch result.Status {
	case pagegen.FetchOK:
		c.cache.Set(id, result.Record)
	case pagegen.FetchError:
		c.logger.Debug("entity fetch failed", zap.Int("id", id), zap.String("reason", result.Message))
	}
	return result
}

func (c *Client) fetchRemote(ctx context.Context, id int) pagegen.FetchResult {
	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	resp, err := c.transport.Get(reqCtx, c.EntityURL(id))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return pagegen.Failed("request timed out after %s", c.cfg.Timeout)
		}
		return pagegen.Failed("request failed: %v", err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return pagegen.NotFound()
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return pagegen.Failed("unexpected status %d", resp.StatusCode)
	}

	var rec pagegen.EntityRecord
	if err := json.Unmarshal(resp.Body, &rec); err != nil {
		return pagegen.Failed("decode response: %v", err)
	}
	if strings.TrimSpace(rec.Name) == "" {
		return pagegen.Failed("empty entity document")
	}
	rec.ID = id
	return pagegen.Found(rec)
}

func outcomeLabel(status pagegen.FetchStatus) string {
	switch status {
	case pagegen.FetchOK:
		return metrics.OutcomeOK
	case pagegen.FetchNotFound:
		return metrics.OutcomeNotFound
	default:
		return metrics.OutcomeError
	}
}

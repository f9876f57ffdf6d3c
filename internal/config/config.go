// Package config loads and validates generator configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. PAGEGEN_API_BASE_URL.
const EnvPrefix = "PAGEGEN"

// Transport names accepted by api.transport.
const (
	TransportHTTP  = "http"
	TransportColly = "colly"
)

// Output backends accepted by output.backend.
const (
	BackendLocal  = "local"
	BackendGCS    = "gcs"
	BackendMemory = "memory"
)

// Config captures every knob of a generation run.
type Config struct {
	API       APIConfig       `mapstructure:"api"`
	Site      SiteConfig      `mapstructure:"site"`
	Generator GeneratorConfig `mapstructure:"generator"`
	Template  TemplateConfig  `mapstructure:"template"`
	Output    OutputConfig    `mapstructure:"output"`
	Summary   SummaryConfig   `mapstructure:"summary"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Progress  ProgressConfig  `mapstructure:"progress"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// APIConfig describes the upstream character API.
type APIConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	Transport         string        `mapstructure:"transport"`
	UserAgent         string        `mapstructure:"user_agent"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	CacheTTL          time.Duration `mapstructure:"cache_ttl"`
}

// SiteConfig holds values stamped into every page.
type SiteConfig struct {
	Name    string `mapstructure:"name"`
	BaseURL string `mapstructure:"base_url"`
}

// GeneratorConfig controls scheduling and which pages are produced.
type GeneratorConfig struct {
	MaxConcurrent int    `mapstructure:"max_concurrent"`
	ChunkSize     int    `mapstructure:"chunk_size"`
	CategoryPages bool   `mapstructure:"category_pages"`
	DefaultTotal  int    `mapstructure:"default_total"`
	Total         int    `mapstructure:"total"`
	Section       string `mapstructure:"section"`
}

// TemplateConfig locates the base HTML document.
type TemplateConfig struct {
	Path string `mapstructure:"path"`
}

// OutputConfig selects where pages are written.
type OutputConfig struct {
	Backend   string `mapstructure:"backend"`
	Dir       string `mapstructure:"dir"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	GCSPrefix string `mapstructure:"gcs_prefix"`
}

// SummaryConfig lists the sinks the run summary is delivered to.
type SummaryConfig struct {
	Path          string `mapstructure:"path"`
	PostgresDSN   string `mapstructure:"postgres_dsn"`
	PostgresTable string `mapstructure:"postgres_table"`
	PubSubProject string `mapstructure:"pubsub_project"`
	PubSubTopic   string `mapstructure:"pubsub_topic"`
}

// MetricsConfig enables the status server when ListenAddr is set.
type MetricsConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

// ProgressConfig controls the console progress line.
type ProgressConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

// LoggingConfig toggles zap development features and the minimum level.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// Load builds a Config from defaults, an optional file and PAGEGEN_* environment variables.
// It does not validate: callers apply command-line overrides first and then call Validate.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "")
	v.SetDefault("api.timeout", "10s")
	v.SetDefault("api.transport", TransportHTTP)
	v.SetDefault("api.user_agent", "gigaspace-pagegen/1.0")
	v.SetDefault("api.requests_per_second", 0)
	v.SetDefault("api.burst", 1)
	v.SetDefault("api.cache_ttl", "5m")
	v.SetDefault("site.name", "GigaSpace")
	v.SetDefault("site.base_url", "")
	v.SetDefault("generator.max_concurrent", 50)
	v.SetDefault("generator.chunk_size", 100)
	v.SetDefault("generator.category_pages", true)
	v.SetDefault("generator.default_total", 1000)
	v.SetDefault("generator.total", 0)
	v.SetDefault("generator.section", "characters")
	v.SetDefault("template.path", "dist/index.html")
	v.SetDefault("output.backend", BackendLocal)
	v.SetDefault("output.dir", "dist")
	v.SetDefault("output.gcs_bucket", "")
	v.SetDefault("output.gcs_prefix", "")
	v.SetDefault("summary.path", "dist/generation-summary.json")
	v.SetDefault("summary.postgres_dsn", "")
	v.SetDefault("summary.postgres_table", "generation_runs")
	v.SetDefault("summary.pubsub_project", "")
	v.SetDefault("summary.pubsub_topic", "")
	v.SetDefault("metrics.listen_addr", "")
	v.SetDefault("progress.enabled", true)
	v.SetDefault("progress.interval", "1s")
	v.SetDefault("logging.development", false)
	v.SetDefault("logging.level", "info")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be > 0")
	}
	switch c.API.Transport {
	case TransportHTTP, TransportColly:
	default:
		return fmt.Errorf("api.transport must be %q or %q, got %q", TransportHTTP, TransportColly, c.API.Transport)
	}
	if c.API.RequestsPerSecond < 0 {
		return fmt.Errorf("api.requests_per_second must be >= 0")
	}
	if c.API.CacheTTL <= 0 {
		return fmt.Errorf("api.cache_ttl must be > 0")
	}
	if c.Generator.MaxConcurrent <= 0 {
		return fmt.Errorf("generator.max_concurrent must be > 0")
	}
	if c.Generator.ChunkSize <= 0 {
		return fmt.Errorf("generator.chunk_size must be > 0")
	}
	if c.Generator.DefaultTotal <= 0 {
		return fmt.Errorf("generator.default_total must be > 0")
	}
	if c.Generator.Total < 0 {
		return fmt.Errorf("generator.total must be >= 0")
	}
	if strings.TrimSpace(c.Template.Path) == "" {
		return fmt.Errorf("template.path is required")
	}
	switch c.Output.Backend {
	case BackendLocal:
		if strings.TrimSpace(c.Output.Dir) == "" {
			return fmt.Errorf("output.dir is required for the local backend")
		}
	case BackendGCS:
		if c.Output.GCSBucket == "" {
			return fmt.Errorf("output.gcs_bucket is required for the gcs backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown output.backend %q", c.Output.Backend)
	}
	if c.Summary.PubSubTopic != "" && c.Summary.PubSubProject == "" {
		return fmt.Errorf("summary.pubsub_project must be set when summary.pubsub_topic is set")
	}
	if c.Progress.Enabled && c.Progress.Interval <= 0 {
		return fmt.Errorf("progress.interval must be > 0 when progress is enabled")
	}
	return nil
}

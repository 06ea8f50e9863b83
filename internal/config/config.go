// Package config loads and validates atlas service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Database DatabaseConfig `mapstructure:"db"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Scraper  ScraperConfig  `mapstructure:"scraper"`
	Bible    BibleConfig    `mapstructure:"bible"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Cache    CacheConfig    `mapstructure:"cache"`
	PubSub   PubSubConfig   `mapstructure:"pubsub"`
	Progress ProgressConfig `mapstructure:"progress"`
	Cron     CronConfig     `mapstructure:"cron"`
	Worker   WorkerConfig   `mapstructure:"worker"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port               int      `mapstructure:"port"`
	CORSOrigins        []string `mapstructure:"cors_origins"`
	RequestTimeoutSec  int      `mapstructure:"request_timeout_seconds"`
	RateLimitRequests  int      `mapstructure:"rate_limit_requests"`
	RateLimitWindowSec int      `mapstructure:"rate_limit_window_seconds"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// DatabaseConfig controls the Postgres pool.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MigrateOnStart  bool          `mapstructure:"migrate_on_start"`
}

// AuthConfig holds token secrets and identity provider endpoints.
type AuthConfig struct {
	HashRounds    int           `mapstructure:"hash_rounds"`
	AccessSecret  string        `mapstructure:"access_secret"`
	RefreshSecret string        `mapstructure:"refresh_secret"`
	AccessTTL     time.Duration `mapstructure:"access_ttl"`
	RefreshTTL    time.Duration `mapstructure:"refresh_ttl"`
	KakaoBaseURL  string        `mapstructure:"kakao_base_url"`
	GoogleBaseURL string        `mapstructure:"google_base_url"`
	AppleBaseURL  string        `mapstructure:"apple_base_url"`
	AppBundleID   string        `mapstructure:"app_bundle_id"`
	JWKSTTL       time.Duration `mapstructure:"jwks_ttl"`
}

// ScraperConfig governs the atlas scraper.
type ScraperConfig struct {
	AtlasBaseURL  string        `mapstructure:"atlas_base_url"`
	GeoBaseURL    string        `mapstructure:"geo_base_url"`
	BatchSize     int           `mapstructure:"batch_size"`
	PageSize      int           `mapstructure:"page_size"`
	BatchDelay    time.Duration `mapstructure:"batch_delay"`
	Fetcher       string        `mapstructure:"fetcher"`
	UserAgent     string        `mapstructure:"user_agent"`
	TimeoutSec    int           `mapstructure:"timeout_seconds"`
	RPS           float64       `mapstructure:"rps"`
	Burst         int           `mapstructure:"burst"`
	OutputPrefix  string        `mapstructure:"output_prefix"`
	ImportPrefix  string        `mapstructure:"import_prefix"`
	HeadlessSlots int           `mapstructure:"headless_slots"`
}

// BibleConfig points at the verse lookup site.
type BibleConfig struct {
	VerseBaseURL string `mapstructure:"verse_base_url"`
}

// StorageConfig selects the blob backend for scrape output.
type StorageConfig struct {
	Backend     string `mapstructure:"backend"`
	Bucket      string `mapstructure:"bucket"`
	LocalDir    string `mapstructure:"local_dir"`
	ContentType string `mapstructure:"content_type"`
}

// CacheConfig configures the optional Redis cache.
type CacheConfig struct {
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	TTL           time.Duration `mapstructure:"ttl"`
}

// PubSubConfig holds metadata for scrape completion notifications.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// ProgressConfig tunes the progress hub.
type ProgressConfig struct {
	BufferSize    int  `mapstructure:"buffer_size"`
	MaxEvents     int  `mapstructure:"max_batch_events"`
	MaxWaitMs     int  `mapstructure:"max_batch_wait_ms"`
	SinkTimeoutMs int  `mapstructure:"sink_timeout_ms"`
	LogEnabled    bool `mapstructure:"log_enabled"`
}

// CronConfig holds cron specs for the aggregate jobs. An empty spec disables
// the job.
type CronConfig struct {
	ProposalCounts string `mapstructure:"proposal_counts"`
	LocationLikes  string `mapstructure:"location_likes"`
	PlaceLikes     string `mapstructure:"place_likes"`
	Notifications  string `mapstructure:"notifications"`
	Reports        string `mapstructure:"reports"`
}

// WorkerConfig sizes the scrape job pool.
type WorkerConfig struct {
	Concurrency  int           `mapstructure:"concurrency"`
	QueueDepth   int           `mapstructure:"queue_depth"`
	MaxAttempts  int           `mapstructure:"max_attempts"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	JobTimeout   time.Duration `mapstructure:"job_timeout"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ATLAS")
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

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"http://localhost:4900"})
	v.SetDefault("server.request_timeout_seconds", 60)
	v.SetDefault("server.rate_limit_requests", 300)
	v.SetDefault("server.rate_limit_window_seconds", 60)
	v.SetDefault("logging.development", true)
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.max_conns", 10)
	v.SetDefault("db.min_conns", 1)
	v.SetDefault("db.max_conn_lifetime", time.Hour)
	v.SetDefault("db.migrate_on_start", false)
	v.SetDefault("auth.hash_rounds", 10)
	v.SetDefault("auth.access_secret", "")
	v.SetDefault("auth.refresh_secret", "")
	v.SetDefault("auth.access_ttl", 10*time.Minute)
	v.SetDefault("auth.refresh_ttl", time.Hour)
	v.SetDefault("auth.kakao_base_url", "https://kapi.kakao.com/v2/user/me")
	v.SetDefault("auth.google_base_url", "https://oauth2.googleapis.com/tokeninfo")
	v.SetDefault("auth.apple_base_url", "https://appleid.apple.com")
	v.SetDefault("auth.app_bundle_id", "")
	v.SetDefault("auth.jwks_ttl", 15*time.Minute)
	v.SetDefault("scraper.atlas_base_url", "https://www.openbible.info")
	v.SetDefault("scraper.geo_base_url", "https://a.openbible.info/geo/data")
	v.SetDefault("scraper.batch_size", 5)
	v.SetDefault("scraper.page_size", 20)
	v.SetDefault("scraper.batch_delay", time.Second)
	v.SetDefault("scraper.fetcher", "colly")
	v.SetDefault("scraper.user_agent", "bible-atlas-bot/0.1")
	v.SetDefault("scraper.timeout_seconds", 20)
	v.SetDefault("scraper.rps", 2.0)
	v.SetDefault("scraper.burst", 5)
	v.SetDefault("scraper.output_prefix", "places-data")
	v.SetDefault("scraper.import_prefix", "ai-places-data")
	v.SetDefault("scraper.headless_slots", 2)
	v.SetDefault("bible.verse_base_url", "https://ibibles.net")
	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.local_dir", "data")
	v.SetDefault("storage.content_type", "application/json")
	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.ttl", 10*time.Minute)
	v.SetDefault("progress.buffer_size", 1024)
	v.SetDefault("progress.max_batch_events", 64)
	v.SetDefault("progress.max_batch_wait_ms", 100)
	v.SetDefault("progress.sink_timeout_ms", 5000)
	v.SetDefault("progress.log_enabled", false)
	v.SetDefault("cron.proposal_counts", "*/10 * * * *")
	v.SetDefault("cron.location_likes", "*/10 * * * *")
	v.SetDefault("cron.place_likes", "*/10 * * * *")
	v.SetDefault("cron.notifications", "*/15 * * * *")
	v.SetDefault("cron.reports", "0 9 * * *")
	v.SetDefault("worker.concurrency", 1)
	v.SetDefault("worker.queue_depth", 16)
	v.SetDefault("worker.max_attempts", 2)
	v.SetDefault("worker.retry_backoff", 5*time.Second)
	v.SetDefault("worker.job_timeout", 30*time.Minute)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Auth.AccessSecret == "" {
		return fmt.Errorf("auth.access_secret must be set")
	}
	if c.Auth.RefreshSecret == "" {
		return fmt.Errorf("auth.refresh_secret must be set")
	}
	if c.Auth.HashRounds < 4 || c.Auth.HashRounds > 31 {
		return fmt.Errorf("auth.hash_rounds must be between 4 and 31")
	}
	if c.Scraper.BatchSize <= 0 {
		return fmt.Errorf("scraper.batch_size must be > 0")
	}
	if c.Scraper.PageSize <= 0 {
		return fmt.Errorf("scraper.page_size must be > 0")
	}
	switch c.Scraper.Fetcher {
	case "colly", "headless", "auto":
	default:
		return fmt.Errorf("scraper.fetcher must be colly, headless or auto")
	}
	switch c.Storage.Backend {
	case "memory", "local":
	case "gcs":
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage.bucket must be set when storage.backend is gcs")
		}
	default:
		return fmt.Errorf("storage.backend must be memory, local or gcs")
	}
	if c.Worker.Concurrency <= 0 {
		return fmt.Errorf("worker.concurrency must be > 0")
	}
	return nil
}

// RequestTimeout returns the per-request handler budget.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeoutSec) * time.Second
}

// ScrapeTimeout returns the per-fetch budget for the scraper.
func (c Config) ScrapeTimeout() time.Duration {
	return time.Duration(c.Scraper.TimeoutSec) * time.Second
}

// Package config loads and validates spider configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs.
type Config struct {
	Crawler CrawlerConfig `mapstructure:"crawler"`
	Oracle  OracleConfig  `mapstructure:"oracle"`
	PubSub  PubSubConfig  `mapstructure:"pubsub"`
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// CrawlerConfig governs frontier and pipeline behavior.
type CrawlerConfig struct {
	SeedURLs           []string      `mapstructure:"seed_urls"`
	MaxPages           int           `mapstructure:"max_pages"`
	MaxDepth           int           `mapstructure:"max_depth"`
	MaxConcurrent      int           `mapstructure:"max_concurrent"`
	PolitenessDelay    time.Duration `mapstructure:"politeness_delay"`
	MinConfidence      float64       `mapstructure:"min_confidence"`
	DaysLookahead      int           `mapstructure:"days_lookahead"`
	RestrictToSameSite bool          `mapstructure:"restrict_to_same_site"`
	RunTimeout         time.Duration `mapstructure:"run_timeout"`
	UserAgent          string        `mapstructure:"user_agent"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
	MaxRetries         int           `mapstructure:"max_retries"`
	BackoffInitial     time.Duration `mapstructure:"backoff_initial"`
	BackoffMax         time.Duration `mapstructure:"backoff_max"`
	Timezone           string        `mapstructure:"timezone"`
}

// OracleConfig points at the external classification service.
type OracleConfig struct {
	Endpoint   string        `mapstructure:"endpoint"`
	APIKey     string        `mapstructure:"api_key"`
	Model      string        `mapstructure:"model"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
}

// PubSubConfig holds the downstream topic coordinates; empty project
// disables publishing.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// ServerConfig controls the control API.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from defaults, an optional config file, and
// SPIDER_-prefixed environment variables.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SPIDER")
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
	v.SetDefault("crawler.max_pages", 300)
	v.SetDefault("crawler.max_depth", 3)
	v.SetDefault("crawler.max_concurrent", 10)
	v.SetDefault("crawler.politeness_delay", "100ms")
	v.SetDefault("crawler.min_confidence", 0.60)
	v.SetDefault("crawler.days_lookahead", 90)
	v.SetDefault("crawler.restrict_to_same_site", true)
	v.SetDefault("crawler.run_timeout", "0s")
	v.SetDefault("crawler.user_agent", "campuseats-spider/1.0 (+https://github.com/campuseats/spider)")
	v.SetDefault("crawler.request_timeout", "20s")
	v.SetDefault("crawler.max_retries", 2)
	v.SetDefault("crawler.backoff_initial", "250ms")
	v.SetDefault("crawler.backoff_max", "5s")
	v.SetDefault("crawler.timezone", "America/New_York")
	v.SetDefault("oracle.model", "food-confirm-v1")
	v.SetDefault("oracle.timeout", "12s")
	v.SetDefault("oracle.max_retries", 2)
	v.SetDefault("server.port", 8080)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits. A validation
// failure is the only error that aborts a run before any fetch is issued.
func (c Config) Validate() error {
	if c.Crawler.MaxPages <= 0 {
		return fmt.Errorf("crawler.max_pages must be > 0")
	}
	if c.Crawler.MaxDepth < 0 {
		return fmt.Errorf("crawler.max_depth must be >= 0")
	}
	if c.Crawler.MaxConcurrent <= 0 {
		return fmt.Errorf("crawler.max_concurrent must be > 0")
	}
	if c.Crawler.MinConfidence < 0 || c.Crawler.MinConfidence > 1 {
		return fmt.Errorf("crawler.min_confidence must be in [0,1]")
	}
	if c.Crawler.DaysLookahead <= 0 {
		return fmt.Errorf("crawler.days_lookahead must be > 0")
	}
	if c.Crawler.RequestTimeout <= 0 {
		return fmt.Errorf("crawler.request_timeout must be > 0")
	}
	if c.Oracle.Endpoint != "" && c.Oracle.Timeout <= 0 {
		return fmt.Errorf("oracle.timeout must be > 0 when an endpoint is set")
	}
	if c.PubSub.ProjectID != "" && c.PubSub.TopicName == "" {
		return fmt.Errorf("pubsub.topic_name must be set when pubsub.project_id is set")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	return nil
}

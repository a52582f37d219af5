package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Sentiflow  SentiflowConfig  `yaml:"sentiflow"`
	Server     ServerConfig     `yaml:"server"`
	Cache      CacheConfig      `yaml:"cache"`
	Scraper    ScraperConfig    `yaml:"scraper"`
	Sources    SourcesConfig    `yaml:"sources"`
	Gemini     GeminiConfig     `yaml:"gemini"`
	Logging    LoggingConfig    `yaml:"logging"`
	Cloudwatch CloudwatchConfig `yaml:"cloudwatch"`
}

type SentiflowConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type ServerConfig struct {
	Address string `yaml:"address"`
}

type CacheConfig struct {
	DefaultTTLMinutes    int `yaml:"default_ttl_minutes"`
	SweepIntervalMinutes int `yaml:"sweep_interval_minutes"`
}

// ScraperConfig carries the settings shared by every source scraper.
// TimeoutMs bounds each upstream call so a stalled provider cannot hold a
// request open indefinitely; a timeout counts as an ordinary fetch failure.
type ScraperConfig struct {
	TimeoutMs  int             `yaml:"timeout_ms"`
	UserAgent  string          `yaml:"user_agent"`
	FetchLimit int             `yaml:"fetch_limit"`
	RateLimit  RateLimitConfig `yaml:"rate_limit"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size"`
}

type SourcesConfig struct {
	Reddit     RedditSourceConfig     `yaml:"reddit"`
	Twitter    TwitterSourceConfig    `yaml:"twitter"`
	StockTwits StockTwitsSourceConfig `yaml:"stocktwits"`
}

type RedditSourceConfig struct {
	Enabled    bool     `yaml:"enabled"`
	URL        string   `yaml:"url"`
	Subreddits []string `yaml:"subreddits"`
}

type TwitterSourceConfig struct {
	Enabled bool `yaml:"enabled"`
	// AllowPlaceholder switches the scraper from its degrade-to-empty
	// policy to templated placeholder data. Off in every shipped config.
	AllowPlaceholder bool `yaml:"allow_placeholder"`
}

type StockTwitsSourceConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
}

// GeminiConfig controls the AI summary path. An empty APIKey disables the
// path entirely; the deterministic template is used instead.
type GeminiConfig struct {
	APIKey          string  `yaml:"api_key"`
	Model           string  `yaml:"model"`
	Temperature     float64 `yaml:"temperature"`
	MaxOutputTokens int     `yaml:"max_output_tokens"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
	MaxAge int    `yaml:"max_age"`
}

type CloudwatchConfig struct {
	Enabled               bool   `yaml:"enabled"`
	Region                string `yaml:"region"`
	Namespace             string `yaml:"namespace"`
	ReportIntervalSeconds int    `yaml:"report_interval_seconds"`
}

func (c CacheConfig) DefaultTTL() time.Duration {
	return time.Duration(c.DefaultTTLMinutes) * time.Minute
}

func (c CacheConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalMinutes) * time.Minute
}

func (c ScraperConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

func LoadConfig(path string) (*Config, error) {
	path = resolveEnvSpecificPath(path, defaultConfigPath, envConfigPaths)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Config{
		Cache: CacheConfig{
			DefaultTTLMinutes:    3,
			SweepIntervalMinutes: 5,
		},
		Scraper: ScraperConfig{
			TimeoutMs:  10000,
			FetchLimit: 20,
		},
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Environment overrides take precedence over file values.
	if v := os.Getenv("PORT"); v != "" {
		config.Server.Address = ":" + strings.TrimSpace(v)
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		config.Gemini.APIKey = strings.TrimSpace(v)
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		config.Logging.Level = strings.TrimSpace(v)
	}
	if config.Cloudwatch.Enabled {
		if v := os.Getenv("AWS_REGION"); v != "" {
			config.Cloudwatch.Region = strings.TrimSpace(v)
		}
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func validateConfig(cfg *Config) error {
	if cfg.Sentiflow.Name == "" {
		return fmt.Errorf("sentiflow.name is required")
	}
	if cfg.Sentiflow.Version == "" {
		return fmt.Errorf("sentiflow.version is required")
	}

	if cfg.Server.Address == "" {
		return fmt.Errorf("server.address is required")
	}

	if cfg.Cache.DefaultTTLMinutes <= 0 {
		return fmt.Errorf("cache.default_ttl_minutes must be greater than 0")
	}
	if cfg.Cache.SweepIntervalMinutes <= 0 {
		return fmt.Errorf("cache.sweep_interval_minutes must be greater than 0")
	}

	if cfg.Scraper.TimeoutMs <= 0 {
		return fmt.Errorf("scraper.timeout_ms must be greater than 0")
	}
	if cfg.Scraper.FetchLimit <= 0 {
		return fmt.Errorf("scraper.fetch_limit must be greater than 0")
	}

	if cfg.Sources.Reddit.Enabled {
		if cfg.Sources.Reddit.URL == "" {
			return fmt.Errorf("sources.reddit.url is required when reddit is enabled")
		}
		if len(cfg.Sources.Reddit.Subreddits) == 0 {
			return fmt.Errorf("sources.reddit.subreddits must not be empty when reddit is enabled")
		}
		for _, sub := range cfg.Sources.Reddit.Subreddits {
			if !isValidSubreddit(sub) {
				return fmt.Errorf("sources.reddit.subreddits entry '%s' is invalid", sub)
			}
		}
	}

	if cfg.Sources.StockTwits.Enabled && cfg.Sources.StockTwits.URL == "" {
		return fmt.Errorf("sources.stocktwits.url is required when stocktwits is enabled")
	}

	if cfg.Gemini.APIKey != "" {
		if cfg.Gemini.Model == "" {
			return fmt.Errorf("gemini.model is required when an API key is configured")
		}
		if cfg.Gemini.MaxOutputTokens <= 0 {
			return fmt.Errorf("gemini.max_output_tokens must be greater than 0")
		}
	}

	if cfg.Cloudwatch.Enabled && cfg.Cloudwatch.Namespace == "" {
		return fmt.Errorf("cloudwatch.namespace is required when cloudwatch is enabled")
	}

	return nil
}

var subredditRegexp = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_]{1,20}$`)

func isValidSubreddit(name string) bool {
	return subredditRegexp.MatchString(name)
}

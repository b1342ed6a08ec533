package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the full configuration for the insight service.
type Config struct {
	Fetch       FetchConfig       `yaml:"fetch"`
	Catalog     CatalogConfig     `yaml:"catalog"`
	Extract     ExtractConfig     `yaml:"extract"`
	Competitors CompetitorsConfig `yaml:"competitors"`
	Robots      RobotsConfig      `yaml:"robots"`
	DB          SQLConfig         `yaml:"db"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// FetchConfig controls the HTTP fetch layer shared by all extractors.
type FetchConfig struct {
	UserAgent    string            `yaml:"user_agent"`
	Headers      map[string]string `yaml:"headers"`
	Timeout      Duration          `yaml:"timeout"`
	MaxRetries   int               `yaml:"max_retries"`
	RetryBackoff Duration          `yaml:"retry_backoff"`
	MaxBodyBytes int64             `yaml:"max_body_bytes"`
	HostDelay    Duration          `yaml:"host_delay"`
}

// CatalogConfig controls product listing pagination.
type CatalogConfig struct {
	PageSize int `yaml:"page_size"`
	// MaxPages is a defensive ceiling against endpoints that never
	// return a short page. Well-formed servers terminate earlier.
	MaxPages int `yaml:"max_pages"`
}

// ExtractConfig bounds the heuristic extractors.
type ExtractConfig struct {
	MaxFAQs         int `yaml:"max_faqs"`
	MaxFAQPages     int `yaml:"max_faq_pages"`
	MaxHeroProducts int `yaml:"max_hero_products"`
	PolicyCharLimit int `yaml:"policy_char_limit"`
	AboutCharLimit  int `yaml:"about_char_limit"`
}

// CompetitorsConfig controls competitor discovery and analysis.
type CompetitorsConfig struct {
	MaxCompetitors int      `yaml:"max_competitors"`
	MaxWorkers     int      `yaml:"max_workers"`
	Deadline       Duration `yaml:"deadline"`
	SearchEndpoint string   `yaml:"search_endpoint"`
}

// RobotsConfig configures robots.txt handling for sub-page fetches.
type RobotsConfig struct {
	Respect   bool     `yaml:"respect"`
	UserAgent string   `yaml:"user_agent"`
	CacheTTL  Duration `yaml:"cache_ttl"`
}

// SQLConfig describes the relational sink for completed insights.
type SQLConfig struct {
	Driver          string   `yaml:"driver"`
	DSN             string   `yaml:"dsn"`
	MaxOpenConns    int      `yaml:"max_open_conns"`
	MaxIdleConns    int      `yaml:"max_idle_conns"`
	ConnMaxLifetime Duration `yaml:"conn_max_lifetime"`
	AutoMigrate     bool     `yaml:"auto_migrate"`
}

// LoggingConfig selects log verbosity and format.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Structured bool   `yaml:"structured"`
}

// Default returns a Config populated with sensible defaults.
func Default() Config {
	return Config{
		Fetch: FetchConfig{
			UserAgent:    "brandscope-bot/1.0",
			Headers:      map[string]string{},
			Timeout:      DurationFrom(10 * time.Second),
			MaxRetries:   3,
			RetryBackoff: DurationFrom(time.Second),
			MaxBodyBytes: 6 * 1024 * 1024,
			HostDelay:    DurationFrom(1500 * time.Millisecond),
		},
		Catalog: CatalogConfig{
			PageSize: 50,
			MaxPages: 200,
		},
		Extract: ExtractConfig{
			MaxFAQs:         10,
			MaxFAQPages:     3,
			MaxHeroProducts: 6,
			PolicyCharLimit: 1000,
			AboutCharLimit:  500,
		},
		Competitors: CompetitorsConfig{
			MaxCompetitors: 3,
			MaxWorkers:     2,
			Deadline:       DurationFrom(5 * time.Minute),
			SearchEndpoint: "https://html.duckduckgo.com/html/",
		},
		Robots: RobotsConfig{
			Respect:   false,
			UserAgent: "brandscope-bot/1.0",
			CacheTTL:  DurationFrom(6 * time.Hour),
		},
		DB: SQLConfig{
			AutoMigrate: true,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Structured: true,
		},
	}
}

// Load reads, merges, and validates configuration from a YAML file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.normalise()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalise() {
	if c.Fetch.Headers == nil {
		c.Fetch.Headers = map[string]string{}
	}
	c.Fetch.UserAgent = strings.TrimSpace(c.Fetch.UserAgent)
	if c.Robots.UserAgent == "" {
		c.Robots.UserAgent = c.Fetch.UserAgent
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if c.Fetch.Timeout.Duration <= 0 {
		return fmt.Errorf("fetch.timeout must be positive")
	}
	if c.Fetch.MaxRetries < 0 {
		return fmt.Errorf("fetch.max_retries cannot be negative")
	}
	if c.Catalog.PageSize <= 0 {
		return fmt.Errorf("catalog.page_size must be positive")
	}
	if c.Catalog.MaxPages <= 0 {
		return fmt.Errorf("catalog.max_pages must be positive")
	}
	if c.Extract.MaxFAQs <= 0 {
		return fmt.Errorf("extract.max_faqs must be positive")
	}
	if c.Competitors.MaxWorkers <= 0 {
		return fmt.Errorf("competitors.max_workers must be positive")
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported log level %q", c.Logging.Level)
	}
	return nil
}

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/elonfeng/toughnews/pkg/source"
)

// Config is the root configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Fetch    FetchConfig    `yaml:"fetch"`
	Feeds    []source.Feed  `yaml:"feeds"`
	Filter   FilterConfig   `yaml:"filter"`
	Select   SelectConfig   `yaml:"select"`
	Merge    MergeConfig    `yaml:"merge"`
	Alerts   AlertsConfig   `yaml:"alerts"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
}

// StoreConfig configures persistence. Driver "json" keeps one file per key in
// Path (a directory); "sqlite" uses Path as the database file.
type StoreConfig struct {
	Driver      string `yaml:"driver"`
	Path        string `yaml:"path"`
	ArticlesKey string `yaml:"articles_key"`
	ArchiveKey  string `yaml:"archive_key"`
}

// ScheduleConfig configures the daemon interval.
type ScheduleConfig struct {
	Interval string `yaml:"interval"`
}

// ParseInterval returns the run interval as time.Duration.
func (s ScheduleConfig) ParseInterval() time.Duration {
	d, err := time.ParseDuration(s.Interval)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}

// FetchConfig tunes feed fetching.
type FetchConfig struct {
	Timeout       string  `yaml:"timeout"`
	Concurrency   int     `yaml:"concurrency"`
	RatePerSecond float64 `yaml:"rate_per_second"`
}

// ParseTimeout returns the per-feed timeout as time.Duration.
func (f FetchConfig) ParseTimeout() time.Duration {
	d, err := time.ParseDuration(f.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// FilterConfig holds the classifier keyword lists. Leaving a list out of the
// YAML keeps the built-in defaults.
type FilterConfig struct {
	BadKeywords     []string `yaml:"bad_keywords"`
	ExcludeKeywords []string `yaml:"exclude_keywords"`
	// Sentiment is "vader" or "none".
	Sentiment string `yaml:"sentiment"`
}

// SelectConfig configures the quota selector.
type SelectConfig struct {
	Capacity int `yaml:"capacity"`
}

// MergeConfig selects the merge policy ("additive" or "replace").
type MergeConfig struct {
	Policy string `yaml:"policy"`
}

// AlertsConfig configures alert destinations.
type AlertsConfig struct {
	Slack   SlackConfig   `yaml:"slack"`
	Discord DiscordConfig `yaml:"discord"`
	Webhook WebhookConfig `yaml:"webhook"`
}

// SlackConfig for Slack webhook alerts.
type SlackConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// DiscordConfig for Discord webhook alerts.
type DiscordConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// WebhookConfig for generic webhook alerts.
type WebhookConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Secret  string `yaml:"secret"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port"`
	// AllowedOrigins enables CORS for the listed browser origins.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// DefaultFeeds returns the built-in feed list.
func DefaultFeeds() []source.Feed {
	return []source.Feed{
		{Name: "BBC News", URL: "https://feeds.bbci.co.uk/news/rss.xml", Tier: source.TierNormal},
		{Name: "AP News", URL: "https://feedx.net/rss/ap.xml", Tier: source.TierNormal},
		{Name: "Euronews", URL: "https://www.euronews.com/rss", Tier: source.TierNormal},
		{Name: "Time", URL: "https://time.com/feed/", Tier: source.TierNormal},
		{Name: "NY Times", URL: "https://rss.nytimes.com/services/xml/rss/nyt/HomePage.xml", Tier: source.TierNormal},
		{Name: "CBC", URL: "https://www.cbc.ca/webfeed/rss/rss-topstories", Tier: source.TierNormal},
		{Name: "Global News", URL: "https://globalnews.ca/feed/", Tier: source.TierNormal},
		{Name: "Al Jazeera", URL: "https://www.aljazeera.com/xml/rss/all.xml", Tier: source.TierNormal},
		{Name: "NPR News", URL: "https://www.npr.org/rss/rss.php?id=1001", Tier: source.TierNormal},
		{Name: "ReliefWeb", URL: "https://reliefweb.int/updates/rss.xml", Tier: source.TierNormal},
		{Name: "Odd News", URL: "https://www.odditycentral.com/feed", Tier: source.TierOdd},
		{Name: "HuffPost Weird", URL: "https://www.huffpost.com/section/weird-news/feed", Tier: source.TierOdd},
	}
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Driver:      "json",
			Path:        "./data",
			ArticlesKey: "articles",
			ArchiveKey:  "archive",
		},
		Schedule: ScheduleConfig{Interval: "1h"},
		Fetch: FetchConfig{
			Timeout:     "30s",
			Concurrency: 4,
		},
		Feeds:  DefaultFeeds(),
		Filter: FilterConfig{Sentiment: "vader"},
		Select: SelectConfig{Capacity: 20},
		Merge:  MergeConfig{Policy: "additive"},
		Server: ServerConfig{Port: 8080},
		Log:    LogConfig{Level: "info"},
	}
}

// Load reads configuration from a YAML file and applies env var overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides overrides config values with environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TOUGHNEWS_STORE_DRIVER"); v != "" {
		cfg.Store.Driver = v
	}
	if v := os.Getenv("TOUGHNEWS_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("TOUGHNEWS_MERGE_POLICY"); v != "" {
		cfg.Merge.Policy = v
	}
	if v := os.Getenv("TOUGHNEWS_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("SLACK_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Slack.WebhookURL = v
		cfg.Alerts.Slack.Enabled = true
	}
	if v := os.Getenv("DISCORD_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Discord.WebhookURL = v
		cfg.Alerts.Discord.Enabled = true
	}
	if v := os.Getenv("TOUGHNEWS_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Webhook.URL = v
		cfg.Alerts.Webhook.Enabled = true
	}
	if v := os.Getenv("TOUGHNEWS_WEBHOOK_SECRET"); v != "" {
		cfg.Alerts.Webhook.Secret = v
	}
	if v := os.Getenv("TOUGHNEWS_ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = nil
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.Server.AllowedOrigins = append(cfg.Server.AllowedOrigins, origin)
			}
		}
	}
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if len(c.Feeds) == 0 {
		return fmt.Errorf("no feeds configured")
	}
	for i, f := range c.Feeds {
		if f.Name == "" || f.URL == "" {
			return fmt.Errorf("feed %d: name and url are required", i)
		}
		if !f.Tier.Valid() {
			return fmt.Errorf("feed %s: unknown tier %q", f.Name, f.Tier)
		}
	}
	switch c.Store.Driver {
	case "json", "sqlite":
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Store.ArticlesKey == "" || c.Store.ArchiveKey == "" {
		return fmt.Errorf("store keys must not be empty")
	}
	if c.Store.ArticlesKey == c.Store.ArchiveKey {
		return fmt.Errorf("articles and archive keys must differ")
	}
	switch c.Merge.Policy {
	case "additive", "replace":
	default:
		return fmt.Errorf("unknown merge policy %q", c.Merge.Policy)
	}
	switch c.Filter.Sentiment {
	case "vader", "none":
	default:
		return fmt.Errorf("unknown sentiment scorer %q", c.Filter.Sentiment)
	}
	if c.Select.Capacity <= 0 {
		return fmt.Errorf("select capacity must be positive, got %d", c.Select.Capacity)
	}
	return nil
}

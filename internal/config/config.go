// Package config loads the artscroll TOML configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
)

// Config is the application configuration.
type Config struct {
	Catalog     CatalogConfig     `toml:"catalog"`
	Translation TranslationConfig `toml:"translation"`
	Assets      AssetsConfig      `toml:"assets"`
	Feed        FeedConfig        `toml:"feed"`
	Logging     LoggingConfig     `toml:"logging"`
	Store       StoreConfig       `toml:"store"`
}

// CatalogConfig controls the artwork catalog client.
type CatalogConfig struct {
	BaseURL           string  `toml:"base_url"`
	PageUniverse      int     `toml:"page_universe"`
	DiscoveryBatch    int     `toml:"discovery_batch"`
	SearchBatch       int     `toml:"search_batch"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// TranslationConfig controls title/description enrichment.
type TranslationConfig struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	APIKey         string `toml:"api_key,omitempty"`
	SourceLang     string `toml:"source_lang"`
	TargetLang     string `toml:"target_lang"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// AssetsConfig controls image loading and the in-memory asset cache.
type AssetsConfig struct {
	TimeoutSeconds int   `toml:"timeout_seconds"`
	CacheSize      int   `toml:"cache_size"`
	MaxBytes       int64 `toml:"max_bytes"`
}

// FeedConfig holds the feed engine tuning constants.
type FeedConfig struct {
	TailThreshold int `toml:"tail_threshold"`
	PrefetchAhead int `toml:"prefetch_ahead"`
}

// LoggingConfig controls the log file and the JSONL event log.
type LoggingConfig struct {
	Dir    string `toml:"dir"`
	Level  string `toml:"level"`
	Events bool   `toml:"events"`
}

// StoreConfig locates the translation memo database.
type StoreConfig struct {
	Path string `toml:"path"`
}

// Dir returns ~/.artscroll.
func Dir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".artscroll")
}

// Path returns the default config file path.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load reads the config at path (the default path when empty). A missing
// file yields defaults. Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read is Load without validation, for callers that apply overrides first.
func Read(path string) (*Config, error) {
	if path == "" {
		path = Path()
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.AutoPopulateFromEnv()
	cfg.normalize()
	return cfg, nil
}

// AutoPopulateFromEnv fills endpoints and keys from environment variables.
func (c *Config) AutoPopulateFromEnv() {
	if v := os.Getenv("ARTSCROLL_CATALOG_URL"); v != "" {
		c.Catalog.BaseURL = v
	}
	if v := os.Getenv("ARTSCROLL_TRANSLATE_URL"); v != "" {
		c.Translation.Endpoint = v
	}
	if v := os.Getenv("ARTSCROLL_TRANSLATE_KEY"); v != "" {
		c.Translation.APIKey = v
	}
	if v := os.Getenv("ARTSCROLL_TARGET_LANG"); v != "" {
		c.Translation.TargetLang = v
	}
}

func (c *Config) normalize() {
	c.Catalog.BaseURL = strings.TrimRight(strings.TrimSpace(c.Catalog.BaseURL), "/")
	c.Translation.Endpoint = strings.TrimRight(strings.TrimSpace(c.Translation.Endpoint), "/")
	c.Translation.SourceLang = strings.TrimSpace(c.Translation.SourceLang)
	c.Translation.TargetLang = strings.TrimSpace(c.Translation.TargetLang)
	if c.Logging.Dir == "" {
		c.Logging.Dir = filepath.Join(Dir(), "logs")
	}
	if c.Store.Path == "" {
		c.Store.Path = ":memory:"
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Catalog.BaseURL == "" {
		return errors.New("config: catalog.base_url is required")
	}
	if c.Catalog.PageUniverse < 1 {
		return fmt.Errorf("config: catalog.page_universe must be positive, got %d", c.Catalog.PageUniverse)
	}
	if c.Catalog.DiscoveryBatch < 1 || c.Catalog.SearchBatch < 1 {
		return errors.New("config: catalog batch sizes must be positive")
	}
	if c.Catalog.TimeoutSeconds < 1 || c.Assets.TimeoutSeconds < 1 {
		return errors.New("config: timeouts must be at least one second")
	}
	if c.Catalog.RequestsPerSecond <= 0 {
		return errors.New("config: catalog.requests_per_second must be positive")
	}
	if c.Feed.TailThreshold < 1 {
		return fmt.Errorf("config: feed.tail_threshold must be positive, got %d", c.Feed.TailThreshold)
	}
	if c.Feed.PrefetchAhead < 0 {
		return fmt.Errorf("config: feed.prefetch_ahead must not be negative, got %d", c.Feed.PrefetchAhead)
	}
	if c.Translation.Enabled {
		if c.Translation.Endpoint == "" {
			return errors.New("config: translation.endpoint is required when translation is enabled")
		}
		if c.Translation.TimeoutSeconds < 1 {
			return errors.New("config: translation.timeout_seconds must be at least one second")
		}
		if c.Translation.SourceLang != "auto" {
			if _, err := language.Parse(c.Translation.SourceLang); err != nil {
				return fmt.Errorf("config: translation.source_lang %q: %w", c.Translation.SourceLang, err)
			}
		}
		if _, err := language.Parse(c.Translation.TargetLang); err != nil {
			return fmt.Errorf("config: translation.target_lang %q: %w", c.Translation.TargetLang, err)
		}
	}
	return nil
}

// Encode renders the config as TOML.
func (c *Config) Encode() (string, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("config: encode: %w", err)
	}
	return string(data), nil
}

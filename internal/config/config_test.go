package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"ARTSCROLL_CATALOG_URL", "ARTSCROLL_TRANSLATE_URL", "ARTSCROLL_TRANSLATE_KEY", "ARTSCROLL_TARGET_LANG"} {
		t.Setenv(k, "")
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	def := DefaultConfig()
	if cfg.Catalog.BaseURL != def.Catalog.BaseURL {
		t.Errorf("BaseURL = %q, want %q", cfg.Catalog.BaseURL, def.Catalog.BaseURL)
	}
	if cfg.Catalog.DiscoveryBatch >= cfg.Catalog.SearchBatch {
		t.Errorf("discovery batch %d should be smaller than search batch %d", cfg.Catalog.DiscoveryBatch, cfg.Catalog.SearchBatch)
	}
	if cfg.Store.Path != ":memory:" {
		t.Errorf("Store.Path = %q, want :memory:", cfg.Store.Path)
	}
	if cfg.Logging.Dir == "" {
		t.Error("Logging.Dir should be filled in")
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[catalog]
base_url = "http://catalog.test/api/"
discovery_batch = 9

[translation]
enabled = true
endpoint = "http://translate.test"
target_lang = "fr"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Catalog.BaseURL != "http://catalog.test/api" {
		t.Errorf("BaseURL = %q, trailing slash should be trimmed", cfg.Catalog.BaseURL)
	}
	if cfg.Catalog.DiscoveryBatch != 9 {
		t.Errorf("DiscoveryBatch = %d, want 9", cfg.Catalog.DiscoveryBatch)
	}
	if cfg.Catalog.SearchBatch != DefaultConfig().Catalog.SearchBatch {
		t.Errorf("SearchBatch should keep its default, got %d", cfg.Catalog.SearchBatch)
	}
	if !cfg.Translation.Enabled || cfg.Translation.TargetLang != "fr" {
		t.Errorf("translation not loaded: %+v", cfg.Translation)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("ARTSCROLL_CATALOG_URL", "http://env.test")
	t.Setenv("ARTSCROLL_TRANSLATE_KEY", "secret")
	t.Setenv("ARTSCROLL_TARGET_LANG", "de")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Catalog.BaseURL != "http://env.test" {
		t.Errorf("BaseURL = %q", cfg.Catalog.BaseURL)
	}
	if cfg.Translation.APIKey != "secret" || cfg.Translation.TargetLang != "de" {
		t.Errorf("translation env not applied: %+v", cfg.Translation)
	}
}

func TestLoadRejectsBadTOML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[catalog\nbase_url ="), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestReadDefersValidation(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[translation]\nenabled = true\ntarget_lang = \"%%\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load should validate")
	}
	cfg, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if cfg.Translation.TargetLang != "%%" {
		t.Errorf("target_lang = %q", cfg.Translation.TargetLang)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"no base url", func(c *Config) { c.Catalog.BaseURL = "" }, "base_url"},
		{"zero pages", func(c *Config) { c.Catalog.PageUniverse = 0 }, "page_universe"},
		{"zero batch", func(c *Config) { c.Catalog.SearchBatch = 0 }, "batch"},
		{"zero tail", func(c *Config) { c.Feed.TailThreshold = 0 }, "tail_threshold"},
		{"negative prefetch", func(c *Config) { c.Feed.PrefetchAhead = -1 }, "prefetch_ahead"},
		{"bad target", func(c *Config) {
			c.Translation.Enabled = true
			c.Translation.TargetLang = "not a language!"
		}, "target_lang"},
		{"auto source ok", func(c *Config) {
			c.Translation.Enabled = true
			c.Translation.SourceLang = "auto"
		}, ""},
		{"bad target ignored when disabled", func(c *Config) {
			c.Translation.TargetLang = "???"
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Translation.TargetLang = "ja"

	out, err := cfg.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	var back Config
	if err := toml.Unmarshal([]byte(out), &back); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if back.Translation.TargetLang != "ja" {
		t.Errorf("TargetLang = %q, want ja", back.Translation.TargetLang)
	}
}

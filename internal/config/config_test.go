package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize defaults: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Batch.Concurrency != 2 {
		t.Errorf("default concurrency = %d, want 2", cfg.Batch.Concurrency)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.toml")

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Error("missing config should report exists=false")
	}
	if resolved != path {
		t.Errorf("resolved path = %q, want %q", resolved, path)
	}
	if cfg.Whisper.Model != "small" {
		t.Errorf("default whisper model = %q", cfg.Whisper.Model)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[batch]
concurrency = 99

[whisper]
model = "  large-v3 "
language = "Spanish"

[translator]
base_url = "https://example.test/v1/"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("config file should have been found")
	}
	if cfg.Batch.Concurrency != maxConcurrency {
		t.Errorf("concurrency should clamp to %d, got %d", maxConcurrency, cfg.Batch.Concurrency)
	}
	if cfg.Whisper.Model != "large-v3" {
		t.Errorf("model not trimmed: %q", cfg.Whisper.Model)
	}
	if cfg.Whisper.Language != "es" {
		t.Errorf("language not normalized: %q", cfg.Whisper.Language)
	}
	if strings.HasSuffix(cfg.Translator.BaseURL, "/") {
		t.Errorf("base url should have trailing slash trimmed: %q", cfg.Translator.BaseURL)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty output dir", func(c *Config) { c.Paths.OutputDir = "" }},
		{"cache without dir", func(c *Config) { c.Paths.CacheDir = "" }},
		{"zero cache budget", func(c *Config) { c.Cache.MaxMiB = 0 }},
		{"zero ttl", func(c *Config) { c.Cache.TTLDays = 0 }},
		{"bad language", func(c *Config) { c.Whisper.Language = "not-a-language-at-all" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "yaml" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			if err := cfg.normalize(); err != nil {
				t.Fatalf("normalize: %v", err)
			}
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestDurationHelpers(t *testing.T) {
	cfg := Default()
	cfg.Batch.RetryBackoffSeconds = 5
	cfg.Batch.JobTimeoutMinutes = 3
	cfg.Cache.TTLDays = 2
	cfg.Cache.MaxMiB = 10

	if got := cfg.RetryBackoff(); got != 5*time.Second {
		t.Errorf("RetryBackoff = %v", got)
	}
	if got := cfg.JobTimeout(); got != 3*time.Minute {
		t.Errorf("JobTimeout = %v", got)
	}
	if got := cfg.CacheTTL(); got != 48*time.Hour {
		t.Errorf("CacheTTL = %v", got)
	}
	if got := cfg.CacheMaxBytes(); got != 10*1024*1024 {
		t.Errorf("CacheMaxBytes = %d", got)
	}
}

func TestExpandPathHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir: %v", err)
	}
	got, err := ExpandPath("~/transcripts")
	if err != nil {
		t.Fatalf("ExpandPath: %v", err)
	}
	if got != filepath.Join(home, "transcripts") {
		t.Errorf("ExpandPath = %q", got)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[cache]") {
		t.Error("sample config missing [cache] section")
	}
	// The sample must itself be loadable.
	if _, _, _, err := Load(path); err != nil {
		t.Errorf("sample config should load cleanly: %v", err)
	}
}

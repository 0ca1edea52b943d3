package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Pipeline.TaskFile = "tasks.csv"
	cfg.Pipeline.Prompt = "写一篇文章"
	cfg.Pipeline.ContinuePrompt = "继续"
	return cfg
}

func TestValidateDefaults(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name  string
		mutate func(*Config)
	}{
		{"missing task file", func(c *Config) { c.Pipeline.TaskFile = "" }},
		{"missing prompt", func(c *Config) { c.Pipeline.Prompt = "" }},
		{"negative continuation", func(c *Config) { c.Pipeline.MaxContinuation = -1 }},
		{"continuation without prompt", func(c *Config) { c.Pipeline.ContinuePrompt = "" }},
		{"unknown platform", func(c *Config) { c.Generator.Platform = "bard" }},
		{"bad model url", func(c *Config) { c.Generator.ModelURL = "ftp://poe.com" }},
		{"zero gen timeout", func(c *Config) { c.Generator.GenTimeout = 0 }},
		{"missing stop button", func(c *Config) { c.Generator.Selectors.StopButton = "" }},
		{"unknown store type", func(c *Config) { c.Store.Type = "redis" }},
		{"mongodb without uri", func(c *Config) { c.Store.Type = "mongodb" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "trace" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "logfmt" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestValidateScraperOnlyWhenCollecting(t *testing.T) {
	cfg := validConfig()
	cfg.Scraper.HomeURL = "not a url"

	// Collection disabled, scraper settings are not consulted.
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate() = %v", err)
	}

	cfg.Pipeline.CollectArticles = true
	if err := Validate(cfg); err == nil {
		t.Error("Validate() = nil, want home_url error")
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scribeflow.yaml")
	yaml := `
pipeline:
  task_file: my_tasks.csv
  prompt: "写一篇关于{topic}的文章"
  min_word_count: 1200
browser:
  headless: true
  nav_timeout: 90s
generator:
  platform: poe
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if cfg.Pipeline.TaskFile != "my_tasks.csv" {
		t.Errorf("task_file = %q", cfg.Pipeline.TaskFile)
	}
	if cfg.Pipeline.MinWordCount != 1200 {
		t.Errorf("min_word_count = %d", cfg.Pipeline.MinWordCount)
	}
	if !cfg.Browser.Headless {
		t.Error("headless not applied")
	}
	if cfg.Browser.NavTimeout != 90*time.Second {
		t.Errorf("nav_timeout = %v", cfg.Browser.NavTimeout)
	}
	// Untouched sections keep their defaults.
	if cfg.Scraper.HomeURL != DefaultConfig().Scraper.HomeURL {
		t.Errorf("home_url = %q", cfg.Scraper.HomeURL)
	}
}

func TestLoadMonicaSelectorSwap(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scribeflow.yaml")
	yaml := `
generator:
  platform: monica
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if cfg.Generator.Selectors != MonicaSelectors() {
		t.Error("monica platform did not swap the selector set")
	}
	if cfg.Generator.Selectors.UploadTrigger == "" {
		t.Error("monica selectors are missing the upload trigger")
	}
}

func TestLoadExplicitSelectorsWin(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scribeflow.yaml")
	yaml := `
generator:
  platform: monica
  selectors:
    chat_input: "#my-input"
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if cfg.Generator.Selectors.ChatInput != "#my-input" {
		t.Errorf("chat_input = %q", cfg.Generator.Selectors.ChatInput)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load("/nonexistent/scribeflow.yaml"); err == nil {
		t.Error("Load() = nil, want error for missing explicit file")
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://www.toutiao.com/", false},
		{"http://localhost:8080/path", false},
		{"ftp://example.com", true},
		{"https://", true},
		{"", true},
	}
	for _, tt := range tests {
		err := ValidateURL(tt.url)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateURL(%q) = %v, wantErr %v", tt.url, err, tt.wantErr)
		}
	}
}

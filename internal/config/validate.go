package config

import (
	"fmt"
	"net/url"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if cfg.Pipeline.TaskFile == "" && cfg.Store.Type == "file" {
		return fmt.Errorf("pipeline.task_file is required for the file task store")
	}
	if cfg.Pipeline.SavePath == "" {
		return fmt.Errorf("pipeline.save_path is required")
	}
	if cfg.Pipeline.Prompt == "" {
		return fmt.Errorf("pipeline.prompt is required")
	}
	if cfg.Pipeline.MinWordCount < 0 {
		return fmt.Errorf("pipeline.min_word_count must be >= 0, got %d", cfg.Pipeline.MinWordCount)
	}
	if cfg.Pipeline.MaxContinuation < 0 {
		return fmt.Errorf("pipeline.max_continuation must be >= 0, got %d", cfg.Pipeline.MaxContinuation)
	}
	if cfg.Pipeline.MaxContinuation > 0 && cfg.Pipeline.ContinuePrompt == "" {
		return fmt.Errorf("pipeline.continue_prompt is required when max_continuation > 0")
	}

	if cfg.Browser.LaunchAttempts < 1 {
		return fmt.Errorf("browser.launch_attempts must be >= 1, got %d", cfg.Browser.LaunchAttempts)
	}
	if cfg.Browser.PollInterval <= 0 {
		return fmt.Errorf("browser.poll_interval must be > 0")
	}
	if cfg.Browser.NavTimeout <= 0 {
		return fmt.Errorf("browser.nav_timeout must be > 0")
	}

	if cfg.Pipeline.CollectArticles || cfg.Pipeline.CollectImages {
		if err := ValidateURL(cfg.Scraper.HomeURL); err != nil {
			return fmt.Errorf("scraper.home_url: %w", err)
		}
		if cfg.Scraper.ArticleCount < 1 {
			return fmt.Errorf("scraper.article_count must be >= 1, got %d", cfg.Scraper.ArticleCount)
		}
		if cfg.Scraper.MaxPages < 1 {
			return fmt.Errorf("scraper.max_pages must be >= 1, got %d", cfg.Scraper.MaxPages)
		}
		if cfg.Scraper.MinContentLength < 0 {
			return fmt.Errorf("scraper.min_content_length must be >= 0")
		}
	}

	if cfg.Generator.Platform != "poe" && cfg.Generator.Platform != "monica" {
		return fmt.Errorf("generator.platform must be 'poe' or 'monica', got %q", cfg.Generator.Platform)
	}
	if err := ValidateURL(cfg.Generator.ModelURL); err != nil {
		return fmt.Errorf("generator.model_url: %w", err)
	}
	if cfg.Generator.GenTimeout <= 0 {
		return fmt.Errorf("generator.gen_timeout must be > 0")
	}
	if cfg.Generator.Selectors.ChatInput == "" {
		return fmt.Errorf("generator.selectors.chat_input is required")
	}
	if cfg.Generator.Selectors.StopButton == "" {
		return fmt.Errorf("generator.selectors.stop_button is required")
	}
	if cfg.Generator.Selectors.LastResponse == "" {
		return fmt.Errorf("generator.selectors.last_response is required")
	}

	if cfg.Store.Type != "file" && cfg.Store.Type != "mongodb" {
		return fmt.Errorf("store.type must be 'file' or 'mongodb', got %q", cfg.Store.Type)
	}
	if cfg.Store.Type == "mongodb" && cfg.Store.MongoURI == "" {
		return fmt.Errorf("store.mongo_uri is required for the mongodb task store")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	return nil
}

// ValidateURL checks if a URL string is usable as a navigation target.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}

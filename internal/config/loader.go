package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from file, environment, and defaults.
// Priority (highest to lowest): env vars > config file > defaults.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix("SCRIBEFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("scribeflow")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".scribeflow"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay if not explicitly specified
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// The Monica UI has its own control set; apply it unless the file
	// overrode the selectors explicitly.
	if cfg.Generator.Platform == "monica" && !v.IsSet("generator.selectors.chat_input") {
		cfg.Generator.Selectors = MonicaSelectors()
	}

	return cfg, nil
}

// setDefaults registers default values in viper.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("pipeline.save_path", cfg.Pipeline.SavePath)
	v.SetDefault("pipeline.staging_dir", cfg.Pipeline.StagingDir)
	v.SetDefault("pipeline.min_word_count", cfg.Pipeline.MinWordCount)
	v.SetDefault("pipeline.max_continuation", cfg.Pipeline.MaxContinuation)

	v.SetDefault("browser.headless", cfg.Browser.Headless)
	v.SetDefault("browser.profile_dir", cfg.Browser.ProfileDir)
	v.SetDefault("browser.user_agent", cfg.Browser.UserAgent)
	v.SetDefault("browser.window_width", cfg.Browser.WindowWidth)
	v.SetDefault("browser.window_height", cfg.Browser.WindowHeight)
	v.SetDefault("browser.launch_attempts", cfg.Browser.LaunchAttempts)
	v.SetDefault("browser.launch_backoff", cfg.Browser.LaunchBackoff)
	v.SetDefault("browser.poll_interval", cfg.Browser.PollInterval)
	v.SetDefault("browser.nav_timeout", cfg.Browser.NavTimeout)
	v.SetDefault("browser.typing_delay", cfg.Browser.TypingDelay)
	v.SetDefault("browser.chunk_threshold", cfg.Browser.ChunkThreshold)

	v.SetDefault("scraper.home_url", cfg.Scraper.HomeURL)
	v.SetDefault("scraper.article_count", cfg.Scraper.ArticleCount)
	v.SetDefault("scraper.image_count", cfg.Scraper.ImageCount)
	v.SetDefault("scraper.max_pages", cfg.Scraper.MaxPages)
	v.SetDefault("scraper.min_content_length", cfg.Scraper.MinContentLength)
	v.SetDefault("scraper.element_timeout", cfg.Scraper.ElementTimeout)
	v.SetDefault("scraper.article_delay", cfg.Scraper.ArticleDelay)

	v.SetDefault("generator.platform", cfg.Generator.Platform)
	v.SetDefault("generator.model_url", cfg.Generator.ModelURL)
	v.SetDefault("generator.page_load_timeout", cfg.Generator.PageLoadTimeout)
	v.SetDefault("generator.start_grace", cfg.Generator.StartGrace)
	v.SetDefault("generator.gen_timeout", cfg.Generator.GenTimeout)
	v.SetDefault("generator.check_interval", cfg.Generator.CheckInterval)

	v.SetDefault("images.crop_bottom_pixels", cfg.Images.CropBottomPixels)
	v.SetDefault("images.max_size_mb", cfg.Images.MaxSizeMB)
	v.SetDefault("images.download_timeout", cfg.Images.DownloadTimeout)

	v.SetDefault("store.type", cfg.Store.Type)
	v.SetDefault("store.database", cfg.Store.Database)
	v.SetDefault("store.collection", cfg.Store.Collection)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
}

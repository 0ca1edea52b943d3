package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for scribeflow.
type Config struct {
	Pipeline  PipelineConfig  `mapstructure:"pipeline"  yaml:"pipeline"`
	Browser   BrowserConfig   `mapstructure:"browser"   yaml:"browser"`
	Scraper   ScraperConfig   `mapstructure:"scraper"   yaml:"scraper"`
	Generator GeneratorConfig `mapstructure:"generator" yaml:"generator"`
	Images    ImagesConfig    `mapstructure:"images"    yaml:"images"`
	Store     StoreConfig     `mapstructure:"store"     yaml:"store"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"`
}

// PipelineConfig controls the orchestrated run.
type PipelineConfig struct {
	TaskFile        string `mapstructure:"task_file"        yaml:"task_file"`
	SavePath        string `mapstructure:"save_path"        yaml:"save_path"`
	StagingDir      string `mapstructure:"staging_dir"      yaml:"staging_dir"`
	Prompt          string `mapstructure:"prompt"           yaml:"prompt"`
	ContinuePrompt  string `mapstructure:"continue_prompt"  yaml:"continue_prompt"`
	MinWordCount    int    `mapstructure:"min_word_count"   yaml:"min_word_count"`
	MaxContinuation int    `mapstructure:"max_continuation" yaml:"max_continuation"`
	CollectArticles bool   `mapstructure:"collect_articles" yaml:"collect_articles"`
	CollectImages   bool   `mapstructure:"collect_images"   yaml:"collect_images"`
	Attachment      string `mapstructure:"attachment"       yaml:"attachment"`
}

// BrowserConfig controls the shared browser session.
type BrowserConfig struct {
	Headless       bool          `mapstructure:"headless"        yaml:"headless"`
	Bin            string        `mapstructure:"bin"             yaml:"bin"`
	ProfileDir     string        `mapstructure:"profile_dir"     yaml:"profile_dir"`
	UserAgent      string        `mapstructure:"user_agent"      yaml:"user_agent"`
	WindowWidth    int           `mapstructure:"window_width"    yaml:"window_width"`
	WindowHeight   int           `mapstructure:"window_height"   yaml:"window_height"`
	LaunchAttempts int           `mapstructure:"launch_attempts" yaml:"launch_attempts"`
	LaunchBackoff  time.Duration `mapstructure:"launch_backoff"  yaml:"launch_backoff"`
	PollInterval   time.Duration `mapstructure:"poll_interval"   yaml:"poll_interval"`
	NavTimeout     time.Duration `mapstructure:"nav_timeout"     yaml:"nav_timeout"`
	TypingDelay    time.Duration `mapstructure:"typing_delay"    yaml:"typing_delay"`
	ChunkThreshold int           `mapstructure:"chunk_threshold" yaml:"chunk_threshold"`
}

// ScraperConfig controls the news-site scraper.
type ScraperConfig struct {
	HomeURL          string        `mapstructure:"home_url"           yaml:"home_url"`
	ArticleCount     int           `mapstructure:"article_count"      yaml:"article_count"`
	ImageCount       int           `mapstructure:"image_count"        yaml:"image_count"`
	MaxPages         int           `mapstructure:"max_pages"          yaml:"max_pages"`
	MinContentLength int           `mapstructure:"min_content_length" yaml:"min_content_length"`
	ElementTimeout   time.Duration `mapstructure:"element_timeout"    yaml:"element_timeout"`
	ArticleDelay     time.Duration `mapstructure:"article_delay"      yaml:"article_delay"`
	Selectors        SiteSelectors `mapstructure:"selectors"          yaml:"selectors"`
}

// SiteSelectors holds the fallback selector lists for the scraped site.
// Every list is tried in order; the first productive selector wins.
type SiteSelectors struct {
	SearchInput  string   `mapstructure:"search_input"  yaml:"search_input"`
	SearchButton string   `mapstructure:"search_button" yaml:"search_button"`
	NewsTab      string   `mapstructure:"news_tab"      yaml:"news_tab"`
	ArticleLinks []string `mapstructure:"article_links" yaml:"article_links"`
	NextPage     []string `mapstructure:"next_page"     yaml:"next_page"`
	Titles       []string `mapstructure:"titles"        yaml:"titles"`
	Contents     []string `mapstructure:"contents"      yaml:"contents"`
	Images       []string `mapstructure:"images"        yaml:"images"`
	Verification []string `mapstructure:"verification"  yaml:"verification"`
}

// GeneratorConfig controls the chat-platform automation.
type GeneratorConfig struct {
	Platform        string        `mapstructure:"platform"          yaml:"platform"` // poe | monica
	ModelURL        string        `mapstructure:"model_url"         yaml:"model_url"`
	PageLoadTimeout time.Duration `mapstructure:"page_load_timeout" yaml:"page_load_timeout"`
	StartGrace      time.Duration `mapstructure:"start_grace"       yaml:"start_grace"`
	GenTimeout      time.Duration `mapstructure:"gen_timeout"       yaml:"gen_timeout"`
	CheckInterval   time.Duration `mapstructure:"check_interval"    yaml:"check_interval"`
	Selectors       ChatSelectors `mapstructure:"selectors"         yaml:"selectors"`
}

// ChatSelectors identifies the interactive controls of a chat platform.
// XPath expressions start with a slash, anything else is CSS.
type ChatSelectors struct {
	ChatInput     string `mapstructure:"chat_input"     yaml:"chat_input"`
	SendButton    string `mapstructure:"send_button"    yaml:"send_button"`
	StopButton    string `mapstructure:"stop_button"    yaml:"stop_button"`
	FileInput     string `mapstructure:"file_input"     yaml:"file_input"`
	UploadTrigger string `mapstructure:"upload_trigger" yaml:"upload_trigger"`
	LastResponse  string `mapstructure:"last_response"  yaml:"last_response"`
}

// ImagesConfig controls image download, transform, and upload.
type ImagesConfig struct {
	CropBottomPixels int           `mapstructure:"crop_bottom_pixels" yaml:"crop_bottom_pixels"`
	MaxSizeMB        int64         `mapstructure:"max_size_mb"        yaml:"max_size_mb"`
	DownloadTimeout  time.Duration `mapstructure:"download_timeout"   yaml:"download_timeout"`
	Qiniu            QiniuConfig   `mapstructure:"qiniu"              yaml:"qiniu"`
}

// QiniuConfig holds Qiniu Kodo credentials. Incomplete credentials
// disable the image step, they do not fail the run.
type QiniuConfig struct {
	AccessKey string `mapstructure:"access_key" yaml:"access_key"`
	SecretKey string `mapstructure:"secret_key" yaml:"secret_key"`
	Bucket    string `mapstructure:"bucket"     yaml:"bucket"`
	Domain    string `mapstructure:"domain"     yaml:"domain"`
}

// StoreConfig selects the task-store backend.
type StoreConfig struct {
	Type       string `mapstructure:"type"       yaml:"type"` // file | mongodb
	MongoURI   string `mapstructure:"mongo_uri"  yaml:"mongo_uri"`
	Database   string `mapstructure:"database"   yaml:"database"`
	Collection string `mapstructure:"collection" yaml:"collection"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// DefaultConfig returns a Config with sensible defaults. Selector
// defaults target the site layouts current at the time of writing; all
// of them can be overridden from the config file when the pages drift.
func DefaultConfig() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			SavePath:        "./articles",
			StagingDir:      ".",
			MinWordCount:    800,
			MaxContinuation: 1,
		},
		Browser: BrowserConfig{
			Headless:       false,
			ProfileDir:     "./chrome_profile",
			UserAgent:      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			WindowWidth:    1920,
			WindowHeight:   1080,
			LaunchAttempts: 10,
			LaunchBackoff:  2 * time.Second,
			PollInterval:   500 * time.Millisecond,
			NavTimeout:     60 * time.Second,
			TypingDelay:    30 * time.Millisecond,
			ChunkThreshold: 200,
		},
		Scraper: ScraperConfig{
			HomeURL:          "https://www.toutiao.com/",
			ArticleCount:     5,
			ImageCount:       3,
			MaxPages:         5,
			MinContentLength: 100,
			ElementTimeout:   15 * time.Second,
			ArticleDelay:     2 * time.Second,
			Selectors: SiteSelectors{
				SearchInput:  "input[type='search']",
				SearchButton: "button[type='submit']",
				NewsTab:      "//div[@role='tablist']//a[contains(., '资讯')]",
				ArticleLinks: []string{
					"div.cs-view a[href*='/article/']",
					"//div[contains(@class, 'result')]//a[contains(@href, 'toutiao.com')]",
				},
				NextPage: []string{
					"//button[contains(., '下一页')]",
					"a.next",
				},
				Titles:   []string{"h1.article-title", "h1"},
				Contents: []string{"article", "div.article-content"},
				Images:   []string{"article img", "div.pgc-img img"},
				Verification: []string{
					"#verify-bar-box",
					"//div[contains(@class, 'captcha')]",
					"//div[contains(text(), '安全验证')]",
				},
			},
		},
		Generator: GeneratorConfig{
			Platform:        "poe",
			ModelURL:        "https://poe.com/GPT-4.1",
			PageLoadTimeout: 30 * time.Second,
			StartGrace:      20 * time.Second,
			GenTimeout:      300 * time.Second,
			CheckInterval:   3 * time.Second,
			Selectors: ChatSelectors{
				ChatInput:    "//textarea[contains(@class, 'GrowingTextArea_textArea')]",
				SendButton:   "//button[@data-button-send='true']",
				StopButton:   "//button[@data-button-stop='true']",
				FileInput:    "//input[@type='file']",
				LastResponse: "//div[contains(@class, 'Message_botMessageBubble')]",
			},
		},
		Images: ImagesConfig{
			CropBottomPixels: 80,
			MaxSizeMB:        20,
			DownloadTimeout:  60 * time.Second,
		},
		Store: StoreConfig{
			Type:       "file",
			Database:   "scribeflow",
			Collection: "tasks",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// MonicaSelectors returns the control set for the Monica chat UI. Used
// when generator.platform is "monica" and no explicit selectors are
// configured.
func MonicaSelectors() ChatSelectors {
	return ChatSelectors{
		ChatInput:     "//div[@class='chat-input']//textarea",
		SendButton:    "//div[contains(@class, 'chat-input')]//button[contains(@class, 'send')]",
		StopButton:    "//button[contains(@class, 'stop-generating')]",
		UploadTrigger: "//div[contains(@class, 'attachment-trigger')]",
		LastResponse:  "//div[contains(@class, 'markdown-body')]",
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/scribeflow/scribeflow/internal/browser"
	"github.com/scribeflow/scribeflow/internal/config"
	"github.com/scribeflow/scribeflow/internal/generator"
	"github.com/scribeflow/scribeflow/internal/images"
	"github.com/scribeflow/scribeflow/internal/pipeline"
	"github.com/scribeflow/scribeflow/internal/scraper"
	"github.com/scribeflow/scribeflow/internal/store"
	"github.com/scribeflow/scribeflow/internal/types"
)

var (
	cfgFile  string
	verbose  bool
	taskFile string
	savePath string
	platform string
	headless bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "scribeflow",
		Short: "ScribeFlow: browser-driven article production pipeline",
		Long: `ScribeFlow turns a task list of article titles into finished
Markdown articles end to end:

  • collects source material and images from a news site
  • drives an AI chat platform through the actual browser UI
  • extends articles that come back below the length floor
  • publishes images and weaves them into the final Markdown
  • writes task status back so interrupted runs resume cleanly`,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(tasksCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// runCmd creates the "run" subcommand.
func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process every pending task in the task list",
		RunE:  runPipeline,
	}

	cmd.Flags().StringVarP(&taskFile, "tasks", "t", "", "task list file (overrides config)")
	cmd.Flags().StringVarP(&savePath, "out", "o", "", "directory for finished articles (overrides config)")
	cmd.Flags().StringVarP(&platform, "platform", "p", "", "chat platform: poe or monica (overrides config)")
	cmd.Flags().BoolVar(&headless, "headless", false, "run the browser headless")

	return cmd
}

func runPipeline(cmd *cobra.Command, args []string) error {
	logger := setupLogger(nil)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyCLIOverrides(cfg)
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	logger = setupLogger(&cfg.Logging)

	taskStore, err := store.Open(cfg.Store, cfg.Pipeline.TaskFile, logger)
	if err != nil {
		return fmt.Errorf("open task store: %w", err)
	}
	defer taskStore.Close()

	session := browser.NewSession(cfg.Browser, logger)
	if err := session.Launch(); err != nil {
		return fmt.Errorf("launch browser: %w", err)
	}
	defer session.Close()

	automator, err := generator.New(session, cfg.Generator, logger)
	if err != nil {
		return fmt.Errorf("create automator: %w", err)
	}

	var intervene scraper.Interventionist
	if cfg.Browser.Headless {
		intervene = &scraper.HeadlessInterventionist{Logger: logger}
	} else {
		intervene = &scraper.ConsoleInterventionist{
			Session: session,
			In:      os.Stdin,
			Logger:  logger,
			Recheck: 5 * time.Second,
		}
	}

	uploader := images.NewQiniuUploader(cfg.Images.Qiniu, logger)
	processor := images.NewProcessor(images.NewDownloader(cfg.Images, logger), uploader, cfg.Images, logger)

	orchestrator := pipeline.New(cfg, pipeline.Deps{
		Store:   taskStore,
		Scraper: scraper.New(session, cfg.Scraper, intervene, logger),
		Gen:     automator,
		Images:  processor,
		Alive:   session.Connected,
	}, logger)

	// Ctrl-C finishes the current step, marks nothing, and tears the
	// browser down through the deferred Close.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down...", "signal", sig)
		cancel()
	}()

	start := time.Now()
	summary, err := orchestrator.Run(ctx)
	if err != nil {
		if errors.Is(err, types.ErrNoPendingTasks) {
			fmt.Println("All tasks are already done.")
			return nil
		}
		return fmt.Errorf("run: %w", err)
	}

	fmt.Printf("\n✅ Run complete in %s\n", time.Since(start).Round(time.Second))
	fmt.Printf("   Tasks:    %s\n", summary)
	fmt.Printf("   Articles: %s\n", cfg.Pipeline.SavePath)
	return nil
}

// tasksCmd creates the "tasks" subcommand for inspecting the list.
func tasksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tasks",
		Short: "Show the task list and each task's status",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogger(nil)
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			taskStore, err := store.Open(cfg.Store, cfg.Pipeline.TaskFile, logger)
			if err != nil {
				return err
			}
			defer taskStore.Close()

			pending, err := taskStore.Pending()
			if err != nil {
				return err
			}
			if len(pending) == 0 {
				fmt.Println("No pending tasks.")
				return nil
			}
			fmt.Printf("%d pending task(s):\n", len(pending))
			for _, t := range pending {
				fmt.Printf("  %3d  %s\n", t.Row+1, t.Title)
			}
			return nil
		},
	}
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("ScribeFlow %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			fmt.Printf("Pipeline:\n")
			fmt.Printf("  Task File:        %s\n", cfg.Pipeline.TaskFile)
			fmt.Printf("  Save Path:        %s\n", cfg.Pipeline.SavePath)
			fmt.Printf("  Min Word Count:   %d\n", cfg.Pipeline.MinWordCount)
			fmt.Printf("  Max Continuation: %d\n", cfg.Pipeline.MaxContinuation)
			fmt.Printf("  Collect Articles: %v\n", cfg.Pipeline.CollectArticles)
			fmt.Printf("  Collect Images:   %v\n", cfg.Pipeline.CollectImages)
			fmt.Printf("\nBrowser:\n")
			fmt.Printf("  Headless:         %v\n", cfg.Browser.Headless)
			fmt.Printf("  Profile Dir:      %s\n", cfg.Browser.ProfileDir)
			fmt.Printf("  Launch Attempts:  %d\n", cfg.Browser.LaunchAttempts)
			fmt.Printf("\nScraper:\n")
			fmt.Printf("  Home URL:         %s\n", cfg.Scraper.HomeURL)
			fmt.Printf("  Article Count:    %d\n", cfg.Scraper.ArticleCount)
			fmt.Printf("  Image Count:      %d\n", cfg.Scraper.ImageCount)
			fmt.Printf("  Max Pages:        %d\n", cfg.Scraper.MaxPages)
			fmt.Printf("\nGenerator:\n")
			fmt.Printf("  Platform:         %s\n", cfg.Generator.Platform)
			fmt.Printf("  Model URL:        %s\n", cfg.Generator.ModelURL)
			fmt.Printf("  Gen Timeout:      %s\n", cfg.Generator.GenTimeout)
			fmt.Printf("\nImages:\n")
			fmt.Printf("  Crop Bottom:      %d px\n", cfg.Images.CropBottomPixels)
			fmt.Printf("  Qiniu Configured: %v\n", cfg.Images.Qiniu.AccessKey != "")
			fmt.Printf("\nTask Store:\n")
			fmt.Printf("  Type:             %s\n", cfg.Store.Type)
			return nil
		},
	}
}

// setupLogger creates a structured logger. Before the config is loaded
// it is called with nil and falls back to text at info level.
func setupLogger(logCfg *config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	format := "text"
	if logCfg != nil {
		switch logCfg.Level {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
		format = logCfg.Format
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// applyCLIOverrides applies command-line flag values to the config.
func applyCLIOverrides(cfg *config.Config) {
	if taskFile != "" {
		cfg.Pipeline.TaskFile = taskFile
	}
	if savePath != "" {
		cfg.Pipeline.SavePath = savePath
	}
	if platform != "" && platform != cfg.Generator.Platform {
		cfg.Generator.Platform = platform
		// A platform switch from the command line brings its default
		// control set along.
		switch platform {
		case "monica":
			cfg.Generator.Selectors = config.MonicaSelectors()
		case "poe":
			cfg.Generator.Selectors = config.DefaultConfig().Generator.Selectors
		}
	}
	if headless {
		cfg.Browser.Headless = true
	}
}

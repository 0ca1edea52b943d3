package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/scribeflow/scribeflow/internal/config"
	"github.com/scribeflow/scribeflow/internal/generator"
	"github.com/scribeflow/scribeflow/internal/scraper"
	"github.com/scribeflow/scribeflow/internal/store"
	"github.com/scribeflow/scribeflow/internal/types"
)

// ArticleScraper collects source material for one keyword.
type ArticleScraper interface {
	Scrape(ctx context.Context, keyword string) ([]types.ScrapedArticle, error)
}

// ImagePublisher turns scraped image references into public URLs.
type ImagePublisher interface {
	Process(ctx context.Context, refs []types.ImageRef, workDir string, max int) []string
}

// Deps are the collaborators the orchestrator drives. Scraper and
// Images may be nil when the corresponding step is disabled.
type Deps struct {
	Store   store.TaskStore
	Scraper ArticleScraper
	Gen     generator.Automator
	Images  ImagePublisher

	// Alive probes shared infrastructure between tasks. A false
	// return aborts the run; a single task failure never does.
	Alive func() bool
}

// Summary is the outcome of one run over the task list.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
}

func (s Summary) String() string {
	return fmt.Sprintf("%d of %d tasks succeeded", s.Succeeded, s.Total)
}

// Orchestrator walks the pending task list in order and produces one
// Markdown article per task.
type Orchestrator struct {
	cfg    *config.Config
	deps   Deps
	chain  *Chain
	logger *slog.Logger
}

func New(cfg *config.Config, deps Deps, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:    cfg,
		deps:   deps,
		chain:  DefaultChain(logger),
		logger: logger.With("component", "orchestrator"),
	}
}

// Run processes every pending task in list order. Task failures are
// recorded and skipped past; the run only aborts when the shared
// infrastructure is gone or the context is cancelled.
func (o *Orchestrator) Run(ctx context.Context) (Summary, error) {
	pending, err := o.deps.Store.Pending()
	if err != nil {
		return Summary{}, err
	}
	if len(pending) == 0 {
		return Summary{}, types.ErrNoPendingTasks
	}

	summary := Summary{Total: len(pending)}
	for i, task := range pending {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if o.deps.Alive != nil && !o.deps.Alive() {
			return summary, types.ErrBrowserGone
		}

		o.logger.Info("task started", "index", i+1, "total", len(pending), "title", task.Title)
		if err := o.runTask(ctx, task); err != nil {
			summary.Failed++
			o.logger.Error("task failed", "title", task.Title, "error", err)
			if markErr := o.deps.Store.Mark(task.Row, types.StatusFailed); markErr != nil {
				o.logger.Error("failure status not recorded", "row", task.Row, "error", markErr)
			}
			continue
		}
		summary.Succeeded++
		if err := o.deps.Store.Mark(task.Row, types.StatusCompleted); err != nil {
			o.logger.Error("completion status not recorded", "row", task.Row, "error", err)
		}
		o.logger.Info("task completed", "title", task.Title)
	}

	o.logger.Info("run finished", "summary", summary.String())
	return summary, nil
}

func (o *Orchestrator) runTask(ctx context.Context, task types.Task) error {
	staging := o.cfg.Pipeline.StagingDir
	scraper.ClearStaging(staging, o.logger)

	if o.cfg.Pipeline.CollectArticles || o.cfg.Pipeline.CollectImages {
		o.collectMaterial(ctx, task.Title)
	}

	attachment, inline := o.resolveAttachment()
	prompt := composePrompt(o.cfg.Pipeline.Prompt, task.Title, inline)

	result, err := o.deps.Gen.Generate(ctx, prompt, attachment)
	if err != nil {
		return err
	}
	result = o.extendIfShort(ctx, result)

	doc, err := o.chain.Apply(&Document{
		Title:    task.Title,
		Markdown: result.Markdown,
		Images:   scraper.ReadImageLinks(staging),
	})
	if err != nil {
		return err
	}
	if doc == nil {
		return fmt.Errorf("article dropped during assembly")
	}
	return o.saveArticle(doc)
}

// collectMaterial scrapes source articles and publishes their images.
// Every failure here is soft; generation proceeds without material.
func (o *Orchestrator) collectMaterial(ctx context.Context, keyword string) {
	if o.deps.Scraper == nil {
		return
	}
	articles, err := o.deps.Scraper.Scrape(ctx, keyword)
	if err != nil {
		o.logger.Warn("material collection failed, generating without it",
			"keyword", keyword, "error", err)
		return
	}
	if len(articles) == 0 {
		o.logger.Warn("no source articles found", "keyword", keyword)
		return
	}

	staging := o.cfg.Pipeline.StagingDir
	if o.cfg.Pipeline.CollectArticles {
		if err := scraper.StageArticles(staging, articles); err != nil {
			o.logger.Warn("staging article digest failed", "error", err)
		}
	}
	if o.cfg.Pipeline.CollectImages && o.deps.Images != nil {
		var refs []types.ImageRef
		for _, a := range articles {
			refs = append(refs, a.Images...)
		}
		urls := o.deps.Images.Process(ctx, refs, staging, o.cfg.Scraper.ImageCount)
		if err := scraper.StageImageLinks(staging, urls); err != nil {
			o.logger.Warn("staging image links failed", "error", err)
		}
	}
}

// resolveAttachment picks the file to attach: an explicitly configured
// file wins over the staged digest. The second return is material to
// inline into the prompt when the platform cannot take attachments.
func (o *Orchestrator) resolveAttachment() (string, string) {
	custom := o.cfg.Pipeline.Attachment
	if custom != "" {
		if _, err := os.Stat(custom); err == nil {
			return custom, ""
		}
		o.logger.Warn("configured attachment missing", "path", custom)
	}

	staged := scraper.ArticlePath(o.cfg.Pipeline.StagingDir)
	if _, err := os.Stat(staged); err != nil {
		return "", ""
	}
	if o.cfg.Generator.Platform == "monica" && o.cfg.Generator.Selectors.UploadTrigger == "" {
		data, err := os.ReadFile(staged)
		if err != nil {
			o.logger.Warn("reading staged digest for inlining failed", "error", err)
			return "", ""
		}
		return "", string(data)
	}
	return staged, ""
}

// composePrompt builds the full prompt: user template, the task title
// as the topic, and optionally inlined source material.
func composePrompt(template, title, inline string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(template))
	if inline != "" {
		b.WriteString("\n\n参考素材：\n")
		b.WriteString(inline)
	}
	b.WriteString("\n\n主题：")
	b.WriteString(title)
	return b.String()
}

// extendIfShort asks for continuation rounds while the article stays
// strictly below the minimum length. A failed round keeps what exists
// instead of failing the task.
func (o *Orchestrator) extendIfShort(ctx context.Context, result *types.GenerationResult) *types.GenerationResult {
	minWords := o.cfg.Pipeline.MinWordCount
	for round := 0; round < o.cfg.Pipeline.MaxContinuation; round++ {
		if result.WordCount >= minWords {
			return result
		}
		o.logger.Info("article below minimum length, continuing",
			"words", result.WordCount, "min", minWords, "round", round+1)

		more, err := o.deps.Gen.Continue(ctx, o.cfg.Pipeline.ContinuePrompt)
		if err != nil {
			o.logger.Warn("continuation failed, keeping what exists", "error", err)
			return result
		}
		result.Markdown = result.Markdown + "\n\n" + more.Markdown
		result.WordCount = generator.WordCount(result.Markdown)
	}
	return result
}

// saveArticle writes the finished document under the save path, named
// by the sanitized title.
func (o *Orchestrator) saveArticle(doc *Document) error {
	if err := os.MkdirAll(o.cfg.Pipeline.SavePath, 0o755); err != nil {
		return fmt.Errorf("creating save path: %w", err)
	}
	path := filepath.Join(o.cfg.Pipeline.SavePath, sanitizeTitle(doc.Title)+".md")
	if err := os.WriteFile(path, []byte(doc.Markdown+"\n"), 0o644); err != nil {
		return fmt.Errorf("writing article: %w", err)
	}
	o.logger.Info("article saved", "path", path)
	return nil
}

// sanitizeTitle keeps letters, digits, spaces, dashes, and underscores
// so the title is safe as a file name on any platform.
func sanitizeTitle(title string) string {
	var b strings.Builder
	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "untitled"
	}
	return out
}

package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/scribeflow/scribeflow/internal/config"
	"github.com/scribeflow/scribeflow/internal/generator"
	"github.com/scribeflow/scribeflow/internal/types"
)

type stubStore struct {
	tasks  []types.Task
	marked map[int]types.TaskStatus
}

func newStubStore(titles ...string) *stubStore {
	s := &stubStore{marked: make(map[int]types.TaskStatus)}
	for i, title := range titles {
		s.tasks = append(s.tasks, types.Task{Row: i, Title: title})
	}
	return s
}

func (s *stubStore) Pending() ([]types.Task, error) { return s.tasks, nil }
func (s *stubStore) Mark(row int, status types.TaskStatus) error {
	s.marked[row] = status
	return nil
}
func (s *stubStore) Close() error { return nil }
func (s *stubStore) Name() string { return "stub" }

type stubAutomator struct {
	generated []string
	continued int
	result    *types.GenerationResult
	more      *types.GenerationResult
	genErr    error
}

func (a *stubAutomator) Generate(_ context.Context, prompt, _ string) (*types.GenerationResult, error) {
	a.generated = append(a.generated, prompt)
	if a.genErr != nil {
		return nil, a.genErr
	}
	r := *a.result
	return &r, nil
}

func (a *stubAutomator) Continue(context.Context, string) (*types.GenerationResult, error) {
	a.continued++
	if a.more == nil {
		return nil, errors.New("no continuation available")
	}
	r := *a.more
	return &r, nil
}

func result(markdown string) *types.GenerationResult {
	return &types.GenerationResult{
		Markdown:  markdown,
		WordCount: generator.WordCount(markdown),
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Pipeline.SavePath = filepath.Join(t.TempDir(), "articles")
	cfg.Pipeline.StagingDir = t.TempDir()
	cfg.Pipeline.Prompt = "写一篇文章"
	cfg.Pipeline.ContinuePrompt = "请继续"
	cfg.Pipeline.MinWordCount = 10
	cfg.Pipeline.MaxContinuation = 1
	cfg.Pipeline.CollectArticles = false
	cfg.Pipeline.CollectImages = false
	return cfg
}

func TestRunHappyPath(t *testing.T) {
	cfg := testConfig(t)
	st := newStubStore("测试标题")
	gen := &stubAutomator{result: result("## 第一节\n\n这里是足够长的正文内容。")}

	o := New(cfg, Deps{Store: st, Gen: gen}, testLogger)
	summary, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Succeeded != 1 || summary.Failed != 0 {
		t.Errorf("summary = %+v", summary)
	}
	if st.marked[0] != types.StatusCompleted {
		t.Errorf("task status = %q, want completed", st.marked[0])
	}

	data, err := os.ReadFile(filepath.Join(cfg.Pipeline.SavePath, "测试标题.md"))
	if err != nil {
		t.Fatalf("article not saved: %v", err)
	}
	if !strings.Contains(string(data), "第一节") {
		t.Errorf("article content wrong: %q", string(data))
	}
	if !strings.Contains(gen.generated[0], "主题：测试标题") {
		t.Errorf("prompt missing topic: %q", gen.generated[0])
	}
}

func TestRunContinuationWhenShort(t *testing.T) {
	cfg := testConfig(t)
	cfg.Pipeline.MinWordCount = 100

	st := newStubStore("短文章")
	gen := &stubAutomator{
		result: result("太短了。"),
		more:   result("这是继续生成的更多内容，补足文章长度。"),
	}

	o := New(cfg, Deps{Store: st, Gen: gen}, testLogger)
	if _, err := o.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if gen.continued != 1 {
		t.Errorf("continuation rounds = %d, want 1", gen.continued)
	}

	data, _ := os.ReadFile(filepath.Join(cfg.Pipeline.SavePath, "短文章.md"))
	if !strings.Contains(string(data), "太短了。") || !strings.Contains(string(data), "更多内容") {
		t.Errorf("rounds not concatenated: %q", string(data))
	}
}

func TestRunNoContinuationAtBoundary(t *testing.T) {
	cfg := testConfig(t)
	body := "## 标题\n\n正文内容正好到界。"
	cfg.Pipeline.MinWordCount = generator.WordCount(body)

	st := newStubStore("边界文章")
	gen := &stubAutomator{result: result(body)}

	o := New(cfg, Deps{Store: st, Gen: gen}, testLogger)
	if _, err := o.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if gen.continued != 0 {
		t.Errorf("continuation triggered at exact boundary, rounds = %d", gen.continued)
	}
}

func TestRunContinuationBounded(t *testing.T) {
	cfg := testConfig(t)
	cfg.Pipeline.MinWordCount = 10000
	cfg.Pipeline.MaxContinuation = 2

	st := newStubStore("永远太短")
	gen := &stubAutomator{
		result: result("短。"),
		more:   result("还是短。"),
	}

	o := New(cfg, Deps{Store: st, Gen: gen}, testLogger)
	if _, err := o.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if gen.continued != 2 {
		t.Errorf("continuation rounds = %d, want capped at 2", gen.continued)
	}
	// The run still completes the task with what it has.
	if st.marked[0] != types.StatusCompleted {
		t.Errorf("task status = %q", st.marked[0])
	}
}

func TestRunTaskFailureDoesNotAbortRun(t *testing.T) {
	cfg := testConfig(t)
	st := newStubStore("会失败的", "会成功的")

	calls := 0
	gen := &flakyAutomator{failFirst: &calls, result: result("成功生成的足够长的内容。")}

	o := New(cfg, Deps{Store: st, Gen: gen}, testLogger)
	summary, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Succeeded != 1 || summary.Failed != 1 {
		t.Errorf("summary = %+v", summary)
	}
	if st.marked[0] != types.StatusFailed {
		t.Errorf("failed task status = %q", st.marked[0])
	}
	if st.marked[1] != types.StatusCompleted {
		t.Errorf("second task status = %q", st.marked[1])
	}
}

type flakyAutomator struct {
	failFirst *int
	result    *types.GenerationResult
}

func (a *flakyAutomator) Generate(context.Context, string, string) (*types.GenerationResult, error) {
	*a.failFirst++
	if *a.failFirst == 1 {
		return nil, &types.GenerationError{Platform: "poe", Stage: "wait", Err: errors.New("stuck")}
	}
	r := *a.result
	return &r, nil
}

func (a *flakyAutomator) Continue(context.Context, string) (*types.GenerationResult, error) {
	r := *a.result
	return &r, nil
}

func TestRunAbortsWhenInfrastructureGone(t *testing.T) {
	cfg := testConfig(t)
	st := newStubStore("一", "二")
	gen := &stubAutomator{result: result("内容。")}

	o := New(cfg, Deps{Store: st, Gen: gen, Alive: func() bool { return false }}, testLogger)
	_, err := o.Run(context.Background())
	if !errors.Is(err, types.ErrBrowserGone) {
		t.Errorf("expected ErrBrowserGone, got %v", err)
	}
}

func TestRunNoPendingTasks(t *testing.T) {
	cfg := testConfig(t)
	o := New(cfg, Deps{Store: newStubStore(), Gen: &stubAutomator{result: result("x")}}, testLogger)
	if _, err := o.Run(context.Background()); !errors.Is(err, types.ErrNoPendingTasks) {
		t.Errorf("expected ErrNoPendingTasks, got %v", err)
	}
}

type stubScraper struct {
	articles []types.ScrapedArticle
	err      error
	keywords []string
}

func (s *stubScraper) Scrape(_ context.Context, keyword string) ([]types.ScrapedArticle, error) {
	s.keywords = append(s.keywords, keyword)
	return s.articles, s.err
}

func TestRunScrapeFailureIsSoft(t *testing.T) {
	cfg := testConfig(t)
	cfg.Pipeline.CollectArticles = true

	st := newStubStore("标题作关键词")
	gen := &stubAutomator{result: result("生成的内容足够长了。")}
	sc := &stubScraper{err: errors.New("site unreachable")}

	o := New(cfg, Deps{Store: st, Gen: gen, Scraper: sc}, testLogger)
	summary, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Succeeded != 1 {
		t.Errorf("scrape failure should not fail the task: %+v", summary)
	}
	if len(sc.keywords) != 1 || sc.keywords[0] != "标题作关键词" {
		t.Errorf("scraper keyword = %v, want the task title", sc.keywords)
	}
	// No attachment was staged, so Generate ran without one.
	if gen.generated[0] == "" {
		t.Error("generation did not run")
	}
}

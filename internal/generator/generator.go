package generator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/scribeflow/scribeflow/internal/browser"
	"github.com/scribeflow/scribeflow/internal/config"
	"github.com/scribeflow/scribeflow/internal/types"
)

// Automator drives a chat platform through one article generation.
// Generate opens a fresh conversation; Continue sends a follow-up
// prompt into the same conversation and returns only the new response.
type Automator interface {
	Generate(ctx context.Context, prompt, attachment string) (*types.GenerationResult, error)
	Continue(ctx context.Context, prompt string) (*types.GenerationResult, error)
}

// New returns the automator for the configured platform.
func New(session *browser.Session, cfg config.GeneratorConfig, logger *slog.Logger) (Automator, error) {
	switch cfg.Platform {
	case "poe":
		return NewPoe(session, cfg, logger), nil
	case "monica":
		return NewMonica(session, cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown platform %q", cfg.Platform)
	}
}

// chat carries the behavior both platforms share: navigation, prompt
// typing, completion detection, and response extraction.
type chat struct {
	session *browser.Session
	cfg     config.GeneratorConfig
	logger  *slog.Logger
}

func (c *chat) fail(stage string, err error) error {
	return &types.GenerationError{Platform: c.cfg.Platform, Stage: stage, Err: err}
}

// navigate opens the model URL and waits for the chat input to render.
func (c *chat) navigate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !c.session.Navigate(c.cfg.ModelURL, c.cfg.PageLoadTimeout) {
		return fmt.Errorf("model page %s unreachable", c.cfg.ModelURL)
	}
	if c.session.FindElement(c.cfg.Selectors.ChatInput, c.cfg.PageLoadTimeout) == nil {
		return fmt.Errorf("chat input %s never rendered", c.cfg.Selectors.ChatInput)
	}
	c.logger.Info("model page ready", "url", c.cfg.ModelURL)
	return nil
}

// typePrompt fills the chat input without submitting.
func (c *chat) typePrompt(prompt string) error {
	input := c.session.FindElement(c.cfg.Selectors.ChatInput, c.cfg.PageLoadTimeout)
	if input == nil {
		return fmt.Errorf("chat input %s not found", c.cfg.Selectors.ChatInput)
	}
	if !c.session.TypeText(input, prompt, true) {
		return fmt.Errorf("typing prompt into %s failed", c.cfg.Selectors.ChatInput)
	}
	return nil
}

// waitForCompletion blocks until the platform finishes streaming. The
// stop control appearing and then disappearing is the only reliable
// completion signal; when it never appears within the grace window the
// response is assumed to have completed instantly.
func (c *chat) waitForCompletion(ctx context.Context) error {
	stop := c.cfg.Selectors.StopButton
	appeared := false
	graceEnd := time.Now().Add(c.cfg.StartGrace)
	for time.Now().Before(graceEnd) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if c.session.IsPresent(stop) {
			appeared = true
			break
		}
		time.Sleep(c.cfg.CheckInterval)
	}

	if !appeared {
		c.logger.Warn("stop control never appeared, assuming generation already finished",
			"grace", c.cfg.StartGrace)
		return nil
	}

	c.logger.Info("generation in progress, waiting for stop control to clear")
	deadline := time.Now().Add(c.cfg.GenTimeout)
	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !c.session.IsPresent(stop) {
			// Let the final chunk render before extraction.
			time.Sleep(2 * time.Second)
			return nil
		}
		time.Sleep(c.cfg.CheckInterval)
	}
	return fmt.Errorf("stop control still present after %s", c.cfg.GenTimeout)
}

// lastResponseJS resolves the response selector as XPath or CSS and
// returns the rendered HTML of the final match.
const lastResponseJS = `(selector) => {
	let last = null;
	if (selector.startsWith('/') || selector.startsWith('(')) {
		const snap = document.evaluate(selector, document, null,
			XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
		if (snap.snapshotLength > 0) {
			last = snap.snapshotItem(snap.snapshotLength - 1);
		}
	} else {
		const all = document.querySelectorAll(selector);
		if (all.length > 0) {
			last = all[all.length - 1];
		}
	}
	if (!last) {
		return '';
	}
	return last.innerHTML || last.innerText || last.textContent || '';
}`

// latestResponseHTML captures the last response container. Streaming
// UIs detach and re-render the container right after completion, hence
// the short retry loop.
func (c *chat) latestResponseHTML() string {
	for attempt := 0; attempt < 3; attempt++ {
		res := c.session.Eval(lastResponseJS, c.cfg.Selectors.LastResponse)
		if html := strings.TrimSpace(res.Str()); html != "" {
			c.logger.Debug("response captured", "bytes", len(html))
			return html
		}
		time.Sleep(time.Second)
	}
	return ""
}

// collectResult converts the captured HTML into the final result.
func (c *chat) collectResult() (*types.GenerationResult, error) {
	rawHTML := c.latestResponseHTML()
	if rawHTML == "" {
		return nil, c.fail("extract", fmt.Errorf("no response content at %s", c.cfg.Selectors.LastResponse))
	}
	markdown, err := ToMarkdown(rawHTML)
	if err != nil {
		return nil, c.fail("extract", fmt.Errorf("markdown conversion: %w", err))
	}
	result := &types.GenerationResult{
		HTML:      rawHTML,
		Markdown:  markdown,
		WordCount: WordCount(markdown),
	}
	c.logger.Info("response extracted", "words", result.WordCount)
	return result, nil
}

// exchange runs the send/wait/extract cycle shared by Generate and
// Continue. submit performs the platform-specific dispatch.
func (c *chat) exchange(ctx context.Context, prompt string, submit func() error) (*types.GenerationResult, error) {
	if err := c.typePrompt(prompt); err != nil {
		return nil, c.fail("send", err)
	}
	if err := submit(); err != nil {
		return nil, c.fail("send", err)
	}
	if err := c.waitForCompletion(ctx); err != nil {
		return nil, c.fail("wait", err)
	}
	return c.collectResult()
}

package generator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/scribeflow/scribeflow/internal/browser"
	"github.com/scribeflow/scribeflow/internal/config"
	"github.com/scribeflow/scribeflow/internal/types"
)

// Poe drives a platform with an explicit send button and a hidden file
// input. Attachments are set directly on the input node; no picker
// dialog ever opens, so headless runs work.
type Poe struct {
	chat
}

func NewPoe(session *browser.Session, cfg config.GeneratorConfig, logger *slog.Logger) *Poe {
	return &Poe{chat: chat{
		session: session,
		cfg:     cfg,
		logger:  logger.With("component", "generator", "platform", "poe"),
	}}
}

func (p *Poe) Generate(ctx context.Context, prompt, attachment string) (*types.GenerationResult, error) {
	if err := p.navigate(ctx); err != nil {
		return nil, p.fail("navigate", err)
	}
	if attachment != "" {
		p.attach(attachment)
	}
	return p.exchange(ctx, prompt, p.submit)
}

func (p *Poe) Continue(ctx context.Context, prompt string) (*types.GenerationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.exchange(ctx, prompt, p.submit)
}

// attach sets the file path on the hidden input. Failure leaves the
// conversation usable, so it only warns.
func (p *Poe) attach(path string) {
	if _, err := os.Stat(path); err != nil {
		p.logger.Warn("attachment missing, generating without it", "path", path)
		return
	}
	if !p.session.SetFileInput(p.cfg.Selectors.FileInput, path, p.cfg.PageLoadTimeout) {
		p.logger.Warn("attachment upload failed, generating without it", "path", path)
		return
	}
	// Give the platform a moment to ingest the file before the prompt
	// is sent.
	time.Sleep(3 * time.Second)
}

func (p *Poe) submit() error {
	if !p.session.ClickSelector(p.cfg.Selectors.SendButton, p.cfg.PageLoadTimeout) {
		return fmt.Errorf("send button %s not clickable", p.cfg.Selectors.SendButton)
	}
	return nil
}

package generator

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/scribeflow/scribeflow/internal/browser"
	"github.com/scribeflow/scribeflow/internal/config"
	"github.com/scribeflow/scribeflow/internal/types"
)

// Monica drives a platform whose input submits on Enter and whose file
// input is created on demand behind a picker dialog. With no upload
// trigger configured the attachment is skipped and its content is
// expected to travel inline in the prompt.
type Monica struct {
	chat
}

func NewMonica(session *browser.Session, cfg config.GeneratorConfig, logger *slog.Logger) *Monica {
	return &Monica{chat: chat{
		session: session,
		cfg:     cfg,
		logger:  logger.With("component", "generator", "platform", "monica"),
	}}
}

func (m *Monica) Generate(ctx context.Context, prompt, attachment string) (*types.GenerationResult, error) {
	if err := m.navigate(ctx); err != nil {
		return nil, m.fail("navigate", err)
	}
	if attachment != "" {
		m.attach(attachment)
	}
	return m.exchange(ctx, prompt, m.submit)
}

func (m *Monica) Continue(ctx context.Context, prompt string) (*types.GenerationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.exchange(ctx, prompt, m.submit)
}

func (m *Monica) attach(path string) {
	if m.cfg.Selectors.UploadTrigger == "" {
		m.logger.Info("no upload trigger configured, skipping attachment", "path", path)
		return
	}
	if _, err := os.Stat(path); err != nil {
		m.logger.Warn("attachment missing, generating without it", "path", path)
		return
	}
	if !m.session.UploadViaChooser(m.cfg.Selectors.UploadTrigger, path, m.cfg.PageLoadTimeout) {
		m.logger.Warn("attachment upload failed, generating without it", "path", path)
	}
}

// submit presses Enter on the chat input.
func (m *Monica) submit() error {
	input := m.session.FindElement(m.cfg.Selectors.ChatInput, m.cfg.PageLoadTimeout)
	if input == nil {
		return fmt.Errorf("chat input %s not found", m.cfg.Selectors.ChatInput)
	}
	if !m.session.PressEnter(input) {
		return fmt.Errorf("enter keypress on %s failed", m.cfg.Selectors.ChatInput)
	}
	return nil
}

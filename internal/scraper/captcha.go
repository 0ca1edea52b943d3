package scraper

import (
	"bufio"
	"io"
	"log/slog"
	"time"

	"github.com/scribeflow/scribeflow/internal/browser"
	"github.com/scribeflow/scribeflow/internal/types"
)

// Interventionist resolves a verification challenge that automation
// cannot pass on its own. Resolve blocks until the challenge is cleared
// or returns an error when no human is available.
type Interventionist interface {
	Resolve(selector string) error
}

// ConsoleInterventionist asks a human at the terminal to solve the
// challenge in the visible browser window, then confirms the blocking
// element is gone before letting automation resume.
type ConsoleInterventionist struct {
	Session *browser.Session
	In      io.Reader
	Logger  *slog.Logger

	// Recheck is how long the element is given to disappear after the
	// human confirms.
	Recheck time.Duration
}

func (c *ConsoleInterventionist) Resolve(selector string) error {
	c.Logger.Warn("manual verification required",
		"selector", selector,
		"action", "solve the challenge in the browser window, then press Enter")

	reader := bufio.NewReader(c.In)
	for {
		if _, err := reader.ReadString('\n'); err != nil {
			return types.ErrInterventionDenied
		}
		time.Sleep(3 * time.Second)
		if c.Session.FindElement(selector, c.Recheck) == nil {
			c.Logger.Info("verification cleared", "selector", selector)
			return nil
		}
		c.Logger.Warn("verification element still present, waiting again",
			"selector", selector)
	}
}

// HeadlessInterventionist is used when no human can respond, such as
// headless or scheduled runs. Every challenge is declined.
type HeadlessInterventionist struct {
	Logger *slog.Logger
}

func (h *HeadlessInterventionist) Resolve(selector string) error {
	h.Logger.Warn("verification challenge with no human available", "selector", selector)
	return types.ErrInterventionDenied
}

// checkVerification scans the candidate selector list for a visible
// challenge element and hands it to the interventionist. Returns an
// error only when a challenge was found and could not be resolved.
func (s *Scraper) checkVerification() error {
	for _, selector := range s.cfg.Selectors.Verification {
		el := s.session.FindElement(selector, 2*time.Second)
		if el == nil || !el.Visible() {
			continue
		}
		s.logger.Warn("verification challenge detected", "selector", selector)
		return s.intervene.Resolve(selector)
	}
	return nil
}

package browser

import (
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// TabIDs returns the target IDs of all open pages, in browser order.
func (s *Session) TabIDs() []proto.TargetTargetID {
	pages, err := s.browser.Pages()
	if err != nil {
		s.logger.Warn("listing tabs failed", "error", err)
		return nil
	}
	ids := make([]proto.TargetTargetID, 0, len(pages))
	for _, p := range pages {
		ids = append(ids, p.TargetID)
	}
	return ids
}

// SwitchTo activates the tab with the given target ID and makes it the
// session's current page. Returns false when no such tab exists.
func (s *Session) SwitchTo(id proto.TargetTargetID) bool {
	p := s.pageByID(id)
	if p == nil {
		s.logger.Warn("tab not found", "target", id)
		return false
	}
	if _, err := p.Activate(); err != nil {
		s.logger.Warn("tab activation failed", "target", id, "error", err)
		return false
	}
	s.page = p
	return true
}

// CloseTab closes the tab with the given target ID. When the closed tab
// was the current page, the session falls back to the first remaining
// tab.
func (s *Session) CloseTab(id proto.TargetTargetID) {
	p := s.pageByID(id)
	if p == nil {
		return
	}
	wasCurrent := s.page != nil && s.page.TargetID == id
	if err := p.Close(); err != nil {
		s.logger.Warn("tab close failed", "target", id, "error", err)
		return
	}
	if !wasCurrent {
		return
	}
	pages, err := s.browser.Pages()
	if err != nil || len(pages) == 0 {
		s.page = nil
		return
	}
	s.page = pages.First()
	_, _ = s.page.Activate()
}

// FindTabByURL returns the ID of the first tab whose URL contains the
// given substring, and whether one was found.
func (s *Session) FindTabByURL(substr string) (proto.TargetTargetID, bool) {
	pages, err := s.browser.Pages()
	if err != nil {
		return "", false
	}
	for _, p := range pages {
		info, err := p.Info()
		if err != nil {
			continue
		}
		if strings.Contains(info.URL, substr) {
			return p.TargetID, true
		}
	}
	return "", false
}

// DiffNewTab polls for a tab that was not in the before set, switches
// to it, and returns its ID. Clicking a result link that opens in a new
// tab is only observable this way; there is no navigation event on the
// originating page. Returns false when no new tab appears within the
// timeout.
func (s *Session) DiffNewTab(before []proto.TargetTargetID, timeout time.Duration) (proto.TargetTargetID, bool) {
	known := make(map[proto.TargetTargetID]bool, len(before))
	for _, id := range before {
		known[id] = true
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		for _, id := range s.TabIDs() {
			if !known[id] {
				if s.SwitchTo(id) {
					s.logger.Debug("new tab detected", "target", id)
					return id, true
				}
			}
		}
		time.Sleep(s.cfg.PollInterval)
	}
	return "", false
}

// CurrentTabID returns the target ID of the session's current page.
func (s *Session) CurrentTabID() proto.TargetTargetID {
	if s.page == nil {
		return ""
	}
	return s.page.TargetID
}

func (s *Session) pageByID(id proto.TargetTargetID) *rod.Page {
	pages, err := s.browser.Pages()
	if err != nil {
		return nil
	}
	for _, p := range pages {
		if p.TargetID == id {
			return p
		}
	}
	return nil
}

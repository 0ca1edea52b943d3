package browser

import (
	"strings"
	"time"

	"github.com/go-rod/rod"
)

// Element is an opaque handle to a located DOM node plus a small cached
// snapshot for logging. A handle is only valid for the DOM state it was
// taken from; after any navigation the caller must re-locate.
type Element struct {
	el       *rod.Element
	Selector string
	Tag      string
}

func wrapElement(el *rod.Element, selector string) *Element {
	tag := ""
	if desc, err := el.Describe(0, false); err == nil && desc != nil {
		tag = strings.ToLower(desc.LocalName)
	}
	return &Element{el: el, Selector: selector, Tag: tag}
}

// Text returns the element's visible text, or "" on failure.
func (e *Element) Text() string {
	if e == nil || e.el == nil {
		return ""
	}
	text, err := e.el.Text()
	if err != nil {
		return ""
	}
	return text
}

// Attribute returns the named attribute value, or "" when absent.
func (e *Element) Attribute(name string) string {
	if e == nil || e.el == nil {
		return ""
	}
	val, err := e.el.Attribute(name)
	if err != nil || val == nil {
		return ""
	}
	return *val
}

// HTML returns the element's inner HTML, or "" on failure.
func (e *Element) HTML() string {
	if e == nil || e.el == nil {
		return ""
	}
	html, err := e.el.HTML()
	if err != nil {
		return ""
	}
	return html
}

// Visible reports whether the element is currently rendered.
func (e *Element) Visible() bool {
	if e == nil || e.el == nil {
		return false
	}
	visible, err := e.el.Visible()
	return err == nil && visible
}

// ScrollIntoView brings the element into the viewport. Best effort.
func (e *Element) ScrollIntoView() {
	if e == nil || e.el == nil {
		return
	}
	_ = e.el.ScrollIntoView()
}

// lookup resolves a selector on the active tab without waiting. The
// prefix heuristic routes slash-prefixed expressions through XPath.
func (s *Session) lookup(selector string) (*rod.Element, bool) {
	if s.page == nil {
		return nil, false
	}
	if isXPath(selector) {
		has, el, err := s.page.HasX(selector)
		if err != nil || !has {
			return nil, false
		}
		return el, true
	}
	has, el, err := s.page.Has(selector)
	if err != nil || !has {
		return nil, false
	}
	return el, true
}

// lookupAll resolves every match for a selector without waiting.
func (s *Session) lookupAll(selector string) []*rod.Element {
	if s.page == nil {
		return nil
	}
	var (
		els rod.Elements
		err error
	)
	if isXPath(selector) {
		els, err = s.page.ElementsX(selector)
	} else {
		els, err = s.page.Elements(selector)
	}
	if err != nil {
		return nil
	}
	return els
}

// FindElement polls for the first node matching the selector until it
// appears or the timeout elapses. Absence is an expected outcome and is
// reported as nil, not as an error.
func (s *Session) FindElement(selector string, timeout time.Duration) *Element {
	deadline := time.Now().Add(timeout)
	for {
		if el, ok := s.lookup(selector); ok {
			return wrapElement(el, selector)
		}
		if !time.Now().Before(deadline) {
			s.logger.Debug("element not found", "selector", selector, "timeout", timeout)
			return nil
		}
		time.Sleep(s.cfg.PollInterval)
	}
}

// FindElements polls until the selector matches at least one node or
// the timeout elapses, then returns all matches. Empty on timeout.
func (s *Session) FindElements(selector string, timeout time.Duration) []*Element {
	deadline := time.Now().Add(timeout)
	for {
		if els := s.lookupAll(selector); len(els) > 0 {
			wrapped := make([]*Element, 0, len(els))
			for _, el := range els {
				wrapped = append(wrapped, wrapElement(el, selector))
			}
			return wrapped
		}
		if !time.Now().Before(deadline) {
			s.logger.Debug("no elements found", "selector", selector, "timeout", timeout)
			return nil
		}
		time.Sleep(s.cfg.PollInterval)
	}
}

// IsPresent reports whether the selector currently resolves, without
// waiting.
func (s *Session) IsPresent(selector string) bool {
	_, ok := s.lookup(selector)
	return ok
}

// WaitForDisappearance polls until the selector no longer resolves.
// Used as the generation-complete signal: the only indication the chat
// platforms give is the stop control going away.
func (s *Session) WaitForDisappearance(selector string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if !s.IsPresent(selector) {
			return true
		}
		time.Sleep(s.cfg.PollInterval)
	}
	return false
}

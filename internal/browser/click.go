package browser

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod/lib/proto"
)

// ClickStrategy is one way of delivering a click to an element. The
// strategies are evaluated in order until one succeeds; the chain is a
// plain slice so the fallback order is data, not nested error handling.
type ClickStrategy struct {
	Name string
	Run  func(el *Element) error
}

// runClickChain applies strategies in order and reports whether any
// succeeded.
func runClickChain(logger *slog.Logger, el *Element, strategies []ClickStrategy) bool {
	for _, strat := range strategies {
		err := strat.Run(el)
		if err == nil {
			logger.Debug("click delivered", "strategy", strat.Name, "selector", el.Selector)
			return true
		}
		logger.Debug("click strategy failed", "strategy", strat.Name, "selector", el.Selector, "error", err)
	}
	logger.Warn("all click strategies failed", "selector", el.Selector)
	return false
}

// Click delivers a click to the element, tolerating overlays and
// framework-intercepted hit testing. Strategies, in order:
//
//  1. mouse click at the JS-computed bounding-box center
//  2. mouse click at a point inside the protocol box model
//  3. native click dispatch on the node itself
func (s *Session) Click(el *Element) bool {
	if el == nil || el.el == nil {
		return false
	}
	return runClickChain(s.logger, el, []ClickStrategy{
		{Name: "js_center_mouse", Run: s.clickAtJSCenter},
		{Name: "box_model_mouse", Run: s.clickAtBoxModel},
		{Name: "native_dispatch", Run: s.clickNative},
	})
}

// clickAtJSCenter moves the protocol mouse to the element's
// getBoundingClientRect center and clicks.
func (s *Session) clickAtJSCenter(el *Element) error {
	el.ScrollIntoView()
	res, err := el.el.Eval(`() => {
		const r = this.getBoundingClientRect();
		if (r.width === 0 || r.height === 0) throw new Error('zero-size box');
		return { x: r.x + r.width / 2, y: r.y + r.height / 2 };
	}`)
	if err != nil {
		return fmt.Errorf("compute center: %w", err)
	}
	point := proto.Point{
		X: res.Value.Get("x").Num(),
		Y: res.Value.Get("y").Num(),
	}
	if err := s.page.Mouse.MoveTo(point); err != nil {
		return fmt.Errorf("mouse move: %w", err)
	}
	return s.page.Mouse.Click(proto.InputMouseButtonLeft, 1)
}

// clickAtBoxModel clicks a point inside the protocol-reported content
// quads. Catches elements whose JS box is stale after a reflow.
func (s *Session) clickAtBoxModel(el *Element) error {
	shape, err := el.el.Shape()
	if err != nil {
		return fmt.Errorf("box model: %w", err)
	}
	point := shape.OnePointInside()
	if point == nil {
		return fmt.Errorf("element has no visible area")
	}
	if err := s.page.Mouse.MoveTo(*point); err != nil {
		return fmt.Errorf("mouse move: %w", err)
	}
	return s.page.Mouse.Click(proto.InputMouseButtonLeft, 1)
}

// clickNative dispatches click() directly on the node, sidestepping hit
// testing entirely. Last resort: some frameworks ignore it.
func (s *Session) clickNative(el *Element) error {
	if err := el.el.Click(proto.InputMouseButtonLeft, 1); err == nil {
		return nil
	}
	_, err := el.el.Eval(`() => this.click()`)
	return err
}

// ClickSelector locates an element and clicks it in one step. Returns
// false when the element never appeared.
func (s *Session) ClickSelector(selector string, timeout time.Duration) bool {
	el := s.FindElement(selector, timeout)
	if el == nil {
		return false
	}
	return s.Click(el)
}

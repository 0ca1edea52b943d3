package browser

import (
	"time"

	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
)

// assembleAndAssignJS receives the accumulated buffer browser-side and
// assigns it through the native value setter, then fires a synthetic
// input event. Plain `el.value = v` is invisible to React-style change
// detection, which tracks the prototype setter.
const assembleAndAssignJS = `() => {
	const v = window.__sfBuf || '';
	delete window.__sfBuf;
	if (this.isContentEditable) {
		this.innerText = v;
	} else {
		const proto = this.tagName === 'TEXTAREA'
			? window.HTMLTextAreaElement.prototype
			: window.HTMLInputElement.prototype;
		const desc = Object.getOwnPropertyDescriptor(proto, 'value');
		if (desc && desc.set) {
			desc.set.call(this, v);
		} else {
			this.value = v;
		}
	}
	this.dispatchEvent(new Event('input', { bubbles: true }));
	this.dispatchEvent(new Event('change', { bubbles: true }));
}`

// chunkSize bounds each protocol round-trip when transferring long
// prompts browser-side.
const chunkSize = 512

// TypeText writes text into an input element. Two strategies:
//
// Short text is typed key by key with a small delay, which is what
// framework inputs that ignore programmatic assignment need. Long text
// (multi-hundred-character prompts) would take far too long that way
// and is instead transferred in chunks, assembled browser-side, and
// assigned through the native setter with a synthetic input event.
func (s *Session) TypeText(el *Element, text string, clearFirst bool) bool {
	if el == nil || el.el == nil {
		return false
	}

	if err := el.el.Focus(); err != nil {
		s.logger.Debug("focus failed", "selector", el.Selector, "error", err)
	}

	if clearFirst {
		if err := el.el.SelectAllText(); err == nil {
			_ = el.el.Type(input.Backspace)
		}
	}

	if len(text) <= s.cfg.ChunkThreshold {
		return s.typeByKeys(el, text)
	}
	return s.typeByChunks(el, text)
}

// typeByKeys dispatches per-character key events, mimicking a human.
func (s *Session) typeByKeys(el *Element, text string) bool {
	for _, r := range text {
		if err := el.el.Input(string(r)); err != nil {
			s.logger.Warn("key input failed", "selector", el.Selector, "error", err)
			return false
		}
		time.Sleep(s.cfg.TypingDelay)
	}
	return true
}

// typeByChunks transfers the text in pieces and assigns it in one shot
// browser-side.
func (s *Session) typeByChunks(el *Element, text string) bool {
	if _, err := el.el.Eval(`() => { window.__sfBuf = ''; }`); err != nil {
		s.logger.Warn("chunk buffer init failed", "selector", el.Selector, "error", err)
		return false
	}

	runes := []rune(text)
	for start := 0; start < len(runes); start += chunkSize {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunk := string(runes[start:end])
		if _, err := el.el.Eval(`(chunk) => { window.__sfBuf += chunk; }`, chunk); err != nil {
			s.logger.Warn("chunk transfer failed", "selector", el.Selector, "error", err)
			return false
		}
	}

	if _, err := el.el.Eval(assembleAndAssignJS); err != nil {
		s.logger.Warn("value assignment failed", "selector", el.Selector, "error", err)
		return false
	}

	s.logger.Debug("text assigned via chunks", "selector", el.Selector, "chars", len(runes))
	return true
}

// PressEnter sends an Enter keypress to the element. Some chat UIs only
// submit on a real key event.
func (s *Session) PressEnter(el *Element) bool {
	if el == nil || el.el == nil {
		return false
	}
	if err := el.el.Focus(); err != nil {
		s.logger.Debug("focus before enter failed", "selector", el.Selector, "error", err)
	}
	if err := s.page.Keyboard.Press(input.Enter); err != nil {
		s.logger.Warn("enter keypress failed", "selector", el.Selector, "error", err)
		return false
	}
	return true
}

// SetFileInput sets a local file path directly on a (possibly hidden)
// file input node, bypassing the OS file picker. Required for headless
// operation.
func (s *Session) SetFileInput(selector, filePath string, timeout time.Duration) bool {
	el := s.FindElement(selector, timeout)
	if el == nil {
		s.logger.Warn("file input not found", "selector", selector)
		return false
	}
	if err := el.el.SetFiles([]string{filePath}); err != nil {
		s.logger.Warn("set file input failed", "selector", selector, "path", filePath, "error", err)
		return false
	}
	s.logger.Info("file attached via hidden input", "path", filePath)
	return true
}

// UploadViaChooser clicks a trigger element and intercepts the file
// chooser it opens, answering with the given path. Used on platforms
// whose file input is created on demand and never reachable by
// selector.
func (s *Session) UploadViaChooser(triggerSelector, filePath string, timeout time.Duration) bool {
	trigger := s.FindElement(triggerSelector, timeout)
	if trigger == nil {
		s.logger.Warn("upload trigger not found", "selector", triggerSelector)
		return false
	}

	if err := (proto.PageSetInterceptFileChooserDialog{Enabled: true}).Call(s.page); err != nil {
		s.logger.Warn("file chooser interception unavailable", "error", err)
		return false
	}
	defer func() {
		_ = proto.PageSetInterceptFileChooserDialog{Enabled: false}.Call(s.page)
	}()

	opened := &proto.PageFileChooserOpened{}
	wait := s.page.WaitEvent(opened)

	if !s.Click(trigger) {
		s.logger.Warn("upload trigger click failed", "selector", triggerSelector)
		return false
	}

	done := make(chan struct{})
	go func() {
		wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		s.logger.Warn("file chooser never opened", "selector", triggerSelector)
		return false
	}

	err := proto.DOMSetFileInputFiles{
		Files:         []string{filePath},
		BackendNodeID: opened.BackendNodeID,
	}.Call(s.page)
	if err != nil {
		s.logger.Warn("answering file chooser failed", "path", filePath, "error", err)
		return false
	}

	s.logger.Info("file attached via chooser dialog", "path", filePath)
	return true
}

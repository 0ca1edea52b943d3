package browser

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/scribeflow/scribeflow/internal/config"
	"github.com/scribeflow/scribeflow/internal/types"
)

// Session wraps exactly one browser connection. Every component in the
// pipeline operates against the same Session; it is created once at
// pipeline start and torn down once at pipeline end.
type Session struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	page     *rod.Page
	cfg      config.BrowserConfig
	logger   *slog.Logger
}

// NewSession creates an unlaunched session.
func NewSession(cfg config.BrowserConfig, logger *slog.Logger) *Session {
	return &Session{
		cfg:    cfg,
		logger: logger.With("component", "browser_session"),
	}
}

// Launch starts a Chromium instance with a persistent user profile and
// connects to it. The persistent profile keeps chat-platform logins
// alive across runs. Launch and connect are retried with a fixed
// backoff; failure after all attempts is fatal for the run.
func (s *Session) Launch() error {
	s.clearStaleLock()

	attempts := s.cfg.LaunchAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 1; i <= attempts; i++ {
		if err := s.tryLaunch(); err != nil {
			lastErr = err
			s.logger.Warn("browser launch attempt failed",
				"attempt", i,
				"max_attempts", attempts,
				"error", err,
			)
			time.Sleep(s.cfg.LaunchBackoff)
			continue
		}
		s.logger.Info("browser session ready", "headless", s.cfg.Headless, "profile", s.cfg.ProfileDir)
		return nil
	}

	return &types.LaunchError{Attempts: attempts, Err: lastErr}
}

// tryLaunch performs a single launch+connect cycle.
func (s *Session) tryLaunch() error {
	l := launcher.New().
		Headless(s.cfg.Headless).
		UserDataDir(s.cfg.ProfileDir).
		Set("no-sandbox").
		Set("disable-dev-shm-usage").
		Set("no-first-run").
		Set("disable-default-apps").
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-renderer-backgrounding").
		Set("window-size", fmt.Sprintf("%d,%d", s.cfg.WindowWidth, s.cfg.WindowHeight))

	if s.cfg.Bin != "" {
		l = l.Bin(s.cfg.Bin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return fmt.Errorf("connect browser: %w", err)
	}

	page, err := stealth.Page(browser)
	if err != nil {
		_ = browser.Close()
		l.Cleanup()
		return fmt.Errorf("stealth page: %w", err)
	}
	if s.cfg.UserAgent != "" {
		err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: s.cfg.UserAgent})
		if err != nil {
			s.logger.Warn("failed to set user agent", "error", err)
		}
	}

	s.launcher = l
	s.browser = browser
	s.page = page
	return nil
}

// clearStaleLock removes a leftover SingletonLock from a crashed run.
// Chromium refuses to reuse the profile directory while it exists.
func (s *Session) clearStaleLock() {
	lock := filepath.Join(s.cfg.ProfileDir, "SingletonLock")
	if _, err := os.Lstat(lock); err == nil {
		if err := os.Remove(lock); err != nil {
			s.logger.Warn("failed to remove stale profile lock", "path", lock, "error", err)
		} else {
			s.logger.Info("removed stale profile lock", "path", lock)
		}
	}
}

// Connected reports whether the underlying browser connection is alive.
func (s *Session) Connected() bool {
	if s.browser == nil {
		return false
	}
	_, err := s.browser.Pages()
	return err == nil
}

// Navigate loads a URL on the active tab and polls document readiness.
// A readiness timeout is deliberately NOT a failure: heavy
// client-rendered pages routinely never settle, and the element waits
// downstream are the real gate. Only a hard protocol error returns
// false.
func (s *Session) Navigate(url string, timeout time.Duration) bool {
	if s.page == nil {
		s.logger.Error("navigate called before launch", "url", url)
		return false
	}

	s.logger.Info("navigating", "url", url)
	if err := s.page.Timeout(timeout).Navigate(url); err != nil {
		s.logger.Error("navigation failed", "url", url, "error", err)
		return false
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		state := s.Eval(`() => document.readyState`).Str()
		if state == "interactive" || state == "complete" {
			s.logger.Debug("navigation settled", "url", url, "ready_state", state)
			return true
		}
		time.Sleep(s.cfg.PollInterval)
	}

	s.logger.Warn("navigation readiness timeout, continuing", "url", url)
	return true
}

// CurrentURL returns the active tab's URL, or "" when unavailable.
func (s *Session) CurrentURL() string {
	if s.page == nil {
		return ""
	}
	info, err := s.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

// Eval runs a JavaScript function on the active tab. A thrown exception
// is logged and swallowed: callers get a null result, never a fault.
func (s *Session) Eval(js string, args ...any) gson.JSON {
	if s.page == nil {
		return gson.New(nil)
	}
	res, err := s.page.Eval(js, args...)
	if err != nil {
		s.logger.Debug("script evaluation failed", "error", err)
		return gson.New(nil)
	}
	return res.Value
}

// Close tears the session down: active pages, browser connection, and
// the launched process. Safe to call more than once and on a session
// that never launched.
func (s *Session) Close() {
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			s.logger.Warn("browser close", "error", err)
		}
		s.browser = nil
		s.page = nil
	}
	if s.launcher != nil {
		s.launcher.Cleanup()
		s.launcher = nil
	}
	s.logger.Info("browser session closed")
}

// isXPath reports whether a selector should be evaluated as XPath.
// Expressions starting with a slash are XPath, everything else is CSS.
func isXPath(selector string) bool {
	return strings.HasPrefix(selector, "/") || strings.HasPrefix(selector, "(")
}

package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
)

// PlaywrightLoader renders pages in a shared headless Chromium. The browser is
// started on first use and reused for every page until Close.
type PlaywrightLoader struct {
	headless  bool
	timeout   time.Duration
	waitUntil string
	logger    *slog.Logger

	mu      sync.Mutex
	pw      *playwright.Playwright
	browser playwright.Browser
}

// NewPlaywrightLoader returns a loader. waitUntil is the readiness condition
// for calls that do not name one. No browser is started until Start or the
// first Load.
func NewPlaywrightLoader(headless bool, timeout time.Duration, waitUntil string, logger *slog.Logger) *PlaywrightLoader {
	return &PlaywrightLoader{
		headless:  headless,
		timeout:   timeout,
		waitUntil: waitUntil,
		logger:    logger,
	}
}

// Start launches the browser if it is not already running.
func (l *PlaywrightLoader) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.startLocked()
}

func (l *PlaywrightLoader) startLocked() error {
	if l.browser != nil {
		return nil
	}

	pw, err := playwright.Run()
	if err != nil {
		return fmt.Errorf("start playwright: %w", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(l.headless),
	})
	if err != nil {
		_ = pw.Stop()
		return fmt.Errorf("launch chromium: %w", err)
	}

	l.pw = pw
	l.browser = browser
	l.logger.Debug("browser started", "headless", l.headless)
	return nil
}

// Load navigates to url, waits for the readiness condition and returns the
// rendered HTML.
func (l *PlaywrightLoader) Load(ctx context.Context, url, waitUntil string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if waitUntil == "" {
		waitUntil = l.waitUntil
	}

	l.mu.Lock()
	if err := l.startLocked(); err != nil {
		l.mu.Unlock()
		return "", err
	}
	browser := l.browser
	l.mu.Unlock()

	page, err := browser.NewPage()
	if err != nil {
		return "", fmt.Errorf("new page: %w", err)
	}
	defer page.Close()

	if _, err := page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: waitUntilState(waitUntil),
		Timeout:   playwright.Float(float64(l.timeout.Milliseconds())),
	}); err != nil {
		return "", fmt.Errorf("load %s: %w", url, err)
	}

	html, err := page.Content()
	if err != nil {
		return "", fmt.Errorf("read content of %s: %w", url, err)
	}
	return html, nil
}

// Close stops the browser and the playwright driver. Safe to call when the
// browser never started.
func (l *PlaywrightLoader) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.browser == nil {
		return nil
	}
	var firstErr error
	if err := l.browser.Close(); err != nil {
		firstErr = fmt.Errorf("close browser: %w", err)
	}
	if err := l.pw.Stop(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("stop playwright: %w", err)
	}
	l.browser = nil
	l.pw = nil
	return firstErr
}

func waitUntilState(name string) *playwright.WaitUntilState {
	switch name {
	case "load":
		return playwright.WaitUntilStateLoad
	case "networkidle":
		return playwright.WaitUntilStateNetworkidle
	case "commit":
		return playwright.WaitUntilStateCommit
	default:
		return playwright.WaitUntilStateDomcontentloaded
	}
}

package fixture

import (
	"errors"
	"time"

	"github.com/playwright-community/playwright-go"
)

var (
	// ErrEngineStart is returned when the automation engine cannot be started.
	ErrEngineStart = errors.New("automation engine failed to start")
	// ErrBrowserLaunch is returned when the browser process cannot be launched.
	ErrBrowserLaunch = errors.New("browser failed to launch")
	// ErrSessionOpen is returned when a session is requested while another one is still open.
	ErrSessionOpen = errors.New("another session is still open")
	// ErrNavigation is returned when a page cannot be navigated to its target URL.
	ErrNavigation = errors.New("navigation failed")
	// ErrClosed is returned when the run has already been closed.
	ErrClosed = errors.New("run is closed")
)

const (
	// DefaultViewportWidth is the fixed viewport width of every isolated session.
	DefaultViewportWidth = 1280
	// DefaultViewportHeight is the fixed viewport height of every isolated session.
	DefaultViewportHeight = 800
	// DefaultNavigationTimeout is the timeout for the initial navigation of a page.
	DefaultNavigationTimeout = 30 * time.Second
	// DefaultWaitUntil is the load state navigation waits for.
	DefaultWaitUntil = "domcontentloaded"
	// DefaultBrowser is the browser engine used when none is configured.
	DefaultBrowser = "chromium"
)

// Driver is a handle to a browser automation engine.
type Driver interface {
	// Launch starts a browser process.
	Launch(opts LaunchOptions) (Browser, error)
	// Stop shuts the engine down.
	Stop() error
}

// Browser is a running browser process that hands out isolated sessions.
type Browser interface {
	NewSession(opts SessionOptions) (Session, error)
	Close() error
}

// Session is an isolated browsing context with its own cookies and storage.
type Session interface {
	NewPage() (Page, error)
	Close() error
}

// Page is a live handle to a single open document within a session.
type Page interface {
	// Navigate loads url and returns the HTTP status of the main response (0 if none).
	Navigate(url string, opts NavigateOptions) (int, error)
	CurrentURL() string
	CaptureScreenshot(path string) error
	Content() (string, error)
	// Console returns the recent console messages and page errors.
	Console() []ConsoleMessage
	// Playwright exposes the full page contract used by assertion scripts.
	// Test doubles return nil.
	Playwright() playwright.Page
}

// LaunchOptions configures how a browser is launched.
type LaunchOptions struct {
	Headless bool
	// Browser is one of "chromium", "firefox" or "webkit".
	Browser string
}

// DefaultLaunchOptions returns headless Chromium.
func DefaultLaunchOptions() LaunchOptions {
	return LaunchOptions{
		Headless: true,
		Browser:  DefaultBrowser,
	}
}

// Viewport is the size of a session's window.
type Viewport struct {
	Width  int
	Height int
}

// SessionOptions configures an isolated session.
type SessionOptions struct {
	Viewport Viewport
}

// DefaultSessionOptions returns the fixed 1280x800 viewport.
func DefaultSessionOptions() SessionOptions {
	return SessionOptions{
		Viewport: Viewport{Width: DefaultViewportWidth, Height: DefaultViewportHeight},
	}
}

// NavigateOptions configures a navigation.
type NavigateOptions struct {
	Timeout time.Duration
	// WaitUntil is one of "load", "domcontentloaded", "networkidle" or "commit".
	WaitUntil string
}

// DefaultNavigateOptions returns a 30s timeout waiting for DOMContentLoaded.
func DefaultNavigateOptions() NavigateOptions {
	return NavigateOptions{
		Timeout:   DefaultNavigationTimeout,
		WaitUntil: DefaultWaitUntil,
	}
}

func (o NavigateOptions) withDefaults() NavigateOptions {
	if o.Timeout <= 0 {
		o.Timeout = DefaultNavigationTimeout
	}
	if o.WaitUntil == "" {
		o.WaitUntil = DefaultWaitUntil
	}
	return o
}

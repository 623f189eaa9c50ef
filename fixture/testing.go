package fixture

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"sync"

	"github.com/playwright-community/playwright-go"
)

// FakeDriver is an in-memory Driver that never starts a real browser.
// This is a test helper that should only be used in tests.
type FakeDriver struct {
	// LaunchErr is returned by Launch when set.
	LaunchErr error
	// NavigateErr decides the error of a navigation when set.
	NavigateErr func(url string) error
	// Status decides the HTTP status of a navigation when set. Default: 200.
	Status func(url string) int
	// ScreenshotErr is returned by CaptureScreenshot when set.
	ScreenshotErr error
	// HTML is returned by Content.
	HTML string

	mu       sync.Mutex
	launches []LaunchOptions
	stops    int
	sessions []*FakeSession
	open     int
	maxOpen  int
}

// NewFakeDriver creates a FakeDriver.
func NewFakeDriver() *FakeDriver {
	return &FakeDriver{
		HTML: "<html><head><title>fake</title></head><body></body></html>",
	}
}

// StartEngine can be used as RunOptions.StartEngine.
func (d *FakeDriver) StartEngine() (Driver, error) {
	return d, nil
}

func (d *FakeDriver) Launch(opts LaunchOptions) (Browser, error) {
	if d.LaunchErr != nil {
		return nil, d.LaunchErr
	}
	d.mu.Lock()
	d.launches = append(d.launches, opts)
	d.mu.Unlock()
	return &fakeBrowser{d: d}, nil
}

func (d *FakeDriver) Stop() error {
	d.mu.Lock()
	d.stops++
	d.mu.Unlock()
	return nil
}

// Launches returns the options of every launch.
func (d *FakeDriver) Launches() []LaunchOptions {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]LaunchOptions(nil), d.launches...)
}

// Stops returns how often Stop was called.
func (d *FakeDriver) Stops() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stops
}

// Sessions returns every session ever created, in creation order.
func (d *FakeDriver) Sessions() []*FakeSession {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*FakeSession(nil), d.sessions...)
}

// MaxOpenSessions returns the highest number of sessions that were open at once.
func (d *FakeDriver) MaxOpenSessions() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.maxOpen
}

type fakeBrowser struct {
	d *FakeDriver
}

func (b *fakeBrowser) NewSession(opts SessionOptions) (Session, error) {
	b.d.mu.Lock()
	defer b.d.mu.Unlock()

	s := &FakeSession{Options: opts, d: b.d}
	b.d.sessions = append(b.d.sessions, s)
	b.d.open++
	b.d.maxOpen = max(b.d.maxOpen, b.d.open)
	return s, nil
}

func (b *fakeBrowser) Close() error {
	return nil
}

// FakeSession is a session created by a FakeDriver.
type FakeSession struct {
	Options SessionOptions

	d      *FakeDriver
	closed bool
	pages  []*FakePage
}

func (s *FakeSession) NewPage() (Page, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	p := &FakePage{d: s.d, url: "about:blank", consoleLog: newConsoleLog()}
	s.pages = append(s.pages, p)
	return p, nil
}

func (s *FakeSession) Close() error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	if !s.closed {
		s.closed = true
		s.d.open--
	}
	return nil
}

// Closed reports whether the session was closed.
func (s *FakeSession) Closed() bool {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	return s.closed
}

// Pages returns the pages opened in the session.
func (s *FakeSession) Pages() []*FakePage {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	return append([]*FakePage(nil), s.pages...)
}

// FakePage is a page created by a FakeDriver.
type FakePage struct {
	consoleLog
	d           *FakeDriver
	url         string
	navigations []Navigation
	screenshots []string
}

// Navigation records a call to Navigate.
type Navigation struct {
	URL     string
	Options NavigateOptions
}

func (p *FakePage) Navigate(url string, opts NavigateOptions) (int, error) {
	p.d.mu.Lock()
	p.navigations = append(p.navigations, Navigation{URL: url, Options: opts})
	p.d.mu.Unlock()

	if p.d.NavigateErr != nil {
		if err := p.d.NavigateErr(url); err != nil {
			return 0, err
		}
	}

	p.d.mu.Lock()
	p.url = url
	p.d.mu.Unlock()

	if p.d.Status != nil {
		return p.d.Status(url), nil
	}
	return 200, nil
}

func (p *FakePage) CurrentURL() string {
	p.d.mu.Lock()
	defer p.d.mu.Unlock()
	return p.url
}

// CaptureScreenshot writes a 1x1 PNG to path.
func (p *FakePage) CaptureScreenshot(path string) error {
	if p.d.ScreenshotErr != nil {
		return p.d.ScreenshotErr
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 1, 1))); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return err
	}

	p.d.mu.Lock()
	p.screenshots = append(p.screenshots, path)
	p.d.mu.Unlock()
	return nil
}

func (p *FakePage) Content() (string, error) {
	return p.d.HTML, nil
}

// Log adds a console message to the page.
func (p *FakePage) Log(typ, text string) {
	p.add(typ, text)
}

func (p *FakePage) Playwright() playwright.Page {
	return nil
}

// Navigations returns every navigation of the page.
func (p *FakePage) Navigations() []Navigation {
	p.d.mu.Lock()
	defer p.d.mu.Unlock()
	return append([]Navigation(nil), p.navigations...)
}

// Screenshots returns the paths of every screenshot taken.
func (p *FakePage) Screenshots() []string {
	p.d.mu.Lock()
	defer p.d.mu.Unlock()
	return append([]string(nil), p.screenshots...)
}

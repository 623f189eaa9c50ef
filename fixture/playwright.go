package fixture

import (
	"fmt"
	"io"

	"github.com/playwright-community/playwright-go"
)

// EngineOptions configures the Playwright engine.
type EngineOptions struct {
	// Install downloads the driver and browsers before starting.
	Install bool
	// Browsers limits the browsers that are installed. Empty installs all.
	Browsers []string
	// Output receives installer output. Nil discards it.
	Output io.Writer
}

// StartPlaywright starts the Playwright driver and returns it as a Driver.
func StartPlaywright(opts EngineOptions) (Driver, error) {
	out := opts.Output
	if out == nil {
		out = io.Discard
	}
	runOpts := &playwright.RunOptions{
		Browsers: opts.Browsers,
		Verbose:  opts.Output != nil,
		Stdout:   out,
		Stderr:   out,
	}

	if opts.Install {
		if err := playwright.Install(runOpts); err != nil {
			return nil, fmt.Errorf("%w: install: %w", ErrEngineStart, err)
		}
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEngineStart, err)
	}
	return &playwrightDriver{pw: pw}, nil
}

type playwrightDriver struct {
	pw *playwright.Playwright
}

func (d *playwrightDriver) Launch(opts LaunchOptions) (Browser, error) {
	var browserType playwright.BrowserType
	switch opts.Browser {
	case "", "chromium":
		browserType = d.pw.Chromium
	case "firefox":
		browserType = d.pw.Firefox
	case "webkit":
		browserType = d.pw.WebKit
	default:
		return nil, fmt.Errorf("%w: unknown browser %q", ErrBrowserLaunch, opts.Browser)
	}

	browser, err := browserType.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBrowserLaunch, err)
	}
	return &playwrightBrowser{browser: browser}, nil
}

func (d *playwrightDriver) Stop() error {
	return d.pw.Stop()
}

type playwrightBrowser struct {
	browser playwright.Browser
}

// NewSession creates a new browser context with isolated cookies and storage.
func (b *playwrightBrowser) NewSession(opts SessionOptions) (Session, error) {
	ctx, err := b.browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  opts.Viewport.Width,
			Height: opts.Viewport.Height,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("creating browser context: %w", err)
	}
	return &playwrightSession{ctx: ctx}, nil
}

func (b *playwrightBrowser) Close() error {
	return b.browser.Close()
}

type playwrightSession struct {
	ctx playwright.BrowserContext
}

func (s *playwrightSession) NewPage() (Page, error) {
	page, err := s.ctx.NewPage()
	if err != nil {
		return nil, fmt.Errorf("creating page: %w", err)
	}
	p := &playwrightPage{page: page, consoleLog: newConsoleLog()}
	page.OnConsole(func(m playwright.ConsoleMessage) {
		p.add(m.Type(), m.Text())
	})
	page.OnPageError(func(err error) {
		p.add(ConsoleTypePageError, err.Error())
	})
	return p, nil
}

// Close closes the context and every page opened in it.
func (s *playwrightSession) Close() error {
	return s.ctx.Close()
}

type playwrightPage struct {
	consoleLog
	page playwright.Page
}

func (p *playwrightPage) Navigate(url string, opts NavigateOptions) (int, error) {
	opts = opts.withDefaults()
	waitUntil := playwright.WaitUntilState(opts.WaitUntil)

	resp, err := p.page.Goto(url, playwright.PageGotoOptions{
		Timeout:   playwright.Float(float64(opts.Timeout.Milliseconds())),
		WaitUntil: &waitUntil,
	})
	if err != nil {
		return 0, err
	}
	// Goto yields no response for same-document navigations.
	if resp == nil {
		return 0, nil
	}
	return resp.Status(), nil
}

func (p *playwrightPage) CurrentURL() string {
	return p.page.URL()
}

func (p *playwrightPage) CaptureScreenshot(path string) error {
	_, err := p.page.Screenshot(playwright.PageScreenshotOptions{
		Path: playwright.String(path),
	})
	return err
}

func (p *playwrightPage) Content() (string, error) {
	return p.page.Content()
}

func (p *playwrightPage) Playwright() playwright.Page {
	return p.page
}

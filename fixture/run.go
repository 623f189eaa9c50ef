package fixture

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gofrs/uuid"
)

// RunOptions configures a Run.
type RunOptions struct {
	Launch  LaunchOptions
	Session SessionOptions
	// MaxSessions is the number of sessions that may be open at the same time.
	// Default: 1
	MaxSessions int
	// StartEngine starts the automation engine on first use.
	// Default: StartPlaywright with zero EngineOptions.
	StartEngine func() (Driver, error)
	Logger      *slog.Logger
}

// Stats counts lifecycle events of a Run.
type Stats struct {
	EngineStarts          int
	Launches              int
	SessionsOpened        int
	SessionsClosed        int
	MaxConcurrentSessions int
}

// Run owns the automation engine and the browser for the duration of a test run.
// It is created once by the runner and passed explicitly to every test.
//
// The engine and browser are started lazily by the first test that needs them.
// A failure to start either is sticky: every later call returns the same error.
type Run struct {
	opts   RunOptions
	logger *slog.Logger

	mu       sync.Mutex
	driver   Driver
	browser  Browser
	fatal    error
	closed   bool
	sessions map[uuid.UUID]*TrackedSession
	stats    Stats
}

// NewRun creates a Run. Nothing is started until the first call to Browser or OpenSession.
func NewRun(opts RunOptions) *Run {
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = 1
	}
	if opts.Session.Viewport == (Viewport{}) {
		opts.Session = DefaultSessionOptions()
	}
	if opts.Launch.Browser == "" {
		opts.Launch.Browser = DefaultBrowser
	}
	if opts.StartEngine == nil {
		opts.StartEngine = func() (Driver, error) {
			return StartPlaywright(EngineOptions{})
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Run{
		opts:     opts,
		logger:   logger.With("component", "fixture"),
		sessions: make(map[uuid.UUID]*TrackedSession),
	}
}

// Browser returns the run's browser, starting the engine and launching it on first use.
func (r *Run) Browser() (Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.browserLocked()
}

func (r *Run) browserLocked() (Browser, error) {
	if r.closed {
		return nil, ErrClosed
	}
	if r.fatal != nil {
		return nil, r.fatal
	}
	if r.browser != nil {
		return r.browser, nil
	}

	if r.driver == nil {
		driver, err := r.opts.StartEngine()
		if err != nil {
			if !errors.Is(err, ErrEngineStart) {
				err = fmt.Errorf("%w: %w", ErrEngineStart, err)
			}
			r.fatal = err
			return nil, err
		}
		r.driver = driver
		r.stats.EngineStarts++
	}

	browser, err := r.driver.Launch(r.opts.Launch)
	if err != nil {
		if !errors.Is(err, ErrBrowserLaunch) {
			err = fmt.Errorf("%w: %w", ErrBrowserLaunch, err)
		}
		r.fatal = err
		return nil, err
	}
	r.browser = browser
	r.stats.Launches++

	r.logger.Info("Browser launched",
		slog.String("browser", r.opts.Launch.Browser),
		slog.Bool("headless", r.opts.Launch.Headless),
	)
	return browser, nil
}

// Launched reports whether the browser has been launched.
func (r *Run) Launched() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.browser != nil
}

// LaunchOptions returns the options the browser is (or will be) launched with.
func (r *Run) LaunchOptions() LaunchOptions {
	return r.opts.Launch
}

// OpenSession creates a fresh isolated session on the run's browser.
// The caller owns the session and must close it when the test ends.
func (r *Run) OpenSession() (*TrackedSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.sessions) >= r.opts.MaxSessions {
		return nil, fmt.Errorf("%w: %d of %d sessions in use", ErrSessionOpen, len(r.sessions), r.opts.MaxSessions)
	}

	browser, err := r.browserLocked()
	if err != nil {
		return nil, err
	}

	session, err := browser.NewSession(r.opts.Session)
	if err != nil {
		return nil, fmt.Errorf("opening session: %w", err)
	}

	ts := &TrackedSession{
		ID:      uuid.Must(uuid.NewV4()),
		run:     r,
		session: session,
	}
	r.sessions[ts.ID] = ts
	r.stats.SessionsOpened++
	r.stats.MaxConcurrentSessions = max(r.stats.MaxConcurrentSessions, len(r.sessions))

	r.logger.Debug("Session opened", slog.String("session", ts.ID.String()))
	return ts, nil
}

// OpenSessions returns the number of sessions currently open.
func (r *Run) OpenSessions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Stats returns a snapshot of the run's lifecycle counters.
func (r *Run) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// Close closes any session still open, then the browser, then stops the engine.
// It is safe to call Close more than once.
func (r *Run) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	var errs []error
	for _, ts := range r.sessions {
		if err := r.closeSessionLocked(ts); err != nil {
			errs = append(errs, err)
		}
	}
	if r.browser != nil {
		if err := r.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing browser: %w", err))
		}
		r.browser = nil
		r.logger.Info("Browser closed")
	}
	if r.driver != nil {
		if err := r.driver.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stopping engine: %w", err))
		}
		r.driver = nil
	}

	return errors.Join(errs...)
}

func (r *Run) closeSessionLocked(ts *TrackedSession) error {
	if _, exists := r.sessions[ts.ID]; !exists {
		return nil
	}
	delete(r.sessions, ts.ID)
	r.stats.SessionsClosed++

	r.logger.Debug("Session closed", slog.String("session", ts.ID.String()))
	if err := ts.session.Close(); err != nil {
		return fmt.Errorf("closing session %s: %w", ts.ID, err)
	}
	return nil
}

// TrackedSession is an isolated session owned by a single test.
type TrackedSession struct {
	ID uuid.UUID

	run     *Run
	session Session
}

// NewPage opens a blank page in the session.
func (s *TrackedSession) NewPage() (Page, error) {
	return s.session.NewPage()
}

// OpenPage opens a page in the session and navigates it to url.
// If navigation fails the page is still returned together with an error wrapping ErrNavigation.
func (s *TrackedSession) OpenPage(url string, opts NavigateOptions) (Page, error) {
	page, err := s.session.NewPage()
	if err != nil {
		return nil, err
	}
	if _, err := page.Navigate(url, opts.withDefaults()); err != nil {
		return page, fmt.Errorf("%w: %s: %w", ErrNavigation, url, err)
	}
	return page, nil
}

// Close destroys the session and every page in it. It is safe to call Close more than once.
func (s *TrackedSession) Close() error {
	s.run.mu.Lock()
	defer s.run.mu.Unlock()
	return s.run.closeSessionLocked(s)
}

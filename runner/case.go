package runner

import (
	"context"
	"log/slog"
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/networkteam/aybolit-smoke/fixture"
	"github.com/networkteam/aybolit-smoke/outcome"
)

// Needs declares which fixtures a case requests.
type Needs int

const (
	// NeedsNothing runs the case without touching the browser.
	NeedsNothing Needs = iota
	// NeedsBrowser makes sure the run's browser is launched; the case opens its own sessions.
	NeedsBrowser
	// NeedsPage gives the case a fresh session with a page navigated to the base URL.
	NeedsPage
)

func (n Needs) String() string {
	switch n {
	case NeedsBrowser:
		return "browser"
	case NeedsPage:
		return "page"
	default:
		return "none"
	}
}

// Func is the assertion logic of a case.
type Func func(ctx context.Context, env *Env) outcome.Result

// Case is a single named smoke test.
type Case struct {
	Name  string
	Needs Needs
	Func  Func
}

// Env is handed to a case's Func.
type Env struct {
	BaseURL string
	Run     *fixture.Run
	// Handle is the page of the case, nil unless the case needs a page.
	Handle fixture.Page
	// Page is the Playwright page behind Handle.
	Page   playwright.Page
	Logger *slog.Logger

	sessions []*fixture.TrackedSession
}

// URL joins path to the base URL.
func (e *Env) URL(path string) string {
	if path == "" {
		return e.BaseURL
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return e.BaseURL + path
}

// NewSession opens an additional isolated session owned by the case.
// It is closed when the case ends.
func (e *Env) NewSession() (*fixture.TrackedSession, error) {
	s, err := e.Run.OpenSession()
	if err != nil {
		return nil, err
	}
	e.sessions = append(e.sessions, s)
	return s, nil
}

func (e *Env) closeSessions() error {
	var firstErr error
	for i := len(e.sessions) - 1; i >= 0; i-- {
		if err := e.sessions[i].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	e.sessions = nil
	return firstErr
}

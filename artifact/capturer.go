// Package artifact captures a screenshot of the active page when a test fails.
package artifact

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/networkteam/aybolit-smoke/fixture"
	"github.com/networkteam/aybolit-smoke/outcome"
)

// TimestampLayout is the layout of the timestamp in artifact file names.
const TimestampLayout = "20060102_150405"

// DefaultDir is the directory artifacts are written to, relative to the working directory.
const DefaultDir = "artifacts"

// Options configures a Capturer.
type Options struct {
	// Dir is created on first capture if it does not exist.
	// Default: "artifacts"
	Dir string
	// Phases lists the phases whose failures are captured.
	// Default: only the call phase
	Phases []outcome.Phase
	// CaptureSoftFailures also captures xfailed checks.
	// Default: false
	CaptureSoftFailures bool
	// SkipPageSource leaves the HTML of the failing page off the artifact.
	// Default: false, the source is kept
	SkipPageSource bool
	// Now returns the capture time. Default: time.Now
	Now    func() time.Time
	Logger *slog.Logger
}

// DefaultOptions captures hard failures of the call phase into "artifacts".
func DefaultOptions() Options {
	return Options{
		Dir:    DefaultDir,
		Phases: []outcome.Phase{outcome.PhaseCall},
	}
}

// Artifact describes a captured screenshot.
type Artifact struct {
	TestID  string
	Phase   outcome.Phase
	Path    string
	PageURL string
	Message string
	// Source is the HTML of the page at the time of failure, if captured.
	Source string
	// Console holds the page's recent console messages, if the page records them.
	Console []fixture.ConsoleMessage
	At      time.Time
}

type consoleRecorder interface {
	Console() []fixture.ConsoleMessage
}

// Capturer is an outcome.Observer that writes a PNG screenshot for failed tests.
type Capturer struct {
	opts   Options
	logger *slog.Logger

	mu        sync.Mutex
	artifacts []Artifact
}

// NewCapturer creates a Capturer. Zero fields of opts are filled from DefaultOptions.
func NewCapturer(opts Options) *Capturer {
	defaults := DefaultOptions()
	if opts.Dir == "" {
		opts.Dir = defaults.Dir
	}
	if len(opts.Phases) == 0 {
		opts.Phases = defaults.Phases
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Capturer{
		opts:   opts,
		logger: logger.With("component", "artifact"),
	}
}

// Observe captures a screenshot if rec is a failure in a captured phase and has a page.
// A record without a page is skipped silently.
func (c *Capturer) Observe(ctx context.Context, rec outcome.Record) error {
	if !c.shouldCapture(rec) {
		return nil
	}
	if rec.Page == nil {
		c.logger.Debug("No page to capture", slog.String("test", rec.TestID))
		return nil
	}

	if err := os.MkdirAll(c.opts.Dir, 0o755); err != nil {
		return fmt.Errorf("creating artifacts directory: %w", err)
	}

	at := c.opts.Now()
	path := filepath.Join(c.opts.Dir, FileName(rec.TestID, at))
	if err := rec.Page.CaptureScreenshot(path); err != nil {
		return fmt.Errorf("capturing screenshot of %s: %w", rec.TestID, err)
	}

	art := Artifact{
		TestID:  rec.TestID,
		Phase:   rec.Phase,
		Path:    path,
		PageURL: rec.Page.CurrentURL(),
		Message: rec.Message,
		At:      at,
	}
	if !c.opts.SkipPageSource {
		source, err := rec.Page.Content()
		if err != nil {
			c.logger.Warn("Could not read page source", slog.String("test", rec.TestID), slog.Any("err", err))
		} else {
			art.Source = source
		}
	}
	if cr, ok := rec.Page.(consoleRecorder); ok {
		art.Console = cr.Console()
	}

	c.mu.Lock()
	c.artifacts = append(c.artifacts, art)
	c.mu.Unlock()

	c.logger.Info("Saved failure screenshot",
		slog.String("test", rec.TestID),
		slog.String("path", path),
		slog.String("url", art.PageURL),
	)
	return nil
}

func (c *Capturer) shouldCapture(rec outcome.Record) bool {
	if !slices.Contains(c.opts.Phases, rec.Phase) {
		return false
	}
	switch rec.Status {
	case outcome.StatusFailed:
		return true
	case outcome.StatusXFailed:
		return c.opts.CaptureSoftFailures
	default:
		return false
	}
}

// Artifacts returns the artifacts captured so far.
func (c *Capturer) Artifacts() []Artifact {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.artifacts)
}

// FileName returns "<testID>_<YYYYMMDD_HHMMSS>.png" with characters that are unsafe
// in file names replaced by "_".
func FileName(testID string, at time.Time) string {
	return SanitizeTestID(testID) + "_" + at.Format(TimestampLayout) + ".png"
}

// SanitizeTestID replaces path separators, whitespace and other characters that are
// unsafe in file names.
func SanitizeTestID(testID string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == '*' || r == '?' || r == '"' || r == '<' || r == '>' || r == '|':
			return '_'
		case unicode.IsSpace(r) || unicode.IsControl(r):
			return '_'
		}
		return r
	}, testID)
}

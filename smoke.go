// Package smoke runs the browser smoke checks of the mc-aybolit.ru site.
//
// An Instance owns one browser run for its whole lifetime. Every check gets a fresh
// browser session with a page navigated to the base URL, and a screenshot is written to
// the artifacts directory for every check that fails.
package smoke

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/networkteam/aybolit-smoke/artifact"
	"github.com/networkteam/aybolit-smoke/checks"
	"github.com/networkteam/aybolit-smoke/fixture"
	"github.com/networkteam/aybolit-smoke/internal/config"
	"github.com/networkteam/aybolit-smoke/outcome"
	"github.com/networkteam/aybolit-smoke/report"
	"github.com/networkteam/aybolit-smoke/runner"
)

// ReportFile is the name of the HTML report inside the artifacts directory.
const ReportFile = "report.html"

type Instance struct {
	opts     Options
	run      *fixture.Run
	runner   *runner.Runner
	capturer *artifact.Capturer
	logger   *slog.Logger
}

type Options struct {
	// BaseURL is the site under test.
	// Default: https://mc-aybolit.ru
	BaseURL string
	// Launch configures the browser. An empty Browser means chromium.
	// Default: nil, will use fixture.DefaultLaunchOptions(), headless chromium
	Launch *fixture.LaunchOptions
	// Install downloads the Playwright driver and browser before the first launch.
	// Default: false
	Install bool
	// ArtifactsDir receives screenshots and the HTML report.
	// Default: "artifacts"
	ArtifactsDir string
	// CaptureSoftFailures also screenshots checks that failed softly.
	// Default: false
	CaptureSoftFailures bool
	// Pattern selects checks by name using glob syntax.
	// Default: "", all checks
	Pattern string
	// ReportPath is where the HTML report is written after Run. "-" disables it.
	// Default: <ArtifactsDir>/report.html
	ReportPath string
	// Cases replaces the built-in checks.
	// Default: nil, will use checks.All()
	Cases []runner.Case
	// Observers receive every phase record in addition to the screenshot capturer.
	Observers []outcome.Observer
	// StartEngine replaces the Playwright engine, e.g. with fixture.FakeDriver in tests.
	// Default: nil, will start Playwright
	StartEngine func() (fixture.Driver, error)
	Logger      *slog.Logger
}

// LoadOptions reads the config file at path (may be empty) and the environment into Options.
func LoadOptions(path string) (Options, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return Options{}, err
	}
	return optionsFromConfig(cfg), nil
}

// OptionsFromEnv returns Options configured from the environment only.
func OptionsFromEnv() (Options, error) {
	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		return Options{}, err
	}
	return optionsFromConfig(cfg), nil
}

func optionsFromConfig(cfg config.Config) Options {
	launch := cfg.LaunchOptions()
	return Options{
		BaseURL:             cfg.BaseURL,
		Launch:              &launch,
		Install:             cfg.Install,
		ArtifactsDir:        cfg.ArtifactsDir,
		CaptureSoftFailures: cfg.CaptureSoftFailures,
		Pattern:             cfg.Run,
	}
}

// New creates an Instance from the environment.
func New() (*Instance, error) {
	opts, err := OptionsFromEnv()
	if err != nil {
		return nil, err
	}
	return NewWithOptions(opts)
}

// NewWithOptions creates an Instance. The browser is not started until the first check runs.
func NewWithOptions(options Options) (*Instance, error) {
	if options.BaseURL == "" {
		options.BaseURL = config.DefaultBaseURL
	}
	options.BaseURL = config.NormalizeBaseURL(options.BaseURL)
	launch := fixture.DefaultLaunchOptions()
	if options.Launch != nil {
		launch = *options.Launch
		if launch.Browser == "" {
			launch.Browser = fixture.DefaultBrowser
		}
	}
	if options.ArtifactsDir == "" {
		options.ArtifactsDir = artifact.DefaultDir
	}
	if options.ReportPath == "" {
		options.ReportPath = filepath.Join(options.ArtifactsDir, ReportFile)
	}
	if options.Cases == nil {
		options.Cases = checks.All()
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	startEngine := options.StartEngine
	if startEngine == nil {
		install := options.Install
		browser := launch.Browser
		startEngine = func() (fixture.Driver, error) {
			engineOpts := fixture.EngineOptions{Install: install}
			if install && browser != "" {
				engineOpts.Browsers = []string{browser}
			}
			return fixture.StartPlaywright(engineOpts)
		}
	}

	run := fixture.NewRun(fixture.RunOptions{
		Launch:      launch,
		Session:     fixture.DefaultSessionOptions(),
		StartEngine: startEngine,
		Logger:      logger,
	})

	captureOpts := artifact.DefaultOptions()
	captureOpts.Dir = options.ArtifactsDir
	captureOpts.CaptureSoftFailures = options.CaptureSoftFailures
	captureOpts.Logger = logger
	capturer := artifact.NewCapturer(captureOpts)

	r, err := runner.New(run, runner.Options{
		BaseURL:   options.BaseURL,
		Navigate:  fixture.DefaultNavigateOptions(),
		Pattern:   options.Pattern,
		Observers: append([]outcome.Observer{capturer}, options.Observers...),
		Logger:    logger,
	})
	if err != nil {
		_ = run.Close()
		return nil, err
	}

	return &Instance{
		opts:     options,
		run:      run,
		runner:   r,
		capturer: capturer,
		logger:   logger,
	}, nil
}

// Run executes the selected checks and writes the HTML report.
// The returned error wraps runner.ErrAborted if the browser could not be started.
func (i *Instance) Run(ctx context.Context) (*runner.Report, error) {
	rep, runErr := i.runner.Run(ctx, i.opts.Cases)

	if i.opts.ReportPath != "-" {
		if err := report.WriteHTML(ctx, i.opts.ReportPath, rep, i.capturer.Artifacts()); err != nil {
			i.logger.Error("Failed to write HTML report", slog.String("path", i.opts.ReportPath), slog.Any("err", err))
			if runErr == nil {
				return rep, err
			}
		} else {
			i.logger.Info("Wrote HTML report", slog.String("path", i.opts.ReportPath))
		}
	}
	return rep, runErr
}

// Runner returns the runner, e.g. to run single cases as subtests.
func (i *Instance) Runner() *runner.Runner {
	return i.runner
}

// Cases returns the checks selected by the configured pattern.
func (i *Instance) Cases() []runner.Case {
	return i.runner.Select(i.opts.Cases)
}

// BaseURL returns the normalized base URL.
func (i *Instance) BaseURL() string {
	return i.opts.BaseURL
}

// Artifacts returns the screenshots captured so far.
func (i *Instance) Artifacts() []artifact.Artifact {
	return i.capturer.Artifacts()
}

// WriteSummary writes the console summary of rep.
func (i *Instance) WriteSummary(w io.Writer, rep *runner.Report) error {
	return report.WriteSummary(w, rep, i.capturer.Artifacts())
}

// Stats returns lifecycle counters of the browser run.
func (i *Instance) Stats() fixture.Stats {
	return i.run.Stats()
}

// Close stops the browser and the engine. Observer errors seen during the run are returned
// together with any teardown error.
func (i *Instance) Close() error {
	var errs []error
	if err := i.run.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing browser run: %w", err))
	}
	if err := i.runner.ObserverErr(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

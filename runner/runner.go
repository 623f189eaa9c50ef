// Package runner executes smoke cases one after another against a shared browser run.
//
// Every case goes through three phases. Setup opens an isolated session and a page
// navigated to the base URL if the case asks for one. Call runs the assertion logic.
// Teardown closes every session the case owns. After each phase an outcome.Record is
// dispatched to the registered observers, so the call record is seen while the page is
// still open.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gobwas/glob"
	"github.com/gofrs/uuid"
	"github.com/samber/lo"

	"github.com/networkteam/aybolit-smoke/fixture"
	"github.com/networkteam/aybolit-smoke/outcome"
)

// ErrAborted is returned when the run stopped before all cases were executed.
var ErrAborted = errors.New("run aborted")

// Options configures a Runner.
type Options struct {
	// BaseURL is where every page is navigated before the case runs. A trailing slash is stripped.
	BaseURL string
	// Navigate configures the initial navigation.
	// Default: fixture.DefaultNavigateOptions()
	Navigate fixture.NavigateOptions
	// Pattern selects cases by name (glob syntax, "*" matches everything).
	// Default: all cases
	Pattern   string
	Observers []outcome.Observer
	Logger    *slog.Logger
}

// Runner executes cases sequentially.
type Runner struct {
	run        *fixture.Run
	opts       Options
	filter     glob.Glob
	dispatcher *outcome.Dispatcher
	logger     *slog.Logger
}

// New creates a Runner for run.
func New(run *fixture.Run, opts Options) (*Runner, error) {
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.Navigate == (fixture.NavigateOptions{}) {
		opts.Navigate = fixture.DefaultNavigateOptions()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var filter glob.Glob
	if opts.Pattern != "" {
		g, err := glob.Compile(opts.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compiling case pattern %q: %w", opts.Pattern, err)
		}
		filter = g
	}

	return &Runner{
		run:        run,
		opts:       opts,
		filter:     filter,
		dispatcher: outcome.NewDispatcher(logger, opts.Observers...),
		logger:     logger.With("component", "runner"),
	}, nil
}

// Register adds an observer of test phase records.
func (r *Runner) Register(o outcome.Observer) {
	r.dispatcher.Register(o)
}

// ObserverErr returns the errors observers reported so far.
func (r *Runner) ObserverErr() error {
	return r.dispatcher.Err()
}

// Select returns the cases matching the runner's pattern.
func (r *Runner) Select(cases []Case) []Case {
	if r.filter == nil {
		return cases
	}
	return lo.Filter(cases, func(c Case, _ int) bool {
		return r.filter.Match(c.Name)
	})
}

// Run executes the selected cases in order. If the engine or browser cannot be started
// the run stops and the error, wrapping ErrAborted, is returned along with the partial report.
func (r *Runner) Run(ctx context.Context, cases []Case) (*Report, error) {
	report := &Report{
		RunID:     uuid.Must(uuid.NewV4()),
		BaseURL:   r.opts.BaseURL,
		StartedAt: time.Now(),
	}
	logger := r.logger.With(slog.String("run", report.RunID.String()))

	selected := r.Select(cases)
	logger.Info("Starting run", slog.Int("cases", len(selected)), slog.String("baseURL", r.opts.BaseURL))

	for _, c := range selected {
		if err := ctx.Err(); err != nil {
			report.Aborted = err
			break
		}

		cr, err := r.RunCase(ctx, c)
		report.Cases = append(report.Cases, cr)
		if err != nil {
			logger.Error("Aborting run", slog.String("test", c.Name), slog.Any("err", err))
			report.Aborted = err
			break
		}
	}
	report.FinishedAt = time.Now()

	logger.Info("Run finished",
		slog.Int("passed", report.Count(outcome.StatusPassed)),
		slog.Int("failed", report.Count(outcome.StatusFailed)),
		slog.Int("xfailed", report.Count(outcome.StatusXFailed)),
		slog.Int("skipped", report.Count(outcome.StatusSkipped)),
		slog.Duration("duration", report.Duration()),
	)

	if report.Aborted != nil {
		return report, fmt.Errorf("%w: %w", ErrAborted, report.Aborted)
	}
	return report, nil
}

// RunCase executes a single case. A non-nil error means a fatal fixture error that
// should stop the whole run; the case report then records it as a setup failure.
func (r *Runner) RunCase(ctx context.Context, c Case) (cr CaseReport, err error) {
	logger := r.logger.With(slog.String("test", c.Name))
	env := &Env{
		BaseURL: r.opts.BaseURL,
		Run:     r.run,
		Logger:  logger,
	}
	cr = CaseReport{Name: c.Name}
	start := time.Now()
	defer func() {
		cr.Duration = time.Since(start)
	}()

	// Setup
	phaseStart := time.Now()
	page, setupErr := r.setup(c, env)
	if page != nil {
		env.Handle = page
		env.Page = page.Playwright()
		cr.PageURL = page.CurrentURL()
	}
	if isFatal(setupErr) {
		cr.finish(outcome.PhaseSetup, outcome.Fail(setupErr))
		r.emit(ctx, c, outcome.PhaseSetup, outcome.Fail(setupErr), page, time.Since(phaseStart))
		_ = env.closeSessions()
		return cr, setupErr
	}
	setupResult := outcome.Pass()
	if setupErr != nil {
		setupResult = outcome.Fail(setupErr)
	}
	r.emit(ctx, c, outcome.PhaseSetup, setupResult, page, time.Since(phaseStart))

	if setupErr != nil {
		logger.Warn("Setup failed", slog.Any("err", setupErr))
		cr.finish(outcome.PhaseSetup, setupResult)
		r.teardown(ctx, c, env)
		return cr, nil
	}

	// Call
	phaseStart = time.Now()
	result := r.call(ctx, c, env)
	if page != nil {
		cr.PageURL = page.CurrentURL()
	}
	r.emit(ctx, c, outcome.PhaseCall, result, page, time.Since(phaseStart))
	cr.finish(outcome.PhaseCall, result)

	// Teardown
	if teardownErr := r.teardown(ctx, c, env); teardownErr != nil && !cr.Status.Failed() {
		cr.finish(outcome.PhaseTeardown, outcome.Fail(teardownErr))
	}

	logger.Info("Test finished",
		slog.String("status", string(cr.Status)),
		slog.Duration("duration", time.Since(start)),
	)

	if isFatal(result.Err) {
		return cr, result.Err
	}
	return cr, nil
}

func (r *Runner) setup(c Case, env *Env) (fixture.Page, error) {
	switch c.Needs {
	case NeedsBrowser:
		_, err := r.run.Browser()
		return nil, err
	case NeedsPage:
		s, err := env.NewSession()
		if err != nil {
			return nil, err
		}
		return s.OpenPage(r.opts.BaseURL, r.opts.Navigate)
	default:
		return nil, nil
	}
}

func (r *Runner) call(ctx context.Context, c Case, env *Env) (result outcome.Result) {
	defer func() {
		if p := recover(); p != nil {
			result = outcome.Failf("panic: %v", p)
		}
	}()
	if c.Func == nil {
		return outcome.Failf("case %s has no function", c.Name)
	}
	return c.Func(ctx, env)
}

func (r *Runner) teardown(ctx context.Context, c Case, env *Env) error {
	start := time.Now()
	err := env.closeSessions()

	result := outcome.Pass()
	if err != nil {
		result = outcome.Fail(err)
	}
	// The page is gone once its session is closed.
	r.emit(ctx, c, outcome.PhaseTeardown, result, nil, time.Since(start))
	return err
}

func (r *Runner) emit(ctx context.Context, c Case, phase outcome.Phase, result outcome.Result, page fixture.Page, d time.Duration) {
	rec := outcome.Record{
		TestID:   c.Name,
		Phase:    phase,
		Status:   result.Status,
		Message:  result.Message,
		Err:      result.Err,
		Duration: d,
		At:       time.Now(),
	}
	if page != nil {
		rec.Page = page
	}
	r.dispatcher.Dispatch(ctx, rec)
}

func isFatal(err error) bool {
	return errors.Is(err, fixture.ErrEngineStart) ||
		errors.Is(err, fixture.ErrBrowserLaunch) ||
		errors.Is(err, fixture.ErrClosed)
}

package smoke_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	smoke "github.com/networkteam/aybolit-smoke"
	"github.com/networkteam/aybolit-smoke/fixture"
	"github.com/networkteam/aybolit-smoke/outcome"
	"github.com/networkteam/aybolit-smoke/runner"
)

func newInstance(t *testing.T, driver *fixture.FakeDriver, cases []runner.Case, modify ...func(*smoke.Options)) (*smoke.Instance, string) {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "artifacts")
	opts := smoke.Options{
		BaseURL:      "https://example.test/",
		ArtifactsDir: dir,
		Cases:        cases,
		StartEngine:  driver.StartEngine,
	}
	for _, m := range modify {
		m(&opts)
	}

	inst, err := smoke.NewWithOptions(opts)
	require.NoError(t, err)
	return inst, dir
}

func pngFiles(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "*.png"))
	require.NoError(t, err)
	return matches
}

func TestInstance_PassingRun(t *testing.T) {
	driver := fixture.NewFakeDriver()
	var urls []string
	cases := []runner.Case{
		{Name: "home", Needs: runner.NeedsPage, Func: func(ctx context.Context, env *runner.Env) outcome.Result {
			urls = append(urls, env.Handle.CurrentURL())
			return outcome.Pass()
		}},
		{Name: "footer", Needs: runner.NeedsPage, Func: func(ctx context.Context, env *runner.Env) outcome.Result {
			urls = append(urls, env.Handle.CurrentURL())
			return outcome.Pass()
		}},
	}
	inst, dir := newInstance(t, driver, cases)

	rep, err := inst.Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, inst.Close())

	assert.Equal(t, runner.ExitOK, rep.ExitCode())
	assert.Equal(t, "https://example.test", inst.BaseURL())
	assert.Equal(t, []string{"https://example.test", "https://example.test"}, urls)
	assert.Empty(t, pngFiles(t, dir))
	assert.FileExists(t, filepath.Join(dir, smoke.ReportFile))

	stats := inst.Stats()
	assert.Equal(t, 1, stats.Launches)
	assert.Equal(t, 2, stats.SessionsOpened)
	assert.Equal(t, 2, stats.SessionsClosed)
	assert.Equal(t, 1, stats.MaxConcurrentSessions)
	assert.Len(t, driver.Sessions(), 2)
	assert.Equal(t, 1, driver.Stops())
}

func TestInstance_FailingCheckIsCaptured(t *testing.T) {
	driver := fixture.NewFakeDriver()
	cases := []runner.Case{
		{Name: "01_home_page_opens", Needs: runner.NeedsPage, Func: func(ctx context.Context, env *runner.Env) outcome.Result {
			return outcome.Failf("title is empty")
		}},
		{Name: "12_robots_soft", Needs: runner.NeedsPage, Func: func(ctx context.Context, env *runner.Env) outcome.Result {
			return outcome.Softf("sitemap.xml missing")
		}},
	}
	inst, dir := newInstance(t, driver, cases)
	t.Cleanup(func() { _ = inst.Close() })

	rep, err := inst.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, runner.ExitFailed, rep.ExitCode())

	files := pngFiles(t, dir)
	require.Len(t, files, 1)
	assert.Regexp(t, regexp.MustCompile(`^01_home_page_opens_\d{8}_\d{6}\.png$`), filepath.Base(files[0]))

	arts := inst.Artifacts()
	require.Len(t, arts, 1)
	assert.Equal(t, "https://example.test", arts[0].PageURL)

	html, err := os.ReadFile(filepath.Join(dir, smoke.ReportFile))
	require.NoError(t, err)
	assert.Contains(t, string(html), filepath.Base(files[0]))

	var buf bytes.Buffer
	require.NoError(t, inst.WriteSummary(&buf, rep))
	assert.Contains(t, buf.String(), "FAILED  01_home_page_opens - title is empty")
	assert.Contains(t, buf.String(), "XFAIL   12_robots_soft")
	assert.Contains(t, buf.String(), "1 failed, 1 xfailed")
}

func TestInstance_CaptureSoftFailures(t *testing.T) {
	driver := fixture.NewFakeDriver()
	cases := []runner.Case{
		{Name: "12_robots_soft", Needs: runner.NeedsPage, Func: func(ctx context.Context, env *runner.Env) outcome.Result {
			return outcome.Softf("sitemap.xml missing")
		}},
	}
	inst, dir := newInstance(t, driver, cases, func(o *smoke.Options) {
		o.CaptureSoftFailures = true
		o.ReportPath = "-"
	})
	t.Cleanup(func() { _ = inst.Close() })

	rep, err := inst.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, runner.ExitOK, rep.ExitCode())
	assert.Len(t, pngFiles(t, dir), 1)
	assert.NoFileExists(t, filepath.Join(dir, smoke.ReportFile))
}

func TestInstance_LaunchFailureAbortsRun(t *testing.T) {
	driver := fixture.NewFakeDriver()
	driver.LaunchErr = errors.New("no chromium")
	calls := 0
	check := func(ctx context.Context, env *runner.Env) outcome.Result {
		calls++
		return outcome.Pass()
	}
	inst, dir := newInstance(t, driver, []runner.Case{
		{Name: "a", Needs: runner.NeedsPage, Func: check},
		{Name: "b", Needs: runner.NeedsPage, Func: check},
	})

	rep, err := inst.Run(context.Background())
	require.ErrorIs(t, err, runner.ErrAborted)
	require.ErrorIs(t, err, fixture.ErrBrowserLaunch)
	require.NoError(t, inst.Close())

	assert.Zero(t, calls)
	assert.Equal(t, runner.ExitAborted, rep.ExitCode())
	require.Len(t, rep.Cases, 1)
	assert.Equal(t, outcome.PhaseSetup, rep.Cases[0].Phase)
	assert.Empty(t, pngFiles(t, dir))
}

func TestInstance_PatternSelectsCases(t *testing.T) {
	driver := fixture.NewFakeDriver()
	var ran []string
	record := func(name string) runner.Func {
		return func(ctx context.Context, env *runner.Env) outcome.Result {
			ran = append(ran, name)
			return outcome.Pass()
		}
	}
	inst, _ := newInstance(t, driver, []runner.Case{
		{Name: "g8_h9_01_search_positive", Needs: runner.NeedsPage, Func: record("g8_h9_01_search_positive")},
		{Name: "01_home_page_opens", Needs: runner.NeedsPage, Func: record("01_home_page_opens")},
		{Name: "g8_h9_02_clear_search_input", Needs: runner.NeedsPage, Func: record("g8_h9_02_clear_search_input")},
	}, func(o *smoke.Options) {
		o.Pattern = "g8_h9_*"
	})
	t.Cleanup(func() { _ = inst.Close() })

	assert.Len(t, inst.Cases(), 2)

	_, err := inst.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"g8_h9_01_search_positive", "g8_h9_02_clear_search_input"}, ran)
}

func TestNewWithOptions_Defaults(t *testing.T) {
	driver := fixture.NewFakeDriver()
	inst, err := smoke.NewWithOptions(smoke.Options{StartEngine: driver.StartEngine, ReportPath: "-"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = inst.Close() })

	assert.Equal(t, "https://mc-aybolit.ru", inst.BaseURL())
	assert.NotEmpty(t, inst.Cases())
}

func TestLoadOptions(t *testing.T) {
	t.Setenv("BASE_URL", "https://staging.example.test/")
	t.Setenv("HEADLESS", "0")
	t.Setenv("BROWSER", "firefox")
	t.Setenv("ARTIFACTS_DIR", "out")

	path := filepath.Join(t.TempDir(), "smoke.yaml")
	require.NoError(t, os.WriteFile(path, []byte("run: \"0*\"\ncaptureSoftFailures: true\n"), 0o644))

	opts, err := smoke.LoadOptions(path)
	require.NoError(t, err)

	assert.Equal(t, "https://staging.example.test", opts.BaseURL)
	require.NotNil(t, opts.Launch)
	assert.False(t, opts.Launch.Headless)
	assert.Equal(t, "firefox", opts.Launch.Browser)
	assert.Equal(t, "out", opts.ArtifactsDir)
	assert.Equal(t, "0*", opts.Pattern)
	assert.True(t, opts.CaptureSoftFailures)
}

func TestNewWithOptions_LaunchOptions(t *testing.T) {
	openPage := []runner.Case{
		{Name: "home", Needs: runner.NeedsPage, Func: func(ctx context.Context, env *runner.Env) outcome.Result {
			return outcome.Pass()
		}},
	}

	tests := []struct {
		name   string
		launch *fixture.LaunchOptions
		want   fixture.LaunchOptions
	}{
		{
			name:   "nil is headless chromium",
			launch: nil,
			want:   fixture.LaunchOptions{Headless: true, Browser: "chromium"},
		},
		{
			name:   "headed without browser stays headed",
			launch: &fixture.LaunchOptions{Headless: false},
			want:   fixture.LaunchOptions{Headless: false, Browser: "chromium"},
		},
		{
			name:   "explicit browser is kept",
			launch: &fixture.LaunchOptions{Headless: true, Browser: "webkit"},
			want:   fixture.LaunchOptions{Headless: true, Browser: "webkit"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			driver := fixture.NewFakeDriver()
			inst, _ := newInstance(t, driver, openPage, func(o *smoke.Options) {
				o.Launch = tt.launch
				o.ReportPath = "-"
			})
			t.Cleanup(func() { _ = inst.Close() })

			_, err := inst.Run(context.Background())
			require.NoError(t, err)

			require.Len(t, driver.Launches(), 1)
			assert.Equal(t, tt.want, driver.Launches()[0])
		})
	}
}

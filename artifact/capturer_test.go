package artifact_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/networkteam/aybolit-smoke/artifact"
	"github.com/networkteam/aybolit-smoke/fixture"
	"github.com/networkteam/aybolit-smoke/outcome"
)

type stubPage struct {
	url   string
	err   error
	shots []string
}

func (p *stubPage) CurrentURL() string { return p.url }

func (p *stubPage) CaptureScreenshot(path string) error {
	if p.err != nil {
		return p.err
	}
	p.shots = append(p.shots, path)
	return os.WriteFile(path, []byte("\x89PNG"), 0o644)
}

func (p *stubPage) Content() (string, error) {
	return "<html><body>footer</body></html>", nil
}

var fixedTime = time.Date(2026, 10, 15, 9, 4, 5, 0, time.UTC)

func newCapturer(t *testing.T, mutate ...func(*artifact.Options)) (*artifact.Capturer, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "artifacts")
	opts := artifact.DefaultOptions()
	opts.Dir = dir
	opts.Now = func() time.Time { return fixedTime }
	for _, m := range mutate {
		m(&opts)
	}
	return artifact.NewCapturer(opts), dir
}

func listFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "test_g7_h8_01_phones_20261015_090405.png", artifact.FileName("test_g7_h8_01_phones", fixedTime))
	assert.Equal(t, "site_03_nav_Наши_врачи_20261015_090405.png", artifact.FileName("site_03_nav/Наши врачи", fixedTime))
}

func TestCapturer_CallFailureWithPage(t *testing.T) {
	c, dir := newCapturer(t)
	page := &stubPage{url: "https://example.test/contacts"}

	err := c.Observe(context.Background(), outcome.Record{
		TestID:  "test_footer_phones",
		Phase:   outcome.PhaseCall,
		Status:  outcome.StatusFailed,
		Message: "no tel: links",
		Page:    page,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"test_footer_phones_20261015_090405.png"}, listFiles(t, dir))

	arts := c.Artifacts()
	require.Len(t, arts, 1)
	assert.Equal(t, "test_footer_phones", arts[0].TestID)
	assert.Equal(t, filepath.Join(dir, "test_footer_phones_20261015_090405.png"), arts[0].Path)
	assert.Equal(t, "https://example.test/contacts", arts[0].PageURL)
	assert.Equal(t, "no tel: links", arts[0].Message)
	assert.Contains(t, arts[0].Source, "footer")
}

func TestCapturer_IgnoresNonCaptureRecords(t *testing.T) {
	tests := []struct {
		name   string
		phase  outcome.Phase
		status outcome.Status
	}{
		{"call passed", outcome.PhaseCall, outcome.StatusPassed},
		{"call skipped", outcome.PhaseCall, outcome.StatusSkipped},
		{"call xfailed", outcome.PhaseCall, outcome.StatusXFailed},
		{"setup failed", outcome.PhaseSetup, outcome.StatusFailed},
		{"teardown failed", outcome.PhaseTeardown, outcome.StatusFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, dir := newCapturer(t)
			page := &stubPage{}

			err := c.Observe(context.Background(), outcome.Record{
				TestID: "test_x",
				Phase:  tt.phase,
				Status: tt.status,
				Page:   page,
			})
			require.NoError(t, err)

			assert.Empty(t, page.shots)
			assert.Empty(t, listFiles(t, dir))
			assert.Empty(t, c.Artifacts())
		})
	}
}

func TestCapturer_NoPageIsSkippedSilently(t *testing.T) {
	c, dir := newCapturer(t)

	err := c.Observe(context.Background(), outcome.Record{
		TestID: "test_without_page",
		Phase:  outcome.PhaseCall,
		Status: outcome.StatusFailed,
	})
	require.NoError(t, err)

	assert.Empty(t, listFiles(t, dir))
	_, statErr := os.Stat(dir)
	assert.True(t, errors.Is(statErr, os.ErrNotExist), "directory should not be created without a capture")
}

func TestCapturer_DirectoryCreationIsIdempotent(t *testing.T) {
	c, dir := newCapturer(t)
	require.NoError(t, os.MkdirAll(dir, 0o755))

	for _, id := range []string{"test_a", "test_b"} {
		err := c.Observe(context.Background(), outcome.Record{
			TestID: id,
			Phase:  outcome.PhaseCall,
			Status: outcome.StatusFailed,
			Page:   &stubPage{},
		})
		require.NoError(t, err)
	}

	assert.ElementsMatch(t, []string{
		"test_a_20261015_090405.png",
		"test_b_20261015_090405.png",
	}, listFiles(t, dir))
}

func TestCapturer_ScreenshotErrorIsReturned(t *testing.T) {
	c, _ := newCapturer(t)

	err := c.Observe(context.Background(), outcome.Record{
		TestID: "test_a",
		Phase:  outcome.PhaseCall,
		Status: outcome.StatusFailed,
		Page:   &stubPage{err: errors.New("no space left on device")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no space left on device")
	assert.Empty(t, c.Artifacts())
}

func TestCapturer_PolicyOptions(t *testing.T) {
	c, dir := newCapturer(t, func(o *artifact.Options) {
		o.CaptureSoftFailures = true
		o.Phases = []outcome.Phase{outcome.PhaseSetup, outcome.PhaseCall}
		o.SkipPageSource = true
	})

	require.NoError(t, c.Observe(context.Background(), outcome.Record{
		TestID: "test_soft", Phase: outcome.PhaseCall, Status: outcome.StatusXFailed, Page: &stubPage{},
	}))
	require.NoError(t, c.Observe(context.Background(), outcome.Record{
		TestID: "test_setup", Phase: outcome.PhaseSetup, Status: outcome.StatusFailed, Page: &stubPage{},
	}))

	assert.ElementsMatch(t, []string{
		"test_soft_20261015_090405.png",
		"test_setup_20261015_090405.png",
	}, listFiles(t, dir))
	for _, a := range c.Artifacts() {
		assert.Empty(t, a.Source)
	}
}

func TestCapturer_KeepsConsoleMessages(t *testing.T) {
	c, dir := newCapturer(t)

	driver := fixture.NewFakeDriver()
	run := fixture.NewRun(fixture.RunOptions{StartEngine: driver.StartEngine})
	t.Cleanup(func() { _ = run.Close() })

	s, err := run.OpenSession()
	require.NoError(t, err)
	page, err := s.OpenPage("https://example.test/", fixture.NavigateOptions{})
	require.NoError(t, err)
	fake := page.(*fixture.FakePage)
	fake.Log("error", "Mixed Content: http://example.test/logo.png")
	fake.Log(fixture.ConsoleTypePageError, "ReferenceError: ym is not defined")

	err = c.Observe(context.Background(), outcome.Record{
		TestID: "02_https_and_no_mixed_content",
		Phase:  outcome.PhaseCall,
		Status: outcome.StatusFailed,
		Page:   page,
	})
	require.NoError(t, err)

	arts := c.Artifacts()
	require.Len(t, arts, 1)
	require.Len(t, arts[0].Console, 2)
	assert.Equal(t, "error", arts[0].Console[0].Type)
	assert.Equal(t, fixture.ConsoleTypePageError, arts[0].Console[1].Type)
	assert.Len(t, listFiles(t, dir), 1)
}

func TestCapturer_ZeroOptionsKeepPageSource(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "artifacts")
	c := artifact.NewCapturer(artifact.Options{Dir: dir})

	require.NoError(t, c.Observe(context.Background(), outcome.Record{
		TestID: "test_footer", Phase: outcome.PhaseCall, Status: outcome.StatusFailed, Page: &stubPage{},
	}))

	arts := c.Artifacts()
	require.Len(t, arts, 1)
	assert.Equal(t, "<html><body>footer</body></html>", arts[0].Source)
}

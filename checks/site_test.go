package checks

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/networkteam/aybolit-smoke/fixture"
	"github.com/networkteam/aybolit-smoke/outcome"
	"github.com/networkteam/aybolit-smoke/runner"
)

func newFakeEnv(t *testing.T, driver *fixture.FakeDriver, baseURL string) (*runner.Env, *fixture.FakePage) {
	t.Helper()

	run := fixture.NewRun(fixture.RunOptions{StartEngine: driver.StartEngine})
	t.Cleanup(func() { _ = run.Close() })

	s, err := run.OpenSession()
	require.NoError(t, err)
	page, err := s.OpenPage(baseURL, fixture.DefaultNavigateOptions())
	require.NoError(t, err)

	return &runner.Env{BaseURL: baseURL, Run: run, Handle: page}, page.(*fixture.FakePage)
}

func TestHTTPSAndNoMixedContent(t *testing.T) {
	t.Run("clean https page passes", func(t *testing.T) {
		driver := fixture.NewFakeDriver()
		env, _ := newFakeEnv(t, driver, "https://example.test")

		res := httpsAndNoMixedContent(context.Background(), env)
		assert.Equal(t, outcome.StatusPassed, res.Status, res.Message)
	})

	t.Run("plain http fails hard", func(t *testing.T) {
		driver := fixture.NewFakeDriver()
		env, _ := newFakeEnv(t, driver, "http://example.test")

		res := httpsAndNoMixedContent(context.Background(), env)
		assert.Equal(t, outcome.StatusFailed, res.Status)
		assert.Contains(t, res.Message, "not served over https")
	})

	t.Run("http reference in HTML is soft", func(t *testing.T) {
		driver := fixture.NewFakeDriver()
		driver.HTML = `<html><body><img src="http://cdn.example.test/logo.png"></body></html>`
		env, _ := newFakeEnv(t, driver, "https://example.test")

		res := httpsAndNoMixedContent(context.Background(), env)
		assert.Equal(t, outcome.StatusXFailed, res.Status)
	})

	t.Run("console warning is soft", func(t *testing.T) {
		driver := fixture.NewFakeDriver()
		env, page := newFakeEnv(t, driver, "https://example.test")
		page.Log("warning", "Mixed Content: The page was loaded over HTTPS, but requested an insecure image")

		res := httpsAndNoMixedContent(context.Background(), env)
		assert.Equal(t, outcome.StatusXFailed, res.Status)
		assert.Contains(t, res.Message, "browser reported mixed content")
	})

	t.Run("error status is soft", func(t *testing.T) {
		driver := fixture.NewFakeDriver()
		driver.Status = func(url string) int { return 503 }
		env, _ := newFakeEnv(t, driver, "https://example.test")

		res := httpsAndNoMixedContent(context.Background(), env)
		assert.Equal(t, outcome.StatusXFailed, res.Status)
		assert.Contains(t, res.Message, "HTTP status 503")
	})
}

func TestGotoOK_NavigationError(t *testing.T) {
	driver := fixture.NewFakeDriver()
	env, page := newFakeEnv(t, driver, "https://example.test")
	driver.NavigateErr = func(url string) error { return errors.New("net::ERR_NAME_NOT_RESOLVED") }

	res, ok := gotoOK(page, env.URL("/uslugi"))
	assert.False(t, ok)
	assert.Equal(t, outcome.StatusFailed, res.Status)
	assert.Contains(t, res.Message, "https://example.test/uslugi")

	navs := page.Navigations()
	require.Len(t, navs, 2)
	assert.Equal(t, gotoTimeout, navs[1].Options.Timeout)
}

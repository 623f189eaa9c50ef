package checks

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/networkteam/aybolit-smoke/outcome"
	"github.com/networkteam/aybolit-smoke/runner"
)

var searchResultsURL = regexp.MustCompile(`.*/search/\?.*`)

// searchInput is the header search field: <form action="/search/"><input name="q">.
func searchInput(page playwright.Page) playwright.Locator {
	return page.Locator(`form[action="/search/"] input[name="q"]`)
}

// visibleSearchInput returns to the home page and waits for the search field.
func visibleSearchInput(env *runner.Env) (playwright.Locator, outcome.Result, bool) {
	if err := gotoBase(env); err != nil {
		return nil, outcome.Fail(err), false
	}
	search := searchInput(env.Page)
	if err := expect.Locator(search).ToBeVisible(); err != nil {
		return nil, outcome.Failf("search input is not visible: %w", err), false
	}
	return search, outcome.Pass(), true
}

func submitSearch(search playwright.Locator, query string) error {
	if err := search.Fill(query); err != nil {
		return err
	}
	return search.Press("Enter")
}

func searchPositiveRedirectsToResults(ctx context.Context, env *runner.Env) outcome.Result {
	search, res, ok := visibleSearchInput(env)
	if !ok {
		return res
	}

	const query = "анализ"
	if err := submitSearch(search, query); err != nil {
		return outcome.Fail(err)
	}
	if err := expect.Page(env.Page).ToHaveURL(searchResultsURL); err != nil {
		return outcome.Fail(err)
	}
	if res := assertNoServerError(env.Page); res.Status.Failed() {
		return res
	}

	current := env.Page.URL()
	u, err := url.Parse(current)
	if err != nil {
		return outcome.Fail(err)
	}
	values := u.Query()["q"]
	if len(values) == 0 || values[0] == "" {
		return outcome.Failf("no q parameter in URL: %s", current)
	}
	if got := strings.ToLower(strings.TrimSpace(values[0])); got != strings.ToLower(query) {
		return outcome.Failf("expected q=%q, got q=%q", query, got)
	}
	return outcome.Pass()
}

func searchClearInput(ctx context.Context, env *runner.Env) outcome.Result {
	search, res, ok := visibleSearchInput(env)
	if !ok {
		return res
	}

	for _, value := range []string{"узи", ""} {
		if err := search.Fill(value); err != nil {
			return outcome.Fail(err)
		}
		if err := expect.Locator(search).ToHaveValue(value); err != nil {
			return outcome.Fail(err)
		}
	}
	return assertNoServerError(env.Page)
}

// searchQueryNoCrash submits query and expects no error page. Staying on the home page is allowed.
func searchQueryNoCrash(query string, allowStay func(current, baseURL string) bool) runner.Func {
	return func(ctx context.Context, env *runner.Env) outcome.Result {
		search, res, ok := visibleSearchInput(env)
		if !ok {
			return res
		}
		if err := submitSearch(search, query); err != nil {
			return outcome.Fail(err)
		}
		if res := assertNoServerError(env.Page); res.Status.Failed() {
			return res
		}

		current := env.Page.URL()
		if !strings.Contains(current, "/search/") && !allowStay(current, env.BaseURL) {
			return outcome.Failf("unexpected URL after search: %s", current)
		}
		return outcome.Pass()
	}
}

func onHomePage(current, baseURL string) bool {
	return strings.TrimRight(current, "/") == strings.TrimRight(baseURL, "/")
}

func onSite(current, baseURL string) bool {
	return strings.HasPrefix(current, baseURL)
}

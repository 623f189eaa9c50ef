package checks

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/samber/lo"

	"github.com/networkteam/aybolit-smoke/fixture"
	"github.com/networkteam/aybolit-smoke/outcome"
	"github.com/networkteam/aybolit-smoke/runner"
)

const (
	// gotoTimeout is used for navigations inside checks; some pages of the site are slow.
	gotoTimeout = 45 * time.Second
	// textTimeout bounds reading the body text.
	textTimeout = 20 * time.Second
	// minBodyText is the minimum number of characters a content page must show.
	minBodyText = 200
	// maxLinks limits how many links of a footer group are inspected.
	maxLinks = 10
)

var expect = playwright.NewPlaywrightAssertions()

// gotoOK navigates page to url and soft-fails when the server answers with a 4xx or 5xx status.
// The returned bool is false when the check should return the result.
func gotoOK(page fixture.Page, url string) (outcome.Result, bool) {
	status, err := page.Navigate(url, fixture.NavigateOptions{
		Timeout:   gotoTimeout,
		WaitUntil: fixture.DefaultWaitUntil,
	})
	if err != nil {
		return outcome.Fail(fmt.Errorf("navigating to %s: %w", url, err)), false
	}
	// Status is 0 when there is no main response, e.g. for some redirects.
	if status >= 400 {
		return outcome.Softf("HTTP status %d for %s", status, url), false
	}
	return outcome.Pass(), true
}

// gotoBase navigates the case's page back to the base URL with the default options.
func gotoBase(env *runner.Env) error {
	if _, err := env.Handle.Navigate(env.BaseURL, fixture.DefaultNavigateOptions()); err != nil {
		return fmt.Errorf("navigating to %s: %w", env.BaseURL, err)
	}
	return nil
}

func bodyText(page playwright.Page) (string, error) {
	text, err := page.Locator("body").InnerText(playwright.LocatorInnerTextOptions{
		Timeout: playwright.Float(float64(textTimeout.Milliseconds())),
	})
	if err != nil {
		return "", fmt.Errorf("reading body text: %w", err)
	}
	return text, nil
}

func bodyHasEnoughText(page playwright.Page) (bool, error) {
	text, err := bodyText(page)
	if err != nil {
		return false, err
	}
	return len([]rune(strings.TrimSpace(text))) >= minBodyText, nil
}

// containsAny reports whether text contains any of the markers, ignoring case.
func containsAny(text string, markers ...string) bool {
	text = strings.ToLower(text)
	return lo.SomeBy(markers, func(m string) bool {
		return strings.Contains(text, strings.ToLower(m))
	})
}

// wordRegexp matches pattern as a whole word. RE2's \b only knows ASCII word characters,
// which is not enough for Cyrillic text.
func wordRegexp(pattern string) *regexp.Regexp {
	return regexp.MustCompile(`(?:^|[^\p{L}\p{N}_])` + pattern + `(?:$|[^\p{L}\p{N}_])`)
}

var serverErrorPatterns = []*regexp.Regexp{
	wordRegexp(`internal server error`),
	wordRegexp(`ошибка сервера`),
	wordRegexp(`server error`),
	wordRegexp(`http\s*500`),
	wordRegexp(`ошибка\s*500`),
	wordRegexp(`error\s*500`),
	wordRegexp(`код\s*500`),
	wordRegexp(`status\s*500`),
}

// looksLikeServerError reports whether a page text resembles a 500 error page.
func looksLikeServerError(text string) bool {
	text = strings.ToLower(text)
	return lo.SomeBy(serverErrorPatterns, func(re *regexp.Regexp) bool {
		return re.MatchString(text)
	})
}

func assertNoServerError(page playwright.Page) outcome.Result {
	text, err := bodyText(page)
	if err != nil {
		return outcome.Fail(err)
	}
	if looksLikeServerError(text) {
		return outcome.Failf("page looks like a 500 error page: %s", page.URL())
	}
	return outcome.Pass()
}

// attr returns the trimmed attribute value, "" if it is missing.
func attr(loc playwright.Locator, name string) (string, error) {
	v, err := loc.GetAttribute(name)
	if err != nil {
		return "", fmt.Errorf("reading %s attribute: %w", name, err)
	}
	return strings.TrimSpace(v), nil
}

func innerText(loc playwright.Locator) (string, error) {
	v, err := loc.InnerText()
	if err != nil {
		return "", fmt.Errorf("reading inner text: %w", err)
	}
	return strings.TrimSpace(v), nil
}

// hostPattern matches URLs on the host of baseURL.
func hostPattern(baseURL string) *regexp.Regexp {
	host := strings.TrimPrefix(strings.TrimPrefix(baseURL, "https://"), "http://")
	host, _, _ = strings.Cut(host, "/")
	return regexp.MustCompile(regexp.QuoteMeta(host))
}

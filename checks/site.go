package checks

import (
	"context"
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

func homePageOpens(ctx context.Context, env *runner.Env) outcome.Result {
	if res, ok := gotoOK(env.Handle, env.BaseURL); !ok {
		return res
	}
	if err := expect.Page(env.Page).ToHaveURL(hostPattern(env.BaseURL)); err != nil {
		return outcome.Fail(err)
	}

	title, err := env.Page.Title()
	if err != nil {
		return outcome.Fail(err)
	}
	if strings.TrimSpace(title) == "" {
		return outcome.Failf("home page has an empty title")
	}
	return outcome.Pass()
}

// httpsAndNoMixedContent is soft about mixed content: templates and comments often contain "http://".
func httpsAndNoMixedContent(ctx context.Context, env *runner.Env) outcome.Result {
	if res, ok := gotoOK(env.Handle, env.BaseURL); !ok {
		return res
	}
	if url := env.Handle.CurrentURL(); !strings.HasPrefix(url, "https://") {
		return outcome.Failf("home page is not served over https: %s", url)
	}

	html, err := env.Handle.Content()
	if err != nil {
		return outcome.Fail(err)
	}
	if msg, ok := lo.Find(env.Handle.Console(), isMixedContentWarning); ok {
		return outcome.Softf("browser reported mixed content: %s", msg.Text)
	}
	if strings.Contains(html, "http://") {
		return outcome.Softf("potential mixed-content reference found in HTML")
	}
	return outcome.Pass()
}

func isMixedContentWarning(m fixture.ConsoleMessage) bool {
	return strings.Contains(m.Text, "Mixed Content")
}

type menuItem struct {
	id          string
	text        string
	expectedAny []string
}

var headerMenu = []menuItem{
	{id: "complexes", text: "Комплексные исследования", expectedAny: []string{"/complexes", "complexes", "services"}},
	{id: "doctors", text: "Наши врачи", expectedAny: []string{"/doctors", "doctors", "specialist"}},
	{id: "clinics", text: "Адреса клиник", expectedAny: []string{"/clinics", "clinics", "contacts", "address"}},
}

// headerNavigationLink clicks a header menu item and expects one of the URL fragments. A missing item skips.
func headerNavigationLink(item menuItem) runner.Func {
	expected := regexp.MustCompile("(?i)" + strings.Join(lo.Map(item.expectedAny, func(s string, _ int) string {
		return regexp.QuoteMeta(s)
	}), "|"))

	return func(ctx context.Context, env *runner.Env) outcome.Result {
		if res, ok := gotoOK(env.Handle, env.BaseURL); !ok {
			return res
		}

		link := env.Page.GetByRole(*playwright.AriaRoleLink, playwright.PageGetByRoleOptions{
			Name: regexp.MustCompile("(?i)" + item.text),
		})
		count, err := link.Count()
		if err != nil {
			return outcome.Fail(err)
		}
		if count == 0 {
			return outcome.Skipf("menu link %q not found on the page", item.text)
		}

		if err := link.First().Click(playwright.LocatorClickOptions{
			Timeout: playwright.Float(30000),
		}); err != nil {
			return outcome.Fail(err)
		}
		if err := expect.Page(env.Page).ToHaveURL(expected); err != nil {
			return outcome.Fail(err)
		}
		return outcome.Pass()
	}
}

// contentPage opens path and requires a non-trivial amount of body text.
// If markers are given, at least one must appear or the check soft-fails.
func contentPage(path string, markers ...string) runner.Func {
	return func(ctx context.Context, env *runner.Env) outcome.Result {
		if res, ok := gotoOK(env.Handle, env.URL(path)); !ok {
			return res
		}

		enough, err := bodyHasEnoughText(env.Page)
		if err != nil {
			return outcome.Fail(err)
		}
		if !enough {
			return outcome.Failf("%s shows less than %d characters of text", path, minBodyText)
		}
		if len(markers) == 0 {
			return outcome.Pass()
		}

		body, err := bodyText(env.Page)
		if err != nil {
			return outcome.Fail(err)
		}
		if !containsAny(body, markers...) {
			return outcome.Softf("%s markers not found in text", path)
		}
		return outcome.Pass()
	}
}

func appointmentPageOpens(ctx context.Context, env *runner.Env) outcome.Result {
	if res, ok := gotoOK(env.Handle, env.URL("/zapis")); !ok {
		return res
	}
	if env.Handle.CurrentURL() == "" {
		return outcome.Failf("appointment page has no URL")
	}
	return outcome.Pass()
}

var submitLikeButton = regexp.MustCompile(`(?i)(запис|отправ|заявк|ок|submit)`)

func emptyFormValidation(ctx context.Context, env *runner.Env) outcome.Result {
	if res, ok := gotoOK(env.Handle, env.URL("/zapis")); !ok {
		return res
	}

	btn := env.Page.GetByRole(*playwright.AriaRoleButton, playwright.PageGetByRoleOptions{
		Name: submitLikeButton,
	})
	count, err := btn.Count()
	if err != nil {
		return outcome.Fail(err)
	}
	if count == 0 {
		return outcome.Skipf("no submit-like button found on appointment page")
	}

	if err := btn.First().Click(); err != nil {
		return outcome.Fail(err)
	}

	body, err := bodyText(env.Page)
	if err != nil {
		return outcome.Fail(err)
	}
	if !containsAny(body, "обяз", "заполн", "ошиб", "некоррект") {
		return outcome.Softf("validation message not detected after empty submit")
	}
	return outcome.Pass()
}

// notFoundPageBehavior is soft: the site may redirect unknown paths to the home or search page.
func notFoundPageBehavior(ctx context.Context, env *runner.Env) outcome.Result {
	if res, ok := gotoOK(env.Handle, env.URL("/this-page-does-not-exist-xyz")); !ok {
		return res
	}

	body, err := bodyText(env.Page)
	if err != nil {
		return outcome.Fail(err)
	}
	if !containsAny(body, "404", "не найден", "ошибка", "страница не существует") {
		return outcome.Softf("404 markers not detected")
	}
	return outcome.Pass()
}

func footerHasContacts(ctx context.Context, env *runner.Env) outcome.Result {
	if res, ok := gotoOK(env.Handle, env.BaseURL); !ok {
		return res
	}

	footer := env.Page.Locator("footer")
	if err := expect.Locator(footer).ToBeVisible(); err != nil {
		return outcome.Failf("footer is not visible: %w", err)
	}

	text, err := footer.InnerText()
	if err != nil {
		return outcome.Fail(err)
	}
	if !containsAny(text, "тел", "+7", "контакт", "адрес", "@") {
		return outcome.Softf("footer contact markers not found")
	}
	return outcome.Pass()
}

var contactsPaths = []string{"/contacts", "/contact", "/kontakty"}

// contactsPage tries the usual contact page paths and skips if none of them exists.
func contactsPage(ctx context.Context, env *runner.Env) outcome.Result {
	opened := false
	for _, path := range contactsPaths {
		status, err := env.Handle.Navigate(env.URL(path), fixture.NavigateOptions{
			Timeout:   20 * time.Second,
			WaitUntil: fixture.DefaultWaitUntil,
		})
		if err != nil {
			return outcome.Fail(err)
		}
		if status != 0 && status < 400 {
			opened = true
			break
		}
	}
	if !opened {
		return outcome.Skipf("contacts page not found by common URLs")
	}

	enough, err := bodyHasEnoughText(env.Page)
	if err != nil {
		return outcome.Fail(err)
	}
	if !enough {
		return outcome.Failf("contacts page shows less than %d characters of text", minBodyText)
	}
	return outcome.Pass()
}

// robotsAndSitemap requests both files through the page's request context, sharing its cookies.
func robotsAndSitemap(ctx context.Context, env *runner.Env) outcome.Result {
	for _, path := range []string{"/robots.txt", "/sitemap.xml"} {
		resp, err := env.Page.Request().Get(env.URL(path))
		if err != nil {
			return outcome.Fail(fmt.Errorf("requesting %s: %w", path, err))
		}
		status := resp.Status()
		_ = resp.Dispose()
		if status >= 400 {
			return outcome.Softf("%s missing (status %d)", strings.TrimPrefix(path, "/"), status)
		}
	}
	return outcome.Pass()
}

// accountURL returns the personal account site, the "lk." subdomain of the base URL.
func accountURL(baseURL string) string {
	scheme, host, found := strings.Cut(baseURL, "://")
	if !found {
		return "https://lk." + baseURL
	}
	return scheme + "://lk." + host
}

// accountPageHasLoginMarkers opens the personal account site in its own session.
func accountPageHasLoginMarkers(ctx context.Context, env *runner.Env) outcome.Result {
	session, err := env.NewSession()
	if err != nil {
		return outcome.Fail(err)
	}
	page, err := session.NewPage()
	if err != nil {
		return outcome.Fail(err)
	}

	if res, ok := gotoOK(page, accountURL(env.BaseURL)); !ok {
		return res
	}

	body, err := bodyText(page.Playwright())
	if err != nil {
		return outcome.Fail(err)
	}
	if !containsAny(body, "вход", "авториза", "логин", "парол", "номер", "телефон") {
		return outcome.Softf("login markers not detected on account page")
	}
	return outcome.Pass()
}

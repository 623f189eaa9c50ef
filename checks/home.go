package checks

import (
	"context"
	"regexp"
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/networkteam/aybolit-smoke/fixture"
	"github.com/networkteam/aybolit-smoke/outcome"
	"github.com/networkteam/aybolit-smoke/runner"
)

// accountAppointmentPattern matches the booking form on the personal account site of baseURL.
func accountAppointmentPattern(baseURL string) *regexp.Regexp {
	_, host, _ := strings.Cut(accountURL(baseURL), "://")
	return regexp.MustCompile(regexp.QuoteMeta(host) + `.*zapis`)
}

// addressesAndScheduleVisible checks that the "addresses and opening hours" block is visible and not empty.
func addressesAndScheduleVisible(ctx context.Context, env *runner.Env) outcome.Result {
	if err := gotoBase(env); err != nil {
		return outcome.Fail(err)
	}

	block := env.Page.GetByText("Адреса и режимы", playwright.PageGetByTextOptions{
		Exact: playwright.Bool(false),
	}).Locator("xpath=ancestor::*[1]")

	if err := expect.Locator(block).ToBeVisible(); err != nil {
		return outcome.Failf("addresses block is not visible: %w", err)
	}

	text, err := innerText(block)
	if err != nil {
		return outcome.Fail(err)
	}
	if !strings.Contains(text, "работы наших медицинских центров") {
		return outcome.Failf("addresses block lacks the opening hours text: %q", text)
	}
	return outcome.Pass()
}

// onlineAppointmentLinkOpensPage checks the online booking teaser and that the booking page is reachable.
func onlineAppointmentLinkOpensPage(ctx context.Context, env *runner.Env) outcome.Result {
	if err := gotoBase(env); err != nil {
		return outcome.Fail(err)
	}

	teaser := env.Page.GetByText("Запись на прием", playwright.PageGetByTextOptions{
		Exact: playwright.Bool(false),
	})
	if err := expect.Locator(teaser.First()).ToBeVisible(); err != nil {
		return outcome.Failf("appointment teaser is not visible: %w", err)
	}

	if _, err := env.Handle.Navigate(env.URL("/appointment/"), fixture.DefaultNavigateOptions()); err != nil {
		return outcome.Fail(err)
	}

	current := env.Handle.CurrentURL()
	if !strings.Contains(current, "/appointment") && !accountAppointmentPattern(env.BaseURL).MatchString(current) {
		return outcome.Failf("unexpected appointment page URL: %q", current)
	}
	return outcome.Pass()
}

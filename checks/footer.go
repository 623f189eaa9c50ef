package checks

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/networkteam/aybolit-smoke/outcome"
	"github.com/networkteam/aybolit-smoke/runner"
)

var (
	phoneHref = regexp.MustCompile(`^tel:\+?7\d{10}$`)
	emailHref = regexp.MustCompile(`^mailto:[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// visibleFooter waits for the site footer to become visible.
func visibleFooter(page playwright.Page) (playwright.Locator, error) {
	footer := page.Locator("footer.footer")
	err := footer.WaitFor(playwright.LocatorWaitForOptions{
		State: playwright.WaitForSelectorStateVisible,
	})
	if err != nil {
		return nil, fmt.Errorf("footer is not visible: %w", err)
	}
	return footer, nil
}

// footerPhonesFormat checks that footer phones are clickable tel: links in +7XXXXXXXXXX format.
func footerPhonesFormat(ctx context.Context, env *runner.Env) outcome.Result {
	footer, err := visibleFooter(env.Page)
	if err != nil {
		return outcome.Fail(err)
	}

	links := footer.Locator(`.footer__phones a.footer__phone_number[href^="tel:"]`)
	count, err := links.Count()
	if err != nil {
		return outcome.Fail(err)
	}
	if count == 0 {
		return outcome.Failf("no tel: links in .footer__phones")
	}

	for i := 0; i < min(count, maxLinks); i++ {
		a := links.Nth(i)

		href, err := attr(a, "href")
		if err != nil {
			return outcome.Fail(err)
		}
		if href == "" || href == "#" {
			return outcome.Failf("invalid phone href: %q", href)
		}
		if !phoneHref.MatchString(href) {
			return outcome.Failf("phone href is not tel:+7XXXXXXXXXX: %s", href)
		}

		text, err := innerText(a)
		if err != nil {
			return outcome.Fail(err)
		}
		if !strings.HasPrefix(text, "+7") {
			return outcome.Failf("phone text does not start with +7: %q", text)
		}
	}
	return outcome.Pass()
}

// footerSocialLinksExternal checks that footer social links exist and point to other sites.
func footerSocialLinksExternal(ctx context.Context, env *runner.Env) outcome.Result {
	footer, err := visibleFooter(env.Page)
	if err != nil {
		return outcome.Fail(err)
	}

	links := footer.Locator(".footer__social .social__links a.social_links_item")
	count, err := links.Count()
	if err != nil {
		return outcome.Fail(err)
	}
	if count == 0 {
		return outcome.Failf("no social links block (.footer__social .social__links) in footer")
	}

	for i := 0; i < min(count, maxLinks); i++ {
		href, err := attr(links.Nth(i), "href")
		if err != nil {
			return outcome.Fail(err)
		}
		if href == "" || href == "#" {
			return outcome.Failf("empty social link href: %q", href)
		}
		if !strings.HasPrefix(href, "https://") && !strings.HasPrefix(href, "http://") {
			return outcome.Failf("social link is not external: %s", href)
		}
	}
	return outcome.Pass()
}

// footerEmailsFormat checks that footer e-mail links are clickable mailto: links with a readable address.
func footerEmailsFormat(ctx context.Context, env *runner.Env) outcome.Result {
	footer, err := visibleFooter(env.Page)
	if err != nil {
		return outcome.Fail(err)
	}

	links := footer.Locator(`a[href^="mailto:"]`)
	count, err := links.Count()
	if err != nil {
		return outcome.Fail(err)
	}
	if count == 0 {
		return outcome.Failf("no mailto: links in footer")
	}

	for i := 0; i < min(count, maxLinks); i++ {
		a := links.Nth(i)

		href, err := attr(a, "href")
		if err != nil {
			return outcome.Fail(err)
		}
		if href == "" || href == "#" {
			return outcome.Failf("invalid e-mail href: %q", href)
		}
		if !emailHref.MatchString(href) {
			return outcome.Failf("e-mail href is not mailto:user@example.com: %s", href)
		}

		text, err := innerText(a)
		if err != nil {
			return outcome.Fail(err)
		}
		if text == "" {
			return outcome.Failf("e-mail link has no text: href=%q", href)
		}
		if !strings.Contains(text, "@") {
			return outcome.Failf("e-mail link text does not look like an address: %q", text)
		}
	}
	return outcome.Pass()
}

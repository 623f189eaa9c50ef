// Package checks contains the smoke checks for the mc-aybolit.ru site.
package checks

import (
	"strings"

	"github.com/networkteam/aybolit-smoke/runner"
)

// All returns every check in execution order.
func All() []runner.Case {
	cases := []runner.Case{
		{Name: "addresses_and_schedule_section_visible", Needs: runner.NeedsPage, Func: addressesAndScheduleVisible},
		{Name: "online_appointment_link_opens_page", Needs: runner.NeedsPage, Func: onlineAppointmentLinkOpensPage},
		{Name: "g7_h8_01_phones_format_and_clickable", Needs: runner.NeedsPage, Func: footerPhonesFormat},
		{Name: "g7_h8_03_social_links_are_external_and_not_empty", Needs: runner.NeedsPage, Func: footerSocialLinksExternal},
		{Name: "g7_h8_04_footer_emails_format_and_clickable", Needs: runner.NeedsPage, Func: footerEmailsFormat},
		{Name: "01_home_page_opens", Needs: runner.NeedsPage, Func: homePageOpens},
		{Name: "02_https_and_no_mixed_content", Needs: runner.NeedsPage, Func: httpsAndNoMixedContent},
	}
	for _, item := range headerMenu {
		cases = append(cases, runner.Case{
			Name:  "03_header_navigation_links[" + item.id + "]",
			Needs: runner.NeedsPage,
			Func:  headerNavigationLink(item),
		})
	}
	cases = append(cases,
		runner.Case{Name: "04_services_page_has_content", Needs: runner.NeedsPage, Func: contentPage("/uslugi")},
		runner.Case{Name: "05_doctors_page_has_content", Needs: runner.NeedsPage, Func: contentPage("/doctors", "врач", "специалист", "доктор")},
		runner.Case{Name: "06_clinics_page_has_content", Needs: runner.NeedsPage, Func: contentPage("/clinics", "адрес", "клиник", "филиал", "контакт")},
		runner.Case{Name: "07_appointment_page_opens", Needs: runner.NeedsPage, Func: appointmentPageOpens},
		runner.Case{Name: "08_empty_form_validation_soft", Needs: runner.NeedsPage, Func: emptyFormValidation},
		runner.Case{Name: "09_404_page_behavior_soft", Needs: runner.NeedsPage, Func: notFoundPageBehavior},
		runner.Case{Name: "10_footer_visible_and_has_contacts", Needs: runner.NeedsPage, Func: footerHasContacts},
		runner.Case{Name: "11_contacts_page_soft", Needs: runner.NeedsPage, Func: contactsPage},
		runner.Case{Name: "12_robots_and_sitemap_exist_soft", Needs: runner.NeedsPage, Func: robotsAndSitemap},
		runner.Case{Name: "13_lk_page_opens_and_has_login_markers_soft", Needs: runner.NeedsBrowser, Func: accountPageHasLoginMarkers},
		runner.Case{Name: "g8_h9_01_search_positive_redirects_to_search_page", Needs: runner.NeedsPage, Func: searchPositiveRedirectsToResults},
		runner.Case{Name: "g8_h9_02_clear_search_input", Needs: runner.NeedsPage, Func: searchClearInput},
		runner.Case{Name: "g8_h9_03_empty_query_submit_no_crash", Needs: runner.NeedsPage, Func: searchQueryNoCrash("", onHomePage)},
		runner.Case{Name: "g8_h9_04_special_chars_query_no_crash", Needs: runner.NeedsPage, Func: searchQueryNoCrash("!@#$%", onSite)},
		runner.Case{Name: "g8_h9_05_long_query_300_plus_no_ui_break", Needs: runner.NeedsPage, Func: searchQueryNoCrash(strings.Repeat("a", 320), onSite)},
	)
	return cases
}

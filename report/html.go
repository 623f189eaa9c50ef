package report

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/a-h/templ"

	"github.com/networkteam/aybolit-smoke/artifact"
	"github.com/networkteam/aybolit-smoke/fixture"
	"github.com/networkteam/aybolit-smoke/outcome"
	"github.com/networkteam/aybolit-smoke/runner"
)

const pageCSS = `body{font-family:sans-serif;margin:2em}table{border-collapse:collapse}td,th{padding:.3em .6em;border-bottom:1px solid #ddd;text-align:left;vertical-align:top}.passed{color:#1a7f37}.failed{color:#cf222e}.xfailed{color:#9a6700}.skipped{color:#57606a}img{max-width:640px;border:1px solid #ddd}`

// WriteHTML renders the report to path. Screenshot links are relative to the report's directory.
func WriteHTML(ctx context.Context, path string, r *runner.Report, artifacts []artifact.Artifact) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	defer f.Close()

	if err := Page(r, artifacts, filepath.Dir(path)).Render(ctx, f); err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}
	return f.Close()
}

// Page renders a standalone HTML page for the report.
func Page(r *runner.Report, artifacts []artifact.Artifact, linkBase string) templ.Component {
	byTest := make(map[string]artifact.Artifact, len(artifacts))
	for _, a := range artifacts {
		byTest[a.TestID] = a
	}

	sections := []templ.Component{
		pageHead(r),
		text(`<body>`),
		runSummary(r),
		casesTable(r.Cases),
	}
	for _, cr := range r.Cases {
		if cr.Status != outcome.StatusFailed && cr.Status != outcome.StatusXFailed {
			continue
		}
		if a, ok := byTest[cr.Name]; ok {
			sections = append(sections, failureSection(cr, a, linkBase))
		}
	}
	sections = append(sections, text(`</body></html>`))

	return join(sections...)
}

func pageHead(r *runner.Report) templ.Component {
	return join(
		textf(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>Smoke run %s</title>`, r.RunID.String()),
		text(`<style>`+pageCSS+`</style>`),
		chromaStyles(),
		text(`</head>`),
	)
}

func runSummary(r *runner.Report) templ.Component {
	sections := []templ.Component{
		textf(`<h1>Smoke run against %s</h1>`, r.BaseURL),
		textf(`<p>Run %s started %s, took %s: <strong>%s</strong></p>`,
			r.RunID.String(), r.StartedAt.Format("2006-01-02 15:04:05"), formatDuration(r.Duration()), Counts(r)),
	}
	if r.Aborted != nil {
		sections = append(sections, textf(`<p class="failed">Run aborted: %s</p>`, r.Aborted.Error()))
	}
	return join(sections...)
}

func casesTable(cases []runner.CaseReport) templ.Component {
	rows := []templ.Component{
		text(`<table><thead><tr><th>Case</th><th>Status</th><th>Phase</th><th>Duration</th><th>Message</th></tr></thead><tbody>`),
	}
	for _, cr := range cases {
		rows = append(rows, caseRow(cr))
	}
	rows = append(rows, text(`</tbody></table>`))
	return join(rows...)
}

func caseRow(cr runner.CaseReport) templ.Component {
	status := string(cr.Status)
	return textf(`<tr><td>%s</td><td class="%s">%s</td><td>%s</td><td>%s</td><td>%s</td></tr>`,
		cr.Name, status, status, string(cr.Phase), formatDuration(cr.Duration), cr.Message)
}

func failureSection(cr runner.CaseReport, a artifact.Artifact, linkBase string) templ.Component {
	sections := []templ.Component{
		textf(`<h2 id="%s">%s</h2>`, cr.Name, cr.Name),
		textf(`<p>%s at <a href="%s">%s</a></p>`, cr.Message, a.PageURL, a.PageURL),
		screenshot(cr.Name, a.Path, linkBase),
	}
	if len(a.Console) > 0 {
		sections = append(sections, consoleList(a.Console))
	}
	if a.Source != "" {
		sections = append(sections, text(`<details><summary>Page source</summary>`), highlightHTML(a.Source), text(`</details>`))
	}
	return join(sections...)
}

func screenshot(name, path, linkBase string) templ.Component {
	href := path
	if rel, err := filepath.Rel(linkBase, path); err == nil {
		href = filepath.ToSlash(rel)
	}
	safe := string(templ.URL(href))
	return textf(`<a href="%s"><img src="%s" alt="screenshot of %s"></a>`, safe, safe, name)
}

func consoleList(messages []fixture.ConsoleMessage) templ.Component {
	items := []templ.Component{text(`<details><summary>Browser console</summary><ul class="console">`)}
	for _, m := range messages {
		items = append(items, textf(`<li><code>[%s]</code> %s</li>`, m.Type, m.Text))
	}
	items = append(items, text(`</ul></details>`))
	return join(items...)
}

// text writes trusted markup as is.
func text(markup string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, markup)
		return err
	})
}

// textf formats markup, escaping every argument.
func textf(format string, args ...string) templ.Component {
	escaped := make([]any, len(args))
	for i, a := range args {
		escaped[i] = templ.EscapeString(a)
	}
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, format, escaped...)
		return err
	})
}

// join renders components one after another and stops at the first error.
func join(components ...templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		for _, c := range components {
			if err := c.Render(ctx, w); err != nil {
				return err
			}
		}
		return nil
	})
}

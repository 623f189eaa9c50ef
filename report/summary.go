// Package report renders the outcome of a run as a console summary and an HTML page.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/networkteam/aybolit-smoke/artifact"
	"github.com/networkteam/aybolit-smoke/outcome"
	"github.com/networkteam/aybolit-smoke/runner"
)

// WriteSummary writes one line per case that did not pass, the saved screenshots and a
// final count line.
func WriteSummary(w io.Writer, r *runner.Report, artifacts []artifact.Artifact) error {
	var b strings.Builder

	for _, cr := range r.Cases {
		if cr.Status == outcome.StatusPassed {
			continue
		}
		fmt.Fprintf(&b, "%-7s %s", statusLabel(cr.Status), cr.Name)
		if cr.Status.Failed() && cr.Phase != outcome.PhaseCall {
			fmt.Fprintf(&b, " (%s)", cr.Phase)
		}
		if cr.Message != "" {
			fmt.Fprintf(&b, " - %s", firstLine(cr.Message))
		}
		b.WriteString("\n")
	}

	for _, a := range artifacts {
		fmt.Fprintf(&b, "screenshot %s\n", a.Path)
	}
	if r.Aborted != nil {
		fmt.Fprintf(&b, "ABORTED %v\n", r.Aborted)
	}

	fmt.Fprintf(&b, "== %s in %s ==\n", Counts(r), r.Duration().Round(10*time.Millisecond))

	_, err := io.WriteString(w, b.String())
	return err
}

// Counts formats the status counts like "3 passed, 1 failed, 2 xfailed".
// Statuses without cases are left out.
func Counts(r *runner.Report) string {
	statuses := []outcome.Status{outcome.StatusPassed, outcome.StatusFailed, outcome.StatusXFailed, outcome.StatusSkipped}
	parts := lo.FilterMap(statuses, func(s outcome.Status, _ int) (string, bool) {
		n := r.Count(s)
		return fmt.Sprintf("%d %s", n, s), n > 0
	})
	if len(parts) == 0 {
		return "no cases ran"
	}
	return strings.Join(parts, ", ")
}

func statusLabel(s outcome.Status) string {
	switch s {
	case outcome.StatusFailed:
		return "FAILED"
	case outcome.StatusXFailed:
		return "XFAIL"
	case outcome.StatusSkipped:
		return "SKIPPED"
	default:
		return "PASSED"
	}
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

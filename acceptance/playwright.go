//go:build acceptance
// +build acceptance

// Package acceptance runs the smoke checks with a real browser as go tests.
package acceptance

import (
	"context"
	"testing"

	smoke "github.com/networkteam/aybolit-smoke"
	"github.com/networkteam/aybolit-smoke/outcome"
	"github.com/networkteam/aybolit-smoke/runner"
)

// NewInstance creates a smoke instance configured from the environment.
// Set HEADLESS=0 to watch the browser while debugging.
func NewInstance(modify ...func(*smoke.Options)) (*smoke.Instance, error) {
	opts, err := smoke.OptionsFromEnv()
	if err != nil {
		return nil, err
	}
	opts.ReportPath = "-"
	for _, m := range modify {
		m(&opts)
	}
	return smoke.NewWithOptions(opts)
}

// RunCase runs c inside t. A hard failure fails t, a soft failure is logged as an
// expected failure and a skipped check skips t.
func RunCase(t *testing.T, inst *smoke.Instance, c runner.Case) {
	t.Helper()

	cr, err := inst.Runner().RunCase(context.Background(), c)
	if err != nil {
		t.Fatalf("browser run aborted: %v", err)
	}

	switch cr.Status {
	case outcome.StatusFailed:
		t.Fatalf("%s failed in %s: %s", c.Name, cr.Phase, cr.Message)
	case outcome.StatusXFailed:
		t.Logf("XFAIL %s: %s", c.Name, cr.Message)
	case outcome.StatusSkipped:
		t.Skip(cr.Message)
	}
}

//go:build acceptance
// +build acceptance

package acceptance

import (
	"log"
	"os"
	"testing"

	"github.com/playwright-community/playwright-go"

	smoke "github.com/networkteam/aybolit-smoke"
)

var suite *smoke.Instance

// TestMain installs Playwright browsers and shares one browser run between all tests.
func TestMain(m *testing.M) {
	if err := playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
		log.Fatalf("could not install playwright: %v", err)
	}

	inst, err := NewInstance()
	if err != nil {
		log.Fatalf("could not create smoke instance: %v", err)
	}
	suite = inst

	code := m.Run()
	if err := suite.Close(); err != nil {
		log.Printf("closing smoke instance: %v", err)
	}
	os.Exit(code)
}

func TestSmoke(t *testing.T) {
	for _, c := range suite.Cases() {
		t.Run(c.Name, func(t *testing.T) {
			RunCase(t, suite, c)
		})
	}

	stats := suite.Stats()
	if stats.Launches > 1 {
		t.Errorf("expected a single browser launch, got %d", stats.Launches)
	}
	if stats.MaxConcurrentSessions > 1 {
		t.Errorf("expected one session at a time, got %d", stats.MaxConcurrentSessions)
	}
}

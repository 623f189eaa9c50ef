// Package config loads the smoke suite settings from an optional YAML file and the environment.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/networkteam/aybolit-smoke/artifact"
	"github.com/networkteam/aybolit-smoke/fixture"
)

// DefaultBaseURL is the production site.
const DefaultBaseURL = "https://mc-aybolit.ru"

// Environment variables read by FromEnv.
const (
	EnvBaseURL      = "BASE_URL"
	EnvHeadless     = "HEADLESS"
	EnvBrowser      = "BROWSER"
	EnvArtifactsDir = "ARTIFACTS_DIR"
	EnvInstall      = "PLAYWRIGHT_INSTALL"
)

// Config holds the settings of a run.
type Config struct {
	// BaseURL is stored without a trailing slash.
	BaseURL string `yaml:"baseURL"`
	// Headless is true unless HEADLESS is "0".
	Headless     bool   `yaml:"headless"`
	Browser      string `yaml:"browser"`
	ArtifactsDir string `yaml:"artifactsDir"`
	// Install downloads Playwright browsers before the run.
	Install bool `yaml:"install"`
	// CaptureSoftFailures also screenshots xfailed checks.
	CaptureSoftFailures bool `yaml:"captureSoftFailures"`
	// Run selects cases by glob pattern.
	Run string `yaml:"run"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		BaseURL:      DefaultBaseURL,
		Headless:     true,
		Browser:      fixture.DefaultBrowser,
		ArtifactsDir: artifact.DefaultDir,
	}
}

// FromEnv returns the defaults overridden by the process environment.
func FromEnv() Config {
	cfg := Default()
	cfg.ApplyEnv(os.LookupEnv)
	return cfg
}

// Load reads a YAML file over the defaults and then applies the environment.
// An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvBaseURL); ok && v != "" {
		c.BaseURL = v
	}
	if v, ok := lookup(EnvHeadless); ok {
		c.Headless = v != "0"
	}
	if v, ok := lookup(EnvBrowser); ok && v != "" {
		c.Browser = v
	}
	if v, ok := lookup(EnvArtifactsDir); ok && v != "" {
		c.ArtifactsDir = v
	}
	if v, ok := lookup(EnvInstall); ok {
		c.Install = v == "1" || strings.EqualFold(v, "true")
	}
	c.BaseURL = NormalizeBaseURL(c.BaseURL)
}

// Validate checks that the configuration can be used for a run.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL must not be empty")
	}
	switch c.Browser {
	case "chromium", "firefox", "webkit":
	default:
		return fmt.Errorf("unsupported browser %q", c.Browser)
	}
	return nil
}

// LaunchOptions returns the browser launch options for the config.
func (c Config) LaunchOptions() fixture.LaunchOptions {
	return fixture.LaunchOptions{
		Headless: c.Headless,
		Browser:  c.Browser,
	}
}

// NormalizeBaseURL strips trailing slashes.
func NormalizeBaseURL(u string) string {
	return strings.TrimRight(strings.TrimSpace(u), "/")
}

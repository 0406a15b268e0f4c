// Package config loads page check settings from the environment and an
// optional .env file at the project root.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"

	"dev/bravebird/jira-diff-pagecheck/pkg/browser"
	"dev/bravebird/jira-diff-pagecheck/pkg/env"
	"dev/bravebird/jira-diff-pagecheck/pkg/pages"
)

// Prefix is prepended to every variable name, e.g. PAGECHECK_DRIVER. Only
// the prefixed names are read, apart from the CHROME_BIN fallback.
const Prefix = "pagecheck"

// Browser lifecycles.
const (
	// LifecycleSession shares one browser across a test binary.
	LifecycleSession = "session"
	// LifecycleIsolated launches a browser per test.
	LifecycleIsolated = "isolated"
)

// Config holds the harness and CLI settings.
type Config struct {
	Driver            string        `split_words:"true" default:"rod"`
	Headless          bool          `split_words:"true" default:"true"`
	IgnoreHTTPSErrors bool          `split_words:"true" default:"true"`
	Timeout           time.Duration `split_words:"true" default:"5s"`
	// ChromeBin reads PAGECHECK_CHROME_BIN, then CHROME_BIN.
	ChromeBin     string `split_words:"true"`
	TargetURL     string `split_words:"true"`
	Lifecycle     string `split_words:"true" default:"session"`
	Revision      string `split_words:"true" default:"titled"`
	ScreenshotDir string `split_words:"true" default:"/tmp/screenshots"`
	HistoryDB     string `split_words:"true" default:"pagecheck.db"`
	LogLevel      string `split_words:"true" default:"info"`
}

// Load reads <project root>/.env if present and then the environment.
// Variables already set in the environment win over the file.
func Load() (*Config, error) {
	return LoadFile(filepath.Join(env.ProjectRoot(), ".env"))
}

// LoadFile is Load with an explicit .env path. A missing file is ignored.
func LoadFile(path string) (*Config, error) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	if cfg.ChromeBin == "" {
		cfg.ChromeBin = os.Getenv("CHROME_BIN")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings no component can act on.
func (c *Config) Validate() error {
	var errs []error

	if _, err := browser.NewLauncher(c.Driver, nil); err != nil {
		errs = append(errs, err)
	}
	switch c.Lifecycle {
	case LifecycleSession, LifecycleIsolated:
	default:
		errs = append(errs, fmt.Errorf("unknown lifecycle %q (want %s or %s)", c.Lifecycle, LifecycleSession, LifecycleIsolated))
	}
	if _, err := pages.ParseRevision(c.Revision); err != nil {
		errs = append(errs, err)
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %s", c.Timeout))
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("invalid log level %q", c.LogLevel))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// BrowserOptions converts the settings into launch options.
func (c *Config) BrowserOptions() browser.Options {
	return browser.Options{
		Headless:          c.Headless,
		IgnoreHTTPSErrors: c.IgnoreHTTPSErrors,
		Timeout:           c.Timeout,
		Bin:               c.ChromeBin,
	}
}

// URL returns the configured target or the local index page.
func (c *Config) URL() string {
	if c.TargetURL != "" {
		return c.TargetURL
	}
	return env.WebIndexURL()
}

// PageRevision returns the parsed revision. Call after Validate.
func (c *Config) PageRevision() pages.Revision {
	rev, err := pages.ParseRevision(c.Revision)
	if err != nil {
		return pages.RevisionTitled
	}
	return rev
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dev/bravebird/jira-diff-pagecheck/pkg/env"
	"dev/bravebird/jira-diff-pagecheck/pkg/pages"
)

var vars = []string{
	"PAGECHECK_DRIVER",
	"PAGECHECK_HEADLESS",
	"PAGECHECK_IGNORE_HTTPS_ERRORS",
	"PAGECHECK_TIMEOUT",
	"PAGECHECK_CHROME_BIN",
	"CHROME_BIN",
	"PAGECHECK_TARGET_URL",
	"PAGECHECK_LIFECYCLE",
	"PAGECHECK_REVISION",
	"PAGECHECK_SCREENSHOT_DIR",
	"PAGECHECK_HISTORY_DB",
	"PAGECHECK_LOG_LEVEL",
}

// clearEnv unsets every variable Load reads and restores them after the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, v := range vars {
		t.Setenv(v, "")
		require.NoError(t, os.Unsetenv(v))
	}
}

func noDotenv(t *testing.T) string {
	return filepath.Join(t.TempDir(), ".env")
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFile(noDotenv(t))
	require.NoError(t, err)

	assert.Equal(t, &Config{
		Driver:            "rod",
		Headless:          true,
		IgnoreHTTPSErrors: true,
		Timeout:           5 * time.Second,
		Lifecycle:         LifecycleSession,
		Revision:          "titled",
		ScreenshotDir:     "/tmp/screenshots",
		HistoryDB:         "pagecheck.db",
		LogLevel:          "info",
	}, cfg)
	assert.Equal(t, env.WebIndexURL(), cfg.URL())
	assert.Equal(t, pages.RevisionTitled, cfg.PageRevision())
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PAGECHECK_DRIVER", "static")
	t.Setenv("PAGECHECK_HEADLESS", "false")
	t.Setenv("PAGECHECK_IGNORE_HTTPS_ERRORS", "false")
	t.Setenv("PAGECHECK_TIMEOUT", "750ms")
	t.Setenv("PAGECHECK_TARGET_URL", "file:///tmp/index.html")
	t.Setenv("PAGECHECK_LIFECYCLE", "isolated")
	t.Setenv("PAGECHECK_REVISION", "hero")
	t.Setenv("PAGECHECK_LOG_LEVEL", "debug")

	cfg, err := LoadFile(noDotenv(t))
	require.NoError(t, err)

	assert.Equal(t, "static", cfg.Driver)
	assert.Equal(t, LifecycleIsolated, cfg.Lifecycle)
	assert.Equal(t, "file:///tmp/index.html", cfg.URL())
	assert.Equal(t, pages.RevisionHero, cfg.PageRevision())

	opts := cfg.BrowserOptions()
	assert.False(t, opts.Headless)
	assert.False(t, opts.IgnoreHTTPSErrors)
	assert.Equal(t, 750*time.Millisecond, opts.Timeout)
}

func TestChromeBinFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHROME_BIN", "/usr/bin/chromium")

	cfg, err := LoadFile(noDotenv(t))
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/chromium", cfg.BrowserOptions().Bin)

	t.Setenv("PAGECHECK_CHROME_BIN", "/opt/chrome/chrome")
	cfg, err = LoadFile(noDotenv(t))
	require.NoError(t, err)
	assert.Equal(t, "/opt/chrome/chrome", cfg.ChromeBin)
}

func TestLoadDotenv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PAGECHECK_DRIVER", "playwright")

	path := filepath.Join(t.TempDir(), ".env")
	content := strings.Join([]string{
		"PAGECHECK_DRIVER=static",
		"PAGECHECK_REVISION=hero",
		"PAGECHECK_SCREENSHOT_DIR=/var/tmp/shots",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "playwright", cfg.Driver, "environment wins over .env")
	assert.Equal(t, "hero", cfg.Revision)
	assert.Equal(t, "/var/tmp/shots", cfg.ScreenshotDir)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr string
	}{
		{name: "driver", key: "PAGECHECK_DRIVER", value: "selenium", wantErr: "unknown browser driver"},
		{name: "lifecycle", key: "PAGECHECK_LIFECYCLE", value: "module", wantErr: `unknown lifecycle "module"`},
		{name: "revision", key: "PAGECHECK_REVISION", value: "legacy", wantErr: `unknown revision "legacy"`},
		{name: "timeout", key: "PAGECHECK_TIMEOUT", value: "0s", wantErr: "timeout must be positive"},
		{name: "log level", key: "PAGECHECK_LOG_LEVEL", value: "loud", wantErr: `invalid log level "loud"`},
		{name: "unparsable timeout", key: "PAGECHECK_TIMEOUT", value: "soon", wantErr: "failed to read environment"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := LoadFile(noDotenv(t))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateCollectsErrors(t *testing.T) {
	cfg := &Config{Driver: "nope", Lifecycle: "nope", Revision: "nope", LogLevel: "info"}

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"unknown browser driver", "unknown lifecycle", "unknown revision", "timeout must be positive"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestLoadIgnoresUnprefixedNames(t *testing.T) {
	clearEnv(t)
	t.Setenv("DRIVER", "playwright")
	t.Setenv("TIMEOUT", "30")
	t.Setenv("REVISION", "hero")
	t.Setenv("LIFECYCLE", "isolated")
	t.Setenv("LOG_LEVEL", "loud")
	t.Setenv("TARGET_URL", "https://elsewhere.example/")
	t.Setenv("HEADLESS", "false")

	cfg, err := LoadFile(noDotenv(t))
	require.NoError(t, err)

	assert.Equal(t, "rod", cfg.Driver)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, "titled", cfg.Revision)
	assert.Equal(t, LifecycleSession, cfg.Lifecycle)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.Headless)
	assert.Equal(t, env.WebIndexURL(), cfg.URL())
}

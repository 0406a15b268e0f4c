// Package harness wires browser sessions into go test. A test binary picks
// one lifecycle from configuration: a session shared by every test in the
// binary, or a fresh browser per test. Either way a test that fails leaves a
// screenshot behind when the driver can take one.
package harness

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"

	"dev/bravebird/jira-diff-pagecheck/pkg/browser"
	"dev/bravebird/jira-diff-pagecheck/pkg/config"
	"dev/bravebird/jira-diff-pagecheck/pkg/logging"
)

var (
	setupMu sync.Mutex
	cfg     *config.Config
	logger  *logrus.Logger

	sessionMu sync.Mutex
	shared    browser.Session
	launchErr error

	newLauncher = browser.NewLauncher
)

// Main runs the tests and then closes the shared session. Call it from TestMain:
//
//	func TestMain(m *testing.M) { os.Exit(harness.Main(m)) }
func Main(m *testing.M) int {
	code := m.Run()
	closeShared()
	return code
}

// Config returns the configuration loaded once per test binary.
func Config(t testing.TB) *config.Config {
	t.Helper()

	setupMu.Lock()
	defer setupMu.Unlock()

	if cfg != nil {
		return cfg
	}
	c, err := config.Load()
	if err != nil {
		t.Fatalf("failed to load configuration: %v", err)
	}
	l, err := logging.New(c.LogLevel)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	cfg, logger = c, l
	return cfg
}

// Logger returns the harness logger.
func Logger(t testing.TB) logrus.FieldLogger {
	t.Helper()
	Config(t)
	return logger
}

// Acquire returns a fresh page for the calling test plus a context that is
// cancelled when the test ends. Under the session lifecycle the page comes
// from the shared browser; under the isolated lifecycle the test gets its own
// browser, closed when the test ends. The test is skipped when no browser can
// be launched.
func Acquire(t *testing.T) (context.Context, browser.Page) {
	t.Helper()

	c := Config(t)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	var session browser.Session
	if c.Lifecycle == config.LifecycleIsolated {
		session = launch(ctx, t, c)
		t.Cleanup(func() {
			if err := session.Close(); err != nil {
				t.Logf("failed to close session: %v", err)
			}
		})
	} else {
		session = sharedSession(t, c)
	}

	page, err := session.NewPage(ctx)
	if err != nil {
		t.Fatalf("failed to open page: %v", err)
	}
	t.Cleanup(func() { page.Close() })
	t.Cleanup(func() { screenshotOnFailure(ctx, t, page) })

	return ctx, page
}

// Run calls fn with a page from the configured lifecycle. Under the isolated
// lifecycle the browser is launched for fn alone and released when fn
// returns; under the session lifecycle the page comes from the shared
// browser, so one test binary never mixes the two.
func Run(t *testing.T, fn func(ctx context.Context, page browser.Page)) {
	t.Helper()

	c := Config(t)
	if c.Lifecycle != config.LifecycleIsolated {
		fn(Acquire(t))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l, err := newLauncher(c.Driver, logger)
	if err != nil {
		t.Fatalf("failed to create launcher: %v", err)
	}

	ran := false
	err = browser.WithSession(ctx, l, c.BrowserOptions(), func(page browser.Page) error {
		ran = true
		defer screenshotOnFailure(ctx, t, page)
		fn(ctx, page)
		return nil
	})
	switch {
	case err != nil && !ran:
		t.Skipf("%s browser not available: %v", c.Driver, err)
	case err != nil:
		t.Errorf("failed to release browser: %v", err)
	}
}

func launch(ctx context.Context, t *testing.T, c *config.Config) browser.Session {
	t.Helper()

	l, err := newLauncher(c.Driver, logger)
	if err != nil {
		t.Fatalf("failed to create launcher: %v", err)
	}
	session, err := l.Launch(ctx, c.BrowserOptions())
	if err != nil {
		t.Skipf("%s browser not available: %v", c.Driver, err)
	}
	return session
}

// sharedSession launches the session on first use. A launch failure is
// remembered so later tests skip without retrying.
func sharedSession(t *testing.T, c *config.Config) browser.Session {
	t.Helper()

	sessionMu.Lock()
	defer sessionMu.Unlock()

	if shared != nil {
		return shared
	}
	if launchErr != nil {
		t.Skipf("%s browser not available: %v", c.Driver, launchErr)
	}

	l, err := newLauncher(c.Driver, logger)
	if err != nil {
		t.Fatalf("failed to create launcher: %v", err)
	}
	// The session outlives the test that happened to start it.
	session, err := l.Launch(context.Background(), c.BrowserOptions())
	if err != nil {
		launchErr = err
		t.Skipf("%s browser not available: %v", c.Driver, err)
	}
	shared = session
	return shared
}

func closeShared() {
	sessionMu.Lock()
	defer sessionMu.Unlock()

	if shared != nil {
		if err := shared.Close(); err != nil && logger != nil {
			logger.WithError(err).Warn("Failed to close shared browser session")
		}
	}
	shared = nil
	launchErr = nil
}

func screenshotOnFailure(ctx context.Context, t *testing.T, page browser.Page) {
	if !t.Failed() {
		return
	}

	path, err := browser.SaveScreenshot(ctx, page, Config(t).ScreenshotDir, t.Name())
	switch {
	case errors.Is(err, browser.ErrScreenshotUnsupported):
		return
	case err != nil:
		t.Logf("failed to capture failure screenshot: %v", err)
	default:
		t.Logf("Screenshot saved to %s", path)
	}
}

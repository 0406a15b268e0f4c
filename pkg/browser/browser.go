// Package browser is the typed query layer between page objects and the
// browser-automation drivers (rod, playwright, and a static goquery reader).
package browser

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"dev/bravebird/jira-diff-pagecheck/pkg/logging"
)

var (
	// ErrNavigation is returned when the target URL cannot be loaded.
	ErrNavigation = errors.New("navigation failed")
	// ErrTimeout is returned when a wait exceeds the configured timeout.
	ErrTimeout = errors.New("timed out")
	// ErrElementNotFound is returned by Text when nothing matches the selector.
	ErrElementNotFound = errors.New("element not found")
	// ErrNotNavigated is returned by queries issued before Navigate.
	ErrNotNavigated = errors.New("page has not been navigated")
	// ErrScreenshotUnsupported is returned by drivers that cannot render.
	ErrScreenshotUnsupported = errors.New("screenshots not supported by driver")
	// ErrUnknownDriver is returned by NewLauncher for unregistered names.
	ErrUnknownDriver = errors.New("unknown browser driver")
	// ErrBrowserNotFound is returned when no browser binary is configured or installed.
	ErrBrowserNotFound = errors.New("no browser binary found")
)

// Driver names accepted by NewLauncher.
const (
	DriverRod        = "rod"
	DriverPlaywright = "playwright"
	DriverStatic     = "static"
)

// DefaultTimeout bounds navigation and element waits when Options.Timeout is zero.
const DefaultTimeout = 5 * time.Second

// Page is one browser tab bound to a live DOM.
// Presence queries report absence as false, never as an error.
type Page interface {
	Navigate(ctx context.Context, url string) error
	Title(ctx context.Context) (string, error)
	IsVisible(ctx context.Context, selector string) (bool, error)
	// IsVisibleWithText reports whether an element matching selector whose
	// whitespace-normalized text equals text is visible.
	IsVisibleWithText(ctx context.Context, selector, text string) (bool, error)
	Count(ctx context.Context, selector string) (int, error)
	Text(ctx context.Context, selector string) (string, error)
	Screenshot(ctx context.Context) ([]byte, error)
	Close() error
}

// Session owns a launched browser and hands out pages.
type Session interface {
	NewPage(ctx context.Context) (Page, error)
	Close() error
}

// Launcher starts sessions for one driver.
type Launcher interface {
	Name() string
	Launch(ctx context.Context, opts Options) (Session, error)
}

// Options configures a browser session.
type Options struct {
	Headless bool
	// IgnoreHTTPSErrors lets the browser load pages with certificate errors.
	IgnoreHTTPSErrors bool
	Timeout           time.Duration
	// Bin overrides the browser executable.
	Bin string
}

// DefaultOptions returns headless, certificate-tolerant options.
func DefaultOptions() Options {
	return Options{
		Headless:          true,
		IgnoreHTTPSErrors: true,
		Timeout:           DefaultTimeout,
	}
}

func (o Options) timeout() time.Duration {
	if o.Timeout <= 0 {
		return DefaultTimeout
	}
	return o.Timeout
}

var launchers = map[string]func(logrus.FieldLogger) Launcher{
	DriverRod:        func(l logrus.FieldLogger) Launcher { return &RodLauncher{logger: l} },
	DriverPlaywright: func(l logrus.FieldLogger) Launcher { return &PlaywrightLauncher{logger: l} },
	DriverStatic:     func(l logrus.FieldLogger) Launcher { return &StaticLauncher{logger: l} },
}

// NewLauncher returns the launcher registered under name.
func NewLauncher(name string, logger logrus.FieldLogger) (Launcher, error) {
	newFn, ok := launchers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownDriver, name, Drivers())
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return newFn(logger.WithField("driver", name)), nil
}

// Drivers lists the registered driver names.
func Drivers() []string {
	names := make([]string, 0, len(launchers))
	for name := range launchers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WithSession launches a session, opens one page, runs fn and releases both,
// whatever fn returns.
func WithSession(ctx context.Context, l Launcher, opts Options, fn func(Page) error) (err error) {
	session, err := l.Launch(ctx, opts)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := session.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s session: %w", l.Name(), cerr)
		}
	}()

	page, err := session.NewPage(ctx)
	if err != nil {
		return err
	}
	defer page.Close()

	return fn(page)
}

// wrapWait maps context expiry onto ErrTimeout so callers can classify it.
func wrapWait(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %v", what, ErrTimeout, err)
	}
	return fmt.Errorf("%s: %w", what, err)
}

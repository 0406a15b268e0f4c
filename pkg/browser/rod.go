package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/sirupsen/logrus"
)

// lookPath finds an installed browser.
var lookPath = launcher.LookPath

// RodLauncher starts Chromium through go-rod.
type RodLauncher struct {
	logger logrus.FieldLogger
}

// Name implements Launcher.
func (l *RodLauncher) Name() string { return DriverRod }

// Launch starts a browser process and connects to it.
func (l *RodLauncher) Launch(ctx context.Context, opts Options) (Session, error) {
	l.logger.WithField("headless", opts.Headless).Info("Launching browser")

	// Explicit binary first, then CHROME_BIN (Docker images), then an installed
	// Chrome/Chromium. rod would otherwise download one.
	bin := opts.Bin
	if bin == "" {
		bin = os.Getenv("CHROME_BIN")
	}
	if bin == "" {
		found, ok := lookPath()
		if !ok {
			return nil, ErrBrowserNotFound
		}
		bin = found
	}

	ln := launcher.New().Context(ctx).Bin(bin)

	ln = ln.Headless(opts.Headless)

	// Chrome flags for container compatibility
	ln = ln.Set("no-sandbox")
	ln = ln.Set("disable-gpu")
	ln = ln.Set("disable-dev-shm-usage")
	if opts.IgnoreHTTPSErrors {
		ln = ln.Set("ignore-certificate-errors")
	}

	controlURL, err := ln.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		ln.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	if opts.IgnoreHTTPSErrors {
		if err := b.IgnoreCertErrors(true); err != nil {
			_ = b.Close()
			ln.Kill()
			return nil, fmt.Errorf("failed to ignore certificate errors: %w", err)
		}
	}

	return &rodSession{
		browser:  b,
		launcher: ln,
		opts:     opts,
		logger:   l.logger,
	}, nil
}

type rodSession struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	opts     Options
	logger   logrus.FieldLogger

	mu     sync.Mutex
	closed bool
}

func (s *rodSession) NewPage(ctx context.Context) (Page, error) {
	p, err := s.browser.Context(ctx).Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	return &rodPage{page: p, timeout: s.opts.timeout(), logger: s.logger}, nil
}

func (s *rodSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	s.logger.Debug("Closing browser")
	err := s.browser.Close()
	s.launcher.Cleanup()
	return err
}

type rodPage struct {
	page      *rod.Page
	timeout   time.Duration
	logger    logrus.FieldLogger
	navigated bool
}

// bounded returns the page bound to ctx with the configured wait limit and a
// func that releases the limit's timer. Call it once the query is done.
func (p *rodPage) bounded(ctx context.Context) (*rod.Page, func()) {
	pg := p.page.Context(ctx).Timeout(p.timeout)
	return pg, func() { pg.CancelTimeout() }
}

func (p *rodPage) Navigate(ctx context.Context, url string) error {
	p.logger.WithField("url", url).Info("Navigating")

	pg, done := p.bounded(ctx)
	defer done()
	if err := pg.Navigate(url); err != nil {
		var navErr *rod.NavigationError
		if errors.As(err, &navErr) {
			return fmt.Errorf("%w: %s: %s", ErrNavigation, url, navErr.Reason)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s: %w", ErrNavigation, url, ErrTimeout)
		}
		return fmt.Errorf("%w: %s: %v", ErrNavigation, url, err)
	}
	if err := pg.WaitLoad(); err != nil {
		return wrapWait(err, "wait for load")
	}

	p.navigated = true
	return nil
}

func (p *rodPage) Title(ctx context.Context) (string, error) {
	if !p.navigated {
		return "", ErrNotNavigated
	}
	pg, done := p.bounded(ctx)
	defer done()

	info, err := pg.Info()
	if err != nil {
		return "", wrapWait(err, "read title")
	}
	return info.Title, nil
}

func (p *rodPage) IsVisible(ctx context.Context, selector string) (bool, error) {
	if !p.navigated {
		return false, ErrNotNavigated
	}
	pg, done := p.bounded(ctx)
	defer done()

	has, el, err := pg.Has(selector)
	if err != nil {
		return false, wrapWait(err, "query "+selector)
	}
	if !has {
		return false, nil
	}
	return visible(el, selector)
}

func (p *rodPage) IsVisibleWithText(ctx context.Context, selector, text string) (bool, error) {
	if !p.navigated {
		return false, ErrNotNavigated
	}
	pg, done := p.bounded(ctx)
	defer done()

	has, el, err := pg.HasR(selector, exactTextRegex(text))
	if err != nil {
		return false, wrapWait(err, "query "+selector)
	}
	if !has {
		return false, nil
	}
	return visible(el, selector)
}

func (p *rodPage) Count(ctx context.Context, selector string) (int, error) {
	if !p.navigated {
		return 0, ErrNotNavigated
	}
	pg, done := p.bounded(ctx)
	defer done()

	els, err := pg.Elements(selector)
	if err != nil {
		return 0, wrapWait(err, "query "+selector)
	}
	return len(els), nil
}

// Text waits for the first match, up to the page timeout.
func (p *rodPage) Text(ctx context.Context, selector string) (string, error) {
	if !p.navigated {
		return "", ErrNotNavigated
	}
	pg, done := p.bounded(ctx)
	defer done()

	el, err := pg.Element(selector)
	if err != nil {
		return "", wrapWait(err, "wait for "+selector)
	}
	text, err := el.Text()
	if err != nil {
		return "", wrapWait(err, "read text of "+selector)
	}
	return normalizeSpace(text), nil
}

func (p *rodPage) Screenshot(ctx context.Context) ([]byte, error) {
	pg, done := p.bounded(ctx)
	defer done()

	data, err := pg.Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to take screenshot: %w", err)
	}
	return data, nil
}

func (p *rodPage) Close() error {
	return p.page.Close()
}

func visible(el *rod.Element, selector string) (bool, error) {
	ok, err := el.Visible()
	if err != nil {
		return false, wrapWait(err, "visibility of "+selector)
	}
	return ok, nil
}

// exactTextRegex builds the JS regex rod matches against element text.
func exactTextRegex(text string) string {
	words := strings.Fields(text)
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	return `/^\s*` + strings.Join(words, `\s+`) + `\s*$/`
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

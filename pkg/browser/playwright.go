package browser

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/playwright-community/playwright-go"
	"github.com/sirupsen/logrus"
)

// PlaywrightLauncher starts Chromium through playwright-go.
// The Playwright driver and browsers must already be installed.
type PlaywrightLauncher struct {
	logger logrus.FieldLogger
}

// Name implements Launcher.
func (l *PlaywrightLauncher) Name() string { return DriverPlaywright }

// Launch starts Playwright, a Chromium instance and one browser context.
func (l *PlaywrightLauncher) Launch(ctx context.Context, opts Options) (Session, error) {
	l.logger.WithField("headless", opts.Headless).Info("Launching browser")

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	}
	if opts.Bin != "" {
		launchOpts.ExecutablePath = playwright.String(opts.Bin)
	}

	b, err := pw.Chromium.Launch(launchOpts)
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	bctx, err := b.NewContext(playwright.BrowserNewContextOptions{
		IgnoreHttpsErrors: playwright.Bool(opts.IgnoreHTTPSErrors),
	})
	if err != nil {
		_ = b.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	timeoutMS := float64(opts.timeout().Milliseconds())
	bctx.SetDefaultTimeout(timeoutMS)
	bctx.SetDefaultNavigationTimeout(timeoutMS)

	return &playwrightSession{
		pw:      pw,
		browser: b,
		context: bctx,
		logger:  l.logger,
	}, nil
}

type playwrightSession struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	logger  logrus.FieldLogger

	mu     sync.Mutex
	closed bool
}

func (s *playwrightSession) NewPage(ctx context.Context) (Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.context.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	return &playwrightPage{page: p, logger: s.logger}, nil
}

func (s *playwrightSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	s.logger.Debug("Closing browser")
	return errors.Join(s.context.Close(), s.browser.Close(), s.pw.Stop())
}

type playwrightPage struct {
	page      playwright.Page
	logger    logrus.FieldLogger
	navigated bool
}

func (p *playwrightPage) Navigate(ctx context.Context, url string) error {
	p.logger.WithField("url", url).Info("Navigating")

	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
	}); err != nil {
		if errors.Is(err, playwright.ErrTimeout) {
			return fmt.Errorf("%w: %s: %w", ErrNavigation, url, ErrTimeout)
		}
		return fmt.Errorf("%w: %s: %v", ErrNavigation, url, err)
	}

	p.navigated = true
	return nil
}

func (p *playwrightPage) Title(ctx context.Context) (string, error) {
	if err := p.ready(ctx); err != nil {
		return "", err
	}
	title, err := p.page.Title()
	if err != nil {
		return "", p.wrap(err, "read title")
	}
	return title, nil
}

func (p *playwrightPage) IsVisible(ctx context.Context, selector string) (bool, error) {
	if err := p.ready(ctx); err != nil {
		return false, err
	}
	ok, err := p.page.Locator(selector).First().IsVisible()
	if err != nil {
		return false, p.wrap(err, "query "+selector)
	}
	return ok, nil
}

func (p *playwrightPage) IsVisibleWithText(ctx context.Context, selector, text string) (bool, error) {
	if err := p.ready(ctx); err != nil {
		return false, err
	}
	// :text-is matches the whitespace-normalized text exactly.
	sel := selector + ":text-is(" + strconv.Quote(normalizeSpace(text)) + ")"
	ok, err := p.page.Locator(sel).First().IsVisible()
	if err != nil {
		return false, p.wrap(err, "query "+sel)
	}
	return ok, nil
}

func (p *playwrightPage) Count(ctx context.Context, selector string) (int, error) {
	if err := p.ready(ctx); err != nil {
		return 0, err
	}
	n, err := p.page.Locator(selector).Count()
	if err != nil {
		return 0, p.wrap(err, "query "+selector)
	}
	return n, nil
}

// Text waits for the first match, up to the context default timeout.
func (p *playwrightPage) Text(ctx context.Context, selector string) (string, error) {
	if err := p.ready(ctx); err != nil {
		return "", err
	}
	text, err := p.page.Locator(selector).First().InnerText()
	if err != nil {
		return "", p.wrap(err, "wait for "+selector)
	}
	return normalizeSpace(text), nil
}

func (p *playwrightPage) Screenshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := p.page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to take screenshot: %w", err)
	}
	return data, nil
}

func (p *playwrightPage) Close() error {
	return p.page.Close()
}

func (p *playwrightPage) ready(ctx context.Context) error {
	if !p.navigated {
		return ErrNotNavigated
	}
	return ctx.Err()
}

func (p *playwrightPage) wrap(err error, what string) error {
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%s: %w: %v", what, ErrTimeout, err)
	}
	return fmt.Errorf("%s: %w", what, err)
}

package browser

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"dev/bravebird/jira-diff-pagecheck/pkg/logging"
)

// StaticLauncher parses documents with goquery instead of driving a browser.
// It only loads file:// URLs, never runs scripts, and approximates visibility
// from the hidden attribute and inline styles.
type StaticLauncher struct {
	logger logrus.FieldLogger
}

// Name implements Launcher.
func (l *StaticLauncher) Name() string { return DriverStatic }

// Launch implements Launcher. No process is started.
func (l *StaticLauncher) Launch(ctx context.Context, _ Options) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &staticSession{logger: l.logger}, nil
}

type staticSession struct {
	logger logrus.FieldLogger
}

func (s *staticSession) NewPage(ctx context.Context) (Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return NewStaticPage(s.logger), nil
}

func (s *staticSession) Close() error { return nil }

// StaticPage is a Page over a parsed document.
type StaticPage struct {
	doc    *goquery.Document
	logger logrus.FieldLogger
}

// NewStaticPage returns an empty page. A nil logger discards output.
func NewStaticPage(logger logrus.FieldLogger) *StaticPage {
	if logger == nil {
		logger = logging.Discard()
	}
	return &StaticPage{logger: logger}
}

// Navigate loads a file:// document. about:blank yields an empty document.
func (p *StaticPage) Navigate(ctx context.Context, rawURL string) error {
	p.logger.WithField("url", rawURL).Info("Navigating")

	if err := ctx.Err(); err != nil {
		return err
	}

	if rawURL == "about:blank" {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader("<html><head></head><body></body></html>"))
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrNavigation, rawURL, err)
		}
		p.doc = doc
		return nil
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNavigation, rawURL, err)
	}
	if u.Scheme != "file" {
		return fmt.Errorf("%w: %s: scheme %q not supported by the static driver", ErrNavigation, rawURL, u.Scheme)
	}

	f, err := os.Open(filepath.FromSlash(u.Path))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNavigation, rawURL, err)
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNavigation, rawURL, err)
	}
	p.doc = doc
	return nil
}

func (p *StaticPage) Title(ctx context.Context) (string, error) {
	if err := p.ready(ctx); err != nil {
		return "", err
	}
	return normalizeSpace(p.doc.Find("head title").First().Text()), nil
}

func (p *StaticPage) IsVisible(ctx context.Context, selector string) (bool, error) {
	if err := p.ready(ctx); err != nil {
		return false, err
	}
	sel := p.doc.Find(selector)
	return sel.Length() > 0 && displayed(sel.First()), nil
}

func (p *StaticPage) IsVisibleWithText(ctx context.Context, selector, text string) (bool, error) {
	if err := p.ready(ctx); err != nil {
		return false, err
	}
	sel := p.doc.Find(selector)
	want := normalizeSpace(text)
	match := sel.FilterFunction(func(_ int, s *goquery.Selection) bool {
		return normalizeSpace(s.Text()) == want
	})
	return match.Length() > 0 && displayed(match.First()), nil
}

func (p *StaticPage) Count(ctx context.Context, selector string) (int, error) {
	if err := p.ready(ctx); err != nil {
		return 0, err
	}
	sel := p.doc.Find(selector)
	return sel.Length(), nil
}

// Text returns the first match's text. The document never changes, so there
// is nothing to wait for: absence is ErrElementNotFound immediately.
func (p *StaticPage) Text(ctx context.Context, selector string) (string, error) {
	if err := p.ready(ctx); err != nil {
		return "", err
	}
	sel := p.doc.Find(selector)
	if sel.Length() == 0 {
		return "", fmt.Errorf("%w: %s", ErrElementNotFound, selector)
	}
	return normalizeSpace(sel.First().Text()), nil
}

func (p *StaticPage) Screenshot(context.Context) ([]byte, error) {
	return nil, ErrScreenshotUnsupported
}

func (p *StaticPage) Close() error {
	p.doc = nil
	return nil
}

func (p *StaticPage) ready(ctx context.Context) error {
	if p.doc == nil {
		return ErrNotNavigated
	}
	return ctx.Err()
}

// displayed walks the element and its ancestors looking for anything that
// takes it out of rendering.
func displayed(s *goquery.Selection) bool {
	for cur := s; cur.Length() > 0; cur = cur.Parent() {
		switch goquery.NodeName(cur) {
		case "head", "template", "script", "style", "noscript":
			return false
		}
		if _, hidden := cur.Attr("hidden"); hidden {
			return false
		}
		if style, ok := cur.Attr("style"); ok && hiddenByStyle(style) {
			return false
		}
	}
	return true
}

func hiddenByStyle(style string) bool {
	for _, decl := range strings.Split(style, ";") {
		prop, val, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		val = strings.ToLower(strings.TrimSpace(val))
		val = strings.TrimSpace(strings.TrimSuffix(val, "!important"))
		switch {
		case prop == "display" && val == "none":
			return true
		case prop == "visibility" && (val == "hidden" || val == "collapse"):
			return true
		}
	}
	return false
}

package browser

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dev/bravebird/jira-diff-pagecheck/pkg/env"
)

func navigatedStaticPage(t *testing.T) *StaticPage {
	t.Helper()

	page := NewStaticPage(nil)
	err := page.Navigate(context.Background(), env.FileURL(filepath.Join("testdata", "visibility.html")))
	require.NoError(t, err)
	return page
}

func TestStaticQueriesBeforeNavigate(t *testing.T) {
	ctx := context.Background()
	page := NewStaticPage(nil)

	_, err := page.Title(ctx)
	assert.ErrorIs(t, err, ErrNotNavigated)
	_, err = page.IsVisible(ctx, "body")
	assert.ErrorIs(t, err, ErrNotNavigated)
	_, err = page.Count(ctx, "body")
	assert.ErrorIs(t, err, ErrNotNavigated)
	_, err = page.Text(ctx, "body")
	assert.ErrorIs(t, err, ErrNotNavigated)
}

func TestStaticNavigateFailures(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{name: "missing file", url: env.FileURL(filepath.Join(t.TempDir(), "nope.html"))},
		{name: "network scheme", url: "https://example.com/"},
		{name: "unparseable", url: "file://%zz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := NewStaticPage(nil)
			err := page.Navigate(context.Background(), tt.url)
			assert.ErrorIs(t, err, ErrNavigation)

			_, err = page.Title(context.Background())
			assert.ErrorIs(t, err, ErrNotNavigated, "failed navigation must not leave a document behind")
		})
	}
}

func TestStaticTitleIsNormalized(t *testing.T) {
	page := navigatedStaticPage(t)

	title, err := page.Title(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Visibility Fixture", title)
}

func TestStaticIsVisible(t *testing.T) {
	page := navigatedStaticPage(t)

	tests := []struct {
		selector string
		want     bool
	}{
		{selector: ".root", want: true},
		{selector: ".items li", want: true},
		{selector: ".nested", want: false},
		{selector: ".templated", want: false},
		{selector: "title", want: false},
		{selector: ".absent", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.selector, func(t *testing.T) {
			got, err := page.IsVisible(context.Background(), tt.selector)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStaticIsVisibleWithText(t *testing.T) {
	page := navigatedStaticPage(t)

	tests := []struct {
		text string
		want bool
	}{
		{text: "Shown", want: true},
		{text: "Hidden Attribute", want: false},
		{text: "Display None", want: false},
		{text: "Visibility Hidden", want: false},
		{text: "Show", want: false},
		{text: "shown", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := page.IsVisibleWithText(context.Background(), "h2", tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStaticCountAndText(t *testing.T) {
	ctx := context.Background()
	page := navigatedStaticPage(t)

	n, err := page.Count(ctx, ".items li")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = page.Count(ctx, ".absent")
	require.NoError(t, err)
	assert.Zero(t, n)

	text, err := page.Text(ctx, ".spaced")
	require.NoError(t, err)
	assert.Equal(t, "lots of space", text)

	_, err = page.Text(ctx, ".absent")
	assert.ErrorIs(t, err, ErrElementNotFound)
}

func TestStaticScreenshotUnsupported(t *testing.T) {
	page := navigatedStaticPage(t)

	_, err := page.Screenshot(context.Background())
	assert.ErrorIs(t, err, ErrScreenshotUnsupported)
}

func TestStaticCancelledContext(t *testing.T) {
	page := navigatedStaticPage(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := page.Count(ctx, "li")
	assert.ErrorIs(t, err, context.Canceled)
}

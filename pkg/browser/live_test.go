package browser

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dev/bravebird/jira-diff-pagecheck/pkg/env"
)

// TestLiveDrivers runs the same queries through every real browser driver.
// Drivers whose browser cannot be launched here are skipped.
func TestLiveDrivers(t *testing.T) {
	if testing.Short() {
		t.Skip("live browser tests skipped in -short mode")
	}

	fixture := env.FileURL(filepath.Join("testdata", "visibility.html"))

	for _, name := range []string{DriverRod, DriverPlaywright} {
		t.Run(name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()

			l, err := NewLauncher(name, nil)
			require.NoError(t, err)

			opts := DefaultOptions()
			opts.Timeout = 2 * time.Second

			session, err := l.Launch(ctx, opts)
			if err != nil {
				t.Skipf("%s browser not available: %v", name, err)
			}
			defer session.Close()

			page, err := session.NewPage(ctx)
			require.NoError(t, err)
			defer page.Close()

			_, err = page.Count(ctx, "li")
			assert.ErrorIs(t, err, ErrNotNavigated)

			err = page.Navigate(ctx, env.FileURL(filepath.Join(t.TempDir(), "missing.html")))
			assert.ErrorIs(t, err, ErrNavigation)

			require.NoError(t, page.Navigate(ctx, fixture))

			title, err := page.Title(ctx)
			require.NoError(t, err)
			assert.Equal(t, "Visibility Fixture", title)

			ok, err := page.IsVisible(ctx, ".root")
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = page.IsVisible(ctx, ".nested")
			require.NoError(t, err)
			assert.False(t, ok)

			ok, err = page.IsVisible(ctx, ".absent")
			require.NoError(t, err)
			assert.False(t, ok)

			ok, err = page.IsVisibleWithText(ctx, "h2", "Shown")
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = page.IsVisibleWithText(ctx, "h2", "Display None")
			require.NoError(t, err)
			assert.False(t, ok)

			n, err := page.Count(ctx, ".items li")
			require.NoError(t, err)
			assert.Equal(t, 3, n)

			text, err := page.Text(ctx, ".spaced")
			require.NoError(t, err)
			assert.Equal(t, "lots of space", text)

			_, err = page.Text(ctx, ".absent")
			assert.ErrorIs(t, err, ErrTimeout)

			png, err := page.Screenshot(ctx)
			require.NoError(t, err)
			assert.NotEmpty(t, png)
		})
	}
}

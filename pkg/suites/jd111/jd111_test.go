package jd111

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dev/bravebird/jira-diff-pagecheck/pkg/browser"
	"dev/bravebird/jira-diff-pagecheck/pkg/harness"
	"dev/bravebird/jira-diff-pagecheck/pkg/pages"
)

func TestMain(m *testing.M) {
	os.Exit(harness.Main(m))
}

// TestExtendedProjectInfoOnIndexPage verifies the index page loads and
// displays the extended project information. The page comes from the
// configured lifecycle.
func TestExtendedProjectInfoOnIndexPage(t *testing.T) {
	ctx, page := harness.Acquire(t)

	indexPage := pages.NewIndexPage(page, harness.Config(t).URL())
	require.NoError(t, indexPage.Navigate(ctx))

	title, err := indexPage.GetTitle(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Jira Diff", title, "Page title should be 'Jira Diff'")

	ok, err := indexPage.HasBadgesSection(ctx)
	require.NoError(t, err)
	assert.True(t, ok, "Badges section should be present")

	ok, err = indexPage.HasExtendedProjectInfo(ctx)
	require.NoError(t, err)
	assert.True(t, ok, "Extended project info (Browser Extensions, Key Features, "+
		"AI Automation Workflow, Tech Stack) should all be displayed")
}

// TestIndexPageHeroRevision checks the hero layout of the page. Under the
// isolated lifecycle the test launches and releases its own browser.
func TestIndexPageHeroRevision(t *testing.T) {
	harness.Run(t, func(ctx context.Context, page browser.Page) {
		indexPage := pages.NewIndexPage(page, harness.Config(t).URL())
		require.NoError(t, indexPage.Navigate(ctx))

		ok, err := indexPage.IsLoaded(ctx)
		require.NoError(t, err)
		require.True(t, ok, "Main container should be visible")

		ok, err = indexPage.HasHeroSection(ctx)
		require.NoError(t, err)
		assert.True(t, ok, "Hero section heading should be visible")

		heading, err := indexPage.GetHeading(ctx)
		require.NoError(t, err)
		assert.NotEmpty(t, heading, "Hero heading should not be empty")

		tagline, err := indexPage.GetTagline(ctx)
		require.NoError(t, err)
		assert.NotEmpty(t, tagline, "Tagline should not be empty")

		ok, err = indexPage.HasExtendedProjectInfo(ctx)
		require.NoError(t, err)
		assert.True(t, ok, "Extended project info should be displayed")
	})
}

// TestInspectConfiguredRevision runs the full check list of the configured
// revision and reports every failing check.
func TestInspectConfiguredRevision(t *testing.T) {
	ctx, page := harness.Acquire(t)
	cfg := harness.Config(t)

	report := pages.NewIndexPage(page, cfg.URL()).Inspect(ctx, cfg.PageRevision())
	for _, c := range report.Checks {
		assert.True(t, c.Passed, "%s: %s %s", c.Name, c.Message, c.Error)
	}
	assert.Equal(t, "", report.ErrorMessage)
	assert.True(t, report.Succeeded(), "run %s ended %s", report.RunID, report.Status)
}

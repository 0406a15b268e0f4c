// Package pages holds page objects: named queries over one page's structure so
// test cases never embed raw selectors.
package pages

import (
	"context"

	"dev/bravebird/jira-diff-pagecheck/pkg/browser"
)

// Selectors for web/index.html.
const (
	SelectorContainer      = ".container"
	SelectorHeroHeading    = ".hero h1"
	SelectorTagline        = ".tagline"
	SelectorBadge          = ".badges .badge"
	SelectorSectionHeading = "h2"
	SelectorPlatformCard   = ".extension-platforms .platform-card"
	SelectorFeatureCard    = ".features-grid .feature-card"
	SelectorWorkflowStep   = ".workflow-steps li"
	SelectorTechTag        = ".tech-stack .tech-tag"
)

// Section headings, matched exactly.
const (
	HeadingBrowserExtensions = "Browser Extensions"
	HeadingKeyFeatures       = "Key Features"
	HeadingWorkflow          = "AI Automation Workflow"
	HeadingTechStack         = "Tech Stack"
)

// Minimum element counts for a section to count as complete.
const (
	MinBadges        = 4
	MinPlatformCards = 2
	MinFeatureCards  = 4
	MinWorkflowSteps = 4
	MinTechTags      = 1
)

// ExpectedTitle is the document title of the landing page.
const ExpectedTitle = "Jira Diff"

// IndexPage is the page object for web/index.html.
type IndexPage struct {
	page browser.Page
	url  string
}

// NewIndexPage binds a browser page to the index page URL.
func NewIndexPage(page browser.Page, url string) *IndexPage {
	return &IndexPage{page: page, url: url}
}

// URL returns the target URL.
func (p *IndexPage) URL() string {
	return p.url
}

// Navigate loads the index page.
func (p *IndexPage) Navigate(ctx context.Context) error {
	return p.page.Navigate(ctx, p.url)
}

// GetTitle returns the document title.
func (p *IndexPage) GetTitle(ctx context.Context) (string, error) {
	return p.page.Title(ctx)
}

// GetHeading returns the hero heading text.
func (p *IndexPage) GetHeading(ctx context.Context) (string, error) {
	return p.page.Text(ctx, SelectorHeroHeading)
}

// GetTagline returns the tagline under the hero heading.
func (p *IndexPage) GetTagline(ctx context.Context) (string, error) {
	return p.page.Text(ctx, SelectorTagline)
}

// IsLoaded checks if the main container is visible.
func (p *IndexPage) IsLoaded(ctx context.Context) (bool, error) {
	return p.page.IsVisible(ctx, SelectorContainer)
}

// HasHeroSection checks if the hero section with its h1 is visible.
func (p *IndexPage) HasHeroSection(ctx context.Context) (bool, error) {
	return p.page.IsVisible(ctx, SelectorHeroHeading)
}

// HasBadgesSection checks that at least MinBadges badges are rendered.
func (p *IndexPage) HasBadgesSection(ctx context.Context) (bool, error) {
	return p.atLeast(ctx, SelectorBadge, MinBadges)
}

// HasBrowserExtensionsSection checks the Browser Extensions heading and platform cards.
func (p *IndexPage) HasBrowserExtensionsSection(ctx context.Context) (bool, error) {
	return p.section(ctx, HeadingBrowserExtensions, SelectorPlatformCard, MinPlatformCards)
}

// HasKeyFeaturesSection checks the Key Features heading and feature cards.
func (p *IndexPage) HasKeyFeaturesSection(ctx context.Context) (bool, error) {
	return p.section(ctx, HeadingKeyFeatures, SelectorFeatureCard, MinFeatureCards)
}

// HasWorkflowSection checks the AI Automation Workflow heading and its steps.
func (p *IndexPage) HasWorkflowSection(ctx context.Context) (bool, error) {
	return p.section(ctx, HeadingWorkflow, SelectorWorkflowStep, MinWorkflowSteps)
}

// HasTechStackSection checks the Tech Stack heading and its tags.
func (p *IndexPage) HasTechStackSection(ctx context.Context) (bool, error) {
	return p.section(ctx, HeadingTechStack, SelectorTechTag, MinTechTags)
}

// HasExtendedProjectInfo verifies all extended project information sections are
// displayed. It stops at the first section that does not hold.
func (p *IndexPage) HasExtendedProjectInfo(ctx context.Context) (bool, error) {
	for _, has := range []func(context.Context) (bool, error){
		p.HasBrowserExtensionsSection,
		p.HasKeyFeaturesSection,
		p.HasWorkflowSection,
		p.HasTechStackSection,
	} {
		ok, err := has(ctx)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func (p *IndexPage) section(ctx context.Context, heading, itemSelector string, minCount int) (bool, error) {
	ok, err := p.page.IsVisibleWithText(ctx, SelectorSectionHeading, heading)
	if err != nil || !ok {
		return false, err
	}
	return p.atLeast(ctx, itemSelector, minCount)
}

func (p *IndexPage) atLeast(ctx context.Context, selector string, minCount int) (bool, error) {
	n, err := p.page.Count(ctx, selector)
	if err != nil {
		return false, err
	}
	return n >= minCount, nil
}

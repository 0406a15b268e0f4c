package pages

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"dev/bravebird/jira-diff-pagecheck/pkg/browser"
	"dev/bravebird/jira-diff-pagecheck/pkg/models"
)

// Revision selects which published layout of index.html a run expects.
type Revision string

const (
	// RevisionTitled expects the exact "Jira Diff" document title, the badges
	// and the extended project information.
	RevisionTitled Revision = "titled"
	// RevisionHero expects a visible hero heading and tagline plus the
	// extended project information, whatever the title says.
	RevisionHero Revision = "hero"
)

// Revisions lists the known revisions.
func Revisions() []Revision {
	return []Revision{RevisionTitled, RevisionHero}
}

// ParseRevision validates a revision name.
func ParseRevision(s string) (Revision, error) {
	for _, r := range Revisions() {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown revision %q", s)
}

// Check names reported by Inspect.
const (
	CheckLoaded              = "loaded"
	CheckTitle               = "title"
	CheckHero                = "hero_section"
	CheckHeading             = "heading"
	CheckTagline             = "tagline"
	CheckBadges              = "badges_section"
	CheckBrowserExtensions   = "browser_extensions_section"
	CheckKeyFeatures         = "key_features_section"
	CheckWorkflow            = "workflow_section"
	CheckTechStack           = "tech_stack_section"
	CheckExtendedProjectInfo = "extended_project_info"
)

type check struct {
	name    string
	message string
	run     func(context.Context) (bool, error)
}

// checks returns the ordered checks for a revision. The loaded check is
// always first so a missing container fails the run before anything else.
func (p *IndexPage) checks(rev Revision) []check {
	loaded := check{CheckLoaded, "Main container should be visible", p.IsLoaded}
	sections := []check{
		{CheckBrowserExtensions, "Browser Extensions section should show at least 2 platform cards", p.HasBrowserExtensionsSection},
		{CheckKeyFeatures, "Key Features section should show at least 4 feature cards", p.HasKeyFeaturesSection},
		{CheckWorkflow, "AI Automation Workflow section should list at least 4 steps", p.HasWorkflowSection},
		{CheckTechStack, "Tech Stack section should show at least 1 tag", p.HasTechStackSection},
	}
	extended := check{
		CheckExtendedProjectInfo,
		"Extended project info (Browser Extensions, Key Features, AI Automation Workflow, Tech Stack) should all be displayed",
		p.HasExtendedProjectInfo,
	}

	out := []check{loaded}
	switch rev {
	case RevisionHero:
		out = append(out,
			check{CheckHero, "Hero section heading should be visible", p.HasHeroSection},
			check{CheckHeading, "Hero heading should not be empty", p.nonEmpty(p.GetHeading)},
			check{CheckTagline, "Tagline should not be empty", p.nonEmpty(p.GetTagline)},
		)
	default:
		out = append(out,
			check{CheckTitle, fmt.Sprintf("Page title should be '%s'", ExpectedTitle), p.titleIs(ExpectedTitle)},
			check{CheckBadges, "Badges section should be present", p.HasBadgesSection},
		)
	}
	out = append(out, sections...)
	return append(out, extended)
}

func (p *IndexPage) titleIs(want string) func(context.Context) (bool, error) {
	return func(ctx context.Context) (bool, error) {
		title, err := p.GetTitle(ctx)
		if err != nil {
			return false, err
		}
		return title == want, nil
	}
}

func (p *IndexPage) nonEmpty(get func(context.Context) (string, error)) func(context.Context) (bool, error) {
	return func(ctx context.Context) (bool, error) {
		s, err := get(ctx)
		if err != nil {
			return false, err
		}
		return s != "", nil
	}
}

// Inspect navigates to the page and runs every check of the revision.
// A navigation failure ends the run before any check executes; a page that
// is not loaded ends it after the first check. The Driver field is left for
// the caller to fill in.
func (p *IndexPage) Inspect(ctx context.Context, rev Revision) models.PageReport {
	start := time.Now()
	report := models.PageReport{
		RunID:     uuid.New().String(),
		URL:       p.url,
		Revision:  string(rev),
		Status:    models.StatusRunning,
		Checks:    []models.CheckResult{},
		StartedAt: start,
	}
	if err := p.Navigate(ctx); err != nil {
		report.Status = models.StatusFailed
		report.Category = Classify(err)
		report.ErrorMessage = err.Error()
		report.Duration = time.Since(start).Milliseconds()
		return report
	}

	for _, c := range p.checks(rev) {
		ok, err := c.run(ctx)
		result := models.CheckResult{Name: c.name, Passed: ok && err == nil}
		if !result.Passed {
			result.Message = c.message
			result.Category = models.CategoryStructuralMismatch
			if err != nil {
				result.Category = Classify(err)
				result.Error = err.Error()
			}
		}
		report.Checks = append(report.Checks, result)

		if !result.Passed && report.Category == models.CategoryNone {
			report.Category = result.Category
			report.ErrorMessage = result.Message
		}
		if c.name == CheckLoaded && !result.Passed {
			break
		}
	}

	report.Status = models.StatusSuccess
	if report.FailedCount() > 0 {
		report.Status = models.StatusFailed
	}
	report.Duration = time.Since(start).Milliseconds()
	return report
}

// Classify maps a driver error onto a report failure category.
func Classify(err error) models.FailureCategory {
	switch {
	case err == nil:
		return models.CategoryNone
	case errors.Is(err, browser.ErrNavigation):
		return models.CategoryResourceNotFound
	case errors.Is(err, browser.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return models.CategoryTimeout
	case errors.Is(err, browser.ErrElementNotFound):
		return models.CategoryStructuralMismatch
	default:
		return models.CategoryDriver
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"dev/bravebird/jira-diff-pagecheck/pkg/browser"
	"dev/bravebird/jira-diff-pagecheck/pkg/config"
	"dev/bravebird/jira-diff-pagecheck/pkg/database"
	"dev/bravebird/jira-diff-pagecheck/pkg/logging"
	"dev/bravebird/jira-diff-pagecheck/pkg/models"
	"dev/bravebird/jira-diff-pagecheck/pkg/pages"
	"dev/bravebird/jira-diff-pagecheck/pkg/report"
)

// errChecksFailed makes the process exit non-zero after a failing run.
var errChecksFailed = errors.New("page checks failed")

// flags holds command line overrides of the loaded configuration.
type flags struct {
	url        string
	driver     string
	revision   string
	historyDB  string
	format     string
	record     bool
	screenshot bool
	limit      int
	id         string
}

type app struct {
	flags  flags
	cfg    *config.Config
	logger *logrus.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "pagecheck",
		Short:         "Check the Jira Diff landing page in a real browser",
		Long:          `Loads web/index.html (or any URL) in a browser, runs the page checks of a layout revision and reports, records or screenshots the outcome.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	rootCmd.PersistentFlags().StringVar(&a.flags.historyDB, "db", "", "History database path (default PAGECHECK_HISTORY_DB)")
	rootCmd.PersistentFlags().StringVarP(&a.flags.format, "format", "o", report.FormatText, "Output format: text, json or yaml")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Inspect the page once",
		Long:  "Launch a browser, inspect the page for one revision and print the report. Exits 1 when a check fails.",
		Args:  cobra.NoArgs,
		RunE:  a.run,
	}
	runCmd.Flags().StringVarP(&a.flags.url, "url", "u", "", "Page URL (default PAGECHECK_TARGET_URL or the local web/index.html)")
	runCmd.Flags().StringVarP(&a.flags.driver, "driver", "d", "", fmt.Sprintf("Browser driver %v (default PAGECHECK_DRIVER)", browser.Drivers()))
	runCmd.Flags().StringVarP(&a.flags.revision, "revision", "r", "", fmt.Sprintf("Page revision %v (default PAGECHECK_REVISION)", pages.Revisions()))
	runCmd.Flags().BoolVar(&a.flags.record, "record", false, "Save the report to the history database")
	runCmd.Flags().BoolVar(&a.flags.screenshot, "screenshot", false, "Capture a screenshot when a check fails")
	rootCmd.AddCommand(runCmd)

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs",
		Long:  "Show the most recent recorded runs, or one run in full with --id.",
		Args:  cobra.NoArgs,
		RunE:  a.history,
	}
	historyCmd.Flags().IntVarP(&a.flags.limit, "limit", "n", 20, "Number of runs to list (0 lists all)")
	historyCmd.Flags().StringVar(&a.flags.id, "id", "", "Show a single run")
	rootCmd.AddCommand(historyCmd)

	urlCmd := &cobra.Command{
		Use:   "url",
		Short: "Print the resolved page URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), a.cfg.URL())
			return err
		},
	}
	rootCmd.AddCommand(urlCmd)

	return rootCmd
}

// setup loads the configuration and applies flag overrides.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.flags.url != "" {
		cfg.TargetURL = a.flags.url
	}
	if a.flags.driver != "" {
		cfg.Driver = a.flags.driver
	}
	if a.flags.revision != "" {
		cfg.Revision = a.flags.revision
	}
	if a.flags.historyDB != "" {
		cfg.HistoryDB = a.flags.historyDB
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if !slices.Contains(report.Formats(), strings.ToLower(a.flags.format)) {
		return fmt.Errorf("unknown format %q (want one of %s)", a.flags.format, strings.Join(report.Formats(), ", "))
	}

	logger, err := logging.NewWithWriter(cmd.ErrOrStderr(), cfg.LogLevel)
	if err != nil {
		return err
	}
	a.cfg, a.logger = cfg, logger
	return nil
}

func (a *app) run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	launcher, err := browser.NewLauncher(a.cfg.Driver, a.logger)
	if err != nil {
		return err
	}

	var r models.PageReport
	err = browser.WithSession(ctx, launcher, a.cfg.BrowserOptions(), func(page browser.Page) error {
		r = pages.NewIndexPage(page, a.cfg.URL()).Inspect(ctx, a.cfg.PageRevision())
		r.Driver = launcher.Name()
		if !r.Succeeded() && a.flags.screenshot {
			a.screenshot(ctx, page, &r)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to run %s browser: %w", a.cfg.Driver, err)
	}

	a.logger.WithFields(logrus.Fields{
		"run_id": r.RunID,
		"status": r.Status,
		"passed": r.PassedCount(),
		"failed": r.FailedCount(),
	}).Info("Inspection finished")

	if a.flags.record {
		if err := a.record(ctx, &r); err != nil {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), color.GreenString("✓ Recorded run %s in %s", r.RunID, a.cfg.HistoryDB))
	}

	if err := report.Write(cmd.OutOrStdout(), a.flags.format, &r); err != nil {
		return err
	}
	if !r.Succeeded() {
		return errChecksFailed
	}
	return nil
}

func (a *app) screenshot(ctx context.Context, page browser.Page, r *models.PageReport) {
	path, err := browser.SaveScreenshot(ctx, page, a.cfg.ScreenshotDir, r.RunID)
	switch {
	case errors.Is(err, browser.ErrScreenshotUnsupported):
		a.logger.WithField("driver", r.Driver).Debug("Driver cannot take screenshots")
	case err != nil:
		a.logger.WithError(err).Warn("Failed to capture failure screenshot")
	default:
		r.ScreenshotPath = path
	}
}

func (a *app) record(ctx context.Context, r *models.PageReport) error {
	db, err := database.Open(a.cfg.HistoryDB)
	if err != nil {
		return err
	}
	defer db.Close()

	return db.SaveReport(ctx, r)
}

func (a *app) history(cmd *cobra.Command, args []string) error {
	db, err := database.Open(a.cfg.HistoryDB)
	if err != nil {
		return err
	}
	defer db.Close()

	if a.flags.id != "" {
		r, err := db.GetReport(cmd.Context(), a.flags.id)
		if err != nil {
			return err
		}
		if r == nil {
			return fmt.Errorf("run %s not found", a.flags.id)
		}
		return report.Write(cmd.OutOrStdout(), a.flags.format, r)
	}

	reports, err := db.ListReports(cmd.Context(), a.flags.limit)
	if err != nil {
		return err
	}
	return report.WriteAll(cmd.OutOrStdout(), a.flags.format, reports)
}

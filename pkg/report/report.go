// Package report renders page reports for terminals and machines.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"dev/bravebird/jira-diff-pagecheck/pkg/models"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Formats lists the supported output formats.
func Formats() []string {
	return []string{FormatText, FormatJSON, FormatYAML}
}

// Write renders r to w in the named format.
func Write(w io.Writer, format string, r *models.PageReport) error {
	switch strings.ToLower(format) {
	case FormatText, "":
		return WriteText(w, r)
	case FormatJSON:
		return WriteJSON(w, r)
	case FormatYAML:
		return WriteYAML(w, r)
	default:
		return fmt.Errorf("unknown format %q (want one of %s)", format, strings.Join(Formats(), ", "))
	}
}

// WriteText prints a human readable summary, one line per check.
func WriteText(w io.Writer, r *models.PageReport) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Page check %s\n", r.RunID)
	fmt.Fprintf(&b, "  url:      %s\n", r.URL)
	fmt.Fprintf(&b, "  driver:   %s\n", r.Driver)
	fmt.Fprintf(&b, "  revision: %s\n", r.Revision)
	b.WriteString("\n")

	for _, c := range r.Checks {
		if c.Passed {
			fmt.Fprintf(&b, "%s %s\n", color.GreenString("✓"), c.Name)
			continue
		}
		fmt.Fprintf(&b, "%s %s: %s", color.RedString("✗"), c.Name, c.Message)
		if c.Category != models.CategoryNone {
			fmt.Fprintf(&b, " [%s]", c.Category)
		}
		b.WriteString("\n")
		if c.Error != "" {
			fmt.Fprintf(&b, "    %s\n", color.YellowString(c.Error))
		}
	}
	if len(r.Checks) > 0 {
		b.WriteString("\n")
	}

	if r.Succeeded() {
		fmt.Fprintf(&b, "%s %d/%d checks passed in %dms\n",
			color.GreenString("PASS"), r.PassedCount(), len(r.Checks), r.Duration)
	} else {
		fmt.Fprintf(&b, "%s %d/%d checks passed in %dms", color.RedString("FAIL"), r.PassedCount(), len(r.Checks), r.Duration)
		if r.Category != models.CategoryNone {
			fmt.Fprintf(&b, " [%s]", r.Category)
		}
		b.WriteString("\n")
		if r.ErrorMessage != "" {
			fmt.Fprintf(&b, "  %s\n", r.ErrorMessage)
		}
	}
	if r.ScreenshotPath != "" {
		fmt.Fprintf(&b, "  screenshot: %s\n", r.ScreenshotPath)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteJSON writes r as indented JSON.
func WriteJSON(w io.Writer, r *models.PageReport) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// WriteYAML writes r as YAML.
func WriteYAML(w io.Writer, r *models.PageReport) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return enc.Close()
}

// WriteList prints one line per report, newest first as given.
func WriteList(w io.Writer, reports []models.PageReport) error {
	if len(reports) == 0 {
		_, err := fmt.Fprintln(w, "No recorded runs")
		return err
	}
	for _, r := range reports {
		status := color.GreenString(string(r.Status))
		if !r.Succeeded() {
			status = color.RedString(string(r.Status))
		}
		line := fmt.Sprintf("%s  %s  %-7s %-8s %d/%d  %s",
			r.RunID, r.StartedAt.UTC().Format("2006-01-02 15:04:05"), status,
			r.Driver, r.PassedCount(), len(r.Checks), r.URL)
		if r.Category != models.CategoryNone {
			line += fmt.Sprintf("  [%s]", r.Category)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// WriteAll renders a list of reports: a table for text, an array otherwise.
func WriteAll(w io.Writer, format string, reports []models.PageReport) error {
	switch strings.ToLower(format) {
	case FormatText, "":
		return WriteList(w, reports)
	case FormatJSON:
		data, err := json.MarshalIndent(reports, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal reports: %w", err)
		}
		_, err = w.Write(append(data, '\n'))
		return err
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(reports); err != nil {
			return fmt.Errorf("failed to encode reports: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want one of %s)", format, strings.Join(Formats(), ", "))
	}
}

// Package fixtures derives variants of a page fixture for scenario tests:
// the page is parsed with goquery, mutated, and written next to the original
// assets so the variant is reachable through a file:// URL.
package fixtures

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"dev/bravebird/jira-diff-pagecheck/pkg/env"
)

// Mutation edits a parsed document in place.
type Mutation func(doc *goquery.Document)

// Remove deletes every element matching selector.
func Remove(selector string) Mutation {
	return func(doc *goquery.Document) {
		doc.Find(selector).Remove()
	}
}

// RemoveSection deletes the <section> whose h2 reads heading.
func RemoveSection(heading string) Mutation {
	return func(doc *goquery.Document) {
		doc.Find("h2").FilterFunction(func(_ int, s *goquery.Selection) bool {
			return strings.TrimSpace(s.Text()) == heading
		}).Closest("section").Remove()
	}
}

// RenameHeading rewrites the text of the h2 that reads from.
func RenameHeading(from, to string) Mutation {
	return func(doc *goquery.Document) {
		doc.Find("h2").FilterFunction(func(_ int, s *goquery.Selection) bool {
			return strings.TrimSpace(s.Text()) == from
		}).SetText(to)
	}
}

// KeepFirst removes matches of selector beyond the first n.
func KeepFirst(selector string, n int) Mutation {
	return func(doc *goquery.Document) {
		sel := doc.Find(selector)
		if n < sel.Length() {
			sel.Slice(n, goquery.ToEnd).Remove()
		}
	}
}

// Duplicate appends n copies of the last match of selector after it.
func Duplicate(selector string, n int) Mutation {
	return func(doc *goquery.Document) {
		last := doc.Find(selector).Last()
		if last.Length() == 0 {
			return
		}
		for i := 0; i < n; i++ {
			last.AfterSelection(last.Clone())
		}
	}
}

// Hide adds an inline display:none to every match of selector.
func Hide(selector string) Mutation {
	return func(doc *goquery.Document) {
		doc.Find(selector).SetAttr("style", "display: none")
	}
}

// SetTitle replaces the document title.
func SetTitle(title string) Mutation {
	return func(doc *goquery.Document) {
		doc.Find("head title").SetText(title)
	}
}

// Render applies mutations to the HTML at srcPath and returns the result.
func Render(srcPath string, mutations ...Mutation) (string, error) {
	f, err := os.Open(srcPath)
	if err != nil {
		return "", fmt.Errorf("failed to open fixture: %w", err)
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return "", fmt.Errorf("failed to parse fixture: %w", err)
	}

	for _, m := range mutations {
		m(doc)
	}

	html, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("failed to render fixture: %w", err)
	}
	if !strings.HasPrefix(strings.ToLower(html), "<!doctype") {
		html = "<!DOCTYPE html>\n" + html
	}
	return html, nil
}

// Write renders a variant of srcPath into dir/name and returns its file:// URL.
func Write(dir, name, srcPath string, mutations ...Mutation) (string, error) {
	html, err := Render(srcPath, mutations...)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(html), 0644); err != nil {
		return "", fmt.Errorf("failed to write fixture: %w", err)
	}
	return env.FileURL(path), nil
}

// WriteIndex is Write with web/index.html as the source.
func WriteIndex(dir, name string, mutations ...Mutation) (string, error) {
	return Write(dir, name, env.WebIndexPath(), mutations...)
}

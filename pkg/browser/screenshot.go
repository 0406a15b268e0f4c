package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SaveScreenshot writes a PNG of page to dir/<name>_failure.png and returns
// the path.
func SaveScreenshot(ctx context.Context, page Page, dir, name string) (string, error) {
	data, err := page.Screenshot(ctx)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create screenshot directory: %w", err)
	}

	path := filepath.Join(dir, FailureFileName(name))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write screenshot: %w", err)
	}
	return path, nil
}

// FailureFileName turns a test or run name into a screenshot file name.
func FailureFileName(name string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", " ", "_", ":", "_")
	return r.Replace(name) + "_failure.png"
}

package models

import (
	"time"
)

// ==================== Status ====================

// Status represents the state of a check run
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// FailureCategory classifies why a check or a run failed
type FailureCategory string

const (
	CategoryNone               FailureCategory = ""
	CategoryResourceNotFound   FailureCategory = "resource_not_found"  // page missing or unreachable
	CategoryStructuralMismatch FailureCategory = "structural_mismatch" // element absent or below threshold
	CategoryTimeout            FailureCategory = "timeout"             // wait exceeded the driver timeout
	CategoryDriver             FailureCategory = "driver_error"        // anything else the driver reported
)

// ==================== Results ====================

// CheckResult is the outcome of one named page check
type CheckResult struct {
	Name     string          `json:"name" yaml:"name"`
	Passed   bool            `json:"passed" yaml:"passed"`
	Message  string          `json:"message,omitempty" yaml:"message,omitempty"`
	Category FailureCategory `json:"category,omitempty" yaml:"category,omitempty"`
	Error    string          `json:"error,omitempty" yaml:"error,omitempty"`
}

// PageReport is the outcome of inspecting one page
type PageReport struct {
	RunID          string          `json:"run_id" yaml:"run_id"`
	URL            string          `json:"url" yaml:"url"`
	Driver         string          `json:"driver" yaml:"driver"`
	Revision       string          `json:"revision" yaml:"revision"`
	Status         Status          `json:"status" yaml:"status"`
	Category       FailureCategory `json:"category,omitempty" yaml:"category,omitempty"`
	ErrorMessage   string          `json:"error_message,omitempty" yaml:"error_message,omitempty"`
	ScreenshotPath string          `json:"screenshot_path,omitempty" yaml:"screenshot_path,omitempty"`
	Checks         []CheckResult   `json:"checks" yaml:"checks"`
	StartedAt      time.Time       `json:"started_at" yaml:"started_at"`
	Duration       int64           `json:"duration_ms" yaml:"duration_ms"`
}

// PassedCount returns the number of passing checks
func (r *PageReport) PassedCount() int {
	n := 0
	for _, c := range r.Checks {
		if c.Passed {
			n++
		}
	}
	return n
}

// FailedCount returns the number of failing checks
func (r *PageReport) FailedCount() int {
	return len(r.Checks) - r.PassedCount()
}

// Succeeded reports whether the run finished with every check passing
func (r *PageReport) Succeeded() bool {
	return r.Status == StatusSuccess
}

// Package jd111 holds the browser checks for JD-111: the index page loads and
// shows the extended project information (browser extensions, key features,
// the AI automation workflow and the tech stack).
//
// The tests run against the configured driver and URL:
//
//	PAGECHECK_DRIVER=playwright go test ./pkg/suites/jd111
//	PAGECHECK_LIFECYCLE=isolated PAGECHECK_TARGET_URL=https://example.test/ go test ./pkg/suites/jd111
//
// They skip when the browser cannot be launched.
package jd111

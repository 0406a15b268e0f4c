// Package env resolves the location of the page under test.
package env

import (
	"net/url"
	"os"
	"path/filepath"
	"runtime"
)

// RootVar overrides the project root, for binaries that no longer know where
// their sources live.
const RootVar = "PAGECHECK_PROJECT_ROOT"

// ProjectRoot returns the repository root, derived from the location of this
// source file so the result does not depend on the working directory.
func ProjectRoot() string {
	if root := os.Getenv(RootVar); root != "" {
		if abs, err := filepath.Abs(root); err == nil {
			return abs
		}
		return root
	}
	_, file, _, ok := runtime.Caller(0)
	return projectRoot(file, ok, searchStarts())
}

// projectRoot derives the root from the caller's file name. Builds with
// -trimpath record a module-relative name, so the root is searched for
// starting at each of starts instead.
func projectRoot(file string, ok bool, starts []string) string {
	if ok && filepath.IsAbs(file) {
		// <root>/pkg/env/env.go
		return filepath.Dir(filepath.Dir(filepath.Dir(file)))
	}
	return findRoot(starts...)
}

// searchStarts lists the executable's directory and the working directory.
func searchStarts() []string {
	var starts []string
	if exe, err := os.Executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		starts = append(starts, filepath.Dir(exe))
	}
	if wd, err := os.Getwd(); err == nil {
		starts = append(starts, wd)
	}
	return starts
}

// findRoot walks up from each start to the first directory holding
// web/index.html. Without a match it returns the last start.
func findRoot(starts ...string) string {
	for _, start := range starts {
		dir, err := filepath.Abs(start)
		if err != nil {
			continue
		}
		for {
			if _, err := os.Stat(filepath.Join(dir, "web", "index.html")); err == nil {
				return dir
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}
	if len(starts) == 0 {
		return string(filepath.Separator)
	}
	last, err := filepath.Abs(starts[len(starts)-1])
	if err != nil {
		return starts[len(starts)-1]
	}
	return last
}

// WebIndexPath returns the absolute path of web/index.html.
// The file is not checked for existence; a missing page fails at navigation.
func WebIndexPath() string {
	return filepath.Join(ProjectRoot(), "web", "index.html")
}

// WebIndexURL returns the file:// URL of web/index.html.
func WebIndexURL() string {
	return FileURL(WebIndexPath())
}

// FileURL turns a file system path into a file:// URL a browser can navigate to.
func FileURL(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String()
}

// Package discover produces the ordered, absolute, deduplicated file list
// the scan core consumes. The core itself never globs or walks.
package discover

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// defaultExcludeDirs are directory names skipped entirely during the walk.
var defaultExcludeDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	".git":         true,
	"build":        true,
	"dist":         true,
	"bin":          true,
	"out":          true,
	".next":        true,
	".cache":       true,
}

// binaryExts are suffixes that are never worth reading.
var binaryExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".ico": true,
	".pdf": true, ".zip": true, ".tar": true, ".gz": true, ".woff": true,
	".woff2": true, ".ttf": true, ".eot": true, ".exe": true, ".dll": true,
	".so": true, ".dylib": true, ".mp3": true, ".mp4": true,
}

// Config controls one discovery pass.
type Config struct {
	Root         string
	IncludeGlobs []string
	ExcludeGlobs []string
	ExcludeDirs  []string
	MaxFileSize  int64
}

// Files walks cfg.Root and returns the absolute paths that survive
// directory exclusion, glob filtering and the size ceiling, sorted and
// deduplicated. Unreadable entries are skipped silently.
func Files(cfg Config) ([]string, error) {
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, err
	}

	excludeDirs := make(map[string]bool, len(defaultExcludeDirs)+len(cfg.ExcludeDirs))
	for name := range defaultExcludeDirs {
		excludeDirs[name] = true
	}
	for _, name := range cfg.ExcludeDirs {
		excludeDirs[name] = true
	}

	seen := make(map[string]bool)
	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // vanished or unreadable: silent skip
		}
		if d.IsDir() {
			if path != root && excludeDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if binaryExts[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)
		if !matches(rel, cfg.IncludeGlobs, cfg.ExcludeGlobs) {
			return nil
		}

		if cfg.MaxFileSize > 0 {
			if info, infoErr := d.Info(); infoErr != nil || info.Size() > cfg.MaxFileSize {
				return nil
			}
		}

		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// matches applies include globs first (when present, a file must match
// one) and exclude globs second, against both the relative path and the
// basename.
func matches(rel string, include, exclude []string) bool {
	if len(include) > 0 && !matchAny(rel, include) {
		return false
	}
	return !matchAny(rel, exclude)
}

func matchAny(rel string, globs []string) bool {
	for _, g := range globs {
		if ok, _ := doublestar.Match(g, rel); ok {
			return true
		}
		if ok, _ := doublestar.Match(g, filepath.Base(rel)); ok {
			return true
		}
	}
	return false
}

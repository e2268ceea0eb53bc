// Package fs expands picker results into the image files they denote.
package fs

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"
	"github.com/fjyeo/Open-Photo-Lab/internal/debug"
)

// ImageExtensions is the picker's extension filter.
var ImageExtensions = []string{"png", "jpg", "jpeg", "webp"}

// IsImage reports whether path carries one of ImageExtensions (case-insensitive).
func IsImage(path string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	for _, e := range ImageExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// skipDirRoots contains top-level directories never walked
var skipDirRoots = map[string]bool{
	"dev":        true,
	"proc":       true,
	"sys":        true,
	"run":        true,
	"snap":       true,
	"boot":       true,
	"lost+found": true,
}

// shouldSkipPath returns true if the path lies under a system directory.
func shouldSkipPath(path string) bool {
	if len(path) < 2 || path[0] != '/' {
		return false
	}
	rest := path[1:]
	slashIdx := strings.IndexByte(rest, '/')
	firstComponent := rest
	if slashIdx != -1 {
		firstComponent = rest[:slashIdx]
	}
	return skipDirRoots[firstComponent]
}

// ExpandImages turns a picker selection into absolute image file paths.
// Picked files pass through unfiltered in the order given, duplicates included,
// and a path that cannot be stat'ed is kept so its thumbnail request reports the failure.
// Directories are replaced by the image files they contain, sorted by path;
// a file reached through more than one picked directory is listed once.
// Only direct children are considered unless recursive is set.
func ExpandImages(ctx context.Context, paths []string, recursive bool) ([]string, error) {
	var result []string
	walked := make(map[string]bool)

	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(abs)
		if err != nil || !info.IsDir() {
			if err != nil {
				debug.Log(debug.FS, "ExpandImages: keeping unreadable %s: %v", abs, err)
			}
			result = append(result, abs)
			continue
		}

		found, err := walkImages(ctx, abs, recursive)
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			if !walked[f] {
				walked[f] = true
				result = append(result, f)
			}
		}
	}

	debug.Log(debug.FS, "ExpandImages: %d inputs -> %d images", len(paths), len(result))
	return result, nil
}

// walkImages collects image files under root.
func walkImages(ctx context.Context, root string, recursive bool) ([]string, error) {
	var results []string
	var mu sync.Mutex

	// Don't follow symlinks to avoid loops through parent links
	conf := &fastwalk.Config{Follow: false}

	err := fastwalk.Walk(conf, root, func(fullPath string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			debug.Log(debug.FS_ENTRY, "walkImages: error at %q: %v", fullPath, err)
			return nil
		}
		if fullPath == root {
			return nil
		}

		if d.IsDir() {
			if !recursive || shouldSkipPath(fullPath) {
				return fastwalk.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() || !IsImage(fullPath) {
			return nil
		}

		debug.Log(debug.FS_ENTRY, "walkImages: %s", fullPath)
		mu.Lock()
		results = append(results, fullPath)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}

	// fastwalk visits in parallel; sort for a stable import order
	sort.Strings(results)
	return results, nil
}

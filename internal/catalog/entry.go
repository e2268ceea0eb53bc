// Package catalog holds the in-memory collection of imported images.
package catalog

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Metadata describes an entry's thumbnail as returned at import time.
type Metadata struct {
	Width     int
	Height    int
	Format    string
	Thumbnail string // renderable thumbnail payload (data URL)
}

// Entry is one imported image.
//
// ID, SourcePath, DisplayName and Thumbnail never change after creation.
// Full is empty until the first successful full-resolution fetch and is
// never replaced afterwards.
type Entry struct {
	ID          string
	SourcePath  string
	DisplayName string
	Thumbnail   *Metadata
	Full        string
}

// HasFull reports whether the full-resolution payload has been attached.
func (e Entry) HasFull() bool {
	return e.Full != ""
}

// NewEntry creates an entry with a fresh id for path.
func NewEntry(path string, meta *Metadata) Entry {
	return Entry{
		ID:          uuid.NewString(),
		SourcePath:  path,
		DisplayName: DisplayName(path),
		Thumbnail:   meta,
	}
}

// DisplayName returns the last segment of path, or path itself when it has none.
func DisplayName(path string) string {
	trimmed := strings.TrimRight(path, `/\`)
	if trimmed == "" {
		return path
	}
	// Accept both separators so picker paths from another platform still work
	if idx := strings.LastIndexAny(trimmed, `/\`); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	if trimmed == "" || trimmed == "." {
		return filepath.Base(path)
	}
	return trimmed
}

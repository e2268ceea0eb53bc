//go:build debug

// Package debug provides a centralized, categorized debug logging system.
// Build with -tags debug to enable logging.
package debug

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
)

// Enabled indicates whether debug logging is active
const Enabled = true

// Category represents a debug logging category
type Category string

const (
	// Core categories
	APP     Category = "APP"     // Engine orchestration and lifecycle
	CATALOG Category = "CATALOG" // Catalog store mutations
	IMPORT  Category = "IMPORT"  // Batch import and progress
	CACHE   Category = "CACHE"   // Full-resolution fetches
	NAV     Category = "NAV"     // Selection, preview and arrow navigation
	HIST    Category = "HIST"    // Histogram requests and renderer lifecycle
	IMAGING Category = "IMAGING" // Decoding, scaling, export
	FS      Category = "FS"      // Picker path expansion
	STORE   Category = "STORE"   // Database operations, settings, export history
	CONFIG  Category = "CONFIG"  // Config loading and reloads
	HOTKEY  Category = "HOTKEY"  // Keyboard shortcut handling and matching

	// Detailed subcategories (use sparingly - can be verbose)
	FS_ENTRY        Category = "FS_ENTRY"        // Individual walk entries (very verbose)
	IMPORT_PROGRESS Category = "IMPORT_PROGRESS" // Every progress tick
)

var (
	// enabledCategories controls which categories are active
	// By default, all main categories are enabled
	enabledCategories = map[Category]bool{
		APP:     true,
		CATALOG: true,
		IMPORT:  true,
		CACHE:   true,
		NAV:     true,
		HIST:    true,
		IMAGING: true,
		FS:      true,
		STORE:   true,
		CONFIG:  true,
		HOTKEY:  true,
		// Verbose categories disabled by default
		FS_ENTRY:        false,
		IMPORT_PROGRESS: false,
	}
	categoryMu sync.RWMutex

	// Output destination
	logger = log.New(os.Stderr, "", log.Ltime|log.Lmicroseconds)
)

func init() {
	// Format: PHOTOLAB_DEBUG=APP,CACHE or PHOTOLAB_DEBUG=all or PHOTOLAB_DEBUG=none
	if env := os.Getenv("PHOTOLAB_DEBUG"); env != "" {
		categoryMu.Lock()
		defer categoryMu.Unlock()

		env = strings.ToUpper(env)
		switch env {
		case "ALL":
			for cat := range enabledCategories {
				enabledCategories[cat] = true
			}
		case "NONE":
			for cat := range enabledCategories {
				enabledCategories[cat] = false
			}
		default:
			for cat := range enabledCategories {
				enabledCategories[cat] = false
			}
			for _, cat := range strings.Split(env, ",") {
				cat = strings.TrimSpace(cat)
				enabledCategories[Category(cat)] = true
			}
		}
	}
}

// Log logs a debug message for the specified category
func Log(cat Category, format string, args ...interface{}) {
	categoryMu.RLock()
	enabled := enabledCategories[cat]
	categoryMu.RUnlock()

	if !enabled {
		return
	}

	msg := fmt.Sprintf(format, args...)
	logger.Printf("[%s] %s", cat, msg)
}

// Enable enables a debug category
func Enable(cat Category) {
	categoryMu.Lock()
	enabledCategories[cat] = true
	categoryMu.Unlock()
}

// Disable disables a debug category
func Disable(cat Category) {
	categoryMu.Lock()
	enabledCategories[cat] = false
	categoryMu.Unlock()
}

// IsEnabled returns whether a category is enabled
func IsEnabled(cat Category) bool {
	categoryMu.RLock()
	defer categoryMu.RUnlock()
	return enabledCategories[cat]
}

// EnableAll enables all debug categories including verbose ones
func EnableAll() {
	categoryMu.Lock()
	for cat := range enabledCategories {
		enabledCategories[cat] = true
	}
	categoryMu.Unlock()
}

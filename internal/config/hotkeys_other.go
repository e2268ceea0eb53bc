//go:build !darwin

package config

// DefaultHotkeys returns the default keyboard shortcuts for Windows/Linux
func DefaultHotkeys() HotkeysConfig {
	return HotkeysConfig{
		Delete:     "Backspace",
		Previous:   "Left",
		Next:       "Right",
		BackToGrid: "Escape",
		Export:     "Ctrl+E",
	}
}
